package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Course Scheduler API",
        "description": "Expands weekly course timetables into dated lessons and keeps tutors from being double-booked",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetable", "description": "Course timetables, lessons and tutor bookings"}
    ],
    "paths": {
        "/courses/{id}/timetable/preview": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Preview the lessons a weekly timetable would generate",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid timetable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Course not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Lesson overlaps the tutor's schedule", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}/timetable": {
            "put": {
                "tags": ["Timetable"],
                "summary": "Apply a weekly timetable to a course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid timetable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Course not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict or tutor schedule locked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Calendar invite could not be created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}/lessons": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List or export a course's lessons",
                "produces": ["application/json", "text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Course not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tutors/{id}/bookings": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List a tutor's booked lesson intervals",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Tutor not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/invites/{token}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Download a lesson calendar invite",
                "produces": ["text/calendar"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "iCalendar file"},
                    "404": {"description": "Invite not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "410": {"description": "Link invalid or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "WeeklySlotRequest": {
            "type": "object",
            "properties": {
                "dayOfWeek": {"type": "integer", "minimum": 0, "maximum": 6, "description": "0 = Sunday"},
                "timeZone": {"type": "string", "example": "Asia/Ho_Chi_Minh"},
                "start": {"type": "string", "example": "09:00"},
                "end": {"type": "string", "example": "10:00"}
            },
            "required": ["dayOfWeek", "start", "end"]
        },
        "TimetableRequest": {
            "type": "object",
            "properties": {
                "openDay": {"type": "string", "format": "date"},
                "numberLessons": {"type": "integer", "minimum": 1},
                "activate": {"type": "boolean"},
                "slots": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/WeeklySlotRequest"}
                }
            },
            "required": ["openDay", "numberLessons"]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
