package handler

import (
	"errors"
	"net/http"
	"os"
	"path"

	"github.com/gin-gonic/gin"

	appErrors "github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/errors"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/response"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/storage"
)

type inviteTokenParser interface {
	Parse(token string, allowExpired bool) (storage.Grant, error)
}

type inviteFiles interface {
	Open(filename string) (*os.File, error)
}

// InviteHandler serves stored calendar invites behind signed links.
type InviteHandler struct {
	signer inviteTokenParser
	files  inviteFiles
}

// NewInviteHandler constructs the handler.
func NewInviteHandler(signer inviteTokenParser, files inviteFiles) *InviteHandler {
	return &InviteHandler{signer: signer, files: files}
}

// Download godoc
// @Summary Download a lesson calendar invite
// @Tags Timetable
// @Produce text/calendar
// @Param token path string true "Signed invite token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /invites/{token} [get]
func (h *InviteHandler) Download(c *gin.Context) {
	grant, err := h.signer.Parse(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInviteExpired.Code, appErrors.ErrInviteExpired.Status, appErrors.ErrInviteExpired.Message))
		return
	}

	file, err := h.files.Open(grant.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "invite not found"))
			return
		}
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.DataFromReader(http.StatusOK, info.Size(), "text/calendar; charset=utf-8", file, map[string]string{
		"Content-Disposition": `attachment; filename="` + path.Base(grant.Path) + `"`,
		"Cache-Control":       "no-store",
	})
}
