package export

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lessonTable(rows int) Table {
	t := Table{
		Title:   "Algebra I",
		Headers: []string{"#", "Start", "End"},
	}
	for i := 0; i < rows; i++ {
		t.Rows = append(t.Rows, []string{fmt.Sprint(i + 1), "2024-01-01T09:00:00Z", "2024-01-01T10:00:00Z"})
	}
	return t
}

func TestRenderCSV(t *testing.T) {
	data, err := Render(FormatCSV, lessonTable(2))
	require.NoError(t, err)
	expected := "#,Start,End\n" +
		"1,2024-01-01T09:00:00Z,2024-01-01T10:00:00Z\n" +
		"2,2024-01-01T09:00:00Z,2024-01-01T10:00:00Z\n"
	assert.Equal(t, expected, string(data))
}

func TestRenderPDFSpansPages(t *testing.T) {
	data, err := Render(FormatPDF, lessonTable(120))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRenderRejectsRaggedRows(t *testing.T) {
	table := lessonTable(1)
	table.Rows[0] = table.Rows[0][:2]
	_, err := Render(FormatCSV, table)
	assert.Error(t, err)
}

func TestRenderRequiresHeaders(t *testing.T) {
	_, err := Render(FormatPDF, Table{})
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}
