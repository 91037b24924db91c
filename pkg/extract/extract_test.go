package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmintel/core/internal/apperr"
)

func TestSupported(t *testing.T) {
	e := New()

	assert.True(t, e.Supported("application/pdf"))
	assert.True(t, e.Supported("text/plain"))
	assert.True(t, e.Supported("text/plain; charset=utf-8"))
	assert.True(t, e.Supported("TEXT/PLAIN"))

	assert.False(t, e.Supported("application/msword"))
	assert.False(t, e.Supported("image/png"))
	assert.False(t, e.Supported(""))
}

func TestExtract_PlainText(t *testing.T) {
	e := New()

	text, pages, err := e.Extract([]byte("hello   world\n\nsecond  line"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "hello world second line", text)
	assert.Equal(t, 1, pages)
}

func TestExtract_UnsupportedType(t *testing.T) {
	e := New()

	_, _, err := e.Extract([]byte("data"), "application/zip")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.UnsupportedFileType))
}

func TestExtract_MalformedPDF(t *testing.T) {
	e := New()

	_, _, err := e.Extract([]byte("definitely not a pdf"), "application/pdf")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.UnsupportedFileType))
}

func TestTextFromContentStream(t *testing.T) {
	stream := []byte("BT\n/F1 12 Tf\n72 712 Td\n(Hello) Tj\n(\\040World) Tj\nT*\n(Next line) Tj\nET")

	got := textFromContentStream(stream)
	assert.Contains(t, got, "Hello")
	assert.Contains(t, got, " World")
	assert.Contains(t, got, "Next line")
}

func TestDecodePDFString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, "plain"},
		{`with \(parens\)`, "with (parens)"},
		{`tab\there`, "tab\there"},
		{`octal\040space`, "octal space"},
		{`back\\slash`, `back\slash`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, decodePDFString([]byte(tt.in)))
	}
}
