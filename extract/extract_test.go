package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDocxText(t *testing.T) {
	t.Parallel()
	data := docx(t, `<w:p><w:r><w:t>Cliente: Acme</w:t></w:r></w:p><w:p><w:r><w:t xml:space="preserve">Queremos un </w:t></w:r><w:r><w:t>video</w:t></w:r></w:p>`)
	text, err := Text("brief.docx", "", data)
	require.NoError(t, err)
	assert.Equal(t, "Cliente: Acme\nQueremos un video", text)
}

func TestPlainText(t *testing.T) {
	t.Parallel()
	text, err := Text("notas.txt", "", []byte("  hola  \n"))
	require.NoError(t, err)
	assert.Equal(t, "hola", text)
}

func TestErrors(t *testing.T) {
	t.Parallel()
	_, err := Text("a.pdf", "", nil)
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = Text("a.bin", "application/octet-stream", []byte{1, 2})
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = Text("a.pdf", "", []byte("not a pdf"))
	assert.Error(t, err)
	_, err = Text("a.docx", "", []byte("not a zip"))
	assert.Error(t, err)
}

func TestMimeType(t *testing.T) {
	t.Parallel()
	assert.Equal(t, PDFMimeType, MimeType("X.PDF", "application/octet-stream"))
	assert.Equal(t, DOCXMimeType, MimeType("x.docx", ""))
	assert.Equal(t, "text/csv", MimeType("x.csv", "text/csv; charset=utf-8"))
	assert.Equal(t, "application/octet-stream", MimeType("x", ""))
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "añ", Truncate("añoz", 2))
	assert.Equal(t, "ab", Truncate("ab", 5))
}
