package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch/internal/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestForPath(t *testing.T) {
	ex, err := ForPath("report.PDF")
	require.NoError(t, err)
	assert.IsType(t, &PDF{}, ex)

	ex, err = ForPath("notes.txt")
	require.NoError(t, err)
	assert.IsType(t, PlainText{}, ex)

	_, err = ForPath("image.png")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestPlainText(t *testing.T) {
	path := writeFile(t, "notes.txt", "First sentence. Second sentence.")

	got, err := Auto{}.Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "First sentence. Second sentence.", got.Text)
	assert.Equal(t, 1, got.PageCount)
}

func TestPlainText_Empty(t *testing.T) {
	path := writeFile(t, "empty.txt", "")

	_, err := PlainText{}.Extract(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, domain.KindProcessing, domain.KindOf(err))
}

func TestPDF_Validate(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{name: "missing", path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "gone.pdf") }},
		{name: "empty", path: func(t *testing.T) string { return writeFile(t, "empty.pdf", "") }},
		{name: "wrong header", path: func(t *testing.T) string { return writeFile(t, "fake.pdf", "hello, not a pdf") }},
		{name: "truncated body", path: func(t *testing.T) string { return writeFile(t, "broken.pdf", "%PDF-1.4\n%garbage") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPDF(nil)
			err := p.Validate(tt.path(t))
			require.Error(t, err)
			assert.Equal(t, domain.KindProcessing, domain.KindOf(err))

			_, err = p.Extract(context.Background(), tt.path(t))
			assert.Error(t, err)
		})
	}
}
