package uploads

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	tests := []struct {
		filename, contentType string
		suffix                string
		wantErr               bool
	}{
		{"Front View.PNG", "image/png", "_front-view.png", false},
		{"back.jpeg", "image/jpeg", "_back.jpg", false},
		{"../../etc/passwd", "image/webp", "_passwd.webp", false},
		{"???", "image/gif", "_image.gif", false},
		{"logo.svg", "image/svg+xml", "", true},
		{"page.html", "text/html", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			name, err := ObjectName("products/p1", tt.filename, tt.contentType)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(name, "products/p1/"), name)
			assert.True(t, strings.HasSuffix(name, tt.suffix), name)
		})
	}
}

func TestDiskUpload(t *testing.T) {
	dir := t.TempDir()
	d := NewDisk(dir, "/uploads/")

	url, err := d.Upload(context.Background(), "products/p1/abc_front.png", "image/png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/products/p1/abc_front.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "products", "p1", "abc_front.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}
