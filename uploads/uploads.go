// Package uploads stores product images in Cloud Storage, or on local disk
// when no bucket is configured.
package uploads

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// AllowedImageTypes maps accepted content types to file extensions
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Uploader stores an object and returns its public URL
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// ObjectName builds a unique object name below prefix keeping the extension
// that matches contentType.
func ObjectName(prefix, filename, contentType string) (string, error) {
	ext, ok := AllowedImageTypes[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", contentType)
	}
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = sanitize(base)
	if base == "" {
		base = "image"
	}
	return path.Join(prefix, uuid.NewString()[:8]+"_"+base+ext), nil
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('-')
		}
	}
	return b.String()
}

// GCS uploads to a Cloud Storage bucket
type GCS struct {
	Client *storage.Client
	Bucket string
}

// NewGCS creates the storage client for bucket
func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient failed: %w", err)
	}
	return &GCS{Client: client, Bucket: bucket}, nil
}

// Upload writes the object and returns its public https URL
func (g *GCS) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	w := g.Client.Bucket(g.Bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return "https://storage.googleapis.com/" + g.Bucket + "/" + (&url.URL{Path: name}).EscapedPath(), nil
}

// Close releases the storage client
func (g *GCS) Close() error {
	return g.Client.Close()
}

// Disk stores files below Dir and serves them under URLPrefix
type Disk struct {
	Dir       string
	URLPrefix string
}

// NewDisk creates a Disk uploader
func NewDisk(dir, urlPrefix string) *Disk {
	return &Disk{Dir: dir, URLPrefix: strings.TrimRight(urlPrefix, "/")}
}

// Upload writes the file and returns its URL path
func (d *Disk) Upload(_ context.Context, name, _ string, r io.Reader) (string, error) {
	filePath := filepath.Join(d.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, r); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return d.URLPrefix + "/" + name, nil
}
