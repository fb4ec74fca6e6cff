package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

var (
	// ErrTooLarge is returned when an upload exceeds the configured size.
	ErrTooLarge = errors.New("attachment exceeds maximum size")
	// ErrRejectedType is returned for executable or otherwise blocked content.
	ErrRejectedType = errors.New("attachment type not allowed")
)

// Uploader stores attachment content and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, ticketID, filename string, r io.Reader) (string, error)
}

var blockedTypes = []string{
	"application/x-msdownload",
	"application/vnd.microsoft.portable-executable",
	"application/x-executable",
	"application/x-elf",
	"application/x-mach-binary",
	"application/x-sh",
	"text/x-shellscript",
	"application/x-bat",
	"application/java-archive",
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// LocalUploader writes files to disk below a root directory.
type LocalUploader struct {
	root     string
	prefix   string
	maxBytes int64
}

// NewLocalUploader builds an uploader from storage settings.
func NewLocalUploader(cfg config.StorageConfig) (*LocalUploader, error) {
	root := cfg.UploadDir
	if root == "" {
		root = "uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	prefix := "/" + strings.Trim(cfg.PublicPrefix, "/")
	if prefix == "/" {
		prefix = "/files"
	}
	maxBytes := cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &LocalUploader{root: root, prefix: prefix, maxBytes: maxBytes}, nil
}

// Root is the directory served under the public prefix.
func (u *LocalUploader) Root() string { return u.root }

// Prefix is the public URL prefix.
func (u *LocalUploader) Prefix() string { return u.prefix }

func (u *LocalUploader) Upload(ctx context.Context, ticketID, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dirName := SanitizeName(ticketID)
	if dirName == "" {
		return "", errors.New("ticket id required")
	}

	head := make([]byte, 3072)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read attachment: %w", err)
	}
	head = head[:n]
	if detected := mimetype.Detect(head); isBlocked(detected) {
		return "", fmt.Errorf("%w: %s", ErrRejectedType, detected.String())
	}

	dir := filepath.Join(u.root, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create ticket dir: %w", err)
	}
	name := uuid.NewString() + "-" + SanitizeName(filename)
	dst := filepath.Join(dir, name)

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create attachment: %w", err)
	}

	limited := io.LimitReader(io.MultiReader(bytes.NewReader(head), r), u.maxBytes+1)
	written, copyErr := io.Copy(f, limited)
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(dst)
		return "", fmt.Errorf("write attachment: %w", copyErr)
	case closeErr != nil:
		_ = os.Remove(dst)
		return "", fmt.Errorf("close attachment: %w", closeErr)
	case written > u.maxBytes:
		_ = os.Remove(dst)
		return "", ErrTooLarge
	}

	return path.Join(u.prefix, url.PathEscape(dirName), url.PathEscape(name)), nil
}

func isBlocked(m *mimetype.MIME) bool {
	for mt := m; mt != nil; mt = mt.Parent() {
		for _, blocked := range blockedTypes {
			if mt.Is(blocked) {
				return true
			}
		}
	}
	return false
}

// SanitizeName reduces a client supplied name to a safe path segment.
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeName.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if len(name) > 100 {
		name = name[len(name)-100:]
	}
	if name == "" {
		return "file"
	}
	return name
}
