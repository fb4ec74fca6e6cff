package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

func newTestUploader(t *testing.T, maxBytes int64) *LocalUploader {
	t.Helper()
	u, err := NewLocalUploader(config.StorageConfig{UploadDir: t.TempDir(), PublicPrefix: "/files/", MaxUploadBytes: maxBytes})
	require.NoError(t, err)
	return u
}

func TestLocalUploaderStoresFile(t *testing.T) {
	u := newTestUploader(t, 1024)

	url, err := u.Upload(context.Background(), "ticket-1", "screen shot.png", strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/files/ticket-1/"), url)
	assert.True(t, strings.HasSuffix(url, "-screen_shot.png"), url)

	name := filepath.Base(url)
	data, err := os.ReadFile(filepath.Join(u.Root(), "ticket-1", name))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestLocalUploaderEnforcesSize(t *testing.T) {
	u := newTestUploader(t, 8)
	_, err := u.Upload(context.Background(), "ticket-1", "a.txt", strings.NewReader("0123456789"))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(filepath.Join(u.Root(), "ticket-1"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalUploaderRejectsExecutables(t *testing.T) {
	u := newTestUploader(t, 1<<20)
	elf := append([]byte{0x7f, 'E', 'L', 'F', 2, 1, 1}, bytes.Repeat([]byte{0}, 64)...)
	_, err := u.Upload(context.Background(), "ticket-1", "tool", bytes.NewReader(elf))
	assert.ErrorIs(t, err, ErrRejectedType)

	_, err = u.Upload(context.Background(), "ticket-1", "run.sh", strings.NewReader("#!/bin/sh\necho hi\n"))
	assert.ErrorIs(t, err, ErrRejectedType)
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd": "passwd",
		`C:\temp\a b.pdf`:  "a_b.pdf",
		"...":              "file",
		"":                 "file",
		"ok-name_1.txt":    "ok-name_1.txt",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeName(in), in)
	}
}
