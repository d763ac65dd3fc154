package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveOpenDelete(t *testing.T) {
	s, err := NewLocalStorage(Config{BasePath: t.TempDir(), BaseURL: "/files/"})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "professionals/u1/photo.png", strings.NewReader("png-bytes"), 9, "image/png"))

	ok, err := s.Exists(ctx, "professionals/u1/photo.png")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Open(ctx, "professionals/u1/photo.png")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "png-bytes", string(data))

	assert.Equal(t, "/files/professionals/u1/photo.png", s.URL("professionals/u1/photo.png"))

	require.NoError(t, s.Delete(ctx, "professionals/u1/photo.png"))
	require.NoError(t, s.Delete(ctx, "professionals/u1/photo.png"), "deleting twice is not an error")
	ok, _ = s.Exists(ctx, "professionals/u1/photo.png")
	assert.False(t, ok)
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStorage(Config{BasePath: t.TempDir()})
	require.NoError(t, err)

	for _, key := range []string{"", "/etc/passwd", "../x", "a/../../x", `a\b`} {
		err := s.Save(context.Background(), key, strings.NewReader("x"), 1, "text/plain")
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestNewStorage_UnknownType(t *testing.T) {
	_, err := NewStorage(Config{Type: "ftp"})
	assert.Error(t, err)
}

func TestNewMinioStorage_RequiresEndpoint(t *testing.T) {
	_, err := NewMinioStorage(Config{Bucket: "b"})
	assert.Error(t, err)
}
