package local_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgharvest/orgharvest/internal/storage/local"
)

func TestBlobStore_Save(t *testing.T) {
	dir := t.TempDir()
	s, err := local.New(dir)
	require.NoError(t, err)

	uri, err := s.Save(context.Background(), "New_York/Technology/page-0001.json", []byte(`{"ok":true}`))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "file://"))

	data, err := os.ReadFile(filepath.Join(dir, "New_York", "Technology", "page-0001.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))
}

func TestBlobStore_RejectsEscapingPaths(t *testing.T) {
	s, err := local.New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save(context.Background(), "../outside.json", []byte("x"))
	assert.Error(t, err)
}

func TestBlobStore_RejectsEmptyNames(t *testing.T) {
	s, err := local.New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save(context.Background(), "  ", []byte("x"))
	assert.Error(t, err)

	_, err = local.New("")
	assert.Error(t, err)
}
