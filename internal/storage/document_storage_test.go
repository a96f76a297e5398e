package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentStorage_SaveOpenDelete(t *testing.T) {
	store, err := NewDocumentStorage(t.TempDir(), 10)
	require.NoError(t, err)

	userID := uuid.New()
	content := []byte("%PDF-1.4 test invoice")

	relative, written, err := store.Save(context.Background(), userID, "invoice.pdf", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), written)
	assert.True(t, strings.HasPrefix(relative, userID.String()))

	reader, err := store.Open(context.Background(), relative)
	require.NoError(t, err)
	defer reader.Close()

	saved, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, saved)

	require.NoError(t, store.Delete(context.Background(), relative))

	_, err = store.Open(context.Background(), relative)
	assert.Error(t, err)
}

func TestDocumentStorage_Delete_MissingFileIsNoop(t *testing.T) {
	store, err := NewDocumentStorage(t.TempDir(), 10)
	require.NoError(t, err)

	assert.NoError(t, store.Delete(context.Background(), "nobody/nothing.pdf"))
}

func TestDocumentStorage_Save_RejectsOversizedFile(t *testing.T) {
	store, err := NewDocumentStorage(t.TempDir(), 0)
	require.NoError(t, err)

	_, _, err = store.Save(context.Background(), uuid.New(), "invoice.pdf", bytes.NewReader([]byte("x")))
	assert.Error(t, err)
}
