package llm

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileReaderReadDataURI(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.png")
	payload := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	uri, err := NewOSFileReader().ReadDataURI(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	mime, data, err := ParseDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, payload, data)
}

func TestOSFileReaderMissingFile(t *testing.T) {
	_, err := NewOSFileReader().ReadDataURI(context.Background(), "/nonexistent/file.png")
	assert.Error(t, err)
}

func TestOSFileReaderSizeGuard(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 128), 0o644))

	reader := &OSFileReader{MaxBytes: 64}
	_, err := reader.ReadDataURI(context.Background(), path)
	assert.Error(t, err)
}

func TestSplitDataURI(t *testing.T) {
	uri := EncodeDataURI("audio/mpeg", []byte("abc"))

	mime, payload, err := SplitDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", mime)
	assert.Equal(t, "YWJj", payload)

	_, _, err = SplitDataURI("/just/a/path.mp3")
	assert.Error(t, err)
}

func TestDataURIDecodedSize(t *testing.T) {
	data := []byte("hello world!")
	uri := EncodeDataURI("text/plain", data)
	assert.Equal(t, int64(len(data)), DataURIDecodedSize(uri))

	padded := EncodeDataURI("text/plain", []byte("hello"))
	assert.Equal(t, int64(5), DataURIDecodedSize(padded))
}

func TestIsRemoteURLAndIsDataURI(t *testing.T) {
	assert.True(t, IsRemoteURL("https://example.com/a.png"))
	assert.True(t, IsRemoteURL("http://example.com/a.png"))
	assert.False(t, IsRemoteURL("/local/a.png"))
	assert.False(t, IsRemoteURL("data:image/png;base64,xx"))

	assert.True(t, IsDataURI("data:image/png;base64,xx"))
	assert.False(t, IsDataURI("https://example.com/a.png"))
}
