// Local attachment loading for media encoding
package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileReader loads a locally stored attachment and returns it as a base64
// data URI ready for inline embedding in a request body. The context is
// honored: reading a large attachment is one of the two blocking operations
// of this layer and must stop on cancellation.
type FileReader interface {
	ReadDataURI(ctx context.Context, path string) (string, error)
}

// DefaultMaxAttachmentBytes bounds how much of a local attachment the OS
// reader will load into memory. Provider inline ceilings are enforced
// separately by each adapter.
const DefaultMaxAttachmentBytes = 64 * 1024 * 1024

// OSFileReader reads attachments from the local filesystem
type OSFileReader struct {
	MaxBytes int64
}

// NewOSFileReader creates an OSFileReader with the default size bound
func NewOSFileReader() *OSFileReader {
	return &OSFileReader{MaxBytes: DefaultMaxAttachmentBytes}
}

// ReadDataURI loads the file at path and encodes it as a data URI, inferring
// the MIME type from the file extension
func (r *OSFileReader) ReadDataURI(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat attachment: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("attachment path is a directory: %s", path)
	}
	if r.MaxBytes > 0 && info.Size() > r.MaxBytes {
		return "", fmt.Errorf("attachment %s exceeds size limit (%d > %d bytes)",
			filepath.Base(path), info.Size(), r.MaxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read attachment: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	mimeType := InferMimeType(path)
	return EncodeDataURI(mimeType, data), nil
}

// EncodeDataURI builds a base64 data URI from raw bytes
func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI splits a base64 data URI into its MIME type and decoded
// payload. Only base64-encoded data URIs are accepted; that is the only form
// this layer ever produces or consumes.
func ParseDataURI(uri string) (mimeType string, data []byte, err error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, errors.New("not a data URI")
	}
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return "", nil, errors.New("malformed data URI: no comma separator")
	}

	meta := uri[len("data:"):comma]
	payload := uri[comma+1:]

	mimeType = meta
	if semi := strings.IndexByte(meta, ';'); semi >= 0 {
		mimeType = meta[:semi]
	}
	if mimeType == "" {
		mimeType = DefaultMimeType
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("malformed data URI payload: %w", err)
	}
	return mimeType, data, nil
}

// SplitDataURI splits a base64 data URI into its MIME type and the base64
// payload without decoding it. Used when the payload is about to be
// re-embedded in another base64 field anyway.
func SplitDataURI(uri string) (mimeType, base64Data string, err error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", "", errors.New("not a data URI")
	}
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return "", "", errors.New("malformed data URI: no comma separator")
	}

	meta := uri[len("data:"):comma]
	mimeType = meta
	if semi := strings.IndexByte(meta, ';'); semi >= 0 {
		mimeType = meta[:semi]
	}
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	return mimeType, uri[comma+1:], nil
}

// DataURIDecodedSize reports the decoded payload size of a base64 data URI
// without materializing the bytes. Used to enforce provider inline ceilings
// before spending memory on a decode.
func DataURIDecodedSize(uri string) int64 {
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return 0
	}
	payload := uri[comma+1:]
	padding := int64(strings.Count(payload, "="))
	return int64(len(payload))*3/4 - padding
}

// IsRemoteURL reports whether the URL points at an http(s) resource rather
// than local or inline data
func IsRemoteURL(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// IsDataURI reports whether the URL is an inline data URI
func IsDataURI(url string) bool {
	return strings.HasPrefix(url, "data:")
}
