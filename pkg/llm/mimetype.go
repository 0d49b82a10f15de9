// MIME type inference for attachments
package llm

import (
	"mime"
	"path"
	"strings"
)

// DefaultMimeType is used when no MIME type can be inferred for an attachment
const DefaultMimeType = "application/octet-stream"

// MimeTypeDocx is the MIME type for Office Open XML word-processor documents
const MimeTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// extensionMimeTypes maps known file extensions to MIME types.
// The table is fixed: callers that need exotic types must supply an explicit
// MIME type on the attachment instead.
var extensionMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": MimeTypeDocx,
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".json": "application/json",
}

// InferMimeType resolves a MIME type for a file name, path, or URL.
// Data URIs report their embedded type. Unknown extensions fall back to the
// platform mime database, then to DefaultMimeType.
func InferMimeType(name string) string {
	if strings.HasPrefix(name, "data:") {
		if mt, _, err := ParseDataURI(name); err == nil {
			return mt
		}
		return DefaultMimeType
	}

	// Strip any query string before looking at the extension
	if idx := strings.IndexAny(name, "?#"); idx >= 0 {
		name = name[:idx]
	}

	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return DefaultMimeType
	}
	if mt, ok := extensionMimeTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		// Drop any ";charset=..." suffix the platform database adds
		if idx := strings.Index(mt, ";"); idx >= 0 {
			mt = mt[:idx]
		}
		return mt
	}
	return DefaultMimeType
}

// MimeCategory returns the top-level media category of a MIME type
// ("image", "video", "audio", "text", "application", ...)
func MimeCategory(mimeType string) string {
	if idx := strings.Index(mimeType, "/"); idx >= 0 {
		return mimeType[:idx]
	}
	return mimeType
}

// IsTextualMimeType reports whether a MIME type carries plain text that can be
// inlined into a prompt without extraction (text/*, JSON, CSV)
func IsTextualMimeType(mimeType string) bool {
	switch {
	case strings.HasPrefix(mimeType, "text/"):
		return true
	case mimeType == "application/json":
		return true
	default:
		return false
	}
}

// IsWordProcessorMimeType reports whether a MIME type identifies a
// word-processor document that requires external text extraction
func IsWordProcessorMimeType(mimeType string) bool {
	switch mimeType {
	case MimeTypeDocx, "application/msword":
		return true
	default:
		return false
	}
}
