package media

import (
	"path"
	"strings"
)

// MediaType is the coarse classification of a downloaded asset.
type MediaType string

const (
	// MediaImage is a still image asset.
	MediaImage MediaType = "image"
	// MediaVideo is a video asset.
	MediaVideo MediaType = "video"
	// MediaUnknown means the asset could not be classified.
	MediaUnknown MediaType = "unknown"
)

// extensionTypes is the fallback allowlist used when the content type is
// absent or too generic to classify.
var extensionTypes = map[string]MediaType{
	".jpg":  MediaImage,
	".jpeg": MediaImage,
	".png":  MediaImage,
	".webp": MediaImage,
	".gif":  MediaImage,
	".heic": MediaImage,
	".mp4":  MediaVideo,
	".mov":  MediaVideo,
	".webm": MediaVideo,
	".m4v":  MediaVideo,
	".avi":  MediaVideo,
}

// genericContentTypes are content types that carry no useful classification
// signal and defer to the extension allowlist.
var genericContentTypes = map[string]bool{
	"":                         true,
	"application/octet-stream": true,
	"binary/octet-stream":      true,
}

// Classify determines the media type from the response content type and the
// URL path. The content-type prefix takes priority; the extension allowlist
// is only consulted when the content type is missing or generic.
func Classify(contentType, urlPath string) MediaType {
	mime := normalizeContentType(contentType)

	if !genericContentTypes[mime] {
		switch {
		case strings.HasPrefix(mime, "image/"):
			return MediaImage
		case strings.HasPrefix(mime, "video/"):
			return MediaVideo
		default:
			return MediaUnknown
		}
	}

	ext := strings.ToLower(path.Ext(urlPath))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return MediaUnknown
}

// normalizeContentType strips parameters ("video/mp4; codecs=...") and
// lowercases the media type.
func normalizeContentType(contentType string) string {
	mime, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mime))
}

// extensionFor picks a file extension for a stored asset, preferring the URL
// path's own extension when it is on the allowlist.
func extensionFor(mediaType MediaType, urlPath string) string {
	ext := strings.ToLower(path.Ext(urlPath))
	if _, ok := extensionTypes[ext]; ok {
		return ext
	}
	if mediaType == MediaVideo {
		return ".mp4"
	}
	return ".jpg"
}
