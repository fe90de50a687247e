package media

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a download failure.
type ErrorKind string

const (
	// KindInvalidURL means the URL could not be parsed.
	KindInvalidURL ErrorKind = "invalid_url"
	// KindUnsupportedProtocol means the URL scheme is not http(s).
	KindUnsupportedProtocol ErrorKind = "unsupported_protocol"
	// KindNetwork means the HTTP request failed or returned a bad status.
	KindNetwork ErrorKind = "network"
	// KindUnsupportedType means the media could not be classified as image or video.
	KindUnsupportedType ErrorKind = "unsupported_media_type"
	// KindTooLarge means the declared or actual size exceeded the byte cap.
	KindTooLarge ErrorKind = "file_too_large"
	// KindWrite means the local file could not be written.
	KindWrite ErrorKind = "write_failed"
)

// DownloadError represents a media acquisition failure.
type DownloadError struct {
	Kind    ErrorKind
	URL     string
	Message string
	Cause   error
}

func (e *DownloadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("media download failed (%s) for %s: %s: %v", e.Kind, e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("media download failed (%s) for %s: %s", e.Kind, e.URL, e.Message)
}

func (e *DownloadError) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err is a DownloadError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *DownloadError
	return errors.As(err, &de) && de.Kind == kind
}
