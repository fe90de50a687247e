package scraper

import (
	"net/url"
	"strings"
)

// Platform represents a known social media source.
type Platform string

const (
	// PlatformInstagram is an Instagram post or reel.
	PlatformInstagram Platform = "instagram"
	// PlatformTikTok is a TikTok video.
	PlatformTikTok Platform = "tiktok"
	// PlatformYouTube is a YouTube video or short.
	PlatformYouTube Platform = "youtube"
	// PlatformUnknown is an unrecognized source.
	PlatformUnknown Platform = "unknown"
)

// DetectPlatform identifies the social platform from a post URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Host)
	host = strings.TrimPrefix(host, "www.")

	switch {
	case strings.Contains(host, "instagram.com"):
		return PlatformInstagram
	case strings.Contains(host, "tiktok.com"):
		return PlatformTikTok
	case strings.Contains(host, "youtube.com"), strings.Contains(host, "youtu.be"):
		return PlatformYouTube
	default:
		return PlatformUnknown
	}
}

// usernameFromURL extracts the poster's username from the URL path where the
// platform encodes it there. Returns "" when the path carries no username.
func usernameFromURL(platform Platform, urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return ""
	}

	switch platform {
	case PlatformTikTok:
		// tiktok.com/@user/video/123
		if strings.HasPrefix(segments[0], "@") {
			return strings.TrimPrefix(segments[0], "@")
		}
	case PlatformInstagram:
		// instagram.com/user/p/SHORTCODE; instagram.com/p/... carries none
		if segments[0] != "p" && segments[0] != "reel" && segments[0] != "reels" && len(segments) > 1 {
			return segments[0]
		}
	case PlatformYouTube:
		if strings.HasPrefix(segments[0], "@") {
			return strings.TrimPrefix(segments[0], "@")
		}
	}
	return ""
}
