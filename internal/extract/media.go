package extract

import (
	"net/url"
	"strings"

	"github.com/searchvault/internal/models"
)

type mediaKind int

const (
	mediaNone mediaKind = iota
	mediaVideo
	mediaAudio
)

// PlatformOther tags a media reference whose platform is not recognized;
// the literal hostname is preserved alongside it
const PlatformOther = "other"

// videoPlatforms maps host suffixes to video platform tags
var videoPlatforms = map[string]string{
	"youtube.com":     "youtube",
	"youtu.be":        "youtube",
	"vimeo.com":       "vimeo",
	"dailymotion.com": "dailymotion",
	"twitch.tv":       "twitch",
}

// audioPlatforms maps host suffixes to audio platform tags
var audioPlatforms = map[string]string{
	"spotify.com":        "spotify",
	"soundcloud.com":     "soundcloud",
	"podcasts.apple.com": "apple-podcasts",
}

// classifyMedia recognizes known platform URL shapes. Unrecognized URLs
// return mediaNone; callers that know the element is a player wrap them
// with otherMedia so unclassifiable platforms are never dropped.
func classifyMedia(u *url.URL, title string) (models.MediaRef, mediaKind) {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	for suffix, platform := range videoPlatforms {
		if hostMatches(host, suffix) {
			return models.MediaRef{URL: u.String(), Platform: platform, Title: title}, mediaVideo
		}
	}
	for suffix, platform := range audioPlatforms {
		if hostMatches(host, suffix) {
			return models.MediaRef{URL: u.String(), Platform: platform, Title: title}, mediaAudio
		}
	}

	// Direct media files are classifiable by extension
	switch ext := strings.ToLower(pathExt(u.Path)); ext {
	case "mp4", "webm", "mov", "m4v":
		return otherMedia(u, title), mediaVideo
	case "mp3", "ogg", "wav", "m4a", "flac":
		return otherMedia(u, title), mediaAudio
	}

	return models.MediaRef{}, mediaNone
}

// otherMedia builds an "other" reference that preserves the hostname
func otherMedia(u *url.URL, title string) models.MediaRef {
	return models.MediaRef{
		URL:      u.String(),
		Platform: PlatformOther,
		Host:     strings.ToLower(u.Hostname()),
		Title:    title,
	}
}

// VideoThumbnail derives a downloadable thumbnail URL for a video
// reference where the platform exposes a predictable shape
func VideoThumbnail(ref models.MediaRef) (string, bool) {
	if ref.Platform != "youtube" {
		return "", false
	}
	u, err := url.Parse(ref.URL)
	if err != nil {
		return "", false
	}

	var id string
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch {
	case host == "youtu.be":
		id = strings.Trim(u.Path, "/")
	case strings.HasPrefix(u.Path, "/embed/"):
		id = strings.TrimPrefix(u.Path, "/embed/")
	case strings.HasPrefix(u.Path, "/shorts/"):
		id = strings.TrimPrefix(u.Path, "/shorts/")
	default:
		id = u.Query().Get("v")
	}
	id = strings.Trim(id, "/")
	if id == "" {
		return "", false
	}

	return "https://img.youtube.com/vi/" + id + "/hqdefault.jpg", true
}

// hostMatches reports whether host equals the suffix or is a subdomain of it
func hostMatches(host, suffix string) bool {
	return host == suffix || strings.HasSuffix(host, "."+suffix)
}

func pathExt(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 || idx == len(path)-1 {
		return ""
	}
	return path[idx+1:]
}
