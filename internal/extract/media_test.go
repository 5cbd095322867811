package extract

import (
	"net/url"
	"testing"

	"github.com/searchvault/internal/models"
)

func TestClassifyMedia(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		wantKind     mediaKind
		wantPlatform string
	}{
		{"YouTube watch", "https://www.youtube.com/watch?v=abc", mediaVideo, "youtube"},
		{"YouTube short link", "https://youtu.be/abc", mediaVideo, "youtube"},
		{"Vimeo", "https://vimeo.com/12345", mediaVideo, "vimeo"},
		{"Twitch subdomain", "https://clips.twitch.tv/xyz", mediaVideo, "twitch"},
		{"Spotify", "https://open.spotify.com/episode/e1", mediaAudio, "spotify"},
		{"SoundCloud", "https://soundcloud.com/artist/track", mediaAudio, "soundcloud"},
		{"Direct mp4", "https://cdn.example.com/clip.mp4", mediaVideo, PlatformOther},
		{"Direct mp3", "https://cdn.example.com/show.mp3", mediaAudio, PlatformOther},
		{"Plain page", "https://example.com/about", mediaNone, ""},
		{"Lookalike host", "https://notyoutube.com/watch", mediaNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.url)
			if err != nil {
				t.Fatalf("bad test URL: %v", err)
			}

			ref, kind := classifyMedia(u, "")
			if kind != tt.wantKind {
				t.Fatalf("classifyMedia(%q) kind = %d, want %d", tt.url, kind, tt.wantKind)
			}
			if kind != mediaNone && ref.Platform != tt.wantPlatform {
				t.Fatalf("classifyMedia(%q) platform = %q, want %q", tt.url, ref.Platform, tt.wantPlatform)
			}
			if ref.Platform == PlatformOther && ref.Host == "" {
				t.Fatalf("classifyMedia(%q) dropped the hostname for an unclassified platform", tt.url)
			}
		})
	}
}

func TestVideoThumbnail(t *testing.T) {
	tests := []struct {
		name string
		ref  models.MediaRef
		want string
		ok   bool
	}{
		{
			name: "Watch URL",
			ref:  models.MediaRef{URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", Platform: "youtube"},
			want: "https://img.youtube.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
			ok:   true,
		},
		{
			name: "Short link",
			ref:  models.MediaRef{URL: "https://youtu.be/abc123", Platform: "youtube"},
			want: "https://img.youtube.com/vi/abc123/hqdefault.jpg",
			ok:   true,
		},
		{
			name: "Embed URL",
			ref:  models.MediaRef{URL: "https://www.youtube.com/embed/xyz", Platform: "youtube"},
			want: "https://img.youtube.com/vi/xyz/hqdefault.jpg",
			ok:   true,
		},
		{
			name: "Non-youtube platform",
			ref:  models.MediaRef{URL: "https://vimeo.com/12345", Platform: "vimeo"},
			ok:   false,
		},
		{
			name: "Watch URL without id",
			ref:  models.MediaRef{URL: "https://www.youtube.com/watch", Platform: "youtube"},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := VideoThumbnail(tt.ref)
			if ok != tt.ok {
				t.Fatalf("VideoThumbnail(%q) ok = %v, want %v", tt.ref.URL, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("VideoThumbnail(%q) = %q, want %q", tt.ref.URL, got, tt.want)
			}
		})
	}
}
