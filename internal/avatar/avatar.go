// Package avatar builds deterministic avatar image references for attendees.
package avatar

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/jonathan/velvet-rope/internal/types"
)

// Defaults for the hosted DiceBear renderer.
const (
	DefaultBaseURL    = "https://api.dicebear.com/9.x"
	DefaultStyle      = "notionists"
	DefaultSize       = 128
	DefaultBackground = "1a1a2e"
)

// Builder renders avatar URLs. The zero value uses the defaults.
type Builder struct {
	BaseURL    string
	Style      string
	Size       int
	Background string
}

// URL returns the avatar reference for a seed. Equal seeds give equal URLs.
func (b Builder) URL(seed string) string {
	base := strings.TrimRight(orDefault(b.BaseURL, DefaultBaseURL), "/")
	style := orDefault(b.Style, DefaultStyle)
	size := b.Size
	if size <= 0 {
		size = DefaultSize
	}

	q := url.Values{}
	q.Set("seed", seed)
	q.Set("size", strconv.Itoa(size))
	q.Set("backgroundColor", orDefault(b.Background, DefaultBackground))
	return base + "/" + url.PathEscape(style) + "/svg?" + q.Encode()
}

// Seed picks the stable identity an attendee's avatar is derived from:
// the email when present, the id otherwise.
func Seed(a types.Attendee) string {
	if email := strings.TrimSpace(a.Email); email != "" {
		return strings.ToLower(email)
	}
	return a.ID
}

// For returns the default avatar URL for an attendee.
func For(a types.Attendee) string {
	return Builder{}.URL(Seed(a))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
