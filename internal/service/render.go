package service

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/briangreenhill/petpet/cache"
)

// Mode selects how a stored payload is written back to the client.
type Mode int

const (
	ModeBinary Mode = iota
	ModeBase64
	ModeJSON
)

// ParseMode maps the mode query value. Unknown values fall back to binary.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return ModeJSON
	case "base64":
		return ModeBase64
	default:
		return ModeBinary
	}
}

func (m Mode) String() string {
	switch m {
	case ModeJSON:
		return "json"
	case ModeBase64:
		return "base64"
	default:
		return "gif"
	}
}

const (
	ContentTypeGIF  = "image/gif"
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeJSON = "application/json"

	dataURIPrefix = "data:image/gif;base64,"
)

// CacheControl advertises the cache TTL to clients.
var CacheControl = fmt.Sprintf("max-age=%d", int(cache.TTL.Seconds()))

// Response is a rendered result, independent of the HTTP layer.
type Response struct {
	ContentType  string
	CacheControl string
	Body         []byte
	// Hit is true when the payload came from a fresh cache entry.
	Hit bool
}

type envelope struct {
	ID        string `json:"id"`
	ImageData string `json:"imageData"`
}

// Render writes payload (the base64 cache representation) for id in mode.
// All modes derive from the same payload.
func Render(id int64, payload string, mode Mode) (*Response, error) {
	switch mode {
	case ModeJSON:
		b, err := json.Marshal(envelope{ID: strconv.FormatInt(id, 10), ImageData: payload})
		if err != nil {
			return nil, err
		}
		return &Response{ContentType: ContentTypeJSON, CacheControl: CacheControl, Body: b}, nil
	case ModeBase64:
		return &Response{
			ContentType:  ContentTypeText,
			CacheControl: CacheControl,
			Body:         []byte(dataURIPrefix + payload),
		}, nil
	default:
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: decode payload: %w", ErrStore, err)
		}
		return &Response{ContentType: ContentTypeGIF, CacheControl: CacheControl, Body: raw}, nil
	}
}

// DecodeDataURI returns the raw bytes of a base64-mode body.
func DecodeDataURI(body string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(body, dataURIPrefix))
}
