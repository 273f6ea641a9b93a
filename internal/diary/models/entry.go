package models

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// DateLayout is the calendar-date layout of DiaryEntry.Date.
const DateLayout = "2006-01-02"

// PageType selects the page background an entry is rendered on.
type PageType string

const (
	PageRuled PageType = "ruled"
	PagePlain PageType = "plain"
)

var (
	ErrNotImage       = errors.New("attachment is not an image")
	ErrInvalidDataURL = errors.New("malformed image data url")
)

// DiaryEntry is one diary page. Date is not unique; ID is unique within a
// user's vault.
type DiaryEntry struct {
	ID        string    `json:"id" validate:"required"`
	UserID    string    `json:"userId" validate:"required"`
	Date      string    `json:"date" validate:"required,datetime=2006-01-02"`
	Content   string    `json:"content"`
	PageType  PageType  `json:"pageType" validate:"oneof=ruled plain"`
	Images    []string  `json:"images,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OwnedBy returns the entries whose UserID equals userID, in order.
func OwnedBy(entries []DiaryEntry, userID string) []DiaryEntry {
	out := make([]DiaryEntry, 0, len(entries))
	for _, e := range entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

// ImageDataURL encodes raw image bytes as data:<mime>;base64,<payload>.
// The mime type is sniffed from the content; non-images are rejected.
func ImageDataURL(data []byte) (string, error) {
	m := mimetype.Detect(data)
	if !strings.HasPrefix(m.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, m.String())
	}
	return "data:" + m.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ParseImageDataURL splits a data url produced by ImageDataURL back into
// its mime type and decoded bytes.
func ParseImageDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	mime, payload, ok := strings.Cut(rest, ";base64,")
	if !ok || mime == "" {
		return "", nil, ErrInvalidDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return mime, data, nil
}
