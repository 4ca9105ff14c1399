package blog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Accepted published_at layouts, tried in order
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// PostInput is the decoded create/update payload. Nil means the field was
// absent, null or blank.
type PostInput struct {
	Title       *string    `json:"title" validate:"required,max=255"`
	Slug        *string    `json:"slug" validate:"omitempty,max=255"`
	ContentRaw  *string    `json:"content_raw"`
	Excerpt     *string    `json:"excerpt"`
	CategoryID  *uint64    `json:"category_id" validate:"required"`
	IsPublished *bool      `json:"is_published"`
	PublishedAt *time.Time `json:"published_at"`

	// fields whose JSON value had the wrong type, with their message
	invalid map[string]string
}

// ParsePostInput decodes a JSON object body field by field so a value of the
// wrong type becomes a validation message instead of a decode failure.
// An empty body is treated as {}.
func ParsePostInput(body []byte) (*PostInput, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("{}")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	in := &PostInput{invalid: make(map[string]string)}
	var ok bool

	if in.Title, ok = decodeString(raw["title"]); !ok {
		in.invalid["title"] = "The title field must be a string."
	}
	if in.Slug, ok = decodeString(raw["slug"]); !ok {
		in.invalid["slug"] = "The slug field must be a string."
	}
	if in.ContentRaw, ok = decodeString(raw["content_raw"]); !ok {
		in.invalid["content_raw"] = "The content raw field must be a string."
	}
	if in.Excerpt, ok = decodeString(raw["excerpt"]); !ok {
		in.invalid["excerpt"] = "The excerpt field must be a string."
	}
	if in.CategoryID, ok = decodeID(raw["category_id"]); !ok {
		in.invalid["category_id"] = "The category id field must be an integer."
	}
	if in.IsPublished, ok = decodeBool(raw["is_published"]); !ok {
		in.invalid["is_published"] = "The is published field must be true or false."
	}
	if in.PublishedAt, ok = decodeTime(raw["published_at"]); !ok {
		in.invalid["published_at"] = "The published at field must be a valid date."
	}

	return in, nil
}

func isNull(v json.RawMessage) bool {
	return len(v) == 0 || string(v) == "null"
}

func decodeString(v json.RawMessage) (*string, bool) {
	if isNull(v) {
		return nil, true
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	return &s, true
}

// decodeID accepts a non-negative integer or a numeric string
func decodeID(v json.RawMessage) (*uint64, bool) {
	if isNull(v) {
		return nil, true
	}
	var n uint64
	if err := json.Unmarshal(v, &n); err == nil {
		return &n, true
	}
	s, ok := decodeString(v)
	if !ok {
		return nil, false
	}
	if s == nil {
		return nil, true
	}
	n, err := strconv.ParseUint(*s, 10, 64)
	if err != nil {
		return nil, false
	}
	return &n, true
}

// decodeBool accepts true/false, 1/0, "1"/"0" and "true"/"false"
func decodeBool(v json.RawMessage) (*bool, bool) {
	if isNull(v) {
		return nil, true
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return &b, true
	}

	var text string
	if err := json.Unmarshal(v, &text); err != nil {
		text = string(v)
	}
	switch strings.TrimSpace(text) {
	case "1", "true":
		b = true
	case "0", "false":
		b = false
	default:
		return nil, false
	}
	return &b, true
}

func decodeTime(v json.RawMessage) (*time.Time, bool) {
	s, ok := decodeString(v)
	if !ok {
		return nil, false
	}
	if s == nil {
		return nil, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, *s); err == nil {
			return &t, true
		}
	}
	return nil, false
}
