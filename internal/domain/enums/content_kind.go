package enums

import "strings"

type ContentKind string

const (
	ContentKindPost  ContentKind = "post"
	ContentKindStory ContentKind = "story"
)

func ParseContentKind(raw string) (ContentKind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ContentKindPost):
		return ContentKindPost, true
	case string(ContentKindStory):
		return ContentKindStory, true
	default:
		return "", false
	}
}
