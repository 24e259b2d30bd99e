package content

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"communeo.org/internal/scope"
)

var (
	ErrNotFound     = errors.New("content: not found")
	ErrInvalidInput = errors.New("content: invalid input")
)

// Kind identifies one of the scoped content resource types. All kinds share
// the same visibility/commune/audience/window model and the same predicates.
type Kind string

const (
	KindArticle      Kind = "article"
	KindNotification Kind = "notification"
	KindInfo         Kind = "info"
	KindProject      Kind = "project"
)

// Kinds lists every content kind in route order.
var Kinds = []Kind{KindArticle, KindNotification, KindInfo, KindProject}

// Priority orders items inside a feed.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityPinned Priority = "pinned"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority validates a priority literal; empty defaults to normal.
func ParsePriority(s string) (Priority, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "", "normal":
		return PriorityNormal, nil
	case "pinned":
		return PriorityPinned, nil
	case "urgent":
		return PriorityUrgent, nil
	default:
		return "", fmt.Errorf("unknown priority %q: %w", s, ErrInvalidInput)
	}
}

// rank is the feed ordering weight: urgent before pinned before normal.
func (p Priority) rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityPinned:
		return 1
	default:
		return 2
	}
}

// Item is a scoped content record. Exactly one scope form is persisted per
// visibility: local ⇒ CommuneID set, custom ⇒ Audience set, global ⇒ neither.
type Item struct {
	ID          string           `json:"id"`
	Kind        Kind             `json:"kind"`
	Title       string           `json:"title"`
	Body        string           `json:"body,omitempty"`
	MediaURL    string           `json:"mediaUrl,omitempty"`
	Visibility  scope.Visibility `json:"visibility"`
	CommuneID   string           `json:"communeId,omitempty"`
	Audience    []string         `json:"audienceCommunes,omitempty"`
	Priority    Priority         `json:"priority"`
	StartAt     *time.Time       `json:"startAt,omitempty"`
	EndAt       *time.Time       `json:"endAt,omitempty"`
	AuthorID    string           `json:"authorId,omitempty"`
	AuthorEmail string           `json:"authorEmail,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// Str implements scope.Doc.
func (it *Item) Str(field string) string {
	switch field {
	case scope.FieldVisibility:
		return string(it.Visibility)
	case scope.FieldCommuneID:
		return it.CommuneID
	case scope.FieldAuthorID:
		return it.AuthorID
	default:
		return ""
	}
}

// Set implements scope.Doc.
func (it *Item) Set(field string) []string {
	if field == scope.FieldAudience {
		return it.Audience
	}
	return nil
}

// Instant implements scope.Doc.
func (it *Item) Instant(field string) (time.Time, bool) {
	switch field {
	case scope.FieldStartAt:
		if it.StartAt != nil {
			return *it.StartAt, true
		}
	case scope.FieldEndAt:
		if it.EndAt != nil {
			return *it.EndAt, true
		}
	}
	return time.Time{}, false
}

var _ scope.Doc = (*Item)(nil)
