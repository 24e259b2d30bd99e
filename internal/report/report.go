package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("report: not found")
	ErrInvalidInput = errors.New("report: invalid input")
)

// Status tracks an incident report through triage.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
)

// ParseStatus validates a status literal.
func ParseStatus(s string) (Status, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "open":
		return StatusOpen, nil
	case "in_progress":
		return StatusInProgress, nil
	case "resolved":
		return StatusResolved, nil
	default:
		return "", fmt.Errorf("unknown status %q: %w", s, ErrInvalidInput)
	}
}

// Report is a citizen-submitted incident, always bound to a single commune.
type Report struct {
	ID            string    `json:"id"`
	CommuneID     string    `json:"communeId"`
	Category      string    `json:"category"`
	Description   string    `json:"description,omitempty"`
	MediaURL      string    `json:"mediaUrl,omitempty"`
	Status        Status    `json:"status"`
	ReporterID    string    `json:"reporterId,omitempty"`
	ReporterEmail string    `json:"reporterEmail,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Store is the persistence surface for incident reports.
type Store interface {
	Insert(ctx context.Context, r *Report) error
	Find(ctx context.Context, id string) (*Report, error)
	SetStatus(ctx context.Context, id string, status Status, at time.Time) error
	// List returns reports newest first, restricted to communes whose key
	// matches keys; nil keys means no restriction.
	List(ctx context.Context, keys []string, limit int) ([]*Report, error)
}
