package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusResolved   TicketStatus = "resolved"
)

// TicketStatuses lists statuses in lifecycle order.
var TicketStatuses = []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved}

// Valid reports whether the status is known.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved:
		return true
	}
	return false
}

// Label renders the status for humans, e.g. "in progress".
func (s TicketStatus) Label() string {
	return strings.ReplaceAll(string(s), "-", " ")
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// TicketPriorities lists priorities from lowest to highest.
var TicketPriorities = []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh}

// Valid reports whether the priority is known.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// CommentType differentiates human comments from system entries.
type CommentType string

const (
	CommentTypeComment CommentType = "comment"
	CommentTypeSystem  CommentType = "system"
)

// SystemAuthor is the author name and role recorded on system comments.
const SystemAuthor = "System"

// Comment is an append-only entry in a ticket's trail.
type Comment struct {
	ID         string      `json:"id"`
	Author     string      `json:"author"`
	AuthorRole string      `json:"authorRole"`
	Content    string      `json:"content"`
	Timestamp  time.Time   `json:"timestamp"`
	Type       CommentType `json:"type"`
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID               string
	TicketID         string
	Title            string
	Description      string
	Department       Department
	Priority         TicketPriority
	Status           TicketStatus
	SubmittedBy      string
	SubmittedByEmail string
	SubmittedByID    string
	AssignedTo       *string
	Attachments      []string
	Comments         []Comment
	DateSubmitted    time.Time
	LastUpdated      time.Time
	Version          int
}

// IsAssignedTo reports whether userID is the current assignee.
func (t *Ticket) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// IsSubmitter matches the denormalised submitter email.
func (t *Ticket) IsSubmitter(email string) bool {
	return email != "" && NormalizeEmail(t.SubmittedByEmail) == NormalizeEmail(email)
}

// Resolved reports whether the ticket reached the terminal state.
func (t *Ticket) Resolved() bool {
	return t.Status == TicketStatusResolved
}

// TicketStats aggregates dashboard counters.
type TicketStats struct {
	Open          int `json:"open"`
	InProgress    int `json:"inProgress"`
	ResolvedToday int `json:"resolved"`
}

// MaxTicketSequence is the last sequence that fits the four digit ticket id.
const MaxTicketSequence = 9999

// ErrTicketSequenceExhausted is returned once every four digit sequence is taken.
var ErrTicketSequenceExhausted = errors.New("ticket sequence exhausted")

// FormatTicketID renders the human readable sequence, e.g. TCK-2025-0007.
func FormatTicketID(year, seq int) (string, error) {
	if seq < 1 || seq > MaxTicketSequence {
		return "", ErrTicketSequenceExhausted
	}
	return fmt.Sprintf("TCK-%d-%04d", year, seq), nil
}
