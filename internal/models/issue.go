package models

import "fmt"

// Issue is the slice of a Redmine issue needed to link and announce it.
type Issue struct {
	ID          int64    `json:"id" db:"id"`
	ProjectID   int64    `json:"project_id" db:"project_id"`
	Tracker     string   `json:"tracker" db:"tracker"`
	Subject     string   `json:"subject" db:"subject"`
	IsPrivate   bool     `json:"is_private" db:"is_private"`
	Description string   `json:"description,omitempty" db:"-"`
	Status      string   `json:"status,omitempty" db:"-"`
	Priority    string   `json:"priority,omitempty" db:"-"`
	AssignedTo  string   `json:"assigned_to,omitempty" db:"-"`
	Watchers    []string `json:"watchers,omitempty" db:"-"`
}

// String mirrors Redmine's "Tracker #id: subject".
func (i *Issue) String() string {
	if i.Tracker == "" {
		return fmt.Sprintf("#%d: %s", i.ID, i.Subject)
	}
	return fmt.Sprintf("%s #%d: %s", i.Tracker, i.ID, i.Subject)
}

type IssueEventKind string

const (
	IssueCreated   IssueEventKind = "created"
	IssueUpdated   IssueEventKind = "updated"
	IssueChangeset IssueEventKind = "changeset" // status changed by a commit referencing the issue
)

// JournalDetail is one changed attribute of an issue update.
type JournalDetail struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

// IssueEvent is emitted explicitly by the issue tracker after an issue is
// created or updated.
type IssueEvent struct {
	Kind         IssueEventKind  `json:"kind" validate:"required,oneof=created updated changeset"`
	Issue        Issue           `json:"issue"`
	Actor        string          `json:"actor"` // author on create, journal user on update
	Notes        string          `json:"notes,omitempty"`
	PrivateNotes bool            `json:"private_notes,omitempty"`
	Details      []JournalDetail `json:"details,omitempty" validate:"dive"`
	Changeset    *Changeset      `json:"changeset,omitempty" validate:"required_if=Kind changeset"`
}

// Changeset is the commit behind an IssueChangeset event.
type Changeset struct {
	Revision   string `json:"revision" validate:"required"`
	Repository string `json:"repository,omitempty"` // identifier, blank for the default repository
	Comments   string `json:"comments,omitempty"`
}

// WikiEvent is emitted after a wiki page is saved.
type WikiEvent struct {
	ProjectID int64  `json:"project_id" validate:"required,gt=0"`
	Title     string `json:"title" validate:"required"`
	Author    string `json:"author"`
	Version   int    `json:"version" validate:"gte=0"`
	Comments  string `json:"comments,omitempty"`
}
