package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hapo/redmine-reminder/internal/database"
	"github.com/hapo/redmine-reminder/internal/models"
)

type IssueRepository struct {
	db *database.DB
}

func NewIssueRepository(db *database.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

func (r *IssueRepository) Upsert(ctx context.Context, issue *models.Issue) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO issues (id, project_id, tracker, subject, is_private) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET project_id = EXCLUDED.project_id, tracker = EXCLUDED.tracker,
			subject = EXCLUDED.subject, is_private = EXCLUDED.is_private`),
		issue.ID, issue.ProjectID, issue.Tracker, issue.Subject, issue.IsPrivate,
	)
	if err != nil {
		return fmt.Errorf("upsert issue %d: %w", issue.ID, err)
	}
	return nil
}

func (r *IssueRepository) GetByID(ctx context.Context, issueID int64) (*models.Issue, error) {
	issue := &models.Issue{}
	err := r.db.GetContext(ctx, issue, r.db.Rebind(
		`SELECT id, project_id, tracker, subject, is_private FROM issues WHERE id = ?`),
		issueID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get issue %d: %w", issueID, err)
	}
	return issue, nil
}
