package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hapo/redmine-reminder/internal/database"
	"github.com/hapo/redmine-reminder/internal/models"
)

const projectColumns = `id, name, identifier, parent_id, webhook_url, slack_url, slack_channel, telegram_chat_id, created_at`

type ProjectRepository struct {
	db *database.DB
}

func NewProjectRepository(db *database.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Upsert mirrors a Redmine project and its notification custom fields.
func (r *ProjectRepository) Upsert(ctx context.Context, project *models.Project) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO projects (id, name, identifier, parent_id, webhook_url, slack_url, slack_channel, telegram_chat_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, identifier = EXCLUDED.identifier,
			parent_id = EXCLUDED.parent_id, webhook_url = EXCLUDED.webhook_url, slack_url = EXCLUDED.slack_url,
			slack_channel = EXCLUDED.slack_channel, telegram_chat_id = EXCLUDED.telegram_chat_id`),
		project.ID, project.Name, project.Identifier, project.ParentID, project.WebhookURL,
		project.SlackURL, project.SlackChannel, project.TelegramChatID,
	)
	if err != nil {
		return fmt.Errorf("upsert project %d: %w", project.ID, err)
	}
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, projectID int64) (*models.Project, error) {
	project := &models.Project{}
	err := r.db.GetContext(ctx, project, r.db.Rebind(
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`),
		projectID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get project %d: %w", projectID, err)
	}
	return project, nil
}

// ListWithWebhook returns the projects that carry their own Google Chat webhook.
func (r *ProjectRepository) ListWithWebhook(ctx context.Context) ([]*models.Project, error) {
	var projects []*models.Project
	err := r.db.SelectContext(ctx, &projects,
		`SELECT `+projectColumns+` FROM projects WHERE webhook_url <> '' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list projects with webhook: %w", err)
	}
	return projects, nil
}
