package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hapo/redmine-reminder/internal/database"
	"github.com/hapo/redmine-reminder/internal/models"
)

const reminderColumns = `id, project_id, created_by_id, issue_id, content, send_date, send_time,
	is_recurring, recurring_type, custom_days, active, last_sent_at, created_at, updated_at`

type ReminderRepository struct {
	db *database.DB
}

func NewReminderRepository(db *database.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	now := time.Now().UTC()
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(
		`INSERT INTO reminders (project_id, created_by_id, issue_id, content, send_date, send_time,
			is_recurring, recurring_type, custom_days, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`),
		reminder.ProjectID, reminder.CreatedByID, reminder.IssueID, reminder.Content, reminder.SendDate,
		reminder.SendTime, reminder.IsRecurring, reminder.RecurringType, reminder.CustomDays, reminder.Active,
		now, now,
	).Scan(&reminder.ID)
	if err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	reminder.CreatedAt, reminder.UpdatedAt = now, now
	return nil
}

// GetByID returns a reminder of the given project.
func (r *ReminderRepository) GetByID(ctx context.Context, projectID, reminderID int64) (*models.Reminder, error) {
	reminder := &models.Reminder{}
	err := r.db.GetContext(ctx, reminder, r.db.Rebind(
		`SELECT `+reminderColumns+` FROM reminders WHERE id = ? AND project_id = ?`),
		reminderID, projectID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get reminder %d: %w", reminderID, err)
	}
	return reminder, nil
}

// ListByProject returns every reminder of a project, newest first.
func (r *ReminderRepository) ListByProject(ctx context.Context, projectID int64) ([]*models.Reminder, error) {
	var reminders []*models.Reminder
	err := r.db.SelectContext(ctx, &reminders, r.db.Rebind(
		`SELECT `+reminderColumns+` FROM reminders WHERE project_id = ? ORDER BY created_at DESC, id DESC`),
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reminders of project %d: %w", projectID, err)
	}
	return reminders, nil
}

// ListActiveByProject returns the reminders of a project the scanner considers.
func (r *ReminderRepository) ListActiveByProject(ctx context.Context, projectID int64) ([]*models.Reminder, error) {
	var reminders []*models.Reminder
	err := r.db.SelectContext(ctx, &reminders, r.db.Rebind(
		`SELECT `+reminderColumns+` FROM reminders WHERE project_id = ? AND active = ? ORDER BY id`),
		projectID, true,
	)
	if err != nil {
		return nil, fmt.Errorf("list active reminders of project %d: %w", projectID, err)
	}
	return reminders, nil
}

// Update writes the editable fields. send_date is only written when
// withSendDate is set, so an edit never rolls back a date the advancer stored
// in the meantime. project_id and created_by_id never change.
func (r *ReminderRepository) Update(ctx context.Context, reminder *models.Reminder, withSendDate bool) error {
	now := time.Now().UTC()
	query := `UPDATE reminders SET issue_id = ?, content = ?, send_time = ?, is_recurring = ?,
			recurring_type = ?, custom_days = ?, active = ?, updated_at = ?`
	args := []any{
		reminder.IssueID, reminder.Content, reminder.SendTime, reminder.IsRecurring,
		reminder.RecurringType, reminder.CustomDays, reminder.Active, now,
	}
	if withSendDate {
		query += `, send_date = ?`
		args = append(args, reminder.SendDate)
	}
	query += ` WHERE id = ? AND project_id = ?`
	args = append(args, reminder.ID, reminder.ProjectID)

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("update reminder %d: %w", reminder.ID, err)
	}
	if err := expectOne(res); err != nil {
		return err
	}
	reminder.UpdatedAt = now
	return nil
}

func (r *ReminderRepository) Delete(ctx context.Context, projectID, reminderID int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`DELETE FROM reminders WHERE id = ? AND project_id = ?`),
		reminderID, projectID,
	)
	if err != nil {
		return fmt.Errorf("delete reminder %d: %w", reminderID, err)
	}
	return expectOne(res)
}

// UpdateSendDate persists a reminder's next send date and the instant it was
// last delivered. No other column is touched.
func (r *ReminderRepository) UpdateSendDate(ctx context.Context, reminderID int64, sendDate models.Date, sentAt time.Time) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE reminders SET send_date = ?, last_sent_at = ? WHERE id = ?`),
		sendDate, sentAt.UTC(), reminderID,
	)
	if err != nil {
		return fmt.Errorf("update send date of reminder %d: %w", reminderID, err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
