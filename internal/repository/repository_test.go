package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hapo/redmine-reminder/internal/database"
	"github.com/hapo/redmine-reminder/internal/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	return db
}

func seedProject(t *testing.T, db *database.DB, id int64, webhook string) *models.Project {
	t.Helper()
	p := &models.Project{ID: id, Name: "Project", Identifier: "p", WebhookURL: webhook}
	require.NoError(t, NewProjectRepository(db).Upsert(context.Background(), p))
	return p
}

func newReminder(projectID int64) *models.Reminder {
	r := &models.Reminder{
		ProjectID:     projectID,
		CreatedByID:   5,
		Content:       "stand-up",
		SendDate:      models.NewDate(2024, time.March, 4),
		IsRecurring:   true,
		RecurringType: models.RecurringCustom,
		CustomDays:    models.Weekdays{1, 3, 5},
		Active:        true,
	}
	r.SetSendTime(time.Date(2024, time.March, 4, 2, 0, 30, 0, time.UTC))
	return r
}

func TestReminderRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedProject(t, db, 1, "https://chat.example/hook")
	repo := NewReminderRepository(db)

	r := newReminder(1)
	issueID := int64(42)
	r.IssueID = &issueID
	require.NoError(t, repo.Create(ctx, r))
	require.NotZero(t, r.ID)

	got, err := repo.GetByID(ctx, 1, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "stand-up", got.Content)
	assert.Equal(t, r.SendDate, got.SendDate)
	assert.True(t, got.SendTime.Equal(time.Date(2024, time.March, 4, 2, 0, 0, 0, time.UTC)))
	assert.Equal(t, models.RecurringCustom, got.RecurringType)
	assert.Equal(t, models.Weekdays{1, 3, 5}, got.CustomDays)
	require.NotNil(t, got.IssueID)
	assert.Equal(t, int64(42), *got.IssueID)
	assert.Nil(t, got.LastSentAt)
	assert.True(t, got.Active)
}

func TestReminderOneOffStoresBlankType(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedProject(t, db, 1, "")
	repo := NewReminderRepository(db)

	r := newReminder(1)
	r.IsRecurring = false
	r.RecurringType = models.RecurringNone
	r.CustomDays = nil
	require.NoError(t, repo.Create(ctx, r))

	got, err := repo.GetByID(ctx, 1, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecurringNone, got.RecurringType)
	assert.Empty(t, got.CustomDays)
}

func TestReminderScopedToProject(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedProject(t, db, 1, "")
	seedProject(t, db, 2, "")
	repo := NewReminderRepository(db)

	r := newReminder(1)
	require.NoError(t, repo.Create(ctx, r))

	_, err := repo.GetByID(ctx, 2, r.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 2, r.ID), models.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, 1, r.ID))
	_, err = repo.GetByID(ctx, 1, r.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestReminderListing(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedProject(t, db, 1, "")
	repo := NewReminderRepository(db)

	first, second, inactive := newReminder(1), newReminder(1), newReminder(1)
	inactive.Active = false
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, inactive))

	all, err := repo.ListByProject(ctx, 1)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, inactive.ID, all[0].ID, "newest first")

	active, err := repo.ListActiveByProject(ctx, 1)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, first.ID, active[0].ID)
	assert.Equal(t, second.ID, active[1].ID)
}

func TestReminderUpdateKeepsOwnership(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedProject(t, db, 1, "")
	repo := NewReminderRepository(db)

	r := newReminder(1)
	require.NoError(t, repo.Create(ctx, r))

	r.Content = "retro"
	r.CreatedByID = 99
	r.RecurringType = models.RecurringDaily
	r.CustomDays = nil
	require.NoError(t, repo.Update(ctx, r, false))

	got, err := repo.GetByID(ctx, 1, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "retro", got.Content)
	assert.Equal(t, int64(5), got.CreatedByID)
	assert.Equal(t, models.RecurringDaily, got.RecurringType)

	missing := newReminder(1)
	missing.ID = 999
	assert.ErrorIs(t, repo.Update(ctx, missing, false), models.ErrNotFound)
}

func TestReminderUpdateKeepsAdvancedSendDate(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedProject(t, db, 1, "")
	repo := NewReminderRepository(db)

	r := newReminder(1)
	require.NoError(t, repo.Create(ctx, r))

	// the scan advances the reminder while an edit holds the old copy
	advanced := models.NewDate(2024, time.March, 6)
	require.NoError(t, repo.UpdateSendDate(ctx, r.ID, advanced, time.Now()))

	r.Content = "retro"
	require.NoError(t, repo.Update(ctx, r, false))
	got, err := repo.GetByID(ctx, 1, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "retro", got.Content)
	assert.Equal(t, advanced, got.SendDate)

	r.SendDate = models.NewDate(2024, time.April, 1)
	require.NoError(t, repo.Update(ctx, r, true))
	got, err = repo.GetByID(ctx, 1, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NewDate(2024, time.April, 1), got.SendDate)
}

func TestUpdateSendDateTouchesOnlySchedule(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedProject(t, db, 1, "")
	repo := NewReminderRepository(db)

	r := newReminder(1)
	require.NoError(t, repo.Create(ctx, r))

	sentAt := time.Date(2024, time.March, 4, 2, 0, 5, 0, time.UTC)
	require.NoError(t, repo.UpdateSendDate(ctx, r.ID, models.NewDate(2024, time.March, 6), sentAt))

	got, err := repo.GetByID(ctx, 1, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NewDate(2024, time.March, 6), got.SendDate)
	require.NotNil(t, got.LastSentAt)
	assert.True(t, got.LastSentAt.Equal(sentAt))
	assert.Equal(t, r.Content, got.Content)
	assert.True(t, got.SendTime.Equal(r.SendTime))

	assert.ErrorIs(t, repo.UpdateSendDate(ctx, 999, models.NewDate(2024, time.March, 6), sentAt), models.ErrNotFound)
}

func TestProjectsWithWebhook(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewProjectRepository(db)

	seedProject(t, db, 1, "https://chat.example/a")
	seedProject(t, db, 2, "")
	parent := int64(1)
	chat := int64(-100123)
	require.NoError(t, repo.Upsert(ctx, &models.Project{
		ID: 3, Name: "Child", ParentID: &parent, WebhookURL: "https://chat.example/c", TelegramChatID: &chat,
	}))

	got, err := repo.ListWithWebhook(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
	require.NotNil(t, got[1].ParentID)
	assert.Equal(t, int64(1), *got[1].ParentID)
	require.NotNil(t, got[1].TelegramChatID)
	assert.Equal(t, chat, *got[1].TelegramChatID)

	// webhook removed by a later sync
	require.NoError(t, repo.Upsert(ctx, &models.Project{ID: 1, Name: "Project"}))
	got, err = repo.ListWithWebhook(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = repo.GetByID(ctx, 404)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserAndIssueUpsert(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedProject(t, db, 1, "")
	users := NewUserRepository(db)
	issues := NewIssueRepository(db)

	require.NoError(t, users.Upsert(ctx, &models.User{ID: 5, Login: "an", Firstname: "An", TimeZone: "Hanoi"}))
	require.NoError(t, users.Upsert(ctx, &models.User{ID: 5, Login: "an", Firstname: "An", TimeZone: "Tokyo"}))
	u, err := users.GetByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Tokyo", u.TimeZone)

	_, err = users.GetByID(ctx, 6)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, issues.Upsert(ctx, &models.Issue{ID: 42, ProjectID: 1, Tracker: "Bug", Subject: "Crash", IsPrivate: true}))
	i, err := issues.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Bug #42: Crash", i.String())
	assert.True(t, i.IsPrivate)

	_, err = issues.GetByID(ctx, 43)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
