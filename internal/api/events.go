package api

import (
	"net/http"

	"github.com/hapo/redmine-reminder/internal/models"
)

func (h *Handler) issueEvent(w http.ResponseWriter, r *http.Request) {
	var ev models.IssueEvent
	if err := h.decode(r, &ev); err != nil {
		WriteError(w, err)
		return
	}
	if ev.Issue.ID <= 0 || ev.Issue.ProjectID <= 0 {
		WriteError(w, &models.ValidationError{Field: "issue", Message: "must reference an issue and its project"})
		return
	}

	if _, err := h.projects.GetByID(r.Context(), ev.Issue.ProjectID); err != nil {
		WriteError(w, err)
		return
	}

	// keep the local copy fresh so reminders can link to the issue
	if err := h.issues.Upsert(r.Context(), &ev.Issue); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.notifier.Notify(r.Context(), &ev); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]any{"issue_id": ev.Issue.ID, "kind": ev.Kind})
}

func (h *Handler) wikiEvent(w http.ResponseWriter, r *http.Request) {
	var ev models.WikiEvent
	if err := h.decode(r, &ev); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.notifier.NotifyWiki(r.Context(), &ev); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]any{"project_id": ev.ProjectID, "title": ev.Title})
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	sent, err := h.scanner.ScanAndDispatch(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"sent": sent})
}

type projectRequest struct {
	Name           string `json:"name" validate:"required"`
	Identifier     string `json:"identifier" validate:"required"`
	ParentID       *int64 `json:"parent_id" validate:"omitempty,gt=0"`
	WebhookURL     string `json:"webhook_url" validate:"omitempty,url"`
	SlackURL       string `json:"slack_url" validate:"omitempty,url"`
	SlackChannel   string `json:"slack_channel"`
	TelegramChatID *int64 `json:"telegram_chat_id"`
}

func (h *Handler) syncProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "projectID")
	if err != nil {
		WriteError(w, err)
		return
	}

	var req projectRequest
	if err := h.decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.ParentID != nil && *req.ParentID == id {
		WriteError(w, &models.ValidationError{Field: "parent_id", Message: "can't be the project itself"})
		return
	}

	project := &models.Project{
		ID:             id,
		Name:           req.Name,
		Identifier:     req.Identifier,
		ParentID:       req.ParentID,
		WebhookURL:     req.WebhookURL,
		SlackURL:       req.SlackURL,
		SlackChannel:   req.SlackChannel,
		TelegramChatID: req.TelegramChatID,
	}
	if err := h.projects.Upsert(r.Context(), project); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, project)
}

type userRequest struct {
	Login     string `json:"login" validate:"required"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	TimeZone  string `json:"time_zone"`
}

func (h *Handler) syncUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		WriteError(w, err)
		return
	}

	var req userRequest
	if err := h.decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	user := &models.User{
		ID:        id,
		Login:     req.Login,
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		TimeZone:  req.TimeZone,
	}
	if err := h.users.Upsert(r.Context(), user); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"user":               user,
		"effective_timezone": h.zones.Resolve(user.TimeZone),
	})
}
