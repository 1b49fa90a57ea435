package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/hapo/redmine-reminder/internal/config"
	"github.com/hapo/redmine-reminder/internal/format"
	"github.com/hapo/redmine-reminder/internal/models"
)

// project hierarchies deeper than this are treated as cycles
const maxProjectDepth = 16

// ProjectLookup loads projects and their parents.
type ProjectLookup interface {
	GetByID(ctx context.Context, projectID int64) (*models.Project, error)
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short,omitempty"`
}

type slackAttachment struct {
	Text   string       `json:"text,omitempty"`
	Fields []slackField `json:"fields,omitempty"`
}

type slackPayload struct {
	Text        string            `json:"text"`
	LinkNames   int               `json:"link_names"`
	Username    string            `json:"username,omitempty"`
	Channel     string            `json:"channel,omitempty"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	IconURL     string            `json:"icon_url,omitempty"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

// route is where one project's activity goes.
type route struct {
	slackURL     string
	slackChannel string
	chatWebhook  string
}

func (rt route) slackEnabled() bool {
	return rt.slackURL != "" && rt.slackChannel != ""
}

func (rt route) enabled() bool {
	return rt.slackEnabled() || rt.chatWebhook != ""
}

// IssueNotifier announces issue and wiki activity to Slack and Google Chat.
type IssueNotifier struct {
	settings config.Settings
	projects ProjectLookup
	webhook  *Webhook
	logger   *slog.Logger
}

func NewIssueNotifier(settings config.Settings, projects ProjectLookup, webhook *Webhook, logger *slog.Logger) *IssueNotifier {
	return &IssueNotifier{
		settings: settings,
		projects: projects,
		webhook:  webhook,
		logger:   logger,
	}
}

// Notify announces ev. Only project resolution errors are returned; delivery
// failures are logged.
func (n *IssueNotifier) Notify(ctx context.Context, ev *models.IssueEvent) error {
	if ev.Issue.IsPrivate {
		return nil
	}
	if ev.Kind == models.IssueUpdated && ev.PrivateNotes {
		return nil
	}

	project, err := n.project(ctx, ev.Issue.ProjectID)
	if err != nil {
		return err
	}
	rt := n.resolveRoute(ctx, project)
	if ev.Kind == models.IssueUpdated && !n.settings.PostUpdates {
		rt.slackURL = ""
	}
	if !rt.enabled() {
		return nil
	}

	text, attachment := n.compose(project, ev)
	n.speak(ctx, rt, text, attachment, "issue_id", ev.Issue.ID)
	return nil
}

// NotifyWiki announces a saved wiki page when wiki updates are enabled.
func (n *IssueNotifier) NotifyWiki(ctx context.Context, ev *models.WikiEvent) error {
	if !n.settings.PostWikiUpdates {
		return nil
	}

	project, err := n.project(ctx, ev.ProjectID)
	if err != nil {
		return err
	}
	rt := n.resolveRoute(ctx, project)
	if !rt.enabled() {
		return nil
	}

	esc := format.SlackEscape
	projectURL := n.settings.URL(projectPath(project))
	pageURL := projectURL + "/wiki/" + url.PathEscape(ev.Title)
	text := fmt.Sprintf("[%s] %s updated by *%s*",
		format.Link(projectURL, esc(project.Name)), format.Link(pageURL, esc(ev.Title)), esc(ev.Author))
	if ev.Version > 1 {
		text += fmt.Sprintf(" [%s]", format.Link(pageURL+"/diff?version="+strconv.Itoa(ev.Version), "difference"))
	}

	var attachment *slackAttachment
	if ev.Comments != "" {
		attachment = &slackAttachment{Text: esc(ev.Comments)}
	}
	n.speak(ctx, rt, text, attachment, "project_id", project.ID, "wiki_page", ev.Title)
	return nil
}

func (n *IssueNotifier) project(ctx context.Context, projectID int64) (*models.Project, error) {
	project, err := n.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project %d: %w", projectID, err)
	}
	return project, nil
}

// speak posts one message to every target rt enables. Failures are logged.
func (n *IssueNotifier) speak(ctx context.Context, rt route, text string, attachment *slackAttachment, attrs ...any) {
	if rt.slackEnabled() {
		if err := n.postSlack(ctx, rt, text, attachment); err != nil {
			n.logger.WarnContext(ctx, "slack notification failed", append(attrs, "error", err)...)
		}
	}
	if rt.chatWebhook != "" {
		if err := n.webhook.Send(ctx, rt.chatWebhook, flatten(text, attachment)); err != nil {
			n.logger.WarnContext(ctx, "google chat notification failed", append(attrs, "error", err)...)
		}
	}
}

func (n *IssueNotifier) compose(project *models.Project, ev *models.IssueEvent) (string, *slackAttachment) {
	esc := format.SlackEscape
	link := format.Link(n.settings.IssueURL(ev.Issue.ID), esc(ev.Issue.String()))

	attachment := &slackAttachment{}
	var text string

	switch ev.Kind {
	case models.IssueCreated:
		text = fmt.Sprintf("[%s] %s created %s%s", esc(project.Name), esc(ev.Actor), link, mentions(ev.Issue.Description))
		attachment.Text = esc(ev.Issue.Description)
		attachment.Fields = []slackField{
			{Title: "Status", Value: esc(ev.Issue.Status), Short: true},
			{Title: "Priority", Value: esc(ev.Issue.Priority), Short: true},
			{Title: "Assignee", Value: esc(ev.Issue.AssignedTo), Short: true},
		}
		if n.settings.DisplayWatchers {
			attachment.Fields = append(attachment.Fields, slackField{
				Title: "Watchers", Value: esc(strings.Join(ev.Issue.Watchers, ", ")), Short: true,
			})
		}
	case models.IssueChangeset:
		text = fmt.Sprintf("[%s] %s updated %s", esc(project.Name), esc(ev.Actor), link)
		if cs := ev.Changeset; cs != nil {
			label := cs.Comments
			if label == "" {
				label = cs.Revision
			}
			attachment.Text = fmt.Sprintf("Applied in changeset %s.", format.Link(n.revisionURL(project, cs), esc(label)))
		}
		for _, d := range ev.Details {
			attachment.Fields = append(attachment.Fields, detailField(d))
		}
	default:
		text = fmt.Sprintf("[%s] %s updated %s%s", esc(project.Name), esc(ev.Actor), link, mentions(ev.Notes))
		attachment.Text = esc(ev.Notes)
		for _, d := range ev.Details {
			attachment.Fields = append(attachment.Fields, detailField(d))
		}
	}
	return text, attachment
}

func (n *IssueNotifier) revisionURL(project *models.Project, cs *models.Changeset) string {
	path := projectPath(project) + "/repository"
	if cs.Repository != "" {
		path += "/" + url.PathEscape(cs.Repository)
	}
	return n.settings.URL(path + "/revisions/" + url.PathEscape(cs.Revision))
}

// projectPath is the tracker path of a project, by identifier when known.
func projectPath(project *models.Project) string {
	if project.Identifier != "" {
		return "/projects/" + url.PathEscape(project.Identifier)
	}
	return "/projects/" + strconv.FormatInt(project.ID, 10)
}

func detailField(d models.JournalDetail) slackField {
	value := format.SlackEscape(d.Value)
	if value == "" {
		value = "-"
	}
	key := strings.ToLower(strings.TrimSuffix(d.Field, "_id"))
	switch key {
	case "subject", "description", "title":
		return slackField{Title: fieldTitle(key), Value: value}
	}
	return slackField{Title: fieldTitle(key), Value: value, Short: true}
}

// fieldTitle turns "assigned_to" into "Assigned to".
func fieldTitle(key string) string {
	s := strings.ReplaceAll(key, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func mentions(text string) string {
	names := format.Mentions(text)
	if len(names) == 0 {
		return ""
	}
	return "\nTo: " + strings.Join(names, ", ")
}

func (n *IssueNotifier) postSlack(ctx context.Context, rt route, text string, attachment *slackAttachment) error {
	payload := slackPayload{
		Text:      text,
		LinkNames: 1,
		Username:  n.settings.SlackUsername,
		Channel:   rt.slackChannel,
	}
	if attachment != nil {
		payload.Attachments = []slackAttachment{*attachment}
	}
	if icon := n.settings.SlackIcon; icon != "" {
		if strings.HasPrefix(icon, ":") {
			payload.IconEmoji = icon
		} else {
			payload.IconURL = icon
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode slack payload: %w", err)
	}
	return n.webhook.PostForm(ctx, rt.slackURL, url.Values{"payload": {string(body)}})
}

// flatten renders a Slack message and attachment as plain Google Chat text.
func flatten(text string, attachment *slackAttachment) string {
	var b strings.Builder
	b.WriteString(format.SlackUnescape(text))
	if attachment == nil {
		return b.String()
	}
	if attachment.Text != "" {
		b.WriteString("\n" + format.SlackUnescape(attachment.Text))
	}
	if len(attachment.Fields) > 0 {
		lines := make([]string, len(attachment.Fields))
		for i, f := range attachment.Fields {
			lines[i] = fmt.Sprintf("*%s*: %s", f.Title, format.SlackUnescape(f.Value))
		}
		b.WriteString("\n" + strings.Join(lines, "\n"))
	}
	return b.String()
}

// resolveRoute walks project -> parent -> global settings for each target,
// taking the first non-blank value. A Slack channel of "-" disables Slack.
func (n *IssueNotifier) resolveRoute(ctx context.Context, project *models.Project) route {
	var rt route
	p := project
	for depth := 0; p != nil && depth < maxProjectDepth; depth++ {
		if rt.slackURL == "" {
			rt.slackURL = p.SlackURL
		}
		if rt.slackChannel == "" {
			rt.slackChannel = p.SlackChannel
		}
		if rt.chatWebhook == "" {
			rt.chatWebhook = p.WebhookURL
		}
		if p.ParentID == nil {
			break
		}
		parent, err := n.projects.GetByID(ctx, *p.ParentID)
		if err != nil {
			n.logger.WarnContext(ctx, "parent project lookup failed", "project_id", p.ID, "parent_id", *p.ParentID, "error", err)
			break
		}
		p = parent
	}

	if rt.slackURL == "" {
		rt.slackURL = n.settings.SlackURL
	}
	if rt.slackChannel == "" {
		rt.slackChannel = n.settings.SlackChannel
	}
	if rt.chatWebhook == "" {
		rt.chatWebhook = n.settings.WebhookURL
	}
	if rt.slackChannel == models.SlackChannelDisabled {
		rt.slackChannel = ""
	}
	return rt
}
