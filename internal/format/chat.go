package format

import (
	"regexp"
	"strings"
)

var (
	gchatBoldRe = regexp.MustCompile(`\*\*(.*?)\*\*`)
	gchatLinkRe = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	mentionRe   = regexp.MustCompile(`@[a-z0-9][a-z0-9_\-.]*`)
)

// GoogleChat translates Redmine markdown into Google Chat text markup.
// Italic (_x_) and strike (~x~) are the same in both dialects.
func GoogleChat(content string) string {
	out := gchatBoldRe.ReplaceAllString(content, "*$1*")
	out = gchatLinkRe.ReplaceAllString(out, "<$2|$1>")
	return strings.TrimSpace(out)
}

var (
	slackEscaper   = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	slackUnescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")
)

// SlackEscape escapes the three characters Slack treats as control sequences.
func SlackEscape(s string) string {
	return slackEscaper.Replace(s)
}

// SlackUnescape reverses SlackEscape.
func SlackUnescape(s string) string {
	return slackUnescaper.Replace(s)
}

// Link renders a Slack / Google Chat link.
func Link(url, text string) string {
	return "<" + url + "|" + text + ">"
}

// Mentions returns the distinct @login tokens in text, in order of appearance.
func Mentions(text string) []string {
	seen := map[string]bool{}
	var names []string
	for _, m := range mentionRe.FindAllString(text, -1) {
		if !seen[m] {
			seen[m] = true
			names = append(names, m)
		}
	}
	return names
}
