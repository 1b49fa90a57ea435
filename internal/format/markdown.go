package format

import (
	"regexp"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Entities is chat text with its markup stripped and replaced by Telegram
// message entities.
type Entities struct {
	Text     string
	Entities []tgbotapi.MessageEntity
}

type markup struct {
	re    *regexp.Regexp // group 1 is the whole marked-up span
	kind  string
	open  int // marker widths in bytes
	close int
}

// Order matters: links before emphasis so URLs keep their asterisks, bold
// before italic so "**" is not read as two italics.
var markups = []markup{
	{regexp.MustCompile(`(\[([^\]]+)\]\(([^)\s]+)\))`), "text_link", 0, 0},
	{regexp.MustCompile(`(\*\*.+?\*\*)`), "bold", 2, 2},
	{regexp.MustCompile("(`[^`]+?`)"), "code", 1, 1},
	{regexp.MustCompile(`(?:^|[^\w*])(\*[^*\n]+?\*)(?:[^\w*]|$)`), "italic", 1, 1},
	{regexp.MustCompile(`(~[^~\n]+?~)`), "strikethrough", 1, 1},
}

var headerRe = regexp.MustCompile(`(?m)^#{1,6}\s+(.+?)$`)

// UTF16Len returns the length of s in UTF-16 code units, which is what
// Telegram entity offsets are measured in.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// ParseMarkdown converts Redmine markdown into plain text plus Telegram entities.
// Supported: # headers (bold), **bold**, *italic*, ~strike~, `code`, [text](url).
func ParseMarkdown(text string) Entities {
	var entities []tgbotapi.MessageEntity
	result := headerRe.ReplaceAllString(text, "**$1**")

	for _, m := range markups {
		for {
			loc := m.re.FindStringSubmatchIndex(result)
			if loc == nil {
				break
			}

			start, end := loc[2], loc[3]
			innerStart, innerEnd := start+m.open, end-m.close
			var url string
			if m.kind == "text_link" {
				innerStart, innerEnd = loc[4], loc[5]
				url = result[loc[6]:loc[7]]
			}

			inner := result[innerStart:innerEnd]

			// remove the closing marker first so the opening position stays valid
			entities = removeUnits(entities, UTF16Len(result[:innerEnd]), UTF16Len(result[innerEnd:end]))
			entities = removeUnits(entities, UTF16Len(result[:start]), UTF16Len(result[start:innerStart]))

			entities = append(entities, tgbotapi.MessageEntity{
				Type:   m.kind,
				Offset: UTF16Len(result[:start]),
				Length: UTF16Len(inner),
				URL:    url,
			})
			result = result[:start] + inner + result[end:]
		}
	}

	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].Offset < entities[j].Offset
	})

	return Entities{
		Text:     strings.TrimRight(result, " \n"),
		Entities: entities,
	}
}

// removeUnits adjusts entities for the deletion of width units at pos.
func removeUnits(entities []tgbotapi.MessageEntity, pos, width int) []tgbotapi.MessageEntity {
	if width == 0 {
		return entities
	}
	for i := range entities {
		e := &entities[i]
		switch {
		case e.Offset >= pos+width:
			e.Offset -= width
		case e.Offset <= pos && e.Offset+e.Length >= pos+width:
			e.Length -= width
		}
	}
	return entities
}
