package notify

import (
	"fmt"
	"strings"

	"reel-digest/internal/app/model"
)

// Fixed replies sent outside the summary path.
const (
	GreetingMessage    = "Hello! Send me an Instagram reel link!"
	ProcessingMessage  = "Processing your reel..."
	BadLinkMessage     = "Failed to extract videocode from the URL."
	EmptyResultMessage = "✅ Your reel was processed, but it does not describe any company, so there is nothing to summarize."
	FailureMessage     = "⚠️ Sorry, your reel could not be processed. Please try again later."
)

var markdownEscaper = strings.NewReplacer(
	`_`, `\_`,
	`*`, `\*`,
	"`", "\\`",
	`[`, `\[`,
	`]`, `\]`,
)

// Escape makes text safe inside Telegram Markdown.
func Escape(text string) string {
	return markdownEscaper.Replace(text)
}

// Echo is the reply to a message that is not a reel link.
func Echo(text string) string {
	return "Echo: " + text
}

// FormatSummary renders a validated summary as a Telegram Markdown message.
func FormatSummary(s *model.StructuredSummary) string {
	switch s.Type {
	case model.TypeCompanies:
		return formatCompanies(s)
	case model.TypeTechnology:
		return formatTechnology(s)
	default:
		return formatGeneral(s)
	}
}

func formatCompanies(s *model.StructuredSummary) string {
	lines := []string{"*📢 Company Summaries*\n"}
	for i, c := range s.Summaries {
		lines = append(lines,
			fmt.Sprintf("*%d. %s*", i+1, Escape(c.CompanyName)),
			"🏢 Location: "+Escape(orNotSpecified(c.Location)),
			"🏭 Industry: "+Escape(orNotSpecified(c.Industry)),
			"💰 Funding: "+Escape(orNotSpecified(c.Funding)),
			"📝 Notes: "+Escape(c.Notes)+"\n",
		)
	}
	if len(s.Tags) > 0 {
		lines = append(lines, "*🏷️ Tags:* "+Escape(strings.Join(s.Tags, ", ")))
	}
	if len(s.Companies) > 0 {
		lines = append(lines, "\n*Companies Mentioned:* "+Escape(strings.Join(s.Companies, ", ")))
	}
	return strings.Join(lines, "\n")
}

var technologySections = []struct {
	label string
	emoji string
}{
	{"Topic", "📌"},
	{"Tech", "⚙️"},
	{"Insight", "💡"},
	{"Takeaway", "🎯"},
}

func formatTechnology(s *model.StructuredSummary) string {
	sections := make(map[string]string)
	for _, line := range strings.Split(s.Summary, "\n") {
		if key, value, ok := strings.Cut(line, ":"); ok {
			sections[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}

	lines := []string{"*🎬 Summary Created*\n", "*Title:* _" + Escape(s.Title) + "_\n"}
	for _, sec := range technologySections {
		if value, ok := sections[sec.label]; ok {
			lines = append(lines, fmt.Sprintf("%s *%s:* %s", sec.emoji, sec.label, Escape(value)))
		}
	}
	lines = append(lines, "\n🏷️ *Tags:* "+formatTags(s.Tags))
	return strings.Join(lines, "\n")
}

func formatGeneral(s *model.StructuredSummary) string {
	lines := []string{
		"*🎬 Summary Created*\n",
		"*Title:* _" + Escape(s.Title) + "_\n",
		"*Summary:*\n" + Escape(s.Summary) + "\n",
		"*🏷️ Tags:* " + formatTags(s.Tags),
	}
	return strings.Join(lines, "\n")
}

func formatTags(tags []string) string {
	if len(tags) == 0 {
		return "None"
	}
	quoted := make([]string, len(tags))
	for i, t := range tags {
		quoted[i] = "`" + strings.ReplaceAll(t, "`", "'") + "`"
	}
	return strings.Join(quoted, " | ")
}

func orNotSpecified(v string) string {
	if strings.TrimSpace(v) == "" {
		return model.NotSpecified
	}
	return v
}
