package llm

import (
	"fmt"
	"strings"
)

const maxSummaryChars = 400

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func formatArticles(articles []Article) string {
	var sb strings.Builder
	for _, a := range articles {
		sb.WriteString(fmt.Sprintf("[%s] Title: %s\n", a.ID, a.Title))
		sb.WriteString(fmt.Sprintf("    Summary: %s\n", truncate(a.Summary, maxSummaryChars)))
		if a.Source != "" {
			sb.WriteString(fmt.Sprintf("    Source: %s\n", a.Source))
		}
		sb.WriteString(fmt.Sprintf("    Published: %s\n", a.PublishedAt.Format("2006-01-02")))
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatThreadRefs(refs []ThreadRef) string {
	if len(refs) == 0 {
		return "(none tracked yet)\n"
	}
	var sb strings.Builder
	for _, r := range refs {
		sb.WriteString(fmt.Sprintf("- id=%s title=%q keywords=%s\n", r.ID, r.Title, strings.Join(r.Keywords, ", ")))
	}
	return sb.String()
}

func formatCharacterRefs(refs []CharacterRef) string {
	if len(refs) == 0 {
		return "(none tracked yet)\n"
	}
	var sb strings.Builder
	for _, r := range refs {
		if len(r.Aliases) > 0 {
			sb.WriteString(fmt.Sprintf("- %s (aliases: %s)\n", r.Name, strings.Join(r.Aliases, ", ")))
		} else {
			sb.WriteString(fmt.Sprintf("- %s\n", r.Name))
		}
	}
	return sb.String()
}

func storyUserPrompt(articles []Article, known []ThreadRef) string {
	return "Tracked stories:\n" + formatThreadRefs(known) + "\nToday's articles:\n" + formatArticles(articles)
}

func characterUserPrompt(articles []Article, known []CharacterRef) string {
	return "Tracked characters:\n" + formatCharacterRefs(known) + "\nToday's articles:\n" + formatArticles(articles)
}

func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Some model responses include extra prose around JSON.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}
