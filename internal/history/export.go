package history

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/diogo/researchcopilot/internal/models"
)

// ExportFormat represents the format for exporting a project history
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
	ExportFormatText     ExportFormat = "text"
)

// ParseFormat parses a --format flag value
func ParseFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md", "":
		return ExportFormatMarkdown, nil
	case "json":
		return ExportFormatJSON, nil
	case "text", "txt":
		return ExportFormatText, nil
	default:
		return "", fmt.Errorf("unsupported format: %s. Supported: markdown, json, text", s)
	}
}

// ExportOptions configures how a history is exported
type ExportOptions struct {
	Format        ExportFormat
	IncludeSystem bool
	Now           func() time.Time
}

// DefaultExportOptions returns sensible defaults for export
func DefaultExportOptions() ExportOptions {
	return ExportOptions{Format: ExportFormatMarkdown, Now: time.Now}
}

// Export renders the history of project in the requested format
func Export(project models.Project, messages []models.Message, opts ExportOptions) ([]byte, error) {
	if !opts.IncludeSystem {
		messages = withoutSystem(messages)
	}
	switch opts.Format {
	case ExportFormatJSON:
		return exportJSON(project, messages, opts)
	case ExportFormatText:
		return []byte(exportText(messages)), nil
	case ExportFormatMarkdown, "":
		return []byte(exportMarkdown(project, messages)), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", opts.Format)
	}
}

func exportMarkdown(project models.Project, messages []models.Message) string {
	var sb strings.Builder

	sb.WriteString("# ")
	sb.WriteString(project.Name)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "**Proyecto:** %s\n", project.ID)
	fmt.Fprintf(&sb, "**Mensajes:** %d\n\n---\n\n", len(messages))

	for i, msg := range messages {
		sb.WriteString("## ")
		sb.WriteString(RoleLabel(msg.Role))
		sb.WriteString("\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")

		if i < len(messages)-1 {
			sb.WriteString("\n---\n\n")
		}
	}
	return sb.String()
}

func exportText(messages []models.Message) string {
	var sb strings.Builder
	for i, msg := range messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s: %s\n", RoleLabel(msg.Role), msg.Content)
	}
	return sb.String()
}

func exportJSON(project models.Project, messages []models.Message, opts ExportOptions) ([]byte, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	export := struct {
		Project    models.Project   `json:"project"`
		Messages   []models.Message `json:"messages"`
		ExportedAt time.Time        `json:"exported_at"`
	}{
		Project:    project,
		Messages:   messages,
		ExportedAt: now().UTC(),
	}
	if export.Messages == nil {
		export.Messages = []models.Message{}
	}
	return json.MarshalIndent(export, "", "  ")
}

func withoutSystem(messages []models.Message) []models.Message {
	out := make([]models.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role != models.RoleSystem {
			out = append(out, m)
		}
	}
	return out
}

// RoleLabel returns the display name of role
func RoleLabel(role models.Role) string {
	switch role {
	case models.RoleUser:
		return "Usuario"
	case models.RoleAssistant:
		return "Asistente"
	case models.RoleSystem:
		return "Sistema"
	default:
		return string(role)
	}
}

// SearchResult is a message matching a query
type SearchResult struct {
	Index   int
	Role    models.Role
	Snippet string
}

// Search finds messages containing query (case-insensitive)
func Search(messages []models.Message, query string) []SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	queryLower := strings.ToLower(query)
	var results []SearchResult
	for i, msg := range messages {
		if strings.Contains(strings.ToLower(msg.Content), queryLower) {
			results = append(results, SearchResult{
				Index:   i,
				Role:    msg.Role,
				Snippet: extractSnippet(msg.Content, query, 100),
			})
		}
	}
	return results
}

// extractSnippet extracts about maxLen runes around the first occurrence of
// query
func extractSnippet(content, query string, maxLen int) string {
	runes := []rune(content)
	idx := strings.Index(strings.ToLower(content), strings.ToLower(query))
	if idx < 0 {
		if len(runes) > maxLen {
			return string(runes[:maxLen]) + "..."
		}
		return content
	}

	// idx is a byte offset; convert to a rune offset
	pos := len([]rune(content[:min(idx, len(content))]))
	qlen := len([]rune(query))

	half := maxLen / 2
	start := pos - half
	end := pos + qlen + half
	if start < 0 {
		start = 0
		end = maxLen
	}
	if end > len(runes) {
		end = len(runes)
		start = max(end-maxLen, 0)
	}

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet += "..."
	}
	return snippet
}
