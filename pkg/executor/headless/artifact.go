package headless

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/surf/pkg/browsing"
)

// ArtifactWriter handles writing execution artifacts
type ArtifactWriter struct {
	outputDir string
}

// NewArtifactWriter creates a new artifact writer
func NewArtifactWriter(outputDir string) *ArtifactWriter {
	return &ArtifactWriter{
		outputDir: outputDir,
	}
}

// WriteAll writes execution.json and summary.md
func (w *ArtifactWriter) WriteAll(summary *ExecutionSummary) error {
	// Ensure output directory exists
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := w.WriteExecutionJSON(summary); err != nil {
		return fmt.Errorf("failed to write execution JSON: %w", err)
	}

	if err := w.WriteSummaryMarkdown(summary); err != nil {
		return fmt.Errorf("failed to write summary markdown: %w", err)
	}

	return nil
}

// WriteExecutionJSON writes the full execution summary as JSON
func (w *ArtifactWriter) WriteExecutionJSON(summary *ExecutionSummary) error {
	path := filepath.Join(w.outputDir, "execution.json")

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal execution summary: %w", err)
	}

	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write execution JSON: %w", writeErr)
	}

	return nil
}

// WriteSummaryMarkdown writes a human-readable markdown summary
func (w *ArtifactWriter) WriteSummaryMarkdown(summary *ExecutionSummary) error {
	path := filepath.Join(w.outputDir, "summary.md")

	var md strings.Builder

	// Header
	md.WriteString("# Surf Headless Execution Summary\n\n")
	if summary.Name != "" {
		md.WriteString(fmt.Sprintf("**Script:** %s\n\n", summary.Name))
	}
	md.WriteString(fmt.Sprintf("**Status:** %s\n\n", summary.Status))
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", summary.StartTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Completed:** %s\n\n", summary.EndTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %s\n\n", summary.Duration))

	// Result
	md.WriteString("## Result\n\n")
	if summary.Error != "" {
		md.WriteString(fmt.Sprintf("❌ **Error:** %s\n\n", summary.Error))
	} else {
		md.WriteString("✅ **Completed**\n\n")
	}

	if len(summary.Steps) > 0 {
		md.WriteString("## Steps\n\n")
		md.WriteString("| # | Action | Target | Status | Duration |\n")
		md.WriteString("|---|---|---|---|---|\n")
		for _, step := range summary.Steps {
			md.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
				step.Index, step.Action, step.Target, step.Status, step.Duration.Round(time.Millisecond)))
		}
		md.WriteString("\n")
		for _, step := range summary.Steps {
			if step.Error != "" {
				md.WriteString(fmt.Sprintf("- step %d: %s\n", step.Index, step.Error))
			}
		}
	}

	if len(summary.Tabs) > 0 {
		md.WriteString("## Tabs\n\n")
		for _, tab := range summary.Tabs {
			marker := ""
			if tab.Active {
				marker = " (active)"
			}
			title := tab.Title
			if title == "" {
				title = "Untitled"
			}
			md.WriteString(fmt.Sprintf("- **%s**%s: `%s` [%s]\n", title, marker, tab.URL, tab.ContentMode))
		}
		md.WriteString("\n")
	}

	if len(summary.Failures) > 0 {
		md.WriteString("## Navigation Failures\n\n")
		for _, f := range summary.Failures {
			md.WriteString(fmt.Sprintf("- `%s`: %s\n", f.URL, f.Error))
		}
		md.WriteString("\n")
	}

	if len(summary.History) > 0 {
		md.WriteString("## History\n\n")
		for _, item := range summary.History {
			md.WriteString(fmt.Sprintf("- %s `%s` (%s)\n", item.Title, item.URL, item.VisitDate.Format(time.RFC3339)))
		}
		md.WriteString("\n")
	}

	// Metrics
	md.WriteString("## Metrics\n\n")
	md.WriteString(fmt.Sprintf("- **Steps Run:** %d\n", summary.Metrics.StepsRun))
	md.WriteString(fmt.Sprintf("- **Steps Failed:** %d\n", summary.Metrics.StepsFailed))
	md.WriteString(fmt.Sprintf("- **Steps Rejected:** %d\n", summary.Metrics.StepsRejected))
	md.WriteString(fmt.Sprintf("- **Tabs Opened:** %d\n", summary.Metrics.TabsOpened))
	md.WriteString(fmt.Sprintf("- **Navigation Failures:** %d\n", summary.Metrics.NavigationFailures))
	md.WriteString(fmt.Sprintf("- **History Items:** %d\n", summary.Metrics.HistoryItems))

	// Write file
	if writeErr := os.WriteFile(path, []byte(md.String()), 0600); writeErr != nil {
		return fmt.Errorf("failed to write summary markdown: %w", writeErr)
	}

	return nil
}

// ExecutionSummary contains a complete summary of a headless run
type ExecutionSummary struct {
	Name      string                 `json:"name,omitempty"`
	Status    string                 `json:"status"`
	Error     string                 `json:"error,omitempty"`
	StartTime time.Time              `json:"start_time"`
	EndTime   time.Time              `json:"end_time"`
	Duration  time.Duration          `json:"duration"`
	Steps     []StepResult           `json:"steps"`
	Tabs      []TabSummary           `json:"tabs"`
	Failures  []FailureRecord        `json:"failures,omitempty"`
	History   []browsing.HistoryItem `json:"history"`
	Metrics   ExecutionMetrics       `json:"metrics"`
}

// StepResult is the outcome of one step
type StepResult struct {
	Index    int           `json:"index"`
	Action   Action        `json:"action"`
	Target   string        `json:"target,omitempty"`
	TabID    string        `json:"tab_id,omitempty"`
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// TabSummary is a tab as it was at the end of the run
type TabSummary struct {
	Index       int    `json:"index"`
	ID          string `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	ContentMode string `json:"content_mode"`
	Loading     bool   `json:"loading"`
	Active      bool   `json:"active"`
}

// FailureRecord is a navigation failure reported during the run
type FailureRecord struct {
	TabID       string    `json:"tab_id"`
	URL         string    `json:"url,omitempty"`
	Error       string    `json:"error"`
	Provisional bool      `json:"provisional"`
	Time        time.Time `json:"time"`
}

// ExecutionMetrics contains execution metrics
type ExecutionMetrics struct {
	StepsRun           int `json:"steps_run"`
	StepsFailed        int `json:"steps_failed"`
	StepsRejected      int `json:"steps_rejected"`
	TabsOpened         int `json:"tabs_opened"`
	Navigations        int `json:"navigations"`
	NavigationFailures int `json:"navigation_failures"`
	HistoryItems       int `json:"history_items"`
}
