package headless

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the logging verbosity level
type LogLevel int

const (
	// LogLevelQuiet shows only critical information (errors, warnings, final summary)
	LogLevelQuiet LogLevel = iota
	// LogLevelNormal shows standard execution progress (default)
	LogLevelNormal
	// LogLevelVerbose shows detailed execution information
	LogLevelVerbose
	// LogLevelDebug shows all internal details for debugging
	LogLevelDebug
)

// Logger prints colored progress for a headless run. It is safe for
// concurrent use; session events are logged from the loop goroutine while
// steps are logged from the runner.
type Logger struct {
	level  LogLevel
	writer io.Writer
	mu     sync.Mutex

	// ANSI color codes
	colorReset     string
	colorGreen     string
	colorCyan      string
	colorSalmon    string
	colorYellow    string
	colorRed       string
	colorGray      string
	colorBoldGreen string
	colorBoldRed   string
	colorBoldWhite string

	// Execution state
	stepCount int
}

// NewLogger creates a new logger writing to stdout
func NewLogger(level LogLevel) *Logger {
	return NewWriterLogger(level, os.Stdout)
}

// NewWriterLogger creates a logger writing to w
func NewWriterLogger(level LogLevel, w io.Writer) *Logger {
	return &Logger{
		level:          level,
		writer:         w,
		colorReset:     "\033[0m",
		colorGreen:     "\033[32m",
		colorCyan:      "\033[36m",
		colorSalmon:    "\033[38;5;217m", // Salmon pink #FFB3BA
		colorYellow:    "\033[33m",
		colorRed:       "\033[31m",
		colorGray:      "\033[90m",
		colorBoldGreen: "\033[1;32m",
		colorBoldRed:   "\033[1;31m",
		colorBoldWhite: "\033[1;37m",
	}
}

// Header prints a prominent header message
func (l *Logger) Header(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level >= LogLevelNormal {
		fmt.Fprintf(l.writer, "\n%s%s%s\n", l.colorBoldWhite, strings.Repeat("=", 70), l.colorReset)
		fmt.Fprintf(l.writer, "%s  %s%s\n", l.colorBoldWhite, message, l.colorReset)
		fmt.Fprintf(l.writer, "%s%s%s\n", l.colorBoldWhite, strings.Repeat("=", 70), l.colorReset)
	}
}

// Section prints a section divider
func (l *Logger) Section(title string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level >= LogLevelNormal {
		fmt.Fprintln(l.writer)
		fmt.Fprintf(l.writer, "%s▶ %s%s\n", l.colorCyan, title, l.colorReset)
		fmt.Fprintf(l.writer, "%s%s%s\n", l.colorGray, strings.Repeat("─", 50), l.colorReset)
	}
}

// Step prints a numbered step in the execution
func (l *Logger) Step(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level >= LogLevelNormal {
		l.stepCount++
		fmt.Fprintf(l.writer, "\n%s[%d] %s%s\n", l.colorCyan, l.stepCount, message, l.colorReset)
	}
}

func (l *Logger) printf(min LogLevel, color, prefix, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level >= min {
		msg := fmt.Sprintf(format, args...)
		fmt.Fprintf(l.writer, "%s%s%s%s\n", color, prefix, msg, l.colorReset)
	}
}

// Successf prints a success message with checkmark
func (l *Logger) Successf(format string, args ...interface{}) {
	l.printf(LogLevelNormal, l.colorBoldGreen, "✓ ", format, args...)
}

// Infof prints an informational message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.printf(LogLevelNormal, l.colorSalmon, "", format, args...)
}

// Warningf prints a warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.printf(LogLevelQuiet, l.colorYellow, "⚠ Warning: ", format, args...)
}

// Errorf prints an error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.printf(LogLevelQuiet, l.colorBoldRed, "✗ Error: ", format, args...)
}

// Verbosef prints detailed information (only in verbose mode)
func (l *Logger) Verbosef(format string, args ...interface{}) {
	l.printf(LogLevelVerbose, l.colorGray, "→ ", format, args...)
}

// Debugf prints debug information (only in debug mode)
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.printf(LogLevelDebug, l.colorGray, "[DEBUG] ", format, args...)
}

// StepResult logs the outcome of a step
func (l *Logger) StepResult(result StepResult) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch result.Status {
	case stepOK:
		if l.level >= LogLevelNormal {
			fmt.Fprintf(l.writer, "%s  ✓ %s (%s)%s\n", l.colorBoldGreen, result.Action, result.Duration.Round(time.Millisecond), l.colorReset)
		}
	case stepNoop:
		if l.level >= LogLevelNormal {
			fmt.Fprintf(l.writer, "%s  • %s: nothing to do%s\n", l.colorGray, result.Action, l.colorReset)
		}
	case stepTimeout:
		fmt.Fprintf(l.writer, "%s  ⚠ %s: still loading after wait%s\n", l.colorYellow, result.Action, l.colorReset)
	case stepRejected:
		fmt.Fprintf(l.writer, "%s  ✗ %s rejected: %s%s\n", l.colorYellow, result.Action, result.Error, l.colorReset)
	default:
		fmt.Fprintf(l.writer, "%s  ✗ %s %s", l.colorBoldRed, result.Action, result.Status)
		if result.Error != "" {
			fmt.Fprintf(l.writer, ": %s", result.Error)
		}
		fmt.Fprintf(l.writer, "%s\n", l.colorReset)
	}
}

// Failure logs a navigation failure
func (l *Logger) Failure(rec FailureRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.writer, "%s  ✗ %s%s\n", l.colorBoldRed, rec.Error, l.colorReset)
	if rec.URL != "" && l.level >= LogLevelVerbose {
		fmt.Fprintf(l.writer, "%s    %s%s\n", l.colorGray, rec.URL, l.colorReset)
	}
}

// Summary prints a final execution summary
func (l *Logger) Summary(status string, summary *ExecutionSummary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.printSummaryHeader()
	l.printStatus(status)
	l.printNameAndDuration(summary)
	l.printMetrics(summary)
	l.printTabs(summary)
	l.printError(summary)
	l.printSummaryFooter()
}

func (l *Logger) printSummaryHeader() {
	fmt.Fprintln(l.writer)
	fmt.Fprintf(l.writer, "%s%s%s\n", l.colorBoldWhite, strings.Repeat("=", 70), l.colorReset)
	fmt.Fprintf(l.writer, "%s  EXECUTION SUMMARY%s\n", l.colorBoldWhite, l.colorReset)
	fmt.Fprintf(l.writer, "%s%s%s\n", l.colorBoldWhite, strings.Repeat("=", 70), l.colorReset)
}

func (l *Logger) printStatus(status string) {
	fmt.Fprint(l.writer, "  Status: ")
	switch status {
	case statusSuccess:
		fmt.Fprintf(l.writer, "%s✓ SUCCESS%s\n", l.colorBoldGreen, l.colorReset)
	case statusPartialSuccess:
		fmt.Fprintf(l.writer, "%s⚠ PARTIAL SUCCESS%s\n", l.colorYellow, l.colorReset)
	case statusFailed:
		fmt.Fprintf(l.writer, "%s✗ FAILED%s\n", l.colorBoldRed, l.colorReset)
	default:
		fmt.Fprintln(l.writer, status)
	}
}

func (l *Logger) printNameAndDuration(summary *ExecutionSummary) {
	if summary.Name != "" {
		fmt.Fprintf(l.writer, "  Script: %s\n", summary.Name)
	}
	fmt.Fprintf(l.writer, "  Duration: %s\n", summary.Duration.Round(time.Millisecond))
}

func (l *Logger) printMetrics(summary *ExecutionSummary) {
	m := summary.Metrics
	fmt.Fprintf(l.writer, "\n  📊 Metrics:\n")
	fmt.Fprintf(l.writer, "    Steps: %d run, %d failed, %d rejected\n", m.StepsRun, m.StepsFailed, m.StepsRejected)
	fmt.Fprintf(l.writer, "    Tabs opened: %d\n", m.TabsOpened)
	if m.NavigationFailures > 0 {
		fmt.Fprintf(l.writer, "    Navigation failures: %d\n", m.NavigationFailures)
	}
	if m.HistoryItems > 0 {
		fmt.Fprintf(l.writer, "    History items: %s\n", formatNumber(m.HistoryItems))
	}
}

func (l *Logger) printTabs(summary *ExecutionSummary) {
	if l.level < LogLevelVerbose || len(summary.Tabs) == 0 {
		return
	}

	fmt.Fprintf(l.writer, "\n  🗂 Tabs:\n")
	for _, tab := range summary.Tabs {
		marker := " "
		if tab.Active {
			marker = "*"
		}
		fmt.Fprintf(l.writer, "   %s %d. %s %s[%s]%s\n", marker, tab.Index+1, tab.URL, l.colorGray, tab.ContentMode, l.colorReset)
	}
}

func (l *Logger) printError(summary *ExecutionSummary) {
	if summary.Error == "" {
		return
	}

	fmt.Fprintln(l.writer)
	fmt.Fprintf(l.writer, "%s  Error Details:%s\n", l.colorBoldRed, l.colorReset)
	fmt.Fprintf(l.writer, "%s    %s%s\n", l.colorRed, summary.Error, l.colorReset)
}

func (l *Logger) printSummaryFooter() {
	fmt.Fprintf(l.writer, "%s%s%s\n", l.colorBoldWhite, strings.Repeat("=", 70), l.colorReset)
	fmt.Fprintln(l.writer)
}

// parseLogLevel converts a string log level to LogLevel type
func parseLogLevel(level string) LogLevel {
	switch level {
	case "quiet":
		return LogLevelQuiet
	case "normal":
		return LogLevelNormal
	case "verbose":
		return LogLevelVerbose
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelNormal
	}
}

// formatNumber formats large numbers with commas for readability
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	return fmt.Sprintf("%d,%03d,%03d", n/1000000, (n/1000)%1000, n%1000)
}
