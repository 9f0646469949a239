package contract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/groomer/schema"
)

// Color variables for console output.
var (
	CriticalColor = color.New(color.FgRed, color.Bold) // CriticalColor represents standard danger.
	WarningColor  = color.New(color.FgYellow)          // WarningColor represents standard caution, not bold.
	HealthyColor  = color.New(color.FgGreen)           // HealthyColor represents a good signal.
	InfoColor     = color.New(color.FgCyan)            // InfoColor represents informational output.
)

// repoPattern matches GitHub owner and repository names.
var repoPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?/[A-Za-z0-9._-]+$`)

// GetRatingLabel returns a colored health rating for console output (table).
func GetRatingLabel(rating schema.HealthRating) string {
	switch rating {
	case schema.HealthyRating:
		return HealthyColor.Sprint(rating)
	case schema.NeedsAttentionRating:
		return WarningColor.Sprint(rating)
	default:
		return CriticalColor.Sprint(rating)
	}
}

// GetSeverityLabel returns a colored problem severity for console output (table).
func GetSeverityLabel(severity schema.Severity) string {
	if severity == schema.CriticalSeverity {
		return CriticalColor.Sprint(severity)
	}
	return WarningColor.Sprint(severity)
}

// GetScoreLabel colors a 0-100 health value by the default rating bands.
func GetScoreLabel(score int) string {
	text := fmt.Sprintf("%d", score)
	switch {
	case score >= 80:
		return HealthyColor.Sprint(text)
	case score >= 60:
		return WarningColor.Sprint(text)
	default:
		return CriticalColor.Sprint(text)
	}
}

// SplitRepo splits "owner/name" into its parts.
func SplitRepo(repo string) (string, string, error) {
	repo = strings.TrimSuffix(strings.TrimSpace(repo), ".git")
	repo = strings.TrimPrefix(repo, "https://github.com/")
	if !repoPattern.MatchString(repo) {
		return "", "", fmt.Errorf("invalid repository '%s'. must be owner/name", repo)
	}
	owner, name, _ := strings.Cut(repo, "/")
	return owner, name, nil
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetStateDBFilePath returns the path to the SQLite DB file for state storage.
func GetStateDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".groomer_state.db"
	}
	return filepath.Join(homeDir, ".groomer_state.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for history storage.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".groomer_history.db"
	}
	return filepath.Join(homeDir, ".groomer_history.db")
}

// Truncate shortens s to maxWidth runes with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the "..." and at least one character.
func Truncate(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return s
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// SleepContext waits for d or until ctx is done, whichever comes first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil || d <= 0 {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
