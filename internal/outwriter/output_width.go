package outwriter

import (
	"os"

	"github.com/huangsam/groomer/internal/contract"
	"golang.org/x/term"
)

// Bounds for the title column of the issue table.
const (
	minTitleWidth = 20
	maxTitleWidth = 80
)

// terminalWidth returns the width override or the detected terminal width.
func terminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detectedWidth
}

// GetMaxTableTitleWidth calculates the maximum width for issue titles in
// table output based on terminal width.
func GetMaxTableTitleWidth(cfg *contract.Config) int {
	// Number + Priority + Age + Updated + Labels with borders and padding
	baseWidth := 70

	available := terminalWidth(cfg) - baseWidth
	if available < minTitleWidth {
		return minTitleWidth
	}
	if available > maxTitleWidth {
		return maxTitleWidth
	}
	return available
}
