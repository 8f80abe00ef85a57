package outwriter

import (
	"os"

	"github.com/huangsam/waypoint/internal/contract"
	"golang.org/x/term"
)

// Column widths reserved next to the path column, borders included.
const (
	unitColumnsWidth    = 60 // Kind + Cx + Status + Artifacts + Last Error
	relatedColumnsWidth = 55 // Score + Source + Kind + Reasons
	borderWidth         = 20
)

// GetMaxTablePathWidth calculates the maximum width for paths in table output
// based on terminal width and the width taken by the other columns.
func GetMaxTablePathWidth(cfg *contract.Config, reserved int) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	available := termWidth - reserved - borderWidth
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}
