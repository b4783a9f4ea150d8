package style

import (
	"fmt"

	"github.com/arthur-debert/difftbx/pkg/operations"
)

// Indicator returns the glyph for an operation status
func Indicator(status operations.Status) string {
	switch status {
	case operations.StatusDone:
		return SuccessIndicator
	case operations.StatusError:
		return ErrorIndicator
	case operations.StatusReady:
		return PendingIndicator
	default:
		return InfoIndicator
	}
}

// Summarize renders the one-line outcome of an executed plan: how many
// operations ran, were skipped and failed. Dry runs say so instead of
// claiming completion.
func Summarize(result *operations.Result) string {
	if result == nil || len(result.Ops) == 0 {
		return MutedStyle.Render("nothing to do")
	}

	done, skipped, failed := result.Counts()
	if result.DryRun {
		planned := len(result.Ops) - skipped
		return MutedStyle.Render(fmt.Sprintf("dry-run: %d operations planned, %d skipped", planned, skipped))
	}

	text := fmt.Sprintf("%d done, %d skipped, %d failed", done, skipped, failed)
	if failed > 0 {
		return ErrorStyle.Render(text)
	}
	return MutedStyle.Render(text)
}
