package style

import (
	"regexp"

	"github.com/charmbracelet/lipgloss"
)

// tagStyles maps markup tag names to styles. Display text is written as
// "[subtitle]Beam[/subtitle]" and passed through Render, which keeps the
// strings readable where they are built and in test assertions.
var tagStyles = map[string]lipgloss.Style{
	"title":    TitleStyle,
	"subtitle": SubtitleStyle,
	"success":  SuccessStyle,
	"error":    ErrorStyle,
	"warning":  WarningStyle,
	"info":     InfoStyle,
	"muted":    MutedStyle,
	"path":     PathStyle,
	"bold":     lipgloss.NewStyle().Bold(true),

	"format":    FormatStyle,
	"model":     ModelStyle,
	"convert":   ConvertStyle,
	"inventory": InventoryStyle,
}

// tagPatterns holds one compiled pattern per tag. Go's regexp has no
// backreferences, so each tag needs its own pattern.
var tagPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(tagStyles))
	for tag := range tagStyles {
		patterns[tag] = regexp.MustCompile(`\[` + tag + `\](.*?)\[/` + tag + `\]`)
	}
	return patterns
}()

// Render replaces markup tags with styled text. Nested tags resolve from
// the inside out; unknown tags pass through untouched.
func Render(text string) string {
	result := text
	for {
		before := result
		for tag, pattern := range tagPatterns {
			style := tagStyles[tag]
			pre, post := len(tag)+2, len(tag)+3
			result = pattern.ReplaceAllStringFunc(result, func(match string) string {
				return style.Render(match[pre : len(match)-post])
			})
		}
		if result == before {
			return result
		}
	}
}
