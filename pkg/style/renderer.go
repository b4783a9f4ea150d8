package style

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/arthur-debert/difftbx/pkg/format"
	"github.com/arthur-debert/difftbx/pkg/install"
	"github.com/arthur-debert/difftbx/pkg/inventory"
	"github.com/arthur-debert/difftbx/pkg/operations"
)

// Renderer defines the interface for rendering various output types
type Renderer interface {
	RenderFormats(entries []format.Entry) string
	RenderOperations(result *operations.Result) string
	RenderModeBanner(mode install.Mode, source install.Source) string
	RenderInventory(files []inventory.ImageFile) string
	RenderError(err error) string
	RenderProgress(current, total int, message string) string
}

// TerminalRenderer implements Renderer with rich terminal output
type TerminalRenderer struct {
	width int
}

// NewTerminalRenderer creates a new terminal renderer
func NewTerminalRenderer() *TerminalRenderer {
	return &TerminalRenderer{
		width: 80, // Default width, can be updated
	}
}

// SetWidth updates the terminal width for rendering
func (r *TerminalRenderer) SetWidth(width int) {
	r.width = width
}

// RenderFormats renders the registered image formats as a table
func (r *TerminalRenderer) RenderFormats(entries []format.Entry) string {
	if len(entries) == 0 {
		return MutedStyle.Render("No formats registered")
	}

	data := pterm.TableData{{"FORMAT", "LEVEL", "DESCRIPTION"}}
	for _, e := range entries {
		data = append(data, []string{
			FormatStyle.Render(e.Name),
			strconv.Itoa(e.Level),
			e.Description,
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return renderFormatsPlain(entries)
	}
	return TitleStyle.Render("Image formats") + "\n\n" + table
}

// RenderOperations renders an executed or planned operation list
func (r *TerminalRenderer) RenderOperations(result *operations.Result) string {
	if result == nil || len(result.Ops) == 0 {
		return MutedStyle.Render("No operations to perform")
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Operations") + "\n\n")

	for _, op := range result.Ops {
		line := fmt.Sprintf("%s %s", Indicator(op.Operation.Status), op.Operation.Description)
		if op.Err != nil {
			line += " " + ErrorStyle.Render(op.Err.Error())
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + Summarize(result))
	return b.String()
}

// RenderModeBanner renders the selected install mode and what selected it
func (r *TerminalRenderer) RenderModeBanner(mode install.Mode, source install.Source) string {
	var name string
	switch mode {
	case install.ModeStandard:
		name = SuccessStyle.Render(string(mode))
	default:
		name = WarningStyle.Render(string(mode))
	}
	return fmt.Sprintf("%s %s %s",
		SubtitleStyle.Render("Install mode:"),
		name,
		MutedStyle.Render("("+string(source)+")"))
}

// RenderInventory renders the catalogued images as a table
func (r *TerminalRenderer) RenderInventory(files []inventory.ImageFile) string {
	if len(files) == 0 {
		return MutedStyle.Render("Inventory is empty")
	}

	data := pterm.TableData{{"PATH", "FORMAT", "WAVELENGTH", "SIZE"}}
	for _, f := range files {
		data = append(data, []string{
			PathStyle.Render(f.Path),
			FormatStyle.Render(f.Format),
			fmt.Sprintf("%.4f A", f.WavelengthAng),
			humanSize(f.SizeBytes),
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return renderInventoryPlain(files)
	}
	return TitleStyle.Render(fmt.Sprintf("Inventory (%d images)", len(files))) + "\n\n" + table
}

// RenderError renders an error message
func (r *TerminalRenderer) RenderError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s %s", pterm.Error.Prefix.Text, pterm.Error.MessageStyle.Sprint(err.Error()))
}

// RenderProgress renders a progress indicator
func (r *TerminalRenderer) RenderProgress(current, total int, message string) string {
	// Progress bar
	percentage := float64(current) / float64(total)
	barWidth := 20
	filled := int(percentage * float64(barWidth))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	return fmt.Sprintf("%s [%s] %d/%d %s",
		ProgressIndicator,
		pterm.Info.MessageStyle.Sprint(bar),
		current,
		total,
		message)
}

// PlainRenderer implements Renderer with plain text output (no styling)
type PlainRenderer struct{}

// NewPlainRenderer creates a new plain text renderer
func NewPlainRenderer() *PlainRenderer {
	return &PlainRenderer{}
}

// RenderFormats renders a plain format listing
func (r *PlainRenderer) RenderFormats(entries []format.Entry) string {
	if len(entries) == 0 {
		return "No formats registered"
	}
	return renderFormatsPlain(entries)
}

func renderFormatsPlain(entries []format.Entry) string {
	var b strings.Builder
	b.WriteString("Image formats:\n")
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("  %-20s level %d  %s\n", e.Name, e.Level, e.Description))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderOperations renders plain operations
func (r *PlainRenderer) RenderOperations(result *operations.Result) string {
	if result == nil || len(result.Ops) == 0 {
		return "No operations to perform"
	}

	var b strings.Builder
	for _, op := range result.Ops {
		b.WriteString(fmt.Sprintf("%s: %s", op.Operation.Status, op.Operation.Description))
		if op.Err != nil {
			b.WriteString(" (" + op.Err.Error() + ")")
		}
		b.WriteString("\n")
	}

	done, skipped, failed := result.Counts()
	if result.DryRun {
		b.WriteString(fmt.Sprintf("dry-run: %d operations planned, %d skipped",
			len(result.Ops)-skipped, skipped))
	} else {
		b.WriteString(fmt.Sprintf("%d done, %d skipped, %d failed", done, skipped, failed))
	}
	return b.String()
}

// RenderModeBanner renders a plain mode line
func (r *PlainRenderer) RenderModeBanner(mode install.Mode, source install.Source) string {
	return fmt.Sprintf("Install mode: %s (%s)", mode, source)
}

// RenderInventory renders a plain inventory listing
func (r *PlainRenderer) RenderInventory(files []inventory.ImageFile) string {
	if len(files) == 0 {
		return "Inventory is empty"
	}
	return renderInventoryPlain(files)
}

func renderInventoryPlain(files []inventory.ImageFile) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Inventory (%d images):\n", len(files)))
	for _, f := range files {
		b.WriteString(fmt.Sprintf("  %s  %s  %.4f A  %s\n",
			f.Path, f.Format, f.WavelengthAng, humanSize(f.SizeBytes)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderError renders a plain error message
func (r *PlainRenderer) RenderError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %s", err.Error())
}

// RenderProgress renders plain progress
func (r *PlainRenderer) RenderProgress(current, total int, message string) string {
	return fmt.Sprintf("Progress: %d/%d - %s", current, total, message)
}

// humanSize renders a byte count in the largest round unit
func humanSize(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
