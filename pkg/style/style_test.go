package style

import (
	"strings"
	"testing"
	"time"

	"github.com/arthur-debert/difftbx/pkg/errors"
	"github.com/arthur-debert/difftbx/pkg/format"
	"github.com/arthur-debert/difftbx/pkg/install"
	"github.com/arthur-debert/difftbx/pkg/inventory"
	"github.com/arthur-debert/difftbx/pkg/operations"
)

func testEntries() []format.Entry {
	return []format.Entry{
		{Name: "SMV", Level: 1, Description: "generic SMV images"},
		{Name: "CBF-mini-Pilatus", Level: 3, Description: "Dectris mini header"},
	}
}

func testResult() *operations.Result {
	ready := operations.NewCreateDir("/site/dxtbx-3.15.0.dist-info")
	done := operations.NewWriteFile("/site/dxtbx-3.15.0.dist-info/METADATA", nil)
	done.Status = operations.StatusDone
	skipped := operations.NewWriteFile("/site/dxtbx-3.15.0.dist-info/RECORD", nil).
		Skip("base package provided by the environment")

	return &operations.Result{
		Ops: []operations.OpResult{
			{Operation: ready},
			{Operation: done},
			{Operation: skipped},
		},
	}
}

func TestTerminalRenderer(t *testing.T) {
	renderer := NewTerminalRenderer()

	t.Run("RenderFormats", func(t *testing.T) {
		result := renderer.RenderFormats(testEntries())
		if !strings.Contains(result, "SMV") {
			t.Error("Expected output to contain format name 'SMV'")
		}
		if !strings.Contains(result, "CBF-mini-Pilatus") {
			t.Error("Expected output to contain format name 'CBF-mini-Pilatus'")
		}
		if !strings.Contains(result, "Image formats") {
			t.Error("Expected output to contain title")
		}
	})

	t.Run("RenderFormats empty", func(t *testing.T) {
		result := renderer.RenderFormats(nil)
		if !strings.Contains(result, "No formats registered") {
			t.Error("Expected 'No formats registered' message")
		}
	})

	t.Run("RenderOperations", func(t *testing.T) {
		result := renderer.RenderOperations(testResult())
		if !strings.Contains(result, "METADATA") {
			t.Error("Expected output to contain operation targets")
		}
		if !strings.Contains(result, "base package provided by the environment") {
			t.Error("Expected skip reason in output")
		}
		if !strings.Contains(result, "1 done, 1 skipped, 0 failed") {
			t.Error("Expected summary line")
		}
	})

	t.Run("RenderOperations empty", func(t *testing.T) {
		result := renderer.RenderOperations(nil)
		if !strings.Contains(result, "No operations to perform") {
			t.Error("Expected 'No operations to perform' message")
		}
	})

	t.Run("RenderModeBanner", func(t *testing.T) {
		result := renderer.RenderModeBanner(install.ModeStandard, install.SourceMarker)
		if !strings.Contains(result, "standard") {
			t.Error("Expected mode name in banner")
		}
		if !strings.Contains(result, "marker file") {
			t.Error("Expected mode source in banner")
		}
	})

	t.Run("RenderInventory", func(t *testing.T) {
		files := []inventory.ImageFile{
			{Path: "/data/a.img", Format: "SMV", WavelengthAng: 0.9795,
				SizeBytes: 18874368, ModTime: time.Now()},
		}
		result := renderer.RenderInventory(files)
		if !strings.Contains(result, "/data/a.img") {
			t.Error("Expected path in inventory output")
		}
		if !strings.Contains(result, "18.0 MiB") {
			t.Error("Expected human-readable size")
		}
	})

	t.Run("RenderInventory empty", func(t *testing.T) {
		result := renderer.RenderInventory(nil)
		if !strings.Contains(result, "Inventory is empty") {
			t.Error("Expected 'Inventory is empty' message")
		}
	})

	t.Run("RenderError", func(t *testing.T) {
		err := errors.New(errors.ErrMetaInvalid, "package name cannot be empty")
		result := renderer.RenderError(err)

		if !strings.Contains(result, "META_INVALID") {
			t.Error("Expected output to contain error code")
		}
		if !strings.Contains(result, "package name cannot be empty") {
			t.Error("Expected output to contain error message")
		}
	})

	t.Run("RenderError nil", func(t *testing.T) {
		result := renderer.RenderError(nil)
		if result != "" {
			t.Errorf("Expected empty string for nil error, got %q", result)
		}
	})

	t.Run("RenderProgress", func(t *testing.T) {
		result := renderer.RenderProgress(5, 10, "Converting...")
		if !strings.Contains(result, "5/10") {
			t.Error("Expected progress numbers")
		}
		if !strings.Contains(result, "Converting...") {
			t.Error("Expected message")
		}
		if !strings.Contains(result, "█") && !strings.Contains(result, "░") {
			t.Error("Expected progress bar characters")
		}
	})
}

func TestPlainRenderer(t *testing.T) {
	renderer := NewPlainRenderer()

	t.Run("RenderFormats", func(t *testing.T) {
		result := renderer.RenderFormats(testEntries())
		if !strings.Contains(result, "Image formats:") {
			t.Error("Expected header 'Image formats:'")
		}
		if !strings.Contains(result, "SMV") {
			t.Error("Expected 'SMV' in output")
		}
		if !strings.Contains(result, "level 3") {
			t.Error("Expected level in output")
		}
	})

	t.Run("RenderFormats empty", func(t *testing.T) {
		result := renderer.RenderFormats(nil)
		if result != "No formats registered" {
			t.Errorf("Expected 'No formats registered', got %q", result)
		}
	})

	t.Run("RenderOperations", func(t *testing.T) {
		result := renderer.RenderOperations(testResult())
		if !strings.Contains(result, "ready: create directory") {
			t.Error("Expected operation status and description in output")
		}
		if !strings.Contains(result, "1 done, 1 skipped, 0 failed") {
			t.Error("Expected summary in output")
		}
	})

	t.Run("RenderOperations dry run", func(t *testing.T) {
		r := testResult()
		r.DryRun = true
		result := renderer.RenderOperations(r)
		if !strings.Contains(result, "dry-run: 2 operations planned, 1 skipped") {
			t.Errorf("Expected dry-run summary, got %q", result)
		}
	})

	t.Run("RenderModeBanner", func(t *testing.T) {
		result := renderer.RenderModeBanner(install.ModeLegacy, install.SourceDefault)
		expected := "Install mode: legacy (default)"
		if result != expected {
			t.Errorf("Expected %q, got %q", expected, result)
		}
	})

	t.Run("RenderError", func(t *testing.T) {
		err := errors.New(errors.ErrInvalidInput, "something went wrong")
		result := renderer.RenderError(err)

		if !strings.Contains(result, "Error:") {
			t.Error("Expected 'Error:' prefix")
		}
		if !strings.Contains(result, "something went wrong") {
			t.Error("Expected error message")
		}
	})

	t.Run("RenderProgress", func(t *testing.T) {
		result := renderer.RenderProgress(5, 10, "Converting...")
		expected := "Progress: 5/10 - Converting..."
		if result != expected {
			t.Errorf("Expected %q, got %q", expected, result)
		}
	})
}

func TestMarkupRender(t *testing.T) {
	t.Run("tags replaced", func(t *testing.T) {
		out := Render("[format]SMV[/format] read by [bold]difftbx[/bold]")
		if !strings.Contains(out, "SMV") || !strings.Contains(out, "difftbx") {
			t.Errorf("markup content lost: %q", out)
		}
		if strings.Contains(out, "[format]") || strings.Contains(out, "[bold]") {
			t.Errorf("markup tags left in output: %q", out)
		}
	})

	t.Run("nested tags", func(t *testing.T) {
		out := Render("[subtitle]beam [bold]0.9795[/bold] A[/subtitle]")
		if !strings.Contains(out, "0.9795") {
			t.Errorf("nested content lost: %q", out)
		}
		if strings.Contains(out, "[/") {
			t.Errorf("markup tags left in output: %q", out)
		}
	})

	t.Run("unknown tags pass through", func(t *testing.T) {
		out := Render("[nope]text[/nope]")
		if out != "[nope]text[/nope]" {
			t.Errorf("unknown tag should be untouched, got %q", out)
		}
	})
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{18874368, "18.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := humanSize(tt.n); got != tt.want {
			t.Errorf("humanSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
