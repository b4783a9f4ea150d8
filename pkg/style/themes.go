package style

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors are AdaptiveColor pairs so output stays readable on both light
// and dark terminals.
var (
	HeadingColor = lipgloss.AdaptiveColor{
		Light: "#1F2430",
		Dark:  "#ECEFF4",
	}

	MutedColor = lipgloss.AdaptiveColor{
		Light: "#7A7F87",
		Dark:  "#9AA0A8",
	}

	PathColor = lipgloss.AdaptiveColor{
		Light: "#6D6AB8",
		Dark:  "#9D9BE8",
	}

	SuccessColor = lipgloss.AdaptiveColor{
		Light: "#2E9E44",
		Dark:  "#58D68A",
	}

	ErrorColor = lipgloss.AdaptiveColor{
		Light: "#C43A4B",
		Dark:  "#FF7585",
	}

	WarningColor = lipgloss.AdaptiveColor{
		Light: "#C78A00",
		Dark:  "#FFC94D",
	}

	InfoColor = lipgloss.AdaptiveColor{
		Light: "#0E7490",
		Dark:  "#53C2D6",
	}
)

// One accent color per subsystem, used in tables and markup tags
var (
	FormatColor = lipgloss.AdaptiveColor{
		Light: "#0B7BB8",
		Dark:  "#41A8E0",
	}

	ModelColor = lipgloss.AdaptiveColor{
		Light: "#7C4DBE",
		Dark:  "#B08BE8",
	}

	ConvertColor = lipgloss.AdaptiveColor{
		Light: "#C25E0A",
		Dark:  "#F0924A",
	}

	InventoryColor = lipgloss.AdaptiveColor{
		Light: "#0F8A6A",
		Dark:  "#3FC9A0",
	}
)
