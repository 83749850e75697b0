// Package theme defines the terminal UI color palettes and persists the
// user's light/dark choice between runs.
package theme

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
)

// Mode selects one of the two palettes.
type Mode string

const (
	ModeLight Mode = "light"
	ModeDark  Mode = "dark"
)

// Theme bundles the styles the chat view renders with.
type Theme struct {
	Mode Mode

	UserLabel  lipgloss.Style
	BotLabel   lipgloss.Style
	UserBubble lipgloss.Style
	BotBubble  lipgloss.Style
	Strong     lipgloss.Style
	Emph       lipgloss.Style
	ListMarker lipgloss.Style
	Faint      lipgloss.Style
	Counter    lipgloss.Style
	CounterBad lipgloss.Style
	ToastInfo  lipgloss.Style
	ToastError lipgloss.Style
	Border     lipgloss.Style
}

func dark() Theme {
	return Theme{
		Mode:       ModeDark,
		UserLabel:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		BotLabel:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		UserBubble: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		BotBubble:  lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		Strong:     lipgloss.NewStyle().Bold(true),
		Emph:       lipgloss.NewStyle().Italic(true),
		ListMarker: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Faint:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Counter:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		CounterBad: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		ToastInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("42")).Padding(0, 1),
		ToastError: lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("196")).Padding(0, 1),
		Border:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")),
	}
}

func light() Theme {
	return Theme{
		Mode:       ModeLight,
		UserLabel:  lipgloss.NewStyle().Foreground(lipgloss.Color("27")).Bold(true),
		BotLabel:   lipgloss.NewStyle().Foreground(lipgloss.Color("28")).Bold(true),
		UserBubble: lipgloss.NewStyle().Foreground(lipgloss.Color("235")),
		BotBubble:  lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
		Strong:     lipgloss.NewStyle().Bold(true),
		Emph:       lipgloss.NewStyle().Italic(true),
		ListMarker: lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
		Faint:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Counter:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		CounterBad: lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true),
		ToastInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("28")).Padding(0, 1),
		ToastError: lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("160")).Padding(0, 1),
		Border:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("250")),
	}
}

// ForMode returns the palette for mode, defaulting to dark for anything
// unrecognized.
func ForMode(mode Mode) Theme {
	if mode == ModeLight {
		return light()
	}
	return dark()
}

// Toggle flips between the two palettes.
func (t Theme) Toggle() Theme {
	if t.Mode == ModeDark {
		return light()
	}
	return dark()
}

type preference struct {
	Mode Mode `json:"mode"`
}

// preferenceFileEnv overrides where the theme choice is stored.
const preferenceFileEnv = "MEDCHAT_THEME_FILE"

func preferencePath() (string, error) {
	if path := os.Getenv(preferenceFileEnv); path != "" {
		return path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "medchat", "theme.json"), nil
}

// Load returns the persisted theme, or the dark default when no
// preference has been saved yet.
func Load() Theme {
	path, err := preferencePath()
	if err != nil {
		return dark()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return dark()
	}
	var pref preference
	if err := json.Unmarshal(raw, &pref); err != nil {
		return dark()
	}
	return ForMode(pref.Mode)
}

// Save persists the theme choice for the next run.
func Save(t Theme) error {
	path, err := preferencePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	raw, err := json.Marshal(preference{Mode: t.Mode})
	if err != nil {
		return fmt.Errorf("encode preference: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write preference: %w", err)
	}
	return nil
}
