package karotz

import (
	"fmt"
	"strings"
)

// Summary returns a one-line summary of the state
func (s State) Summary() string {
	return fmt.Sprintf("Karotz %s, LED %s%s, ears %s (FW: %s)",
		s.Status, s.LEDColor, pulseSuffix(s.Pulsing), strings.ToLower(s.EarMode.String()), s.Version)
}

func pulseSuffix(pulsing bool) string {
	if pulsing {
		return " pulsing"
	}
	return ""
}

// FormatDeviceInfo returns the firmware and storage section
func (s State) FormatDeviceInfo() string {
	var b strings.Builder

	b.WriteString("=== Device Information ===\n")
	b.WriteString(fmt.Sprintf("Status:       %s\n", s.Status))
	b.WriteString(fmt.Sprintf("Version:      %s\n", s.Version))
	b.WriteString(fmt.Sprintf("WLAN MAC:     %s\n", s.WLANMAC))
	b.WriteString(fmt.Sprintf("Storage:      %s free (%s%% used)\n", s.FreeSpace, s.PercentUsed))
	b.WriteString(fmt.Sprintf("Moods:        %s\n", s.Moods))
	b.WriteString(fmt.Sprintf("Sounds:       %s\n", s.Sounds))
	b.WriteString(fmt.Sprintf("Tags:         %s\n", s.Tags))

	return b.String()
}

// FormatLED returns the LED section
func (s State) FormatLED() string {
	var b strings.Builder

	b.WriteString("=== LED ===\n")
	r, g, bl := s.LEDColor.RGB()
	b.WriteString(fmt.Sprintf("Color:        %s (R:%d G:%d B:%d)\n", s.LEDColor, r, g, bl))
	b.WriteString(fmt.Sprintf("Pulse:        %v\n", s.Pulsing))

	return b.String()
}

// FormatEars returns the ears section
func (s State) FormatEars() string {
	var b strings.Builder

	b.WriteString("=== Ears ===\n")
	b.WriteString(fmt.Sprintf("Mode:         %s\n", s.EarMode))
	b.WriteString(fmt.Sprintf("Left:         %s\n", s.LeftEar))
	b.WriteString(fmt.Sprintf("Right:        %s\n", s.RightEar))

	return b.String()
}

// FormatCompact returns a compact multi-line format suitable for terminal display
func (s State) FormatCompact() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Status:  %s (FW: %s)\n", s.Status, s.Version))
	b.WriteString(fmt.Sprintf("LED:     %s%s\n", s.LEDColor, pulseSuffix(s.Pulsing)))
	b.WriteString(fmt.Sprintf("Ears:    %s [L:%s R:%s]\n", s.EarMode, s.LeftEar, s.RightEar))
	b.WriteString(fmt.Sprintf("Storage: %s free (%s%% used)\n", s.FreeSpace, s.PercentUsed))

	return b.String()
}

// FormatDetailed returns every section with a banner
func (s State) FormatDetailed() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("╔════════════════════════════════════════════════════════════════╗\n")
	b.WriteString("║                        KAROTZ STATUS                           ║\n")
	b.WriteString("╚════════════════════════════════════════════════════════════════╝\n")
	b.WriteString("\n")

	b.WriteString(s.FormatDeviceInfo())
	b.WriteString("\n")
	b.WriteString(s.FormatLED())
	b.WriteString("\n")
	b.WriteString(s.FormatEars())

	return b.String()
}

// FormatDiff lists the fields that differ between two states
func FormatDiff(old, new State) string {
	var changes []string

	if old.Status != new.Status {
		changes = append(changes, fmt.Sprintf("  Status: %s → %s", old.Status, new.Status))
	}
	if old.LEDColor != new.LEDColor {
		changes = append(changes, fmt.Sprintf("  LED:    %s → %s", old.LEDColor, new.LEDColor))
	}
	if old.Pulsing != new.Pulsing {
		changes = append(changes, fmt.Sprintf("  Pulse:  %v → %v", old.Pulsing, new.Pulsing))
	}
	if old.EarMode != new.EarMode {
		changes = append(changes, fmt.Sprintf("  Ears:   %s → %s", old.EarMode, new.EarMode))
	}
	if old.LeftEar != new.LeftEar || old.RightEar != new.RightEar {
		changes = append(changes, fmt.Sprintf("  Ear positions: [%s %s] → [%s %s]", old.LeftEar, old.RightEar, new.LeftEar, new.RightEar))
	}

	if len(changes) == 0 {
		return "(no differences detected)"
	}
	return strings.Join(changes, "\n")
}
