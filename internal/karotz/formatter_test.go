package karotz

import (
	"strings"
	"testing"
)

func sampleState() State {
	s := NewState()
	s.Status = StatusAwake
	s.LEDColor = 0x0000FF
	s.Version = Version{Major: "210", Patch: "310"}
	s.FreeSpace = "147.3M"
	s.PercentUsed = "37"
	s.WLANMAC = "01:23:45:67:89:AB"
	return s
}

func TestSummary(t *testing.T) {
	got := sampleState().Summary()
	want := "Karotz AWAKE, LED #0000FF pulsing, ears enabled (FW: 210 (patch 310))"
	if got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestFormatDetailed(t *testing.T) {
	out := sampleState().FormatDetailed()

	for _, want := range []string{"KAROTZ STATUS", "=== Device Information ===", "=== LED ===", "=== Ears ===", "R:0 G:0 B:255", "147.3M free (37% used)"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatDetailed() missing %q", want)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	out := sampleState().FormatCompact()

	if !strings.Contains(out, "LED:     #0000FF pulsing") {
		t.Errorf("unexpected compact output:\n%s", out)
	}
	if !strings.Contains(out, "[L:0 R:0]") {
		t.Errorf("missing ear positions:\n%s", out)
	}
}

func TestFormatDiff(t *testing.T) {
	old := sampleState()

	if got := FormatDiff(old, old); got != "(no differences detected)" {
		t.Errorf("FormatDiff(same) = %q", got)
	}

	changed := old
	changed.Status = StatusSleeping
	changed.LEDColor = 0x000000
	changed.LeftEar = 4

	got := FormatDiff(old, changed)
	for _, want := range []string{"AWAKE → SLEEPING", "#0000FF → #000000", "[0 0] → [4 0]"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatDiff() missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Pulse") {
		t.Errorf("unchanged pulse should not be listed:\n%s", got)
	}
}
