package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestHeaderRender_ParamOrder(t *testing.T) {
	h := NewHeader("Karotz Status", "karotzctl status",
		Param{Key: "Device", Value: "salon"},
		Param{Key: "Address", Value: "192.168.1.20:80"},
	).SetWidth(80)

	out := h.Render()

	if !strings.Contains(out, "KAROTZ STATUS") {
		t.Errorf("title should be upper-cased:\n%s", out)
	}
	if strings.Index(out, "Device:") > strings.Index(out, "Address:") {
		t.Errorf("params should keep their order:\n%s", out)
	}
}

func TestResultRender(t *testing.T) {
	success := NewSuccessResult("LED changed", Param{Key: "Color", Value: "#FF0000"}).SetWidth(80).Render()
	if !strings.Contains(success, "SUCCESS") || !strings.Contains(success, "#FF0000") {
		t.Errorf("unexpected success box:\n%s", success)
	}

	failure := NewFailureResult("Could not reach rabbit", errors.New("connection refused"), []string{"Check the host"}).
		SetWidth(80).Render()
	for _, want := range []string{"FAILED", "connection refused", "Troubleshooting:", "Check the host"} {
		if !strings.Contains(failure, want) {
			t.Errorf("failure box missing %q:\n%s", want, failure)
		}
	}

	warning := NewWarningResult("No devices found").AddDetail("Timeout", "5s").SetWidth(80).Render()
	if !strings.Contains(warning, "WARNING") || !strings.Contains(warning, "5s") {
		t.Errorf("unexpected warning box:\n%s", warning)
	}
}

func TestPrinter_Plain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	if !p.Plain {
		t.Fatal("printer on a buffer should be plain")
	}

	p.Header("Status", "karotzctl status")
	p.Success("Rabbit is awake", Param{Key: "LED", Value: "#00FF00"})
	p.Failure("Sleep failed", errors.New("device reported failure"), []string{"Try again"})

	want := "✓ Rabbit is awake\n  LED: #00FF00\n✗ Sleep failed: device reported failure\n  Try again\n"
	if buf.String() != want {
		t.Errorf("plain output = %q, want %q", buf.String(), want)
	}
}

func TestPrinter_Table(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Table([]string{"ID", "Name"}, [][]string{{"1", "Alice"}, {"2", "Bruno"}})

	out := buf.String()
	for _, want := range []string{"ID", "NAME", "Alice", "Bruno"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"y", true},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got := Confirm(strings.NewReader(tt.input), &out, "Remove salon?")
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "[y/N]") {
			t.Errorf("prompt missing: %q", out.String())
		}
	}
}
