package karotz

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/wulfaz/karotzctl/internal/urls"
)

func TestClassifyNetworkError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantType    ErrorType
		wantSubtype NetworkErrorSubtype
	}{
		{
			name:        "timeout",
			err:         os.ErrDeadlineExceeded,
			wantType:    ErrTypeTimeout,
			wantSubtype: NetworkErrorTimeout,
		},
		{
			name:        "dns",
			err:         &net.DNSError{Name: "karotz.local", Err: "no such host"},
			wantType:    ErrTypeDNS,
			wantSubtype: NetworkErrorDNS,
		},
		{
			name:        "connection refused",
			err:         &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED},
			wantType:    ErrTypeConnectionRefused,
			wantSubtype: NetworkErrorConnectionRefused,
		},
		{
			name:        "host unreachable",
			err:         &net.OpError{Op: "dial", Err: syscall.EHOSTUNREACH},
			wantType:    ErrTypeNetwork,
			wantSubtype: NetworkErrorHostUnreachable,
		},
		{
			name:        "generic",
			err:         context.Canceled,
			wantType:    ErrTypeNetwork,
			wantSubtype: NetworkErrorGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyNetworkError(tt.err, "192.168.1.20")
			if got.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", got.Type, tt.wantType)
			}
			if got.NetworkSubtype != tt.wantSubtype {
				t.Errorf("NetworkSubtype = %v, want %v", got.NetworkSubtype, tt.wantSubtype)
			}
			if got.Host != "192.168.1.20" {
				t.Errorf("Host = %q", got.Host)
			}
			if !IsNetworkError(got) {
				t.Errorf("IsNetworkError() = false for %v", got)
			}
		})
	}

	if ClassifyNetworkError(nil, "") != nil {
		t.Error("ClassifyNetworkError(nil) should be nil")
	}
}

func TestErrorPredicates_Wrapped(t *testing.T) {
	base := NewDeviceFailure("leds", "")
	wrapped := fmt.Errorf("set led: %w", base)

	if !IsDeviceError(wrapped) {
		t.Error("IsDeviceError should see through wrapping")
	}
	if IsNetworkError(wrapped) || IsParseError(wrapped) || IsValidationError(wrapped) || IsHTTPError(wrapped) {
		t.Error("only IsDeviceError should match")
	}
	if base.Message != "device reported failure" {
		t.Errorf("default message = %q", base.Message)
	}
	if ErrorKind(wrapped) != "device" {
		t.Errorf("ErrorKind = %q", ErrorKind(wrapped))
	}
	if ErrorKind(errors.New("plain")) != "unknown" {
		t.Error("plain errors have unknown kind")
	}
}

func TestDeviceError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewParseError("bad body", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if !strings.Contains(err.Error(), "caused by: boom") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestGetShortErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&DeviceError{Type: ErrTypeTimeout}, "Rabbit not responding (timeout)"},
		{&DeviceError{Type: ErrTypeConnectionRefused}, "Rabbit refused connection"},
		{NewHTTPError(404, "not found"), "Rabbit error (HTTP 404)"},
		{NewParseError("x", nil), "Failed to parse rabbit response"},
		{NewDeviceFailure("ears", "Unable to perform action, ears disabled."), "Unable to perform action, ears disabled."},
		{errors.New("plain"), "plain"},
	}

	for _, tt := range tests {
		if got := GetShortErrorMessage(tt.err); got != tt.want {
			t.Errorf("GetShortErrorMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestGetTroubleshootingHint(t *testing.T) {
	hint := GetTroubleshootingHint(NewDeviceFailure("ears_random", "rabbit is sleeping"))
	if !strings.Contains(hint, "karotzctl wakeup") {
		t.Errorf("device hint should suggest waking up: %q", hint)
	}

	hint = GetTroubleshootingHint(&DeviceError{Type: ErrTypeNetwork, NetworkSubtype: NetworkErrorHostUnreachable, Host: "10.0.0.9"})
	if !strings.Contains(hint, "ping 10.0.0.9") {
		t.Errorf("unreachable hint should mention the host: %q", hint)
	}

	hint = GetTroubleshootingHint(NewHTTPError(404, "not found"))
	if !strings.Contains(hint, urls.OpenKarotzProject) {
		t.Errorf("HTTP hint should point at the firmware project: %q", hint)
	}

	if GetTroubleshootingHint(errors.New("x")) == "" {
		t.Error("hint should never be empty")
	}
}
