package karotz

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"

	"github.com/wulfaz/karotzctl/internal/urls"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (no response at all)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates the request deadline passed
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates nothing is listening on the device port
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates the device hostname could not be resolved
	ErrTypeDNS
	// ErrTypeHTTP indicates a non-200 status from the CGI server
	ErrTypeHTTP
	// ErrTypeParse indicates a body that is not the JSON we expected
	ErrTypeParse
	// ErrTypeDevice indicates the device answered but refused the action
	ErrTypeDevice
	// ErrTypeValidation indicates an argument rejected before any request
	ErrTypeValidation
)

// NetworkErrorSubtype provides more specific network error classification
type NetworkErrorSubtype int

const (
	NetworkErrorGeneral NetworkErrorSubtype = iota
	NetworkErrorTimeout
	NetworkErrorConnectionRefused
	NetworkErrorDNS
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeDevice:
		return "Device Error"
	case ErrTypeValidation:
		return "Validation Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Kind returns a short machine-friendly name for the error type
func (et ErrorType) Kind() string {
	switch et {
	case ErrTypeNetwork:
		return "network"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeConnectionRefused:
		return "connection_refused"
	case ErrTypeDNS:
		return "dns"
	case ErrTypeHTTP:
		return "http"
	case ErrTypeParse:
		return "parse"
	case ErrTypeDevice:
		return "device"
	case ErrTypeValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// DeviceError represents an error that occurred during device communication.
// Callers that only need success/failure can treat any non-nil error alike.
type DeviceError struct {
	Type           ErrorType           // Category of error
	Message        string              // Human-readable error message
	Endpoint       string              // CGI endpoint involved (if any)
	StatusCode     int                 // HTTP status code (if applicable)
	Err            error               // Underlying error (if any)
	NetworkSubtype NetworkErrorSubtype // More specific network error type
	Host           string              // Device host (for context)
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes an error and returns a more specific error type
func ClassifyNetworkError(err error, host string) *DeviceError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) || errors.Is(err, os.ErrDeadlineExceeded) {
		return &DeviceError{
			Type:           ErrTypeTimeout,
			Message:        "Request timed out",
			Err:            err,
			NetworkSubtype: NetworkErrorTimeout,
			Host:           host,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &DeviceError{
			Type:           ErrTypeDNS,
			Message:        fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:            err,
			NetworkSubtype: NetworkErrorDNS,
			Host:           host,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &DeviceError{
				Type:           ErrTypeConnectionRefused,
				Message:        "Device refused connection",
				Err:            err,
				NetworkSubtype: NetworkErrorConnectionRefused,
				Host:           host,
			}
		}
		if errors.Is(opErr.Err, syscall.EHOSTUNREACH) {
			return &DeviceError{
				Type:           ErrTypeNetwork,
				Message:        "Host unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorHostUnreachable,
				Host:           host,
			}
		}
		if errors.Is(opErr.Err, syscall.ENETUNREACH) {
			return &DeviceError{
				Type:           ErrTypeNetwork,
				Message:        "Network unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorNetworkUnreachable,
				Host:           host,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		return ClassifyNetworkError(urlErr.Err, host)
	}

	return &DeviceError{
		Type:           ErrTypeNetwork,
		Message:        "Network error occurred",
		Err:            err,
		NetworkSubtype: NetworkErrorGeneral,
		Host:           host,
	}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error) *DeviceError {
	classified := ClassifyNetworkError(err, "")
	if classified != nil {
		classified.Message = message
		return classified
	}
	return &DeviceError{
		Type:    ErrTypeNetwork,
		Message: message,
		Err:     err,
	}
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(statusCode int, message string) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *DeviceError {
	return &DeviceError{
		Type:    ErrTypeParse,
		Message: message,
		Err:     err,
	}
}

// NewDeviceFailure creates an error for a response whose return sentinel
// signals failure. msg is the device's own explanation, possibly empty.
func NewDeviceFailure(endpoint, msg string) *DeviceError {
	if msg == "" {
		msg = "device reported failure"
	}
	return &DeviceError{
		Type:     ErrTypeDevice,
		Message:  msg,
		Endpoint: endpoint,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *DeviceError {
	return &DeviceError{
		Type:    ErrTypeValidation,
		Message: message,
	}
}

func asDeviceError(err error) (*DeviceError, bool) {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr, true
	}
	return nil, false
}

// IsNetworkError checks if an error is a network error (including timeout, connection refused, DNS, etc.)
func IsNetworkError(err error) bool {
	if devErr, ok := asDeviceError(err); ok {
		return devErr.Type == ErrTypeNetwork ||
			devErr.Type == ErrTypeTimeout ||
			devErr.Type == ErrTypeConnectionRefused ||
			devErr.Type == ErrTypeDNS
	}
	return false
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	if devErr, ok := asDeviceError(err); ok {
		return devErr.Type == ErrTypeHTTP
	}
	return false
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	if devErr, ok := asDeviceError(err); ok {
		return devErr.Type == ErrTypeParse
	}
	return false
}

// IsDeviceError checks if the device answered and refused the action
func IsDeviceError(err error) bool {
	if devErr, ok := asDeviceError(err); ok {
		return devErr.Type == ErrTypeDevice
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	if devErr, ok := asDeviceError(err); ok {
		return devErr.Type == ErrTypeValidation
	}
	return false
}

// ErrorKind returns the short kind name of err, or "unknown"
func ErrorKind(err error) string {
	if devErr, ok := asDeviceError(err); ok {
		return devErr.Type.Kind()
	}
	return "unknown"
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	devErr, ok := asDeviceError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch devErr.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The rabbit did not respond in time.",
			"Troubleshooting:",
			"  • Check that the Karotz is plugged in and its LED is lit",
			"  • Verify the rabbit joined your WiFi network",
			"  • Try a longer --timeout",
		}, "\n")

	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"The rabbit refused the connection.",
			"Troubleshooting:",
			"  • Make sure OpenKarotz is installed and running",
			"  • The CGI server may still be booting - wait a minute and retry",
			"  • Verify the port number (default is 80)",
		}, "\n")

	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the rabbit's hostname.",
			"Troubleshooting:",
			"  • Use the IP address instead of hostname",
			"  • Try 'karotzctl scan' to find the rabbit on the network",
		}, "\n")

	case ErrTypeNetwork:
		hint := []string{"Network communication failed."}

		switch devErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			hint = append(hint, "The rabbit is not reachable on the network.",
				"Troubleshooting:",
				"  • Verify the IP address is correct",
				"  • Check that you're on the same network as the rabbit",
				"  • Try pinging the rabbit: ping "+devErr.Host)

		case NetworkErrorNetworkUnreachable:
			hint = append(hint, "Your computer cannot reach the rabbit's network.",
				"Troubleshooting:",
				"  • Check your network adapter settings",
				"  • Verify WiFi is enabled on your computer")

		default:
			hint = append(hint, "Troubleshooting:",
				"  • Check your network connection",
				"  • Verify the rabbit is powered on")
		}

		return strings.Join(hint, "\n")

	case ErrTypeHTTP:
		return fmt.Sprintf("The rabbit's web server returned HTTP %d. Is OpenKarotz installed?\nSee %s", devErr.StatusCode, urls.OpenKarotzProject)

	case ErrTypeParse:
		return strings.Join([]string{
			"Failed to parse the rabbit's response.",
			"This may indicate an OpenKarotz version this tool does not know.",
			"Run with --log-level debug to see the raw response.",
		}, "\n")

	case ErrTypeDevice:
		return strings.Join([]string{
			"The rabbit refused the action: " + devErr.Message,
			"Troubleshooting:",
			"  • Wake the rabbit up first: karotzctl wakeup",
			"  • Ear commands need ears enabled: karotzctl ears mode enabled",
		}, "\n")

	case ErrTypeValidation:
		return "The arguments are invalid. Check the error message for details."

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	devErr, ok := asDeviceError(err)
	if !ok {
		return err.Error()
	}

	switch devErr.Type {
	case ErrTypeTimeout:
		return "Rabbit not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Rabbit refused connection"
	case ErrTypeDNS:
		return "Cannot resolve rabbit hostname"
	case ErrTypeNetwork:
		switch devErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			return "Rabbit unreachable - check network connection"
		case NetworkErrorNetworkUnreachable:
			return "Network unreachable - check WiFi connection"
		default:
			return "Network error - check connection"
		}
	case ErrTypeHTTP:
		return fmt.Sprintf("Rabbit error (HTTP %d)", devErr.StatusCode)
	case ErrTypeParse:
		return "Failed to parse rabbit response"
	default:
		return devErr.Message
	}
}
