// Package ui renders karotzctl command output.
//
// Commands print through a Printer, which draws lipgloss boxes on a
// terminal and falls back to plain ✓/✗ lines when stdout is redirected:
//
//   - Header: command banner with the target device
//   - Result: success, failure (with troubleshooting tips) or warning box
//   - Table: device, voice and radio listings (tablewriter)
//
// Example:
//
//	p := ui.NewPrinter(nil)
//	p.Header("LED", "karotzctl led", ui.Param{Key: "Device", Value: "salon"})
//	if err != nil {
//	    p.Failure("Could not change the LED", err, nil)
//	    return err
//	}
//	p.Success("LED changed", ui.Param{Key: "Color", Value: "#FF0000"})
//
// Logging is controlled separately by KAROTZ_LOG_LEVEL or --log-level and
// is silent by default, so the curated output is not interleaved with logs.
package ui
