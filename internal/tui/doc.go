// Package tui implements the interactive rabbit dashboard.
//
// The dashboard is a single Bubble Tea screen showing the client's cached
// state: status, firmware, storage, LED color and pulse, ear mode and
// positions. Single-key bindings drive the device; every call runs as a
// tea.Cmd backed by karotz.Go and a spinner shows while it is in flight.
// Only one call runs at a time, keys pressed meanwhile are ignored.
//
//	w  wake up          s  sleep            u  refresh
//	l  next LED color   p  toggle pulse
//	e  toggle ear mode  r  random ears      0  reset ears
//	m  random mood      t  speak            x  stop sound
//	?  more keys        q  quit
//
// Usage:
//
//	client := karotz.NewClient("192.168.1.20", 80)
//	if err := tui.Run(ctx, client, "salon", "1"); err != nil {
//	    return err
//	}
//
// Failed calls leave the dashboard running and show the error together
// with karotz.GetTroubleshootingHint.
package tui
