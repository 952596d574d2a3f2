// Package karotz provides an HTTP client for OpenKarotz rabbits.
//
// An OpenKarotz rabbit exposes a set of CGI endpoints under /cgi-bin/ on
// its local HTTP server. Every operation in this package is a single GET
// against one of them, followed by parsing of a loosely-structured JSON
// answer. The client keeps a cached State of the rabbit (sleep status, LED
// color and pulse, ear mode and positions, firmware and storage info) that
// is replaced by each status fetch and patched after successful commands.
//
// # Usage Example
//
//	client := karotz.NewClient("192.168.1.20", karotz.DefaultPort)
//
//	state, err := client.GetStatus(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := client.WakeUp(ctx, true); err != nil {
//	    log.Printf("wake up failed: %v", err)
//	}
//	_ = client.SetLED(ctx, karotz.RGB(0, 0, 255), true)
//
// # Success Sentinels
//
// Most endpoints answer {"return":"0"} on success and {"return":"1","msg":...}
// on failure. /tts answers {"return":true}. Each endpoint has its own
// response type so the two encodings never get mixed up.
//
// # Cache
//
// The State starts UNKNOWN. UNKNOWN means "no usable answer yet", not
// "offline". Accessors such as Status and EarMode refetch /status when
// the cache is UNKNOWN or older than Client.StaleAfter. WakeUp, Sleep and
// SetLED skip the request entirely when the cache already holds the target
// value.
//
// # Concurrency
//
// Client methods may be called from several goroutines. Cache updates are
// individually atomic and the last writer wins. Go and Future run an
// operation in the background and hand the result back to the caller.
//
// # Error Handling
//
// Failures are *DeviceError values: network (no response), parse (body is
// not the JSON we expected), HTTP, device (the rabbit answered but refused)
// and validation (rejected before any request). Callers that only care
// about success can test err != nil.
package karotz
