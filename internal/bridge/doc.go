// Package bridge exposes a rabbit to other programs on the network.
//
// The bridge owns one karotz.Client and serves it two ways:
//
//   - a small REST API under /api (one route per device operation, JSON in
//     and out)
//   - a WebSocket at /ws that pushes the cached state to every session on
//     connect, after every command and on each poll tick, and accepts the
//     same commands as {"id":"1","op":"leds","args":{"color":"FF0000"}}
//
// Every reply carries the cached state after the operation. Failures are
// reported as {"ok":false,"error":"...","kind":"device"} with HTTP 400 for
// invalid arguments and 502 when the rabbit failed or could not be reached.
//
// # Usage Example
//
//	client := karotz.NewClient("192.168.1.20", karotz.DefaultPort)
//	srv := bridge.New(client, bridge.Config{Listen: ":8080", PollInterval: 30 * time.Second})
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package bridge
