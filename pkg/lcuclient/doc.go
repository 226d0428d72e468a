// Package lcuclient is a client for the League Client local API (LCU).
//
// The desktop client runs an HTTPS server on 127.0.0.1 with a per-launch port
// and token. This package provides:
//   - Client: authenticated REST calls (Get, Post, Put, Delete) verified
//     against a single pinned trust anchor, never the system roots
//   - EventStream: one websocket carrying WAMP-style envelopes, fanned out to
//     listeners registered per topic URI
//
// Credentials come from a discovery.Discovery, so nothing in this package
// touches the process table.
//
// Example usage:
//
//	client, err := lcuclient.Connect(ctx, discovery.NewProcessDiscovery(), lcuclient.Config{})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	summoner, err := client.Get(ctx, "/lol-summoner/v1/current-summoner")
//
//	events, err := client.Events(ctx)
//	if err != nil {
//		return err
//	}
//	events.On("/lol-chat/v1/conversations/active", func(e lcuclient.Event) {
//		fmt.Println(e.EventType, string(e.Data))
//	})
//	<-events.Done()
//
// Event frames that fail to decode are dropped and reported on
// EventStream.Errors; they never end the stream. A lost connection ends the
// stream for good and is reported by EventStream.Err. There is no reconnect.
package lcuclient
