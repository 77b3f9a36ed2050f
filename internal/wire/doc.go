// Package wire defines the realtime message envelope and the catalogue of
// known server event types.
//
// Every frame on the realtime connection, inbound or outbound, is a JSON
// envelope {type, payload, timestamp}. Payloads for known event types can be
// decoded into typed structs; unrecognized types pass through as KindUnknown
// so older clients tolerate newer servers.
package wire
