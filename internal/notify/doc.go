// Package notify turns pushed server events into system alerts.
//
// A Bridge subscribes to the user-facing event channels on a router and
// forwards each event to a Sink as exactly one Alert. Events whose
// payloads fail to decode still produce a generic alert so the user is
// never silently dropped. The bridge keeps a bounded buffer of recent
// alerts for UI surfaces that render a notification center.
package notify
