// Package connection implements the Connection Manager component.
//
// The Connection Manager:
//   - Maintains at most one WebSocket connection per Manager instance
//   - Authenticates with the stored session token as a query credential
//   - Reconnects with capped exponential backoff (5 attempts, 30s ceiling)
//   - Decodes inbound frames into envelopes for the Subscription Router
package connection
