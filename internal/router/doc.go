// Package router implements the Subscription Router component.
//
// The router fans inbound envelopes out to dynamically registered
// subscribers by envelope type, with a reserved wildcard channel "all" that
// receives everything. Each subscriber is isolated: a panicking callback
// never prevents the remaining callbacks from running.
package router
