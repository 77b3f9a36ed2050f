// Package storage implements the local persistent key-value store.
//
// The store is synchronous and file-backed, one file per key, with atomic
// replace-on-write. It serves two roles: it holds the auth token the
// connection layer reads, and it is the cache layer's last-resort copy of
// server resources when the process starts offline.
package storage
