// Package model defines the CRM record types shared across the sync core.
//
// Conventions:
//   - IDs: uuid.UUID, assigned by the server
//   - Timestamps: time.Time, RFC 3339 on the wire
//   - Cache keys: "<resource>:<id>" for single records, "<resource>s:" as the
//     list prefix, so prefix invalidation covers both
package model
