// Package api is the HTTP client for the CRM resource API.
//
// It covers the standard collections (contacts, leads, opportunities,
// tasks) with create/read/update/delete calls plus lead conversion. The
// cache layer wraps these calls as its fetch and commit functions; nothing
// here knows about caching or realtime.
package api
