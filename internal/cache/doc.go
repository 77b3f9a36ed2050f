// Package cache implements the Cache & Mutation Layer.
//
// The store holds keyed snapshots of server resources with a staleness
// window. Reads go through Query, which serves fresh entries without a
// network call and degrades to the last known data when a refetch fails.
// Writes go through Mutate, which applies the new value optimistically and
// rolls back to the pre-mutation snapshot if the server rejects the commit.
// Entries are version-stamped so a rollback never clobbers a later write
// that already landed.
//
// Invalidation comes from three directions: local mutations, explicit
// prefix invalidation, and realtime push events bound via BindRouter.
package cache
