// Package redis provides a SchemaStore and a DistributedLocker backed by Redis,
// so several server replicas can share pages and serialize their edits.
package redis
