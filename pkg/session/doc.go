/*
Package session manages the open editing sessions of a deployment.

It serializes intents per page with reference-counted local locks, optionally
backed by a distributed lock so several replicas can share one store, and it
orchestrates loading, creating and saving pages through the configured
SchemaStore. Persistence failures are returned to the caller while the
in-memory session and its history stay untouched.
*/
package session
