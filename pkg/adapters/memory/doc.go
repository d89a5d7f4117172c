// Package memory provides an in-memory SchemaStore for tests and ephemeral servers.
package memory
