/*
Package ports defines the driven ports (interfaces) of the Tessera engine.

These interfaces decouple the pure editing core from persistence and catalog
sources, so the same sessions run over memory, files, Redis or SQL databases.

# Key Interfaces

  - SchemaStore: persists page schemas keyed by an opaque page reference.
  - TemplateSource: lists and fetches the templates new pages start from.
  - Watchable: notifies when a template source changes on disk.
  - DistributedLocker: serializes editing of one page across replicas.
*/
package ports
