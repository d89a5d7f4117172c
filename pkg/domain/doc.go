/*
Package domain contains the core data shapes of the page-composition engine.

It defines the component tree, the page schema and the abstract visual tree
produced by rendering. The package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Node: One component instance (type, props, style, editable keys, children).
  - Schema: The ordered top-level nodes of a page plus metadata.
  - Patch: A partial, per-key update of a node's props and style.
  - Element / VisualTree: The renderer-independent output of a render pass.
  - SchemaDiff: The id-keyed difference between two schemas.
*/
package domain
