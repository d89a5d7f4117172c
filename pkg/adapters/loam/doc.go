// Package loam reads page templates from a Loam document repository
// (Markdown with frontmatter, JSON or YAML files) and watches it for changes.
package loam
