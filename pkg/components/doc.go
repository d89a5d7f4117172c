// Package components ships the built-in component set: renderers for the
// page sections a site starts with, the catalog seed that feeds the registry
// and palette, and the default template library.
package components
