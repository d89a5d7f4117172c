// Package mcp exposes page editing as Model Context Protocol tools, so an
// agent can open a page, insert and patch components, undo, save and render.
//
// Every editing tool returns the page's observable state. Page references
// containing "/" are passed verbatim to tools; in resource URIs they are
// escaped as %2F.
package mcp
