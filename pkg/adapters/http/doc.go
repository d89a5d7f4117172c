// Package http serves editing sessions, rendering and live page updates over
// HTTP using chi. The routes are described by the embedded openapi.yaml,
// which is validated when the server is built.
package http
