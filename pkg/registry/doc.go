// Package registry maps component type tags to renderers, default props and
// prop contracts. It is safe for concurrent use; reads vastly outnumber writes,
// which normally happen once at startup.
package registry
