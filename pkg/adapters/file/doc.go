// Package file provides a SchemaStore that keeps one JSON file per page.
package file
