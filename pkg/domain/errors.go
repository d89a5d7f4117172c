package domain

import "errors"

// ErrPageNotFound is returned when a page reference cannot be found in the store.
var ErrPageNotFound = errors.New("page not found")

// ErrPageExists is returned when creating a page whose reference is already taken.
var ErrPageExists = errors.New("page already exists")

// ErrTemplateNotFound is returned when a template id is unknown to the template source.
var ErrTemplateNotFound = errors.New("template not found")

// ErrSessionNotOpen is returned when an intent targets a page with no editing session.
var ErrSessionNotOpen = errors.New("editing session not open")

// ErrUnknownComponent is returned when inserting a type the registry does not know.
var ErrUnknownComponent = errors.New("unknown component type")
