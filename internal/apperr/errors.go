// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")

	// ErrAccessDenied is returned by the tenant guard when an entity fetched
	// by bare id belongs to another tenant.
	ErrAccessDenied = errors.New("access denied")

	// ErrMissingTenant means an operation ran without an established tenant
	// identity. It always points at a defect in the calling boundary.
	ErrMissingTenant = errors.New("missing tenant context")
)
