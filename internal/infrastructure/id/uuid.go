// Package id hands out record identifiers.
package id

import "github.com/google/uuid"

type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator { return UUIDGenerator{} }

// NewID returns a time-ordered UUIDv7, falling back to a random v4.
func (UUIDGenerator) NewID() string {
	if v, err := uuid.NewV7(); err == nil {
		return v.String()
	}
	return uuid.NewString()
}
