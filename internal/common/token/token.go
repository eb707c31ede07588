package token

import "github.com/google/uuid"

//go:generate mockgen -package=mocks -destination=mocks/mock_token.go github.com/anakalachikova-cmd/sterladometr-bot/internal/common/token Source

// Source mints opaque identifiers for check-in sessions.
type Source interface {
	NewToken() string
}

// UUIDSource issues random v4 UUIDs.
type UUIDSource struct{}

// New returns the default token source.
func New() *UUIDSource {
	return &UUIDSource{}
}

// NewToken returns a fresh random identifier.
func (s *UUIDSource) NewToken() string {
	return uuid.NewString()
}
