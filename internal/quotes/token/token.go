// Package token issues and resolves the bearer tokens that give a client
// access to one quote without an account.
package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"agency_backend/internal/quotes/domain"
	"agency_backend/platform/logger"
)

const (
	// byteLength gives 256 bits of entropy.
	byteLength = 32
	// Length is the length of an encoded token.
	Length = byteLength * 2

	maxIssueAttempts = 3
)

// Store answers the two questions the manager asks of persistence.
type Store interface {
	// QuoteIDByToken returns the id of the quote holding token, or a NotFound error.
	QuoteIDByToken(ctx context.Context, token string) (string, error)
	// TokenUsed reports whether token is held by a quote or was retired.
	TokenUsed(ctx context.Context, token string) (bool, error)
}

// Manager issues and resolves client access tokens.
type Manager struct {
	store  Store
	random io.Reader
	log    *logger.Logger
}

// NewManager creates a manager drawing randomness from crypto/rand.
func NewManager(store Store, log *logger.Logger) *Manager {
	return &Manager{store: store, random: rand.Reader, log: log}
}

// Issue returns a fresh token for quoteID. The token is a pure lookup key:
// random bytes, hex encoded, with nothing derived from the quote. A value
// already held or retired is never handed out again.
func (m *Manager) Issue(ctx context.Context, quoteID string) (string, error) {
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		tok, err := m.generate()
		if err != nil {
			return "", err
		}
		used, err := m.store.TokenUsed(ctx, tok)
		if err != nil {
			return "", fmt.Errorf("check token uniqueness: %w", err)
		}
		if !used {
			m.log.Debug("quote token issued", "quote_id", quoteID, "token", logger.RedactToken(tok))
			return tok, nil
		}
	}
	return "", errors.New("could not issue a unique quote token")
}

// Resolve maps a token to its quote id. Malformed and unknown tokens both
// return the uniform quote NotFound error.
func (m *Manager) Resolve(ctx context.Context, tok string) (string, error) {
	if !WellFormed(tok) {
		return "", domain.ErrQuoteNotFound()
	}
	id, err := m.store.QuoteIDByToken(ctx, tok)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (m *Manager) generate() (string, error) {
	b := make([]byte, byteLength)
	if _, err := io.ReadFull(m.random, b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// WellFormed reports whether s has the shape of an issued token.
func WellFormed(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
