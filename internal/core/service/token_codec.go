package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"time"

	"github.com/channelpass/platform/internal/core/domain"
	"github.com/channelpass/platform/internal/core/ports"
)

// tokenBytes is the entropy of the opaque value; 32 bytes encode to 43
// URL-safe characters.
const tokenBytes = 32

// TokenCodec issues and redeems magic-link tokens. The opaque value never
// touches storage: records are keyed by its SHA-256 digest, so a leaked
// store dump cannot be replayed as links.
type TokenCodec struct {
	store ports.TokenStore
	tiers domain.TokenTiers
	now   func() time.Time
}

// NewTokenCodec builds a codec over the given store and tier table. A nil
// tier table falls back to the defaults; now defaults to time.Now.
func NewTokenCodec(store ports.TokenStore, tiers domain.TokenTiers, now func() time.Time) *TokenCodec {
	if tiers == nil {
		tiers = domain.DefaultTokenTiers()
	}
	if now == nil {
		now = time.Now
	}
	return &TokenCodec{store: store, tiers: tiers, now: now}
}

// Issue mints a single-use token of the given kind for the principal and
// persists it under the kind's configured tier.
func (c *TokenCodec) Issue(ctx context.Context, kind domain.TokenKind, principalID, redirect string) (string, *domain.MagicLinkToken, error) {
	ttl, ok := c.tiers.TTL(kind)
	if !ok {
		return "", nil, domain.ErrTokenMalformed
	}

	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, err
	}
	value := base64.RawURLEncoding.EncodeToString(buf)

	issuedAt := c.now().UTC()
	token := &domain.MagicLinkToken{
		Digest:      Digest(value),
		Kind:        kind,
		PrincipalID: principalID,
		Redirect:    redirect,
		IssuedAt:    issuedAt,
		ExpiresAt:   issuedAt.Add(ttl),
	}

	if err := c.store.Save(ctx, token); err != nil {
		return "", nil, err
	}
	return value, token, nil
}

// Redeem atomically consumes the token behind value. Structural garbage is
// rejected as malformed before touching the store; everything else is
// decided by the store's indivisible check-and-consume.
func (c *TokenCodec) Redeem(ctx context.Context, value string) (*domain.MagicLinkToken, error) {
	if !wellFormed(value) {
		return nil, domain.ErrTokenMalformed
	}
	return c.store.Consume(ctx, Digest(value))
}

// Digest returns the hex SHA-256 of a token value, the key tokens are
// stored under.
func Digest(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func wellFormed(value string) bool {
	if value == "" {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return false
	}
	return len(raw) == tokenBytes
}
