package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/channelpass/platform/internal/core/domain"
)

const tokenKeyPrefix = "mlt:"

// consumedRetention keeps consumed/expired records around after the token
// itself dies, so a double-clicked link still gets the honest AlreadyUsed /
// Expired answer instead of Unknown.
const consumedRetention = time.Hour

const (
	consumeOK          = 0
	consumeUnknown     = 1
	consumeAlreadyUsed = 2
	consumeExpired     = 3
)

// consumeScript performs the whole "exists, unconsumed, unexpired → mark
// consumed" decision server-side in one indivisible step; two concurrent
// redemptions of one value can never both see status 0.
var consumeScript = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then
  return {1, ""}
end
local tok = cjson.decode(raw)
if tok.consumed_at and tok.consumed_at > 0 then
  return {2, ""}
end
local now = tonumber(ARGV[1])
if now >= tok.expires_at then
  return {3, ""}
end
tok.consumed_at = now
local updated = cjson.encode(tok)
redis.call("SET", KEYS[1], updated, "KEEPTTL")
return {0, updated}
`)

// tokenRecord is the wire form kept in redis; unix seconds so the Lua side
// can compare without date parsing.
type tokenRecord struct {
	Kind        string `json:"kind"`
	PrincipalID string `json:"principal_id"`
	Redirect    string `json:"redirect"`
	IssuedAt    int64  `json:"issued_at"`
	ExpiresAt   int64  `json:"expires_at"`
	ConsumedAt  int64  `json:"consumed_at"`
}

// TokenStore is the redis-backed magic-link store.
type TokenStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewTokenStore wraps client; now defaults to time.Now.
func NewTokenStore(client *redis.Client, now func() time.Time) *TokenStore {
	if now == nil {
		now = time.Now
	}
	return &TokenStore{client: client, now: now}
}

func tokenKey(digest string) string { return tokenKeyPrefix + digest }

func (s *TokenStore) Save(ctx context.Context, token *domain.MagicLinkToken) error {
	record := tokenRecord{
		Kind:        string(token.Kind),
		PrincipalID: token.PrincipalID,
		Redirect:    token.Redirect,
		IssuedAt:    token.IssuedAt.Unix(),
		ExpiresAt:   token.ExpiresAt.Unix(),
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("token marshal: %w", err)
	}

	ttl := recordTTL(token.ExpiresAt, s.now())
	if err := s.client.Set(ctx, tokenKey(token.Digest), payload, ttl).Err(); err != nil {
		return fmt.Errorf("token save: %w", err)
	}
	return nil
}

// recordTTL keeps the record alive past the token's own expiry so a late
// redemption still gets the honest expired/used answer.
func recordTTL(expiresAt, now time.Time) time.Duration {
	return expiresAt.Sub(now) + consumedRetention
}

func (s *TokenStore) Consume(ctx context.Context, digest string) (*domain.MagicLinkToken, error) {
	res, err := consumeScript.Run(ctx, s.client, []string{tokenKey(digest)}, s.now().Unix()).Result()
	if err != nil {
		return nil, fmt.Errorf("token consume: %w", err)
	}

	reply, ok := res.([]interface{})
	if !ok || len(reply) != 2 {
		return nil, fmt.Errorf("token consume: unexpected reply %T", res)
	}
	status, _ := reply[0].(int64)

	switch status {
	case consumeOK:
		raw, _ := reply[1].(string)
		var record tokenRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("token decode: %w", err)
		}
		return record.toDomain(digest), nil
	case consumeUnknown:
		return nil, domain.ErrTokenUnknown
	case consumeAlreadyUsed:
		return nil, domain.ErrTokenAlreadyUsed
	case consumeExpired:
		return nil, domain.ErrTokenExpired
	}
	return nil, fmt.Errorf("token consume: unknown status %d", status)
}

func (r tokenRecord) toDomain(digest string) *domain.MagicLinkToken {
	token := &domain.MagicLinkToken{
		Digest:      digest,
		Kind:        domain.TokenKind(r.Kind),
		PrincipalID: r.PrincipalID,
		Redirect:    r.Redirect,
		IssuedAt:    time.Unix(r.IssuedAt, 0).UTC(),
		ExpiresAt:   time.Unix(r.ExpiresAt, 0).UTC(),
	}
	if r.ConsumedAt > 0 {
		at := time.Unix(r.ConsumedAt, 0).UTC()
		token.ConsumedAt = &at
	}
	return token
}
