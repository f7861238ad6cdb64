package service

import (
	"context"
	"sync"
	"time"

	"github.com/channelpass/platform/internal/core/domain"
)

// memTokenStore is the in-memory TokenStore used across the service tests.
// Consume holds one lock for the whole check-and-mark, mirroring the
// atomicity the redis store gets from its Lua script.
type memTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*domain.MagicLinkToken
	now    func() time.Time
}

func newMemTokenStore(now func() time.Time) *memTokenStore {
	if now == nil {
		now = time.Now
	}
	return &memTokenStore{tokens: make(map[string]*domain.MagicLinkToken), now: now}
}

func (s *memTokenStore) Save(_ context.Context, token *domain.MagicLinkToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *token
	s.tokens[token.Digest] = &clone
	return nil
}

func (s *memTokenStore) Consume(_ context.Context, digest string) (*domain.MagicLinkToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[digest]
	if !ok {
		return nil, domain.ErrTokenUnknown
	}
	if token.Consumed() {
		return nil, domain.ErrTokenAlreadyUsed
	}
	now := s.now()
	if token.ExpiredAt(now) {
		return nil, domain.ErrTokenExpired
	}

	at := now
	token.ConsumedAt = &at
	clone := *token
	return &clone, nil
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]*domain.Session)}
}

func (s *memSessionStore) Create(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *session
	s.sessions[session.ID] = &clone
	return nil
}

func (s *memSessionStore) Find(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNoSession
	}
	clone := *session
	return &clone, nil
}

func (s *memSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *memSessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

type stubPrincipalRepo struct {
	mu         sync.Mutex
	principals map[string]*domain.Principal
}

func newStubPrincipalRepo(principals ...*domain.Principal) *stubPrincipalRepo {
	repo := &stubPrincipalRepo{principals: make(map[string]*domain.Principal)}
	for _, p := range principals {
		repo.principals[p.ID] = p
	}
	return repo
}

func (r *stubPrincipalRepo) FindByID(_ context.Context, id string) (*domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.principals[id]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubPrincipalRepo) FindByEmail(_ context.Context, email string) (*domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.principals {
		if p.Email == email {
			clone := *p
			return &clone, nil
		}
	}
	return nil, domain.ErrPrincipalNotFound
}

func (r *stubPrincipalRepo) Create(_ context.Context, p *domain.Principal) (*domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.principals[p.ID]; exists {
		return nil, domain.ErrPrincipalExists
	}
	clone := *p
	r.principals[p.ID] = &clone
	return p, nil
}

type stubMerchantRepo struct {
	merchants map[string]*domain.Merchant
}

func newStubMerchantRepo(merchants ...*domain.Merchant) *stubMerchantRepo {
	repo := &stubMerchantRepo{merchants: make(map[string]*domain.Merchant)}
	for _, m := range merchants {
		repo.merchants[m.ID] = m
	}
	return repo
}

func (r *stubMerchantRepo) FindByID(_ context.Context, id string) (*domain.Merchant, error) {
	m, ok := r.merchants[id]
	if !ok {
		return nil, domain.ErrMerchantNotFound
	}
	clone := *m
	return &clone, nil
}

type captureAudit struct {
	mu     sync.Mutex
	events []domain.HandshakeEvent
}

func (a *captureAudit) Enqueue(event domain.HandshakeEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *captureAudit) outcomes() []domain.HandshakeOutcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.HandshakeOutcome, len(a.events))
	for i, e := range a.events {
		out[i] = e.Outcome
	}
	return out
}

type stubLimiter struct {
	mu        sync.Mutex
	throttled bool
	failures  int
}

func (l *stubLimiter) TooManyFailures(context.Context, string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.throttled, nil
}

func (l *stubLimiter) RecordFailure(context.Context, string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures++
	return nil
}
