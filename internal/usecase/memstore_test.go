package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ordinary-note/internal/domain/model"
	"ordinary-note/internal/repository"
)

// メモリ上のストア。RevokeByIDはGORM実装と同じ条件付き更新。
type memStore struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	users  map[string]*model.User
	tokens map[string]*model.RefreshToken // key: id
	seq    int
	calls  int

	// FindByHashWithOwnerの直後に呼ばれる（競合の再現用）
	afterFindWithOwner func(t model.RefreshToken)
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[string]*model.User{},
		tokens: map[string]*model.RefreshToken{},
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// ---- UserRepository ----

func (s *memStore) FindByID(ctx context.Context, userID string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) UpsertByGoogleID(ctx context.Context, p model.GoogleProfile) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	for _, u := range s.users {
		if u.GoogleID == p.GoogleID {
			u.Email, u.Name, u.ProfileImage = p.Email, p.Name, p.ProfileImage
			cp := *u
			return &cp, nil
		}
	}
	u := &model.User{ID: s.nextID("user"), Email: p.Email, Name: p.Name, ProfileImage: p.ProfileImage, GoogleID: p.GoogleID}
	s.users[u.ID] = u
	cp := *u
	return &cp, nil
}

// ---- RefreshTokenRepository ----

func (s *memStore) Create(ctx context.Context, userID, tokenHash, familyID string, expiresAt time.Time) (*model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	for _, t := range s.tokens {
		if t.TokenHash == tokenHash {
			return nil, repository.ErrRefreshTokenConflict
		}
	}
	t := &model.RefreshToken{ID: s.nextID("rt"), UserID: userID, TokenHash: tokenHash, FamilyID: familyID, ExpiresAt: expiresAt}
	s.tokens[t.ID] = t
	cp := *t
	return &cp, nil
}

func (s *memStore) findByHashLocked(tokenHash string) *model.RefreshToken {
	for _, t := range s.tokens {
		if t.TokenHash == tokenHash {
			return t
		}
	}
	return nil
}

func (s *memStore) FindByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	t := s.findByHashLocked(tokenHash)
	if t == nil {
		return nil, repository.ErrRefreshTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) FindByHashWithOwner(ctx context.Context, tokenHash string) (*repository.RefreshTokenWithOwner, error) {
	s.mu.Lock()
	s.calls++

	t := s.findByHashLocked(tokenHash)
	if t == nil {
		s.mu.Unlock()
		return nil, repository.ErrRefreshTokenNotFound
	}
	u, ok := s.users[t.UserID]
	if !ok {
		s.mu.Unlock()
		return nil, repository.ErrRefreshTokenNotFound
	}
	out := &repository.RefreshTokenWithOwner{Token: *t, Owner: *u}
	s.mu.Unlock()

	if s.afterFindWithOwner != nil {
		s.afterFindWithOwner(out.Token)
	}
	return out, nil
}

func (s *memStore) RevokeByID(ctx context.Context, tokenID string, revokedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	t, ok := s.tokens[tokenID]
	if !ok || t.RevokedAt != nil {
		return false, nil
	}
	at := revokedAt
	t.RevokedAt = &at
	return true, nil
}

func (s *memStore) RevokeByFamily(ctx context.Context, familyID string, revokedAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	var n int64
	for _, t := range s.tokens {
		if t.FamilyID == familyID && t.RevokedAt == nil {
			at := revokedAt
			t.RevokedAt = &at
			n++
		}
	}
	return n, nil
}

func (s *memStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	var n int64
	for id, t := range s.tokens {
		if t.ExpiresAt.Before(before) {
			delete(s.tokens, id)
			n++
		}
	}
	return n, nil
}

// ---- helpers ----

func (s *memStore) family(familyID string) []model.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.RefreshToken
	for _, t := range s.tokens {
		if t.FamilyID == familyID {
			out = append(out, *t)
		}
	}
	return out
}

func (s *memStore) tokenByHash(tokenHash string) *model.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.findByHashLocked(tokenHash)
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

func (s *memStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// ---- AuditLogRepository ----

type memAudit struct {
	mu   sync.Mutex
	logs []model.AuditLog
}

func (a *memAudit) Create(ctx context.Context, log model.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

func (a *memAudit) actions() []model.AuditAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.AuditAction, 0, len(a.logs))
	for _, l := range a.logs {
		out = append(out, l.Action)
	}
	return out
}

// ---- TransactionManager ----

type memTxRepos struct {
	s *memStore
}

func (r memTxRepos) RefreshTokens() repository.RefreshTokenRepository { return r.s }

// エラーならトークンを元に戻す
func (s *memStore) WithinTx(ctx context.Context, fn func(r repository.TxRepos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := make(map[string]model.RefreshToken, len(s.tokens))
	for id, t := range s.tokens {
		snapshot[id] = *t
	}
	s.mu.Unlock()

	if err := fn(memTxRepos{s: s}); err != nil {
		s.mu.Lock()
		s.tokens = make(map[string]*model.RefreshToken, len(snapshot))
		for id, t := range snapshot {
			cp := t
			s.tokens[id] = &cp
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// 連番ID
type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%04d", g.n)
}

type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
