package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SendGuard marks a reminder send as in flight so a second request for the
// same key is refused until the first one finishes or the mark expires.
// Acquire hands back a token; Release only clears the mark while that token
// still owns it.
type SendGuard interface {
	Acquire(ctx context.Context, key string) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

// SendKey is per invoice: the cooldown applies to the invoice whatever tone
// the next reminder would use.
func SendKey(invoiceID string) string {
	return "reminder:inflight:" + invoiceID
}

type hold struct {
	token   string
	expires time.Time
}

// MemoryGuard is a SendGuard for a single process.
type MemoryGuard struct {
	ttl time.Duration
	now func() time.Time

	mu   sync.Mutex
	held map[string]hold
}

func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	return &MemoryGuard{ttl: ttl, now: time.Now, held: make(map[string]hold)}
}

func (g *MemoryGuard) Acquire(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if h, ok := g.held[key]; ok && now.Before(h.expires) {
		return "", false, nil
	}
	token := uuid.NewString()
	g.held[key] = hold{token: token, expires: now.Add(g.ttl)}
	return token, true, nil
}

func (g *MemoryGuard) Release(ctx context.Context, key, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if h, ok := g.held[key]; ok && h.token == token {
		delete(g.held, key)
	}
	return nil
}
