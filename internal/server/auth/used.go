package auth

import (
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/bitguard/internal/common"
)

// UsedTokens remembers consumed token IDs until the tokens expire.
// It is safe for concurrent use.
type UsedTokens struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

func NewUsedTokens() *UsedTokens {
	return &UsedTokens{seen: make(map[string]time.Time), now: time.Now}
}

// Consume marks the token as used. A second call with the same ID before
// the token expires fails with common.ErrInvalidToken.
func (u *UsedTokens) Consume(c *Claims) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.now()
	for id, exp := range u.seen {
		if !now.Before(exp) {
			delete(u.seen, id)
		}
	}

	if _, ok := u.seen[c.ID]; ok {
		return fmt.Errorf("%w: token already used", common.ErrInvalidToken)
	}
	u.seen[c.ID] = c.ExpiresAt.Time
	return nil
}
