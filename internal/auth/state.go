package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"
)

const stateTTL = 5 * time.Minute

// states tracks OAuth state values handed out with authorization URLs.
// Each value is accepted once, within stateTTL of being issued.
type states struct {
	mu     sync.Mutex
	issued map[string]time.Time
	now    func() time.Time
}

func newStates() *states {
	return &states{issued: make(map[string]time.Time), now: time.Now}
}

func (s *states) issue() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read failed: %w", err)
	}
	v := base64.RawURLEncoding.EncodeToString(b)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, exp := range s.issued {
		if now.After(exp) {
			delete(s.issued, k)
		}
	}
	s.issued[v] = now.Add(stateTTL)

	return v, nil
}

func (s *states) consume(v string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.issued[v]
	if !ok {
		return false
	}
	delete(s.issued, v)

	return !s.now().After(exp)
}
