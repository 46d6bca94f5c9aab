package services

import (
	"sync"
	"sync/atomic"
)

// Suppressor tells the change tracker to ignore store mutations. It is
// process-wide and only switched through tokens, so every hold has exactly
// one release.
type Suppressor struct {
	holds atomic.Int32
}

// SuppressionToken is one hold on a Suppressor. Release is idempotent.
type SuppressionToken struct {
	s    *Suppressor
	once sync.Once
}

// Acquire starts suppressing until the returned token is released. Holds
// nest.
//
//	tok := s.Acquire()
//	defer tok.Release()
func (s *Suppressor) Acquire() *SuppressionToken {
	s.holds.Add(1)
	return &SuppressionToken{s: s}
}

func (t *SuppressionToken) Release() {
	t.once.Do(func() { t.s.holds.Add(-1) })
}

// Active reports whether any token is held.
func (s *Suppressor) Active() bool {
	return s.holds.Load() > 0
}
