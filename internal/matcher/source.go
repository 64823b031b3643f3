package matcher

import "sync"

type lockedSource struct {
	mu  sync.Mutex
	src Source
}

// Locked serializes access to src so a seeded, non thread-safe generator such
// as *rand.Rand can be shared by concurrent callers.
func Locked(src Source) Source {
	return &lockedSource{src: src}
}

func (l *lockedSource) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.IntN(n)
}

// Global returns the process-wide generator from math/rand/v2.
func Global() Source {
	return globalSource{}
}
