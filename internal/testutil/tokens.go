package testutil

import (
	"fmt"
	"sync"
)

// SequenceTokenGenerator returns checkout tokens "<prefix>-0001",
// "<prefix>-0002", ... in order.
//
// Thread-safety: SequenceTokenGenerator is safe for concurrent use.
type SequenceTokenGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceTokenGenerator creates a generator. An empty prefix defaults to
// "test-checkout".
func NewSequenceTokenGenerator(prefix string) *SequenceTokenGenerator {
	if prefix == "" {
		prefix = "test-checkout"
	}
	return &SequenceTokenGenerator{prefix: prefix}
}

// Generate returns the next token in the sequence.
func (g *SequenceTokenGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
