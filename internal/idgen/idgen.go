// Package idgen supplies identifiers to the ledger. Production code uses UUID;
// tests inject Sequence for reproducible ids and transfer references.
package idgen

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type Generator interface {
	NewID() uuid.UUID
	NewReference() string
}

type UUID struct{}

func (UUID) NewID() uuid.UUID { return uuid.New() }

func (UUID) NewReference() string {
	return "tr_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Sequence hands out predictable ids: the n-th call to NewID returns the uuid
// whose low bytes encode n.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	n      uint64
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

func (s *Sequence) NewID() uuid.UUID {
	n := s.next()
	var id uuid.UUID
	for i := 0; i < 8; i++ {
		id[15-i] = byte(n >> (8 * i))
	}
	return id
}

func (s *Sequence) NewReference() string {
	return fmt.Sprintf("%s-%06d", s.prefix, s.next())
}
