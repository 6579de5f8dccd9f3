// Package ident generates the identifiers handed out by the form models. Field
// ids are time-sortable UUIDv7 tokens; rule ids are short sqids derived from
// the creation time and a random factor.
package ident

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sqids/sqids-go"
)

// Generator hands out unique identifiers.
type Generator interface {
	Next() string
}

// GeneratorFunc adapts a function into a Generator.
type GeneratorFunc func() string

// Next delegates to the underlying function.
func (fn GeneratorFunc) Next() string {
	return fn()
}

// UUID generates prefixed UUIDv7 identifiers such as
// "field_01920c4e-8f1a-7c3b-9d2e-4f5a6b7c8d9e".
type UUID struct {
	Prefix string
}

// Next returns a new identifier. Panics if the system entropy source fails.
func (g UUID) Next() string {
	return g.Prefix + uuid.Must(uuid.NewV7()).String()
}

const sqidsAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Sqids encodes the current time in milliseconds plus a random factor into a
// short lowercase token, e.g. "rule_4k2m9x0c1qzt".
type Sqids struct {
	Prefix string
	Now    func() time.Time

	once    sync.Once
	encoder *sqids.Sqids
	err     error
}

// NewSqids returns a Sqids generator using the wall clock.
func NewSqids(prefix string) *Sqids {
	return &Sqids{Prefix: prefix}
}

// Next returns a new identifier. When the encoder cannot be built or fails to
// encode, a UUIDv7 is used instead so callers always get a unique value.
func (g *Sqids) Next() string {
	g.once.Do(func() {
		g.encoder, g.err = sqids.New(sqids.Options{
			Alphabet:  sqidsAlphabet,
			MinLength: 12,
		})
	})
	if g.err != nil {
		return UUID{Prefix: g.Prefix}.Next()
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	numbers := []uint64{uint64(now().UnixMilli()), rand.Uint64N(1_000_000)}
	token, err := g.encoder.Encode(numbers)
	if err != nil {
		return UUID{Prefix: g.Prefix}.Next()
	}
	return g.Prefix + token
}

// Fixed returns predetermined identifiers in order. It is meant for tests
// that need stable ids; once exhausted it appends a counter to the last
// prefix so uniqueness still holds.
type Fixed struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixed creates a generator that returns tokens in order.
func NewFixed(tokens ...string) *Fixed {
	return &Fixed{tokens: tokens}
}

// Next returns the next predetermined token.
func (g *Fixed) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.idx++
	if g.idx <= len(g.tokens) {
		return g.tokens[g.idx-1]
	}
	return fmt.Sprintf("id_%d", g.idx)
}

// Sequence returns a generator producing prefix1, prefix2, ...
func Sequence(prefix string) Generator {
	var (
		mu sync.Mutex
		n  int
	)
	return GeneratorFunc(func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	})
}
