// Package matching produces the secret "who gives to whom" assignment for a
// group.
//
// # Construction
//
// Derange shuffles the member ids with Fisher–Yates and then maps every
// position to its successor, wrapping the last position to the first. The
// result is a single cycle through all members, so for N >= 2 no member can
// be mapped to itself and every member is exactly once a giver and exactly
// once a recipient.
//
// # Validation
//
// Every shuffled order is still checked for self-assignment before it is
// returned. A failed check is retried a bounded number of times and counted
// (see Generator.Retries). Under the cyclic construction the counter must stay
// at zero; a non-zero value means the construction has been changed in a way
// that broke the guarantee.
package matching

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"sync"
)

// DefaultMaxAttempts bounds the shuffle/validate loop.
const DefaultMaxAttempts = 10

var (
	// ErrInsufficientMembers is returned when fewer than two ids are supplied.
	ErrInsufficientMembers = errors.New("at least two members are required")
	// ErrInvalidMembers is returned for empty or duplicate ids.
	ErrInvalidMembers = errors.New("member ids must be non-empty and distinct")
	// ErrDerangementFailed is returned when no valid order was found within
	// the attempt budget.
	ErrDerangementFailed = errors.New("could not produce an assignment without self-matches")
)

// Generator builds derangements from a random source. It is safe for
// concurrent use.
type Generator struct {
	mu          sync.Mutex
	rng         *rand.Rand
	maxAttempts int
	retries     uint64
	onRetry     func()
}

// NewGenerator returns a Generator drawing from src. A maxAttempts below one
// falls back to DefaultMaxAttempts.
func NewGenerator(src rand.Source, maxAttempts int) *Generator {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Generator{
		rng:         rand.New(src),
		maxAttempts: maxAttempts,
	}
}

// NewSeededGenerator returns a Generator seeded from crypto/rand.
func NewSeededGenerator(maxAttempts int) (*Generator, error) {
	seed, err := newSeed()
	if err != nil {
		return nil, err
	}
	return NewGenerator(rand.NewSource(seed), maxAttempts), nil
}

// OnRetry registers a hook invoked every time a shuffled order fails
// validation. Used to export the retry count as a metric.
func (g *Generator) OnRetry(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onRetry = fn
}

// Retries reports how many shuffled orders failed validation so far.
func (g *Generator) Retries() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.retries
}

// Derange maps every id to a different id of the same set such that the
// mapping is a bijection without fixed points. The input slice is not
// modified.
func (g *Generator) Derange(ids []string) (map[string]string, error) {
	if len(ids) < 2 {
		return nil, ErrInsufficientMembers
	}
	if err := checkDistinct(ids); err != nil {
		return nil, err
	}

	order := make([]string, len(ids))
	copy(order, ids)

	g.mu.Lock()
	defer g.mu.Unlock()

	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		g.shuffle(order)

		pairs := cycle(order)
		if err := validate(pairs); err == nil {
			return pairs, nil
		}

		g.retries++
		if g.onRetry != nil {
			g.onRetry()
		}
	}

	return nil, ErrDerangementFailed
}

// shuffle is an in-place Fisher–Yates shuffle. Caller holds g.mu.
func (g *Generator) shuffle(order []string) {
	for i := len(order) - 1; i > 0; i-- {
		j := g.rng.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}
}

// cycle maps order[i] to order[i+1], wrapping around.
func cycle(order []string) map[string]string {
	pairs := make(map[string]string, len(order))
	for i, giver := range order {
		pairs[giver] = order[(i+1)%len(order)]
	}
	return pairs
}

// validate checks that pairs is a bijection with no fixed points.
func validate(pairs map[string]string) error {
	seen := make(map[string]struct{}, len(pairs))
	for giver, recipient := range pairs {
		if giver == recipient {
			return fmt.Errorf("%s is assigned to themselves", giver)
		}
		if _, ok := pairs[recipient]; !ok {
			return fmt.Errorf("recipient %s is not a member", recipient)
		}
		if _, dup := seen[recipient]; dup {
			return fmt.Errorf("recipient %s is assigned twice", recipient)
		}
		seen[recipient] = struct{}{}
	}
	return nil
}

func checkDistinct(ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return ErrInvalidMembers
		}
		if _, dup := seen[id]; dup {
			return ErrInvalidMembers
		}
		seen[id] = struct{}{}
	}
	return nil
}

func newSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
