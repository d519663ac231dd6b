// Package breaker tracks per-(component, category) health and gates
// retry-style recovery actions behind a circuit breaker state machine.
package breaker

import (
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/remedy/internal/core/domain"
	"github.com/vietddude/remedy/internal/handling/metrics"
)

// Config holds breaker tuning shared by all keys.
type Config struct {
	// Threshold is the consecutive-failure count that opens a key.
	Threshold int `yaml:"threshold"`
	// Cooldown is how long an OPEN key waits before probing.
	Cooldown time.Duration `yaml:"cooldown"`
}

// DefaultConfig returns the stock breaker configuration.
func DefaultConfig() Config {
	return Config{Threshold: 5, Cooldown: 60 * time.Second}
}

const shardCount = 16

type key struct {
	component string
	category  domain.Category
}

// breaker is the state for one key. Guarded by its shard's mutex.
type breaker struct {
	state       domain.BreakerState
	failures    int
	lastFailure time.Time
	openedAt    time.Time
	probing     bool
}

type shard struct {
	mu       sync.Mutex
	breakers map[key]*breaker
}

// Registry is the single shared breaker structure. Keys are sharded so
// concurrent failures from unrelated components never contend.
type Registry struct {
	cfg    Config
	shards [shardCount]*shard
	now    func() time.Time
}

// NewRegistry builds a registry with the given configuration.
func NewRegistry(cfg Config) *Registry {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultConfig().Threshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultConfig().Cooldown
	}
	r := &Registry{cfg: cfg, now: time.Now}
	for i := range r.shards {
		r.shards[i] = &shard{breakers: make(map[key]*breaker)}
	}
	return r
}

func (r *Registry) shardFor(k key) *shard {
	h := fnv.New32a()
	h.Write([]byte(k.component))
	h.Write([]byte{0})
	h.Write([]byte(k.category))
	return r.shards[h.Sum32()%shardCount]
}

func (r *Registry) get(s *shard, k key) *breaker {
	b, ok := s.breakers[k]
	if !ok {
		b = &breaker{state: domain.BreakerClosed}
		s.breakers[k] = b
	}
	return b
}

// Allow reports whether a gated action may run for the key. An OPEN
// key whose cooldown has elapsed transitions to HALF_OPEN and admits
// exactly one probe; concurrent callers during the probe are rejected.
func (r *Registry) Allow(component string, category domain.Category) bool {
	k := key{component, category}
	s := r.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	b := r.get(s, k)
	switch b.state {
	case domain.BreakerOpen:
		if r.now().Sub(b.openedAt) >= r.cfg.Cooldown {
			r.transition(b, domain.BreakerHalfOpen)
			b.probing = true
			return true
		}
		return false
	case domain.BreakerHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

// RecordSuccess clears the failure streak; a HALF_OPEN probe success
// closes the key.
func (r *Registry) RecordSuccess(component string, category domain.Category) {
	k := key{component, category}
	s := r.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	b := r.get(s, k)
	if b.state == domain.BreakerHalfOpen {
		r.transition(b, domain.BreakerClosed)
	}
	b.failures = 0
	b.probing = false
}

// RecordFailure bumps the failure streak. Reaching the threshold opens
// the key; a HALF_OPEN probe failure reopens it with a fresh cooldown.
func (r *Registry) RecordFailure(component string, category domain.Category) {
	k := key{component, category}
	s := r.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	b := r.get(s, k)
	b.failures++
	b.lastFailure = r.now()
	b.probing = false

	switch b.state {
	case domain.BreakerHalfOpen:
		r.transition(b, domain.BreakerOpen)
		b.openedAt = r.now()
	case domain.BreakerClosed:
		if b.failures >= r.cfg.Threshold {
			r.transition(b, domain.BreakerOpen)
			b.openedAt = r.now()
		}
	}
}

// State returns the current state for a key without mutating it.
func (r *Registry) State(component string, category domain.Category) domain.BreakerState {
	k := key{component, category}
	s := r.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.breakers[k]
	if !ok {
		return domain.BreakerClosed
	}
	return r.effectiveState(b)
}

// effectiveState is the externally visible state: an OPEN key whose
// cooldown has elapsed is due a probe and reads HALF_OPEN even before
// the next Allow performs the transition.
func (r *Registry) effectiveState(b *breaker) domain.BreakerState {
	if b.state == domain.BreakerOpen && r.now().Sub(b.openedAt) >= r.cfg.Cooldown {
		return domain.BreakerHalfOpen
	}
	return b.state
}

// Snapshot returns a stable-ordered view of every tracked key.
func (r *Registry) Snapshot() []domain.BreakerSnapshot {
	var out []domain.BreakerSnapshot
	for _, s := range r.shards {
		s.mu.Lock()
		for k, b := range s.breakers {
			out = append(out, domain.BreakerSnapshot{
				Component:   k.component,
				Category:    k.category,
				State:       r.effectiveState(b),
				Failures:    b.failures,
				LastFailure: b.lastFailure,
			})
		}
		s.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Component != out[j].Component {
			return out[i].Component < out[j].Component
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func (r *Registry) transition(b *breaker, to domain.BreakerState) {
	metrics.BreakerTransitions.WithLabelValues(string(b.state), string(to)).Inc()
	b.state = to
}
