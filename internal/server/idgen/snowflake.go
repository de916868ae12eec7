// Package idgen generates 64-bit, time-sortable user identifiers.
//
// Layout, most significant bit first:
//
//	1 bit unused | 41 bits milliseconds since Epoch | 10 bits instance | 12 bits sequence
//
// Identifiers are strictly increasing per Generator. Two generators never
// collide as long as they run with distinct instance ids.
package idgen

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

const (
	InstanceBits = 10
	SequenceBits = 12

	MaxInstanceID = 1<<InstanceBits - 1
	maxSequence   = 1<<SequenceBits - 1

	instanceShift  = SequenceBits
	timestampShift = SequenceBits + InstanceBits
)

// Epoch is the default custom epoch (2010-11-04T01:42:54.657Z).
var Epoch = time.UnixMilli(1288834974657)

var (
	ErrInstanceOutOfRange = errors.New("instance id out of range")
	ErrClockBeforeEpoch   = errors.New("clock is before generator epoch")
)

// Generator hands out identifiers for one instance.
//
// When the sequence for the current millisecond is exhausted, or when the
// wall clock moves backwards, NextID waits for the clock to pass the last
// used millisecond. The wait happens outside the mutex, so only callers of
// the same generator are delayed.
type Generator struct {
	mu       sync.Mutex
	instance uint64
	epoch    int64
	lastMs   int64
	sequence uint64

	now   func() time.Time
	sleep func(time.Duration)
}

// Option customizes a Generator.
type Option func(*Generator)

// WithEpoch overrides the custom epoch.
func WithEpoch(epoch time.Time) Option {
	return func(g *Generator) { g.epoch = epoch.UnixMilli() }
}

// WithClock replaces the wall clock and the sleep function, mostly for tests.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(g *Generator) {
		g.now = now
		g.sleep = sleep
	}
}

// New creates a Generator for instanceID, which must fit in InstanceBits.
func New(instanceID int, opts ...Option) (*Generator, error) {
	if instanceID < 0 || instanceID > MaxInstanceID {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrInstanceOutOfRange, instanceID, MaxInstanceID)
	}

	g := &Generator{
		instance: uint64(instanceID),
		epoch:    Epoch.UnixMilli(),
		lastMs:   -1,
		now:      time.Now,
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.now().UnixMilli() < g.epoch {
		return nil, ErrClockBeforeEpoch
	}

	return g, nil
}

// NextID returns the next identifier. It is safe for concurrent use.
func (g *Generator) NextID() uint64 {
	for {
		g.mu.Lock()

		ms := g.now().UnixMilli() - g.epoch

		if ms < g.lastMs {
			wait := time.Duration(g.lastMs-ms) * time.Millisecond
			g.mu.Unlock()
			g.sleep(wait)
			continue
		}

		if ms == g.lastMs {
			if g.sequence == maxSequence {
				g.mu.Unlock()
				g.sleep(100 * time.Microsecond)
				continue
			}
			g.sequence++
		} else {
			g.lastMs = ms
			g.sequence = 0
		}

		id := uint64(ms)<<timestampShift | g.instance<<instanceShift | g.sequence
		g.mu.Unlock()
		return id
	}
}

// Parts is a decoded identifier.
type Parts struct {
	Time     time.Time
	Instance int
	Sequence int
}

// Decompose splits id into its fields using the generator's epoch.
func (g *Generator) Decompose(id uint64) Parts {
	return decompose(id, g.epoch)
}

func decompose(id uint64, epochMs int64) Parts {
	ms := int64(id >> timestampShift)
	return Parts{
		Time:     time.UnixMilli(epochMs + ms).UTC(),
		Instance: int(id >> instanceShift & MaxInstanceID),
		Sequence: int(id & maxSequence),
	}
}

// Format renders an identifier the way it travels on the wire.
func Format(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// Parse is the inverse of Format.
func Parse(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}
