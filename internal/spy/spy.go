// Package spy records calls to a query-execution hook so they can be
// asserted on afterwards.
//
// A Spy is the recorder the matchers read from. Calls are stored in the
// order they were recorded; each carries the arguments the hook received,
// with the query handle at index 1.
package spy

import (
	"slices"
	"sync"
)

// Call is one recorded invocation.
type Call struct {
	Args []any
	Seq  int64
}

// Arg returns argument i, or nil when the call has fewer arguments.
func (c Call) Arg(i int) any {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// Recorder exposes an ordered call history.
type Recorder interface {
	Calls() []Call
}

// Option configures a Spy.
type Option func(*Spy)

// WithSink forwards every recorded call to fn after it is stored.
func WithSink(fn func(Call)) Option {
	return func(s *Spy) {
		s.sink = fn
	}
}

// WithClock replaces the sequence clock.
func WithClock(c Clock) Option {
	return func(s *Spy) {
		s.clock = c
	}
}

// Spy is a concurrency-safe Recorder.
type Spy struct {
	mu    sync.Mutex
	calls []Call
	clock Clock
	sink  func(Call)
}

// New creates an empty Spy.
func New(opts ...Option) *Spy {
	s := &Spy{clock: newClockAt(0)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Replay builds a Spy holding calls, in order. Recording more calls
// continues the sequence after the highest replayed Seq.
func Replay(calls []Call, opts ...Option) *Spy {
	var last int64
	for _, c := range calls {
		last = max(last, c.Seq)
	}
	s := &Spy{
		calls: slices.Clone(calls),
		clock: newClockAt(last),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record stores one call and returns it.
func (s *Spy) Record(args ...any) Call {
	s.mu.Lock()
	c := Call{Args: args, Seq: s.clock.Next()}
	s.calls = append(s.calls, c)
	sink := s.sink
	s.mu.Unlock()

	if sink != nil {
		sink(c)
	}
	return c
}

// Calls returns a copy of the history.
func (s *Spy) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// Len returns the number of recorded calls.
func (s *Spy) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Reset clears the history and restarts the sequence.
func (s *Spy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
	s.clock.Reset()
}

// Hook returns a function with the shape of a query-execution hook that
// records every invocation. ctx is stored at index 0 and the query at
// index 1.
func (s *Spy) Hook() func(ctx any, query any) {
	return func(ctx any, query any) {
		s.Record(ctx, query)
	}
}
