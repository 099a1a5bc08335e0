// Package store is the single shared mutable resource of the client: one
// inbound channel of typed transition messages processed strictly
// sequentially, each producing a new immutable snapshot. Readers observe
// snapshots, never in-progress mutation.
package store

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Store applies transitions one at a time and publishes snapshots.
type Store struct {
	log   zerolog.Logger
	inbox chan envelope
	quit  chan struct{}
	done  chan struct{}

	current atomic.Pointer[State]

	genMu sync.Mutex
	gens  map[Op]uint64

	subMu     sync.Mutex
	subs      map[int]chan *State
	nextSubID int

	closeOnce sync.Once
}

type envelope struct {
	msg  Message
	done chan struct{}
}

// Option applies Store options.
type Option func(*Store)

// WithLogger routes transition events to the given logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// New creates a running store holding the initial state.
func New(opts ...Option) *Store {
	s := &Store{
		log:   zerolog.Nop(),
		inbox: make(chan envelope, 64),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
		gens:  map[Op]uint64{},
		subs:  map[int]chan *State{},
	}
	for _, opt := range opts {
		opt(s)
	}
	initial := InitialState()
	s.current.Store(&initial)
	go s.run()
	return s
}

// Snapshot returns the latest published state. The returned value must be
// treated as read-only.
func (s *Store) Snapshot() *State {
	return s.current.Load()
}

// Dispatch queues one transition. Dispatches after Close are dropped.
func (s *Store) Dispatch(msg Message) {
	select {
	case s.inbox <- envelope{msg: msg}:
	case <-s.quit:
	}
}

// Begin registers a new attempt for the operation, invalidating any prior
// attempt still in flight, and emits the pending transition.
func (s *Store) Begin(op Op) Ticket {
	s.genMu.Lock()
	s.gens[op]++
	ticket := Ticket{Op: op, Gen: s.gens[op]}
	s.genMu.Unlock()
	s.Dispatch(OpBegun{Op: ticket.Op, Gen: ticket.Gen})
	return ticket
}

// Flush blocks until every transition queued before it has been applied.
func (s *Store) Flush() {
	ack := make(chan struct{})
	select {
	case s.inbox <- envelope{done: ack}:
	case <-s.quit:
		return
	}
	select {
	case <-ack:
	case <-s.done:
	}
}

// Subscribe returns a channel receiving coalesced snapshot updates and a
// cancel function. Slow receivers observe the latest snapshot, not every
// intermediate one.
func (s *Store) Subscribe() (<-chan *State, func()) {
	ch := make(chan *State, 1)
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = ch
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
	return ch, cancel
}

// Close stops the transition loop. Pending messages are discarded.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	<-s.done
}

func (s *Store) run() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case e := <-s.inbox:
			if e.msg != nil {
				s.apply(e.msg)
			}
			if e.done != nil {
				close(e.done)
			}
		}
	}
}

func (s *Store) apply(msg Message) {
	stale := false
	if marker, ok := msg.(resolutionMarker); ok {
		op, gen := marker.opGen()
		s.genMu.Lock()
		stale = gen != s.gens[op]
		s.genMu.Unlock()
		if stale {
			s.log.Debug().
				Str("op", string(op)).
				Uint64("gen", gen).
				Msg("stale resolution discarded")
		}
	}

	next := reduceState(*s.current.Load(), msg, stale)
	s.current.Store(&next)
	s.log.Debug().Str("transition", fmt.Sprintf("%T", msg)).Msg("transition applied")
	s.publish(&next)
}

func (s *Store) publish(snapshot *State) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snapshot:
		default:
			// drop the superseded snapshot, keep the latest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}
