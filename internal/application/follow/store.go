package follow

import (
	"sync"
	"time"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/core/timeline"
)

// State is what follow mode renders. Values are replaced, never mutated.
type State struct {
	Result     timeline.Result
	Previous   []model.InteractionUnit // units before the last successful load
	Loading    bool
	Err        error // last load failure, cleared by the next success
	LastUpdate time.Time
	Source     string
	Stale      bool // Result was served from a snapshot
	Revision   int
}

// Action is an event applied to State by Reduce
type Action interface {
	isAction()
}

type LoadStarted struct{}

type LoadSucceeded struct {
	Result timeline.Result
	Source string
	Stale  bool
	At     time.Time
}

type LoadFailed struct {
	Err error
	At  time.Time
}

type Reset struct{}

func (LoadStarted) isAction()   {}
func (LoadSucceeded) isAction() {}
func (LoadFailed) isAction()    {}
func (Reset) isAction()         {}

// Reduce returns the state after applying a. A failed load keeps the last
// good result on screen.
func Reduce(s State, a Action) State {
	next := s
	next.Revision = s.Revision + 1

	switch a := a.(type) {
	case LoadStarted:
		next.Loading = true
	case LoadSucceeded:
		next.Previous = s.Result.Units
		next.Result = a.Result
		next.Source = a.Source
		next.Stale = a.Stale
		next.Loading = false
		next.Err = nil
		next.LastUpdate = a.At
	case LoadFailed:
		next.Loading = false
		next.Err = a.Err
	case Reset:
		next = State{Revision: s.Revision + 1}
	default:
		return s
	}
	return next
}

// Store holds the current State. Dispatch is safe for concurrent use;
// subscribers are called synchronously in dispatch order and must not
// dispatch themselves.
type Store struct {
	mu          sync.Mutex
	state       State
	subscribers map[int]func(State)
	nextID      int
}

func NewStore() *Store {
	return &Store{subscribers: make(map[int]func(State))}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Reduce(s.state, a)
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.subscribers[id]; ok {
			fn(s.state)
		}
	}
	return s.state
}

// Subscribe registers fn for every future state and returns its cancel func
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}
