// Package session holds per-UI-session state: the open chat tabs, the active
// tab, and the current page selection. Nothing here is persisted; the state
// lives for the duration of one user session and is passed explicitly to the
// managers that mutate it.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Yeseung0610/docs-fairy/store"
)

type State struct {
	ID string

	mu sync.Mutex

	// Tab state, owned by the chat manager once loaded.
	Loaded    bool
	Tabs      map[string][]store.Message
	TabOrder  []string
	ActiveTab string

	// Document selection state, owned by the document manager.
	SelectedPageID   int64
	SelectedFolderID int64
	PageSelected     bool
	ExpandedFolders  map[int64]bool
}

func NewState() *State {
	return &State{
		ID:              uuid.NewString(),
		Tabs:            map[string][]store.Message{},
		ExpandedFolders: map[int64]bool{},
	}
}

// Lock serializes access to the state for the duration of one user action.
func (s *State) Lock()   { s.mu.Lock() }
func (s *State) Unlock() { s.mu.Unlock() }

// Registry maps session ids to their states. States are created on first
// sight of a session id and live for the rest of the process.
type Registry struct {
	mu     sync.Mutex
	states map[string]*State
}

func NewRegistry() *Registry {
	return &Registry{states: map[string]*State{}}
}

// Lookup returns the state for the given id, or nil when unknown.
func (r *Registry) Lookup(id string) *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[id]
}

// Create registers a fresh state and returns it.
func (r *Registry) Create() *State {
	state := NewState()
	r.mu.Lock()
	r.states[state.ID] = state
	r.mu.Unlock()
	return state
}
