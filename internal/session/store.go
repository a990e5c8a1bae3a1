package session

import (
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Wizard is the per-chat state of the thumbnail wizard. Abandoned wizards
// expire with the store TTL.
type Wizard struct {
	Objective  string
	Brief      string
	Similarity int

	PersonFileID    string
	ReferenceFileID string
	ExtraFileID     string

	AwaitingBrief bool
	Menu          string // "main" | "objective" | "similarity"
	MessageID     int
}

func defaultWizard() Wizard {
	return Wizard{
		Objective:  "promessa",
		Similarity: 60,
		Menu:       "main",
	}
}

// PhotoSlots returns the assigned file IDs in pipeline order.
func (w Wizard) PhotoSlots() (person, reference, extra string) {
	return w.PersonFileID, w.ReferenceFileID, w.ExtraFileID
}

// AssignPhoto fills the next free slot in person -> reference -> extra
// order and reports which slot was used ("" when all are taken).
func (w *Wizard) AssignPhoto(fileID string) string {
	switch {
	case w.PersonFileID == "":
		w.PersonFileID = fileID
		return "person"
	case w.ReferenceFileID == "":
		w.ReferenceFileID = fileID
		return "reference"
	case w.ExtraFileID == "":
		w.ExtraFileID = fileID
		return "extra"
	}
	return ""
}

type Options struct {
	TTL time.Duration
}

// Store keeps wizard state per chat+user with TTL eviction.
type Store struct {
	mu    sync.Mutex
	cache *gocache.Cache
}

func NewStore(opts Options) *Store {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	return &Store{cache: gocache.New(ttl, ttl)}
}

func (s *Store) Get(chatID, userID int64) Wizard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(chatID, userID)
}

// Update applies fn to the current state and stores the result, refreshing
// the TTL. The store mutex makes read-modify-write atomic per call.
func (s *Store) Update(chatID, userID int64, fn func(*Wizard)) Wizard {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.getLocked(chatID, userID)
	if fn != nil {
		fn(&w)
	}
	s.cache.SetDefault(makeKey(chatID, userID), w)
	return w
}

func (s *Store) Reset(chatID, userID int64) Wizard {
	return s.Update(chatID, userID, func(w *Wizard) {
		*w = defaultWizard()
	})
}

func (s *Store) getLocked(chatID, userID int64) Wizard {
	if v, ok := s.cache.Get(makeKey(chatID, userID)); ok {
		if w, ok := v.(Wizard); ok {
			return w
		}
	}
	return defaultWizard()
}

func makeKey(chatID, userID int64) string {
	return fmt.Sprintf("%d:%d", chatID, userID)
}
