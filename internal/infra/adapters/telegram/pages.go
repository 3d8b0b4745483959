package telegram

import (
	"sync"
	"time"

	"travel-planner-client/internal/usecase"
)

type pageEntry struct {
	page     *usecase.BookingsPage
	lastUsed time.Time
}

// pageStore keeps one bookings page per chat.
type pageStore struct {
	mu      sync.Mutex
	pages   map[int64]*pageEntry
	factory func() *usecase.BookingsPage
	now     func() time.Time
}

func newPageStore(factory func() *usecase.BookingsPage) *pageStore {
	return &pageStore{pages: make(map[int64]*pageEntry), factory: factory, now: time.Now}
}

func (s *pageStore) ensure(chatID int64) *usecase.BookingsPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.pages[chatID]; ok {
		e.lastUsed = s.now()
		return e.page
	}
	p := s.factory()
	s.pages[chatID] = &pageEntry{page: p, lastUsed: s.now()}
	return p
}

// CloseIdle closes pages unused for longer than ttl.
func (s *pageStore) CloseIdle(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)
	var victims []*usecase.BookingsPage
	s.mu.Lock()
	for id, e := range s.pages {
		if e.lastUsed.After(cutoff) {
			continue
		}
		delete(s.pages, id)
		victims = append(victims, e.page)
	}
	s.mu.Unlock()
	for _, p := range victims {
		p.Close()
	}
	return len(victims)
}

func (s *pageStore) CloseAll() {
	s.mu.Lock()
	all := s.pages
	s.pages = make(map[int64]*pageEntry)
	s.mu.Unlock()
	for _, e := range all {
		e.page.Close()
	}
}

func (s *pageStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}
