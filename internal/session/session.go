// Package session keeps per-user conversation state in memory. State lives
// for the lifetime of the process; a restart simply drops users back to the
// main menu on their next message.
package session

import (
	"sync"

	"cvbot_backend/internal/i18n"
	"cvbot_backend/internal/profile"
)

// Phase is the coarse position of a user inside the conversation.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLanguage
	PhaseMenu
	PhasePersonal
	PhaseImage
	PhaseImageMenu
	PhaseWork
	PhaseEducation
	PhaseSkills
	PhaseCareerObjective
	PhaseCertifications
	PhaseProjects
	PhaseLanguages
	PhaseActivities
	PhaseSummary
	PhaseEditMenu
	PhaseAwaitingEvidence
)

// Session is the full conversation state for one user. Callers must hold the
// session lock while reading or mutating it; the order-notification path
// relies on that lock for its check-then-set.
type Session struct {
	mu sync.Mutex

	UserID int64
	ChatID int64
	Lang   i18n.Lang

	Phase    Phase
	FieldIdx int
	Item     []string // answers collected so far for the current list item

	Profile *profile.Profile

	ActiveOrderID string
	Notified      bool
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Draft returns the profile under construction, creating it on first use.
func (s *Session) Draft() *profile.Profile {
	if s.Profile == nil {
		s.Profile = &profile.Profile{TelegramUserID: s.UserID}
	}
	return s.Profile
}

// ResetFlow clears wizard progress and any pending order, keeping the
// language choice so the user is not asked again.
func (s *Session) ResetFlow() {
	s.Phase = PhaseIdle
	s.FieldIdx = 0
	s.Item = nil
	s.Profile = nil
	s.ActiveOrderID = ""
	s.Notified = false
}

// Store is a concurrency-safe registry of sessions keyed by Telegram user id.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Get returns the session for a user, creating one if none exists.
func (s *Store) Get(userID int64) *Session {
	s.mu.RLock()
	sess, ok := s.sessions[userID]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess
	}
	sess = &Session{UserID: userID, Lang: i18n.LangEnglish}
	s.sessions[userID] = sess
	return sess
}

// Peek returns the session for a user without creating one.
func (s *Store) Peek(userID int64) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// Delete removes a session entirely.
func (s *Store) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Snapshot returns the current sessions. The slice is a copy; the sessions
// themselves are shared and must be locked before use.
func (s *Store) Snapshot() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}
