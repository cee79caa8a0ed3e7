package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	profileanalysis "github.com/harshal-star/fragrance-chatbot/internal/analysis/profile"
	"github.com/harshal-star/fragrance-chatbot/internal/model/chat"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyMessage    = errors.New("message content is required")
)

// Service owns all conversation state: sessions, transcripts and the profile
// the stylist builds up per user. Everything lives behind one mutex so a
// session's transcript, profile and stage always change together.
type Service struct {
	mu           sync.RWMutex
	systemPrompt string
	sessions     map[string]chat.Session
	messages     map[string][]chat.Message
	now          func() time.Time
}

// NewService bootstraps the in-memory store. Every new session's transcript
// is seeded with systemPrompt as its first message.
func NewService(systemPrompt string) *Service {
	return &Service{
		systemPrompt: systemPrompt,
		sessions:     make(map[string]chat.Session),
		messages:     make(map[string][]chat.Message),
		now:          time.Now,
	}
}

// EnsureSession returns the session for id, creating it on first use. An
// empty id provisions a fresh session with a generated identifier. The
// returned bool reports whether the session was created by this call.
func (s *Service) EnsureSession(_ context.Context, id string) (chat.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if session, ok := s.sessions[id]; ok {
			return session, false, nil
		}
	} else {
		id = uuid.NewString()
	}

	now := s.now().UTC()
	session := chat.Session{
		ID:           id,
		Stage:        chat.StageGreeting,
		CreatedAt:    now,
		LastActivity: now,
	}
	s.sessions[id] = session
	s.messages[id] = []chat.Message{{
		ID:        uuid.NewString(),
		SessionID: id,
		Role:      chat.RoleSystem,
		Content:   s.systemPrompt,
		CreatedAt: now,
	}}

	return session, true, nil
}

// RecordUserMessage appends a user turn, folds the message into the session
// profile and advances the conversation stage. It returns the updated
// session snapshot.
func (s *Service) RecordUserMessage(_ context.Context, sessionID, content string) (chat.Session, error) {
	if content == "" {
		return chat.Session{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}

	now := s.now().UTC()
	idle := now.Sub(session.LastActivity)

	profileanalysis.Extract(content, &session.Profile)
	session.Stage = profileanalysis.NextStage(session.Stage, session.Profile, idle)
	session.LastActivity = now
	s.sessions[sessionID] = session

	s.messages[sessionID] = append(s.messages[sessionID], chat.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      chat.RoleUser,
		Content:   content,
		CreatedAt: now,
	})

	return session, nil
}

// RecordAssistantMessage appends the stylist's reply to the transcript.
func (s *Service) RecordAssistantMessage(_ context.Context, sessionID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}

	s.messages[sessionID] = append(s.messages[sessionID], chat.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      chat.RoleAssistant,
		Content:   content,
		CreatedAt: s.now().UTC(),
	})
	return nil
}

// GetSession retrieves a session snapshot by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Transcript returns a copy of the stored messages for the session, in
// chronological order starting with the system prompt.
func (s *Service) Transcript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}
