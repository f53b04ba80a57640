// Package issuance drives holders through a proofing graph and issues an
// mDL once they reach its end.
package issuance

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kokukuma/mdoc-issuance/evidence"
	"github.com/kokukuma/mdoc-issuance/proofing"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var (
	ErrSessionNotFound = errors.New("issuance: session not found")
	ErrSessionFinished = errors.New("issuance: session already finished")
)

// Step is one answered node.
type Step struct {
	NodeID   string
	Response evidence.Response
}

type Session struct {
	ID     string
	Status Status
	// NodeID is the node awaiting a response. Empty once finished.
	NodeID    string
	History   []Step
	Error     string
	CreatedAt time.Time
}

func (s *Session) clone() *Session {
	c := *s
	c.History = append([]Step(nil), s.History...)
	return &c
}

type Sessions struct {
	mu       sync.RWMutex
	graph    *proofing.Graph
	sessions map[string]*Session
	logger   zerolog.Logger
}

func NewSessions(graph *proofing.Graph, logger zerolog.Logger) *Sessions {
	return &Sessions{
		graph:    graph,
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// Start opens a session at the graph root and returns it with the root's
// requests.
func (s *Sessions) Start() (*Session, []evidence.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root := s.graph.Root()
	session := &Session{
		ID:        uuid.New().String(),
		Status:    StatusInProgress,
		NodeID:    root.ID(),
		CreatedAt: time.Now(),
	}
	s.sessions[session.ID] = session

	s.logger.Info().Str("session", session.ID).Str("node", root.ID()).Msg("issuance started")
	return session.clone(), root.Requests()
}

func (s *Sessions) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session.clone(), nil
}

// Requests returns what the current node asks of the holder, or nothing
// once the session is finished.
func (s *Sessions) Requests(id string) ([]evidence.Request, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if session.Status != StatusInProgress {
		return nil, nil
	}
	node, ok := s.graph.Lookup(session.NodeID)
	if !ok {
		return nil, fmt.Errorf("issuance: unknown node %q", session.NodeID)
	}
	return node.Requests(), nil
}

// Advance answers the current node. An invalid answer fails the session; a
// response of the wrong kind is rejected and the node can be answered again.
func (s *Sessions) Advance(id string, response evidence.Response) (*Session, []evidence.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, nil, ErrSessionNotFound
	}
	if session.Status != StatusInProgress {
		return session.clone(), nil, ErrSessionFinished
	}

	node, ok := s.graph.Lookup(session.NodeID)
	if !ok {
		return nil, nil, fmt.Errorf("issuance: unknown node %q", session.NodeID)
	}

	logger := s.logger.With().Str("session", id).Str("node", node.ID()).Logger()

	next, err := node.SelectFollowUp(response)
	if proofing.IsInvalidAnswer(err) {
		session.Status = StatusFailed
		session.NodeID = ""
		session.Error = err.Error()
		logger.Warn().Err(err).Msg("issuance failed")
		return session.clone(), nil, err
	}
	if err != nil {
		logger.Debug().Err(err).Msg("response rejected")
		return session.clone(), nil, err
	}

	session.History = append(session.History, Step{NodeID: node.ID(), Response: response})
	if next == nil {
		session.Status = StatusCompleted
		session.NodeID = ""
		logger.Info().Int("steps", len(session.History)).Msg("issuance completed")
		return session.clone(), nil, nil
	}

	session.NodeID = next.ID()
	logger.Debug().Str("next", next.ID()).Msg("advanced")
	return session.clone(), next.Requests(), nil
}
