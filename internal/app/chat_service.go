package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"legalrag/internal/model"
	"legalrag/internal/rag"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrSessionNotFound = errors.New("session not found")
	ErrNotFound        = errors.New("message not found")
)

// SessionStore and MessageStore are the persistence collaborator. The
// concrete gorm repositories satisfy them; tests use in-memory fakes.
type SessionStore interface {
	Create(session *model.ChatSession) error
	GetByID(id uint) (*model.ChatSession, error)
	List() ([]model.ChatSession, error)
	Touch(id uint) error
}

type MessageStore interface {
	Create(message *model.ChatMessage) error
	GetByID(id uint) (*model.ChatMessage, error)
	ListBySessionID(sessionID uint) ([]model.ChatMessage, error)
}

// HistoryCache is the optional read-path cache for session history.
type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID uint) ([]model.ChatMessage, bool, error)
	SetHistory(ctx context.Context, sessionID uint, messages []model.ChatMessage) error
	DeleteHistory(ctx context.Context, sessionID uint) error
	MarkDirty(ctx context.Context, sessionID uint) error
	IsDirty(ctx context.Context, sessionID uint) (bool, error)
}

// RetrievalOptions are the per-deployment retrieval knobs. MinScore is
// deliberately a configured value, not a constant: call sites in this
// system use different floors.
type RetrievalOptions struct {
	TopK         int
	MinScore     float64
	SnippetChars int
}

// ChatService orchestrates one conversational turn: retrieve, compose,
// generate, cite, persist. It is the final error backstop; a user-facing
// turn always completes with an answer.
type ChatService struct {
	sessions     SessionStore
	messages     MessageStore
	retriever    rag.Retriever
	composer     *rag.Composer
	generator    *rag.Generator
	historyCache HistoryCache
	opts         RetrievalOptions
}

func NewChatService(
	sessions SessionStore,
	messages MessageStore,
	retriever rag.Retriever,
	composer *rag.Composer,
	generator *rag.Generator,
	historyCache HistoryCache,
	opts RetrievalOptions,
) *ChatService {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.SnippetChars <= 0 {
		opts.SnippetChars = 200
	}
	return &ChatService{
		sessions:     sessions,
		messages:     messages,
		retriever:    retriever,
		composer:     composer,
		generator:    generator,
		historyCache: historyCache,
		opts:         opts,
	}
}

type CreateSessionInput struct {
	Title   string
	Domains []string
}

func (s *ChatService) CreateSession(input CreateSessionInput) (*model.ChatSession, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "Ny samtale"
	}
	session := &model.ChatSession{Title: title}
	session.SetDomains(input.Domains)
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatService) ListSessions() ([]model.ChatSession, error) {
	return s.sessions.List()
}

type TurnInput struct {
	SessionID uint
	Query     string
	Domains   []string // overrides the session's domain filter when set
}

// ProcessTurn runs the full pipeline for one user question and returns
// the persisted user and assistant messages. Retrieval and generation
// failures are absorbed here and become a terminal-fallback answer with
// no citations; the caller never sees a raw pipeline error.
func (s *ChatService) ProcessTurn(ctx context.Context, input TurnInput) (*model.ChatMessage, *model.ChatMessage, error) {
	if input.SessionID == 0 {
		return nil, nil, ErrInvalidInput
	}
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, nil, ErrInvalidInput
	}

	session, err := s.sessions.GetByID(input.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, ErrSessionNotFound
	}

	s.invalidateHistory(ctx, session.ID)

	userMessage := &model.ChatMessage{
		SessionID: session.ID,
		Role:      model.RoleUser,
		Content:   query,
		CreatedAt: time.Now(),
	}
	if err := s.messages.Create(userMessage); err != nil {
		return nil, nil, err
	}

	domains := input.Domains
	if len(domains) == 0 {
		domains = session.Domains()
	}

	assistantMessage, err := s.answer(ctx, session.ID, query, domains)
	if err != nil {
		return nil, nil, err
	}
	return userMessage, assistantMessage, nil
}

// RegenerateTurn re-answers a prior question. The target must be an
// assistant message immediately preceded by a user message in the same
// session; anything else is ErrNotFound. The original message is left
// untouched and the new answer is appended, keeping the full audit trail.
func (s *ChatService) RegenerateTurn(ctx context.Context, assistantMessageID uint, domains []string) (*model.ChatMessage, error) {
	if assistantMessageID == 0 {
		return nil, ErrInvalidInput
	}

	target, err := s.messages.GetByID(assistantMessageID)
	if err != nil {
		return nil, err
	}
	if target == nil || target.Role != model.RoleAssistant {
		return nil, ErrNotFound
	}

	history, err := s.messages.ListBySessionID(target.SessionID)
	if err != nil {
		return nil, err
	}
	var preceding *model.ChatMessage
	for i := range history {
		if history[i].ID == target.ID {
			if i > 0 {
				preceding = &history[i-1]
			}
			break
		}
	}
	if preceding == nil || preceding.Role != model.RoleUser {
		return nil, ErrNotFound
	}

	if len(domains) == 0 {
		if session, err := s.sessions.GetByID(target.SessionID); err == nil && session != nil {
			domains = session.Domains()
		}
	}

	s.invalidateHistory(ctx, target.SessionID)
	return s.answer(ctx, target.SessionID, preceding.Content, domains)
}

// answer runs retrieve → compose → generate → cite → persist. The same
// candidate slice feeds both the composer and the citation builder, so
// the provisions cited are exactly the provisions the model saw.
func (s *ChatService) answer(ctx context.Context, sessionID uint, query string, domains []string) (*model.ChatMessage, error) {
	var content string
	var citations []model.Citation

	candidates, err := s.retriever.Retrieve(ctx, query, domains, s.opts.TopK, s.opts.MinScore)
	if err != nil {
		log.Printf("chat: retrieval degraded for session %d: %v", sessionID, err)
		content = s.generator.FallbackAnswer()
	} else {
		prompt := s.composer.Compose(query, candidates)
		content = s.generator.Generate(ctx, prompt)
		citations = rag.BuildCitations(candidates, s.opts.SnippetChars)
	}

	// A cancelled turn is abandoned without a persisted answer.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	assistantMessage := &model.ChatMessage{
		SessionID: sessionID,
		Role:      model.RoleAssistant,
		Content:   content,
		Citations: citations,
		CreatedAt: time.Now(),
	}
	if err := s.messages.Create(assistantMessage); err != nil {
		return nil, err
	}
	if err := s.sessions.Touch(sessionID); err != nil {
		log.Printf("chat: touch session %d failed: %v", sessionID, err)
	}
	return assistantMessage, nil
}

// GetHistory returns the session's messages in creation order, serving
// from the cache when it is present and clean.
func (s *ChatService) GetHistory(ctx context.Context, sessionID uint) ([]model.ChatMessage, error) {
	if sessionID == 0 {
		return nil, ErrInvalidInput
	}
	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, sessionID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, sessionID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	messages, err := s.messages.ListBySessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, sessionID, messages)
		}
	}
	return messages, nil
}

func (s *ChatService) invalidateHistory(ctx context.Context, sessionID uint) {
	if s.historyCache == nil {
		return
	}
	_ = s.historyCache.MarkDirty(ctx, sessionID)
	_ = s.historyCache.DeleteHistory(ctx, sessionID)
}
