// Package chat orchestrates the upload, chat, one-shot, and clear flows
// behind the HTTP handlers: extraction, chunking, context assembly, the
// completion call, and best-effort turn logging.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"docuchat/internal/chunker"
	"docuchat/internal/config"
	"docuchat/internal/models"
	"docuchat/internal/prompt"
	"docuchat/internal/service/ai"
	"docuchat/internal/store"
)

// Apology is the user-visible reply when the completion service fails;
// once inputs are valid the chat flow never surfaces a raw fault.
const Apology = "Sorry, I ran into a problem answering that. Please try again in a moment."

var (
	// ErrEmptyExtraction reports an upload whose text extraction
	// produced nothing usable. No record is created for it.
	ErrEmptyExtraction = errors.New("document contains no extractable text")

	// ErrRateLimited reports too many uploads from one session.
	ErrRateLimited = errors.New("upload rate limit exceeded, please retry later")
)

// Completer issues one completion call; ai.Service implements it.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Model() string
}

// Extractor turns uploaded bytes into plain text; extract.Extractor
// implements it.
type Extractor interface {
	Extract(ctx context.Context, data []byte, fileName string) (string, error)
}

// TurnLogger receives completed turns; chatlog.Logger implements it.
type TurnLogger interface {
	Log(turn models.ChatTurn)
}

// Service wires the collaborators together. All methods run within the
// scope of one inbound request.
type Service struct {
	cfg       *config.Config
	completer Completer
	extractor Extractor
	docs      store.DocumentStore
	logger    TurnLogger
	uploads   *rateLimiter
}

func NewService(cfg *config.Config, completer Completer, extractor Extractor, docs store.DocumentStore, logger TurnLogger) *Service {
	return &Service{
		cfg:       cfg,
		completer: completer,
		extractor: extractor,
		docs:      docs,
		logger:    logger,
		uploads:   newRateLimiter(cfg.Document.UploadLimit, cfg.UploadWindow()),
	}
}

// UploadResult reports what a stored upload produced.
type UploadResult struct {
	Summary    string
	ChunkCount int
}

// UploadDocument extracts, chunks, summarizes, and stores one document
// for the session, replacing any previous record. A summary failure
// degrades to an empty summary; an unconfigured provider aborts before
// anything is stored.
func (s *Service) UploadDocument(ctx context.Context, sessionID, fileName string, data []byte) (*UploadResult, error) {
	if !s.uploads.Allow(sessionID) {
		return nil, ErrRateLimited
	}

	text, err := s.extractor.Extract(ctx, data, fileName)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyExtraction, fileName)
	}

	chunks := chunker.Split(text, s.cfg.Document.MaxChunkSize)
	summary, err := s.summarize(ctx, fileName, chunks)
	if err != nil {
		return nil, err
	}

	rec := &models.DocumentRecord{
		FileName:   fileName,
		Chunks:     chunks,
		Summary:    summary,
		UploadTime: time.Now().UTC(),
	}
	if err := s.docs.Put(ctx, sessionID, rec); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}
	return &UploadResult{Summary: summary, ChunkCount: len(chunks)}, nil
}

// Chat answers one message, using the session's document record for
// context when one is active. Turns without an active document go to the
// conversation log; document-grounded turns stay private to the session.
func (s *Service) Chat(ctx context.Context, sessionID, message string) (string, error) {
	rec, err := s.docs.Get(ctx, sessionID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		// A store outage degrades to context-free chat.
		log.Printf("load document record for session %s: %v", sessionID, err)
		rec = nil
	}

	system := prompt.SystemChat
	if rec != nil {
		system = prompt.SystemDocument
	}
	reply, err := s.completer.Complete(ctx, system, prompt.Build(rec, message, s.cfg.Document.ContextChunks))
	if err != nil {
		if errors.Is(err, ai.ErrNotConfigured) {
			return "", err
		}
		log.Printf("chat completion for session %s: %v", sessionID, err)
		return Apology, nil
	}

	if rec == nil {
		s.logger.Log(models.ChatTurn{
			SessionID:      sessionID,
			UserMessage:    message,
			AssistantReply: reply,
			Model:          s.completer.Model(),
			Timestamp:      time.Now().UTC(),
		})
	}
	return reply, nil
}

// ChatWithDocument answers one question about an uploaded file without
// persisting anything. The transient record gets a larger chunk ceiling
// than session chat; the turn is never logged.
func (s *Service) ChatWithDocument(ctx context.Context, sessionID, fileName string, data []byte, message string) (string, error) {
	if !s.uploads.Allow(sessionID) {
		return "", ErrRateLimited
	}

	text, err := s.extractor.Extract(ctx, data, fileName)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyExtraction, fileName)
	}

	rec := &models.DocumentRecord{
		FileName:   fileName,
		Chunks:     chunker.Split(text, s.cfg.Document.MaxChunkSize),
		UploadTime: time.Now().UTC(),
	}
	reply, err := s.completer.Complete(ctx, prompt.SystemDocument, prompt.Build(rec, message, s.cfg.Document.OneShotChunks))
	if err != nil {
		if errors.Is(err, ai.ErrNotConfigured) {
			return "", err
		}
		log.Printf("one-shot completion for %s: %v", fileName, err)
		return Apology, nil
	}
	return reply, nil
}

// ClearDocument drops the session's active record. Clearing a session
// without one succeeds.
func (s *Service) ClearDocument(ctx context.Context, sessionID string) error {
	return s.docs.Delete(ctx, sessionID)
}

// summarize is best effort: a completion failure degrades to an empty
// summary. A missing credential propagates so the caller can report it
// before anything is stored.
func (s *Service) summarize(ctx context.Context, fileName string, chunks []string) (string, error) {
	req := prompt.SummaryRequest(fileName, chunks, s.cfg.Document.SummaryChunks)
	summary, err := s.completer.Complete(ctx, prompt.SystemSummarize, req)
	if err != nil {
		if errors.Is(err, ai.ErrNotConfigured) {
			return "", err
		}
		log.Printf("summarize %s: %v", fileName, err)
		return "", nil
	}
	return strings.TrimSpace(summary), nil
}
