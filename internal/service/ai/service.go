// Package ai wraps the hosted completion providers behind a single
// prompt-in, text-out call. Provider failures come back as ServiceError;
// a missing credential is reported per request, not at startup.
package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"docuchat/internal/config"
)

// ErrNotConfigured is returned before any network call when the selected
// provider has no API key.
var ErrNotConfigured = errors.New("completion provider not configured")

// ServiceError wraps a transport or API failure from the completion call.
type ServiceError struct {
	Provider string
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// generator is the one chat-model method the service needs; tests swap in
// a scripted implementation.
type generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Service issues completion calls against the configured provider.
type Service struct {
	provider  string
	modelName string
	chatModel generator
}

// NewService builds the provider client. A missing API key is not an
// error here; Complete reports ErrNotConfigured per request so the
// server still starts and serves diagnostics.
func NewService(cfg *config.Config) (*Service, error) {
	prov := cfg.Active()
	s := &Service{provider: cfg.Provider, modelName: prov.Model}
	if prov.APIKey == "" {
		return s, nil
	}

	var (
		chatModel model.ToolCallingChatModel
		err       error
	)
	switch cfg.Provider {
	case "openai":
		chatModel, err = openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
			BaseURL: prov.BaseURL,
			Model:   prov.Model,
			APIKey:  prov.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: prov.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("init gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(context.Background(), &gemini.Config{
			Client: client,
			Model:  prov.Model,
		})
	case "claude":
		var baseURLPtr *string
		if prov.BaseURL != "" {
			baseURLPtr = &prov.BaseURL
		}
		chatModel, err = claude.NewChatModel(context.Background(), &claude.Config{
			APIKey:    prov.APIKey,
			Model:     prov.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: 3000,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", cfg.Provider, err)
	}

	s.chatModel = chatModel
	return s, nil
}

// Complete sends one system+user prompt pair and returns the generated
// text. Failures of the external call come back as *ServiceError.
func (s *Service) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if s.chatModel == nil {
		return "", fmt.Errorf("%w: no API key for provider %s", ErrNotConfigured, s.provider)
	}
	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: userPrompt},
	}
	resp, err := s.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", &ServiceError{Provider: s.provider, Err: err}
	}
	return resp.Content, nil
}

// Provider names the active provider.
func (s *Service) Provider() string { return s.provider }

// Model names the active model, for diagnostics and turn logging.
func (s *Service) Model() string { return s.modelName }
