package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/mohammad-safakhou/horizon/config"
	"github.com/mohammad-safakhou/horizon/models"
	openai_provider "github.com/mohammad-safakhou/horizon/provider/openai"
)

// Client represents different generative providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
	Gemini    Client = "gemini"
)

// JobService is the boundary to a generative service that runs long jobs in
// the background: create once, then fetch status until terminal.
type JobService interface {
	CreateJob(ctx context.Context, req models.JobRequest) (string, error)
	GetJob(ctx context.Context, id string) (models.Job, error)
}

var ErrMissingAPIKey = errors.New("generative service api key not set")

// NewProvider creates a job service for the configured client
func NewProvider(cfg config.LLMConfig) (JobService, error) {
	switch Client(strings.ToLower(strings.TrimSpace(cfg.Provider))) {
	case OpenAI, "":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, ErrMissingAPIKey
		}
		return openai_provider.NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	case Gemini:
		return nil, errors.New("gemini client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
