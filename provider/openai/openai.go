package openai_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/horizon/models"
)

const (
	defaultBaseURL = "https://api.openai.com"
	responsesPath  = "/v1/responses"
)

// HTTPError is returned for any non-2xx answer from the Responses API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

// client implements provider.JobService on top of the Responses API in
// background mode
type client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// tool is a hosted tool enabled for the job
type tool struct {
	Type string `json:"type"`
}

// inputMessage is one role-tagged prompt of a request
type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// request represents a create call to the Responses API
type request struct {
	Model      string            `json:"model"`
	Input      []inputMessage    `json:"input"`
	Tools      []tool            `json:"tools,omitempty"`
	Background bool              `json:"background,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// response represents a Responses API object as returned by create and retrieve
type response struct {
	ID     string              `json:"id"`
	Status string              `json:"status"`
	Output []models.OutputItem `json:"output"`
	Error  *models.JobError    `json:"error"`
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(apiKey, baseURL string, timeout time.Duration) *client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CreateJob submits a background response and returns its id.
func (c *client) CreateJob(ctx context.Context, req models.JobRequest) (string, error) {
	body := request{
		Model:      req.Model,
		Background: req.Background,
		Metadata:   map[string]string{"prompt_id": uuid.NewString()},
	}
	if strings.TrimSpace(req.DeveloperPrompt) != "" {
		body.Input = append(body.Input, inputMessage{Role: "developer", Content: req.DeveloperPrompt})
	}
	body.Input = append(body.Input, inputMessage{Role: "user", Content: req.UserPrompt})
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, tool{Type: t})
	}

	raw, err := c.do(ctx, http.MethodPost, responsesPath, body)
	if err != nil {
		return "", err
	}
	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to parse create response: %w", err)
	}
	if strings.TrimSpace(out.ID) == "" {
		return "", errors.New("create response missing id")
	}
	return out.ID, nil
}

// GetJob fetches the current status of a background response.
func (c *client) GetJob(ctx context.Context, id string) (models.Job, error) {
	if strings.TrimSpace(id) == "" {
		return models.Job{}, errors.New("response id required")
	}
	raw, err := c.do(ctx, http.MethodGet, responsesPath+"/"+url.PathEscape(id), nil)
	if err != nil {
		return models.Job{}, err
	}
	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return models.Job{}, fmt.Errorf("failed to parse status response: %w", err)
	}
	return models.Job{
		ID:     out.ID,
		Status: models.JobStatus(strings.ToLower(strings.TrimSpace(out.Status))),
		Output: out.Output,
		Error:  out.Error,
		Raw:    raw,
	}, nil
}

func (c *client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}
	return raw, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
