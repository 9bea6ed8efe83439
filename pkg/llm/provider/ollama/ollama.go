package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/logger"
)

const (
	// DefaultEndpoint is the generate route of a local Ollama server.
	DefaultEndpoint = "http://localhost:11434/api/generate"

	// DefaultTimeout bounds a single generation call.
	DefaultTimeout = 120 * time.Second

	providerName = "ollama"
	tagsPath     = "/api/tags"
)

// Config holds configuration for the Ollama client.
type Config struct {
	// Endpoint is the full generate URL (e.g., "http://localhost:11434/api/generate").
	// Defaults to DefaultEndpoint if empty.
	Endpoint string

	// Timeout bounds each call. Defaults to DefaultTimeout if zero.
	Timeout time.Duration

	// Stream requests incremental output from the server. The client still
	// returns the whole completion once the stream is done.
	Stream bool

	// Logger is optional, defaults to a no-op logger
	Logger *slog.Logger
}

// Client sends prompts to an Ollama server.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Ollama client, filling unset config fields with defaults.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	return &Client{
		config: cfg,
		logger: cfg.Logger,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *Client) Name() string {
	return providerName
}

// Endpoint returns the configured generate URL.
func (c *Client) Endpoint() string {
	return c.config.Endpoint
}

// Timeout returns the per-call timeout applied to the HTTP client.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// Invoke sends the user message on top of the history to the model and
// returns the text to display. It never fails: transport errors, non-200
// statuses and malformed bodies all come back as human-readable strings.
func (c *Client) Invoke(ctx context.Context, message, model string, history []llm.Turn) string {
	return c.Chat(ctx, message, model, history).String()
}

// Chat is Invoke with the tagged result.
func (c *Client) Chat(ctx context.Context, message, model string, history []llm.Turn) llm.Result {
	return c.Generate(ctx, llm.NewGenerateRequest(model, message, history, c.config.Stream))
}

// Generate posts a single request to the generate endpoint.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) llm.Result {
	if ctx == nil {
		ctx = context.Background()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return llm.RequestFailed(err)
	}

	c.logger.Debug("sending generate request",
		"endpoint", c.config.Endpoint,
		"model", req.Model,
		"stream", req.Stream,
		"prompt_bytes", len(req.Prompt),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return llm.RequestFailed(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("generate request failed", "error", err)
		return llm.RequestFailed(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Debug("generate request returned non-200", "status", resp.StatusCode)
		return llm.HTTPStatus(resp.StatusCode)
	}

	if req.Stream {
		return readStream(resp.Body)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return llm.RequestFailed(fmt.Errorf("decoding response: %w", err))
	}

	if genResp.Response == nil {
		return llm.MissingResponse()
	}

	return llm.Success(*genResp.Response)
}

// readStream concatenates the response field of every NDJSON chunk until
// the server reports done.
func readStream(r io.Reader) llm.Result {
	var (
		full strings.Builder
		seen bool
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var chunk generateResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return llm.RequestFailed(fmt.Errorf("decoding stream chunk: %w", err))
		}

		if chunk.Response != nil {
			seen = true
			full.WriteString(*chunk.Response)
		}

		if chunk.Done {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return llm.RequestFailed(fmt.Errorf("reading stream: %w", err))
	}

	if !seen {
		return llm.MissingResponse()
	}

	return llm.Success(full.String())
}

// Tags lists the models installed on the server.
func (c *Client) Tags(ctx context.Context) ([]string, error) {
	tagsURL, err := c.tagsURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tagsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}

	return names, nil
}

// tagsURL derives the tags route from the configured generate endpoint.
func (c *Client) tagsURL() (string, error) {
	u, err := url.Parse(c.config.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing endpoint: %w", err)
	}

	u.Path = tagsPath
	u.RawQuery = ""
	return u.String(), nil
}
