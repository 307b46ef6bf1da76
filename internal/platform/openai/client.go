package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yungbote/pathforge-backend/internal/observability"
	pkgerrors "github.com/yungbote/pathforge-backend/internal/pkg/errors"
	"github.com/yungbote/pathforge-backend/internal/platform/ctxutil"
	"github.com/yungbote/pathforge-backend/internal/platform/envutil"
	"github.com/yungbote/pathforge-backend/internal/platform/httpx"
	"github.com/yungbote/pathforge-backend/internal/platform/llmjson"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
)

type Client interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbedModel     string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	// Temperature is sent with every generation request; nil omits the parameter.
	Temperature *float64
	// BreakerFailures is the consecutive failure count that opens the circuit; 0 disables it.
	BreakerFailures int
	BreakerCooldown time.Duration
	HTTPClient      *http.Client
}

// ConfigFromEnv reads OPENAI_* variables.
func ConfigFromEnv() (Config, error) {
	apiKey := envutil.String("OPENAI_API_KEY", "")
	if apiKey == "" {
		return Config{}, fmt.Errorf("missing OPENAI_API_KEY")
	}
	cfg := Config{
		APIKey:          apiKey,
		BaseURL:         envutil.String("OPENAI_BASE_URL", "https://api.openai.com"),
		Model:           envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
		EmbedModel:      envutil.String("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		Timeout:         time.Duration(envutil.Int("OPENAI_TIMEOUT_SECONDS", 180)) * time.Second,
		MaxRetries:      envutil.Int("OPENAI_MAX_RETRIES", 4),
		InitialBackoff:  time.Second,
		BreakerFailures: envutil.Int("OPENAI_BREAKER_FAILURES", 5),
		BreakerCooldown: envutil.Duration("OPENAI_BREAKER_COOLDOWN", 30*time.Second),
	}
	switch low := strings.ToLower(envutil.String("OPENAI_TEMPERATURE", "")); low {
	case "off", "none", "false":
	case "":
		cfg.Temperature = f64ptr(0.2)
	default:
		if f, err := strconv.ParseFloat(low, 64); err == nil {
			cfg.Temperature = f64ptr(f)
		} else {
			cfg.Temperature = f64ptr(0.2)
		}
	}
	return cfg, nil
}

func NewClient(log *logger.Logger) (Client, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewClientWithConfig(log, cfg)
}

func NewClientWithConfig(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 180 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	c := &client{
		log:         log.With("service", "OpenAIClient"),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       strings.TrimSpace(cfg.Model),
		embedModel:  strings.TrimSpace(cfg.EmbedModel),
		httpClient:  httpClient,
		maxRetries:  cfg.MaxRetries,
		backoff:     cfg.InitialBackoff,
		temperature: cfg.Temperature,
		noTemp:      &noTempSet{seen: map[string]bool{}},
	}
	if cfg.BreakerFailures > 0 {
		c.breaker = newBreaker(c.log, uint32(cfg.BreakerFailures), cfg.BreakerCooldown)
	}
	return c, nil
}

// WithModel returns a client that uses model for generation calls.
// If model is empty or base is not an OpenAI client, base is returned unchanged.
func WithModel(base Client, model string) Client {
	model = strings.TrimSpace(model)
	c, ok := base.(*client)
	if !ok || model == "" {
		return base
	}
	clone := c.clone()
	clone.model = model
	return clone
}

// ModelName reports the generation model behind c, or "" when c does not expose one.
func ModelName(c Client) string {
	if m, ok := c.(interface{ ModelName() string }); ok {
		return m.ModelName()
	}
	return ""
}

func (c *client) ModelName() string { return c.model }

// WithTemperature returns a client that sends temperature t with generation calls.
func WithTemperature(base Client, t float64) Client {
	c, ok := base.(*client)
	if !ok {
		return base
	}
	clone := c.clone()
	clone.temperature = f64ptr(t)
	return clone
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	embedModel string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration

	temperature *float64
	// noTemp is shared between clones; models that rejected temperature stop receiving it.
	noTemp *noTempSet

	breaker *gobreaker.CircuitBreaker
}

type noTempSet struct {
	mu   sync.RWMutex
	seen map[string]bool
}

func (s *noTempSet) has(model string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seen[strings.ToLower(model)]
}

func (s *noTempSet) add(model string) {
	s.mu.Lock()
	s.seen[strings.ToLower(model)] = true
	s.mu.Unlock()
}

func (c *client) clone() *client {
	cp := *c
	return &cp
}

func newBreaker(log *logger.Logger, failures uint32, cooldown time.Duration) *gobreaker.CircuitBreaker {
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openai",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellations and request-shape errors say nothing about provider health.
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var httpErr *openAIHTTPError
			if errors.As(err, &httpErr) {
				return !httpx.IsRetryableHTTPStatus(httpErr.StatusCode)
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

func f64ptr(v float64) *float64 { return &v }

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, pkgerrors.Truncate(e.Body, 500))
}

func (e *openAIHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func isUnsupportedTemperatureParam(err error) bool {
	var httpErr *openAIHTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadRequest {
		return false
	}
	msg := strings.ToLower(httpErr.Body)
	if !strings.Contains(msg, "temperature") {
		return false
	}
	for _, marker := range []string{"unsupported", "unknown parameter", "unrecognized", "not supported", "does not support", "only the default"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

// do runs the request with retry, behind the circuit breaker, and decodes the body into out.
func (c *client) do(ctx context.Context, method, path, model string, body any, out any) error {
	if c.breaker == nil {
		return c.doWithRetry(ctx, method, path, model, body, out)
	}
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.doWithRetry(ctx, method, path, model, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("openai circuit open: %w", err)
	}
	return err
}

func (c *client) doWithRetry(ctx context.Context, method, path, model string, body any, out any) error {
	backoff := c.backoff
	start := time.Now()
	metrics := observability.Current()

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			in, outTokens := extractUsage(raw)
			metrics.ObserveLLMRequest(model, path, statusFromRespErr(resp, nil), time.Since(start), in, outTokens)
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("openai decode error: %w", uErr)
			}
			return nil
		}
		if !httpx.IsRetryableError(err) || attempt >= c.maxRetries {
			metrics.ObserveLLMRequest(model, path, statusFromRespErr(resp, err), time.Since(start), 0, 0)
			return err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := ctxutil.Sleep(ctx, sleepFor); err != nil {
			return err
		}
		backoff *= 2
	}
}

// -------------------- Embeddings --------------------

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	clean := make([]string, len(inputs))
	for i := range inputs {
		s := strings.TrimSpace(inputs[i])
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	req := embeddingsRequest{Model: c.embedModel, Input: clean}
	var resp embeddingsResponse
	if err := c.do(ctx, http.MethodPost, "/v1/embeddings", c.embedModel, req, &resp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrUpstreamModel, err)
	}

	out := make([][]float32, len(clean))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		out[d.Index] = vec
	}
	for i := range out {
		if len(out[i]) == 0 {
			return nil, pkgerrors.Wrapf(pkgerrors.ErrUpstreamModel,
				"openai embeddings missing index %d: requested=%d returned=%d model=%s", i, len(clean), len(resp.Data), c.embedModel)
		}
	}
	return out, nil
}

// -------------------- Responses API --------------------

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model string         `json:"model"`
	Input []inputMessage `json:"input"`
	Text  *struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type    string `json:"type"`
			Text    string `json:"text,omitempty"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func extractOutputText(resp responsesResponse) (string, string) {
	var out strings.Builder
	refusal := resp.Refusal
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, part := range item.Content {
			switch part.Type {
			case "output_text":
				out.WriteString(part.Text)
			case "refusal":
				if refusal == "" {
					refusal = part.Refusal
				}
			}
		}
	}
	return out.String(), refusal
}

func (c *client) newResponsesRequest(system, user string) *responsesRequest {
	req := &responsesRequest{
		Model: c.model,
		Input: []inputMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	if c.temperature != nil && !c.noTemp.has(c.model) {
		req.Temperature = c.temperature
	}
	return req
}

// respond posts to /v1/responses, retrying once without temperature if the model rejects it.
func (c *client) respond(ctx context.Context, req *responsesRequest) (string, error) {
	var resp responsesResponse
	err := c.do(ctx, http.MethodPost, "/v1/responses", req.Model, req, &resp)
	if err != nil && req.Temperature != nil && isUnsupportedTemperatureParam(err) {
		c.log.Info("model rejected temperature; retrying without it", "model", req.Model)
		c.noTemp.add(req.Model)
		req.Temperature = nil
		resp = responsesResponse{}
		err = c.do(ctx, http.MethodPost, "/v1/responses", req.Model, req, &resp)
	}
	if err != nil {
		return "", err
	}
	text, refusal := extractOutputText(resp)
	if refusal != "" {
		return "", fmt.Errorf("model refused: %s", refusal)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no output_text found in response")
	}
	return text, nil
}

func (c *client) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	if schemaName == "" {
		return nil, errors.New("schemaName required")
	}
	if schema == nil {
		return nil, errors.New("schema required")
	}
	req := c.newResponsesRequest(system, user)
	req.Text = &struct {
		Format map[string]any `json:"format,omitempty"`
	}{Format: map[string]any{
		"type":   "json_schema",
		"name":   schemaName,
		"schema": schema,
		"strict": true,
	}}

	text, err := c.respond(ctx, req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrUpstreamModel, err)
	}
	obj, err := llmjson.DecodeObject(text)
	if err != nil {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrUpstreamModel, "failed to parse model JSON: %v; text=%s", err, pkgerrors.Truncate(text, 300))
	}
	return obj, nil
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	text, err := c.respond(ctx, c.newResponsesRequest(system, user))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.ErrUpstreamModel, err)
	}
	return text, nil
}

func extractUsage(raw []byte) (int, int) {
	var payload struct {
		Usage struct {
			InputTokens      int `json:"input_tokens"`
			OutputTokens     int `json:"output_tokens"`
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &payload) != nil {
		return 0, 0
	}
	u := payload.Usage
	if u.InputTokens == 0 && u.OutputTokens == 0 {
		return u.PromptTokens, u.CompletionTokens
	}
	return u.InputTokens, u.OutputTokens
}

func statusFromRespErr(resp *http.Response, err error) string {
	if resp != nil {
		return strconv.Itoa(resp.StatusCode)
	}
	switch {
	case err == nil:
		return "unknown"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "error"
}
