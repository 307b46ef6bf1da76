package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/yungbote/pathforge-backend/internal/pkg/errors"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient(t *testing.T, rt roundTripFunc, mutate func(*Config)) Client {
	t.Helper()
	cfg := Config{
		APIKey:         "sk-test",
		BaseURL:        "http://llm.local",
		Model:          "gpt-test",
		EmbedModel:     "embed-test",
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		Temperature:    f64ptr(0.2),
		HTTPClient:     &http.Client{Transport: rt},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := NewClientWithConfig(logger.Nop(), cfg)
	require.NoError(t, err)
	return c
}

func outputText(text string) string {
	b, _ := json.Marshal(map[string]any{
		"output": []any{map[string]any{
			"type": "message",
			"role": "assistant",
			"content": []any{map[string]any{
				"type": "output_text",
				"text": text,
			}},
		}},
	})
	return string(b)
}

func TestEmbedOrdersByIndex(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		return jsonResponse(200, `{"data":[{"index":1,"embedding":[0.5]},{"index":0,"embedding":[0.25]}]}`), nil
	}, nil)

	vecs, err := c.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.25}, {0.5}}, vecs)
}

func TestEmbedMissingIndexIsUpstreamError(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"data":[{"index":0,"embedding":[0.1]}]}`), nil
	}, nil)
	_, err := c.Embed(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, pkgerrors.ErrUpstreamModel)
}

func TestGenerateJSONSendsSchemaAndTemperature(t *testing.T) {
	var got responsesRequest
	base := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		return jsonResponse(200, outputText(`{"items":[]}`)), nil
	}, nil)

	obj, err := WithTemperature(base, 0.4).GenerateJSON(context.Background(), "sys", "usr", "plan", map[string]any{"type": "object"})
	require.NoError(t, err)
	assert.Contains(t, obj, "items")
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.4, *got.Temperature, 1e-9)
	require.NotNil(t, got.Text)
	assert.Equal(t, "json_schema", got.Text.Format["type"])
	assert.Equal(t, "plan", got.Text.Format["name"])
	assert.Equal(t, "sys", got.Input[0].Content)
}

func TestGenerateJSONRecoversFencedOutput(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(200, outputText("```json\n{\"a\": 1,}\n```")), nil
	}, nil)
	obj, err := c.GenerateJSON(context.Background(), "s", "u", "x", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, float64(1), obj["a"])
}

func TestRetriesOnServerErrors(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 3 {
			return jsonResponse(503, `{"error":"busy"}`), nil
		}
		return jsonResponse(200, outputText("hello")), nil
	}, nil)

	text, err := c.GenerateText(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, 3, calls)
}

func TestDoesNotRetryBadRequest(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(400, `{"error":{"message":"bad input"}}`), nil
	}, nil)
	_, err := c.GenerateText(context.Background(), "s", "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrUpstreamModel)
	assert.Equal(t, 1, calls)
}

func TestTemperatureFallback(t *testing.T) {
	var temps []bool
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		var req responsesRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		temps = append(temps, req.Temperature != nil)
		if req.Temperature != nil {
			return jsonResponse(400, `{"error":{"message":"Unsupported parameter: 'temperature' is not supported with this model."}}`), nil
		}
		return jsonResponse(200, outputText("ok")), nil
	}, nil)

	_, err := c.GenerateText(context.Background(), "s", "u")
	require.NoError(t, err)
	_, err = c.GenerateText(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false}, temps)
}

func TestRefusalIsError(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"output":[{"type":"message","role":"assistant","content":[{"type":"refusal","refusal":"no"}]}]}`), nil
	}, nil)
	_, err := c.GenerateJSON(context.Background(), "s", "u", "x", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model refused")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		calls++
		return nil, errors.New("connection refused")
	}, func(cfg *Config) {
		cfg.MaxRetries = 0
		cfg.BreakerFailures = 2
		cfg.BreakerCooldown = time.Minute
	})

	for i := 0; i < 2; i++ {
		_, err := c.GenerateText(context.Background(), "s", "u")
		require.Error(t, err)
	}
	_, err := c.GenerateText(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit open")
	assert.Equal(t, 2, calls)
}

func TestWithModelLeavesBaseUntouched(t *testing.T) {
	var models []string
	base := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		var req responsesRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		models = append(models, req.Model)
		return jsonResponse(200, outputText("ok")), nil
	}, nil)

	_, _ = WithModel(base, "gpt-other").GenerateText(context.Background(), "s", "u")
	_, _ = base.GenerateText(context.Background(), "s", "u")
	assert.Equal(t, []string{"gpt-other", "gpt-test"}, models)
	assert.Equal(t, "gpt-other", ModelName(WithModel(base, "gpt-other")))
	assert.Equal(t, "gpt-test", ModelName(base))
}
