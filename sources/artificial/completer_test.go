package artificial

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"coinsage/sources/metrics"
	"coinsage/sources/repository"
	"coinsage/sources/tracing"

	openrouter "github.com/revrost/go-openrouter"
)

type capturedRequest struct {
	Model          string   `json:"model"`
	Models         []string `json:"models"`
	MaxTokens      int      `json:"max_tokens"`
	ResponseFormat *struct {
		Type       string `json:"type"`
		JSONSchema *struct {
			Name   string `json:"name"`
			Strict bool   `json:"strict"`
		} `json:"json_schema"`
	} `json:"response_format"`
	Usage *struct {
		Include bool `json:"include"`
	} `json:"usage"`
}

func newTestCompleter(t *testing.T, token string, handler http.HandlerFunc) *Completer {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	clientConfig := openrouter.DefaultConfig(token)
	clientConfig.BaseURL = server.URL
	clientConfig.HTTPClient = server.Client()

	return NewCompleter(
		&AdvisorConfig{OpenRouterToken: token},
		openrouter.NewClientWithConfig(*clientConfig),
		metrics.NewMetricsService(tracing.NewConsoleLogger()),
	)
}

func respond(t *testing.T, w http.ResponseWriter, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write([]byte(body)); err != nil {
		t.Errorf("write response: %v", err)
	}
}

func decodeBody(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func TestCompleteWithoutCredential(t *testing.T) {
	var hits int32
	completer := newTestCompleter(t, "", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	})

	_, err := completer.Complete(context.Background(), tracing.NewConsoleLogger(), promptPair("s", "u"), CompletionOptions{
		Task:  TaskDailyInsight,
		Model: "meta-llama/llama-3.3-70b-instruct:free",
	})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 0 {
		t.Fatalf("expected no network call, got %d", got)
	}
}

func TestCompleteRequestShaping(t *testing.T) {
	const reply = `{"id":"gen-1","model":"meta-llama/llama-3.3-70b-instruct:free","choices":[{"message":{"role":"assistant","content":"All clear."}}],"usage":{"total_tokens":42,"cost":0.0015}}`

	tests := []struct {
		name       string
		opts       CompletionOptions
		wantModel  string
		wantModels []string
	}{
		{
			name:      "single model sends no fallback chain",
			opts:      CompletionOptions{Task: TaskDailyInsight, Model: "meta-llama/llama-3.3-70b-instruct:free"},
			wantModel: "meta-llama/llama-3.3-70b-instruct:free",
		},
		{
			name: "fallbacks deduped and capped at three",
			opts: CompletionOptions{
				Task:  TaskDailyInsight,
				Model: "a/one",
				FallbackModels: []string{
					"a/one", "b/two", "c/three", "d/four",
				},
			},
			wantModel:  "a/one",
			wantModels: []string{"a/one", "b/two", "c/three"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured capturedRequest
			completer := newTestCompleter(t, "token", func(w http.ResponseWriter, r *http.Request) {
				if err := decodeBody(r, &captured); err != nil {
					t.Errorf("decode request: %v", err)
				}
				respond(t, w, reply)
			})

			completion, err := completer.Complete(context.Background(), tracing.NewConsoleLogger(), promptPair("s", "u"), tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if captured.Model != tt.wantModel {
				t.Fatalf("model = %q, want %q", captured.Model, tt.wantModel)
			}
			if len(captured.Models) != len(tt.wantModels) {
				t.Fatalf("models = %v, want %v", captured.Models, tt.wantModels)
			}
			for i, model := range tt.wantModels {
				if captured.Models[i] != model {
					t.Fatalf("models[%d] = %q, want %q", i, captured.Models[i], model)
				}
			}
			if captured.Usage == nil || !captured.Usage.Include {
				t.Fatal("expected usage accounting to be requested")
			}
			if completion.Tokens != 42 {
				t.Fatalf("tokens = %d, want 42", completion.Tokens)
			}
		})
	}
}

func TestCompleteResponseFormats(t *testing.T) {
	const reply = `{"id":"gen-1","model":"a/one","choices":[{"message":{"role":"assistant","content":"{}"}}]}`

	t.Run("strict schema", func(t *testing.T) {
		var captured capturedRequest
		completer := newTestCompleter(t, "token", func(w http.ResponseWriter, r *http.Request) {
			if err := decodeBody(r, &captured); err != nil {
				t.Errorf("decode request: %v", err)
			}
			respond(t, w, reply)
		})

		_, err := completer.Complete(context.Background(), tracing.NewConsoleLogger(), promptPair("s", "u"), CompletionOptions{
			Task:       repository.TaskRelevantCoins,
			Model:      "a/one",
			SchemaName: "relevant_coins",
			Schema:     relevantCoinsSchema,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if captured.ResponseFormat == nil || captured.ResponseFormat.Type != "json_schema" {
			t.Fatalf("response_format = %+v, want json_schema", captured.ResponseFormat)
		}
		if captured.ResponseFormat.JSONSchema == nil || !captured.ResponseFormat.JSONSchema.Strict {
			t.Fatal("expected a strict named schema")
		}
	})

	t.Run("json mode", func(t *testing.T) {
		var captured capturedRequest
		completer := newTestCompleter(t, "token", func(w http.ResponseWriter, r *http.Request) {
			if err := decodeBody(r, &captured); err != nil {
				t.Errorf("decode request: %v", err)
			}
			respond(t, w, reply)
		})

		_, err := completer.Complete(context.Background(), tracing.NewConsoleLogger(), promptPair("s", "u"), CompletionOptions{
			Task:     TaskSortCoins,
			Model:    "a/one",
			JSONMode: true,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if captured.ResponseFormat == nil || captured.ResponseFormat.Type != "json_object" {
			t.Fatalf("response_format = %+v, want json_object", captured.ResponseFormat)
		}
	})
}

func TestCompleteOmittedUsage(t *testing.T) {
	completer := newTestCompleter(t, "token", func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, `{"id":"gen-1","model":"a/one","choices":[{"message":{"role":"assistant","content":"Watch the majors today."}}]}`)
	})

	completion, err := completer.Complete(context.Background(), tracing.NewConsoleLogger(), promptPair("s", "u"), CompletionOptions{
		Task:  TaskDailyInsight,
		Model: "a/one",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completion.Tokens <= 0 {
		t.Fatalf("tokens = %d, want an inferred positive count", completion.Tokens)
	}
	if !completion.Cost.IsZero() {
		t.Fatalf("cost = %s, want zero", completion.Cost)
	}
	if completion.Model != "a/one" {
		t.Fatalf("model = %q, want a/one", completion.Model)
	}
}

func TestCompleteEmptyReplies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no choices", `{"id":"gen-1","model":"a/one","choices":[]}`},
		{"blank content", `{"id":"gen-1","model":"a/one","choices":[{"message":{"role":"assistant","content":""}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := newTestCompleter(t, "token", func(w http.ResponseWriter, r *http.Request) {
				respond(t, w, tt.body)
			})

			_, err := completer.Complete(context.Background(), tracing.NewConsoleLogger(), promptPair("s", "u"), CompletionOptions{
				Task:  TaskDailyInsight,
				Model: "a/one",
			})
			if !errors.Is(err, ErrEmptyCompletion) {
				t.Fatalf("expected ErrEmptyCompletion, got %v", err)
			}
		})
	}
}

func TestCompleteProviderFailure(t *testing.T) {
	completer := newTestCompleter(t, "token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		respond(t, w, `{"error":{"code":429,"message":"rate limited"}}`)
	})

	_, err := completer.Complete(context.Background(), tracing.NewConsoleLogger(), promptPair("s", "u"), CompletionOptions{
		Task:  TaskDailyInsight,
		Model: "a/one",
	})

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected a provider error, got %v", err)
	}
}
