package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clinicdesk/clinicdesk/internal/platform/fault"
)

func completionServer(t *testing.T, reply string, capture *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				t.Fatalf("decode request: %v", err)
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
	}))
}

func TestCompleteReturnsTrimmedReply(t *testing.T) {
	var got chatRequest
	srv := completionServer(t, "  Cardiology\n", &got)
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "test-key", "gpt-3.5-turbo")
	reply, err := c.Complete(context.Background(), Prompt{
		System:      "You are a medical assistant.",
		User:        "chest pain",
		MaxTokens:   50,
		Temperature: 0.3,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if reply != "Cardiology" {
		t.Errorf("reply = %q", reply)
	}
	if got.Model != "gpt-3.5-turbo" {
		t.Errorf("model = %q", got.Model)
	}
	if got.MaxTokens != 50 || got.Temperature != 0.3 {
		t.Errorf("sampling params = %d/%v", got.MaxTokens, got.Temperature)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestCompleteDefaultsMaxTokens(t *testing.T) {
	var got chatRequest
	srv := completionServer(t, "hello", &got)
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "test-key", "gpt-3.5-turbo")
	if _, err := c.Complete(context.Background(), Prompt{User: "hi"}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got.MaxTokens != 500 {
		t.Errorf("max_tokens should default to 500, got %d", got.MaxTokens)
	}
}

func TestCompleteProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "test-key", "gpt-3.5-turbo")
	_, err := c.Complete(context.Background(), Prompt{User: "hi"})
	if fault.KindOf(err) != fault.Unavailable {
		t.Errorf("expected Unavailable, got %v", err)
	}
}

func TestCompleteEmptyReply(t *testing.T) {
	srv := completionServer(t, "   ", nil)
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "test-key", "gpt-3.5-turbo")
	_, err := c.Complete(context.Background(), Prompt{User: "hi"})
	if fault.KindOf(err) != fault.Unavailable {
		t.Errorf("expected Unavailable for empty reply, got %v", err)
	}
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "test-key", "gpt-3.5-turbo")
	_, err := c.Complete(context.Background(), Prompt{User: "hi"})
	if fault.KindOf(err) != fault.Unavailable {
		t.Errorf("expected Unavailable, got %v", err)
	}
}

func TestDisabledAlwaysUnavailable(t *testing.T) {
	_, err := Disabled{}.Complete(context.Background(), Prompt{User: "hi"})
	if fault.KindOf(err) != fault.Unavailable {
		t.Errorf("expected Unavailable, got %v", err)
	}
}
