package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docquery/internal/errs"
)

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8081", "test-key", "test-model")
	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.BaseURL != "http://localhost:8081" {
		t.Errorf("NewClient() BaseURL = %v, want http://localhost:8081", client.BaseURL)
	}
	if client.APIKey != "test-key" {
		t.Errorf("NewClient() APIKey = %v, want test-key", client.APIKey)
	}
	if client.Model != "test-model" {
		t.Errorf("NewClient() Model = %v, want test-model", client.Model)
	}
	if client.client == nil {
		t.Error("NewClient() client should not be nil")
	}
}

func TestClient_ChatWithMessages(t *testing.T) {
	tests := []struct {
		name       string
		messages   []Message
		serverResp func(t *testing.T, w http.ResponseWriter, r *http.Request)
		wantReply  string
		wantErr    bool
		checkErr   func(error) bool
	}{
		{
			name: "successful chat",
			messages: []Message{
				{Role: "system", Content: "You are helpful."},
				{Role: "user", Content: "Hello"},
			},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/v1/chat/completions" {
					t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
				}
				if !strings.Contains(r.Header.Get("Authorization"), "Bearer") {
					t.Error("missing Authorization header")
				}

				var req ChatRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("failed to decode request: %v", err)
				}
				if len(req.Messages) != 2 {
					t.Errorf("expected 2 messages, got %d", len(req.Messages))
				}

				resp := ChatResponse{
					ID:     "test-id",
					Object: "chat.completion",
					Choices: []ChatChoice{
						{
							Index: 0,
							Message: ChatChoiceMessage{
								Role:    "assistant",
								Content: "Hi there!",
							},
							FinishReason: "stop",
						},
					},
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantReply: "Hi there!",
		},
		{
			name:     "server error becomes upstream error",
			messages: []Message{{Role: "user", Content: "Hello"}},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr:  true,
			checkErr: errs.IsUpstream,
		},
		{
			name:     "no choices becomes upstream error",
			messages: []Message{{Role: "user", Content: "Hello"}},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(ChatResponse{ID: "x"})
			},
			wantErr:  true,
			checkErr: errs.IsUpstream,
		},
		{
			name:     "empty messages rejected",
			messages: nil,
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				t.Error("server should not be called")
			},
			wantErr:  true,
			checkErr: errs.IsValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.serverResp(t, w, r)
			}))
			defer server.Close()

			client := NewClient(server.URL, "test-key", "test-model")
			reply, err := client.ChatWithMessages(context.Background(), tt.messages, ChatParams{})

			if tt.wantErr {
				if err == nil {
					t.Fatal("ChatWithMessages() error = nil, want error")
				}
				if tt.checkErr != nil && !tt.checkErr(err) {
					t.Errorf("error %v has wrong classification", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ChatWithMessages() error = %v", err)
			}
			if reply != tt.wantReply {
				t.Errorf("ChatWithMessages() = %q, want %q", reply, tt.wantReply)
			}
		})
	}
}

func TestClient_ChatWithMessages_MissingKey(t *testing.T) {
	client := NewClient("http://localhost:1", "", "test-model")
	_, err := client.ChatWithMessages(context.Background(), []Message{{Role: "user", Content: "hi"}}, ChatParams{})
	if !errs.IsConfig(err) {
		t.Errorf("error = %v, want configuration error", err)
	}
}

func TestClient_ChatWithMessages_ModelOverride(t *testing.T) {
	var gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		_ = json.NewEncoder(w).Encode(ChatResponse{
			Choices: []ChatChoice{{Message: ChatChoiceMessage{Role: "assistant", Content: "ok"}}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "default-model")

	if _, err := client.ChatWithMessages(context.Background(), []Message{{Role: "user", Content: "hi"}}, ChatParams{}); err != nil {
		t.Fatalf("ChatWithMessages() error = %v", err)
	}
	if gotModel != "default-model" {
		t.Errorf("model = %q, want default-model", gotModel)
	}

	if _, err := client.ChatWithMessages(context.Background(), []Message{{Role: "user", Content: "hi"}}, ChatParams{Model: "override"}); err != nil {
		t.Fatalf("ChatWithMessages() error = %v", err)
	}
	if gotModel != "override" {
		t.Errorf("model = %q, want override", gotModel)
	}
}
