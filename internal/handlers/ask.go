package handlers

import (
	"encoding/json"
	"net/http"

	"docquery/internal/contextutil"
	"docquery/internal/rag"
	"docquery/internal/service"
)

// AskHandler handles HTTP requests for question answering.
type AskHandler struct {
	service service.DocumentService
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(svc service.DocumentService) *AskHandler {
	return &AskHandler{service: svc}
}

// AskRequest represents the HTTP request payload for question answering.
// This mirrors rag.AnswerRequest but is defined here for HTTP layer separation.
type AskRequest struct {
	Question   string    `json:"question"`
	TopK       int       `json:"topK,omitempty"`
	DocumentID string    `json:"documentId,omitempty"`
	History    []AskTurn `json:"history,omitempty"`
}

// AskTurn is one prior conversation turn.
type AskTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AskResponse represents the HTTP response payload for question answering.
type AskResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// ServeHTTP handles HTTP requests for question answering.
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.TopK < 0 {
		req.TopK = 0
	}

	history := make([]rag.Turn, 0, len(req.History))
	for _, turn := range req.History {
		history = append(history, rag.Turn{Role: turn.Role, Content: turn.Content})
	}

	resp, err := h.service.Ask(ctx, rag.AnswerRequest{
		Question:   req.Question,
		TopK:       req.TopK,
		DocumentID: req.DocumentID,
		History:    history,
	})
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to answer question")
		return
	}

	writeJSON(ctx, w, http.StatusOK, AskResponse{
		Answer:  resp.Answer,
		Sources: resp.Sources,
	})
}
