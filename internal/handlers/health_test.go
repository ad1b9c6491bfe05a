package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"docquery/internal/vectorstore"
	vsmocks "docquery/internal/vectorstore/mocks"
)

func TestHealthHandler_Healthy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	index := vsmocks.NewMockVectorIndex(ctrl)
	index.EXPECT().Stats(gomock.Any()).Return(vectorstore.IndexStats{Status: "Green"}, nil)

	handler := NewHealthHandler(index)
	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", resp.Status)
	}
	if resp.Checks["vector_index"] != "ok" {
		t.Errorf("Checks = %v", resp.Checks)
	}
}

func TestHealthHandler_IndexDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	index := vsmocks.NewMockVectorIndex(ctrl)
	index.EXPECT().Stats(gomock.Any()).Return(vectorstore.IndexStats{}, errors.New("connection refused"))

	handler := NewHealthHandler(index)
	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("Status = %q, want unhealthy", resp.Status)
	}
	if len(resp.Issues) == 0 {
		t.Error("Issues should name the failing dependency")
	}
}
