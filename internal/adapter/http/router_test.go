package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridianpay/quorum/internal/adapter/http/dto"
	"github.com/meridianpay/quorum/internal/adapter/http/handler"
	apimiddleware "github.com/meridianpay/quorum/internal/adapter/http/middleware"
	memoryRepo "github.com/meridianpay/quorum/internal/adapter/repository/memory"
	postgresRepo "github.com/meridianpay/quorum/internal/adapter/repository/postgres"
	"github.com/meridianpay/quorum/internal/usecase"
)

func newTestRouter(opts ...func(*RouterConfig)) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	entryRepo := memoryRepo.NewEntryRepository()
	outboxRepo := memoryRepo.NewOutboxRepository()
	idGen := postgresRepo.NewULIDGenerator()

	transactionUC := usecase.NewTransactionUseCase(entryRepo, outboxRepo, nil, idGen, logger, time.Hour)
	approvalUC := usecase.NewApprovalUseCase(entryRepo, outboxRepo, idGen, usecase.ApprovalConfig{Logger: logger})

	cfg := RouterConfig{
		TransactionHandler: handler.NewTransactionHandler(transactionUC),
		VoteHandler:        handler.NewVoteHandler(approvalUC, transactionUC),
		HealthHandler:      handler.NewHealthHandler(nil, nil),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return NewRouter(cfg)
}

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := newTestRouter()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := newTestRouter()

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"POST /api/v1/transactions/",
		"GET /api/v1/transactions/",
		"GET /api/v1/transactions/{id}",
		"POST /api/v1/transactions/{id}/votes",
		"GET /api/v1/transactions/{id}/votes",
		"GET /api/v1/approvals/pending",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func TestNewRouter_ApprovalFlow(t *testing.T) {
	router := newTestRouter()

	// Create a transaction needing two approvals
	createBody := `{"kind":"transfer","required_approvals":2,"amount":"2500","currency":"USD","description":"vendor payout"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(createBody)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created dto.TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}

	// First vote leaves it pending
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/api/v1/transactions/"+created.ID+"/votes",
		strings.NewReader(`{"voter_id":"user-1","decision":"approved"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var afterFirst dto.TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &afterFirst); err != nil {
		t.Fatalf("failed to decode vote response: %v", err)
	}
	if afterFirst.Status != "pending" || afterFirst.Version != 1 {
		t.Fatalf("expected pending v1 after one vote, got %+v", afterFirst)
	}

	// The worklist still shows it for a voter who has not voted
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/approvals/pending?voter_id=user-2", nil))

	var pending dto.ListTransactionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &pending); err != nil {
		t.Fatalf("failed to decode pending response: %v", err)
	}
	if len(pending.Transactions) != 1 {
		t.Fatalf("expected one pending approval for user-2, got %d", len(pending.Transactions))
	}

	// Second approval reaches quorum
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/api/v1/transactions/"+created.ID+"/votes",
		strings.NewReader(`{"voter_id":"user-2","decision":"approved"}`)))

	var afterSecond dto.TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &afterSecond); err != nil {
		t.Fatalf("failed to decode vote response: %v", err)
	}
	if afterSecond.Status != "approved" {
		t.Fatalf("expected approved after quorum, got %+v", afterSecond)
	}

	// Votes on a terminal transaction are rejected
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/api/v1/transactions/"+created.ID+"/votes",
		strings.NewReader(`{"voter_id":"user-3","decision":"rejected"}`)))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for vote on terminal transaction, got %d", rec.Code)
	}

	// Vote history survives
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transactions/"+created.ID+"/votes", nil))

	var votes dto.ListVotesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &votes); err != nil {
		t.Fatalf("failed to decode votes response: %v", err)
	}
	if len(votes.Votes) != 2 {
		t.Fatalf("expected 2 votes in history, got %d", len(votes.Votes))
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := newTestRouter(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	})

	body := `{"kind":"transfer","required_approvals":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatal("expected idempotency store to be used")
	}
}

type stubIdempotencyStore struct {
	checkCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}
