package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/meridianpay/quorum/internal/adapter/http/dto"
	"github.com/meridianpay/quorum/internal/domain"
	"github.com/meridianpay/quorum/internal/usecase"
)

type transactionServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateTransactionInput) (*domain.TransactionEntry, error)
	getFn    func(ctx context.Context, id string) (*domain.TransactionEntry, error)
	listFn   func(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.TransactionEntry, error)
}

func (s *transactionServiceStub) CreateTransaction(ctx context.Context, input usecase.CreateTransactionInput) (*domain.TransactionEntry, error) {
	return s.createFn(ctx, input)
}

func (s *transactionServiceStub) GetTransaction(ctx context.Context, id string) (*domain.TransactionEntry, error) {
	return s.getFn(ctx, id)
}

func (s *transactionServiceStub) ListTransactions(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.TransactionEntry, error) {
	return s.listFn(ctx, input)
}

func sampleEntry(id string) *domain.TransactionEntry {
	now := time.Now().UTC()
	return &domain.TransactionEntry{
		ID:                id,
		Kind:              domain.TransactionKindTransfer,
		Amount:            decimal.NewFromInt(100),
		Currency:          "USD",
		RequiredApprovals: 2,
		Votes:             []domain.Vote{},
		Status:            domain.TransactionStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestTransactionHandler_Create_Success(t *testing.T) {
	entry := sampleEntry("tx-1")

	var captured usecase.CreateTransactionInput
	h := NewTransactionHandler(&transactionServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateTransactionInput) (*domain.TransactionEntry, error) {
			captured = input
			return entry, nil
		},
	})

	body, _ := json.Marshal(dto.CreateTransactionRequest{
		Kind:              "transfer",
		RequiredApprovals: 2,
		Amount:            decimal.NewFromInt(100),
		Currency:          "USD",
	})

	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.Kind != domain.TransactionKindTransfer || captured.RequiredApprovals != 2 {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "tx-1" {
		t.Fatalf("expected transaction ID tx-1, got %s", resp.ID)
	}
}

func TestTransactionHandler_Create_InvalidJSON(t *testing.T) {
	h := NewTransactionHandler(&transactionServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateTransactionInput) (*domain.TransactionEntry, error) {
			t.Fatal("CreateTransaction should not be called for invalid payload")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString("{invalid json"))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTransactionHandler_Create_ValidationError(t *testing.T) {
	h := NewTransactionHandler(&transactionServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateTransactionInput) (*domain.TransactionEntry, error) {
			return nil, domain.ErrInvalidThreshold
		},
	})

	body, _ := json.Marshal(dto.CreateTransactionRequest{Kind: "transfer"})
	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTransactionHandler_Get_NotFound(t *testing.T) {
	h := NewTransactionHandler(&transactionServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.TransactionEntry, error) {
			return nil, domain.ErrTransactionNotFound
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/transactions/missing", nil)
	req = setChiURLParam(req, "id", "missing")
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTransactionHandler_Get_Success(t *testing.T) {
	h := NewTransactionHandler(&transactionServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.TransactionEntry, error) {
			if id != "tx-1" {
				t.Fatalf("expected id tx-1, got %s", id)
			}
			return sampleEntry("tx-1"), nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/transactions/tx-1", nil)
	req = setChiURLParam(req, "id", "tx-1")
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestTransactionHandler_List(t *testing.T) {
	var captured usecase.ListTransactionsInput
	h := NewTransactionHandler(&transactionServiceStub{
		listFn: func(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.TransactionEntry, error) {
			captured = input
			return []*domain.TransactionEntry{sampleEntry("tx-1"), sampleEntry("tx-2")}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/transactions?status=pending&limit=5", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.Status != domain.TransactionStatusPending || captured.Limit != 5 {
		t.Fatalf("expected status filter to propagate, got %+v", captured)
	}

	var resp dto.ListTransactionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(resp.Transactions))
	}
}

func TestTransactionHandler_List_ServiceError(t *testing.T) {
	h := NewTransactionHandler(&transactionServiceStub{
		listFn: func(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.TransactionEntry, error) {
			return nil, errors.New("db error")
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func setChiURLParam(r *http.Request, key, value string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, &chi.Context{
		URLParams: chi.RouteParams{
			Keys:   []string{key},
			Values: []string{value},
		},
	}))
}
