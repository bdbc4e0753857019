package payment

import (
	"context"

	"github.com/google/uuid"
)

// StaticInvoiceAPI simulates a hosted invoice provider. Every invoice stays
// pending until cancelled. Useful for development without provider
// credentials.
type StaticInvoiceAPI struct{}

// CreateInvoice returns a synthetic invoice handle.
func (StaticInvoiceAPI) CreateInvoice(_ context.Context, _ int64, _, _ string) (InvoiceHandle, error) {
	id := uuid.NewString()
	return InvoiceHandle{ID: id, URL: "https://pay.example/" + id}, nil
}

// GetInvoice always reports the invoice as pending.
func (StaticInvoiceAPI) GetInvoice(_ context.Context, _ string) (InvoiceStatus, error) {
	return InvoiceStatusPending, nil
}

// CancelInvoice accepts the cancellation.
func (StaticInvoiceAPI) CancelInvoice(_ context.Context, _ string) error {
	return nil
}

// StaticChainAPI simulates a chain explorer with no incoming transactions.
type StaticChainAPI struct{}

// FetchRecentIncoming returns an empty window.
func (StaticChainAPI) FetchRecentIncoming(_ context.Context, _ string, _ int) ([]Transaction, error) {
	return nil, nil
}
