package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/numrent/numrent/internal/balance"
	"github.com/numrent/numrent/internal/notify"
)

// Transaction is an incoming on-chain transfer as reported by the chain API.
// Value is in major currency units.
type Transaction struct {
	Destination string
	Memo        string
	Value       decimal.Decimal
}

// ChainAPI fetches recent incoming transactions for the service address.
type ChainAPI interface {
	FetchRecentIncoming(ctx context.Context, address string, limit int) ([]Transaction, error)
}

// ChainRail reconciles on-chain transfers against pending orders by memo
// reference token. The token is the sole disambiguator between concurrent
// near-equal-amount orders.
type ChainRail struct {
	api       ChainAPI
	orders    PendingRepo
	balances  balance.Store
	notifier  notify.Notifier
	address   string
	tolerance decimal.Decimal
	limit     int
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewChainRail builds the on-chain rail. Tolerance is the accepted relative
// shortfall on the transferred value, e.g. 0.01 for 1%.
func NewChainRail(api ChainAPI, orders PendingRepo, balances balance.Store, notifier notify.Notifier, address string, tolerance float64, limit int, retention time.Duration, logger *slog.Logger) *ChainRail {
	return &ChainRail{
		api:       api,
		orders:    orders,
		balances:  balances,
		notifier:  notifier,
		address:   address,
		tolerance: decimal.NewFromFloat(tolerance),
		limit:     limit,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateOrder registers a pending order with a fresh reference token the
// renter must put in the transfer memo.
func (r *ChainRail) CreateOrder(ctx context.Context, renterID string, amount int64, msg notify.MessageRef) (Pending, error) {
	if amount <= 0 {
		return Pending{}, balance.ErrInvalidAmount
	}
	ref, err := NewReference()
	if err != nil {
		return Pending{}, err
	}
	order := Pending{
		Ref:       ref,
		RenterID:  renterID,
		Amount:    amount,
		Message:   msg,
		CreatedAt: r.now().UTC(),
	}
	if err := r.orders.Put(ctx, order); err != nil {
		return Pending{}, err
	}
	return order, nil
}

// Sweep fetches a bounded window of incoming transactions and settles every
// matching order. Each order credits at most once: the credit removes it from
// the pending set before the next sweep. One bad order never aborts the
// sweep for the others.
func (r *ChainRail) Sweep(ctx context.Context) error {
	orders, err := r.orders.All(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return nil
	}

	txs, err := r.api.FetchRecentIncoming(ctx, r.address, r.limit)
	if err != nil {
		return fmt.Errorf("fetch incoming transactions: %w", err)
	}

	for _, order := range orders {
		tx, ok := r.match(order, txs)
		if !ok {
			continue
		}
		if err := r.settle(ctx, order, tx); err != nil {
			r.logger.Warn("chain sweep item", "order_ref", order.Ref, "error", err)
		}
	}
	return nil
}

// AgeOut removes orders older than the retention window without crediting.
func (r *ChainRail) AgeOut(ctx context.Context) error {
	orders, err := r.orders.All(ctx)
	if err != nil {
		return err
	}
	cutoff := r.now().Add(-r.retention)
	for _, order := range orders {
		if order.CreatedAt.After(cutoff) {
			continue
		}
		if err := r.orders.Delete(ctx, order.Ref); err != nil {
			r.logger.Warn("age out order", "order_ref", order.Ref, "error", err)
		}
	}
	return nil
}

// match finds the first transaction satisfying all three predicates:
// destination resolves to the service address, the memo carries the order's
// reference token, and the value covers the expected amount minus tolerance.
func (r *ChainRail) match(order Pending, txs []Transaction) (Transaction, bool) {
	minMinor := decimal.NewFromInt(order.Amount).Mul(decimal.NewFromInt(1).Sub(r.tolerance))
	for _, tx := range txs {
		if normalizeAddress(tx.Destination) != normalizeAddress(r.address) {
			continue
		}
		if !strings.Contains(tx.Memo, order.Ref) {
			continue
		}
		if tx.Value.Shift(2).Cmp(minMinor) < 0 {
			continue
		}
		return tx, true
	}
	return Transaction{}, false
}

// settle credits the order's recorded amount, not the on-chain value, to
// avoid cross-source decimal drift.
func (r *ChainRail) settle(ctx context.Context, order Pending, tx Transaction) error {
	if _, err := r.balances.Credit(ctx, order.RenterID, order.Amount); err != nil {
		return fmt.Errorf("credit order %s: %w", order.Ref, err)
	}
	if err := r.orders.Delete(ctx, order.Ref); err != nil {
		return err
	}
	text := fmt.Sprintf("Transfer %s received, balance topped up by %d.", tx.Value.String(), order.Amount)
	if err := r.notifier.EditMessage(ctx, order.Message, text); err != nil {
		r.logger.Warn("order notification", "order_ref", order.Ref, "error", err)
	}
	return nil
}

// normalizeAddress makes the destination comparison insensitive to common
// formatting differences between chain explorers.
func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	addr = strings.ReplaceAll(addr, " ", "")
	return strings.ToLower(addr)
}
