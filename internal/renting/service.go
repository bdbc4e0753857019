package renting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/numrent/numrent/internal/balance"
	"github.com/numrent/numrent/internal/catalog"
	"github.com/numrent/numrent/internal/notify"
	"github.com/numrent/numrent/internal/payment"
	"github.com/numrent/numrent/internal/rental"
)

// TopUpRequiredError reports exactly how much credit is missing to cover the
// rental price.
type TopUpRequiredError struct {
	Required int64
}

func (e *TopUpRequiredError) Error() string {
	return fmt.Sprintf("balance short by %d, top up required", e.Required)
}

// Page is one page of the availability listing.
type Page struct {
	Listings []Listing
	Page     int
	HasMore  bool
}

// Service orchestrates rentals across the catalog, ledger, balance store and
// payment rails. Cross-entity operations are not atomic: the policy is
// debit-before-assign with a refund when the assignment fails.
type Service struct {
	catalog  *catalog.Service
	rentals  *rental.Service
	balances balance.Store
	invoices *payment.InvoiceRail
	chain    *payment.ChainRail

	pageSize int
	cache    listingCache
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the renting orchestration and registers cache
// invalidation on catalog and ledger mutations.
func NewService(cat *catalog.Service, rentals *rental.Service, balances balance.Store, invoices *payment.InvoiceRail, chain *payment.ChainRail, pageSize int, logger *slog.Logger) *Service {
	s := &Service{
		catalog:  cat,
		rentals:  rentals,
		balances: balances,
		invoices: invoices,
		chain:    chain,
		pageSize: pageSize,
		logger:   logger,
		now:      time.Now,
	}
	cat.OnChange(s.cache.Invalidate)
	rentals.OnChange(s.cache.Invalidate)
	return s
}

// ListAvailable returns one page of the listing: unrented available
// identities first, then rented ones shown for status, each group in
// registration order. Pages are zero-based and fixed-size.
func (s *Service) ListAvailable(ctx context.Context, page int) (Page, error) {
	if page < 0 {
		page = 0
	}
	entries, err := s.cache.snapshot(func() ([]Listing, error) {
		return s.buildListings(ctx)
	})
	if err != nil {
		return Page{}, err
	}

	start := page * s.pageSize
	if start >= len(entries) {
		return Page{Listings: nil, Page: page, HasMore: false}, nil
	}
	end := start + s.pageSize
	if end > len(entries) {
		end = len(entries)
	}
	return Page{Listings: entries[start:end], Page: page, HasMore: end < len(entries)}, nil
}

func (s *Service) buildListings(ctx context.Context) ([]Listing, error) {
	identities, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.rentals.Active(ctx)
	if err != nil {
		return nil, err
	}
	rented := make(map[string]rental.Rental, len(active))
	for _, rent := range active {
		rented[rent.IdentityID] = rent
	}

	var free, taken []Listing
	for _, identity := range identities {
		if !identity.Available {
			continue
		}
		if rent, ok := rented[identity.ID]; ok {
			taken = append(taken, Listing{Identity: identity, Rented: true, RenterID: rent.RenterID, RentEnd: rent.End()})
			continue
		}
		banned, err := s.catalog.IsBanned(ctx, identity.ID)
		if err != nil || banned {
			continue
		}
		free = append(free, Listing{Identity: identity})
	}
	return append(free, taken...), nil
}

// Rent assigns the identity to the renter for the requested hours, debiting
// the tier price first. When the balance is short, the error reports the
// exact top-up amount the active payment rail must collect.
func (s *Service) Rent(ctx context.Context, identityID, renterID string, hours int) (rental.Rental, error) {
	identity, err := s.catalog.Rentable(ctx, identityID)
	if err != nil {
		return rental.Rental{}, err
	}
	return s.paidAssign(ctx, identity, renterID, hours, false)
}

// Extend adds hours on top of the renter's remaining time, debiting the tier
// price for the added hours.
func (s *Service) Extend(ctx context.Context, identityID, renterID string, hours int) (rental.Rental, error) {
	identity, err := s.catalog.Get(ctx, identityID)
	if err != nil {
		return rental.Rental{}, err
	}
	return s.paidAssign(ctx, identity, renterID, hours, true)
}

func (s *Service) paidAssign(ctx context.Context, identity catalog.Identity, renterID string, hours int, extend bool) (rental.Rental, error) {
	price := identity.PriceFor(hours)

	current, err := s.balances.Get(ctx, renterID)
	if err != nil {
		return rental.Rental{}, err
	}
	if current < price {
		return rental.Rental{}, &TopUpRequiredError{Required: price - current}
	}

	if _, err := s.balances.Debit(ctx, renterID, price); err != nil {
		if errors.Is(err, balance.ErrInsufficientFunds) {
			return rental.Rental{}, &TopUpRequiredError{Required: price - current}
		}
		return rental.Rental{}, err
	}

	rent, err := s.rentals.Assign(ctx, identity.ID, renterID, hours, extend)
	if err != nil {
		// Debit and assignment are not atomic; refund rather than leave the
		// renter charged for a failed assignment.
		if _, refundErr := s.balances.Credit(ctx, renterID, price); refundErr != nil {
			s.logger.Error("refund after failed assignment", "renter_id", renterID, "amount", price, "error", refundErr)
		}
		return rental.Rental{}, err
	}
	return rent, nil
}

// Cancel ends the rental and triggers account deletion asynchronously.
func (s *Service) Cancel(ctx context.Context, identityID string) error {
	return s.rentals.Cancel(ctx, identityID)
}

// Transfer reassigns a rental between renters, preserving remaining time.
func (s *Service) Transfer(ctx context.Context, identityID, fromRenter, toRenter string) (rental.Rental, error) {
	return s.rentals.Transfer(ctx, identityID, fromRenter, toRenter)
}

// Balance returns the renter's credit.
func (s *Service) Balance(ctx context.Context, renterID string) (int64, error) {
	return s.balances.Get(ctx, renterID)
}

// TopUpInvoice starts a hosted-invoice top-up on Rail A.
func (s *Service) TopUpInvoice(ctx context.Context, renterID string, amount int64, msg notify.MessageRef) (payment.InvoiceHandle, error) {
	return s.invoices.RequestTopUp(ctx, renterID, amount, msg)
}

// CheckInvoice performs a user-initiated Rail A status check.
func (s *Service) CheckInvoice(ctx context.Context, renterID, invoiceID string) (payment.InvoiceStatus, error) {
	return s.invoices.Check(ctx, renterID, invoiceID)
}

// TopUpChainOrder registers an on-chain top-up order on Rail B and returns
// the pending order carrying the memo reference token.
func (s *Service) TopUpChainOrder(ctx context.Context, renterID string, amount int64, msg notify.MessageRef) (payment.Pending, error) {
	return s.chain.CreateOrder(ctx, renterID, amount, msg)
}
