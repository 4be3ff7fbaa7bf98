package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/armyverse/army-number-service/internal/domain"
	"github.com/armyverse/army-number-service/internal/metrics"
	"github.com/armyverse/army-number-service/internal/repository"
)

// NumberService owns the business operations around membership numbers:
// quoting, claiming, ownership verification, and the admin surface.
type NumberService struct {
	store    repository.Store
	payments PaymentCapturer
	metrics  *metrics.Metrics
	now      func() time.Time
	strict   bool
}

type ServiceOption func(*NumberService)

// WithServiceClock injects the time source used for purchase timestamps.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *NumberService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIdentityUniqueness enables rejecting registrations whose email already
// owns a sold number.
func WithIdentityUniqueness(strict bool) ServiceOption {
	return func(s *NumberService) {
		s.strict = strict
	}
}

func NewNumberService(store repository.Store, payments PaymentCapturer, m *metrics.Metrics, opts ...ServiceOption) *NumberService {
	s := &NumberService{
		store:    store,
		payments: payments,
		metrics:  m,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Search classifies and prices a candidate number and reports whether it is
// still available. Absence of a registry record means available.
func (s *NumberService) Search(ctx context.Context, raw string) (*SearchResult, error) {
	number, err := domain.NormalizeNumber(raw)
	if err != nil {
		return nil, err
	}
	s.metrics.IncSearches()

	tier := domain.Classify(number)
	result := &SearchResult{
		Number: number,
		Status: domain.StatusAvailable,
		Tier:   tier,
		Price:  domain.Price(tier, s.pricing(ctx)),
	}

	if _, err := s.store.GetNumber(ctx, number); err == nil {
		result.Status = domain.StatusSold
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return result, nil
}

// Claim runs one purchase attempt through the whole protocol: gate check,
// availability snapshot, payment capture, registration, and the final atomic
// claim.
func (s *NumberService) Claim(ctx context.Context, req ClaimRequest) (*domain.ArmyNumber, error) {
	s.metrics.IncClaimAttempts()

	flow := NewClaimFlow(s.store, s.payments,
		WithClock(s.now),
		WithStrictIdentity(s.strict),
	)

	if err := flow.PassGate(s.eventConfig(ctx), req.GateAnswer); err != nil {
		return nil, err
	}
	if err := flow.SelectNumber(ctx, req.Number, s.pricing(ctx)); err != nil {
		if errors.Is(err, domain.ErrNumberSold) {
			s.metrics.IncClaimConflicts()
		}
		return nil, err
	}
	if err := flow.CapturePayment(ctx, req.OrderID); err != nil {
		if flow.RefundRequired() {
			s.metrics.IncRefundsRequired()
			log.Printf("REFUND REQUIRED: number %s claimed during payment, order %s", flow.Number(), req.OrderID)
		}
		return nil, err
	}
	if err := flow.SubmitRegistration(ctx, req.Registration); err != nil {
		flow.Abort()
		return nil, err
	}

	record, err := flow.Finalize(ctx)
	if err != nil {
		if flow.RefundRequired() {
			s.metrics.IncRefundsRequired()
			s.metrics.IncClaimConflicts()
			log.Printf("REFUND REQUIRED: number %s claimed after payment, tx %s", flow.Number(), req.OrderID)
		}
		return nil, err
	}

	s.metrics.IncNumbersSold()
	return &record, nil
}

// VerifyOwnership matches a number against its registered owner email,
// case-insensitively, and returns the certificate record on success.
func (s *NumberService) VerifyOwnership(ctx context.Context, rawNumber, email string) (*domain.ArmyNumber, error) {
	number, err := domain.NormalizeNumber(rawNumber)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(email) == "" {
		return nil, domain.ErrOwnershipMismatch
	}

	record, err := s.store.GetNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(record.OwnerEmail, strings.TrimSpace(email)) {
		return nil, domain.ErrOwnershipMismatch
	}
	return &record, nil
}

// CertificatesByEmail lists every number registered to an email, newest
// first, for the certificate wall.
func (s *NumberService) CertificatesByEmail(ctx context.Context, email string) ([]domain.ArmyNumber, error) {
	if strings.TrimSpace(email) == "" {
		return nil, domain.ErrOwnershipMismatch
	}
	return s.store.ListByOwnerEmail(ctx, strings.TrimSpace(email))
}

type ListQuery struct {
	Search string
	Limit  int
	Offset int
}

type NumberPage struct {
	Numbers []domain.ArmyNumber `json:"numbers"`
	Total   int64               `json:"total"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
}

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// ListNumbers is the admin query: filter over number/owner/email with
// consistent pagination.
func (s *NumberService) ListNumbers(ctx context.Context, q ListQuery) (*NumberPage, error) {
	if q.Limit <= 0 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	total, err := s.store.CountSold(ctx, q.Search)
	if err != nil {
		return nil, err
	}
	numbers, err := s.store.ListSold(ctx, repository.ListParams{
		Search: q.Search,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		return nil, err
	}
	if numbers == nil {
		numbers = []domain.ArmyNumber{}
	}
	return &NumberPage{Numbers: numbers, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

// DeleteNumber is the admin override that returns a number to the pool. It
// does not touch payments; any refund is the operator's problem.
func (s *NumberService) DeleteNumber(ctx context.Context, rawNumber string) error {
	number, err := domain.NormalizeNumber(rawNumber)
	if err != nil {
		return err
	}
	rows, err := s.store.DeleteNumber(ctx, number)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	log.Printf("admin released number %s back to the pool", number)
	return nil
}

// Pricing returns the effective table: stored overrides overlaid on the
// defaults, so every tier always has a price.
func (s *NumberService) Pricing(ctx context.Context) domain.PricingConfig {
	merged := make(domain.PricingConfig, len(domain.Tiers))
	stored := s.pricing(ctx)
	for _, tier := range domain.Tiers {
		merged[tier] = domain.Price(tier, stored)
	}
	return merged
}

func (s *NumberService) UpdatePricing(ctx context.Context, cfg domain.PricingConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.store.SetPricing(ctx, cfg)
}

// EventConfig returns the stored gate configuration, falling back to the
// built-in event when none has been saved yet.
func (s *NumberService) EventConfig(ctx context.Context) domain.EventConfig {
	return s.eventConfig(ctx)
}

func (s *NumberService) UpdateEventConfig(ctx context.Context, cfg domain.EventConfig) error {
	if strings.TrimSpace(cfg.AuthAnswer) == "" {
		return domain.ErrBadEventConfig
	}
	if cfg.MemberEntryMin < 0 || cfg.MemberEntryMax < cfg.MemberEntryMin {
		return domain.ErrBadEventConfig
	}
	return s.store.SetEventConfig(ctx, cfg)
}

// pricing reads the stored table; any read failure falls back to defaults so
// searching stays available when settings are missing or unreadable.
func (s *NumberService) pricing(ctx context.Context) domain.PricingConfig {
	cfg, err := s.store.GetPricing(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Printf("pricing config read failed, using defaults: %v", err)
		}
		return nil
	}
	return cfg
}

func (s *NumberService) eventConfig(ctx context.Context) domain.EventConfig {
	cfg, err := s.store.GetEventConfig(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Printf("event config read failed, using fallback: %v", err)
		}
		return domain.DefaultEventConfig
	}
	return cfg
}
