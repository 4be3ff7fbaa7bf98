package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/armyverse/army-number-service/internal/domain"
)

// InMemoryStore keeps the registry in a mutex-guarded map. It backs unit
// tests and broker-less local runs; the claim path holds the lock across the
// whole conditional write, so the single-winner guarantee matches Postgres.
type InMemoryStore struct {
	mu      sync.Mutex
	numbers map[string]domain.ArmyNumber
	pricing domain.PricingConfig
	event   *domain.EventConfig
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{numbers: make(map[string]domain.ArmyNumber)}
}

// ExecTx runs fn under the store lock. There is no rollback: the claim
// transaction's only write is the conditional insert, and fn fails before
// writing or not at all.
func (s *InMemoryStore) ExecTx(_ context.Context, fn func(Querier) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memQuerier{store: s})
}

func (s *InMemoryStore) ClaimNumber(_ context.Context, arg ClaimParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claimLocked(arg)
}

func (s *InMemoryStore) GetNumber(_ context.Context, number string) (domain.ArmyNumber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(number)
}

func (s *InMemoryStore) DeleteNumber(_ context.Context, number string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.numbers[number]; !ok {
		return 0, nil
	}
	delete(s.numbers, number)
	return 1, nil
}

func (s *InMemoryStore) ListSold(_ context.Context, arg ListParams) ([]domain.ArmyNumber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := s.matchLocked(arg.Search)
	if arg.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[arg.Offset:]
	if arg.Limit > 0 && arg.Limit < len(matched) {
		matched = matched[:arg.Limit]
	}
	return matched, nil
}

func (s *InMemoryStore) CountSold(_ context.Context, search string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.matchLocked(search))), nil
}

func (s *InMemoryStore) ListByOwnerEmail(_ context.Context, email string) ([]domain.ArmyNumber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.ArmyNumber
	for _, n := range s.numbers {
		if equalFold(n.OwnerEmail, email) {
			out = append(out, n)
		}
	}
	sortByPurchasedAtDesc(out)
	return out, nil
}

func (s *InMemoryStore) EmailInUse(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emailInUseLocked(email), nil
}

func (s *InMemoryStore) GetPricing(_ context.Context) (domain.PricingConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pricing == nil {
		return nil, domain.ErrNotFound
	}
	cloned := make(domain.PricingConfig, len(s.pricing))
	for tier, price := range s.pricing {
		cloned[tier] = price
	}
	return cloned, nil
}

func (s *InMemoryStore) SetPricing(_ context.Context, cfg domain.PricingConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cloned := make(domain.PricingConfig, len(cfg))
	for tier, price := range cfg {
		cloned[tier] = price
	}
	s.pricing = cloned
	return nil
}

func (s *InMemoryStore) GetEventConfig(_ context.Context) (domain.EventConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.event == nil {
		return domain.EventConfig{}, domain.ErrNotFound
	}
	return *s.event, nil
}

func (s *InMemoryStore) SetEventConfig(_ context.Context, cfg domain.EventConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.event = &cfg
	return nil
}

func (s *InMemoryStore) claimLocked(arg ClaimParams) (int64, error) {
	if _, exists := s.numbers[arg.Number]; exists {
		return 0, nil
	}
	s.numbers[arg.Number] = domain.ArmyNumber{
		Number:        arg.Number,
		Status:        domain.StatusSold,
		Tier:          arg.Tier,
		OwnerName:     arg.OwnerName,
		OwnerEmail:    arg.OwnerEmail,
		Phone:         arg.Phone,
		Price:         arg.Price,
		TransactionID: arg.TransactionID,
		PurchasedAt:   arg.PurchasedAt,
		IssueDate:     arg.IssueDate,
	}
	return 1, nil
}

func (s *InMemoryStore) getLocked(number string) (domain.ArmyNumber, error) {
	if n, ok := s.numbers[number]; ok {
		return n, nil
	}
	return domain.ArmyNumber{}, domain.ErrNotFound
}

func (s *InMemoryStore) emailInUseLocked(email string) bool {
	for _, n := range s.numbers {
		if equalFold(n.OwnerEmail, email) {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) matchLocked(search string) []domain.ArmyNumber {
	var out []domain.ArmyNumber
	for _, n := range s.numbers {
		if search == "" || containsFold(n.Number, search) ||
			containsFold(n.OwnerName, search) || containsFold(n.OwnerEmail, search) {
			out = append(out, n)
		}
	}
	sortByPurchasedAtDesc(out)
	return out
}

// memQuerier runs inside ExecTx with the store lock already held.
type memQuerier struct {
	store *InMemoryStore
}

func (q *memQuerier) ClaimNumber(_ context.Context, arg ClaimParams) (int64, error) {
	return q.store.claimLocked(arg)
}

func (q *memQuerier) GetNumber(_ context.Context, number string) (domain.ArmyNumber, error) {
	return q.store.getLocked(number)
}

func (q *memQuerier) EmailInUse(_ context.Context, email string) (bool, error) {
	return q.store.emailInUseLocked(email), nil
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func sortByPurchasedAtDesc(numbers []domain.ArmyNumber) {
	sort.Slice(numbers, func(i, j int) bool {
		if numbers[i].PurchasedAt.Equal(numbers[j].PurchasedAt) {
			return numbers[i].Number < numbers[j].Number
		}
		return numbers[i].PurchasedAt.After(numbers[j].PurchasedAt)
	})
}

var _ Store = (*InMemoryStore)(nil)
