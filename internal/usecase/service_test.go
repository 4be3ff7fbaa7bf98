package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/armyverse/army-number-service/internal/domain"
	"github.com/armyverse/army-number-service/internal/repository"
)

type mockStore struct {
	execTxFn           func(ctx context.Context, fn func(repository.Querier) error) error
	claimNumberFn      func(ctx context.Context, arg repository.ClaimParams) (int64, error)
	getNumberFn        func(ctx context.Context, number string) (domain.ArmyNumber, error)
	deleteNumberFn     func(ctx context.Context, number string) (int64, error)
	listSoldFn         func(ctx context.Context, arg repository.ListParams) ([]domain.ArmyNumber, error)
	countSoldFn        func(ctx context.Context, search string) (int64, error)
	listByOwnerEmailFn func(ctx context.Context, email string) ([]domain.ArmyNumber, error)
	emailInUseFn       func(ctx context.Context, email string) (bool, error)
	getPricingFn       func(ctx context.Context) (domain.PricingConfig, error)
	setPricingFn       func(ctx context.Context, cfg domain.PricingConfig) error
	getEventFn         func(ctx context.Context) (domain.EventConfig, error)
	setEventFn         func(ctx context.Context, cfg domain.EventConfig) error
}

func (m *mockStore) ExecTx(ctx context.Context, fn func(repository.Querier) error) error {
	if m.execTxFn != nil {
		return m.execTxFn(ctx, fn)
	}
	return fn(m)
}

func (m *mockStore) ClaimNumber(ctx context.Context, arg repository.ClaimParams) (int64, error) {
	if m.claimNumberFn != nil {
		return m.claimNumberFn(ctx, arg)
	}
	return 1, nil
}

func (m *mockStore) GetNumber(ctx context.Context, number string) (domain.ArmyNumber, error) {
	if m.getNumberFn != nil {
		return m.getNumberFn(ctx, number)
	}
	return domain.ArmyNumber{}, domain.ErrNotFound
}

func (m *mockStore) DeleteNumber(ctx context.Context, number string) (int64, error) {
	if m.deleteNumberFn != nil {
		return m.deleteNumberFn(ctx, number)
	}
	return 1, nil
}

func (m *mockStore) ListSold(ctx context.Context, arg repository.ListParams) ([]domain.ArmyNumber, error) {
	if m.listSoldFn != nil {
		return m.listSoldFn(ctx, arg)
	}
	return nil, nil
}

func (m *mockStore) CountSold(ctx context.Context, search string) (int64, error) {
	if m.countSoldFn != nil {
		return m.countSoldFn(ctx, search)
	}
	return 0, nil
}

func (m *mockStore) ListByOwnerEmail(ctx context.Context, email string) ([]domain.ArmyNumber, error) {
	if m.listByOwnerEmailFn != nil {
		return m.listByOwnerEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockStore) EmailInUse(ctx context.Context, email string) (bool, error) {
	if m.emailInUseFn != nil {
		return m.emailInUseFn(ctx, email)
	}
	return false, nil
}

func (m *mockStore) GetPricing(ctx context.Context) (domain.PricingConfig, error) {
	if m.getPricingFn != nil {
		return m.getPricingFn(ctx)
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) SetPricing(ctx context.Context, cfg domain.PricingConfig) error {
	if m.setPricingFn != nil {
		return m.setPricingFn(ctx, cfg)
	}
	return nil
}

func (m *mockStore) GetEventConfig(ctx context.Context) (domain.EventConfig, error) {
	if m.getEventFn != nil {
		return m.getEventFn(ctx)
	}
	return domain.EventConfig{}, domain.ErrNotFound
}

func (m *mockStore) SetEventConfig(ctx context.Context, cfg domain.EventConfig) error {
	if m.setEventFn != nil {
		return m.setEventFn(ctx, cfg)
	}
	return nil
}

func TestSearchAvailableNumber(t *testing.T) {
	svc := NewNumberService(&mockStore{}, &fakeCapturer{}, nil)

	result, err := svc.Search(context.Background(), "1234-5678")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Number != "12345678" {
		t.Fatalf("expected normalized number, got %q", result.Number)
	}
	if result.Status != domain.StatusAvailable {
		t.Fatalf("expected available, got %s", result.Status)
	}
	if result.Tier != domain.TierVVIP {
		t.Fatalf("expected VVIP, got %s", result.Tier)
	}
	if result.Price != domain.DefaultPricing[domain.TierVVIP] {
		t.Fatalf("expected default VVIP price, got %v", result.Price)
	}
}

func TestSearchSoldNumber(t *testing.T) {
	store := &mockStore{
		getNumberFn: func(ctx context.Context, number string) (domain.ArmyNumber, error) {
			return domain.ArmyNumber{Number: number, Status: domain.StatusSold}, nil
		},
	}
	svc := NewNumberService(store, &fakeCapturer{}, nil)

	result, err := svc.Search(context.Background(), "77777777")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Status != domain.StatusSold {
		t.Fatalf("expected sold, got %s", result.Status)
	}
	if result.Tier != domain.TierBlack {
		t.Fatalf("expected BLACK, got %s", result.Tier)
	}
}

func TestSearchUsesStoredPricing(t *testing.T) {
	store := &mockStore{
		getPricingFn: func(ctx context.Context) (domain.PricingConfig, error) {
			return domain.PricingConfig{domain.TierVVIP: 9999}, nil
		},
	}
	svc := NewNumberService(store, &fakeCapturer{}, nil)

	result, err := svc.Search(context.Background(), "12345678")
	if err != nil {
		t.Fatal(err)
	}
	if result.Price != 9999 {
		t.Fatalf("expected stored price 9999, got %v", result.Price)
	}
}

func TestSearchPricingReadFailureFallsBack(t *testing.T) {
	store := &mockStore{
		getPricingFn: func(ctx context.Context) (domain.PricingConfig, error) {
			return nil, errors.New("settings table on fire")
		},
	}
	svc := NewNumberService(store, &fakeCapturer{}, nil)

	result, err := svc.Search(context.Background(), "12345678")
	if err != nil {
		t.Fatalf("search must survive a pricing read failure, got %v", err)
	}
	if result.Price != domain.DefaultPricing[domain.TierVVIP] {
		t.Fatalf("expected default price fallback, got %v", result.Price)
	}
}

func TestSearchInvalidNumber(t *testing.T) {
	svc := NewNumberService(&mockStore{}, &fakeCapturer{}, nil)
	if _, err := svc.Search(context.Background(), "123"); !errors.Is(err, domain.ErrInvalidNumber) {
		t.Fatalf("expected ErrInvalidNumber, got %v", err)
	}
}

func TestClaimEndToEnd(t *testing.T) {
	store := repository.NewInMemory()
	svc := NewNumberService(store, &fakeCapturer{}, nil)

	record, err := svc.Claim(context.Background(), ClaimRequest{
		Number:       "9013-0613",
		GateAnswer:   "arirang",
		OrderID:      "order-1",
		Registration: testRegistration(),
	})
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if record.Tier != domain.TierBlack || record.Status != domain.StatusSold {
		t.Fatalf("unexpected record %+v", record)
	}

	// The same number is now a conflict for the next buyer.
	_, err = svc.Claim(context.Background(), ClaimRequest{
		Number:       "90130613",
		GateAnswer:   "ARIRANG",
		OrderID:      "order-2",
		Registration: Registration{OwnerName: "V", Email: "v@example.com", Phone: "010"},
	})
	if !errors.Is(err, domain.ErrNumberSold) {
		t.Fatalf("expected ErrNumberSold, got %v", err)
	}
}

func TestClaimUsesStoredEventGate(t *testing.T) {
	store := repository.NewInMemory()
	if err := store.SetEventConfig(context.Background(), domain.EventConfig{
		AuthAnswer: "butter", IsActive: true,
	}); err != nil {
		t.Fatal(err)
	}
	svc := NewNumberService(store, &fakeCapturer{}, nil)

	_, err := svc.Claim(context.Background(), ClaimRequest{
		Number:       "12345678",
		GateAnswer:   "arirang",
		OrderID:      "order-1",
		Registration: testRegistration(),
	})
	if !errors.Is(err, domain.ErrGateRejected) {
		t.Fatalf("expected ErrGateRejected against the stored answer, got %v", err)
	}

	if _, err := svc.Claim(context.Background(), ClaimRequest{
		Number:       "12345678",
		GateAnswer:   "BUTTER",
		OrderID:      "order-2",
		Registration: testRegistration(),
	}); err != nil {
		t.Fatalf("stored answer rejected: %v", err)
	}
}

func TestPriceSnapshotSurvivesRepricing(t *testing.T) {
	store := repository.NewInMemory()
	svc := NewNumberService(store, &fakeCapturer{}, nil)
	ctx := context.Background()

	record, err := svc.Claim(ctx, ClaimRequest{
		Number:       "12345678",
		GateAnswer:   "ARIRANG",
		OrderID:      "order-1",
		Registration: testRegistration(),
	})
	if err != nil {
		t.Fatal(err)
	}
	soldPrice := record.Price

	if err := svc.UpdatePricing(ctx, domain.PricingConfig{domain.TierVVIP: 123456}); err != nil {
		t.Fatal(err)
	}

	stored, err := store.GetNumber(ctx, "12345678")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Price != soldPrice {
		t.Fatalf("repricing rewrote history: sold at %v, now %v", soldPrice, stored.Price)
	}

	// New quotes do see the new price.
	quote, err := svc.Search(ctx, "23456789")
	if err != nil {
		t.Fatal(err)
	}
	if quote.Price != 123456 {
		t.Fatalf("expected new price on fresh quote, got %v", quote.Price)
	}
}

func TestVerifyOwnership(t *testing.T) {
	store := &mockStore{
		getNumberFn: func(ctx context.Context, number string) (domain.ArmyNumber, error) {
			return domain.ArmyNumber{Number: number, OwnerEmail: "Jin@Example.com"}, nil
		},
	}
	svc := NewNumberService(store, &fakeCapturer{}, nil)

	record, err := svc.VerifyOwnership(context.Background(), "1234-5678", "jin@example.com")
	if err != nil {
		t.Fatalf("case-insensitive match rejected: %v", err)
	}
	if record.Number != "12345678" {
		t.Fatalf("expected normalized number, got %q", record.Number)
	}

	if _, err := svc.VerifyOwnership(context.Background(), "12345678", "imposter@example.com"); !errors.Is(err, domain.ErrOwnershipMismatch) {
		t.Fatalf("expected ErrOwnershipMismatch, got %v", err)
	}
	if _, err := svc.VerifyOwnership(context.Background(), "12345678", ""); !errors.Is(err, domain.ErrOwnershipMismatch) {
		t.Fatalf("expected ErrOwnershipMismatch for empty email, got %v", err)
	}
}

func TestVerifyOwnershipUnclaimedNumber(t *testing.T) {
	svc := NewNumberService(&mockStore{}, &fakeCapturer{}, nil)
	if _, err := svc.VerifyOwnership(context.Background(), "12345678", "jin@example.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListNumbersPagination(t *testing.T) {
	var gotParams repository.ListParams
	store := &mockStore{
		countSoldFn: func(ctx context.Context, search string) (int64, error) { return 3, nil },
		listSoldFn: func(ctx context.Context, arg repository.ListParams) ([]domain.ArmyNumber, error) {
			gotParams = arg
			return []domain.ArmyNumber{{Number: "12345678"}}, nil
		},
	}
	svc := NewNumberService(store, &fakeCapturer{}, nil)

	page, err := svc.ListNumbers(context.Background(), ListQuery{Search: "jin", Limit: -5, Offset: -1})
	if err != nil {
		t.Fatal(err)
	}
	if gotParams.Limit != 50 || gotParams.Offset != 0 {
		t.Fatalf("expected defaulted pagination, got %+v", gotParams)
	}
	if page.Total != 3 || len(page.Numbers) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}

	if _, err := svc.ListNumbers(context.Background(), ListQuery{Limit: 10000}); err != nil {
		t.Fatal(err)
	}
	if gotParams.Limit != 500 {
		t.Fatalf("expected limit capped at 500, got %d", gotParams.Limit)
	}
}

func TestDeleteNumber(t *testing.T) {
	deleted := ""
	store := &mockStore{
		deleteNumberFn: func(ctx context.Context, number string) (int64, error) {
			deleted = number
			return 1, nil
		},
	}
	svc := NewNumberService(store, &fakeCapturer{}, nil)

	if err := svc.DeleteNumber(context.Background(), "1234-5678"); err != nil {
		t.Fatal(err)
	}
	if deleted != "12345678" {
		t.Fatalf("expected normalized delete key, got %q", deleted)
	}
}

func TestDeleteNumberNotFound(t *testing.T) {
	store := &mockStore{
		deleteNumberFn: func(ctx context.Context, number string) (int64, error) { return 0, nil },
	}
	svc := NewNumberService(store, &fakeCapturer{}, nil)
	if err := svc.DeleteNumber(context.Background(), "12345678"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePricingValidates(t *testing.T) {
	svc := NewNumberService(&mockStore{}, &fakeCapturer{}, nil)
	if err := svc.UpdatePricing(context.Background(), domain.PricingConfig{domain.TierGold: -10}); !errors.Is(err, domain.ErrNegativePrice) {
		t.Fatalf("expected ErrNegativePrice, got %v", err)
	}
}

func TestUpdateEventConfigValidates(t *testing.T) {
	svc := NewNumberService(&mockStore{}, &fakeCapturer{}, nil)

	bad := []domain.EventConfig{
		{AuthAnswer: "", MemberEntryMin: 1, MemberEntryMax: 7},
		{AuthAnswer: "x", MemberEntryMin: 5, MemberEntryMax: 2},
		{AuthAnswer: "x", MemberEntryMin: -1, MemberEntryMax: 3},
	}
	for _, cfg := range bad {
		if err := svc.UpdateEventConfig(context.Background(), cfg); !errors.Is(err, domain.ErrBadEventConfig) {
			t.Fatalf("config %+v: expected ErrBadEventConfig, got %v", cfg, err)
		}
	}
}

func TestEventConfigFallback(t *testing.T) {
	svc := NewNumberService(&mockStore{}, &fakeCapturer{}, nil)
	cfg := svc.EventConfig(context.Background())
	if cfg != domain.DefaultEventConfig {
		t.Fatalf("expected built-in fallback, got %+v", cfg)
	}
}

func TestPricingMergedView(t *testing.T) {
	store := &mockStore{
		getPricingFn: func(ctx context.Context) (domain.PricingConfig, error) {
			return domain.PricingConfig{domain.TierDiamond: 750}, nil
		},
	}
	svc := NewNumberService(store, &fakeCapturer{}, nil)

	merged := svc.Pricing(context.Background())
	if merged[domain.TierDiamond] != 750 {
		t.Fatalf("override lost: %v", merged[domain.TierDiamond])
	}
	if merged[domain.TierSilver] != domain.DefaultPricing[domain.TierSilver] {
		t.Fatalf("default not merged: %v", merged[domain.TierSilver])
	}
	if len(merged) != len(domain.Tiers) {
		t.Fatalf("merged view must cover every tier, got %d entries", len(merged))
	}
}
