package domain

import "testing"

func TestPriceFallsBackPerTier(t *testing.T) {
	cfg := PricingConfig{TierVVIP: 2500}

	if got := Price(TierVVIP, cfg); got != 2500 {
		t.Fatalf("expected configured VVIP price 2500, got %v", got)
	}
	// Tiers the config omits fall back individually.
	if got := Price(TierGold, cfg); got != DefaultPricing[TierGold] {
		t.Fatalf("expected default GOLD price, got %v", got)
	}
	if got := Price(TierSilver, nil); got != DefaultPricing[TierSilver] {
		t.Fatalf("expected default SILVER price with nil config, got %v", got)
	}
}

func TestPriceZeroIsAValidOverride(t *testing.T) {
	cfg := PricingConfig{TierGold: 0}
	if got := Price(TierGold, cfg); got != 0 {
		t.Fatalf("explicit zero must not fall back to default, got %v", got)
	}
}

func TestPricingConfigValidate(t *testing.T) {
	if err := (PricingConfig{TierVVIP: 1200, TierGold: 80}).Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if err := (PricingConfig{TierVVIP: -1}).Validate(); err != ErrNegativePrice {
		t.Fatalf("expected ErrNegativePrice, got %v", err)
	}
	if err := (PricingConfig{"PLATINUM": 10}).Validate(); err != ErrUnknownTier {
		t.Fatalf("expected ErrUnknownTier, got %v", err)
	}
}

func TestNormalizeNumber(t *testing.T) {
	if num, err := NormalizeNumber("1234-5678"); err != nil || num != "12345678" {
		t.Fatalf("NormalizeNumber(1234-5678) = %q, %v", num, err)
	}
	if num, err := NormalizeNumber(" 00000001 "); err != nil || num != "00000001" {
		t.Fatalf("NormalizeNumber with spaces = %q, %v", num, err)
	}
	for _, bad := range []string{"1234567", "12 345678", "1234567x", ""} {
		if _, err := NormalizeNumber(bad); err != ErrInvalidNumber {
			t.Errorf("NormalizeNumber(%q) expected ErrInvalidNumber, got %v", bad, err)
		}
	}
}

func TestEventConfigCheckAnswer(t *testing.T) {
	cfg := EventConfig{AuthAnswer: "Arirang", IsActive: true}

	if !cfg.CheckAnswer("Arirang") {
		t.Fatal("exact match rejected")
	}
	if !cfg.CheckAnswer("ARIRANG") {
		t.Fatal("case-insensitive fallback rejected")
	}
	if !cfg.CheckAnswer("  arirang  ") {
		t.Fatal("surrounding whitespace should be ignored")
	}
	if cfg.CheckAnswer("Aegyo") {
		t.Fatal("wrong answer accepted")
	}
	if (EventConfig{}).CheckAnswer("") {
		t.Fatal("empty configured answer must never match")
	}
}
