package domain

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		number string
		want   Tier
	}{
		// BLACK: the ultimate seven and anything carrying the debut anchor.
		{"77777777", TierBlack},
		{"13061399", TierBlack},
		{"99130613", TierBlack},
		// 20130613 is also a valid YYYYMMDD date; BLACK must win.
		{"20130613", TierBlack},

		// VVIP
		{"11111111", TierVVIP},
		{"12345678", TierVVIP},
		{"87654321", TierVVIP},
		{"01234567", TierVVIP},
		{"98765432", TierVVIP},
		{"10000000", TierVVIP},
		{"90000000", TierVVIP},

		// DIAMOND
		{"12344321", TierDiamond},
		{"19991231", TierDiamond},
		{"20260321", TierDiamond},
		{"10011001", TierDiamond},
		{"52255225", TierDiamond},

		// GOLD
		{"12121212", TierGold},
		{"12341234", TierGold},
		{"00001234", TierGold},
		{"56780000", TierGold},
		{"98527777", TierGold},

		// SILVER
		{"95101300", TierSilver},
		{"88051799", TierSilver},
		{"98524777", TierSilver},
		{"12645000", TierSilver},
		{"11223344", TierSilver},

		// STANDARD
		{"90817263", TierStandard},
		{"45862917", TierStandard},
	}

	for _, tc := range cases {
		if got := Classify(tc.number); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.number, got, tc.want)
		}
	}
}

func TestClassifyPrecedence(t *testing.T) {
	// 77777777 also matches the VVIP all-same rule and GOLD's 7777 tail;
	// first matching rule must win.
	if got := Classify("77777777"); got != TierBlack {
		t.Fatalf("expected BLACK, got %s", got)
	}

	// 00000000 is all-same (VVIP) and starts with 0000 (GOLD).
	if got := Classify("00000000"); got != TierVVIP {
		t.Fatalf("expected VVIP, got %s", got)
	}

	// 12344321 is a palindrome (DIAMOND) and must not fall through to lower
	// tiers even though nothing below matches it anyway.
	if got := Classify("12344321"); got != TierDiamond {
		t.Fatalf("expected DIAMOND, got %s", got)
	}
}

func TestClassifyRejectsMalformedInput(t *testing.T) {
	inputs := []string{
		"",
		"1234567",
		"123456789",
		"1234567a",
		"1234-678",
		"abcdefgh",
		"1234567 ",
		"１２３４５６７８", // full-width digits are not ASCII digits
	}
	for _, input := range inputs {
		if got := Classify(input); got != TierStandard {
			t.Errorf("Classify(%q) = %s, want STANDARD", input, got)
		}
	}
}

func TestClassifyIsTotal(t *testing.T) {
	// A broad sweep: every outcome must be one of the six tiers and repeat
	// runs must agree.
	valid := map[Tier]bool{
		TierBlack: true, TierVVIP: true, TierDiamond: true,
		TierGold: true, TierSilver: true, TierStandard: true,
	}
	for i := 0; i < 100000; i += 7 {
		num := fmtNumber(i * 977 % 100000000)
		first := Classify(num)
		if !valid[first] {
			t.Fatalf("Classify(%q) returned unknown tier %q", num, first)
		}
		if second := Classify(num); second != first {
			t.Fatalf("Classify(%q) not deterministic: %s then %s", num, first, second)
		}
	}
}

func fmtNumber(n int) string {
	buf := []byte("00000000")
	for i := 7; i >= 0 && n > 0; i-- {
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf)
}

func TestParseTier(t *testing.T) {
	if tier, ok := ParseTier("diamond"); !ok || tier != TierDiamond {
		t.Fatalf("ParseTier(diamond) = %v, %v", tier, ok)
	}
	if _, ok := ParseTier("PLATINUM"); ok {
		t.Fatal("expected PLATINUM to be rejected")
	}
}
