package domain

import "strings"

// Tier ranks an army number's desirability. Higher tiers price higher, and a
// number matching several patterns always takes the most valuable one.
type Tier string

const (
	TierBlack    Tier = "BLACK"
	TierVVIP     Tier = "VVIP"
	TierDiamond  Tier = "DIAMOND"
	TierGold     Tier = "GOLD"
	TierSilver   Tier = "SILVER"
	TierStandard Tier = "STANDARD"
)

// Tiers lists every tier from most to least valuable.
var Tiers = []Tier{TierBlack, TierVVIP, TierDiamond, TierGold, TierSilver, TierStandard}

func (t Tier) String() string { return string(t) }

// ParseTier maps an admin-supplied tier name to its Tier, case-insensitively.
func ParseTier(s string) (Tier, bool) {
	upper := Tier(strings.ToUpper(strings.TrimSpace(s)))
	for _, t := range Tiers {
		if t == upper {
			return t, true
		}
	}
	return "", false
}

// debutAnchor is the fixed digit sequence that makes any containing number a
// BLACK tier collectible.
const debutAnchor = "130613"

// Classify buckets an 8-digit number into its tier. Checks run most-valuable
// first and short-circuit, so a number matching both a BLACK and a GOLD rule
// resolves to BLACK. Anything that is not exactly 8 ASCII digits classifies
// as STANDARD rather than erroring.
func Classify(num string) Tier {
	if !isEightDigits(num) {
		return TierStandard
	}

	switch {
	case num == "77777777", strings.Contains(num, debutAnchor):
		return TierBlack

	case allSameDigit(num), isSequentialRun(num), isRoundMillion(num):
		return TierVVIP

	case isPalindrome(num), isFullDate(num), isMirroredPairs(num):
		return TierDiamond

	case isRepeatedPair(num), isRepeatedQuad(num),
		strings.HasPrefix(num, "0000"), strings.HasSuffix(num, "0000"), strings.HasSuffix(num, "7777"):
		return TierGold

	case isShortBirthday(num), hasTripleTail(num), isDoubledDigits(num):
		return TierSilver
	}

	return TierStandard
}

func isEightDigits(s string) bool {
	if len(s) != 8 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func allSameDigit(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// isSequentialRun matches strictly ascending or descending digit runs such as
// 12345678 and 87654321, by substring containment in the full decimal run.
func isSequentialRun(s string) bool {
	return strings.Contains("0123456789", s) || strings.Contains("9876543210", s)
}

// isRoundMillion matches a nonzero digit followed by seven zeros: 10000000,
// 20000000, and so on.
func isRoundMillion(s string) bool {
	return s[0] != '0' && s[1:] == "0000000"
}

func isPalindrome(s string) bool {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		if s[i] != s[j] {
			return false
		}
	}
	return true
}

// isFullDate matches YYYYMMDD with YYYY in 19xx/20xx, MM 01-12 and DD 01-31.
// Day validity is generic across months; 19990231 still counts.
func isFullDate(s string) bool {
	if !(s[0] == '1' && s[1] == '9' || s[0] == '2' && s[1] == '0') {
		return false
	}
	return validMonth(s[4], s[5]) && validDay(s[6], s[7])
}

// isMirroredPairs matches the ABBAABBA rotator: positions 0,3,4,7 hold one
// digit and positions 1,2,5,6 another.
func isMirroredPairs(s string) bool {
	a, b := s[0], s[1]
	return s[2] == b && s[3] == a && s[4] == a && s[5] == b && s[6] == b && s[7] == a
}

// isRepeatedPair matches a 2-digit group repeated four times (ABABABAB).
func isRepeatedPair(s string) bool {
	return s[0:2] == s[2:4] && s[0:2] == s[4:6] && s[0:2] == s[6:8]
}

// isRepeatedQuad matches a 4-digit group repeated twice (ABCDABCD).
func isRepeatedQuad(s string) bool {
	return s[0:4] == s[4:8]
}

// isShortBirthday matches YYMMDD plus any two trailing digits, e.g. 951013xx.
func isShortBirthday(s string) bool {
	return validMonth(s[2], s[3]) && validDay(s[4], s[5])
}

func hasTripleTail(s string) bool {
	return s[5] == s[6] && s[6] == s[7]
}

// isDoubledDigits matches AABBCCDD: four consecutive pairs, each pair two
// identical digits, independent across pairs.
func isDoubledDigits(s string) bool {
	return s[0] == s[1] && s[2] == s[3] && s[4] == s[5] && s[6] == s[7]
}

func validMonth(hi, lo byte) bool {
	switch hi {
	case '0':
		return lo >= '1' && lo <= '9'
	case '1':
		return lo >= '0' && lo <= '2'
	}
	return false
}

func validDay(hi, lo byte) bool {
	switch hi {
	case '0':
		return lo >= '1' && lo <= '9'
	case '1', '2':
		return lo >= '0' && lo <= '9'
	case '3':
		return lo == '0' || lo == '1'
	}
	return false
}
