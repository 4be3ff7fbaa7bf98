package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidNumber = errors.New("number must be exactly 8 digits")
	ErrNotFound      = errors.New("number not found")
	ErrNumberSold    = errors.New("number is already sold")
	ErrEmailInUse    = errors.New("email already owns a number")

	ErrGateClosed    = errors.New("event gate is not active")
	ErrGateRejected  = errors.New("challenge answer was not accepted")
	ErrPaymentFailed = errors.New("payment capture failed")

	// ErrClaimedDuringPayment signals that a concurrent buyer took the number
	// while this buyer's payment was in flight; the captured payment must be
	// refunded externally.
	ErrClaimedDuringPayment = errors.New("number was claimed during payment, refund required")

	// ErrClaimedAfterPayment is the post-capture registry conflict: the final
	// atomic claim lost the race after money changed hands. Distinct from the
	// soft conflicts above so callers can flag manual reconciliation.
	ErrClaimedAfterPayment = errors.New("claim lost after payment capture, refund required")

	ErrRegistrationInvalid = errors.New("registration details missing or malformed")

	ErrUnknownTier    = errors.New("unknown tier name")
	ErrNegativePrice  = errors.New("price must not be negative")
	ErrBadEventConfig = errors.New("event config is invalid")

	ErrOwnershipMismatch = errors.New("ownership verification failed")
)

const (
	StatusAvailable = "available"
	StatusSold      = "sold"
)

// ArmyNumber is a sold membership number. The 8-digit string is the identity;
// tier and price are snapshots taken at claim time and never recomputed.
type ArmyNumber struct {
	Number        string    `json:"number"`
	Status        string    `json:"status"`
	Tier          Tier      `json:"tier"`
	OwnerName     string    `json:"owner"`
	OwnerEmail    string    `json:"owner_email"`
	Phone         string    `json:"phone,omitempty"`
	Price         float64   `json:"price"`
	TransactionID string    `json:"transaction_id"`
	PurchasedAt   time.Time `json:"purchased_at"`
	IssueDate     time.Time `json:"issue_date"`
}

// NormalizeNumber strips display hyphens (0000-0000) and validates the
// canonical 8-digit form.
func NormalizeNumber(raw string) (string, error) {
	num := strings.ReplaceAll(strings.TrimSpace(raw), "-", "")
	if !isEightDigits(num) {
		return "", ErrInvalidNumber
	}
	return num, nil
}

// EventConfig gates who may reach the claim flow: a challenge phrase with an
// accepted answer plus member-selection bounds for the knowledge check.
type EventConfig struct {
	AuthGuide      string `json:"auth_guide"`
	AuthAnswer     string `json:"auth_answer"`
	MemberEntryMin int    `json:"member_entry_min"`
	MemberEntryMax int    `json:"member_entry_max"`
	IsActive       bool   `json:"is_active"`
	EventTitle     string `json:"event_title,omitempty"`
	EventDate      string `json:"event_date,omitempty"`
	EventNotice    string `json:"event_notice,omitempty"`
}

// CheckAnswer applies the gate rule: exact match first, then a
// case-insensitive fallback.
func (e EventConfig) CheckAnswer(answer string) bool {
	want := strings.TrimSpace(e.AuthAnswer)
	got := strings.TrimSpace(answer)
	if want == "" {
		return false
	}
	return got == want || strings.EqualFold(got, want)
}

// DefaultEventConfig is used until an admin stores one.
var DefaultEventConfig = EventConfig{
	AuthGuide:      "What is the title of the 5th studio album?",
	AuthAnswer:     "ARIRANG",
	MemberEntryMin: 1,
	MemberEntryMax: 7,
	IsActive:       true,
}
