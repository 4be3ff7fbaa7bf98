package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/armyverse/army-number-service/internal/domain"
	"github.com/armyverse/army-number-service/internal/repository"
)

// ClaimState tracks where a purchase attempt is in the claim protocol.
type ClaimState int

const (
	StateBrowsing ClaimState = iota
	StatePendingIdentityCheck
	StateAwaitingPayment
	StatePaymentCaptured
	StateAwaitingRegistration
	StateRegistrationValidated
	StateClaimed
	StateAborted
)

var stateNames = map[ClaimState]string{
	StateBrowsing:              "browsing",
	StatePendingIdentityCheck:  "pending_identity_check",
	StateAwaitingPayment:       "awaiting_payment",
	StatePaymentCaptured:       "payment_captured",
	StateAwaitingRegistration:  "awaiting_registration",
	StateRegistrationValidated: "registration_validated",
	StateClaimed:               "claimed",
	StateAborted:               "aborted",
}

func (s ClaimState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// ErrInvalidTransition is returned when a flow method is called out of order.
var ErrInvalidTransition = errors.New("invalid claim flow transition")

// ClaimFlow is one buyer's path from browsing to owning a number. No registry
// write happens before Finalize, so abandoning a flow at any point leaves no
// partial state; the cost is the narrow window where a concurrent buyer can
// take the number after payment, which Finalize reports as a refund case.
type ClaimFlow struct {
	store    repository.Store
	payments PaymentCapturer
	now      func() time.Time
	strict   bool

	state   ClaimState
	number  string
	tier    domain.Tier
	price   float64
	capture CaptureResult
	reg     Registration
	record  domain.ArmyNumber

	refundRequired bool
}

type FlowOption func(*ClaimFlow)

// WithClock injects the time source, for tests that pin purchase timestamps.
func WithClock(now func() time.Time) FlowOption {
	return func(f *ClaimFlow) {
		if now != nil {
			f.now = now
		}
	}
}

// WithStrictIdentity enables the one-number-per-email workflow variant.
func WithStrictIdentity(strict bool) FlowOption {
	return func(f *ClaimFlow) {
		f.strict = strict
	}
}

func NewClaimFlow(store repository.Store, payments PaymentCapturer, opts ...FlowOption) *ClaimFlow {
	f := &ClaimFlow{
		store:    store,
		payments: payments,
		now:      time.Now,
		state:    StateBrowsing,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

func (f *ClaimFlow) State() ClaimState { return f.state }

// RefundRequired reports whether a captured payment is stranded and needs
// manual reconciliation.
func (f *ClaimFlow) RefundRequired() bool { return f.refundRequired }

// Number returns the number this flow is negotiating for, once selected.
func (f *ClaimFlow) Number() string { return f.number }

// Abort moves any non-terminal flow to the aborted state. Aborting is always
// safe: nothing is written to the registry until Finalize.
func (f *ClaimFlow) Abort() {
	if f.state != StateClaimed && f.state != StateAborted {
		f.state = StateAborted
	}
}

// PassGate checks the event challenge. A wrong answer is a recoverable
// rejection, not an abort, so the fan can retry.
func (f *ClaimFlow) PassGate(cfg domain.EventConfig, answer string) error {
	if f.state != StateBrowsing {
		return fmt.Errorf("%w: pass gate from %s", ErrInvalidTransition, f.state)
	}
	if !cfg.IsActive {
		return domain.ErrGateClosed
	}
	if !cfg.CheckAnswer(answer) {
		return domain.ErrGateRejected
	}
	f.state = StatePendingIdentityCheck
	return nil
}

// SelectNumber snapshots tier and price for the candidate number and verifies
// it is still available. A sold number is a recoverable rejection; the flow
// stays put so a different number can be tried.
func (f *ClaimFlow) SelectNumber(ctx context.Context, raw string, pricing domain.PricingConfig) error {
	if f.state != StatePendingIdentityCheck {
		return fmt.Errorf("%w: select number from %s", ErrInvalidTransition, f.state)
	}

	number, err := domain.NormalizeNumber(raw)
	if err != nil {
		return err
	}

	if _, err := f.store.GetNumber(ctx, number); err == nil {
		return domain.ErrNumberSold
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	f.number = number
	f.tier = domain.Classify(number)
	f.price = domain.Price(f.tier, pricing)
	f.state = StateAwaitingPayment
	return nil
}

// CapturePayment finalizes the external payment order, then immediately
// re-checks availability. Losing the number during the payment flow aborts
// with a refund flag because money has already moved.
func (f *ClaimFlow) CapturePayment(ctx context.Context, orderID string) error {
	if f.state != StateAwaitingPayment {
		return fmt.Errorf("%w: capture payment from %s", ErrInvalidTransition, f.state)
	}

	res, err := f.payments.Capture(ctx, orderID)
	if err != nil {
		f.state = StateAborted
		return fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
	}

	if _, err := f.store.GetNumber(ctx, f.number); err == nil {
		f.state = StateAborted
		f.refundRequired = true
		return domain.ErrClaimedDuringPayment
	} else if !errors.Is(err, domain.ErrNotFound) {
		f.state = StateAborted
		f.refundRequired = true
		return err
	}

	f.capture = res
	f.state = StatePaymentCaptured
	return nil
}

// SubmitRegistration validates the identity-on-certificate details. Invalid
// input keeps the flow in the registration step; validation never aborts a
// paid flow.
func (f *ClaimFlow) SubmitRegistration(ctx context.Context, reg Registration) error {
	if f.state != StatePaymentCaptured && f.state != StateAwaitingRegistration {
		return fmt.Errorf("%w: submit registration from %s", ErrInvalidTransition, f.state)
	}
	f.state = StateAwaitingRegistration

	// Payer identity prefills anything the form left blank.
	if reg.OwnerName == "" {
		reg.OwnerName = f.capture.PayerName
	}
	if reg.Email == "" {
		reg.Email = f.capture.PayerEmail
	}

	if err := validateRegistration(reg); err != nil {
		return err
	}

	if f.strict {
		inUse, err := f.store.EmailInUse(ctx, reg.Email)
		if err != nil {
			return err
		}
		if inUse {
			return domain.ErrEmailInUse
		}
	}

	f.reg = reg
	f.state = StateRegistrationValidated
	return nil
}

// Finalize performs the single atomic registry write. Re-invoking it on an
// already claimed flow returns the existing record unchanged, and replaying
// the same transaction against a record that already carries it is a no-op
// rather than a conflict.
func (f *ClaimFlow) Finalize(ctx context.Context) (domain.ArmyNumber, error) {
	if f.state == StateClaimed {
		return f.record, nil
	}
	if f.state != StateRegistrationValidated {
		return domain.ArmyNumber{}, fmt.Errorf("%w: finalize from %s", ErrInvalidTransition, f.state)
	}

	purchasedAt := f.now().UTC()
	params := repository.ClaimParams{
		Number:        f.number,
		Tier:          f.tier,
		OwnerName:     f.reg.OwnerName,
		OwnerEmail:    f.reg.Email,
		Phone:         f.reg.Phone,
		Price:         f.price,
		TransactionID: f.capture.TransactionID,
		PurchasedAt:   purchasedAt,
		IssueDate:     purchasedAt,
	}

	var record domain.ArmyNumber
	err := f.store.ExecTx(ctx, func(q repository.Querier) error {
		rows, err := q.ClaimNumber(ctx, params)
		if err != nil {
			return err
		}
		if rows > 0 {
			record = soldRecord(params)
			return nil
		}

		existing, err := q.GetNumber(ctx, f.number)
		if err != nil {
			return err
		}
		if existing.TransactionID == f.capture.TransactionID {
			record = existing
			return nil
		}
		return domain.ErrClaimedAfterPayment
	})
	if err != nil {
		if errors.Is(err, domain.ErrClaimedAfterPayment) {
			f.state = StateAborted
			f.refundRequired = true
		}
		return domain.ArmyNumber{}, err
	}

	f.record = record
	f.state = StateClaimed
	return record, nil
}

func validateRegistration(reg Registration) error {
	if strings.TrimSpace(reg.OwnerName) == "" {
		return fmt.Errorf("%w: owner name is required", domain.ErrRegistrationInvalid)
	}
	if strings.TrimSpace(reg.Phone) == "" {
		return fmt.Errorf("%w: phone is required", domain.ErrRegistrationInvalid)
	}
	email := strings.TrimSpace(reg.Email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: valid email is required", domain.ErrRegistrationInvalid)
	}
	return nil
}

func soldRecord(params repository.ClaimParams) domain.ArmyNumber {
	return domain.ArmyNumber{
		Number:        params.Number,
		Status:        domain.StatusSold,
		Tier:          params.Tier,
		OwnerName:     params.OwnerName,
		OwnerEmail:    params.OwnerEmail,
		Phone:         params.Phone,
		Price:         params.Price,
		TransactionID: params.TransactionID,
		PurchasedAt:   params.PurchasedAt,
		IssueDate:     params.IssueDate,
	}
}
