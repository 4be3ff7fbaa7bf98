package usecase

import (
	"context"

	"github.com/armyverse/army-number-service/internal/domain"
)

// NumberGateway is the fan-facing surface. The HTTP handler talks to it so
// requests can be served directly or routed through the Kafka request/reply
// pipeline without the handler knowing which.
type NumberGateway interface {
	Search(ctx context.Context, number string) (*SearchResult, error)
	Claim(ctx context.Context, req ClaimRequest) (*domain.ArmyNumber, error)
	VerifyOwnership(ctx context.Context, number, email string) (*domain.ArmyNumber, error)
}

// PaymentCapturer finalizes an externally created payment order. The service
// never talks to a PSP directly; it only consumes the capture result.
type PaymentCapturer interface {
	Capture(ctx context.Context, orderID string) (CaptureResult, error)
}

// CaptureResult is what a successful capture hands back: the external
// transaction reference plus the payer identity used to prefill registration.
type CaptureResult struct {
	TransactionID string `json:"transaction_id"`
	PayerName     string `json:"payer_name"`
	PayerEmail    string `json:"payer_email"`
}

// SearchResult quotes a number before purchase: its tier, the price in
// effect, and whether anyone already owns it.
type SearchResult struct {
	Number string      `json:"number"`
	Status string      `json:"status"`
	Tier   domain.Tier `json:"tier"`
	Price  float64     `json:"price"`
}

// Registration carries the identity-on-certificate details collected after
// payment.
type Registration struct {
	OwnerName string `json:"owner"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// ClaimRequest bundles everything one purchase attempt needs: the gate
// answer, the number, the payment order to capture, and the certificate
// details.
type ClaimRequest struct {
	Number       string       `json:"number"`
	GateAnswer   string       `json:"gate_answer"`
	OrderID      string       `json:"order_id"`
	Registration Registration `json:"registration"`
}
