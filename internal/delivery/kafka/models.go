package kafka

import (
	"github.com/armyverse/army-number-service/internal/domain"
	"github.com/armyverse/army-number-service/internal/usecase"
)

const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
)

const (
	ErrCodeInvalidNumber   = "INVALID_NUMBER"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeNumberSold      = "NUMBER_SOLD"
	ErrCodeGateClosed      = "GATE_CLOSED"
	ErrCodeGateRejected    = "GATE_REJECTED"
	ErrCodePaymentFailed   = "PAYMENT_FAILED"
	ErrCodeRefundRequired  = "REFUND_REQUIRED"
	ErrCodeEmailInUse      = "EMAIL_IN_USE"
	ErrCodeBadRegistration = "BAD_REGISTRATION"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

type RequestPayload struct {
	SchemaVersion int    `json:"schema_version"`
	CorrelationID string `json:"correlation_id"`
	ReplyTo       string `json:"reply_to"`
	Number        string `json:"number,omitempty"`
	Email         string `json:"email,omitempty"`
	GateAnswer    string `json:"gate_answer,omitempty"`
	OrderID       string `json:"order_id,omitempty"`
	Owner         string `json:"owner,omitempty"`
	Phone         string `json:"phone,omitempty"`
}

type ResponsePayload struct {
	SchemaVersion int                   `json:"schema_version"`
	CorrelationID string                `json:"correlation_id"`
	Status        string                `json:"status"`
	ErrorCode     string                `json:"error_code,omitempty"`
	ErrorMessage  string                `json:"error_message,omitempty"`
	Result        *usecase.SearchResult `json:"result,omitempty"`
	Record        *domain.ArmyNumber    `json:"record,omitempty"`
}
