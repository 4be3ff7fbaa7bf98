// Package payment provides capture implementations behind the
// usecase.PaymentCapturer interface. The service never integrates a PSP SDK
// directly; orders are created and approved on the client side and only the
// capture confirmation crosses into the core.
package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/armyverse/army-number-service/internal/usecase"
)

// Sandbox accepts any well-formed order and mints a transaction reference.
// It remembers captures by order ID so replaying the same order returns the
// same transaction, mirroring how real gateways make capture idempotent.
type Sandbox struct {
	mu       sync.Mutex
	captured map[string]usecase.CaptureResult
}

func NewSandbox() *Sandbox {
	return &Sandbox{captured: make(map[string]usecase.CaptureResult)}
}

func (s *Sandbox) Capture(_ context.Context, orderID string) (usecase.CaptureResult, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return usecase.CaptureResult{}, fmt.Errorf("empty order id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if res, ok := s.captured[orderID]; ok {
		return res, nil
	}
	res := usecase.CaptureResult{
		TransactionID: "SBX-" + uuid.New().String(),
	}
	s.captured[orderID] = res
	return res, nil
}

var _ usecase.PaymentCapturer = (*Sandbox)(nil)
