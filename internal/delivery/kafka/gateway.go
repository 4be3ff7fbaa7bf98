package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/armyverse/army-number-service/internal/config"
	"github.com/armyverse/army-number-service/internal/domain"
	"github.com/armyverse/army-number-service/internal/usecase"
)

// Gateway fronts the service with a Kafka request/reply pipeline. Claim
// requests are keyed by the number, so all contention for one number lands on
// a single partition and is consumed serially.
type Gateway struct {
	client      *kgo.Client
	cfg         *config.Config
	pendingResp sync.Map
}

func NewGateway(cfg *config.Config, client *kgo.Client) *Gateway {
	return &Gateway{
		client: client,
		cfg:    cfg,
	}
}

func (g *Gateway) Search(ctx context.Context, number string) (*usecase.SearchResult, error) {
	req := g.newRequest()
	req.Number = number

	resp, err := g.requestReply(ctx, TopicSearchRequest, []byte(number), req, RequestTimeout)
	if err != nil {
		return nil, err
	}
	if resp.Status == StatusError {
		return nil, mapError(resp.ErrorCode, resp.ErrorMessage)
	}
	return resp.Result, nil
}

func (g *Gateway) Claim(ctx context.Context, claim usecase.ClaimRequest) (*domain.ArmyNumber, error) {
	req := g.newRequest()
	req.Number = claim.Number
	req.GateAnswer = claim.GateAnswer
	req.OrderID = claim.OrderID
	req.Owner = claim.Registration.OwnerName
	req.Email = claim.Registration.Email
	req.Phone = claim.Registration.Phone

	resp, err := g.requestReply(ctx, TopicClaimRequest, []byte(claim.Number), req, ClaimRequestTimeout)
	if err != nil {
		return nil, err
	}
	if resp.Status == StatusError {
		return nil, mapError(resp.ErrorCode, resp.ErrorMessage)
	}
	return resp.Record, nil
}

func (g *Gateway) VerifyOwnership(ctx context.Context, number, email string) (*domain.ArmyNumber, error) {
	req := g.newRequest()
	req.Number = number
	req.Email = email

	resp, err := g.requestReply(ctx, TopicVerifyRequest, []byte(number), req, RequestTimeout)
	if err != nil {
		return nil, err
	}
	if resp.Status == StatusError {
		return nil, mapError(resp.ErrorCode, resp.ErrorMessage)
	}
	return resp.Record, nil
}

func (g *Gateway) newRequest() RequestPayload {
	return RequestPayload{
		SchemaVersion: 1,
		CorrelationID: uuid.New().String(),
		ReplyTo:       fmt.Sprintf("%s%s", TopicReplyPrefix, g.cfg.KafkaInstanceID),
	}
}

func (g *Gateway) requestReply(ctx context.Context, topic string, key []byte, req RequestPayload, timeout time.Duration) (*ResponsePayload, error) {
	respChan := make(chan *ResponsePayload, 1)
	g.pendingResp.Store(req.CorrelationID, respChan)
	defer g.pendingResp.Delete(req.CorrelationID)

	payload, _ := json.Marshal(req)
	record := &kgo.Record{
		Topic: topic,
		Key:   key,
		Value: payload,
	}

	if err := g.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return nil, err
	}

	select {
	case resp := <-respChan:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, errors.New("timeout waiting for response")
	}
}

func (g *Gateway) HandleResponse(payload []byte) {
	var resp ResponsePayload
	if err := json.Unmarshal(payload, &resp); err != nil {
		log.Printf("Failed to decode response payload: %v", err)
		return
	}

	if ch, ok := g.pendingResp.Load(resp.CorrelationID); ok {
		ch.(chan *ResponsePayload) <- &resp
		return
	}

	log.Printf("No pending response for correlation ID %s", resp.CorrelationID)
}

func mapError(code, message string) error {
	switch code {
	case ErrCodeInvalidNumber:
		return domain.ErrInvalidNumber
	case ErrCodeNotFound:
		return domain.ErrNotFound
	case ErrCodeNumberSold:
		return domain.ErrNumberSold
	case ErrCodeGateClosed:
		return domain.ErrGateClosed
	case ErrCodeGateRejected:
		return domain.ErrGateRejected
	case ErrCodePaymentFailed:
		return domain.ErrPaymentFailed
	case ErrCodeRefundRequired:
		return domain.ErrClaimedAfterPayment
	case ErrCodeEmailInUse:
		return domain.ErrEmailInUse
	case ErrCodeBadRegistration:
		return domain.ErrRegistrationInvalid
	case ErrCodeUnauthorized:
		return domain.ErrOwnershipMismatch
	default:
		return errors.New(message)
	}
}

var _ usecase.NumberGateway = (*Gateway)(nil)
