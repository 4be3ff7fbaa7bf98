package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/armyverse/army-number-service/internal/config"
	"github.com/armyverse/army-number-service/internal/domain"
	"github.com/armyverse/army-number-service/internal/usecase"
)

type Consumer struct {
	client  *kgo.Client
	cfg     *config.Config
	service *usecase.NumberService
	ready   chan struct{}
}

func NewConsumer(cfg *config.Config, client *kgo.Client, service *usecase.NumberService) *Consumer {
	return &Consumer{
		client:  client,
		cfg:     cfg,
		service: service,
		ready:   make(chan struct{}),
	}
}

func (c *Consumer) Start(ctx context.Context) {
	close(c.ready)
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			log.Printf("Consumer poll errors: %v", errs)
		}

		iter := fetches.RecordIter()
		for !iter.Done() {
			record := iter.Next()
			c.processRecord(ctx, record)
		}

		if err := c.client.CommitRecords(ctx, fetches.Records()...); err != nil {
			log.Printf("Failed to commit records: %v", err)
		}
	}
}

func (c *Consumer) StartRetry(ctx context.Context) {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return
		}
		iter := fetches.RecordIter()
		for !iter.Done() {
			record := iter.Next()

			if nextAt, ok := retryNextAt(record); ok && time.Now().Before(nextAt) {
				time.Sleep(time.Until(nextAt))
			}

			mainTopic := strings.TrimSuffix(record.Topic, TopicRetrySuffix) + TopicRequestSuffix
			newRecord := &kgo.Record{
				Topic:   mainTopic,
				Key:     record.Key,
				Value:   record.Value,
				Headers: record.Headers,
			}
			if err := c.client.ProduceSync(ctx, newRecord).FirstErr(); err != nil {
				log.Printf("Failed to requeue retry record: %v", err)
			}
		}
		if err := c.client.CommitRecords(ctx, fetches.Records()...); err != nil {
			log.Printf("Failed to commit retry records: %v", err)
		}
	}
}

func (c *Consumer) Ready() <-chan struct{} {
	return c.ready
}

func (c *Consumer) processRecord(ctx context.Context, record *kgo.Record) {
	switch record.Topic {
	case TopicSearchRequest:
		c.handleSearch(ctx, record)
	case TopicClaimRequest:
		c.handleClaim(ctx, record)
	case TopicVerifyRequest:
		c.handleVerify(ctx, record)
	}
}

func (c *Consumer) handleSearch(ctx context.Context, record *kgo.Record) {
	var req RequestPayload
	if err := json.Unmarshal(record.Value, &req); err != nil {
		c.sendError(ctx, record, ErrCodeInvalidRequest, "invalid request payload")
		return
	}

	result, err := c.service.Search(ctx, req.Number)
	var finalResp *ResponsePayload
	if err != nil {
		code, message := errorCode(err)
		finalResp = errorResponse(req.CorrelationID, code, message)
	} else {
		finalResp = successResponse(req.CorrelationID)
		finalResp.Result = result
	}

	c.sendResponse(ctx, req.ReplyTo, finalResp)
}

func (c *Consumer) handleClaim(ctx context.Context, record *kgo.Record) {
	var req RequestPayload
	if err := json.Unmarshal(record.Value, &req); err != nil {
		c.sendError(ctx, record, ErrCodeInvalidRequest, "invalid request payload")
		return
	}

	claimed, err := c.service.Claim(ctx, usecase.ClaimRequest{
		Number:     req.Number,
		GateAnswer: req.GateAnswer,
		OrderID:    req.OrderID,
		Registration: usecase.Registration{
			OwnerName: req.Owner,
			Email:     req.Email,
			Phone:     req.Phone,
		},
	})
	var finalResp *ResponsePayload
	if err != nil {
		code, message := errorCode(err)
		finalResp = errorResponse(req.CorrelationID, code, message)
	} else {
		finalResp = successResponse(req.CorrelationID)
		finalResp.Record = claimed
	}

	c.sendResponse(ctx, req.ReplyTo, finalResp)
}

func (c *Consumer) handleVerify(ctx context.Context, record *kgo.Record) {
	var req RequestPayload
	if err := json.Unmarshal(record.Value, &req); err != nil {
		c.sendError(ctx, record, ErrCodeInvalidRequest, "invalid request payload")
		return
	}

	verified, err := c.service.VerifyOwnership(ctx, req.Number, req.Email)
	var finalResp *ResponsePayload
	if err != nil {
		code, message := errorCode(err)
		finalResp = errorResponse(req.CorrelationID, code, message)
	} else {
		finalResp = successResponse(req.CorrelationID)
		finalResp.Record = verified
	}

	c.sendResponse(ctx, req.ReplyTo, finalResp)
}

func (c *Consumer) sendResponse(ctx context.Context, topic string, resp *ResponsePayload) {
	payload, _ := json.Marshal(resp)
	record := &kgo.Record{
		Topic: topic,
		Value: payload,
	}
	if err := c.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		log.Printf("Failed to send response to %s: %v", topic, err)
	}
}

func (c *Consumer) sendError(ctx context.Context, record *kgo.Record, code, message string) {
	var req RequestPayload
	_ = json.Unmarshal(record.Value, &req)

	resp := errorResponse(req.CorrelationID, code, message)
	if req.ReplyTo != "" {
		c.sendResponse(ctx, req.ReplyTo, resp)
	}

	dlqTopic := record.Topic + TopicDLQSuffix
	dlqRecord := &kgo.Record{
		Topic: dlqTopic,
		Value: record.Value,
		Headers: []kgo.RecordHeader{
			{Key: ErrorHeaderKey, Value: []byte(message)},
		},
	}
	_ = c.client.ProduceSync(ctx, dlqRecord).FirstErr()
}

func retryNextAt(record *kgo.Record) (time.Time, bool) {
	for _, header := range record.Headers {
		if header.Key != RetryHeaderNextAt {
			continue
		}
		nextAt, err := time.Parse(time.RFC3339, string(header.Value))
		if err != nil {
			return time.Time{}, false
		}
		return nextAt, true
	}

	return time.Time{}, false
}

func successResponse(correlationID string) *ResponsePayload {
	return &ResponsePayload{
		SchemaVersion: 1,
		CorrelationID: correlationID,
		Status:        StatusSuccess,
	}
}

func errorResponse(correlationID, code, message string) *ResponsePayload {
	return &ResponsePayload{
		SchemaVersion: 1,
		CorrelationID: correlationID,
		Status:        StatusError,
		ErrorCode:     code,
		ErrorMessage:  message,
	}
}

// errorCode flattens domain errors into wire codes so the gateway on the far
// side can rehydrate the same sentinel.
func errorCode(err error) (string, string) {
	code := ErrCodeInternalError
	switch {
	case errors.Is(err, domain.ErrInvalidNumber):
		code = ErrCodeInvalidNumber
	case errors.Is(err, domain.ErrNotFound):
		code = ErrCodeNotFound
	case errors.Is(err, domain.ErrNumberSold):
		code = ErrCodeNumberSold
	case errors.Is(err, domain.ErrGateClosed):
		code = ErrCodeGateClosed
	case errors.Is(err, domain.ErrGateRejected):
		code = ErrCodeGateRejected
	case errors.Is(err, domain.ErrPaymentFailed):
		code = ErrCodePaymentFailed
	case errors.Is(err, domain.ErrClaimedDuringPayment), errors.Is(err, domain.ErrClaimedAfterPayment):
		code = ErrCodeRefundRequired
	case errors.Is(err, domain.ErrEmailInUse):
		code = ErrCodeEmailInUse
	case errors.Is(err, domain.ErrRegistrationInvalid):
		code = ErrCodeBadRegistration
	case errors.Is(err, domain.ErrOwnershipMismatch):
		code = ErrCodeUnauthorized
	}
	return code, err.Error()
}
