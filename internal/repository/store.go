package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/armyverse/army-number-service/internal/domain"
)

type Store interface {
	ExecTx(ctx context.Context, fn func(Querier) error) error
	ClaimNumber(ctx context.Context, arg ClaimParams) (int64, error)
	GetNumber(ctx context.Context, number string) (domain.ArmyNumber, error)
	DeleteNumber(ctx context.Context, number string) (int64, error)
	ListSold(ctx context.Context, arg ListParams) ([]domain.ArmyNumber, error)
	CountSold(ctx context.Context, search string) (int64, error)
	ListByOwnerEmail(ctx context.Context, email string) ([]domain.ArmyNumber, error)
	EmailInUse(ctx context.Context, email string) (bool, error)
	GetPricing(ctx context.Context) (domain.PricingConfig, error)
	SetPricing(ctx context.Context, cfg domain.PricingConfig) error
	GetEventConfig(ctx context.Context) (domain.EventConfig, error)
	SetEventConfig(ctx context.Context, cfg domain.EventConfig) error
}

// Querier is the subset available inside a claim transaction: the conditional
// insert plus the read used to distinguish an idempotent replay from a lost
// race.
type Querier interface {
	ClaimNumber(ctx context.Context, arg ClaimParams) (int64, error)
	GetNumber(ctx context.Context, number string) (domain.ArmyNumber, error)
	EmailInUse(ctx context.Context, email string) (bool, error)
}

type store struct {
	pool    *pgxpool.Pool
	queries *Queries
}

func New(pool *pgxpool.Pool) Store {
	return &store{
		pool:    pool,
		queries: NewQueries(pool),
	}
}

func (s *store) ExecTx(ctx context.Context, fn func(Querier) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	q := s.queries.WithTx(tx)
	if err := fn(q); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx err: %v, rollback err: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *store) ClaimNumber(ctx context.Context, arg ClaimParams) (int64, error) {
	return s.queries.ClaimNumber(ctx, arg)
}

func (s *store) GetNumber(ctx context.Context, number string) (domain.ArmyNumber, error) {
	return s.queries.GetNumber(ctx, number)
}

func (s *store) DeleteNumber(ctx context.Context, number string) (int64, error) {
	return s.queries.DeleteNumber(ctx, number)
}

func (s *store) ListSold(ctx context.Context, arg ListParams) ([]domain.ArmyNumber, error) {
	return s.queries.ListSold(ctx, arg)
}

func (s *store) CountSold(ctx context.Context, search string) (int64, error) {
	return s.queries.CountSold(ctx, search)
}

func (s *store) ListByOwnerEmail(ctx context.Context, email string) ([]domain.ArmyNumber, error) {
	return s.queries.ListByOwnerEmail(ctx, email)
}

func (s *store) EmailInUse(ctx context.Context, email string) (bool, error) {
	return s.queries.EmailInUse(ctx, email)
}

func (s *store) GetPricing(ctx context.Context) (domain.PricingConfig, error) {
	var cfg domain.PricingConfig
	if err := s.queries.GetSetting(ctx, settingPricing, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *store) SetPricing(ctx context.Context, cfg domain.PricingConfig) error {
	return s.queries.PutSetting(ctx, settingPricing, cfg)
}

func (s *store) GetEventConfig(ctx context.Context) (domain.EventConfig, error) {
	var cfg domain.EventConfig
	if err := s.queries.GetSetting(ctx, settingEvent, &cfg); err != nil {
		return domain.EventConfig{}, err
	}
	return cfg, nil
}

func (s *store) SetEventConfig(ctx context.Context, cfg domain.EventConfig) error {
	return s.queries.PutSetting(ctx, settingEvent, cfg)
}
