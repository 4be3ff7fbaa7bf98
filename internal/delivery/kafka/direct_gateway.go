package kafka

import (
	"context"

	"github.com/armyverse/army-number-service/internal/domain"
	"github.com/armyverse/army-number-service/internal/usecase"
)

// DirectGateway bypasses Kafka and calls the service in-process, for
// deployments without a broker.
type DirectGateway struct {
	service *usecase.NumberService
}

func NewDirectGateway(service *usecase.NumberService) usecase.NumberGateway {
	return &DirectGateway{service: service}
}

func (g *DirectGateway) Search(ctx context.Context, number string) (*usecase.SearchResult, error) {
	return g.service.Search(ctx, number)
}

func (g *DirectGateway) Claim(ctx context.Context, req usecase.ClaimRequest) (*domain.ArmyNumber, error) {
	return g.service.Claim(ctx, req)
}

func (g *DirectGateway) VerifyOwnership(ctx context.Context, number, email string) (*domain.ArmyNumber, error) {
	return g.service.VerifyOwnership(ctx, number, email)
}
