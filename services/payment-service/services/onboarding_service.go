package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/logger"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/cache"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/models"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/providers"
	"go.uber.org/zap"
)

// OnboardingService connects organizations to the gateway so they can
// receive payouts.
type OnboardingService interface {
	StartOnboarding(ctx context.Context, orgID uuid.UUID, contactEmail string) (*models.OnboardingResponse, error)
}

type OnboardingConfig struct {
	RefreshURL string
	ReturnURL  string
	Country    string
}

type onboardingServiceImpl struct {
	stores  Stores
	gateway providers.PaymentGateway
	routes  *cache.DestinationCache
	cfg     OnboardingConfig
	logger  *zap.Logger
}

func NewOnboardingService(stores Stores, gateway providers.PaymentGateway, routes *cache.DestinationCache, cfg OnboardingConfig, logger *zap.Logger) OnboardingService {
	return &onboardingServiceImpl{stores: stores, gateway: gateway, routes: routes, cfg: cfg, logger: logger}
}

// StartOnboarding creates the organization's connected account on first use
// and returns a fresh onboarding link for it.
func (s *onboardingServiceImpl) StartOnboarding(ctx context.Context, orgID uuid.UUID, contactEmail string) (*models.OnboardingResponse, error) {
	log := logger.For(ctx, s.logger).With(zap.String("organization_id", orgID.String()))

	org, err := s.stores.Organizations.FindOrganization(ctx, orgID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrOrganizationNotFound
		}
		return nil, ErrStoreUnavailable.Wrap(err)
	}

	accountID, ok := org.PayoutDestination()
	if !ok {
		accountID, err = s.gateway.CreateConnectedAccount(ctx, models.ConnectedAccountRequest{
			OrganizationID: orgID.String(),
			Email:          contactEmail,
			Country:        s.cfg.Country,
		})
		if err != nil {
			log.Error("Connected account creation failed", zap.Error(err))
			return nil, ErrGatewayUnavailable.Wrap(err)
		}
		if err := s.stores.Organizations.SetPayoutAccount(ctx, orgID, accountID); err != nil {
			log.Error("Failed to save payout account", zap.String("account_id", accountID), zap.Error(err))
			return nil, ErrStoreUnavailable.Wrap(err)
		}
		if err := s.routes.Invalidate(ctx, orgID); err != nil {
			log.Warn("Destination cache invalidation failed", zap.Error(err))
		}
		log.Info("Connected account created", zap.String("account_id", accountID))
	}

	url, err := s.gateway.CreateOnboardingLink(ctx, accountID, s.cfg.RefreshURL, s.cfg.ReturnURL)
	if err != nil {
		log.Error("Onboarding link creation failed", zap.Error(err))
		return nil, ErrGatewayUnavailable.Wrap(err)
	}

	return &models.OnboardingResponse{AccountID: accountID, OnboardingURL: url}, nil
}
