package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	aws_pkg "github.com/hassansajjadkhan/goaliv2vercel-sub001/pkg/aws"
	apperrors "github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/errors"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/logger"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/models"
	"go.uber.org/zap"
)

const periodLayout = "2006-01"

// DuesService creates the per-period dues members pay through checkout.
type DuesService interface {
	GenerateDues(ctx context.Context, req models.DuesGenerationRequest) (*models.DuesGenerationResult, error)
}

type duesServiceImpl struct {
	stores          Stores
	publisher       EventPublisher
	defaultCurrency string
	metrics         *aws_pkg.MetricsClient
	logger          *zap.Logger
}

func NewDuesService(stores Stores, publisher EventPublisher, defaultCurrency string, metrics *aws_pkg.MetricsClient, logger *zap.Logger) DuesService {
	if defaultCurrency == "" {
		defaultCurrency = "usd"
	}
	return &duesServiceImpl{
		stores:          stores,
		publisher:       publisher,
		defaultCurrency: defaultCurrency,
		metrics:         metrics,
		logger:          logger,
	}
}

// ValidPeriod reports whether period is a YYYY-MM billing period.
func ValidPeriod(period string) bool {
	if len(period) != len(periodLayout) {
		return false
	}
	_, err := time.Parse(periodLayout, period)
	return err == nil
}

// GenerateDues inserts one due per payee for the period. Running it twice
// for the same period creates nothing the second time.
func (s *duesServiceImpl) GenerateDues(ctx context.Context, req models.DuesGenerationRequest) (*models.DuesGenerationResult, error) {
	log := logger.For(ctx, s.logger)

	orgID, err := uuid.Parse(strings.TrimSpace(req.OrganizationID))
	if err != nil {
		return nil, apperrors.ErrInvalidInput.WithMessage("organization_id must be a uuid")
	}
	if !ValidPeriod(req.Period) {
		return nil, ErrInvalidPeriod
	}

	org, err := s.stores.Organizations.FindOrganization(ctx, orgID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrOrganizationNotFound
		}
		return nil, ErrStoreUnavailable.Wrap(err)
	}

	amount := org.DuesAmount
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount <= 0 {
		return nil, ErrInvalidDuesAmount
	}
	currency := org.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}

	payees, err := s.stores.Organizations.ListMembersByRole(ctx, orgID, models.RolePayee)
	if err != nil {
		return nil, ErrStoreUnavailable.Wrap(err)
	}

	result := &models.DuesGenerationResult{OrganizationID: orgID.String(), Period: req.Period}
	for _, m := range payees {
		created, err := s.stores.Dues.InsertIfAbsent(ctx, &models.Due{
			OrganizationID: orgID,
			MemberID:       m.ID,
			Period:         req.Period,
			PayerID:        m.GuardianID,
			Amount:         amount,
			Currency:       strings.ToLower(currency),
		})
		if err != nil {
			log.Error("Failed to insert due",
				zap.String("member_id", m.ID.String()),
				zap.String("period", req.Period),
				zap.Error(err),
			)
			return nil, ErrStoreUnavailable.Wrap(err)
		}
		if created {
			result.Created++
		} else {
			result.Skipped++
		}
	}

	log.Info("Dues generated",
		zap.String("organization_id", orgID.String()),
		zap.String("period", req.Period),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
	_ = s.metrics.RecordValue(ctx, aws_pkg.MetricDuesGenerated, float64(result.Created), nil)

	if result.Created > 0 {
		publishEvent(ctx, s.publisher, log, orgID.String(), models.DuesGeneratedEvent{
			EventType:      models.EventTypeDuesGenerated,
			OrganizationID: orgID.String(),
			Period:         req.Period,
			Created:        result.Created,
			Timestamp:      time.Now().UTC(),
		})
	}
	return result, nil
}
