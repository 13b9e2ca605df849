package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/models"
)

// ReportingService serves read-only views over recorded payments.
type ReportingService interface {
	ListOrganizationPayments(ctx context.Context, orgID uuid.UUID, page, limit int) (*models.PaymentList, error)
	GetFundraiser(ctx context.Context, id uuid.UUID) (*models.Fundraiser, error)
}

type reportingServiceImpl struct {
	stores Stores
}

func NewReportingService(stores Stores) ReportingService {
	return &reportingServiceImpl{stores: stores}
}

func (s *reportingServiceImpl) ListOrganizationPayments(ctx context.Context, orgID uuid.UUID, page, limit int) (*models.PaymentList, error) {
	payments, total, err := s.stores.Payments.ListByOrganization(ctx, orgID, page, limit)
	if err != nil {
		return nil, ErrStoreUnavailable.Wrap(err)
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	return &models.PaymentList{Payments: payments, Total: total, Page: page, Limit: limit}, nil
}

func (s *reportingServiceImpl) GetFundraiser(ctx context.Context, id uuid.UUID) (*models.Fundraiser, error) {
	f, err := s.stores.Fundraisers.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrFundraiserNotFound
		}
		return nil, ErrStoreUnavailable.Wrap(err)
	}
	return f, nil
}
