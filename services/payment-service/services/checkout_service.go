package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	aws_pkg "github.com/hassansajjadkhan/goaliv2vercel-sub001/pkg/aws"
	apperrors "github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/errors"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/logger"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/cache"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/models"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/providers"
	"go.uber.org/zap"
)

// CheckoutService builds hosted checkout sessions.
type CheckoutService interface {
	// BuildIntent validates and prices a checkout without calling the gateway.
	BuildIntent(ctx context.Context, req *models.CheckoutRequest, payer models.Payer) (*models.CheckoutIntent, error)
	CreateCheckout(ctx context.Context, req *models.CheckoutRequest, payer models.Payer) (*models.CheckoutResponse, error)
}

// CheckoutConfig holds the redirect targets and pricing of checkouts.
type CheckoutConfig struct {
	SuccessURL      string
	CancelURL       string
	DefaultCurrency string
	FeeBPS          int64
}

type checkoutServiceImpl struct {
	stores  Stores
	routes  *cache.DestinationCache
	gateway providers.PaymentGateway
	fees    FeeCalculator
	cfg     CheckoutConfig
	metrics *aws_pkg.MetricsClient
	logger  *zap.Logger
}

func NewCheckoutService(
	stores Stores,
	routes *cache.DestinationCache,
	gateway providers.PaymentGateway,
	cfg CheckoutConfig,
	metrics *aws_pkg.MetricsClient,
	logger *zap.Logger,
) CheckoutService {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "usd"
	}
	return &checkoutServiceImpl{
		stores:  stores,
		routes:  routes,
		gateway: gateway,
		fees:    NewFeeCalculator(cfg.FeeBPS),
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *checkoutServiceImpl) CreateCheckout(ctx context.Context, req *models.CheckoutRequest, payer models.Payer) (*models.CheckoutResponse, error) {
	log := logger.For(ctx, s.logger)

	intent, err := s.BuildIntent(ctx, req, payer)
	if err != nil {
		s.recordRejected(ctx, err)
		return nil, err
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, models.CheckoutSessionRequest{
		LineItemName:         intent.LineItemName,
		UnitAmount:           intent.AmountMinor,
		Quantity:             1,
		Currency:             intent.Currency,
		ApplicationFeeAmount: intent.PlatformFee,
		Destination:          intent.Destination,
		CustomerEmail:        intent.Payer.Email,
		Metadata:             intent.Metadata(),
		SuccessURL:           s.cfg.SuccessURL,
		CancelURL:            s.cfg.CancelURL,
	})
	if err != nil {
		log.Error("Checkout session creation failed",
			zap.String("payable", intent.Payable.String()),
			zap.Error(err),
		)
		s.recordRejected(ctx, ErrGatewayUnavailable)
		return nil, ErrGatewayUnavailable.Wrap(err)
	}

	log.Info("Checkout session created",
		zap.String("session_id", sess.ID),
		zap.String("payable", intent.Payable.String()),
		zap.String("organization_id", intent.OrganizationID.String()),
		zap.Int64("amount", intent.AmountMinor),
		zap.Int64("platform_fee", intent.PlatformFee),
	)
	_ = s.metrics.RecordCount(ctx, aws_pkg.MetricCheckoutSessions, map[string]string{"Kind": string(intent.Payable.Kind())})

	return &models.CheckoutResponse{RedirectURL: sess.URL, SessionID: sess.ID}, nil
}

func (s *checkoutServiceImpl) BuildIntent(ctx context.Context, req *models.CheckoutRequest, payer models.Payer) (*models.CheckoutIntent, error) {
	if payer.UserID == uuid.Nil {
		return nil, ErrMissingPayer
	}
	if req == nil {
		return nil, ErrInvalidAmount
	}

	minor, err := ToMinor(req.Amount)
	if err != nil {
		return nil, err
	}

	payable, err := models.NewPayable(req.PayableRef)
	if err != nil {
		if errors.Is(err, models.ErrAmbiguousPayable) {
			return nil, ErrAmbiguousPayable
		}
		return nil, ErrInvalidPayable.Wrap(err)
	}

	orgID, itemName, err := s.resolveOwner(ctx, payable, payer)
	if err != nil {
		return nil, err
	}

	route, err := s.resolveRoute(ctx, orgID)
	if err != nil {
		return nil, err
	}

	currency := route.Currency
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	if req.Currency != "" && !strings.EqualFold(req.Currency, currency) {
		return nil, ErrUnsupportedCurrency.WithMessage(fmt.Sprintf("organization accepts %s only", strings.ToUpper(currency)))
	}

	return &models.CheckoutIntent{
		AmountMinor:    minor,
		Currency:       strings.ToLower(currency),
		Payable:        payable,
		Payer:          payer,
		PlatformFee:    s.fees.PlatformFee(minor),
		Destination:    route.Destination,
		OrganizationID: orgID,
		LineItemName:   itemName,
	}, nil
}

// resolveOwner walks payable -> owning member -> organization.
func (s *checkoutServiceImpl) resolveOwner(ctx context.Context, payable models.Payable, payer models.Payer) (uuid.UUID, string, error) {
	switch payable.Type() {
	case models.PayableFundraiser:
		f, err := s.stores.Fundraisers.FindByID(ctx, payable.ID())
		if err != nil {
			return uuid.Nil, "", s.lookupErr(err, ErrPayableNotFound)
		}
		orgID, err := s.memberOrganization(ctx, f.OwnerID)
		return orgID, "Donation: " + f.Title, err

	case models.PayableEvent:
		e, err := s.stores.Events.FindByID(ctx, payable.ID())
		if err != nil {
			return uuid.Nil, "", s.lookupErr(err, ErrPayableNotFound)
		}
		orgID, err := s.memberOrganization(ctx, e.CreatorID)
		return orgID, "Event ticket: " + e.Title, err

	case models.PayableDue:
		d, err := s.stores.Dues.FindByID(ctx, payable.ID())
		if err != nil {
			return uuid.Nil, "", s.lookupErr(err, ErrPayableNotFound)
		}
		if d.Paid {
			return uuid.Nil, "", ErrDueAlreadyPaid
		}
		return d.OrganizationID, "Membership dues " + d.Period, nil
	}

	orgID, err := s.memberOrganization(ctx, payer.UserID)
	return orgID, "Membership dues", err
}

func (s *checkoutServiceImpl) memberOrganization(ctx context.Context, memberID uuid.UUID) (uuid.UUID, error) {
	m, err := s.stores.Organizations.FindMember(ctx, memberID)
	if err != nil {
		return uuid.Nil, s.lookupErr(err, ErrOwnerUnresolved)
	}
	if m.OrganizationID == uuid.Nil {
		return uuid.Nil, ErrOwnerUnresolved
	}
	return m.OrganizationID, nil
}

// resolveRoute finds the payout destination, consulting the cache first.
func (s *checkoutServiceImpl) resolveRoute(ctx context.Context, orgID uuid.UUID) (models.PayoutRoute, error) {
	route, ok, err := s.routes.Get(ctx, orgID)
	if err != nil {
		logger.For(ctx, s.logger).Warn("Destination cache read failed", zap.Error(err))
	}
	if ok {
		return route, nil
	}

	org, err := s.stores.Organizations.FindOrganization(ctx, orgID)
	if err != nil {
		return models.PayoutRoute{}, s.lookupErr(err, ErrOwnerUnresolved)
	}
	dest, ok := org.PayoutDestination()
	if !ok {
		return models.PayoutRoute{}, ErrDestinationUnresolved
	}

	route = models.PayoutRoute{Destination: dest, Currency: org.Currency}
	if err := s.routes.Set(ctx, orgID, route); err != nil {
		logger.For(ctx, s.logger).Warn("Destination cache write failed", zap.Error(err))
	}
	return route, nil
}

func (s *checkoutServiceImpl) lookupErr(err error, notFound error) error {
	if isNotFound(err) {
		return notFound
	}
	return ErrStoreUnavailable.Wrap(err)
}

func (s *checkoutServiceImpl) recordRejected(ctx context.Context, err error) {
	_ = s.metrics.RecordCount(ctx, aws_pkg.MetricCheckoutRejected, map[string]string{"Reason": apperrors.From(err).Reason})
}
