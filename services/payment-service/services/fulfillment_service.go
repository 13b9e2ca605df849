package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	aws_pkg "github.com/hassansajjadkhan/goaliv2vercel-sub001/pkg/aws"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/logger"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/cache"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/models"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/providers"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const effectsTimeout = 30 * time.Second

// FulfillmentService turns verified gateway notifications into payment
// records and their side effects, exactly once per checkout session.
type FulfillmentService interface {
	// HandleWebhook verifies and dispatches a raw webhook delivery. The only
	// errors returned are a bad signature and a store failure that happened
	// before anything was recorded.
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*models.FulfillmentResult, error)
	// Fulfill records a completion event and applies its effects.
	Fulfill(ctx context.Context, ev models.CompletionEvent) (*models.FulfillmentResult, error)
	// Reconcile re-applies the effects of an already recorded payment on
	// behalf of an admin of orgID.
	Reconcile(ctx context.Context, orgID, paymentID uuid.UUID) (*models.FulfillmentResult, error)
}

type fulfillmentServiceImpl struct {
	stores    Stores
	gateway   providers.PaymentGateway
	tickets   *TicketIssuer
	routes    *cache.DestinationCache
	publisher EventPublisher
	metrics   *aws_pkg.MetricsClient
	logger    *zap.Logger
	now       func() time.Time
}

func NewFulfillmentService(
	stores Stores,
	gateway providers.PaymentGateway,
	tickets *TicketIssuer,
	routes *cache.DestinationCache,
	publisher EventPublisher,
	metrics *aws_pkg.MetricsClient,
	logger *zap.Logger,
) FulfillmentService {
	return &fulfillmentServiceImpl{
		stores:    stores,
		gateway:   gateway,
		tickets:   tickets,
		routes:    routes,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *fulfillmentServiceImpl) HandleWebhook(ctx context.Context, payload []byte, signature string) (*models.FulfillmentResult, error) {
	log := logger.For(ctx, s.logger)

	ev, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, providers.ErrSignatureMismatch) {
			log.Warn("Webhook signature verification failed", zap.Error(err))
			_ = s.metrics.RecordCount(ctx, aws_pkg.MetricWebhookRejected, nil)
			return nil, ErrInvalidSignature.Wrap(err)
		}
		// Authentic but undecodable: redelivery would not help.
		log.Error("Verified webhook could not be decoded", zap.String("event_id", ev.ID), zap.Error(err))
		return &models.FulfillmentResult{Outcome: models.OutcomeIgnored}, nil
	}

	log.Info("Processing webhook", zap.String("event_type", ev.Type), zap.String("event_id", ev.ID))

	switch {
	case ev.Completion != nil:
		if ev.Completion.PaymentStatus != "" && ev.Completion.PaymentStatus != models.SessionPaymentStatusPaid {
			log.Info("Checkout completed without payment yet, waiting for async result",
				zap.String("session_id", ev.Completion.SessionID),
				zap.String("payment_status", ev.Completion.PaymentStatus),
			)
			return &models.FulfillmentResult{Outcome: models.OutcomeIgnored}, nil
		}
		return s.Fulfill(ctx, *ev.Completion)
	case ev.Account != nil:
		return s.handleAccountUpdate(ctx, *ev.Account)
	}

	log.Debug("Unhandled webhook event type", zap.String("event_type", ev.Type))
	return &models.FulfillmentResult{Outcome: models.OutcomeIgnored}, nil
}

func (s *fulfillmentServiceImpl) Fulfill(ctx context.Context, ev models.CompletionEvent) (*models.FulfillmentResult, error) {
	log := logger.For(ctx, s.logger).With(zap.String("session_id", ev.SessionID))

	payable, issues := classify(ev.Metadata)
	payerID, _ := uuid.Parse(ev.Metadata[models.MetadataPayerUserID])

	orgID, err := s.payerOrganization(ctx, payerID)
	if err != nil {
		log.Error("Payer organization lookup failed", zap.Error(err))
		return nil, ErrStoreUnavailable.Wrap(err)
	}

	fundraiserID, eventID, dueID := payable.Columns()
	payment := &models.Payment{
		SessionID:        ev.SessionID,
		GatewayEventID:   ev.EventID,
		PayerUserID:      payerID,
		PayerEmail:       ev.Metadata[models.MetadataPayerEmail],
		OrganizationID:   orgID,
		Amount:           ev.AmountTotal,
		Currency:         strings.ToLower(ev.Currency),
		Method:           models.PaymentMethodCard,
		Status:           models.PaymentStatusCompleted,
		Kind:             payable.Kind(),
		FundraiserID:     fundraiserID,
		EventID:          eventID,
		DueID:            dueID,
		Metadata:         toJSONMap(ev.Metadata),
		FulfillmentError: joinIssues(issues),
	}

	created, err := s.stores.Payments.CreateIfAbsent(ctx, payment)
	if err != nil {
		log.Error("Idempotency guard failed, gateway will redeliver", zap.Error(err))
		return nil, ErrStoreUnavailable.Wrap(err)
	}
	if !created {
		log.Info("Duplicate completion event, skipping")
		_ = s.metrics.RecordCount(ctx, aws_pkg.MetricDuplicateDeliveries, nil)
		result := &models.FulfillmentResult{Outcome: models.OutcomeDuplicate, Kind: payment.Kind}
		if existing, err := s.stores.Payments.FindBySessionID(ctx, ev.SessionID); err == nil {
			result.PaymentID = existing.ID.String()
		}
		return result, nil
	}

	// A redelivery now stops at the guard: effects and the partial flag must
	// outlive the inbound request.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), effectsTimeout)
	defer cancel()

	log = log.With(zap.String("payment_id", payment.ID.String()), zap.String("kind", string(payment.Kind)))
	log.Info("Payment recorded", zap.Int64("amount", payment.Amount), zap.String("payable", payable.String()))
	_ = s.metrics.RecordCount(ctx, aws_pkg.MetricPaymentsRecorded, map[string]string{"Kind": string(payment.Kind)})

	if len(issues) > 0 {
		log.Warn("Completion event recorded without effects", zap.Strings("issues", issues))
	}

	effectErrs := s.applyEffects(ctx, payment)
	all := append(append([]string{}, issues...), effectErrs...)
	if len(effectErrs) > 0 {
		s.flagPartial(ctx, payment.ID, all)
	}

	s.publishCompleted(ctx, payment, all)

	return &models.FulfillmentResult{
		Outcome:   models.OutcomeProcessed,
		PaymentID: payment.ID.String(),
		Kind:      payment.Kind,
		Errors:    effectErrs,
	}, nil
}

func (s *fulfillmentServiceImpl) Reconcile(ctx context.Context, orgID, paymentID uuid.UUID) (*models.FulfillmentResult, error) {
	log := logger.For(ctx, s.logger).With(zap.String("payment_id", paymentID.String()))

	payment, err := s.stores.Payments.FindByID(ctx, paymentID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrPaymentNotFound
		}
		return nil, ErrStoreUnavailable.Wrap(err)
	}

	owner, err := s.accountingOrganization(ctx, payment)
	if err != nil {
		return nil, ErrStoreUnavailable.Wrap(err)
	}
	if owner == nil || *owner != orgID {
		log.Warn("Reconcile refused for payment outside caller organization", zap.String("organization_id", orgID.String()))
		return nil, ErrForeignPayment
	}

	_, issues := classify(fromJSONMap(payment.Metadata))
	effectErrs := s.applyEffects(ctx, payment)
	remaining := append(issues, effectErrs...)

	if err := s.stores.Payments.SetFulfillmentError(ctx, payment.ID, joinIssues(remaining)); err != nil {
		log.Error("Failed to update fulfillment error", zap.Error(err))
		return nil, ErrStoreUnavailable.Wrap(err)
	}

	if len(remaining) == 0 {
		log.Info("Payment reconciled")
	} else {
		log.Warn("Payment still partially fulfilled", zap.Strings("issues", remaining))
	}

	return &models.FulfillmentResult{
		Outcome:   models.OutcomeProcessed,
		PaymentID: payment.ID.String(),
		Kind:      payment.Kind,
		Errors:    effectErrs,
	}, nil
}

// applyEffects runs the kind-specific effect of payment. Every branch is
// safe to repeat.
func (s *fulfillmentServiceImpl) applyEffects(ctx context.Context, payment *models.Payment) []string {
	log := logger.For(ctx, s.logger).With(zap.String("payment_id", payment.ID.String()))
	payable := payment.Payable()

	switch payable.Type() {
	case models.PayableDue:
		settled, err := s.stores.Dues.MarkPaid(ctx, payable.ID(), payment.PayerUserID, s.now().UTC())
		if err != nil {
			log.Error("Failed to mark due paid", zap.String("due_id", payable.ID().String()), zap.Error(err))
			return []string{fmt.Sprintf("mark due %s paid: %v", payable.ID(), err)}
		}
		if !settled {
			log.Info("Due already paid or missing, nothing to do", zap.String("due_id", payable.ID().String()))
			return nil
		}
		_ = s.metrics.RecordCount(ctx, aws_pkg.MetricDuesSettled, nil)

	case models.PayableFundraiser:
		if err := s.stores.Fundraisers.RecomputeTotal(ctx, payable.ID()); err != nil {
			log.Error("Failed to recompute fundraiser total", zap.String("fundraiser_id", payable.ID().String()), zap.Error(err))
			return []string{fmt.Sprintf("recompute fundraiser %s: %v", payable.ID(), err)}
		}
		_ = s.metrics.RecordCount(ctx, aws_pkg.MetricFundraiserRecomputed, nil)

	case models.PayableEvent:
		if err := s.issueTicket(ctx, payment, payable.ID()); err != nil {
			log.Error("Failed to issue ticket", zap.String("event_id", payable.ID().String()), zap.Error(err))
			return []string{fmt.Sprintf("issue ticket for event %s: %v", payable.ID(), err)}
		}
	}
	return nil
}

func (s *fulfillmentServiceImpl) issueTicket(ctx context.Context, payment *models.Payment, eventID uuid.UUID) error {
	if existing, err := s.stores.Tickets.FindByPaymentID(ctx, payment.ID); err == nil && existing != nil {
		return nil
	} else if err != nil && !isNotFound(err) {
		return err
	}

	caption := "ADMIT ONE"
	if ev, err := s.stores.Events.FindByID(ctx, eventID); err == nil {
		caption = ev.Title
	}

	ticket, err := s.tickets.Issue(ctx, payment.ID, payment.PayerUserID, eventID, caption)
	if err != nil {
		return err
	}
	created, err := s.stores.Tickets.CreateIfAbsent(ctx, ticket)
	if err != nil {
		return err
	}
	if created {
		_ = s.metrics.RecordCount(ctx, aws_pkg.MetricTicketsIssued, nil)
	}
	return nil
}

func (s *fulfillmentServiceImpl) handleAccountUpdate(ctx context.Context, acct models.AccountUpdate) (*models.FulfillmentResult, error) {
	log := logger.For(ctx, s.logger).With(zap.String("account_id", acct.AccountID))

	orgID, err := s.stores.Organizations.SetPayoutsEnabled(ctx, acct.AccountID, acct.PayoutsEnabled)
	if err != nil {
		log.Error("Failed to update payout status", zap.Error(err))
		return nil, ErrStoreUnavailable.Wrap(err)
	}
	if orgID == uuid.Nil {
		log.Info("Account update for unknown organization")
		return &models.FulfillmentResult{Outcome: models.OutcomeIgnored}, nil
	}
	if err := s.routes.Invalidate(ctx, orgID); err != nil {
		log.Warn("Destination cache invalidation failed", zap.Error(err))
	}
	log.Info("Payout status updated",
		zap.String("organization_id", orgID.String()),
		zap.Bool("payouts_enabled", acct.PayoutsEnabled),
	)
	return &models.FulfillmentResult{Outcome: models.OutcomeProcessed}, nil
}

// payerOrganization returns nil when the payer is not a known member.
func (s *fulfillmentServiceImpl) payerOrganization(ctx context.Context, payerID uuid.UUID) (*uuid.UUID, error) {
	if payerID == uuid.Nil {
		return nil, nil
	}
	m, err := s.stores.Organizations.FindMember(ctx, payerID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if m.OrganizationID == uuid.Nil {
		return nil, nil
	}
	orgID := m.OrganizationID
	return &orgID, nil
}

// accountingOrganization is the organization a payment is reported under:
// the payer's, or when the payer is unknown, the organization that owns the
// payable.
func (s *fulfillmentServiceImpl) accountingOrganization(ctx context.Context, p *models.Payment) (*uuid.UUID, error) {
	if p.OrganizationID != nil {
		return p.OrganizationID, nil
	}
	payable := p.Payable()
	switch payable.Type() {
	case models.PayableDue:
		d, err := s.stores.Dues.FindByID(ctx, payable.ID())
		if err != nil {
			return nil, ignoreNotFound(err)
		}
		return &d.OrganizationID, nil
	case models.PayableFundraiser:
		f, err := s.stores.Fundraisers.FindByID(ctx, payable.ID())
		if err != nil {
			return nil, ignoreNotFound(err)
		}
		return s.payerOrganization(ctx, f.OwnerID)
	case models.PayableEvent:
		e, err := s.stores.Events.FindByID(ctx, payable.ID())
		if err != nil {
			return nil, ignoreNotFound(err)
		}
		return s.payerOrganization(ctx, e.CreatorID)
	}
	return nil, nil
}

func (s *fulfillmentServiceImpl) flagPartial(ctx context.Context, paymentID uuid.UUID, issues []string) {
	_ = s.metrics.RecordCount(ctx, aws_pkg.MetricPartialFulfillments, nil)
	if err := s.stores.Payments.SetFulfillmentError(ctx, paymentID, joinIssues(issues)); err != nil {
		logger.For(ctx, s.logger).Error("Failed to flag partial fulfillment",
			zap.String("payment_id", paymentID.String()),
			zap.Error(err),
		)
	}
}

func (s *fulfillmentServiceImpl) publishCompleted(ctx context.Context, p *models.Payment, issues []string) {
	event := models.PaymentCompletedEvent{
		EventType:   models.EventTypePaymentCompleted,
		PaymentID:   p.ID.String(),
		SessionID:   p.SessionID,
		Kind:        string(p.Kind),
		PayerUserID: p.PayerUserID.String(),
		Amount:      p.Amount,
		Currency:    p.Currency,
		Timestamp:   s.now().UTC(),
	}
	if p.OrganizationID != nil {
		event.OrganizationID = p.OrganizationID.String()
	}
	ref := p.Payable().Ref()
	event.FundraiserID, event.EventID, event.DueID = ref.FundraiserID, ref.EventID, ref.DueID
	if msg := joinIssues(issues); msg != nil {
		event.FulfillmentError = *msg
	}
	publishEvent(ctx, s.publisher, logger.For(ctx, s.logger), p.ID.String(), event)
}

// classify decodes the payable from gateway metadata. Metadata that does not
// name exactly one valid payable yields PayableNone plus an issue, so the
// payment is still recorded.
func classify(md map[string]string) (models.Payable, []string) {
	var issues []string
	payable, err := models.PayableFromMetadata(md)
	if err != nil {
		issues = append(issues, "unclassifiable metadata: "+err.Error())
		payable = models.Payable{}
	}
	if _, err := uuid.Parse(md[models.MetadataPayerUserID]); err != nil {
		issues = append(issues, "missing or invalid payer_user_id")
	}
	return payable, issues
}

func joinIssues(issues []string) *string {
	if len(issues) == 0 {
		return nil
	}
	msg := strings.Join(issues, "; ")
	return &msg
}

func toJSONMap(md map[string]string) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for k, v := range md {
		out[k] = v
	}
	return out
}

func fromJSONMap(m datatypes.JSONMap) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
