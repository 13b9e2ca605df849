package services_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/errors"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/models"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/providers"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/services"
	"gorm.io/gorm"
)

// ---- in-memory store ----

type memStore struct {
	mu sync.Mutex

	payments    map[string]*models.Payment // by session id
	orgs        map[uuid.UUID]*models.Organization
	members     map[uuid.UUID]*models.Member
	fundraisers map[uuid.UUID]*models.Fundraiser
	events      map[uuid.UUID]*models.Event
	dues        map[uuid.UUID]*models.Due
	tickets     map[uuid.UUID]*models.Ticket // by payment id

	createPaymentErr error
	recomputeErr     error
	markPaidErr      error
	findMemberErr    error
	findOrgErr       error

	// honorCtx makes post-guard writes fail once their context is done.
	honorCtx         bool
	onPaymentCreated func()
}

func newMemStore() *memStore {
	return &memStore{
		payments:    map[string]*models.Payment{},
		orgs:        map[uuid.UUID]*models.Organization{},
		members:     map[uuid.UUID]*models.Member{},
		fundraisers: map[uuid.UUID]*models.Fundraiser{},
		events:      map[uuid.UUID]*models.Event{},
		dues:        map[uuid.UUID]*models.Due{},
		tickets:     map[uuid.UUID]*models.Ticket{},
	}
}

func (m *memStore) stores() services.Stores {
	return services.Stores{
		Payments:      memPayments{m},
		Organizations: memOrgs{m},
		Fundraisers:   memFundraisers{m},
		Events:        memEvents{m},
		Dues:          memDues{m},
		Tickets:       memTickets{m},
	}
}

func (m *memStore) ctxErr(ctx context.Context) error {
	if m.honorCtx {
		return ctx.Err()
	}
	return nil
}

func (m *memStore) paymentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

func (m *memStore) ticketCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickets)
}

// seedOrg creates an organization with one admin member and returns both.
func (m *memStore) seedOrg(payoutAccount string) (*models.Organization, *models.Member) {
	org := &models.Organization{ID: uuid.New(), Name: "Riverside FC", PayoutAccountID: payoutAccount, DuesAmount: 2500, Currency: "usd"}
	admin := &models.Member{ID: uuid.New(), OrganizationID: org.ID, Role: models.RoleAdmin, Email: "admin@riverside.example"}
	m.orgs[org.ID] = org
	m.members[admin.ID] = admin
	return org, admin
}

func (m *memStore) seedMember(orgID uuid.UUID, role string, guardian *uuid.UUID) *models.Member {
	mem := &models.Member{ID: uuid.New(), OrganizationID: orgID, Role: role, GuardianID: guardian, CreatedAt: time.Now()}
	m.members[mem.ID] = mem
	return mem
}

type memPayments struct{ *memStore }

func (r memPayments) CreateIfAbsent(_ context.Context, p *models.Payment) (bool, error) {
	created, err := r.insertPayment(p)
	if created && r.onPaymentCreated != nil {
		r.onPaymentCreated()
	}
	return created, err
}

func (r memPayments) insertPayment(p *models.Payment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createPaymentErr != nil {
		return false, r.createPaymentErr
	}
	if _, ok := r.payments[p.SessionID]; ok {
		return false, nil
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	cp := *p
	r.payments[p.SessionID] = &cp
	return true, nil
}

func (r memPayments) FindByID(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memPayments) FindBySessionID(_ context.Context, sessionID string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.payments[sessionID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memPayments) ListByOrganization(_ context.Context, orgID uuid.UUID, page, limit int) ([]models.Payment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Payment
	for _, p := range r.payments {
		if p.OrganizationID != nil && *p.OrganizationID == orgID {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r memPayments) SetFulfillmentError(ctx context.Context, id uuid.UUID, msg *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ctxErr(ctx); err != nil {
		return err
	}
	for _, p := range r.payments {
		if p.ID == id {
			p.FulfillmentError = msg
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type memOrgs struct{ *memStore }

func (r memOrgs) FindOrganization(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findOrgErr != nil {
		return nil, r.findOrgErr
	}
	if o, ok := r.orgs[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memOrgs) FindMember(_ context.Context, id uuid.UUID) (*models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findMemberErr != nil {
		return nil, r.findMemberErr
	}
	if m, ok := r.members[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memOrgs) ListMembersByRole(_ context.Context, orgID uuid.UUID, role string) ([]models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Member
	for _, m := range r.members {
		if m.OrganizationID == orgID && m.Role == role {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r memOrgs) SetPayoutAccount(_ context.Context, orgID uuid.UUID, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orgs[orgID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.PayoutAccountID = accountID
	return nil
}

func (r memOrgs) SetPayoutsEnabled(_ context.Context, accountID string, enabled bool) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orgs {
		if o.PayoutAccountID == accountID {
			o.PayoutsEnabled = enabled
			return o.ID, nil
		}
	}
	return uuid.Nil, nil
}

type memFundraisers struct{ *memStore }

func (r memFundraisers) FindByID(_ context.Context, id uuid.UUID) (*models.Fundraiser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.fundraisers[id]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memFundraisers) RecomputeTotal(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recomputeErr != nil {
		return r.recomputeErr
	}
	if err := r.ctxErr(ctx); err != nil {
		return err
	}
	f, ok := r.fundraisers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	var sum int64
	for _, p := range r.payments {
		if p.FundraiserID != nil && *p.FundraiserID == id &&
			p.Kind == models.PaymentKindDonation && p.Status == models.PaymentStatusCompleted {
			sum += p.Amount
		}
	}
	f.AmountRaised = sum
	return nil
}

type memEvents struct{ *memStore }

func (r memEvents) FindByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.events[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type memDues struct{ *memStore }

func (r memDues) FindByID(_ context.Context, id uuid.UUID) (*models.Due, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.dues[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memDues) MarkPaid(ctx context.Context, id, paidBy uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markPaidErr != nil {
		return false, r.markPaidErr
	}
	if err := r.ctxErr(ctx); err != nil {
		return false, err
	}
	d, ok := r.dues[id]
	if !ok || d.Paid {
		return false, nil
	}
	d.Paid = true
	d.PaidBy = &paidBy
	d.PaidAt = &at
	return true, nil
}

func (r memDues) InsertIfAbsent(_ context.Context, due *models.Due) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.dues {
		if d.MemberID == due.MemberID && d.Period == due.Period {
			return false, nil
		}
	}
	if due.ID == uuid.Nil {
		due.ID = uuid.New()
	}
	cp := *due
	r.dues[due.ID] = &cp
	return true, nil
}

type memTickets struct{ *memStore }

func (r memTickets) CreateIfAbsent(ctx context.Context, t *models.Ticket) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ctxErr(ctx); err != nil {
		return false, err
	}
	if _, ok := r.tickets[t.PaymentID]; ok {
		return false, nil
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	cp := *t
	r.tickets[t.PaymentID] = &cp
	return true, nil
}

func (r memTickets) FindByPaymentID(_ context.Context, paymentID uuid.UUID) (*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tickets[paymentID]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ---- gateway ----

const validSignature = "t=1,v1=valid"

type fakeGateway struct {
	mu sync.Mutex

	sessions   []models.CheckoutSessionRequest
	sessionErr error

	event     models.WebhookEvent
	verifyErr error

	accountsCreated int
	accountErr      error
	linkErr         error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req models.CheckoutSessionRequest) (models.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions = append(g.sessions, req)
	if g.sessionErr != nil {
		return models.CheckoutSession{}, g.sessionErr
	}
	return models.CheckoutSession{ID: "cs_test_new", URL: "https://checkout.stripe.test/c/pay/cs_test_new"}, nil
}

func (g *fakeGateway) VerifyWebhook(_ []byte, signature string) (models.WebhookEvent, error) {
	if signature != validSignature {
		return models.WebhookEvent{}, providers.ErrSignatureMismatch
	}
	return g.event, g.verifyErr
}

func (g *fakeGateway) CreateConnectedAccount(_ context.Context, req models.ConnectedAccountRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.accountErr != nil {
		return "", g.accountErr
	}
	g.accountsCreated++
	return "acct_" + req.OrganizationID[:8], nil
}

func (g *fakeGateway) CreateOnboardingLink(_ context.Context, accountID, _, _ string) (string, error) {
	if g.linkErr != nil {
		return "", g.linkErr
	}
	return "https://connect.stripe.test/setup/" + accountID, nil
}

// ---- uploader / publisher ----

type fakeUploader struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (u *fakeUploader) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return "", u.err
	}
	u.keys = append(u.keys, key)
	return "https://tickets.s3.test/" + key, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *fakePublisher) PublishEvent(_ context.Context, _ string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

var errStoreDown = errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")

func statusOf(err error) int {
	return apperrors.From(err).Code
}
