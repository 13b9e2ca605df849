package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/controllers"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/middleware"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/models"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mock Services ---

type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) BuildIntent(ctx context.Context, req *models.CheckoutRequest, payer models.Payer) (*models.CheckoutIntent, error) {
	args := m.Called(ctx, req, payer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckoutIntent), args.Error(1)
}

func (m *MockCheckoutService) CreateCheckout(ctx context.Context, req *models.CheckoutRequest, payer models.Payer) (*models.CheckoutResponse, error) {
	args := m.Called(ctx, req, payer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckoutResponse), args.Error(1)
}

type MockFulfillmentService struct {
	mock.Mock
}

func (m *MockFulfillmentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*models.FulfillmentResult, error) {
	args := m.Called(ctx, payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FulfillmentResult), args.Error(1)
}

func (m *MockFulfillmentService) Fulfill(ctx context.Context, ev models.CompletionEvent) (*models.FulfillmentResult, error) {
	args := m.Called(ctx, ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FulfillmentResult), args.Error(1)
}

func (m *MockFulfillmentService) Reconcile(ctx context.Context, orgID, paymentID uuid.UUID) (*models.FulfillmentResult, error) {
	args := m.Called(ctx, orgID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FulfillmentResult), args.Error(1)
}

type MockReportingService struct {
	mock.Mock
}

func (m *MockReportingService) ListOrganizationPayments(ctx context.Context, orgID uuid.UUID, page, limit int) (*models.PaymentList, error) {
	args := m.Called(ctx, orgID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentList), args.Error(1)
}

func (m *MockReportingService) GetFundraiser(ctx context.Context, id uuid.UUID) (*models.Fundraiser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Fundraiser), args.Error(1)
}

// --- Helpers ---

const callerID = "6f1c0d2e-7d0b-4a55-9b55-2b1f5c1f7a10"

var callerOrg = uuid.MustParse("1d2c3b4a-5f6e-4d7c-8b9a-0f1e2d3c4b5a")

// withCallerOrg stands in for ResolveOrganization.
func withCallerOrg(c *gin.Context) {
	c.Set(middleware.OrgKey, callerOrg.String())
	c.Next()
}

func setupRouter(co services.CheckoutService, fu services.FulfillmentService, rep services.ReportingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	pc := controllers.NewPaymentController(co, fu, rep, zap.NewNop())

	r.POST("/webhook", pc.StripeWebhook)
	authed := r.Group("/", middleware.AuthMiddleware(nil))
	authed.POST("/checkout", pc.CreateCheckout)
	authed.GET("/fundraisers/:id", pc.GetFundraiser)
	authed.POST("/payments/:id/reconcile", withCallerOrg, pc.Reconcile)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", callerID)
	req.Header.Set("X-User-Email", "parent@club.example")
	req.Header.Set("X-User-Role", "guardian")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// --- Tests ---

func TestCreateCheckout_Success(t *testing.T) {
	co := new(MockCheckoutService)
	fundraiserID := uuid.NewString()
	co.On("CreateCheckout", mock.Anything,
		mock.MatchedBy(func(req *models.CheckoutRequest) bool {
			return req.Amount.String() == "100" && req.FundraiserID == fundraiserID
		}),
		mock.MatchedBy(func(p models.Payer) bool {
			return p.UserID.String() == callerID && p.Email == "parent@club.example"
		}),
	).Return(&models.CheckoutResponse{RedirectURL: "https://checkout.stripe.test/c/pay/cs_1", SessionID: "cs_1"}, nil).Once()
	r := setupRouter(co, new(MockFulfillmentService), new(MockReportingService))

	w := doJSON(r, http.MethodPost, "/checkout", `{"amount":"100.00","fundraiser_id":"`+fundraiserID+`"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://checkout.stripe.test/c/pay/cs_1", decodeBody(t, w)["redirect_url"])
	co.AssertExpectations(t)
}

func TestCreateCheckout_NumericAmount(t *testing.T) {
	co := new(MockCheckoutService)
	co.On("CreateCheckout", mock.Anything,
		mock.MatchedBy(func(req *models.CheckoutRequest) bool { return req.Amount.String() == "12.5" }),
		mock.Anything,
	).Return(&models.CheckoutResponse{}, nil).Once()
	r := setupRouter(co, new(MockFulfillmentService), new(MockReportingService))

	w := doJSON(r, http.MethodPost, "/checkout", `{"amount":12.5}`)

	assert.Equal(t, http.StatusOK, w.Code)
	co.AssertExpectations(t)
}

func TestCreateCheckout_ServiceErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		reason string
	}{
		{services.ErrDestinationUnresolved, http.StatusUnprocessableEntity, "destination_unresolved"},
		{services.ErrAmbiguousPayable, http.StatusBadRequest, "ambiguous_payable"},
		{services.ErrDueAlreadyPaid, http.StatusConflict, "due_already_paid"},
		{services.ErrGatewayUnavailable, http.StatusBadGateway, "gateway_error"},
	}
	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			co := new(MockCheckoutService)
			co.On("CreateCheckout", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err).Once()
			r := setupRouter(co, new(MockFulfillmentService), new(MockReportingService))

			w := doJSON(r, http.MethodPost, "/checkout", `{"amount":"10"}`)

			assert.Equal(t, tt.status, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, tt.reason, body["reason"])
			assert.NotEmpty(t, body["message"])
		})
	}

	co := new(MockCheckoutService)
	co.On("CreateCheckout", mock.Anything, mock.Anything, mock.Anything).Return(nil, services.ErrDestinationUnresolved)
	r := setupRouter(co, new(MockFulfillmentService), new(MockReportingService))
	w := doJSON(r, http.MethodPost, "/checkout", `{"amount":"10"}`)
	assert.Equal(t, "organization has not connected payouts", decodeBody(t, w)["message"])
}

func TestCreateCheckout_BadJSON(t *testing.T) {
	co := new(MockCheckoutService)
	r := setupRouter(co, new(MockFulfillmentService), new(MockReportingService))

	w := doJSON(r, http.MethodPost, "/checkout", `{"amount":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	co.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateCheckout_Unauthenticated(t *testing.T) {
	co := new(MockCheckoutService)
	r := setupRouter(co, new(MockFulfillmentService), new(MockReportingService))

	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"amount":"10"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	co.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything, mock.Anything)
}

func TestStripeWebhook_PassesRawBodyAndSignature(t *testing.T) {
	payload := `{"id":"evt_1","type":"checkout.session.completed"}`
	fu := new(MockFulfillmentService)
	fu.On("HandleWebhook", mock.Anything, []byte(payload), "t=1,v1=abc").
		Return(&models.FulfillmentResult{Outcome: models.OutcomeProcessed, PaymentID: "p1", Kind: models.PaymentKindTicket}, nil).Once()
	r := setupRouter(new(MockCheckoutService), fu, new(MockReportingService))

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "processed", decodeBody(t, w)["outcome"])
	fu.AssertExpectations(t)
}

func TestStripeWebhook_Errors(t *testing.T) {
	for err, status := range map[error]int{
		services.ErrInvalidSignature: http.StatusBadRequest,
		services.ErrStoreUnavailable: http.StatusInternalServerError,
	} {
		fu := new(MockFulfillmentService)
		fu.On("HandleWebhook", mock.Anything, mock.Anything, mock.Anything).Return(nil, err).Once()
		r := setupRouter(new(MockCheckoutService), fu, new(MockReportingService))

		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, status, w.Code)
	}
}

func TestStripeWebhook_PayloadTooLarge(t *testing.T) {
	fu := new(MockFulfillmentService)
	r := setupRouter(new(MockCheckoutService), fu, new(MockReportingService))

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(strings.Repeat("a", 70000)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	fu.AssertNotCalled(t, "HandleWebhook", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcile(t *testing.T) {
	id := uuid.New()

	t.Run("Success - scoped to caller organization", func(t *testing.T) {
		fu := new(MockFulfillmentService)
		fu.On("Reconcile", mock.Anything, callerOrg, id).
			Return(&models.FulfillmentResult{Outcome: models.OutcomeProcessed}, nil).Once()
		r := setupRouter(new(MockCheckoutService), fu, new(MockReportingService))

		w := doJSON(r, http.MethodPost, "/payments/"+id.String()+"/reconcile", "")

		assert.Equal(t, http.StatusOK, w.Code)
		fu.AssertExpectations(t)
	})

	t.Run("Failure - malformed id", func(t *testing.T) {
		fu := new(MockFulfillmentService)
		r := setupRouter(new(MockCheckoutService), fu, new(MockReportingService))

		w := doJSON(r, http.MethodPost, "/payments/nope/reconcile", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		fu.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything, mock.Anything)
	})

	for err, status := range map[error]int{
		services.ErrPaymentNotFound: http.StatusNotFound,
		services.ErrForeignPayment:  http.StatusForbidden,
	} {
		fu := new(MockFulfillmentService)
		fu.On("Reconcile", mock.Anything, callerOrg, id).Return(nil, err).Once()
		r := setupRouter(new(MockCheckoutService), fu, new(MockReportingService))

		w := doJSON(r, http.MethodPost, "/payments/"+id.String()+"/reconcile", "")
		assert.Equal(t, status, w.Code)
	}
}

func TestGetFundraiser(t *testing.T) {
	fundraiser := &models.Fundraiser{ID: uuid.New(), Title: "New kits", AmountRaised: 11750}
	rep := new(MockReportingService)
	rep.On("GetFundraiser", mock.Anything, fundraiser.ID).Return(fundraiser, nil).Once()
	r := setupRouter(new(MockCheckoutService), new(MockFulfillmentService), rep)

	w := doJSON(r, http.MethodGet, "/fundraisers/"+fundraiser.ID.String(), "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `11750`)
	rep.AssertExpectations(t)
}
