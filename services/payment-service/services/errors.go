package services

import (
	"net/http"

	apperrors "github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/errors"
)

// Checkout errors. Reasons are stable; the UI switches on them.
var (
	ErrInvalidAmount         = apperrors.New(http.StatusBadRequest, "invalid_amount", "amount must be positive with at most two decimal places")
	ErrAmbiguousPayable      = apperrors.New(http.StatusBadRequest, "ambiguous_payable", "at most one of fundraiser_id, event_id or due_id may be set")
	ErrInvalidPayable        = apperrors.New(http.StatusBadRequest, "invalid_payable", "payable id is not a valid uuid")
	ErrMissingPayer          = apperrors.New(http.StatusUnauthorized, "unauthorized", "payer identity is required")
	ErrPayableNotFound       = apperrors.New(http.StatusNotFound, "payable_not_found", "payable not found")
	ErrOwnerUnresolved       = apperrors.New(http.StatusUnprocessableEntity, "owner_unresolved", "payable has no owning organization")
	ErrDestinationUnresolved = apperrors.New(http.StatusUnprocessableEntity, "destination_unresolved", "organization has not connected payouts")
	ErrDueAlreadyPaid        = apperrors.New(http.StatusConflict, "due_already_paid", "due has already been paid")
	ErrUnsupportedCurrency   = apperrors.New(http.StatusBadRequest, "unsupported_currency", "currency is not accepted by this organization")
	ErrGatewayUnavailable    = apperrors.New(http.StatusBadGateway, "gateway_error", "payment gateway request failed")
)

// Fulfillment, dues and onboarding errors.
var (
	ErrInvalidSignature     = apperrors.New(http.StatusBadRequest, "invalid_signature", "webhook signature verification failed")
	ErrStoreUnavailable     = apperrors.New(http.StatusInternalServerError, "store_unavailable", "payment store unavailable")
	ErrPaymentNotFound      = apperrors.New(http.StatusNotFound, "payment_not_found", "payment not found")
	ErrOrganizationNotFound = apperrors.New(http.StatusNotFound, "organization_not_found", "organization not found")
	ErrFundraiserNotFound   = apperrors.New(http.StatusNotFound, "fundraiser_not_found", "fundraiser not found")
	ErrInvalidPeriod        = apperrors.New(http.StatusBadRequest, "invalid_period", "period must be formatted YYYY-MM")
	ErrInvalidDuesAmount    = apperrors.New(http.StatusBadRequest, "invalid_dues_amount", "dues amount must be positive")
	ErrForeignPayment       = apperrors.New(http.StatusForbidden, "foreign_payment", "payment belongs to another organization")
)
