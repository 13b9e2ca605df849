package errors_test

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

var errDestination = apperrors.New(http.StatusUnprocessableEntity, "destination_unresolved", "organization has not connected payouts")

func TestWrap_DoesNotMutateSentinel(t *testing.T) {
	wrapped := errDestination.Wrap(fmt.Errorf("org 42"))

	assert.Nil(t, errDestination.Err)
	assert.ErrorIs(t, wrapped, errDestination)
	assert.Equal(t, "organization has not connected payouts: org 42", wrapped.Error())
}

func TestIs_MatchesByReason(t *testing.T) {
	custom := errDestination.WithMessage("club has not finished payout onboarding")
	assert.True(t, stderrors.Is(custom, errDestination))
	assert.False(t, stderrors.Is(custom, apperrors.ErrBadRequest))
}

func TestFrom_DefaultsToInternal(t *testing.T) {
	appErr := apperrors.From(fmt.Errorf("boom"))
	assert.Equal(t, http.StatusInternalServerError, appErr.Code)
	assert.Equal(t, "internal", appErr.Reason)
	assert.Nil(t, apperrors.ErrInternalServer.Err)

	assert.Nil(t, apperrors.From(nil))
}

func TestRespond_WritesCodeAndReason(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	apperrors.Respond(c, fmt.Errorf("checkout: %w", errDestination))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "destination_unresolved", body["reason"])
}

func TestErrorMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(apperrors.ErrNotFound)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
