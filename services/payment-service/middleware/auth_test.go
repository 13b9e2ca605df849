package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/auth"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/middleware"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const userID = "6f1c0d2e-7d0b-4a55-9b55-2b1f5c1f7a10"

func setupRouter(tokens *auth.TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.AuthMiddleware(tokens))
	r.GET("/me", func(c *gin.Context) {
		p := middleware.GetPayer(c)
		c.JSON(http.StatusOK, gin.H{"user_id": p.UserID.String(), "email": p.Email, "role": p.Role})
	})
	r.GET("/admin", middleware.RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthMiddleware_Headers(t *testing.T) {
	r := setupRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-User-ID", userID)
	req.Header.Set("X-User-Email", "coach@club.example")
	req.Header.Set("X-User-Role", "Admin")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"`+userID+`","email":"coach@club.example","role":"admin"}`, w.Body.String())
}

func TestAuthMiddleware_RejectsMissingOrMalformedUser(t *testing.T) {
	r := setupRouter(nil)

	for _, id := range []string{"", "42"} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("X-User-ID", id)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"reason":"unauthorized"`)
	}
}

func TestAuthMiddleware_BearerToken(t *testing.T) {
	const secret = "test-secret"
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": "parent@club.example",
		"role":  "guardian",
		"typ":   "access",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	r := setupRouter(auth.NewTokenValidator(secret))
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"guardian"`)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok+"x")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	r := setupRouter(nil)

	for role, want := range map[string]int{"admin": http.StatusNoContent, "coach": http.StatusForbidden, "": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("X-User-ID", userID)
		req.Header.Set("X-User-Role", role)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, "role %q", role)
	}
}

type MockMemberDirectory struct {
	mock.Mock
}

func (m *MockMemberDirectory) FindMember(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func TestOrganizationScope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ownOrg := uuid.New()

	newRouter := func(members middleware.MemberDirectory) *gin.Engine {
		r := gin.New()
		orgs := r.Group("/organizations/:id",
			middleware.AuthMiddleware(nil),
			middleware.ResolveOrganization(members),
			middleware.RequireOrganizationParam("id"),
		)
		orgs.GET("/payments", func(c *gin.Context) {
			c.String(http.StatusOK, middleware.GetOrganizationID(c).String())
		})
		return r
	}
	get := func(r *gin.Engine, orgID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/organizations/"+orgID+"/payments", nil)
		req.Header.Set("X-User-ID", userID)
		req.Header.Set("X-User-Role", "admin")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("own organization - 200 OK", func(t *testing.T) {
		members := new(MockMemberDirectory)
		members.On("FindMember", mock.Anything, uuid.MustParse(userID)).
			Return(&models.Member{ID: uuid.MustParse(userID), OrganizationID: ownOrg}, nil).Once()

		w := get(newRouter(members), ownOrg.String())

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, ownOrg.String(), w.Body.String())
		members.AssertExpectations(t)
	})

	t.Run("another organization - 403 Forbidden", func(t *testing.T) {
		members := new(MockMemberDirectory)
		members.On("FindMember", mock.Anything, mock.Anything).
			Return(&models.Member{OrganizationID: ownOrg}, nil).Once()

		w := get(newRouter(members), uuid.NewString())

		assert.Equal(t, http.StatusForbidden, w.Code)
		members.AssertExpectations(t)
	})

	t.Run("no membership - 403 Forbidden", func(t *testing.T) {
		members := new(MockMemberDirectory)
		members.On("FindMember", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound).Once()

		w := get(newRouter(members), ownOrg.String())

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("store failure - 500", func(t *testing.T) {
		members := new(MockMemberDirectory)
		members.On("FindMember", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()

		w := get(newRouter(members), ownOrg.String())

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("malformed organization id - 400", func(t *testing.T) {
		members := new(MockMemberDirectory)
		members.On("FindMember", mock.Anything, mock.Anything).
			Return(&models.Member{OrganizationID: ownOrg}, nil).Once()

		w := get(newRouter(members), "club")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
