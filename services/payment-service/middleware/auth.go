package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/auth"
	apperrors "github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/errors"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/models"
	"gorm.io/gorm"
)

const (
	UserKey  = "userID"
	EmailKey = "userEmail"
	RoleKey  = "userRole"
	OrgKey   = "organizationID"
)

var (
	errForbiddenRole   = apperrors.ErrForbidden.WithMessage("role not allowed for this operation")
	errNoMembership    = apperrors.ErrForbidden.WithMessage("caller is not a member of any organization")
	errForeignOrg      = apperrors.ErrForbidden.WithMessage("caller does not belong to this organization")
	errInvalidOrgParam = apperrors.ErrBadRequest.WithMessage("organization id must be a uuid")
)

// MemberDirectory looks up club members by user id.
type MemberDirectory interface {
	FindMember(ctx context.Context, id uuid.UUID) (*models.Member, error)
}

// AuthMiddleware resolves the caller from the API gateway's X-User-* headers,
// falling back to a bearer access token when tokens is non-nil.
func AuthMiddleware(tokens *auth.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := auth.Identity{
			UserID: c.GetHeader("X-User-ID"),
			Email:  c.GetHeader("X-User-Email"),
			Role:   c.GetHeader("X-User-Role"),
		}

		if id.UserID == "" && tokens != nil {
			if bearer, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
				parsed, err := tokens.IdentityFromToken(strings.TrimSpace(bearer))
				if err == nil {
					id = parsed
				}
			}
		}

		if _, err := uuid.Parse(id.UserID); err != nil {
			apperrors.Respond(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(UserKey, id.UserID)
		c.Set(EmailKey, id.Email)
		c.Set(RoleKey, strings.ToLower(id.Role))
		c.Next()
	}
}

// RequireRole lets the request through only when the caller has one of roles.
// It must run after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		if !allowed[c.GetString(RoleKey)] {
			apperrors.Respond(c, errForbiddenRole)
			c.Abort()
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) string {
	return c.GetString(UserKey)
}

// GetPayer returns the authenticated caller as a payer. UserID is uuid.Nil
// when AuthMiddleware did not run.
func GetPayer(c *gin.Context) models.Payer {
	id, _ := uuid.Parse(c.GetString(UserKey))
	return models.Payer{
		UserID: id,
		Email:  c.GetString(EmailKey),
		Role:   c.GetString(RoleKey),
	}
}

// ResolveOrganization loads the caller's membership and stores its
// organization under OrgKey. It must run after AuthMiddleware.
func ResolveOrganization(members MemberDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := uuid.Parse(c.GetString(UserKey))
		m, err := members.FindMember(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apperrors.Respond(c, errNoMembership)
			} else {
				apperrors.Respond(c, apperrors.ErrInternalServer.Wrap(err))
			}
			c.Abort()
			return
		}
		if m.OrganizationID == uuid.Nil {
			apperrors.Respond(c, errNoMembership)
			c.Abort()
			return
		}
		c.Set(OrgKey, m.OrganizationID.String())
		c.Next()
	}
}

// RequireOrganizationParam rejects requests whose path organization is not
// the caller's. It must run after ResolveOrganization.
func RequireOrganizationParam(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param(param))
		if err != nil {
			apperrors.Respond(c, errInvalidOrgParam)
			c.Abort()
			return
		}
		if id != GetOrganizationID(c) {
			apperrors.Respond(c, errForeignOrg)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetOrganizationID returns the caller's organization, or uuid.Nil when
// ResolveOrganization did not run.
func GetOrganizationID(c *gin.Context) uuid.UUID {
	id, _ := uuid.Parse(c.GetString(OrgKey))
	return id
}
