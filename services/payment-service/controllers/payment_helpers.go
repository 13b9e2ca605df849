package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/errors"
)

var errInvalidID = apperrors.ErrBadRequest.WithMessage("path id must be a uuid")

// uuidParam parses a path parameter, answering 400 itself when it is not a
// uuid.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		apperrors.Respond(c, errInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func respondBindError(c *gin.Context, err error) {
	apperrors.Respond(c, apperrors.ErrBadRequest.WithMessage("Invalid request: "+err.Error()))
}

// parsePaginationParams extracts and validates page/limit query params.
func parsePaginationParams(c *gin.Context) (int, int) {
	const maxLimit = 100
	pageInt, limitInt := 1, 20
	if p, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && p > 0 {
		pageInt = p
	}
	if l, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil && l > 0 {
		if l > maxLimit {
			l = maxLimit
		}
		limitInt = l
	}
	return pageInt, limitInt
}
