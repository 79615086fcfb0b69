package handler

import (
	"errors"
	"net/http"

	"github.com/edgeandco/service-booking/internal/domain"
	"github.com/gin-gonic/gin"
)

const internalErrorDetail = "internal server error"

// respondDetail writes a {"detail": msg} error body.
func respondDetail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

// respondUnprocessable reports a malformed path, query or body value.
func respondUnprocessable(c *gin.Context, msg string) {
	respondDetail(c, http.StatusUnprocessableEntity, msg)
}

// respondError maps a service error onto its HTTP status.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *domain.ValidationError
		conflictErr   *domain.ConflictError
		notFoundErr   *domain.NotFoundError
	)
	switch {
	case errors.As(err, &validationErr):
		respondDetail(c, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &conflictErr):
		respondDetail(c, http.StatusBadRequest, conflictErr.Error())
	case errors.As(err, &notFoundErr):
		respondDetail(c, http.StatusNotFound, notFoundErr.Error())
	default:
		_ = c.Error(err)
		respondDetail(c, http.StatusInternalServerError, internalErrorDetail)
	}
}
