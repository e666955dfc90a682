package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/OpenNSW/customs/internal/sentinel"
	"github.com/OpenNSW/customs/utils"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PageResponse wraps a window of a list endpoint.
type PageResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

func writeJSONError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sentinel.ErrInvalidField):
		return http.StatusBadRequest
	case errors.Is(err, sentinel.ErrInvalidState),
		errors.Is(err, sentinel.ErrConflict),
		errors.Is(err, sentinel.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(c *gin.Context, action string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "action", action, "error", err)
		writeJSONError(c, status, "failed to "+action)
		return
	}
	writeJSONError(c, status, err.Error())
}

// pathID parses a uuid path parameter, writing a 400 when it is malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		writeJSONError(c, http.StatusBadRequest, "invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// pagination reads the optional offset and limit query parameters.
func pagination(c *gin.Context) (int, int, bool) {
	var offset, limit *int
	if raw := c.Query("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(c, http.StatusBadRequest, "invalid 'offset' query parameter, must be an integer")
			return 0, 0, false
		}
		offset = &v
	}
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(c, http.StatusBadRequest, "invalid 'limit' query parameter, must be an integer")
			return 0, 0, false
		}
		limit = &v
	}
	o, l := utils.GetPaginationParams(offset, limit)
	return o, l, true
}

func page[T any](items []T, offset, limit int) PageResponse[T] {
	return PageResponse[T]{
		Items:  utils.Page(items, offset, limit),
		Total:  len(items),
		Offset: offset,
		Limit:  limit,
	}
}
