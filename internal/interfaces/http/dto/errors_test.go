package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	cases := []struct {
		code   string
		status int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{"INVALID_SIGNATURE", http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{"LINE_NOT_FOUND", http.StatusNotFound},
		{"ALREADY_EXISTS", http.StatusConflict},
		{"CONCURRENCY_CONFLICT", http.StatusConflict},
		{"INVALID_STATE", http.StatusUnprocessableEntity},
		{"INSUFFICIENT_STOCK", http.StatusUnprocessableEntity},
		{"CREDIT_LIMIT_EXCEEDED", http.StatusUnprocessableEntity},
		{"PRICE_NOT_RESOLVED", http.StatusUnprocessableEntity},
		{"OVERPAYMENT", http.StatusUnprocessableEntity},
		{"BATCH_TOO_LARGE", http.StatusBadRequest},
		{"EMPTY_BATCH", http.StatusBadRequest},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		// unlisted codes fall through to the prefix rules
		{"INVALID_CURRENCY", http.StatusBadRequest},
		{"MISSING_ACTION", http.StatusBadRequest},
		{"NO_DELIVERED_LINES", http.StatusBadRequest},
		{"METADATA_TOO_LARGE", http.StatusBadRequest},
		{"SOMETHING_ODD", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			assert.Equal(t, tc.status, GetHTTPStatus(tc.code))
		})
	}
}

func TestErrorResponseEnvelope(t *testing.T) {
	resp := NewErrorResponse(ErrCodeNotFound, "Order not found", "req-42")
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "req-42", resp.Error.RequestID)
}

func TestSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2, 3}, 25, 2, 10)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(25), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}
