package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAPIError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		is      error
	}{
		{"detail", http.StatusNotFound, `{"detail":"Not found."}`, "Not found.", ErrNotFound},
		{"non field errors", http.StatusBadRequest, `{"non_field_errors":["Invalid credentials"]}`, "Invalid credentials", ErrBadRequest},
		{"field list", http.StatusBadRequest, `{"username":["taken"],"email":["bad"]}`, "email: bad", ErrBadRequest},
		{"field string", http.StatusBadRequest, `{"title":"blank"}`, "title: blank", ErrBadRequest},
		{"not json", http.StatusBadGateway, `<html>oops</html>`, "", ErrServerInternal},
		{"forbidden", http.StatusForbidden, `{"detail":"nope"}`, "nope", ErrForbidden},
		{"rate limited", http.StatusTooManyRequests, ``, "", ErrTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError(tt.status, []byte(tt.body))
			assert.Equal(t, tt.message, err.Message())
			assert.True(t, errors.Is(err, tt.is))
			assert.Equal(t, tt.status, err.StatusCode)
		})
	}
}

func TestAPIErrorString(t *testing.T) {
	assert.Equal(t, "api error 404: Not found.", NewAPIError(404, []byte(`{"detail":"Not found."}`)).Error())
	assert.Equal(t, "api error 500", NewAPIError(500, nil).Error())
}

func TestIsTokenFailure(t *testing.T) {
	assert.True(t, IsTokenFailure(401, []byte(`{"detail":"Given token not valid for any token type"}`)))
	assert.True(t, IsTokenFailure(403, []byte(`{"detail":"Token is blacklisted"}`)))
	assert.False(t, IsTokenFailure(403, []byte(`{"detail":"You do not have permission to perform this action."}`)))
	assert.False(t, IsTokenFailure(400, []byte(`{"detail":"token"}`)))
	assert.False(t, IsTokenFailure(401, []byte(`not json`)))
}

func TestUserMessage(t *testing.T) {
	apiErr := NewAPIError(400, []byte(`{"username":["A user with that username already exists."],"non_field_errors":["x"]}`))
	wrapped := fmt.Errorf("register: %w", apiErr)

	assert.Equal(t, "A user with that username already exists.", UserMessage(wrapped, "email", "username"))
	assert.Equal(t, "x", UserMessage(wrapped))
	assert.Equal(t, DefaultMessage, UserMessage(NewAPIError(500, nil)))
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
	assert.Empty(t, UserMessage(nil))
}
