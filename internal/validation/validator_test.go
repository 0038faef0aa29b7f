package validation_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sekaibot/sekai-server/internal/errors"
	"github.com/sekaibot/sekai-server/internal/validation"
)

type TestRequest struct {
	Title    string `json:"title" validate:"required,min=2,max=256"`
	Limit    int    `json:"limit" validate:"gte=1,lte=50"`
	MinScore int    `json:"min_score" validate:"gte=0,lte=10"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	req := TestRequest{
		Title:    "cowboy bebop",
		Limit:    10,
		MinScore: 7,
	}

	err := v.Validate(req)
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       TestRequest
		wantField string
	}{
		{
			name:      "missing required field",
			req:       TestRequest{Title: "", Limit: 10, MinScore: 7},
			wantField: "title",
		},
		{
			name:      "limit too large",
			req:       TestRequest{Title: "bebop", Limit: 500, MinScore: 7},
			wantField: "limit",
		},
		{
			name:      "negative score",
			req:       TestRequest{Title: "bebop", Limit: 10, MinScore: -1},
			wantField: "min_score",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var appErr *apperrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus())

			// Field errors are keyed by JSON tag name.
			fields, ok := appErr.Details.(map[string]string)
			require.True(t, ok, "details should be a field error map")
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestValidator_ValidateSentinel(t *testing.T) {
	v := validation.New()

	err := v.Validate(TestRequest{})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}
