package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/randomchars42/Sortingshop/internal/errors"
	"github.com/randomchars42/Sortingshop/internal/validation"
)

type settings struct {
	Listen     string   `ini:"listen" validate:"required,hostname_port"`
	Counter    int      `ini:"counter_length" validate:"gte=1,lte=9"`
	Format     string   `json:"format" validate:"omitempty,oneof=pretty json"`
	Extensions []string `validate:"min=1,dive,startswith=."`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(settings{
		Listen:     "127.0.0.1:8642",
		Counter:    3,
		Format:     "json",
		Extensions: []string{".jpg"},
	})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		value     settings
		wantField string
		wantMsg   string
	}{
		{
			name:      "missing listen",
			value:     settings{Counter: 3, Extensions: []string{".jpg"}},
			wantField: "settings.listen",
			wantMsg:   "is required",
		},
		{
			name:      "counter too long",
			value:     settings{Listen: "localhost:1", Counter: 12, Extensions: []string{".jpg"}},
			wantField: "settings.counter_length",
			wantMsg:   "must be less than or equal to 9",
		},
		{
			name:      "unknown format",
			value:     settings{Listen: "localhost:1", Counter: 1, Format: "xml", Extensions: []string{".jpg"}},
			wantField: "settings.format",
			wantMsg:   "must be one of: pretty json",
		},
		{
			name:      "no extensions",
			value:     settings{Listen: "localhost:1", Counter: 1},
			wantField: "settings.Extensions",
			wantMsg:   "must contain at least 1 entries",
		},
		{
			name:      "extension without dot",
			value:     settings{Listen: "localhost:1", Counter: 1, Extensions: []string{"jpg"}},
			wantField: "settings.Extensions[0]",
			wantMsg:   "must start with .",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.value)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
			assert.Contains(t, domainErr.Message, tt.wantField)
		})
	}
}
