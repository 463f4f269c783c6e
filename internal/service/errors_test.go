package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{ErrTaskNotFound, ErrArtifactNotFound, ErrBusy, ErrInvalidInput}
	for i, a := range sentinels {
		for j, b := range sentinels {
			assert.Equal(t, i == j, errors.Is(a, b), "%v vs %v", a, b)
		}
	}
}

func TestServiceError_Error(t *testing.T) {
	tests := []struct {
		name     string
		service  string
		op       string
		err      error
		expected string
	}{
		{
			name:     "with underlying error",
			service:  "evolution",
			op:       "transcribe",
			err:      errors.New("upstream refused"),
			expected: "evolution service transcribe operation failed: upstream refused",
		},
		{
			name:     "without underlying error",
			service:  "evolution",
			op:       "create_service",
			err:      nil,
			expected: "evolution service create_service operation failed",
		},
		{
			name:     "empty operation name",
			service:  "evolution",
			op:       "",
			err:      errors.New("invalid input"),
			expected: "evolution service  operation failed: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceErr := &ServiceError{
				Service: tt.service,
				Op:      tt.op,
				Err:     tt.err,
			}

			assert.Equal(t, tt.expected, serviceErr.Error())
		})
	}
}

func TestNewServiceError(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.NoError(t, NewServiceError("evolution", "op", nil))
	})

	t.Run("sentinels pass through unwrapped", func(t *testing.T) {
		for _, sentinel := range []error{ErrTaskNotFound, ErrArtifactNotFound, ErrBusy, ErrInvalidInput} {
			assert.Same(t, sentinel, NewServiceError("evolution", "op", sentinel))
		}
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		base := errors.New("disk gone")
		err := NewServiceError("evolution", "fetch_artifact", base)

		var serviceErr *ServiceError
		assert.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, "fetch_artifact", serviceErr.Op)
		assert.True(t, errors.Is(err, base))
		assert.Equal(t, base, errors.Unwrap(err))
	})
}

func TestServiceError_ChainedErrors(t *testing.T) {
	baseErr := errors.New("connection lost")
	inner := NewServiceError("gateway", "plan", baseErr)
	outer := NewServiceError("evolution", "submit_feedback", inner)

	assert.True(t, errors.Is(outer, baseErr))
	assert.Equal(t,
		"evolution service submit_feedback operation failed: gateway service plan operation failed: connection lost",
		outer.Error())

	var serviceErr *ServiceError
	assert.True(t, errors.As(outer, &serviceErr))
	assert.Equal(t, "evolution", serviceErr.Service)
}
