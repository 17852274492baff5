package serrors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flock-suite/flock-sdk/pkg/serrors"
)

func TestBaseError_IsMatchesByCode(t *testing.T) {
	sentinel := serrors.NewError("TEST_CODE", "something failed", "Test.Failed")

	withData := sentinel.WithTemplateData(map[string]string{"id": "42"})
	require.ErrorIs(t, withData, sentinel)
	require.NotSame(t, sentinel, withData)
	require.Nil(t, sentinel.TemplateData, "copy must not mutate the sentinel")

	other := serrors.NewError("OTHER_CODE", "something failed", "Test.Failed")
	require.NotErrorIs(t, other, sentinel)
}

func TestBaseError_WithCause(t *testing.T) {
	sentinel := serrors.NewError("TEST_CODE", "something failed", "Test.Failed")
	cause := errors.New("connection refused")

	wrapped := sentinel.WithCause(cause)
	require.ErrorIs(t, wrapped, sentinel)
	require.ErrorIs(t, wrapped, cause)
	require.Contains(t, wrapped.Error(), "TEST_CODE")
	require.Contains(t, wrapped.Error(), "connection refused")

	require.NoError(t, sentinel.Unwrap(), "sentinel itself carries no cause")
}
