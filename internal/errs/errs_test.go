package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsMatchesKind(t *testing.T) {
	err := New(KindReferenceConfigMissing, "no config for %q", "CO2-g")
	require.ErrorIs(t, err, ErrReferenceConfigMissing)
	require.NotErrorIs(t, err, ErrInvalidReference)

	wrapped := fmt.Errorf("building hub: %w", err)
	require.ErrorIs(t, wrapped, ErrReferenceConfigMissing)
	require.Equal(t, KindReferenceConfigMissing, KindOf(wrapped))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("table not found")
	err := Wrap(KindModelSourceBuildError, cause, "component %s", "CO2-g")

	require.ErrorIs(t, err, ErrModelSourceBuild)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "ModelSourceBuildError: component CO2-g: table not found", err.Error())
}

func TestKindOfPlainError(t *testing.T) {
	require.Equal(t, KindToolExecutionError, KindOf(errors.New("boom")))
}

func TestEnvelope(t *testing.T) {
	env := Envelope(New(KindInvalidArgument, "components must not be empty"))
	require.Equal(t, KindInvalidArgument, env["error"].Kind)
	require.Equal(t, "components must not be empty", env["error"].Message)
}
