package chainerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorUnwrapsToCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := New(Transport, cause)
	require.True(t, errors.Is(err, cause), "expected errors.Is to see through to the cause")
}

func TestFatalKinds(t *testing.T) {
	for _, k := range []Kind{Configuration, KeyDerivation} {
		assert.Truef(t, k.Fatal(), "expected %s to be fatal", k)
	}
	for _, k := range []Kind{Transport, RPCStatus, SequenceMismatch, Simulation, GasExceeds, Deserialization, Expiration, TaskExit} {
		assert.Falsef(t, k.Fatal(), "expected %s to be non-fatal", k)
	}
}
