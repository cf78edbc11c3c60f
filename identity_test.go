package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weightsig/wallet/errors"
)

func TestIdentityStringRoundTrip(t *testing.T) {
	var id Identity
	for i := range id {
		id[i] = byte(i + 1)
	}

	got, err := ParseIdentity(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestNewIdentityLength(t *testing.T) {
	cases := map[string]struct {
		raw     []byte
		wantErr *errors.Error
	}{
		"exact length": {
			raw: make([]byte, IdentityLength),
		},
		"too short": {
			raw:     make([]byte, IdentityLength-1),
			wantErr: errors.ErrInvalidAccountData,
		},
		"too long": {
			raw:     make([]byte, IdentityLength+1),
			wantErr: errors.ErrInvalidAccountData,
		},
		"empty": {
			raw:     nil,
			wantErr: errors.ErrInvalidAccountData,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := NewIdentity(tc.raw)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, tc.wantErr.Is(err), "unexpected error: %+v", err)
			}
		})
	}
}

func TestParseIdentityRejectsGarbage(t *testing.T) {
	_, err := ParseIdentity("not base58 at all!!!")
	assert.True(t, errors.ErrInvalidAccountData.Is(err))
}

func TestIdentityIsZero(t *testing.T) {
	var zero Identity
	assert.True(t, zero.IsZero())

	nonzero := zero
	nonzero[31] = 1
	assert.False(t, nonzero.IsZero())
}

func TestInstructionEmpty(t *testing.T) {
	assert.True(t, Instruction{}.Empty())

	var target Identity
	target[0] = 7
	assert.False(t, Instruction{Program: target}.Empty())
	assert.False(t, Instruction{Data: []byte{1}}.Empty())
	assert.False(t, Instruction{Accounts: []AccountMeta{{}}}.Empty())
}
