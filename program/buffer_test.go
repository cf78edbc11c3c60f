package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weightsig/wallet"
	"github.com/weightsig/wallet/errors"
	"github.com/weightsig/wallet/wallettest"
)

func TestBufferPackUnpackRoundTrip(t *testing.T) {
	owner := wallettest.NewIdentity()

	record := make([]byte, wallet.IdentityLength+64)
	buf, err := UnpackBuffer(record)
	require.NoError(t, err)
	assert.False(t, buf.Claimed())

	buf.Owner = owner
	require.NoError(t, buf.Write(0, []byte("fragment one")))
	require.NoError(t, buf.Write(40, []byte("fragment two")))
	require.NoError(t, buf.Pack(record))

	got, err := UnpackBuffer(record)
	require.NoError(t, err)
	assert.True(t, got.Claimed())
	assert.Equal(t, owner, got.Owner)
	assert.Equal(t, buf.Data, got.Data)
}

func TestUnpackBufferTooShort(t *testing.T) {
	_, err := UnpackBuffer(make([]byte, wallet.IdentityLength-1))
	assert.True(t, errors.ErrInvalidAccountData.Is(err), "unexpected error: %+v", err)
}

func TestBufferWriteBounds(t *testing.T) {
	cases := map[string]struct {
		offset   int
		fragment []byte
		wantErr  bool
	}{
		"write at start":       {offset: 0, fragment: []byte{1, 2, 3}},
		"write at end":         {offset: 13, fragment: []byte{1, 2, 3}},
		"write past end":       {offset: 14, fragment: []byte{1, 2, 3}, wantErr: true},
		"offset out of range":  {offset: 16, fragment: []byte{1}, wantErr: true},
		"negative offset":      {offset: -1, fragment: []byte{1}, wantErr: true},
		"empty fragment":       {offset: 16, fragment: nil},
		"whole buffer at once": {offset: 0, fragment: make([]byte, 16)},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			buf := &Buffer{Data: make([]byte, 16)}
			err := buf.Write(tc.offset, tc.fragment)
			if tc.wantErr {
				assert.True(t, errors.ErrInvalidAccountData.Is(err), "unexpected error: %+v", err)
				// A rejected write leaves the buffer untouched.
				assert.Equal(t, make([]byte, 16), buf.Data)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBufferPackLengthMismatch(t *testing.T) {
	buf := &Buffer{Owner: wallettest.NewIdentity(), Data: make([]byte, 8)}
	err := buf.Pack(make([]byte, wallet.IdentityLength+7))
	assert.True(t, errors.ErrInvalidAccountData.Is(err), "unexpected error: %+v", err)
}
