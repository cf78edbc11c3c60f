package program

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weightsig/wallet"
	"github.com/weightsig/wallet/errors"
	"github.com/weightsig/wallet/wallettest"
)

func u16le(v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return b[:]
}

func ownerPair(key wallet.Identity, weight uint16) []byte {
	return append(append([]byte{}, key[:]...), u16le(weight)...)
}

func TestDecodeOpOwnerLists(t *testing.T) {
	a := wallettest.NewIdentity()
	b := wallettest.NewIdentity()

	payload := []byte{tagAddOwners}
	payload = append(payload, ownerPair(a, 999)...)
	payload = append(payload, ownerPair(b, 1)...)

	op, err := decodeOp(payload, nil)
	require.NoError(t, err)
	add, ok := op.(addOwnersOp)
	require.True(t, ok)
	assert.Equal(t, []Owner{{a, 999}, {b, 1}}, add.owners)

	payload[0] = tagRecovery
	op, err = decodeOp(payload, nil)
	require.NoError(t, err)
	rec, ok := op.(recoveryOp)
	require.True(t, ok)
	assert.Equal(t, []Owner{{a, 999}, {b, 1}}, rec.owners)
}

func TestDecodeOpRemoveOwner(t *testing.T) {
	a := wallettest.NewIdentity()
	op, err := decodeOp(append([]byte{tagRemoveOwner}, a[:]...), nil)
	require.NoError(t, err)
	rm, ok := op.(removeOwnerOp)
	require.True(t, ok)
	assert.Equal(t, a, rm.key)
}

func TestDecodeOpForward(t *testing.T) {
	target := wallettest.NewSignerAccount(wallettest.NewIdentity())
	participant := wallettest.NewSignerAccount(wallettest.NewIdentity())
	accounts := []*wallet.Account{target, participant}

	payload := []byte{tagForward, 0} // target index
	payload = append(payload, u16le(1)...)
	payload = append(payload, 1, forwardFlagWritable|forwardFlagSigner)
	payload = append(payload, 0xCA, 0xFE)

	op, err := decodeOp(payload, accounts)
	require.NoError(t, err)
	fwd, ok := op.(forwardOp)
	require.True(t, ok)

	assert.Equal(t, target.Key, fwd.ins.Program)
	require.Len(t, fwd.ins.Accounts, 1)
	assert.Equal(t, participant.Key, fwd.ins.Accounts[0].Key)
	assert.True(t, fwd.ins.Accounts[0].Signer)
	assert.True(t, fwd.ins.Accounts[0].Writable)
	assert.Equal(t, []byte{0xCA, 0xFE}, fwd.ins.Data)
}

func TestDecodeOpForwardIndexOutOfRange(t *testing.T) {
	accounts := []*wallet.Account{wallettest.NewSignerAccount(wallettest.NewIdentity())}

	t.Run("target index", func(t *testing.T) {
		payload := append([]byte{tagForward, 7}, u16le(0)...)
		_, err := decodeOp(payload, accounts)
		assert.True(t, errors.ErrInvalidInstruction.Is(err), "unexpected error: %+v", err)
	})

	t.Run("account index", func(t *testing.T) {
		payload := append([]byte{tagForward, 0}, u16le(1)...)
		payload = append(payload, 3, 0)
		_, err := decodeOp(payload, accounts)
		assert.True(t, errors.ErrInvalidInstruction.Is(err), "unexpected error: %+v", err)
	})
}

func TestDecodeOpStaging(t *testing.T) {
	op, err := decodeOp([]byte{tagClaimSlot}, nil)
	require.NoError(t, err)
	assert.IsType(t, claimSlotOp{}, op)

	payload := append([]byte{tagAppend}, u16le(40)...)
	payload = append(payload, []byte("fragment")...)
	op, err = decodeOp(payload, nil)
	require.NoError(t, err)
	app, ok := op.(appendOp)
	require.True(t, ok)
	assert.Equal(t, uint16(40), app.offset)
	assert.Equal(t, []byte("fragment"), app.data)

	op, err = decodeOp(append([]byte{tagReplay}, u16le(2)...), nil)
	require.NoError(t, err)
	rep, ok := op.(replayOp)
	require.True(t, ok)
	assert.Equal(t, uint16(2), rep.expected)

	op, err = decodeOp([]byte{tagCloseSlot}, nil)
	require.NoError(t, err)
	assert.IsType(t, closeSlotOp{}, op)
}

func TestDecodeOpRejectsBadInput(t *testing.T) {
	cases := map[string][]byte{
		"empty input":           nil,
		"unknown tag":           {200},
		"truncated owner pair":  append([]byte{tagAddOwners}, make([]byte, 33)...),
		"truncated remove":      append([]byte{tagRemoveOwner}, make([]byte, 31)...),
		"truncated append":      {tagAppend, 1},
		"truncated replay":      {tagReplay},
		"forward without count": {tagForward, 0, 1},
	}

	for testName, payload := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := decodeOp(payload, nil)
			assert.True(t, errors.ErrInvalidInstruction.Is(err), "unexpected error: %+v", err)
		})
	}
}

func TestInstructionEncodeDecodeRoundTrip(t *testing.T) {
	ins := wallet.Instruction{
		Program: wallettest.NewIdentity(),
		Accounts: []wallet.AccountMeta{
			{Key: wallettest.NewIdentity(), Signer: true},
			{Key: wallettest.NewIdentity(), Writable: true},
			{Key: wallettest.NewIdentity(), Signer: true, Writable: true},
		},
		Data: []byte("payload bytes"),
	}

	raw := EncodeInstruction(ins)
	r := newReader(raw, errors.ErrInvalidAccountData)
	got, err := readInstruction(r)
	require.NoError(t, err)
	assert.Equal(t, ins, got)
	assert.Equal(t, 0, r.remaining())
}

func TestReadInstructionTerminator(t *testing.T) {
	// A zero filled buffer decodes as the explicit empty terminator.
	r := newReader(make([]byte, 128), errors.ErrInvalidAccountData)
	ins, err := readInstruction(r)
	require.NoError(t, err)
	assert.True(t, ins.Empty())
}

func TestReadInstructionTruncated(t *testing.T) {
	ins := wallet.Instruction{
		Program:  wallettest.NewIdentity(),
		Accounts: []wallet.AccountMeta{{Key: wallettest.NewIdentity(), Signer: true}},
		Data:     []byte("abc"),
	}
	raw := EncodeInstruction(ins)

	r := newReader(raw[:len(raw)-1], errors.ErrInvalidAccountData)
	_, err := readInstruction(r)
	assert.True(t, errors.ErrInvalidAccountData.Is(err), "unexpected error: %+v", err)
}
