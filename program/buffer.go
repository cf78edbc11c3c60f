package program

import (
	"github.com/weightsig/wallet"
	"github.com/weightsig/wallet/errors"
)

// Buffer is the staged-action record: a staging slot claimed by exactly one
// owner, into which fragments of forwarded instructions are written across
// multiple requests before a single replay executes them all.
type Buffer struct {
	// Owner is the identity that claimed the slot. The zero identity marks
	// an unclaimed slot.
	Owner wallet.Identity

	// Data is the slot's byte buffer, always sized to the record's fixed
	// capacity.
	Data []byte
}

// UnpackBuffer decodes a staging slot record: a 32 byte owner identity
// followed by the raw buffer bytes.
func UnpackBuffer(data []byte) (*Buffer, error) {
	if len(data) < wallet.IdentityLength {
		return nil, errors.ErrInvalidAccountData.Newf("staging record length %d too short", len(data))
	}
	b := &Buffer{
		Data: make([]byte, len(data)-wallet.IdentityLength),
	}
	copy(b.Owner[:], data[:wallet.IdentityLength])
	copy(b.Data, data[wallet.IdentityLength:])
	return b, nil
}

// Claimed returns true once an owner claimed the slot.
func (b *Buffer) Claimed() bool {
	return !b.Owner.IsZero()
}

// Write copies a fragment into the buffer at the given offset. Writes that
// would not fit the fixed capacity fail without touching the buffer; a
// fragment is never silently truncated.
func (b *Buffer) Write(offset int, fragment []byte) error {
	if offset < 0 || offset+len(fragment) > len(b.Data) {
		return errors.ErrInvalidAccountData.Newf("fragment of %d bytes at offset %d exceeds buffer capacity %d",
			len(fragment), offset, len(b.Data))
	}
	copy(b.Data[offset:], fragment)
	return nil
}

// Pack encodes the staging slot into dst, zero-filling before writing like
// the wallet codec does.
func (b *Buffer) Pack(dst []byte) error {
	if len(dst) != wallet.IdentityLength+len(b.Data) {
		return errors.ErrInvalidAccountData.Newf("staging record length %d does not match buffer size %d",
			len(dst), wallet.IdentityLength+len(b.Data))
	}
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, b.Owner[:])
	copy(dst[wallet.IdentityLength:], b.Data)
	return nil
}
