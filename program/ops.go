package program

import (
	"encoding/binary"

	"github.com/weightsig/wallet"
	"github.com/weightsig/wallet/errors"
)

// Operation tags as they appear on the wire, one byte at the front of every
// request payload.
const (
	tagAddOwners byte = iota
	tagRemoveOwner
	tagRecovery
	tagForward
	tagRevoke
	tagPing
	tagClaimSlot
	tagAppend
	tagReplay
	tagCloseSlot
)

// operation is a decoded request payload.
type operation interface {
	name() string
}

type addOwnersOp struct{ owners []Owner }
type removeOwnerOp struct{ key wallet.Identity }
type recoveryOp struct{ owners []Owner }
type forwardOp struct{ ins wallet.Instruction }
type revokeOp struct{}
type pingOp struct{}
type claimSlotOp struct{}
type appendOp struct {
	offset uint16
	data   []byte
}
type replayOp struct{ expected uint16 }
type closeSlotOp struct{}

func (addOwnersOp) name() string   { return "AddOwners" }
func (removeOwnerOp) name() string { return "RemoveOwner" }
func (recoveryOp) name() string    { return "Recovery" }
func (forwardOp) name() string     { return "Forward" }
func (revokeOp) name() string      { return "Revoke" }
func (pingOp) name() string        { return "Ping" }
func (claimSlotOp) name() string   { return "ClaimStagingSlot" }
func (appendOp) name() string      { return "AppendFragment" }
func (replayOp) name() string      { return "ReplayStagedActions" }
func (closeSlotOp) name() string   { return "CloseStagingSlot" }

// reader walks a byte buffer with a cursor. Every read is bounds checked and
// reports truncation as the configured base error, so payload decoding and
// staged-buffer decoding can surface different error kinds.
type reader struct {
	data []byte
	pos  int
	base *errors.Error
}

func newReader(data []byte, base *errors.Error) *reader {
	return &reader{data: data, base: base}
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) u8() (byte, error) {
	if r.remaining() < 1 {
		return 0, errors.Wrap(r.base, "truncated input: u8")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) u16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, errors.Wrap(r.base, "truncated input: u16")
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) identity() (wallet.Identity, error) {
	var id wallet.Identity
	if r.remaining() < wallet.IdentityLength {
		return id, errors.Wrap(r.base, "truncated input: identity")
	}
	copy(id[:], r.data[r.pos:])
	r.pos += wallet.IdentityLength
	return id, nil
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, errors.Wrapf(r.base, "truncated input: %d bytes", n)
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:])
	r.pos += n
	return out, nil
}

func (r *reader) rest() []byte {
	out := make([]byte, r.remaining())
	copy(out, r.data[r.pos:])
	r.pos = len(r.data)
	return out
}

// decodeOp parses a request payload into its typed operation. The payload is
// a tag byte followed by the operation's fields; identity references inside a
// Forward payload are single byte indexes into the resolved account list.
func decodeOp(input []byte, accounts []*wallet.Account) (operation, error) {
	if len(input) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInstruction, "empty input")
	}
	tag, rest := input[0], input[1:]
	r := newReader(rest, errors.ErrInvalidInstruction)

	switch tag {
	case tagAddOwners:
		owners, err := readOwnerList(r)
		if err != nil {
			return nil, err
		}
		return addOwnersOp{owners: owners}, nil

	case tagRemoveOwner:
		key, err := r.identity()
		if err != nil {
			return nil, err
		}
		return removeOwnerOp{key: key}, nil

	case tagRecovery:
		owners, err := readOwnerList(r)
		if err != nil {
			return nil, err
		}
		return recoveryOp{owners: owners}, nil

	case tagForward:
		ins, err := readForward(r, accounts)
		if err != nil {
			return nil, err
		}
		return forwardOp{ins: ins}, nil

	case tagRevoke:
		return revokeOp{}, nil

	case tagPing:
		return pingOp{}, nil

	case tagClaimSlot:
		return claimSlotOp{}, nil

	case tagAppend:
		offset, err := r.u16()
		if err != nil {
			return nil, err
		}
		return appendOp{offset: offset, data: r.rest()}, nil

	case tagReplay:
		expected, err := r.u16()
		if err != nil {
			return nil, err
		}
		return replayOp{expected: expected}, nil

	case tagCloseSlot:
		return closeSlotOp{}, nil
	}
	return nil, errors.ErrInvalidInstruction.Newf("unknown operation tag %d", tag)
}

// readOwnerList reads (identity, weight) pairs until the input is exhausted.
// The pairs keep their input order; insertion rules are enforced when they
// are applied to an owner set.
func readOwnerList(r *reader) ([]Owner, error) {
	var owners []Owner
	for r.remaining() > 0 {
		key, err := r.identity()
		if err != nil {
			return nil, err
		}
		weight, err := r.u16()
		if err != nil {
			return nil, err
		}
		owners = append(owners, Owner{Key: key, Weight: Weight(weight)})
	}
	return owners, nil
}

// Account flag bits of a direct Forward payload.
const (
	forwardFlagWritable byte = 1 << 0
	forwardFlagSigner   byte = 1 << 1
)

// readForward decodes a direct forward request. Accounts are referenced by
// index into the host-resolved account list rather than carried inline, which
// keeps the payload small.
func readForward(r *reader, accounts []*wallet.Account) (wallet.Instruction, error) {
	var ins wallet.Instruction

	programIdx, err := r.u8()
	if err != nil {
		return ins, err
	}
	if int(programIdx) >= len(accounts) {
		return ins, errors.ErrInvalidInstruction.Newf("target index %d out of range", programIdx)
	}
	ins.Program = accounts[programIdx].Key

	count, err := r.u16()
	if err != nil {
		return ins, err
	}
	ins.Accounts = make([]wallet.AccountMeta, 0, count)
	for i := 0; i < int(count); i++ {
		idx, err := r.u8()
		if err != nil {
			return ins, err
		}
		flags, err := r.u8()
		if err != nil {
			return ins, err
		}
		if int(idx) >= len(accounts) {
			return ins, errors.ErrInvalidInstruction.Newf("account index %d out of range", idx)
		}
		ins.Accounts = append(ins.Accounts, wallet.AccountMeta{
			Key:      accounts[idx].Key,
			Writable: flags&forwardFlagWritable != 0,
			Signer:   flags&forwardFlagSigner != 0,
		})
	}

	ins.Data = r.rest()
	return ins, nil
}

// Account flag bits of a descriptor staged inside a slot buffer. Note that
// the bit assignment differs from the direct Forward payload; both layouts
// are fixed wire formats.
const (
	stagedFlagSigner   byte = 1 << 0
	stagedFlagWritable byte = 1 << 1
)

// readInstruction decodes one staged forwarded-action descriptor: a length
// prefixed account list, the target identity, then a length prefixed payload.
func readInstruction(r *reader) (wallet.Instruction, error) {
	var ins wallet.Instruction

	count, err := r.u16()
	if err != nil {
		return ins, err
	}
	ins.Accounts = make([]wallet.AccountMeta, 0, count)
	for i := 0; i < int(count); i++ {
		flags, err := r.u8()
		if err != nil {
			return ins, err
		}
		key, err := r.identity()
		if err != nil {
			return ins, err
		}
		ins.Accounts = append(ins.Accounts, wallet.AccountMeta{
			Key:      key,
			Signer:   flags&stagedFlagSigner != 0,
			Writable: flags&stagedFlagWritable != 0,
		})
	}

	if ins.Program, err = r.identity(); err != nil {
		return ins, err
	}

	dataLen, err := r.u16()
	if err != nil {
		return ins, err
	}
	if ins.Data, err = r.take(int(dataLen)); err != nil {
		return ins, err
	}
	if len(ins.Data) == 0 {
		ins.Data = nil
	}
	if len(ins.Accounts) == 0 {
		ins.Accounts = nil
	}
	return ins, nil
}

// EncodeInstruction encodes a forwarded-action descriptor in the staged
// buffer layout. Callers append the encoded descriptors back-to-back into a
// staging slot, fragment by fragment, before replaying them.
func EncodeInstruction(ins wallet.Instruction) []byte {
	out := make([]byte, 0, 2+len(ins.Accounts)*(1+wallet.IdentityLength)+wallet.IdentityLength+2+len(ins.Data))

	var n [2]byte
	binary.LittleEndian.PutUint16(n[:], uint16(len(ins.Accounts)))
	out = append(out, n[:]...)

	for _, meta := range ins.Accounts {
		var flags byte
		if meta.Signer {
			flags |= stagedFlagSigner
		}
		if meta.Writable {
			flags |= stagedFlagWritable
		}
		out = append(out, flags)
		out = append(out, meta.Key[:]...)
	}

	out = append(out, ins.Program[:]...)

	binary.LittleEndian.PutUint16(n[:], uint16(len(ins.Data)))
	out = append(out, n[:]...)
	out = append(out, ins.Data...)
	return out
}
