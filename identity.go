package wallet

import (
	"github.com/btcsuite/btcutil/base58"

	"github.com/weightsig/wallet/errors"
)

// IdentityLength is the byte length of every participant identity. An
// identity is a fixed-width public key; whether its holder actually signed a
// request is established by the host, never by this program.
const IdentityLength = 32

// Identity is a fixed-width public identifier distinguishing a participant.
type Identity [IdentityLength]byte

// NewIdentity creates an Identity from raw bytes.
func NewIdentity(raw []byte) (Identity, error) {
	var id Identity
	if len(raw) != IdentityLength {
		return id, errors.ErrInvalidAccountData.Newf("identity must be %d bytes, got %d", IdentityLength, len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

// ParseIdentity decodes an identity from its base58 string form.
func ParseIdentity(s string) (Identity, error) {
	return NewIdentity(base58.Decode(s))
}

// String returns the base58 form, the identity's native display encoding.
func (id Identity) String() string {
	return base58.Encode(id[:])
}

// IsZero returns true for the all-zero identity. The zero identity is
// reserved: it marks an unclaimed staging slot and the explicit terminator of
// a staged instruction sequence.
func (id Identity) IsZero() bool {
	return id == Identity{}
}
