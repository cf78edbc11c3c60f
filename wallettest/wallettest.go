// Package wallettest provides helpers for testing the wallet program:
// random identities, account builders and a recording Invoker.
package wallettest

import (
	"crypto/rand"

	"golang.org/x/crypto/ed25519"

	"github.com/weightsig/wallet"
)

// NewIdentity returns a random identity derived from a fresh ed25519 key.
func NewIdentity() wallet.Identity {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}
	id, err := wallet.NewIdentity(pub)
	if err != nil {
		panic(err)
	}
	return id
}

// NewAccount returns a signing, writable account with given key and record
// storage of given size, owned by the given program.
func NewAccount(key, program wallet.Identity, recordSize int) *wallet.Account {
	return &wallet.Account{
		Key:      key,
		Owner:    program,
		Signer:   true,
		Writable: true,
		Data:     make([]byte, recordSize),
	}
}

// NewSignerAccount returns a signing account without record storage, the
// shape of a plain participant.
func NewSignerAccount(key wallet.Identity) *wallet.Account {
	return &wallet.Account{
		Key:    key,
		Signer: true,
	}
}
