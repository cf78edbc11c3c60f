package wallet

// Account is a participant account as resolved by the host for a single
// request. The program treats the Data bytes as a borrowed record: it loads
// them into memory, mutates the in-memory value and writes the full record
// back only when the whole operation succeeded.
type Account struct {
	// Key is the account's identity.
	Key Identity

	// Owner is the program that owns the account's storage. Only the
	// owning program may modify Data.
	Owner Identity

	// Signer reports whether the host authenticated this identity as
	// having signed the request.
	Signer bool

	// Writable reports whether the request declared this account
	// writable.
	Writable bool

	// Data is the account's fixed-size record storage.
	Data []byte

	// Value is the storage balance backing the account. Closing a staging
	// slot moves its whole Value to the slot owner.
	Value uint64
}

// Clone returns a shallow working copy of the account. Record bytes and
// balance stay shared with the original; only the flags can be adjusted
// independently, which is what forwarding needs when it strips a caller's
// signer flag.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

// AccountMeta declares how a forwarded instruction touches one account.
type AccountMeta struct {
	Key      Identity
	Signer   bool
	Writable bool
}

// Instruction is a forwarded-action descriptor: a request to invoke another
// program with the given accounts and opaque payload. It is transient and
// never persisted by this program, except as staged bytes inside a staging
// slot buffer.
type Instruction struct {
	// Program is the target program's identity.
	Program Identity

	// Accounts lists the accounts the target program receives.
	Accounts []AccountMeta

	// Data is the opaque payload passed through to the target program.
	Data []byte
}

// Empty reports whether the instruction is the explicit terminator of a
// staged sequence: no target, no accounts and no payload.
func (ins Instruction) Empty() bool {
	return ins.Program.IsZero() && len(ins.Accounts) == 0 && len(ins.Data) == 0
}
