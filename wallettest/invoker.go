package wallettest

import "github.com/weightsig/wallet"

// Invocation is one recorded Invoker call.
type Invocation struct {
	Instruction wallet.Instruction
	Accounts    []*wallet.Account
	Derived     wallet.Identity
}

// Invoker is a wallet.Invoker mock that records every call and returns a
// preset error.
type Invoker struct {
	// Err is returned by every Invoke call.
	Err error

	invocations []Invocation
}

var _ wallet.Invoker = (*Invoker)(nil)

func (i *Invoker) Invoke(ins wallet.Instruction, accounts []*wallet.Account, derived wallet.Identity) error {
	i.invocations = append(i.invocations, Invocation{
		Instruction: ins,
		Accounts:    accounts,
		Derived:     derived,
	})
	return i.Err
}

// CallCount returns the number of Invoke calls observed.
func (i *Invoker) CallCount() int {
	return len(i.invocations)
}

// Invocations returns all recorded calls in order.
func (i *Invoker) Invocations() []Invocation {
	return i.invocations
}
