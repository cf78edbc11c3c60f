package wallet

// Invoker is the host primitive that executes a forwarded instruction on
// behalf of the wallet. The derived identity names the storage-derived
// signing authority the host attaches to the invocation, so the forwarded
// action is authorized by the wallet account itself rather than by whichever
// caller submitted the request.
//
// The host serializes all invocations; implementations are not called
// concurrently.
type Invoker interface {
	Invoke(ins Instruction, accounts []*Account, derived Identity) error
}
