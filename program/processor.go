package program

import (
	"github.com/tendermint/tendermint/libs/log"

	"github.com/weightsig/wallet"
	"github.com/weightsig/wallet/errors"
)

// Processor executes wallet operations against host-resolved accounts. It is
// the whole state machine: owner-set changes, weighted authorization,
// forwarding and the staged-action protocol.
//
// The host serializes requests against a record, so a Processor never sees
// concurrent operations on the same account. Every operation is all or
// nothing: records are loaded into memory, mutated, and written back in one
// piece only when the operation succeeded.
type Processor struct {
	programID wallet.Identity
	invoker   wallet.Invoker
	minWeight Weight
	logger    log.Logger
}

// ProcessorOption configures a Processor during construction.
type ProcessorOption func(*Processor)

// WithMinWeight overrides the combined signature weight threshold.
func WithMinWeight(min Weight) ProcessorOption {
	return func(p *Processor) {
		p.minWeight = min
	}
}

// WithLogger attaches a logger. Without it the processor stays silent.
func WithLogger(logger log.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// NewProcessor returns a processor for the program with given identity. The
// invoker is the host primitive used to execute forwarded instructions under
// the wallet's derived authority.
func NewProcessor(programID wallet.Identity, invoker wallet.Invoker, opts ...ProcessorOption) *Processor {
	p := &Processor{
		programID: programID,
		invoker:   invoker,
		minWeight: MinWeight,
		logger:    log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process decodes one request payload and executes it against the resolved
// account list. Any returned error means no record was written.
func (p *Processor) Process(accounts []*wallet.Account, input []byte) error {
	op, err := decodeOp(input, accounts)
	if err != nil {
		return err
	}
	p.logger.Debug("processing operation", "op", op.name())

	switch op := op.(type) {
	case addOwnersOp:
		w, err := p.loadWallet(accounts)
		if err != nil {
			return err
		}
		if !w.IsInitialized() {
			// The very first owner change initializes the wallet.
			// There is no owner set to authorize against yet, so
			// the supplied set itself must clear the threshold.
			if err := p.initializeWallet(w, op.owners); err != nil {
				return err
			}
		} else {
			if err := p.checkSignatures(accounts, w); err != nil {
				return err
			}
			if err := p.addOwners(w, op.owners); err != nil {
				return err
			}
		}
		return p.storeWallet(accounts, w)

	case removeOwnerOp:
		w, err := p.loadInitializedWallet(accounts)
		if err != nil {
			return err
		}
		if err := p.checkSignatures(accounts, w); err != nil {
			return err
		}
		if err := w.Owners.Remove(op.key, p.minWeight); err != nil {
			return err
		}
		return p.storeWallet(accounts, w)

	case recoveryOp:
		w, err := p.loadInitializedWallet(accounts)
		if err != nil {
			return err
		}
		if err := p.checkSignatures(accounts, w); err != nil {
			return err
		}
		if err := p.recovery(w, op.owners); err != nil {
			return err
		}
		return p.storeWallet(accounts, w)

	case revokeOp:
		w, err := p.loadInitializedWallet(accounts)
		if err != nil {
			return err
		}
		if err := p.checkSignatures(accounts, w); err != nil {
			return err
		}
		w.Owners.Clear()
		return p.storeWallet(accounts, w)

	case forwardOp:
		w, err := p.loadInitializedWallet(accounts)
		if err != nil {
			return err
		}
		if err := p.checkSignatures(accounts, w); err != nil {
			return err
		}
		return p.forward(accounts, op.ins)

	case pingOp:
		w, err := p.loadInitializedWallet(accounts)
		if err != nil {
			return err
		}
		if err := p.checkSignatures(accounts, w); err != nil {
			return err
		}
		p.logger.Info("pong")
		return nil

	case claimSlotOp:
		return p.claimSlot(accounts)

	case appendOp:
		w, err := p.loadInitializedWallet(accounts)
		if err != nil {
			return err
		}
		if err := p.checkSignatures(accounts, w); err != nil {
			return err
		}
		return p.appendFragment(accounts, op.offset, op.data)

	case replayOp:
		if _, err := p.loadInitializedWallet(accounts); err != nil {
			return err
		}
		// No weight check here: replay is authorized by the caller
		// matching the slot's claiming owner.
		return p.replaySlot(accounts, op.expected)

	case closeSlotOp:
		return p.closeSlot(accounts)
	}
	return errors.ErrInvalidInstruction.Newf("unhandled operation %q", op.name())
}

// checkSignatures verifies that the combined weight of the authenticated
// owners among the resolved accounts clears the threshold. Each owner
// identity is counted at most once no matter how often it appears, so a
// duplicated account entry cannot inflate the weight.
func (p *Processor) checkSignatures(accounts []*wallet.Account, w *Wallet) error {
	counted := make(map[wallet.Identity]bool)
	var total uint32
	for _, a := range accounts {
		if !a.Signer || counted[a.Key] {
			continue
		}
		weight, ok := w.Owners.Weight(a.Key)
		if !ok {
			continue
		}
		counted[a.Key] = true
		total += uint32(weight)
	}
	if total < uint32(p.minWeight) {
		return errors.ErrInsufficientWeight.Newf("signature weight %d below threshold %d", total, p.minWeight)
	}
	return nil
}

// initializeWallet applies the one-time Uninitialized to Initialized
// transition. The supplied pairs follow the same per-pair rules as AddOwners
// and their combined weight must clear the threshold on its own.
func (p *Processor) initializeWallet(w *Wallet, owners []Owner) error {
	w.State = StateInitialized
	for _, o := range owners {
		if err := w.Owners.Insert(o.Key, o.Weight); err != nil {
			return err
		}
	}
	if !w.Owners.MeetsThreshold(p.minWeight) {
		return errors.Wrap(errors.ErrInsufficientWeight, "initial owners below threshold")
	}
	return nil
}

// addOwners inserts all supplied pairs. Any single rejected pair fails the
// whole batch; nothing is persisted because the record is only written back
// after full success.
func (p *Processor) addOwners(w *Wallet, owners []Owner) error {
	if w.Owners.Len()+len(owners) > w.Owners.Capacity() {
		return errors.Wrap(errors.ErrInvalidInstruction, "too many owners")
	}
	for _, o := range owners {
		if err := w.Owners.Insert(o.Key, o.Weight); err != nil {
			return err
		}
	}
	return nil
}

// recovery replaces the whole owner set. The pre-reset set must still clear
// the threshold, and so must the replacement set before any of it is applied;
// a recovery can never leave the wallet below threshold.
func (p *Processor) recovery(w *Wallet, owners []Owner) error {
	if len(owners) > w.Owners.Capacity() {
		return errors.Wrap(errors.ErrInvalidInstruction, "too many owners")
	}
	if !w.Owners.MeetsThreshold(p.minWeight) {
		return errors.Wrap(errors.ErrInsufficientWeight, "current owners below threshold")
	}
	var replacement uint32
	for _, o := range owners {
		replacement += uint32(o.Weight)
	}
	if replacement < uint32(p.minWeight) {
		return errors.Wrap(errors.ErrInsufficientWeight, "replacement owners below threshold")
	}

	w.Owners.Clear()
	for _, o := range owners {
		if err := w.Owners.Insert(o.Key, o.Weight); err != nil {
			return err
		}
	}
	return nil
}

// forward invokes a single instruction under the wallet's derived authority.
// The payer's signer flag is stripped from the instruction's account list, so
// triggering a forward never re-delegates the payer's own authority to the
// target program.
func (p *Processor) forward(accounts []*wallet.Account, ins wallet.Instruction) error {
	if len(accounts) < 3 {
		return errors.Wrap(errors.ErrInvalidAccountData, "forward requires wallet, authority and payer accounts")
	}
	payer := accounts[2]

	pass := make([]*wallet.Account, len(accounts))
	for i, a := range accounts {
		pass[i] = a.Clone()
	}

	metas := make([]wallet.AccountMeta, len(ins.Accounts))
	copy(metas, ins.Accounts)
	for i := range metas {
		if metas[i].Key == payer.Key {
			metas[i].Signer = false
		}
	}
	ins.Accounts = metas

	return p.invoker.Invoke(ins, pass, accounts[0].Key)
}

// claimSlot records the caller as the staging slot's owner. A slot is claimed
// exactly once.
func (p *Processor) claimSlot(accounts []*wallet.Account) error {
	if len(accounts) < 2 {
		return errors.Wrap(errors.ErrInvalidAccountData, "claim requires slot and owner accounts")
	}
	slot, owner := accounts[0], accounts[1]

	buf, err := UnpackBuffer(slot.Data)
	if err != nil {
		return err
	}
	if buf.Claimed() {
		return errors.Wrap(errors.ErrAlreadyInitialized, "staging slot already claimed")
	}
	buf.Owner = owner.Key
	return buf.Pack(slot.Data)
}

// appendFragment writes a fragment into the staging slot at the caller's
// offset. Only the authenticated claiming owner may append.
func (p *Processor) appendFragment(accounts []*wallet.Account, offset uint16, data []byte) error {
	if len(accounts) < 3 {
		return errors.Wrap(errors.ErrInvalidAccountData, "append requires wallet, slot and owner accounts")
	}
	slot, owner := accounts[1], accounts[2]

	buf, err := p.loadClaimedBuffer(slot, owner)
	if err != nil {
		return err
	}
	if err := buf.Write(int(offset), data); err != nil {
		return err
	}
	return buf.Pack(slot.Data)
}

// replaySlot decodes and invokes every staged descriptor, then reclaims the
// slot. The caller's expected count converts silent under- or over-staging
// into a hard failure, in which case the slot is left intact.
func (p *Processor) replaySlot(accounts []*wallet.Account, expected uint16) error {
	if len(accounts) < 3 {
		return errors.Wrap(errors.ErrInvalidAccountData, "replay requires wallet, slot and owner accounts")
	}
	walletAcct, slot, owner := accounts[0], accounts[1], accounts[2]

	buf, err := p.loadClaimedBuffer(slot, owner)
	if err != nil {
		return err
	}

	// Accounts handed to the invoked programs: the replaying owner's
	// signer flag is stripped so the staged instructions are authorized
	// solely by the wallet's derived authority.
	pass := make([]*wallet.Account, 0, len(accounts)-3)
	for _, a := range accounts[3:] {
		c := a.Clone()
		if c.Key == owner.Key {
			c.Signer = false
		}
		pass = append(pass, c)
	}

	r := newReader(buf.Data, errors.ErrInvalidAccountData)
	var count uint16
	for r.remaining() > 0 {
		ins, err := readInstruction(r)
		if err != nil {
			return err
		}
		if ins.Empty() {
			break
		}
		if err := p.invoker.Invoke(ins, pass, walletAcct.Key); err != nil {
			return err
		}
		count++
	}

	if count != expected {
		return errors.ErrInvalidAccountData.Newf("staged instruction count mismatch: want %d, got %d", expected, count)
	}

	return reclaimSlot(slot, owner)
}

// closeSlot reclaims the staging slot without executing anything, abandoning
// whatever was staged.
func (p *Processor) closeSlot(accounts []*wallet.Account) error {
	if len(accounts) < 2 {
		return errors.Wrap(errors.ErrInvalidAccountData, "close requires slot and owner accounts")
	}
	slot, owner := accounts[0], accounts[1]

	if _, err := p.loadClaimedBuffer(slot, owner); err != nil {
		return err
	}
	return reclaimSlot(slot, owner)
}

// loadClaimedBuffer unpacks the staging slot and verifies that the caller is
// its authenticated claiming owner.
func (p *Processor) loadClaimedBuffer(slot, owner *wallet.Account) (*Buffer, error) {
	if !owner.Signer {
		return nil, errors.ErrMissingSignature.Newf("%s must sign", owner.Key)
	}
	buf, err := UnpackBuffer(slot.Data)
	if err != nil {
		return nil, err
	}
	if buf.Owner != owner.Key {
		return nil, errors.ErrInvalidAccountData.Newf("staging slot owner mismatch: want %s, got %s", buf.Owner, owner.Key)
	}
	return buf, nil
}

// reclaimSlot moves the slot's whole storage balance to its owner and zeroes
// the record, making the slot unusable afterwards.
func reclaimSlot(slot, owner *wallet.Account) error {
	moved := owner.Value + slot.Value
	if moved < owner.Value {
		return errors.Wrap(errors.ErrInvalidAccountData, "storage balance overflow")
	}
	owner.Value = moved
	slot.Value = 0
	for i := range slot.Data {
		slot.Data[i] = 0
	}
	return nil
}

// loadWallet unpacks the wallet record from the first resolved account. The
// record must belong to this program.
func (p *Processor) loadWallet(accounts []*wallet.Account) (*Wallet, error) {
	if len(accounts) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidAccountData, "wallet account missing")
	}
	acct := accounts[0]
	if acct.Owner != p.programID {
		return nil, errors.Wrap(errors.ErrIncorrectProgram, "wallet account")
	}
	return UnpackWallet(acct.Data)
}

// loadInitializedWallet is loadWallet for the operations that require an
// already initialized record.
func (p *Processor) loadInitializedWallet(accounts []*wallet.Account) (*Wallet, error) {
	w, err := p.loadWallet(accounts)
	if err != nil {
		return nil, err
	}
	if !w.IsInitialized() {
		return nil, errors.Wrap(errors.ErrUninitialized, "wallet")
	}
	return w, nil
}

// storeWallet packs the wallet back into the first resolved account.
func (p *Processor) storeWallet(accounts []*wallet.Account, w *Wallet) error {
	acct := accounts[0]
	if acct.Owner != p.programID {
		return errors.Wrap(errors.ErrIncorrectProgram, "wallet account")
	}
	if !acct.Writable {
		return errors.Wrap(errors.ErrInvalidAccountData, "wallet account not writable")
	}
	return w.Pack(acct.Data)
}
