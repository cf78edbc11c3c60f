package program

import (
	"bytes"
	"encoding/binary"

	"github.com/google/btree"

	"github.com/weightsig/wallet"
	"github.com/weightsig/wallet/errors"
)

// MinWeight is the default combined signature weight required before any
// state change or forwarded action is applied. A processor can be constructed
// with a different threshold through WithMinWeight.
const MinWeight Weight = 1000

// ownerEntrySize is the packed size of one (identity, weight) pair.
const ownerEntrySize = wallet.IdentityLength + 2

// Weight represents the strength of one owner's signature. Zero is never a
// valid stored weight; the codec uses it as the end-of-entries terminator.
type Weight uint16

// Validate returns an error if the weight cannot be stored.
func (w Weight) Validate() error {
	if w == 0 {
		return errors.Wrap(errors.ErrInvalidInstruction, "weight must be greater than 0")
	}
	return nil
}

// State is the lifecycle state of a wallet record.
type State uint8

const (
	// StateUninitialized is the implicit state of a freshly allocated
	// record. The first owner-change request initializes it.
	StateUninitialized State = iota
	// StateInitialized is terminal; owner membership stays mutable but the
	// record never returns to StateUninitialized.
	StateInitialized
)

// Owner is one entry of the owner set.
type Owner struct {
	Key    wallet.Identity
	Weight Weight
}

// ownerItem adapts Owner to the btree item interface. Entries order by
// identity bytes so that iteration, and therefore packing, is deterministic.
type ownerItem Owner

func (o ownerItem) Less(than btree.Item) bool {
	other := than.(ownerItem)
	return bytes.Compare(o.Key[:], other.Key[:]) < 0
}

// btreeDegree is small on purpose: owner sets are bounded by record capacity,
// typically around a hundred entries.
const btreeDegree = 2

// OwnerSet is an ordered mapping from owner identity to weight, bounded by
// the capacity of the record it was loaded from.
type OwnerSet struct {
	tree *btree.BTree
	max  int
}

func newOwnerSet(max int) OwnerSet {
	return OwnerSet{
		tree: btree.New(btreeDegree),
		max:  max,
	}
}

// Len returns the number of owners in the set.
func (s OwnerSet) Len() int {
	return s.tree.Len()
}

// Capacity returns the maximum number of owners the backing record can hold.
func (s OwnerSet) Capacity() int {
	return s.max
}

// Weight returns the weight stored for given identity.
func (s OwnerSet) Weight(key wallet.Identity) (Weight, bool) {
	item := s.tree.Get(ownerItem{Key: key})
	if item == nil {
		return 0, false
	}
	return item.(ownerItem).Weight, true
}

// Contains returns true if given identity is an owner.
func (s OwnerSet) Contains(key wallet.Identity) bool {
	return s.tree.Has(ownerItem{Key: key})
}

// Insert adds a new owner entry. Zero weights, duplicate identities and
// inserts beyond the record capacity are all rejected and leave the set
// unchanged.
func (s OwnerSet) Insert(key wallet.Identity, weight Weight) error {
	if err := weight.Validate(); err != nil {
		return err
	}
	if s.Contains(key) {
		return errors.ErrInvalidInstruction.Newf("owner %s already exists", key)
	}
	if s.Len()+1 > s.max {
		return errors.Wrap(errors.ErrInvalidInstruction, "too many owners")
	}
	s.tree.ReplaceOrInsert(ownerItem{Key: key, Weight: weight})
	return nil
}

// Remove deletes given identity from the set. It fails when the identity is
// not an owner, or when the remaining owners would no longer clear the
// minimum weight; in both cases the set is left unchanged.
func (s OwnerSet) Remove(key wallet.Identity, min Weight) error {
	weight, ok := s.Weight(key)
	if !ok {
		return errors.ErrInvalidInstruction.Newf("owner %s does not exist", key)
	}
	if s.WeightSum()-uint32(weight) < uint32(min) {
		return errors.Wrap(errors.ErrInsufficientWeight, "remaining owners below threshold")
	}
	s.tree.Delete(ownerItem{Key: key})
	return nil
}

// Clear removes every owner. An emptied set can never clear the weight
// threshold again, which freezes the wallet.
func (s *OwnerSet) Clear() {
	s.tree = btree.New(btreeDegree)
}

// WeightSum returns the combined weight of all owners, widened so the sum
// cannot overflow across a full-capacity set.
func (s OwnerSet) WeightSum() uint32 {
	var sum uint32
	s.tree.Ascend(func(item btree.Item) bool {
		sum += uint32(item.(ownerItem).Weight)
		return true
	})
	return sum
}

// MeetsThreshold reports whether the combined owner weight clears min.
func (s OwnerSet) MeetsThreshold(min Weight) bool {
	return s.WeightSum() >= uint32(min)
}

// Owners returns all entries in ascending identity order.
func (s OwnerSet) Owners() []Owner {
	res := make([]Owner, 0, s.Len())
	s.tree.Ascend(func(item btree.Item) bool {
		res = append(res, Owner(item.(ownerItem)))
		return true
	})
	return res
}

// Wallet is the owner-set record.
type Wallet struct {
	State  State
	Owners OwnerSet
}

// NewWallet returns an uninitialized wallet record with given owner capacity.
func NewWallet(maxOwners int) *Wallet {
	return &Wallet{
		State:  StateUninitialized,
		Owners: newOwnerSet(maxOwners),
	}
}

// IsInitialized returns true once the record left the uninitialized state.
func (w *Wallet) IsInitialized() bool {
	return w.State != StateUninitialized
}

// Capacity derives the owner capacity from a record's byte length. Record
// layout is one state byte followed by fixed-size owner entries, so any other
// length is a corrupt record.
func Capacity(recordLen int) (int, error) {
	if recordLen == 0 || (recordLen-1)%ownerEntrySize != 0 {
		return 0, errors.ErrInvalidAccountData.Newf("record length %d does not fit owner entries", recordLen)
	}
	return (recordLen - 1) / ownerEntrySize, nil
}

// UnpackWallet decodes a wallet record. Reading stops at the record end or at
// the first zero weight, which marks the end of the stored entries.
func UnpackWallet(data []byte) (*Wallet, error) {
	max, err := Capacity(len(data))
	if err != nil {
		return nil, err
	}

	state := State(data[0])
	if state > StateInitialized {
		return nil, errors.ErrInvalidAccountData.Newf("unknown state tag %d", data[0])
	}

	w := &Wallet{
		State:  state,
		Owners: newOwnerSet(max),
	}
	for cur := 1; cur < len(data); cur += ownerEntrySize {
		weight := Weight(binary.LittleEndian.Uint16(data[cur+wallet.IdentityLength : cur+ownerEntrySize]))
		if weight == 0 {
			break
		}
		var key wallet.Identity
		copy(key[:], data[cur:cur+wallet.IdentityLength])
		w.Owners.tree.ReplaceOrInsert(ownerItem{Key: key, Weight: weight})
	}
	return w, nil
}

// Pack encodes the wallet into dst. The whole destination is produced fresh
// on every pack: it is zeroed first and then rewritten, so packing a smaller
// owner set over a previously larger one leaves no stale entries behind.
func (w *Wallet) Pack(dst []byte) error {
	max, err := Capacity(len(dst))
	if err != nil {
		return err
	}
	if w.Owners.Len() > max {
		return errors.ErrInvalidAccountData.Newf("%d owners exceed record capacity %d", w.Owners.Len(), max)
	}

	for i := range dst {
		dst[i] = 0
	}
	dst[0] = byte(w.State)

	cur := 1
	w.Owners.tree.Ascend(func(item btree.Item) bool {
		o := item.(ownerItem)
		copy(dst[cur:], o.Key[:])
		binary.LittleEndian.PutUint16(dst[cur+wallet.IdentityLength:], uint16(o.Weight))
		cur += ownerEntrySize
		return true
	})
	return nil
}
