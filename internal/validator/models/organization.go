package models

import (
	"time"

	id "attestor/pkg/domain"
	dErrors "attestor/pkg/domain-errors"
)

// Organization is the aggregate root for a registered delegate.
//
// Invariants:
//   - len(issued) <= MaxAddresses at all times
//   - issuedIndex[issued[i]] == i for every valid i, and issuedIndex has no
//     keys outside issued (the two structures never diverge observably)
//   - Name is set once at registration and never changes
//   - MaxAddresses may change after registration, but never below len(issued)
//   - the zero address never appears in issued
//
// The issued list is dense: revocation removes by swapping the last element
// into the vacated slot and truncating, so issuance order is not preserved
// across revocations. Callers that enumerate issued addresses must not rely
// on order.
type Organization struct {
	Address      id.Address
	Exists       bool
	MaxAddresses uint64
	Name         string
	RegisteredAt time.Time
	UpdatedAt    time.Time

	issued      []id.Address
	issuedIndex map[id.Address]int
}

// NewOrganization creates a registered organization with an empty issued set.
func NewOrganization(addr id.Address, maxAddresses uint64, name string, now time.Time) (*Organization, error) {
	if addr.IsZero() {
		return nil, ErrInvalidAddress
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "organization name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeValidation, "organization name must be 128 characters or less")
	}
	return &Organization{
		Address:      addr,
		Exists:       true,
		MaxAddresses: maxAddresses,
		Name:         name,
		RegisteredAt: now,
		UpdatedAt:    now,
		issuedIndex:  make(map[id.Address]int),
	}, nil
}

// IssuedCount returns the number of addresses currently holding the attribute.
func (o *Organization) IssuedCount() int {
	return len(o.issued)
}

// HasIssued reports whether target currently holds the attribute via this
// organization.
func (o *Organization) HasIssued(target id.Address) bool {
	_, ok := o.issuedIndex[target]
	return ok
}

// IssuedAddresses returns a copy of the issued list in its current order.
func (o *Organization) IssuedAddresses() []id.Address {
	out := make([]id.Address, len(o.issued))
	copy(out, o.issued)
	return out
}

// CanIssue checks whether target may be issued the attribute.
// Use with ApplyIssue in Execute callbacks.
func (o *Organization) CanIssue(target id.Address) error {
	if target.IsZero() {
		return ErrInvalidAddress
	}
	if uint64(len(o.issued)) >= o.MaxAddresses {
		return ErrCapacityExceeded
	}
	if o.HasIssued(target) {
		return ErrAlreadyIssued
	}
	return nil
}

// ApplyIssue appends target to the issued list and indexes it.
// Call CanIssue first; ApplyIssue assumes the checks passed.
func (o *Organization) ApplyIssue(target id.Address, now time.Time) {
	o.issuedIndex[target] = len(o.issued)
	o.issued = append(o.issued, target)
	o.UpdatedAt = now
}

// CanRevoke checks whether target's attribute may be revoked.
func (o *Organization) CanRevoke(target id.Address) error {
	if target.IsZero() {
		return ErrInvalidAddress
	}
	if !o.HasIssued(target) {
		return ErrNotIssued
	}
	return nil
}

// ApplyRevoke removes target with swap-and-truncate: the last issued address
// moves into target's slot so the list stays dense. Call CanRevoke first.
func (o *Organization) ApplyRevoke(target id.Address, now time.Time) {
	idx := o.issuedIndex[target]
	lastIndex := len(o.issued) - 1
	lastAddr := o.issued[lastIndex]

	o.issued[idx] = lastAddr
	o.issuedIndex[lastAddr] = idx

	o.issued = o.issued[:lastIndex]
	delete(o.issuedIndex, target)
	o.UpdatedAt = now
}

// CanSetMaxAddresses checks the capacity floor: capacity can move up or down
// freely but never below the current issued count.
func (o *Organization) CanSetMaxAddresses(newMax uint64) error {
	if newMax < uint64(len(o.issued)) {
		return ErrCapacityBelowUsage
	}
	return nil
}

// ApplySetMaxAddresses replaces the capacity ceiling.
// Call CanSetMaxAddresses first.
func (o *Organization) ApplySetMaxAddresses(newMax uint64, now time.Time) {
	o.MaxAddresses = newMax
	o.UpdatedAt = now
}

// Clone returns a deep copy so stores can hand out aggregates without
// aliasing their internal state.
func (o *Organization) Clone() *Organization {
	c := *o
	c.issued = make([]id.Address, len(o.issued))
	copy(c.issued, o.issued)
	c.issuedIndex = make(map[id.Address]int, len(o.issuedIndex))
	for k, v := range o.issuedIndex {
		c.issuedIndex[k] = v
	}
	return &c
}

// RestoreIssued rebuilds the issued list and its index from a stored
// position-ordered sequence. Used by persistence layers when hydrating.
func (o *Organization) RestoreIssued(issued []id.Address) {
	o.issued = make([]id.Address, len(issued))
	copy(o.issued, issued)
	o.issuedIndex = make(map[id.Address]int, len(issued))
	for i, addr := range issued {
		o.issuedIndex[addr] = i
	}
}

// Record is the read-model snapshot returned by queries. Unknown organizations
// yield the zero Record (Exists=false); callers must check Exists.
type Record struct {
	Exists          bool         `json:"exists"`
	MaxAddresses    uint64       `json:"maximum_addresses"`
	Name            string       `json:"name"`
	IssuedAddresses []id.Address `json:"issued_addresses"`
}

// Record returns the query snapshot for this organization.
func (o *Organization) Record() Record {
	return Record{
		Exists:          o.Exists,
		MaxAddresses:    o.MaxAddresses,
		Name:            o.Name,
		IssuedAddresses: o.IssuedAddresses(),
	}
}
