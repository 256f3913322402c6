package domain

// AddressSet is the set of addresses owned by the wallet, receive and change
// chains combined, restricted to confirmed derivation paths.
type AddressSet map[string]struct{}

// NewAddressSet builds an AddressSet from a list of addresses.
func NewAddressSet(addresses []string) AddressSet {
	set := make(AddressSet, len(addresses))
	for _, addr := range addresses {
		set[addr] = struct{}{}
	}
	return set
}

// Contains returns whether the given address is in the set.
func (s AddressSet) Contains(addr string) bool {
	_, ok := s[addr]
	return ok
}

// ClassifyDirection returns whether a transaction is incoming, that is none
// of its vin addresses are owned by the wallet. An empty vin set counts as
// not owned.
func ClassifyDirection(vinAddresses []string, owned AddressSet) bool {
	for _, addr := range vinAddresses {
		if owned.Contains(addr) {
			return false
		}
	}
	return true
}

// ClassifySelfSend returns whether a transaction sends funds back to the
// wallet itself. A transaction linked to an invitation is never self-sent,
// the invitation implies an external counterparty by construction and takes
// precedence over any address overlap. Otherwise the transaction is self-sent
// iff every vout address is owned and at least one vin address is owned.
// Empty vin or vout sets count as no overlap.
func ClassifySelfSend(
	hasInvitation bool, vinAddresses, voutAddresses []string, owned AddressSet,
) bool {
	if hasInvitation {
		return false
	}
	if len(voutAddresses) <= 0 {
		return false
	}
	for _, addr := range voutAddresses {
		if !owned.Contains(addr) {
			return false
		}
	}
	for _, addr := range vinAddresses {
		if owned.Contains(addr) {
			return true
		}
	}
	return false
}

// ConfirmationsFor returns the number of confirmations of a transaction mined
// at txHeight given the current chain tip. Unmined transactions have zero
// confirmations.
func ConfirmationsFor(txHeight, tipHeight uint32) uint32 {
	if txHeight == 0 || tipHeight < txHeight {
		return 0
	}
	return tipHeight - txHeight + 1
}
