// Package auth implements the administrator authority consulted by the
// voting session before any privileged operation.
package auth

import (
	"github.com/ethereum/go-ethereum/common"
)

// StaticAuthority authorizes a single administrator address fixed at node
// startup
type StaticAuthority struct {
	admin common.Address
}

// NewStaticAuthority returns a StaticAuthority for the given administrator
// address
func NewStaticAuthority(admin common.Address) *StaticAuthority {
	return &StaticAuthority{admin: admin}
}

// IsAdmin returns true when the given address is the administrator
func (a *StaticAuthority) IsAdmin(addr common.Address) bool {
	return addr == a.admin
}

// Admin returns the administrator address
func (a *StaticAuthority) Admin() common.Address {
	return a.admin
}
