package domain

import "time"

// UserKey is the fixed store key of the singleton User record.
const UserKey = "user"

// UserStatus represents the server-side verification status of the local
// user/device pair.
type UserStatus int

const (
	// UserStatusPending ...
	UserStatusPending UserStatus = iota
	// UserStatusVerified ...
	UserStatusVerified
	// UserStatusDeverified means the server disavowed the local identifiers
	// and identity must be re-established before further authenticated calls.
	UserStatusDeverified
)

func (s UserStatus) String() string {
	switch s {
	case UserStatusVerified:
		return "verified"
	case UserStatusDeverified:
		return "deverified"
	default:
		return "pending"
	}
}

// User holds the local identity markers handed out by the server at
// verification time.
type User struct {
	ID             string
	ServerUserID   string
	ServerWalletID string
	Status         UserStatus
	VerifiedTime   time.Time
	DeverifiedTime time.Time
}

// NewUser returns a pending user record.
func NewUser() *User {
	return &User{ID: UserKey, Status: UserStatusPending}
}

// Verify stores the identifiers returned by the server.
func (u *User) Verify(serverUserID, serverWalletID string, now time.Time) {
	u.ServerUserID = serverUserID
	u.ServerWalletID = serverWalletID
	u.Status = UserStatusVerified
	u.VerifiedTime = now
	u.DeverifiedTime = time.Time{}
}

// Deverify clears the identity markers so the next sync re-establishes
// identity instead of repeatedly failing against a server that disavowed the
// local identifiers.
func (u *User) Deverify(now time.Time) {
	u.ServerUserID = ""
	u.ServerWalletID = ""
	u.Status = UserStatusDeverified
	u.DeverifiedTime = now
}

// IsVerified returns whether the user holds usable identity markers.
func (u *User) IsVerified() bool {
	return u.Status == UserStatusVerified
}

// IsZero returns whether the user is uninitialized.
func (u *User) IsZero() bool {
	return u == nil || u.ID == ""
}
