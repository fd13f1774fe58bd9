package types

import "time"

// AccountVariant distinguishes the two account populations. Users and
// admins live in separate tables and are never cross-checked at login.
type AccountVariant string

const (
	AccountUser  AccountVariant = "user"
	AccountAdmin AccountVariant = "admin"
)

// RoleAdmin is the role claim carried by tokens issued to admins. User
// tokens carry no role claim at all.
const RoleAdmin = "admin"

// Valid reports whether the variant names a known account population.
func (v AccountVariant) Valid() bool {
	return v == AccountUser || v == AccountAdmin
}

// Account represents a user or admin credential record. The Variant field
// tags which population the record belongs to; both variants share the
// same capability set (id, email, password hash).
type Account struct {
	// ID is the opaque unique identifier assigned by the store on
	// creation. Immutable thereafter.
	ID string `json:"id" db:"id"`

	// Variant tags the account population. Not persisted as a column;
	// it selects the table the record lives in.
	Variant AccountVariant `json:"-" db:"-"`

	// Name is the account's display name. Opaque to auth decisions.
	Name string `json:"name" db:"name"`

	// Email is the normalized (trimmed, lowercased) address. Unique
	// within the variant's table.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the salted bcrypt digest of the password.
	// Never serialized into any outward-facing response.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
