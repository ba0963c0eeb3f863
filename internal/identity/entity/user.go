package entity

import "time"

// Roles assignable to an account. New registrations always start as RoleUser.
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

// User represents an account row in the `users` table. The password is never
// stored in plaintext: only the salted digest and the base64-encoded salt are
// persisted, together with the algorithm that produced the digest.
type User struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash []byte    `db:"password_hash"`
	Salt         string    `db:"salt"`
	PasswordAlgo string    `db:"password_algo"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

// Session is the transient result of a successful login. It is never
// persisted; its lifetime is bounded by the token's own expiry.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}
