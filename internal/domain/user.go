package domain

// User is a registered account. Password holds whatever the configured
// hasher produced; with the default plaintext policy it is the raw secret.
type User struct {
	ID       int64
	Username string
	Email    string
	Password string
}
