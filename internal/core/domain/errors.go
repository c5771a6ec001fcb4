package domain

import "errors"

// IncorrectCredentialsMessage is the only text shown to a caller whose login
// failed. It never tells whether the username or the password was wrong.
const IncorrectCredentialsMessage = "Incorrect username or password"

var (
	ErrValidation           = errors.New("validation failed")
	ErrAuthenticationFailed = errors.New("incorrect username or password")
	ErrDuplicateKey         = errors.New("duplicate key")
	ErrUsernameTaken        = errors.New("username already exists")
	ErrUsernameCollision    = errors.New("username already used by another account")
	ErrAccountNotFound      = errors.New("account not found")
	ErrStorageTimeout       = errors.New("storage timeout")
	ErrStorage              = errors.New("storage error")
	ErrHashing              = errors.New("password hashing failed")
	ErrSessionNotFound      = errors.New("session not found")
	ErrOAuthState           = errors.New("invalid oauth state")
)

// IsStorageFailure reports whether err came from the persistence layer rather
// than from the caller's input.
func IsStorageFailure(err error) bool {
	return errors.Is(err, ErrStorage) || errors.Is(err, ErrStorageTimeout)
}
