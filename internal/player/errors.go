package player

// UserError is shown to the player instead of ending the session.
// It covers bad input, not system failures.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

func NewUserError(msg string) *UserError {
	return &UserError{Message: msg}
}
