package authority

import "fmt"

type AuthorizeError struct {
	Reason  string
	Details interface{}
}

func NewAuthorizeError(reason string, details interface{}) error {
	return &AuthorizeError{
		Reason:  reason,
		Details: details,
	}
}

func (e *AuthorizeError) Error() string {
	return fmt.Sprintf("authorization failed, reason: %s", e.Reason)
}

func IsAuthorizationError(e error) bool {
	_, ok := e.(*AuthorizeError)
	return ok
}
