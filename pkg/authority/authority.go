package authority

import (
	"crypto/subtle"

	"github.com/oneilljw/homecontrol/pkg/proto"
)

// Authority verifies login requests against the single configured
// credential pair.
type Authority struct {
	userID   string
	password string
}

func NewAuthority(userID, password string) *Authority {
	return &Authority{
		userID:   userID,
		password: password,
	}
}

// Authorize returns nil when the login matches the configured credentials,
// otherwise an *AuthorizeError carrying the reason for the client.
func (a *Authority) Authorize(login *proto.Login) error {
	if login == nil {
		return NewAuthorizeError(proto.ReasonMalformedLogin, nil)
	}

	userOK := subtle.ConstantTimeCompare([]byte(login.UserID), []byte(a.userID)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(login.Password), []byte(a.password)) == 1
	if !userOK || !passOK {
		return NewAuthorizeError(proto.ReasonIncorrectPassword, login.UserID)
	}

	return nil
}
