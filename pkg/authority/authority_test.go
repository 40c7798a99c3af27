package authority

import (
	"testing"

	"github.com/oneilljw/homecontrol/pkg/proto"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	a := NewAuthority("john", "erin1992")

	tests := []struct {
		name   string
		login  *proto.Login
		reason string
	}{
		{name: "valid", login: &proto.Login{UserID: "john", Password: "erin1992", ClientVersion: "1.0"}},
		{name: "wrong password", login: &proto.Login{UserID: "john", Password: "nope"}, reason: proto.ReasonIncorrectPassword},
		{name: "wrong user", login: &proto.Login{UserID: "jane", Password: "erin1992"}, reason: proto.ReasonIncorrectPassword},
		{name: "missing", login: nil, reason: proto.ReasonMalformedLogin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Authorize(tt.login)
			if tt.reason == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.True(t, IsAuthorizationError(err))
			require.Equal(t, tt.reason, err.(*AuthorizeError).Reason)
		})
	}
}
