package proto

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// ParseCommand classifies a received line. It never fails; lines that match
// no known prefix are returned as CommandUnknown.
func ParseCommand(line string) Command {
	cmd := Command{Raw: line}

	switch {
	case strings.HasPrefix(line, PrefixLoginRequest):
		cmd.Type = CommandLogin
		cmd.Payload = line[len(PrefixLoginRequest):]
	case strings.HasPrefix(line, PrefixGetStatus), strings.HasPrefix(line, PrefixGetDoorStatus):
		cmd.Type = CommandGetStatus
	case strings.HasPrefix(line, PrefixGetChanges):
		cmd.Type = CommandGetChanges
	case strings.HasPrefix(line, PrefixPostDoorStatus):
		cmd.Type = CommandPostStatus
		cmd.Payload = postPayload(line[len(PrefixPostDoorStatus):])
	case strings.HasPrefix(line, PrefixPostStatus):
		cmd.Type = CommandPostStatus
		cmd.Payload = postPayload(line[len(PrefixPostStatus):])
	case strings.HasPrefix(line, PrefixLogout):
		cmd.Type = CommandLogout
	}

	return cmd
}

// postPayload strips the ',' separator and the closing '>' of
// POST<status,payload>.
func postPayload(rest string) string {
	rest = strings.TrimSpace(rest)
	rest = strings.TrimPrefix(rest, ",")
	rest = strings.TrimPrefix(rest, ">")
	rest = strings.TrimSuffix(rest, ">")
	return strings.TrimSpace(rest)
}

// UnmarshalLogin decodes a LOGIN_REQUEST payload. A missing, null or
// unparsable payload is an error.
func UnmarshalLogin(payload string) (*Login, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, errors.New("login payload is missing")
	}

	var login *Login
	if err := json.Unmarshal([]byte(payload), &login); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal login payload")
	}
	if login == nil {
		return nil, errors.New("login payload is null")
	}

	return login, nil
}
