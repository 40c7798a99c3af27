package proto

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// MarshalChanges encodes drained change notifications as a JSON list of
// strings, or NO_CHANGES when there is nothing to deliver.
func MarshalChanges(changes []string) (string, error) {
	if len(changes) == 0 {
		return ResponseNoChanges, nil
	}

	out, err := json.Marshal(changes)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal changes")
	}
	return string(out), nil
}

// Invalid builds an INVALID response with the given reason.
func Invalid(reason string) string {
	return ResponseInvalid + reason
}

// Unrecognized echoes a command the server does not understand.
func Unrecognized(raw string) string {
	return ResponseUnrecognized + raw
}
