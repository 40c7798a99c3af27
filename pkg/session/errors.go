package session

type sessionError string

const ErrSessionNotFound = sessionError("session not found")

func (e sessionError) Error() string {
	return string(e)
}
