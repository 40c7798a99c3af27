package proto

// Command prefixes of the line based control protocol.
const (
	PrefixLoginRequest   = "LOGIN_REQUEST"
	PrefixGetStatus      = "GET<status>"
	PrefixGetDoorStatus  = "GET<garage_door_status>"
	PrefixGetChanges     = "GET<changes>"
	PrefixPostStatus     = "POST<status"
	PrefixPostDoorStatus = "POST<garage_door_status"
	PrefixLogout         = "LOGOUT"
)

// Responses sent back to the client.
const (
	Greeting             = "LOGINConnected to the Home Control Server, Please Login"
	ResponseValid        = "VALID"
	ResponseInvalid      = "INVALID"
	ResponseNoChanges    = "NO_CHANGES"
	ResponseGoodbye      = "GOODBYE"
	ResponseUnrecognized = "UNRECOGNIZED_COMMAND"
)

// Reasons appended to ResponseInvalid.
const (
	ReasonIncorrectPassword = "Incorrect password"
	ReasonMalformedLogin    = "Malformed login request"
)

type CommandType int

const (
	CommandUnknown CommandType = iota
	CommandLogin
	CommandGetStatus
	CommandGetChanges
	CommandPostStatus
	CommandLogout
)

func (t CommandType) String() string {
	names := []string{
		"UNKNOWN",
		"LOGIN_REQUEST",
		"GET_STATUS",
		"GET_CHANGES",
		"POST_STATUS",
		"LOGOUT"}

	if t < CommandUnknown || t > CommandLogout {
		return "UNKNOWN"
	}

	return names[t]
}

// Command is one parsed line received from a client.
type Command struct {
	Type    CommandType
	Payload string
	Raw     string
}

// Login is the authentication record carried by LOGIN_REQUEST.
type Login struct {
	UserID        string `json:"userId"`
	Password      string `json:"password"`
	ClientVersion string `json:"clientVersion"`
}
