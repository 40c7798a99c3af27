package session

// State is the lifecycle state of a session.
type State int

const (
	StateConnected State = iota
	StateRunning
	StateLoggedIn
	StateDBSelected
	StateEnded
)

func (state State) String() string {
	names := []string{
		"CONNECTED",
		"RUNNING",
		"LOGGED_IN",
		"DB_SELECTED",
		"ENDED"}

	if state < StateConnected || state > StateEnded {
		return "UNKNOWN"
	}

	return names[state]
}

func (state State) MarshalText() ([]byte, error) {
	return []byte(state.String()), nil
}

// authenticated reports whether the session is expected to keep a heartbeat.
func (state State) authenticated() bool {
	return state == StateLoggedIn || state == StateDBSelected
}

// Heartbeat is the liveness classification of a session.
type Heartbeat int

const (
	HeartbeatNotStarted Heartbeat = iota
	HeartbeatActive
	HeartbeatLost
	HeartbeatTerminal
)

func (hb Heartbeat) String() string {
	names := []string{
		"NOT_STARTED",
		"ACTIVE",
		"LOST",
		"TERMINAL"}

	if hb < HeartbeatNotStarted || hb > HeartbeatTerminal {
		return "UNKNOWN"
	}

	return names[hb]
}

func (hb Heartbeat) MarshalText() ([]byte, error) {
	return []byte(hb.String()), nil
}

// Flag tells the session worker what to do after a response was produced.
type Flag int

const (
	FlagContinue Flag = iota
	FlagCloseGracefully
)
