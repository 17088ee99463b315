package session

// State is a session's lifecycle position.
//
//	Created -> Spawning -> Running -> ExitPending -> TornDown
//	Spawning -> TornDown on spawn failure
type State int

const (
	StateCreated State = iota
	StateSpawning
	StateRunning
	StateExitPending
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateSpawning:
		return "spawning"
	case StateRunning:
		return "running"
	case StateExitPending:
		return "exit_pending"
	case StateTornDown:
		return "torn_down"
	default:
		return "unknown"
	}
}

// Mode records how the session's output source was created.
type Mode int

const (
	ModeNone Mode = iota
	ModeShell
	ModeExplicitCommand
	ModeConsoleWatch
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeShell:
		return "shell"
	case ModeExplicitCommand:
		return "command"
	case ModeConsoleWatch:
		return "console"
	default:
		return "unknown"
	}
}
