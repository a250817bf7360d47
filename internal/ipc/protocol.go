package ipc

// Commands accepted by an active practice session.
const (
	CommandStatus  = "status"
	CommandNext    = "next"
	CommandStop    = "stop"
	CommandEnd     = "end"
	CommandAnalyze = "analyze"
)

type Request struct {
	Command string `json:"command"`
}

type Response struct {
	OK       bool   `json:"ok"`
	State    string `json:"state,omitempty"`
	Phase    string `json:"phase,omitempty"`
	Position string `json:"position,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}
