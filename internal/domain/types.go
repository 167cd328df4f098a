package domain

// ControlState models the single control's lifecycle.
type ControlState string

const (
	ControlStateUninitiated       ControlState = "uninitiated"
	ControlStateStartingSession   ControlState = "starting_session"
	ControlStateIdle              ControlState = "idle"
	ControlStateRequestingCapture ControlState = "requesting_capture"
	ControlStateRecording         ControlState = "recording"
	ControlStateProcessing        ControlState = "processing"
)

// Affordance is what the control offers to the user in a given state.
type Affordance string

const (
	AffordanceStart  Affordance = "start"
	AffordanceRecord Affordance = "record"
	AffordanceStop   Affordance = "stop"
	AffordanceBusy   Affordance = "busy"
)

// Control is the presentation of the single control.
type Control struct {
	State      ControlState `json:"state"`
	Affordance Affordance   `json:"affordance"`
	Enabled    bool         `json:"enabled"`
}

// ControlFor derives the control presentation from state alone.
func ControlFor(state ControlState) Control {
	switch state {
	case ControlStateUninitiated:
		return Control{State: state, Affordance: AffordanceStart, Enabled: true}
	case ControlStateIdle:
		return Control{State: state, Affordance: AffordanceRecord, Enabled: true}
	case ControlStateRecording:
		return Control{State: state, Affordance: AffordanceStop, Enabled: true}
	default:
		return Control{State: state, Affordance: AffordanceBusy, Enabled: false}
	}
}

// Speaker identifies who produced a transcript line.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// TranscriptLine is one rendered line of the conversation.
type TranscriptLine struct {
	Text    string  `json:"text"`
	Speaker Speaker `json:"speaker"`
}

// Credentials is the identity pair issued by the backend at session start.
type Credentials struct {
	ID     string
	Secret string
}

// Greeting is the result of starting a session.
type Greeting struct {
	Credentials Credentials
	Text        string
	// Audio is the base64 encoded spoken greeting.
	Audio string
}

// Exchange is one prompt/answer round trip returned by the backend.
type Exchange struct {
	PromptText string
	AnswerText string
	// AnswerAudio is the base64 encoded spoken answer.
	AnswerAudio string
}

// AudioBlob is a binary audio payload tagged with its media type.
type AudioBlob struct {
	Data     []byte
	MIMEType string
}

// ErrorCode identifies surfaced errors for the UI.
type ErrorCode string

const (
	ErrorCodeStartup          ErrorCode = "startup"
	ErrorCodeNetwork          ErrorCode = "network"
	ErrorCodeProtocol         ErrorCode = "protocol"
	ErrorCodePermission       ErrorCode = "permission"
	ErrorCodeEncode           ErrorCode = "encode"
	ErrorCodeDecode           ErrorCode = "decode"
	ErrorCodeNotAuthenticated ErrorCode = "not_authenticated"
	ErrorCodeAudioStream      ErrorCode = "audio_stream"
	ErrorCodeStorage          ErrorCode = "storage"
	ErrorCodeClipboard        ErrorCode = "clipboard"
	ErrorCodeInternal         ErrorCode = "internal"
)
