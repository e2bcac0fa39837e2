package models

// MessageType tags the variant carried by a Message.
type MessageType string

const (
	MessageGreeting      MessageType = "GREETING"
	MessageInstruction   MessageType = "INSTRUCTION"
	MessageWords         MessageType = "WORDS"
	MessageAwaitingAudio MessageType = "AWAITING_AUDIO"
	MessageCycleFeedback MessageType = "CYCLE_FEEDBACK"
	MessageFinalSummary  MessageType = "FINAL_SUMMARY"
	MessageError         MessageType = "ERROR"
)

// Message is one outbound conversational message. Only the payload field
// matching Type is populated.
type Message struct {
	Type         MessageType `json:"type"`
	SessionID    string      `json:"sessionId"`
	CurrentCycle int         `json:"currentCycle"`
	TotalCycles  int         `json:"totalCycles"`
	Text         string      `json:"text"`

	Words       []string     `json:"words,omitempty"`
	CycleResult *CycleResult `json:"cycleResult,omitempty"`
	Summary     *Summary     `json:"summary,omitempty"`
	Error       string       `json:"error,omitempty"`

	// Timestamp is unix milliseconds, strictly increasing across messages
	// produced by one process.
	Timestamp int64 `json:"timestamp"`
	Terminal  bool  `json:"terminal"`
}
