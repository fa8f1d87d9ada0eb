package domain

// Button is one pressable option; Event is the callback payload the
// transport echoes back when the button is pressed.
type Button struct {
	Label string `json:"label"`
	Event string `json:"event"`
}

// RenderInstruction is the abstract outbound message the core hands to the
// transport: text, ordered button rows, and optionally a native poll for
// transports that support one. The core never talks to the wire protocol.
type RenderInstruction struct {
	Text    string     `json:"text"`
	Buttons [][]Button `json:"buttons,omitempty"`
	Poll    *Poll      `json:"poll,omitempty"`
}

// IsZero reports whether the instruction renders nothing. Dispatch returns
// a zero instruction for events it ignores.
func (r RenderInstruction) IsZero() bool {
	return r.Text == "" && len(r.Buttons) == 0 && r.Poll == nil
}

// Btn builds a single button.
func Btn(label, event string) Button {
	return Button{Label: label, Event: event}
}

// Row builds one button row.
func Row(buttons ...Button) []Button {
	return buttons
}
