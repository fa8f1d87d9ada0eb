package domain

import "strings"

// State identifies where a user's session sits in the interaction graph.
type State string

const (
	StateMain              State = "main"
	StateEducationTopics   State = "education_topics"
	StateEducationSections State = "education_sections"
	StateQuizSelect        State = "quiz_select"
	StateQuizPlay          State = "quiz_play"
	StateQuestSelect       State = "quest_select"
	StateQuestPlay         State = "quest_play"
	StatePollSelect        State = "poll_select"
	StateProfile           State = "profile"
	StateLeaderboard       State = "leaderboard"
	StateFactOfDay         State = "fact_of_day"
	StateCareerIntro       State = "career_intro"
	StateCareerPlay        State = "career_play"
	StateAdminMenu         State = "admin_menu"

	StateAdminQuizTitle    State = "admin_quiz_title"
	StateAdminQuizQuestion State = "admin_quiz_question"
	StateAdminQuizAnswers  State = "admin_quiz_answers"
	StateAdminQuizCorrect  State = "admin_quiz_correct"
	StateAdminQuizMore     State = "admin_quiz_more"

	StateAdminQuestTitle      State = "admin_quest_title"
	StateAdminQuestStepText   State = "admin_quest_step_text"
	StateAdminQuestStepAnswer State = "admin_quest_step_answer"
	StateAdminQuestMore       State = "admin_quest_more"
)

// EventKind discriminates inbound events.
type EventKind string

const (
	// EventCallback is a button press; Data carries the callback payload.
	EventCallback EventKind = "callback"
	// EventMessage is free text typed by the user; Text carries it.
	EventMessage EventKind = "message"
	// EventCommand is a slash command valid from any state; Data names it.
	EventCommand EventKind = "command"
)

// Event is one inbound interaction from the transport. ID is the
// transport's delivery token, used to drop redelivered events; it may be
// empty when the transport cannot supply one.
type Event struct {
	ID   string    `json:"id,omitempty"`
	Kind EventKind `json:"kind"`
	Data string    `json:"data,omitempty"`
	Text string    `json:"text,omitempty"`
}

// Key returns the callback verb before the first colon, e.g. "quiz_start"
// for "quiz_start:3".
func (e Event) Key() string {
	if i := strings.IndexByte(e.Data, ':'); i >= 0 {
		return e.Data[:i]
	}
	return e.Data
}

// Arg returns the callback argument after the first colon, or "".
func (e Event) Arg() string {
	if i := strings.IndexByte(e.Data, ':'); i >= 0 {
		return e.Data[i+1:]
	}
	return ""
}

// Args splits the callback payload on colons, verb included.
func (e Event) Args() []string {
	return strings.Split(e.Data, ":")
}
