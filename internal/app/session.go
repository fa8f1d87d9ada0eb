package app

import (
	"edubot/internal/domain"
)

// recentEventCap bounds the per-session redelivery window.
const recentEventCap = 16

// QuizRun is the ephemeral payload of a quiz in progress. Questions are
// cached from the catalog for the lifetime of the run.
type QuizRun struct {
	QuizID    int64             `json:"quizId"`
	Title     string            `json:"title"`
	Questions []domain.Question `json:"questions"`
	Current   int               `json:"current"`
	Score     int               `json:"score"`
	Total     int               `json:"total"`
}

// QuestRun caches quest step content in the session. The authoritative
// position lives in durable QuestProgress; CurrentStep here is re-derived
// from it on every begin, never trusted across a restart.
type QuestRun struct {
	QuestID      int64              `json:"questId"`
	Title        string             `json:"title"`
	Steps        []domain.QuestStep `json:"steps"`
	CurrentStep  int                `json:"currentStep"`
	RewardPoints int                `json:"rewardPoints"`
}

// CareerRun accumulates chosen tags across the career test.
type CareerRun struct {
	Current int      `json:"current"`
	Tags    []string `json:"tags"`
}

// QuizDraft is the admin wizard's transient quiz under construction.
type QuizDraft struct {
	Title          string            `json:"title"`
	Questions      []domain.Question `json:"questions"`
	PendingText    string            `json:"pendingText,omitempty"`
	PendingOptions []string          `json:"pendingOptions,omitempty"`
}

// QuestDraft is the admin wizard's transient quest under construction.
type QuestDraft struct {
	Title       string             `json:"title"`
	Steps       []domain.QuestStep `json:"steps"`
	PendingText string             `json:"pendingText,omitempty"`
}

// Session is the per-user ephemeral record: current state plus the payload
// of whichever engine is active. It is JSON-serializable so session stores
// can externalize it.
type Session struct {
	State        domain.State `json:"state"`
	Quiz         *QuizRun     `json:"quiz,omitempty"`
	Quest        *QuestRun    `json:"quest,omitempty"`
	Career       *CareerRun   `json:"career,omitempty"`
	QuizDraft    *QuizDraft   `json:"quizDraft,omitempty"`
	QuestDraft   *QuestDraft  `json:"questDraft,omitempty"`
	Topic        string       `json:"topic,omitempty"`
	RecentEvents []string     `json:"recentEvents,omitempty"`
}

// NewSession returns a fresh session at the main menu.
func NewSession() *Session {
	return &Session{State: domain.StateMain}
}

// Reset drops every ephemeral engine payload and returns to the main menu.
// Durable quest progress is untouched.
func (s *Session) Reset() {
	s.State = domain.StateMain
	s.Quiz = nil
	s.Quest = nil
	s.Career = nil
	s.QuizDraft = nil
	s.QuestDraft = nil
	s.Topic = ""
}

// Seen reports whether the event id was already handled in this session.
func (s *Session) Seen(eventID string) bool {
	if eventID == "" {
		return false
	}
	for _, id := range s.RecentEvents {
		if id == eventID {
			return true
		}
	}
	return false
}

// Remember records a handled event id, evicting the oldest past the cap.
func (s *Session) Remember(eventID string) {
	if eventID == "" {
		return
	}
	s.RecentEvents = append(s.RecentEvents, eventID)
	if len(s.RecentEvents) > recentEventCap {
		s.RecentEvents = s.RecentEvents[len(s.RecentEvents)-recentEventCap:]
	}
}

// Clone deep-copies the session so a handler can work on a scratch copy
// that is persisted only after it succeeds.
func (s *Session) Clone() *Session {
	out := &Session{State: s.State, Topic: s.Topic}
	out.RecentEvents = append([]string(nil), s.RecentEvents...)
	if s.Quiz != nil {
		run := *s.Quiz
		run.Questions = append([]domain.Question(nil), s.Quiz.Questions...)
		out.Quiz = &run
	}
	if s.Quest != nil {
		run := *s.Quest
		run.Steps = append([]domain.QuestStep(nil), s.Quest.Steps...)
		out.Quest = &run
	}
	if s.Career != nil {
		run := *s.Career
		run.Tags = append([]string(nil), s.Career.Tags...)
		out.Career = &run
	}
	if s.QuizDraft != nil {
		d := *s.QuizDraft
		d.Questions = append([]domain.Question(nil), s.QuizDraft.Questions...)
		d.PendingOptions = append([]string(nil), s.QuizDraft.PendingOptions...)
		out.QuizDraft = &d
	}
	if s.QuestDraft != nil {
		d := *s.QuestDraft
		d.Steps = append([]domain.QuestStep(nil), s.QuestDraft.Steps...)
		out.QuestDraft = &d
	}
	return out
}
