package domain

import "time"

// User is a registered participant. Created on first contact, never deleted.
type User struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Score            int       `json:"score"`
	QuizzesCompleted int       `json:"quizzesCompleted"`
	QuestsCompleted  int       `json:"questsCompleted"`
	PollsAnswered    int       `json:"pollsAnswered"`
	LastActive       time.Time `json:"lastActive"`
	RegisteredAt     time.Time `json:"registeredAt"`
}

// Question is a single multiple-choice question. Correct indexes into Options.
type Question struct {
	Text        string   `json:"text"`
	Options     []string `json:"options"`
	Correct     int      `json:"correct"`
	Explanation string   `json:"explanation,omitempty"`
}

// Quiz is an ordered set of questions. Immutable after creation.
type Quiz struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
	CreatedBy   int64      `json:"createdBy,omitempty"`
}

// QuizResult is one row of the append-only attempt log.
type QuizResult struct {
	UserID      int64     `json:"userId"`
	QuizID      int64     `json:"quizId"`
	QuizTitle   string    `json:"quizTitle,omitempty"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	CompletedAt time.Time `json:"completedAt"`
}

// QuestStep is one stage of a quest: prompt, expected answer, optional hint.
type QuestStep struct {
	Text   string `json:"text"`
	Answer string `json:"answer"`
	Hint   string `json:"hint,omitempty"`
}

// Quest is an ordered sequence of steps with a completion reward.
type Quest struct {
	ID           int64       `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Steps        []QuestStep `json:"steps"`
	RewardPoints int         `json:"rewardPoints"`
	CreatedBy    int64       `json:"createdBy,omitempty"`
}

// QuestProgress is the durable pointer into a quest for one user.
// At most one open (Completed=false) row exists per (user, quest).
type QuestProgress struct {
	UserID      int64     `json:"userId"`
	QuestID     int64     `json:"questId"`
	CurrentStep int       `json:"currentStep"`
	Completed   bool      `json:"completed"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt,omitempty"`
}

// Poll is a static opinion poll; rendering is delegated to the transport's
// native poll feature, only the fact of answering is tracked here.
type Poll struct {
	ID        string   `json:"id"`
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	Anonymous bool     `json:"anonymous"`
}

// EducationSection is one readable unit inside a topic.
type EducationSection struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// EducationTopic groups sections under a browsable heading.
type EducationTopic struct {
	Key      string             `json:"key"`
	Icon     string             `json:"icon"`
	Title    string             `json:"title"`
	Sections []EducationSection `json:"sections"`
}

// CareerAnswer is one choice in a career-test question, tagged with the
// professions it counts toward.
type CareerAnswer struct {
	Text string   `json:"text"`
	Tags []string `json:"tags"`
}

// CareerQuestion is one step of the career-aptitude test.
type CareerQuestion struct {
	Text    string         `json:"text"`
	Answers []CareerAnswer `json:"answers"`
}

// CareerProfile describes the profession behind a result tag.
type CareerProfile struct {
	Tag         string `json:"tag"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Achievement is an idempotently granted badge; (UserID, BadgeID) is unique.
type Achievement struct {
	UserID    int64     `json:"userId"`
	BadgeID   string    `json:"badgeId"`
	BadgeName string    `json:"badgeName"`
	EarnedAt  time.Time `json:"earnedAt"`
}

// LeaderboardEntry is a ranked view of a user.
type LeaderboardEntry struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
}

// Badge identifiers.
const (
	BadgeFirstQuiz    = "first_quiz"
	BadgePerfectScore = "perfect_score"
	BadgeFirstQuest   = "first_quest"
	BadgeCareerFound  = "career_found"
)

// BadgeName maps a badge id to its display name.
func BadgeName(badgeID string) string {
	switch badgeID {
	case BadgeFirstQuiz:
		return "First Quiz"
	case BadgePerfectScore:
		return "Perfect Score"
	case BadgeFirstQuest:
		return "First Quest"
	case BadgeCareerFound:
		return "Career Explorer"
	}
	return badgeID
}

// Counter fields accepted by the ledger.
const (
	CounterQuizzesCompleted = "quizzes_completed"
	CounterQuestsCompleted  = "quests_completed"
	CounterPollsAnswered    = "polls_answered"
)
