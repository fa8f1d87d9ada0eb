package app

import (
	"context"

	"edubot/internal/domain"
)

// Gateway is the durable store for users, definitions, results, progress
// and achievements. Every operation is single-statement atomic; the two
// Complete* operations additionally wrap their multi-row completion
// sequence in one transaction where the backend supports it.
type Gateway interface {
	GetOrCreateUser(ctx context.Context, userID int64, name string) (domain.User, error)
	GetUser(ctx context.Context, userID int64) (domain.User, error)
	AddScore(ctx context.Context, userID int64, delta int) error
	IncrementCounter(ctx context.Context, userID int64, field string) error
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)

	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
	AddQuiz(ctx context.Context, quiz domain.Quiz) (int64, error)
	SaveQuizResult(ctx context.Context, result domain.QuizResult) error
	GetUserQuizResults(ctx context.Context, userID int64) ([]domain.QuizResult, error)
	// CompleteQuiz records the result, adds points and bumps the quiz
	// counter as one unit.
	CompleteQuiz(ctx context.Context, result domain.QuizResult, points int) error

	ListQuests(ctx context.Context) ([]domain.Quest, error)
	GetQuest(ctx context.Context, questID int64) (domain.Quest, error)
	AddQuest(ctx context.Context, quest domain.Quest) (int64, error)
	// GetQuestProgress returns the open (not completed) row, if any.
	GetQuestProgress(ctx context.Context, userID, questID int64) (domain.QuestProgress, bool, error)
	StartQuest(ctx context.Context, userID, questID int64) error
	AdvanceQuest(ctx context.Context, userID, questID int64, newStep int) error
	// CompleteQuest closes the open progress row at finalStep, adds the
	// reward and bumps the quest counter as one unit.
	CompleteQuest(ctx context.Context, userID, questID int64, finalStep, reward int) error

	// GrantAchievement returns false without writing when the (user, badge)
	// pair already exists.
	GrantAchievement(ctx context.Context, userID int64, badgeID, badgeName string) (bool, error)
	GetUserAchievements(ctx context.Context, userID int64) ([]domain.Achievement, error)

	RecordPollAnswer(ctx context.Context, userID int64, pollID string) error
}

// Catalog is the read-only content source: static informational content
// plus quiz/quest definitions (cached views over the store).
type Catalog interface {
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	GetQuest(ctx context.Context, questID int64) (domain.Quest, error)
	ListQuests(ctx context.Context) ([]domain.Quest, error)
	ListPolls() []domain.Poll
	ListEducationTopics() []domain.EducationTopic
	ListCareerQuestions() []domain.CareerQuestion
	CareerProfile(tag string) (domain.CareerProfile, bool)
	ListDailyFacts() []string
	// Invalidate drops cached definitions after an admin write.
	Invalidate()
}

// SessionRepository stores per-user ephemeral sessions (in-memory, Redis).
type SessionRepository interface {
	// Load returns the stored session, or (nil, nil) when none exists.
	Load(ctx context.Context, userID int64) (*Session, error)
	Save(ctx context.Context, userID int64, session *Session) error
	Clear(ctx context.Context, userID int64) error
}
