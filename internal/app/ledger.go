package app

import (
	"context"

	"go.uber.org/zap"

	"edubot/internal/domain"
)

// Ledger is the scoring and achievement bookkeeping service the engines
// call. It owns no state of its own; every write goes through the Gateway.
type Ledger struct {
	gateway Gateway
	log     *zap.Logger
}

func NewLedger(gateway Gateway, log *zap.Logger) *Ledger {
	return &Ledger{gateway: gateway, log: log}
}

// AddScore credits points to the user. Deltas are expected non-negative.
func (l *Ledger) AddScore(ctx context.Context, userID int64, delta int) error {
	return l.gateway.AddScore(ctx, userID, delta)
}

// IncrementCounter bumps one of the whitelisted per-user counters.
func (l *Ledger) IncrementCounter(ctx context.Context, userID int64, field string) error {
	switch field {
	case domain.CounterQuizzesCompleted, domain.CounterQuestsCompleted, domain.CounterPollsAnswered:
		return l.gateway.IncrementCounter(ctx, userID, field)
	}
	return domain.ErrInvalidCounter
}

// GrantAchievement grants a badge once per user. The false return is the
// idempotency contract engines rely on to avoid duplicate badge rows.
func (l *Ledger) GrantAchievement(ctx context.Context, userID int64, badgeID string) (bool, error) {
	granted, err := l.gateway.GrantAchievement(ctx, userID, badgeID, domain.BadgeName(badgeID))
	if err != nil {
		return false, err
	}
	if granted {
		l.log.Info("achievement granted",
			zap.Int64("user", userID),
			zap.String("badge", badgeID))
	}
	return granted, nil
}

// CompleteQuiz persists a finished attempt: result row, score delta and
// counter bump, transactional where the gateway supports it.
func (l *Ledger) CompleteQuiz(ctx context.Context, result domain.QuizResult, points int) error {
	return l.gateway.CompleteQuiz(ctx, result, points)
}

// CompleteQuest closes the open progress row and credits the reward.
func (l *Ledger) CompleteQuest(ctx context.Context, userID, questID int64, finalStep, reward int) error {
	return l.gateway.CompleteQuest(ctx, userID, questID, finalStep, reward)
}

// RecordPollAnswer tracks one answered poll and credits participation.
func (l *Ledger) RecordPollAnswer(ctx context.Context, userID int64, pollID string, points int) error {
	if err := l.gateway.RecordPollAnswer(ctx, userID, pollID); err != nil {
		return err
	}
	if err := l.gateway.AddScore(ctx, userID, points); err != nil {
		return err
	}
	return l.gateway.IncrementCounter(ctx, userID, domain.CounterPollsAnswered)
}

// Leaderboard returns up to limit users ordered by score descending.
func (l *Ledger) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	return l.gateway.Leaderboard(ctx, limit)
}
