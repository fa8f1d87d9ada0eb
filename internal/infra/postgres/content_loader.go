package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"edubot/internal/domain"
)

// ContentLoader serves quiz and quest definition reads from Postgres over
// a pgx pool, separate from the bun connection the write path uses. The
// JSONB payloads deserialize straight into the domain types.
type ContentLoader struct {
	pool *pgxpool.Pool
}

func NewContentLoader(pool *pgxpool.Pool) *ContentLoader {
	return &ContentLoader{pool: pool}
}

func (l *ContentLoader) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var (
		quiz domain.Quiz
		raw  []byte
	)
	err := l.pool.QueryRow(ctx,
		`SELECT id, title, description, questions, created_by FROM quizzes WHERE id=$1`,
		quizID,
	).Scan(&quiz.ID, &quiz.Title, &quiz.Description, &raw, &quiz.CreatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	if err := json.Unmarshal(raw, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz questions: %w", err)
	}
	return quiz, nil
}

func (l *ContentLoader) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, title, description, questions, created_by FROM quizzes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []domain.Quiz
	for rows.Next() {
		var (
			quiz domain.Quiz
			raw  []byte
		)
		if err := rows.Scan(&quiz.ID, &quiz.Title, &quiz.Description, &raw, &quiz.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		if err := json.Unmarshal(raw, &quiz.Questions); err != nil {
			return nil, fmt.Errorf("unmarshal quiz questions: %w", err)
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, rows.Err()
}

func (l *ContentLoader) GetQuest(ctx context.Context, questID int64) (domain.Quest, error) {
	var (
		quest domain.Quest
		raw   []byte
	)
	err := l.pool.QueryRow(ctx,
		`SELECT id, title, description, steps, reward_points, created_by FROM quests WHERE id=$1`,
		questID,
	).Scan(&quest.ID, &quest.Title, &quest.Description, &raw, &quest.RewardPoints, &quest.CreatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quest{}, domain.ErrQuestNotFound
	}
	if err != nil {
		return domain.Quest{}, fmt.Errorf("load quest: %w", err)
	}
	if err := json.Unmarshal(raw, &quest.Steps); err != nil {
		return domain.Quest{}, fmt.Errorf("unmarshal quest steps: %w", err)
	}
	return quest, nil
}

func (l *ContentLoader) ListQuests(ctx context.Context) ([]domain.Quest, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, title, description, steps, reward_points, created_by FROM quests ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	defer rows.Close()

	var quests []domain.Quest
	for rows.Next() {
		var (
			quest domain.Quest
			raw   []byte
		)
		if err := rows.Scan(&quest.ID, &quest.Title, &quest.Description, &raw, &quest.RewardPoints, &quest.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan quest: %w", err)
		}
		if err := json.Unmarshal(raw, &quest.Steps); err != nil {
			return nil, fmt.Errorf("unmarshal quest steps: %w", err)
		}
		quests = append(quests, quest)
	}
	return quests, rows.Err()
}
