package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"edubot/internal/domain"
)

// Gateway is the Postgres-backed implementation of app.Gateway, built on
// bun. Single-row operations ride on plain statements; the Complete*
// sequences run in one transaction so a crash cannot pay points without
// recording the result, or the other way round.
type Gateway struct {
	db *bun.DB
}

func NewGateway(db *bun.DB) *Gateway {
	return &Gateway{db: db}
}

type userRow struct {
	bun.BaseModel `bun:"table:users"`

	ID               int64     `bun:"id,pk"`
	Name             string    `bun:"name"`
	Score            int       `bun:"score"`
	QuizzesCompleted int       `bun:"quizzes_completed"`
	QuestsCompleted  int       `bun:"quests_completed"`
	PollsAnswered    int       `bun:"polls_answered"`
	LastActive       time.Time `bun:"last_active"`
	RegisteredAt     time.Time `bun:"registered_at"`
}

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID          int64             `bun:"id,pk,autoincrement"`
	Title       string            `bun:"title"`
	Description string            `bun:"description"`
	Questions   []domain.Question `bun:"questions,type:jsonb"`
	CreatedBy   int64             `bun:"created_by"`
	CreatedAt   time.Time         `bun:"created_at,nullzero,default:now()"`
}

type quizResultRow struct {
	bun.BaseModel `bun:"table:quiz_results"`

	ID          int64     `bun:"id,pk,autoincrement"`
	UserID      int64     `bun:"user_id"`
	QuizID      int64     `bun:"quiz_id"`
	QuizTitle   string    `bun:"quiz_title"`
	Score       int       `bun:"score"`
	Total       int       `bun:"total"`
	CompletedAt time.Time `bun:"completed_at,nullzero,default:now()"`
}

type questRow struct {
	bun.BaseModel `bun:"table:quests"`

	ID           int64              `bun:"id,pk,autoincrement"`
	Title        string             `bun:"title"`
	Description  string             `bun:"description"`
	Steps        []domain.QuestStep `bun:"steps,type:jsonb"`
	RewardPoints int                `bun:"reward_points"`
	CreatedBy    int64              `bun:"created_by"`
	CreatedAt    time.Time          `bun:"created_at,nullzero,default:now()"`
}

type questProgressRow struct {
	bun.BaseModel `bun:"table:quest_progress"`

	ID          int64     `bun:"id,pk,autoincrement"`
	UserID      int64     `bun:"user_id"`
	QuestID     int64     `bun:"quest_id"`
	CurrentStep int       `bun:"current_step"`
	Completed   bool      `bun:"completed"`
	StartedAt   time.Time `bun:"started_at,nullzero,default:now()"`
	CompletedAt time.Time `bun:"completed_at,nullzero"`
}

type achievementRow struct {
	bun.BaseModel `bun:"table:achievements"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    int64     `bun:"user_id"`
	BadgeID   string    `bun:"badge_id"`
	BadgeName string    `bun:"badge_name"`
	EarnedAt  time.Time `bun:"earned_at,nullzero,default:now()"`
}

type pollResponseRow struct {
	bun.BaseModel `bun:"table:poll_responses"`

	ID         int64     `bun:"id,pk,autoincrement"`
	UserID     int64     `bun:"user_id"`
	PollID     string    `bun:"poll_id"`
	AnsweredAt time.Time `bun:"answered_at,nullzero,default:now()"`
}

// ── Users ──

func (g *Gateway) GetOrCreateUser(ctx context.Context, userID int64, name string) (domain.User, error) {
	now := time.Now()
	row := &userRow{
		ID:           userID,
		Name:         name,
		LastActive:   now,
		RegisteredAt: now,
	}
	_, err := g.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("last_active = EXCLUDED.last_active").
		Set("name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE users.name END").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("get or create user: %w", err)
	}
	return userFromRow(row), nil
}

func (g *Gateway) GetUser(ctx context.Context, userID int64) (domain.User, error) {
	row := new(userRow)
	err := g.db.NewSelect().Model(row).Where("id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return userFromRow(row), nil
}

func (g *Gateway) AddScore(ctx context.Context, userID int64, delta int) error {
	return g.addScore(ctx, g.db, userID, delta)
}

func (g *Gateway) addScore(ctx context.Context, db bun.IDB, userID int64, delta int) error {
	res, err := db.NewUpdate().
		Model((*userRow)(nil)).
		Set("score = score + ?", delta).
		Set("last_active = now()").
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("add score: %w", err)
	}
	return requireRow(res, domain.ErrUserNotFound)
}

func (g *Gateway) IncrementCounter(ctx context.Context, userID int64, field string) error {
	return g.incrementCounter(ctx, g.db, userID, field)
}

func (g *Gateway) incrementCounter(ctx context.Context, db bun.IDB, userID int64, field string) error {
	switch field {
	case domain.CounterQuizzesCompleted, domain.CounterQuestsCompleted, domain.CounterPollsAnswered:
	default:
		return domain.ErrInvalidCounter
	}
	res, err := db.NewUpdate().
		Model((*userRow)(nil)).
		Set("? = ? + 1", bun.Ident(field), bun.Ident(field)).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("increment %s: %w", field, err)
	}
	return requireRow(res, domain.ErrUserNotFound)
}

func (g *Gateway) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	var rows []userRow
	err := g.db.NewSelect().
		Model(&rows).
		Order("score DESC", "id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, domain.LeaderboardEntry{
			UserID: row.ID,
			Name:   row.Name,
			Score:  row.Score,
		})
	}
	return entries, nil
}

// ── Quizzes ──

func (g *Gateway) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	var rows []quizRow
	if err := g.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	quizzes := make([]domain.Quiz, 0, len(rows))
	for _, row := range rows {
		quizzes = append(quizzes, quizFromRow(&row))
	}
	return quizzes, nil
}

func (g *Gateway) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	row := new(quizRow)
	err := g.db.NewSelect().Model(row).Where("id = ?", quizID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	return quizFromRow(row), nil
}

func (g *Gateway) AddQuiz(ctx context.Context, quiz domain.Quiz) (int64, error) {
	row := &quizRow{
		Title:       quiz.Title,
		Description: quiz.Description,
		Questions:   quiz.Questions,
		CreatedBy:   quiz.CreatedBy,
	}
	if _, err := g.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return 0, fmt.Errorf("add quiz: %w", err)
	}
	return row.ID, nil
}

func (g *Gateway) SaveQuizResult(ctx context.Context, result domain.QuizResult) error {
	return g.saveQuizResult(ctx, g.db, result)
}

func (g *Gateway) saveQuizResult(ctx context.Context, db bun.IDB, result domain.QuizResult) error {
	row := &quizResultRow{
		UserID:      result.UserID,
		QuizID:      result.QuizID,
		QuizTitle:   result.QuizTitle,
		Score:       result.Score,
		Total:       result.Total,
		CompletedAt: result.CompletedAt,
	}
	if _, err := db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("save quiz result: %w", err)
	}
	return nil
}

func (g *Gateway) GetUserQuizResults(ctx context.Context, userID int64) ([]domain.QuizResult, error) {
	var rows []quizResultRow
	err := g.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("quiz results: %w", err)
	}
	results := make([]domain.QuizResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, domain.QuizResult{
			UserID:      row.UserID,
			QuizID:      row.QuizID,
			QuizTitle:   row.QuizTitle,
			Score:       row.Score,
			Total:       row.Total,
			CompletedAt: row.CompletedAt,
		})
	}
	return results, nil
}

func (g *Gateway) CompleteQuiz(ctx context.Context, result domain.QuizResult, points int) error {
	return g.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := g.saveQuizResult(ctx, tx, result); err != nil {
			return err
		}
		if err := g.addScore(ctx, tx, result.UserID, points); err != nil {
			return err
		}
		return g.incrementCounter(ctx, tx, result.UserID, domain.CounterQuizzesCompleted)
	})
}

// ── Quests ──

func (g *Gateway) ListQuests(ctx context.Context) ([]domain.Quest, error) {
	var rows []questRow
	if err := g.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	quests := make([]domain.Quest, 0, len(rows))
	for _, row := range rows {
		quests = append(quests, questFromRow(&row))
	}
	return quests, nil
}

func (g *Gateway) GetQuest(ctx context.Context, questID int64) (domain.Quest, error) {
	row := new(questRow)
	err := g.db.NewSelect().Model(row).Where("id = ?", questID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quest{}, domain.ErrQuestNotFound
	}
	if err != nil {
		return domain.Quest{}, fmt.Errorf("get quest: %w", err)
	}
	return questFromRow(row), nil
}

func (g *Gateway) AddQuest(ctx context.Context, quest domain.Quest) (int64, error) {
	row := &questRow{
		Title:        quest.Title,
		Description:  quest.Description,
		Steps:        quest.Steps,
		RewardPoints: quest.RewardPoints,
		CreatedBy:    quest.CreatedBy,
	}
	if _, err := g.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return 0, fmt.Errorf("add quest: %w", err)
	}
	return row.ID, nil
}

func (g *Gateway) GetQuestProgress(ctx context.Context, userID, questID int64) (domain.QuestProgress, bool, error) {
	row := new(questProgressRow)
	err := g.db.NewSelect().
		Model(row).
		Where("user_id = ?", userID).
		Where("quest_id = ?", questID).
		Where("NOT completed").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuestProgress{}, false, nil
	}
	if err != nil {
		return domain.QuestProgress{}, false, fmt.Errorf("quest progress: %w", err)
	}
	return domain.QuestProgress{
		UserID:      row.UserID,
		QuestID:     row.QuestID,
		CurrentStep: row.CurrentStep,
		Completed:   row.Completed,
		StartedAt:   row.StartedAt,
		CompletedAt: row.CompletedAt,
	}, true, nil
}

func (g *Gateway) StartQuest(ctx context.Context, userID, questID int64) error {
	row := &questProgressRow{
		UserID:    userID,
		QuestID:   questID,
		StartedAt: time.Now(),
	}
	_, err := g.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id, quest_id) WHERE NOT completed DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("start quest: %w", err)
	}
	return nil
}

func (g *Gateway) AdvanceQuest(ctx context.Context, userID, questID int64, newStep int) error {
	res, err := g.db.NewUpdate().
		Model((*questProgressRow)(nil)).
		Set("current_step = ?", newStep).
		Where("user_id = ?", userID).
		Where("quest_id = ?", questID).
		Where("NOT completed").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("advance quest: %w", err)
	}
	return requireRow(res, domain.ErrQuestNotFound)
}

func (g *Gateway) CompleteQuest(ctx context.Context, userID, questID int64, finalStep, reward int) error {
	return g.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*questProgressRow)(nil)).
			Set("current_step = ?", finalStep).
			Set("completed = TRUE").
			Set("completed_at = now()").
			Where("user_id = ?", userID).
			Where("quest_id = ?", questID).
			Where("NOT completed").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("close quest progress: %w", err)
		}
		if err := requireRow(res, domain.ErrQuestNotFound); err != nil {
			return err
		}
		if err := g.addScore(ctx, tx, userID, reward); err != nil {
			return err
		}
		return g.incrementCounter(ctx, tx, userID, domain.CounterQuestsCompleted)
	})
}

// ── Achievements / polls ──

func (g *Gateway) GrantAchievement(ctx context.Context, userID int64, badgeID, badgeName string) (bool, error) {
	row := &achievementRow{
		UserID:    userID,
		BadgeID:   badgeID,
		BadgeName: badgeName,
		EarnedAt:  time.Now(),
	}
	res, err := g.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id, badge_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("grant achievement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("grant achievement: %w", err)
	}
	return affected > 0, nil
}

func (g *Gateway) GetUserAchievements(ctx context.Context, userID int64) ([]domain.Achievement, error) {
	var rows []achievementRow
	err := g.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("earned_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("achievements: %w", err)
	}
	out := make([]domain.Achievement, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Achievement{
			UserID:    row.UserID,
			BadgeID:   row.BadgeID,
			BadgeName: row.BadgeName,
			EarnedAt:  row.EarnedAt,
		})
	}
	return out, nil
}

func (g *Gateway) RecordPollAnswer(ctx context.Context, userID int64, pollID string) error {
	row := &pollResponseRow{
		UserID:     userID,
		PollID:     pollID,
		AnsweredAt: time.Now(),
	}
	if _, err := g.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("record poll answer: %w", err)
	}
	return nil
}

// ── helpers ──

func userFromRow(row *userRow) domain.User {
	return domain.User{
		ID:               row.ID,
		Name:             row.Name,
		Score:            row.Score,
		QuizzesCompleted: row.QuizzesCompleted,
		QuestsCompleted:  row.QuestsCompleted,
		PollsAnswered:    row.PollsAnswered,
		LastActive:       row.LastActive,
		RegisteredAt:     row.RegisteredAt,
	}
}

func quizFromRow(row *quizRow) domain.Quiz {
	return domain.Quiz{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Questions:   row.Questions,
		CreatedBy:   row.CreatedBy,
	}
}

func questFromRow(row *questRow) domain.Quest {
	return domain.Quest{
		ID:           row.ID,
		Title:        row.Title,
		Description:  row.Description,
		Steps:        row.Steps,
		RewardPoints: row.RewardPoints,
		CreatedBy:    row.CreatedBy,
	}
}

func requireRow(res sql.Result, missing error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return missing
	}
	return nil
}
