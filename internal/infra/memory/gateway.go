package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"edubot/internal/domain"
)

// Gateway is an in-memory implementation of app.Gateway, used in tests and
// in the no-database mode of the server. A single mutex guards all maps, so
// the Complete* sequences are atomic the same way the SQL backend makes
// them transactional.
type Gateway struct {
	mu sync.Mutex

	users        map[int64]*domain.User
	quizzes      map[int64]domain.Quiz
	quests       map[int64]domain.Quest
	quizResults  []domain.QuizResult
	progress     map[progressKey]*domain.QuestProgress
	achievements map[int64][]domain.Achievement
	pollAnswers  []pollAnswer

	nextQuizID  int64
	nextQuestID int64
	clock       func() time.Time
}

type progressKey struct {
	userID  int64
	questID int64
}

type pollAnswer struct {
	userID     int64
	pollID     string
	answeredAt time.Time
}

func NewGateway() *Gateway {
	return &Gateway{
		users:        make(map[int64]*domain.User),
		quizzes:      make(map[int64]domain.Quiz),
		quests:       make(map[int64]domain.Quest),
		progress:     make(map[progressKey]*domain.QuestProgress),
		achievements: make(map[int64][]domain.Achievement),
		nextQuizID:   1,
		nextQuestID:  1,
		clock:        time.Now,
	}
}

func (g *Gateway) GetOrCreateUser(_ context.Context, userID int64, name string) (domain.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.clock()
	if user, ok := g.users[userID]; ok {
		user.LastActive = now
		if name != "" {
			user.Name = name
		}
		return *user, nil
	}
	user := &domain.User{
		ID:           userID,
		Name:         name,
		LastActive:   now,
		RegisteredAt: now,
	}
	g.users[userID] = user
	return *user, nil
}

func (g *Gateway) GetUser(_ context.Context, userID int64) (domain.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	user, ok := g.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return *user, nil
}

func (g *Gateway) AddScore(_ context.Context, userID int64, delta int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addScoreLocked(userID, delta)
}

func (g *Gateway) addScoreLocked(userID int64, delta int) error {
	user, ok := g.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.Score += delta
	user.LastActive = g.clock()
	return nil
}

func (g *Gateway) IncrementCounter(_ context.Context, userID int64, field string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.incrementCounterLocked(userID, field)
}

func (g *Gateway) incrementCounterLocked(userID int64, field string) error {
	user, ok := g.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	switch field {
	case domain.CounterQuizzesCompleted:
		user.QuizzesCompleted++
	case domain.CounterQuestsCompleted:
		user.QuestsCompleted++
	case domain.CounterPollsAnswered:
		user.PollsAnswered++
	default:
		return domain.ErrInvalidCounter
	}
	return nil
}

func (g *Gateway) Leaderboard(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entries := make([]domain.LeaderboardEntry, 0, len(g.users))
	for _, user := range g.users {
		entries = append(entries, domain.LeaderboardEntry{
			UserID: user.ID,
			Name:   user.Name,
			Score:  user.Score,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID < entries[j].UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (g *Gateway) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.Quiz, 0, len(g.quizzes))
	for _, quiz := range g.quizzes {
		out = append(out, quiz)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (g *Gateway) GetQuiz(_ context.Context, quizID int64) (domain.Quiz, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	quiz, ok := g.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (g *Gateway) AddQuiz(_ context.Context, quiz domain.Quiz) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	quiz.ID = g.nextQuizID
	g.nextQuizID++
	g.quizzes[quiz.ID] = quiz
	return quiz.ID, nil
}

func (g *Gateway) SaveQuizResult(_ context.Context, result domain.QuizResult) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saveQuizResultLocked(result)
	return nil
}

func (g *Gateway) saveQuizResultLocked(result domain.QuizResult) {
	if result.CompletedAt.IsZero() {
		result.CompletedAt = g.clock()
	}
	g.quizResults = append(g.quizResults, result)
}

func (g *Gateway) GetUserQuizResults(_ context.Context, userID int64) ([]domain.QuizResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []domain.QuizResult
	for _, r := range g.quizResults {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (g *Gateway) CompleteQuiz(_ context.Context, result domain.QuizResult, points int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.addScoreLocked(result.UserID, points); err != nil {
		return err
	}
	if err := g.incrementCounterLocked(result.UserID, domain.CounterQuizzesCompleted); err != nil {
		return err
	}
	g.saveQuizResultLocked(result)
	return nil
}

func (g *Gateway) ListQuests(_ context.Context) ([]domain.Quest, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.Quest, 0, len(g.quests))
	for _, quest := range g.quests {
		out = append(out, quest)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (g *Gateway) GetQuest(_ context.Context, questID int64) (domain.Quest, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	quest, ok := g.quests[questID]
	if !ok {
		return domain.Quest{}, domain.ErrQuestNotFound
	}
	return quest, nil
}

func (g *Gateway) AddQuest(_ context.Context, quest domain.Quest) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	quest.ID = g.nextQuestID
	g.nextQuestID++
	g.quests[quest.ID] = quest
	return quest.ID, nil
}

func (g *Gateway) GetQuestProgress(_ context.Context, userID, questID int64) (domain.QuestProgress, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.progress[progressKey{userID, questID}]
	if !ok || p.Completed {
		return domain.QuestProgress{}, false, nil
	}
	return *p, true, nil
}

func (g *Gateway) StartQuest(_ context.Context, userID, questID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := progressKey{userID, questID}
	if p, ok := g.progress[key]; ok && !p.Completed {
		return nil
	}
	g.progress[key] = &domain.QuestProgress{
		UserID:    userID,
		QuestID:   questID,
		StartedAt: g.clock(),
	}
	return nil
}

func (g *Gateway) AdvanceQuest(_ context.Context, userID, questID int64, newStep int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.progress[progressKey{userID, questID}]
	if !ok || p.Completed {
		return domain.ErrQuestNotFound
	}
	p.CurrentStep = newStep
	return nil
}

func (g *Gateway) CompleteQuest(_ context.Context, userID, questID int64, finalStep, reward int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.progress[progressKey{userID, questID}]
	if !ok || p.Completed {
		return domain.ErrQuestNotFound
	}
	p.CurrentStep = finalStep
	p.Completed = true
	p.CompletedAt = g.clock()
	if err := g.addScoreLocked(userID, reward); err != nil {
		return err
	}
	return g.incrementCounterLocked(userID, domain.CounterQuestsCompleted)
}

func (g *Gateway) GrantAchievement(_ context.Context, userID int64, badgeID, badgeName string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, a := range g.achievements[userID] {
		if a.BadgeID == badgeID {
			return false, nil
		}
	}
	g.achievements[userID] = append(g.achievements[userID], domain.Achievement{
		UserID:    userID,
		BadgeID:   badgeID,
		BadgeName: badgeName,
		EarnedAt:  g.clock(),
	})
	return true, nil
}

func (g *Gateway) GetUserAchievements(_ context.Context, userID int64) ([]domain.Achievement, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.Achievement(nil), g.achievements[userID]...), nil
}

func (g *Gateway) RecordPollAnswer(_ context.Context, userID int64, pollID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pollAnswers = append(g.pollAnswers, pollAnswer{
		userID:     userID,
		pollID:     pollID,
		answeredAt: g.clock(),
	})
	return nil
}
