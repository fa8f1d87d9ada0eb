package memory

import (
	"context"
	"testing"

	"edubot/internal/domain"
)

func TestGrantAchievementIdempotent(t *testing.T) {
	ctx := context.Background()
	g := NewGateway()
	if _, err := g.GetOrCreateUser(ctx, 1, "Alice"); err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	granted, err := g.GrantAchievement(ctx, 1, domain.BadgeFirstQuiz, "First Quiz")
	if err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if !granted {
		t.Fatal("expected first grant to report true")
	}

	granted, err = g.GrantAchievement(ctx, 1, domain.BadgeFirstQuiz, "First Quiz")
	if err != nil {
		t.Fatalf("second grant failed: %v", err)
	}
	if granted {
		t.Fatal("expected duplicate grant to report false")
	}

	badges, err := g.GetUserAchievements(ctx, 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(badges) != 1 {
		t.Fatalf("expected 1 badge, got %d", len(badges))
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	ctx := context.Background()
	g := NewGateway()
	for id, score := range map[int64]int{1: 10, 2: 30, 3: 20} {
		if _, err := g.GetOrCreateUser(ctx, id, "u"); err != nil {
			t.Fatalf("create user failed: %v", err)
		}
		if err := g.AddScore(ctx, id, score); err != nil {
			t.Fatalf("add score failed: %v", err)
		}
	}

	entries, err := g.Leaderboard(ctx, 2)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].UserID != 2 || entries[1].UserID != 3 {
		t.Fatalf("unexpected order: %+v", entries)
	}
}

func TestLeaderboardEmpty(t *testing.T) {
	entries, err := NewGateway().Leaderboard(context.Background(), 10)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty board, got %+v", entries)
	}
}

func TestQuestProgressLifecycle(t *testing.T) {
	ctx := context.Background()
	g := NewGateway()
	if _, err := g.GetOrCreateUser(ctx, 1, "Alice"); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	questID, err := g.AddQuest(ctx, domain.Quest{
		Title:        "Tools",
		Steps:        []domain.QuestStep{{Text: "s1", Answer: "a"}, {Text: "s2", Answer: "b"}},
		RewardPoints: 10,
	})
	if err != nil {
		t.Fatalf("add quest failed: %v", err)
	}

	if _, found, _ := g.GetQuestProgress(ctx, 1, questID); found {
		t.Fatal("expected no open progress before start")
	}
	if err := g.StartQuest(ctx, 1, questID); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := g.AdvanceQuest(ctx, 1, questID, 1); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	p, found, err := g.GetQuestProgress(ctx, 1, questID)
	if err != nil || !found {
		t.Fatalf("expected open progress, found=%v err=%v", found, err)
	}
	if p.CurrentStep != 1 {
		t.Fatalf("expected step 1, got %d", p.CurrentStep)
	}

	if err := g.CompleteQuest(ctx, 1, questID, 2, 10); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if _, found, _ := g.GetQuestProgress(ctx, 1, questID); found {
		t.Fatal("expected no open progress after completion")
	}
	user, err := g.GetUser(ctx, 1)
	if err != nil {
		t.Fatalf("get user failed: %v", err)
	}
	if user.Score != 10 || user.QuestsCompleted != 1 {
		t.Fatalf("unexpected user after completion: %+v", user)
	}
}

func TestCompleteQuizIsOneUnit(t *testing.T) {
	ctx := context.Background()
	g := NewGateway()
	if _, err := g.GetOrCreateUser(ctx, 1, "Alice"); err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	err := g.CompleteQuiz(ctx, domain.QuizResult{UserID: 1, QuizID: 7, Score: 2, Total: 3}, 10)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	user, _ := g.GetUser(ctx, 1)
	if user.Score != 10 || user.QuizzesCompleted != 1 {
		t.Fatalf("unexpected user after completion: %+v", user)
	}
	results, _ := g.GetUserQuizResults(ctx, 1)
	if len(results) != 1 || results[0].QuizID != 7 {
		t.Fatalf("unexpected results: %+v", results)
	}
	if results[0].CompletedAt.IsZero() {
		t.Fatal("expected CompletedAt to be stamped")
	}
}
