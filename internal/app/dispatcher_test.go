package app_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"edubot/internal/app"
	"edubot/internal/content"
	"edubot/internal/domain"
	"edubot/internal/infra/memory"
)

func TestStartShowsMainMenu(t *testing.T) {
	ctx := context.Background()
	bot := newTestBot(t)

	render, err := bot.dispatch(ctx, 1, command("start"))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if !strings.Contains(render.Text, "Pick an action") {
		t.Fatalf("expected main menu, got %q", render.Text)
	}
	if _, err := bot.gateway.GetUser(ctx, 1); err != nil {
		t.Fatalf("expected user registered on first contact: %v", err)
	}
}

func TestUnknownEventIsIgnored(t *testing.T) {
	ctx := context.Background()
	bot := newTestBot(t)

	bot.mustDispatch(ctx, t, 1, command("start"))
	render, err := bot.dispatch(ctx, 1, callback("no_such_action"))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if !render.IsZero() {
		t.Fatalf("expected ignored event, got %q", render.Text)
	}
}

func TestRedeliveredEventIsDropped(t *testing.T) {
	ctx := context.Background()
	bot := newTestBot(t)

	bot.mustDispatch(ctx, t, 1, command("start"))
	ev := callback("quiz_list")
	ev.ID = "ev-42"

	first, err := bot.dispatch(ctx, 1, ev)
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if first.IsZero() {
		t.Fatal("expected quiz list on first delivery")
	}

	second, err := bot.dispatch(ctx, 1, ev)
	if err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	if !second.IsZero() {
		t.Fatalf("expected redelivered event to be dropped, got %q", second.Text)
	}
}

func TestQuizFullFlow(t *testing.T) {
	ctx := context.Background()
	bot := newTestBot(t)

	bot.mustDispatch(ctx, t, 1, command("start"))
	bot.mustDispatch(ctx, t, 1, callback("quiz_list"))

	render := bot.mustDispatch(ctx, t, 1, callback(fmt.Sprintf("quiz_start:%d", bot.quizID)))
	if !strings.Contains(render.Text, "Question 1/2") {
		t.Fatalf("expected first question, got %q", render.Text)
	}

	// Correct answer: feedback screen with a Next button.
	render = bot.mustDispatch(ctx, t, 1, callback("quiz_answer:1"))
	if !strings.Contains(render.Text, "Correct!") {
		t.Fatalf("expected positive feedback, got %q", render.Text)
	}
	render = bot.mustDispatch(ctx, t, 1, callback("quiz_next"))
	if !strings.Contains(render.Text, "Question 2/2") {
		t.Fatalf("expected second question, got %q", render.Text)
	}

	// The wrong final answer settles the run; its feedback tops the
	// results screen.
	render = bot.mustDispatch(ctx, t, 1, callback("quiz_answer:0"))
	if !strings.Contains(render.Text, "Correct answers: 1/2") {
		t.Fatalf("expected results screen, got %q", render.Text)
	}
	if !strings.Contains(render.Text, "The right answer is: right") {
		t.Fatalf("expected final-answer feedback on results, got %q", render.Text)
	}

	user, err := bot.gateway.GetUser(ctx, 1)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Score != 5 || user.QuizzesCompleted != 1 {
		t.Fatalf("unexpected user after quiz: %+v", user)
	}
	badges, _ := bot.gateway.GetUserAchievements(ctx, 1)
	if len(badges) != 1 || badges[0].BadgeID != domain.BadgeFirstQuiz {
		t.Fatalf("expected first_quiz badge, got %+v", badges)
	}
}

func TestPerfectScoreBadge(t *testing.T) {
	ctx := context.Background()
	bot := newTestBot(t)

	bot.mustDispatch(ctx, t, 1, command("start"))
	bot.mustDispatch(ctx, t, 1, callback("quiz_list"))
	bot.mustDispatch(ctx, t, 1, callback(fmt.Sprintf("quiz_start:%d", bot.quizID)))
	bot.mustDispatch(ctx, t, 1, callback("quiz_answer:1"))
	bot.mustDispatch(ctx, t, 1, callback("quiz_next"))
	bot.mustDispatch(ctx, t, 1, callback("quiz_answer:1"))

	badges, _ := bot.gateway.GetUserAchievements(ctx, 1)
	ids := make(map[string]bool, len(badges))
	for _, b := range badges {
		ids[b.BadgeID] = true
	}
	if !ids[domain.BadgeFirstQuiz] || !ids[domain.BadgePerfectScore] {
		t.Fatalf("expected first_quiz and perfect_score, got %+v", badges)
	}
}

func TestZeroQuestionQuizSettlesImmediately(t *testing.T) {
	ctx := context.Background()
	bot := newTestBot(t)

	emptyID, err := bot.gateway.AddQuiz(ctx, domain.Quiz{Title: "Empty"})
	if err != nil {
		t.Fatalf("seed quiz: %v", err)
	}

	bot.mustDispatch(ctx, t, 1, command("start"))
	bot.mustDispatch(ctx, t, 1, callback("quiz_list"))
	render := bot.mustDispatch(ctx, t, 1, callback(fmt.Sprintf("quiz_start:%d", emptyID)))
	if !strings.Contains(render.Text, "Correct answers: 0/0 (0%)") {
		t.Fatalf("expected zero-question results with 0%%, got %q", render.Text)
	}

	user, _ := bot.gateway.GetUser(ctx, 1)
	if user.Score != 0 || user.QuizzesCompleted != 1 {
		t.Fatalf("unexpected user after empty quiz: %+v", user)
	}
	badges, _ := bot.gateway.GetUserAchievements(ctx, 1)
	for _, b := range badges {
		if b.BadgeID == domain.BadgePerfectScore {
			t.Fatalf("perfect_score must not be granted on 0/0, got %+v", badges)
		}
	}
}

func TestQuestWrongAnswerKeepsStep(t *testing.T) {
	ctx := context.Background()
	bot := newTestBot(t)

	bot.mustDispatch(ctx, t, 1, command("start"))
	bot.mustDispatch(ctx, t, 1, callback("quest_list"))
	bot.mustDispatch(ctx, t, 1, callback(fmt.Sprintf("quest_begin:%d", bot.questID)))

	render := bot.mustDispatch(ctx, t, 1, message("nonsense"))
	if !strings.Contains(render.Text, "Wrong!") {
		t.Fatalf("expected wrong-answer feedback, got %q", render.Text)
	}

	// Matching is case-insensitive on trimmed text.
	render = bot.mustDispatch(ctx, t, 1, message("  CONCRETE "))
	if !strings.Contains(render.Text, "Step 2/2") {
		t.Fatalf("expected advance to step 2, got %q", render.Text)
	}
}

func TestQuestHintKeepsStep(t *testing.T) {
	ctx := context.Background()
	bot := newTestBot(t)

	bot.mustDispatch(ctx, t, 1, command("start"))
	bot.mustDispatch(ctx, t, 1, callback("quest_list"))
	bot.mustDispatch(ctx, t, 1, callback(fmt.Sprintf("quest_begin:%d", bot.questID)))

	render := bot.mustDispatch(ctx, t, 1, callback("quest_hint"))
	if !strings.Contains(render.Text, "poured, not laid") {
		t.Fatalf("expected the step hint, got %q", render.Text)
	}

	// The hint changes nothing: the first step is still the one answered.
	render = bot.mustDispatch(ctx, t, 1, message("concrete"))
	if !strings.Contains(render.Text, "Step 2/2") {
		t.Fatalf("expected advance to step 2 after hint, got %q", render.Text)
	}

	// The second step carries no hint.
	render = bot.mustDispatch(ctx, t, 1, callback("quest_hint"))
	if !strings.Contains(render.Text, "No hint for this step.") {
		t.Fatalf("expected no-hint fallback, got %q", render.Text)
	}
}

func TestQuestWithoutStepsIsRejected(t *testing.T) {
	ctx := context.Background()
	bot := newTestBot(t)

	emptyID, err := bot.gateway.AddQuest(ctx, domain.Quest{Title: "Empty"})
	if err != nil {
		t.Fatalf("seed quest: %v", err)
	}

	bot.mustDispatch(ctx, t, 1, command("start"))
	bot.mustDispatch(ctx, t, 1, callback("quest_list"))
	render := bot.mustDispatch(ctx, t, 1, callback(fmt.Sprintf("quest_begin:%d", emptyID)))
	if !strings.Contains(render.Text, "no steps") {
		t.Fatalf("expected no-steps notice, got %q", render.Text)
	}
	if _, found, _ := bot.gateway.GetQuestProgress(ctx, 1, emptyID); found {
		t.Fatal("expected no progress row opened for a stepless quest")
	}

	// The session fell back to the menu; normal navigation still works.
	render = bot.mustDispatch(ctx, t, 1, callback("quest_list"))
	if render.IsZero() {
		t.Fatal("expected quest list after bailing out")
	}
}

func TestQuestProgressSurvivesMenuAndRestart(t *testing.T) {
	ctx := context.Background()
	bot := newTestBot(t)

	bot.mustDispatch(ctx, t, 1, command("start"))
	bot.mustDispatch(ctx, t, 1, callback("quest_list"))
	bot.mustDispatch(ctx, t, 1, callback(fmt.Sprintf("quest_begin:%d", bot.questID)))
	bot.mustDispatch(ctx, t, 1, message("concrete"))

	// Leaving to the menu drops the session payload, not the durable pointer.
	bot.mustDispatch(ctx, t, 1, callback("back_to_menu"))
	render := bot.mustDispatch(ctx, t, 1, callback("quest_list"))
	if render.IsZero() {
		t.Fatal("expected quest list")
	}
	render = bot.mustDispatch(ctx, t, 1, callback(fmt.Sprintf("quest_begin:%d", bot.questID)))
	if !strings.Contains(render.Text, "Step 2/2") {
		t.Fatalf("expected resume at step 2, got %q", render.Text)
	}

	// A fresh dispatcher over the same gateway simulates a process restart.
	restarted := newDispatcherOver(bot.gateway)
	render, err := restarted.Dispatch(ctx, 1, "Alice", callback("quest_list"))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	render, err = restarted.Dispatch(ctx, 1, "Alice", callback(fmt.Sprintf("quest_begin:%d", bot.questID)))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if !strings.Contains(render.Text, "Step 2/2") {
		t.Fatalf("expected resume at stored step after restart, got %q", render.Text)
	}
}

func TestQuestCompletionPaysReward(t *testing.T) {
	ctx := context.Background()
	bot := newTestBot(t)

	bot.mustDispatch(ctx, t, 1, command("start"))
	bot.mustDispatch(ctx, t, 1, callback("quest_list"))
	bot.mustDispatch(ctx, t, 1, callback(fmt.Sprintf("quest_begin:%d", bot.questID)))
	bot.mustDispatch(ctx, t, 1, message("concrete"))
	render := bot.mustDispatch(ctx, t, 1, message("crane"))
	if !strings.Contains(render.Text, "completed!") {
		t.Fatalf("expected completion screen, got %q", render.Text)
	}

	user, _ := bot.gateway.GetUser(ctx, 1)
	if user.Score != 10 || user.QuestsCompleted != 1 {
		t.Fatalf("unexpected user after quest: %+v", user)
	}
	if _, found, _ := bot.gateway.GetQuestProgress(ctx, 1, bot.questID); found {
		t.Fatal("expected progress row closed after completion")
	}
}

func TestCareerTestFlow(t *testing.T) {
	ctx := context.Background()
	bot := newTestBot(t)

	bot.mustDispatch(ctx, t, 1, command("start"))
	render := bot.mustDispatch(ctx, t, 1, callback("career_test"))
	if !strings.Contains(render.Text, "Career test") {
		t.Fatalf("expected intro, got %q", render.Text)
	}
	bot.mustDispatch(ctx, t, 1, callback("career_next"))

	total := len(content.NewCatalog(bot.gateway, time.Minute).ListCareerQuestions())
	var result domain.RenderInstruction
	for i := 0; i < total; i++ {
		result = bot.mustDispatch(ctx, t, 1, callback("career_ans:0"))
	}
	if !strings.Contains(result.Text, "Architect") {
		t.Fatalf("expected architect result for all-first answers, got %q", result.Text)
	}

	user, _ := bot.gateway.GetUser(ctx, 1)
	if user.Score != 5 {
		t.Fatalf("expected +5 for finishing the test, got %d", user.Score)
	}
	badges, _ := bot.gateway.GetUserAchievements(ctx, 1)
	if len(badges) != 1 || badges[0].BadgeID != domain.BadgeCareerFound {
		t.Fatalf("expected career_found badge, got %+v", badges)
	}
}

func TestEmptyLeaderboardRendersNotice(t *testing.T) {
	ctx := context.Background()
	gateway := memory.NewGateway()
	catalog := content.NewCatalog(gateway, time.Minute)
	d := app.NewDispatcher(memory.NewSessionStore(), catalog, emptyBoardGateway{gateway}, nil, zap.NewNop())

	if _, err := d.Dispatch(ctx, 1, "Alice", domain.Event{ID: "e1", Kind: domain.EventCommand, Data: "start"}); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	render, err := d.Dispatch(ctx, 1, "Alice", domain.Event{ID: "e2", Kind: domain.EventCallback, Data: "leaderboard"})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if !strings.Contains(render.Text, "Nobody has scored yet") {
		t.Fatalf("expected empty-board notice, got %q", render.Text)
	}
}

func TestPollAnswerScoresOnce(t *testing.T) {
	ctx := context.Background()
	bot := newTestBot(t)

	bot.mustDispatch(ctx, t, 1, command("start"))
	bot.mustDispatch(ctx, t, 1, callback("poll_list"))
	render := bot.mustDispatch(ctx, t, 1, callback("poll_send:0"))
	if render.Poll == nil {
		t.Fatal("expected native poll payload")
	}

	user, _ := bot.gateway.GetUser(ctx, 1)
	if user.Score != 2 || user.PollsAnswered != 1 {
		t.Fatalf("unexpected user after poll: %+v", user)
	}
}

func TestAdminAccessDenied(t *testing.T) {
	ctx := context.Background()
	bot := newTestBot(t)

	bot.mustDispatch(ctx, t, 1, command("start"))
	render := bot.mustDispatch(ctx, t, 1, command("admin"))
	if !strings.Contains(render.Text, "do not have access") {
		t.Fatalf("expected denial, got %q", render.Text)
	}
}

func TestAdminQuizWizard(t *testing.T) {
	ctx := context.Background()
	bot := newTestBot(t)

	bot.mustDispatch(ctx, t, adminID, command("start"))
	render := bot.mustDispatch(ctx, t, adminID, command("admin"))
	if !strings.Contains(render.Text, "Admin panel") {
		t.Fatalf("expected admin panel, got %q", render.Text)
	}

	bot.mustDispatch(ctx, t, adminID, callback("admin_add_quiz"))
	bot.mustDispatch(ctx, t, adminID, message("Cranes"))
	bot.mustDispatch(ctx, t, adminID, message("What does a tower crane do as floors are added?"))

	// Too few options re-prompts without advancing.
	render = bot.mustDispatch(ctx, t, adminID, message("Only one"))
	if !strings.Contains(render.Text, "At least 2 options") {
		t.Fatalf("expected re-prompt, got %q", render.Text)
	}

	bot.mustDispatch(ctx, t, adminID, message("It is dismantled\nIt climbs up\nIt stays put"))

	// Out-of-range index re-prompts.
	render = bot.mustDispatch(ctx, t, adminID, message("7"))
	if !strings.Contains(render.Text, "Invalid number") {
		t.Fatalf("expected re-prompt, got %q", render.Text)
	}
	bot.mustDispatch(ctx, t, adminID, message("2"))
	render = bot.mustDispatch(ctx, t, adminID, callback("admin_quiz_save"))
	if !strings.Contains(render.Text, "Quiz saved!") {
		t.Fatalf("expected save confirmation, got %q", render.Text)
	}

	quizzes, err := bot.gateway.ListQuizzes(ctx)
	if err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	var saved *domain.Quiz
	for i := range quizzes {
		if quizzes[i].Title == "Cranes" {
			saved = &quizzes[i]
		}
	}
	if saved == nil {
		t.Fatalf("expected saved quiz, got %+v", quizzes)
	}
	if len(saved.Questions) != 1 || saved.Questions[0].Correct != 1 {
		t.Fatalf("unexpected saved quiz: %+v", saved)
	}
	if saved.CreatedBy != adminID {
		t.Fatalf("expected author %d, got %d", adminID, saved.CreatedBy)
	}
}

func TestAdminQuestWizard(t *testing.T) {
	ctx := context.Background()
	bot := newTestBot(t)

	bot.mustDispatch(ctx, t, adminID, command("start"))
	bot.mustDispatch(ctx, t, adminID, command("admin"))
	bot.mustDispatch(ctx, t, adminID, callback("admin_add_quest"))
	bot.mustDispatch(ctx, t, adminID, message("Scaffolding"))
	bot.mustDispatch(ctx, t, adminID, message("Name the temporary structure crews work from."))
	bot.mustDispatch(ctx, t, adminID, message("scaffold"))
	bot.mustDispatch(ctx, t, adminID, callback("admin_quest_more"))
	bot.mustDispatch(ctx, t, adminID, message("How many steps does this quest have?"))
	bot.mustDispatch(ctx, t, adminID, message("two"))
	render := bot.mustDispatch(ctx, t, adminID, callback("admin_quest_save"))
	if !strings.Contains(render.Text, "Quest saved!") {
		t.Fatalf("expected save confirmation, got %q", render.Text)
	}

	quests, err := bot.gateway.ListQuests(ctx)
	if err != nil {
		t.Fatalf("list quests: %v", err)
	}
	var saved *domain.Quest
	for i := range quests {
		if quests[i].Title == "Scaffolding" {
			saved = &quests[i]
		}
	}
	if saved == nil {
		t.Fatalf("expected saved quest, got %+v", quests)
	}
	if len(saved.Steps) != 2 || saved.RewardPoints != 10 {
		t.Fatalf("unexpected saved quest: %+v", saved)
	}
}

func TestFailedSaveLeavesSessionUntouched(t *testing.T) {
	ctx := context.Background()
	gateway := memory.NewGateway()
	catalog := content.NewCatalog(gateway, time.Minute)
	store := &flakySessionStore{SessionRepository: memory.NewSessionStore()}
	d := app.NewDispatcher(store, catalog, gateway, nil, zap.NewNop())

	if _, err := d.Dispatch(ctx, 1, "Alice", command("start")); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	store.failSaves = true
	render, err := d.Dispatch(ctx, 1, "Alice", callback("quiz_list"))
	if err != nil {
		t.Fatalf("dispatch should swallow storage errors, got %v", err)
	}
	if !strings.Contains(render.Text, "try again") {
		t.Fatalf("expected transient failure notice, got %q", render.Text)
	}

	sess, err := store.Load(ctx, 1)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if sess.State != domain.StateMain {
		t.Fatalf("expected pre-event state kept, got %q", sess.State)
	}
}

// ── fixtures ──

const adminID int64 = 99

type testBot struct {
	dispatcher *app.Dispatcher
	gateway    *memory.Gateway
	quizID     int64
	questID    int64
	eventSeq   int
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()
	ctx := context.Background()
	gateway := memory.NewGateway()

	quizID, err := gateway.AddQuiz(ctx, domain.Quiz{
		Title: "Basics",
		Questions: []domain.Question{
			{Text: "Q1", Options: []string{"wrong", "right"}, Correct: 1},
			{Text: "Q2", Options: []string{"wrong", "right"}, Correct: 1},
		},
	})
	if err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	questID, err := gateway.AddQuest(ctx, domain.Quest{
		Title:        "Site walk",
		RewardPoints: 10,
		Steps: []domain.QuestStep{
			{Text: "step one", Answer: "concrete", Hint: "poured, not laid"},
			{Text: "step two", Answer: "crane"},
		},
	})
	if err != nil {
		t.Fatalf("seed quest: %v", err)
	}

	return &testBot{
		dispatcher: newDispatcherOver(gateway),
		gateway:    gateway,
		quizID:     quizID,
		questID:    questID,
	}
}

func newDispatcherOver(gateway *memory.Gateway) *app.Dispatcher {
	catalog := content.NewCatalog(gateway, time.Minute)
	return app.NewDispatcher(memory.NewSessionStore(), catalog, gateway, []int64{adminID}, zap.NewNop())
}

func (b *testBot) dispatch(ctx context.Context, userID int64, ev domain.Event) (domain.RenderInstruction, error) {
	b.eventSeq++
	if ev.ID == "" {
		ev.ID = fmt.Sprintf("ev-%d", b.eventSeq)
	}
	return b.dispatcher.Dispatch(ctx, userID, "Alice", ev)
}

func (b *testBot) mustDispatch(ctx context.Context, t *testing.T, userID int64, ev domain.Event) domain.RenderInstruction {
	t.Helper()
	render, err := b.dispatch(ctx, userID, ev)
	if err != nil {
		t.Fatalf("dispatch %q failed: %v", ev.Data, err)
	}
	return render
}

func command(name string) domain.Event {
	return domain.Event{Kind: domain.EventCommand, Data: name}
}

func callback(data string) domain.Event {
	return domain.Event{Kind: domain.EventCallback, Data: data}
}

func message(text string) domain.Event {
	return domain.Event{Kind: domain.EventMessage, Text: text}
}

// emptyBoardGateway serves an empty leaderboard no matter who registered;
// Dispatch creates the acting user, so a truly empty board needs this.
type emptyBoardGateway struct {
	*memory.Gateway
}

func (g emptyBoardGateway) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	return nil, nil
}

type flakySessionStore struct {
	app.SessionRepository
	failSaves bool
}

func (s *flakySessionStore) Save(ctx context.Context, userID int64, sess *app.Session) error {
	if s.failSaves {
		return errors.New("redis gone")
	}
	return s.SessionRepository.Save(ctx, userID, sess)
}
