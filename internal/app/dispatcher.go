package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"edubot/internal/domain"
)

// Dispatcher is the state machine core. Given (current session state,
// inbound event) it selects the matching engine transition, persists the
// next state and returns the render instruction for the transport.
//
// Events from one user are serialized through a per-user lock; events from
// distinct users run concurrently. A handler works on a cloned session
// that is saved only on success, so a failed interaction leaves the
// session at its pre-event value and a retry is possible.
type Dispatcher struct {
	sessions SessionRepository
	catalog  Catalog
	gateway  Gateway
	ledger   *Ledger
	log      *zap.Logger

	quiz   *QuizEngine
	quest  *QuestEngine
	career *CareerEngine
	admin  *AdminEngine

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewDispatcher(sessions SessionRepository, catalog Catalog, gateway Gateway, adminIDs []int64, log *zap.Logger) *Dispatcher {
	ledger := NewLedger(gateway, log)
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Dispatcher{
		sessions: sessions,
		catalog:  catalog,
		gateway:  gateway,
		ledger:   ledger,
		log:      log,
		quiz:     NewQuizEngine(catalog, ledger, log),
		quest:    NewQuestEngine(catalog, gateway, ledger, log),
		career:   NewCareerEngine(catalog, ledger),
		admin:    NewAdminEngine(gateway, catalog, admins),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Dispatch routes one inbound event for one user. A zero instruction means
// the event matched no transition and was ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, userID int64, name string, ev domain.Event) (domain.RenderInstruction, error) {
	lock := d.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := d.sessions.Load(ctx, userID)
	if err != nil {
		d.log.Error("session load failed", zap.Int64("user", userID), zap.Error(err))
		return transientFailure(), nil
	}
	if sess == nil {
		sess = NewSession()
		if _, err := d.gateway.GetOrCreateUser(ctx, userID, name); err != nil {
			d.log.Error("user registration failed", zap.Int64("user", userID), zap.Error(err))
			return transientFailure(), nil
		}
	}
	if sess.Seen(ev.ID) {
		d.log.Debug("dropping redelivered event",
			zap.Int64("user", userID), zap.String("event", ev.ID))
		return domain.RenderInstruction{}, nil
	}

	work := sess.Clone()
	render, handled, err := d.route(ctx, userID, name, work, ev)
	if err != nil {
		d.log.Error("interaction failed",
			zap.Int64("user", userID),
			zap.String("state", string(sess.State)),
			zap.String("data", ev.Data),
			zap.Error(err))
		return transientFailure(), nil
	}
	if !handled {
		return domain.RenderInstruction{}, nil
	}

	work.Remember(ev.ID)
	if err := d.sessions.Save(ctx, userID, work); err != nil {
		d.log.Error("session save failed", zap.Int64("user", userID), zap.Error(err))
		return transientFailure(), nil
	}
	return render, nil
}

func (d *Dispatcher) route(ctx context.Context, userID int64, name string, sess *Session, ev domain.Event) (domain.RenderInstruction, bool, error) {
	// Commands and the universal return-to-menu work from every state.
	if ev.Kind == domain.EventCommand {
		return d.routeCommand(ctx, userID, name, sess, ev)
	}
	if ev.Kind == domain.EventCallback {
		switch ev.Key() {
		case "back_to_menu", "start":
			if err := d.touchUser(ctx, userID, name); err != nil {
				return domain.RenderInstruction{}, true, err
			}
			sess.Reset()
			return mainMenu(), true, nil
		}
	}

	switch sess.State {
	case domain.StateMain:
		return d.routeMain(ctx, userID, sess, ev)

	case domain.StateEducationTopics, domain.StateEducationSections:
		return d.routeEducation(sess, ev)

	case domain.StateQuizSelect:
		switch ev.Key() {
		case "quiz_start":
			return d.quiz.Start(ctx, userID, sess, ev.Arg())
		case "quiz_list":
			return d.quizList(ctx, sess)
		}

	case domain.StateQuizPlay:
		switch ev.Key() {
		case "quiz_answer":
			return d.quiz.Answer(ctx, userID, sess, ev.Arg())
		case "quiz_next":
			return d.quiz.Next(sess)
		case "quiz_start":
			return d.quiz.Start(ctx, userID, sess, ev.Arg())
		case "quiz_list":
			return d.quizList(ctx, sess)
		}

	case domain.StateQuestSelect:
		switch ev.Key() {
		case "quest_begin":
			return d.quest.Begin(ctx, userID, sess, ev.Arg())
		case "quest_list":
			return d.questList(ctx, sess)
		}

	case domain.StateQuestPlay:
		switch {
		case ev.Kind == domain.EventMessage:
			return d.quest.Answer(ctx, userID, sess, ev.Text)
		case ev.Key() == "quest_hint":
			return d.quest.Hint(sess)
		case ev.Key() == "quest_list":
			return d.questList(ctx, sess)
		}

	case domain.StatePollSelect:
		switch ev.Key() {
		case "poll_send":
			return d.pollSend(ctx, userID, sess, ev.Arg())
		case "poll_list":
			return d.pollList(sess)
		}

	case domain.StateProfile:
		switch ev.Key() {
		case "leaderboard":
			return d.leaderboard(ctx, sess)
		case "profile":
			return d.profile(ctx, userID, sess)
		}

	case domain.StateLeaderboard:
		if ev.Key() == "profile" {
			return d.profile(ctx, userID, sess)
		}

	case domain.StateFactOfDay:
		if ev.Key() == "fact_of_day" {
			return d.factOfDay(sess)
		}

	case domain.StateCareerIntro:
		switch ev.Key() {
		case "career_next":
			return d.career.Next(sess)
		case "career_test":
			return d.career.Start(sess)
		}

	case domain.StateCareerPlay:
		switch ev.Key() {
		case "career_ans":
			return d.career.Answer(ctx, userID, sess, ev.Arg())
		case "career_test":
			return d.career.Start(sess)
		}

	case domain.StateAdminMenu:
		switch ev.Key() {
		case "admin_add_quiz":
			return d.admin.StartQuizDraft(userID, sess)
		case "admin_add_quest":
			return d.admin.StartQuestDraft(userID, sess)
		case "admin_menu":
			return d.admin.Menu(ctx, userID, sess)
		}

	case domain.StateAdminQuizTitle, domain.StateAdminQuizQuestion,
		domain.StateAdminQuizAnswers, domain.StateAdminQuizCorrect,
		domain.StateAdminQuizMore:
		return d.admin.RouteQuizDraft(ctx, userID, sess, ev)

	case domain.StateAdminQuestTitle, domain.StateAdminQuestStepText,
		domain.StateAdminQuestStepAnswer, domain.StateAdminQuestMore:
		return d.admin.RouteQuestDraft(ctx, userID, sess, ev)
	}

	// No transition for this (state, event): ignore.
	return domain.RenderInstruction{}, false, nil
}

func (d *Dispatcher) routeMain(ctx context.Context, userID int64, sess *Session, ev domain.Event) (domain.RenderInstruction, bool, error) {
	switch ev.Key() {
	case "education":
		return d.educationTopics(sess)
	case "quiz_list":
		return d.quizList(ctx, sess)
	case "quiz_start":
		return d.quiz.Start(ctx, userID, sess, ev.Arg())
	case "quest_list":
		return d.questList(ctx, sess)
	case "quest_begin":
		return d.quest.Begin(ctx, userID, sess, ev.Arg())
	case "poll_list":
		return d.pollList(sess)
	case "profile":
		return d.profile(ctx, userID, sess)
	case "leaderboard":
		return d.leaderboard(ctx, sess)
	case "fact_of_day":
		return d.factOfDay(sess)
	case "career_test":
		return d.career.Start(sess)
	case "admin_menu":
		return d.admin.Menu(ctx, userID, sess)
	}
	return domain.RenderInstruction{}, false, nil
}

func (d *Dispatcher) routeCommand(ctx context.Context, userID int64, name string, sess *Session, ev domain.Event) (domain.RenderInstruction, bool, error) {
	switch ev.Data {
	case "start":
		if err := d.touchUser(ctx, userID, name); err != nil {
			return domain.RenderInstruction{}, true, err
		}
		sess.Reset()
		return mainMenu(), true, nil
	case "help":
		sess.State = domain.StateMain
		return helpScreen(), true, nil
	case "profile":
		return d.profile(ctx, userID, sess)
	case "quiz":
		return d.quizList(ctx, sess)
	case "quest":
		return d.questList(ctx, sess)
	case "fact":
		return d.factOfDay(sess)
	case "career":
		return d.career.Start(sess)
	case "admin":
		return d.admin.Menu(ctx, userID, sess)
	}
	return domain.RenderInstruction{}, false, nil
}

func (d *Dispatcher) touchUser(ctx context.Context, userID int64, name string) error {
	_, err := d.gateway.GetOrCreateUser(ctx, userID, name)
	return err
}

func (d *Dispatcher) userLock(userID int64) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	lock, ok := d.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[userID] = lock
	}
	return lock
}
