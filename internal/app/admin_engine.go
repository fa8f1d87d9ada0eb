package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"edubot/internal/domain"
)

// AdminEngine hosts the content-authoring wizards. Entry is gated by a
// static allow-list injected at construction; everyone else gets a denial
// notice and never enters the builder. Drafts live only in the session and
// are discarded on commit or overwritten when restarted.
type AdminEngine struct {
	gateway Gateway
	catalog Catalog
	admins  map[int64]bool
}

func NewAdminEngine(gateway Gateway, catalog Catalog, admins map[int64]bool) *AdminEngine {
	return &AdminEngine{gateway: gateway, catalog: catalog, admins: admins}
}

// IsAdmin reports allow-list membership.
func (e *AdminEngine) IsAdmin(userID int64) bool {
	return e.admins[userID]
}

// Menu renders the admin panel, or a denial for non-members.
func (e *AdminEngine) Menu(ctx context.Context, userID int64, sess *Session) (domain.RenderInstruction, bool, error) {
	if !e.IsAdmin(userID) {
		return domain.RenderInstruction{
			Text:    "You do not have access to the admin panel.",
			Buttons: [][]domain.Button{backRow()},
		}, true, nil
	}

	quizzes, err := e.gateway.ListQuizzes(ctx)
	if err != nil {
		return domain.RenderInstruction{}, true, err
	}
	quests, err := e.gateway.ListQuests(ctx)
	if err != nil {
		return domain.RenderInstruction{}, true, err
	}

	sess.State = domain.StateAdminMenu
	return domain.RenderInstruction{
		Text: fmt.Sprintf("Admin panel\n\nQuizzes: %d\nQuests: %d\n\nPick an action:", len(quizzes), len(quests)),
		Buttons: [][]domain.Button{
			domain.Row(domain.Btn("Add a quiz", "admin_add_quiz")),
			domain.Row(domain.Btn("Add a quest", "admin_add_quest")),
			domain.Row(domain.Btn("Main menu", "back_to_menu")),
		},
	}, true, nil
}

// ── Quiz wizard: Title -> Question -> Answers -> CorrectIndex -> {More|Save} ──

func (e *AdminEngine) StartQuizDraft(userID int64, sess *Session) (domain.RenderInstruction, bool, error) {
	if !e.IsAdmin(userID) {
		return domain.RenderInstruction{
			Text:    "You do not have access to the admin panel.",
			Buttons: [][]domain.Button{backRow()},
		}, true, nil
	}
	sess.QuizDraft = &QuizDraft{}
	sess.State = domain.StateAdminQuizTitle
	return domain.RenderInstruction{
		Text: "New quiz\n\nEnter the quiz title:",
	}, true, nil
}

// RouteQuizDraft advances the quiz wizard from whichever step it is on.
func (e *AdminEngine) RouteQuizDraft(ctx context.Context, userID int64, sess *Session, ev domain.Event) (domain.RenderInstruction, bool, error) {
	draft := sess.QuizDraft
	if draft == nil {
		sess.Reset()
		return mainMenu(), true, nil
	}

	switch sess.State {
	case domain.StateAdminQuizTitle:
		if ev.Kind != domain.EventMessage {
			return domain.RenderInstruction{}, false, nil
		}
		draft.Title = strings.TrimSpace(ev.Text)
		sess.State = domain.StateAdminQuizQuestion
		return domain.RenderInstruction{
			Text: fmt.Sprintf("Title: %s\n\nNow enter the question text:", draft.Title),
		}, true, nil

	case domain.StateAdminQuizQuestion:
		if ev.Kind != domain.EventMessage {
			return domain.RenderInstruction{}, false, nil
		}
		draft.PendingText = strings.TrimSpace(ev.Text)
		draft.PendingOptions = nil
		sess.State = domain.StateAdminQuizAnswers
		return domain.RenderInstruction{
			Text: fmt.Sprintf("Question: %s\n\nNow enter the answer options, one per line (at least 2, at most 4):", draft.PendingText),
		}, true, nil

	case domain.StateAdminQuizAnswers:
		if ev.Kind != domain.EventMessage {
			return domain.RenderInstruction{}, false, nil
		}
		var lines []string
		for _, line := range strings.Split(ev.Text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) < 2 {
			return domain.RenderInstruction{
				Text: "At least 2 options are needed. Try again:",
			}, true, nil
		}
		if len(lines) > 4 {
			lines = lines[:4]
		}
		draft.PendingOptions = lines

		var listing strings.Builder
		for i, opt := range lines {
			fmt.Fprintf(&listing, "  %d) %s\n", i+1, opt)
		}
		sess.State = domain.StateAdminQuizCorrect
		return domain.RenderInstruction{
			Text: fmt.Sprintf("Options:\n%s\nEnter the number of the correct answer (1-%d):", listing.String(), len(lines)),
		}, true, nil

	case domain.StateAdminQuizCorrect:
		if ev.Kind != domain.EventMessage {
			return domain.RenderInstruction{}, false, nil
		}
		correct, err := strconv.Atoi(strings.TrimSpace(ev.Text))
		if err != nil || correct < 1 || correct > len(draft.PendingOptions) {
			return domain.RenderInstruction{
				Text: "Invalid number. Try again:",
			}, true, nil
		}
		draft.Questions = append(draft.Questions, domain.Question{
			Text:    draft.PendingText,
			Options: draft.PendingOptions,
			Correct: correct - 1,
		})
		draft.PendingText = ""
		draft.PendingOptions = nil

		sess.State = domain.StateAdminQuizMore
		return domain.RenderInstruction{
			Text: fmt.Sprintf("Question added! Questions so far: %d\n\nWhat next?", len(draft.Questions)),
			Buttons: [][]domain.Button{
				domain.Row(domain.Btn("Add another question", "admin_quiz_more")),
				domain.Row(domain.Btn("Save the quiz", "admin_quiz_save")),
			},
		}, true, nil

	case domain.StateAdminQuizMore:
		switch ev.Key() {
		case "admin_quiz_more":
			sess.State = domain.StateAdminQuizQuestion
			return domain.RenderInstruction{
				Text: "Enter the next question text:",
			}, true, nil
		case "admin_quiz_save":
			return e.saveQuizDraft(ctx, userID, sess)
		}
	}
	return domain.RenderInstruction{}, false, nil
}

func (e *AdminEngine) saveQuizDraft(ctx context.Context, userID int64, sess *Session) (domain.RenderInstruction, bool, error) {
	draft := sess.QuizDraft
	if len(draft.Questions) == 0 {
		sess.State = domain.StateAdminMenu
		return domain.RenderInstruction{
			Text:    "No questions to save.",
			Buttons: adminReturnButtons(),
		}, true, nil
	}

	title := draft.Title
	if title == "" {
		title = "Untitled"
	}
	quizID, err := e.gateway.AddQuiz(ctx, domain.Quiz{
		Title:       title,
		Description: fmt.Sprintf("Quiz (%d questions)", len(draft.Questions)),
		Questions:   draft.Questions,
		CreatedBy:   userID,
	})
	if err != nil {
		return domain.RenderInstruction{}, true, err
	}
	e.catalog.Invalidate()

	count := len(draft.Questions)
	sess.QuizDraft = nil
	sess.State = domain.StateAdminMenu
	return domain.RenderInstruction{
		Text:    fmt.Sprintf("Quiz saved!\n\nTitle: %s\nQuestions: %d\nID: %d", title, count, quizID),
		Buttons: adminReturnButtons(),
	}, true, nil
}

// ── Quest wizard: Title -> StepText -> StepAnswer -> {More|Save} ──

func (e *AdminEngine) StartQuestDraft(userID int64, sess *Session) (domain.RenderInstruction, bool, error) {
	if !e.IsAdmin(userID) {
		return domain.RenderInstruction{
			Text:    "You do not have access to the admin panel.",
			Buttons: [][]domain.Button{backRow()},
		}, true, nil
	}
	sess.QuestDraft = &QuestDraft{}
	sess.State = domain.StateAdminQuestTitle
	return domain.RenderInstruction{
		Text: "New quest\n\nEnter the quest title:",
	}, true, nil
}

// RouteQuestDraft advances the quest wizard from whichever step it is on.
func (e *AdminEngine) RouteQuestDraft(ctx context.Context, userID int64, sess *Session, ev domain.Event) (domain.RenderInstruction, bool, error) {
	draft := sess.QuestDraft
	if draft == nil {
		sess.Reset()
		return mainMenu(), true, nil
	}

	switch sess.State {
	case domain.StateAdminQuestTitle:
		if ev.Kind != domain.EventMessage {
			return domain.RenderInstruction{}, false, nil
		}
		draft.Title = strings.TrimSpace(ev.Text)
		sess.State = domain.StateAdminQuestStepText
		return domain.RenderInstruction{
			Text: fmt.Sprintf("Title: %s\n\nNow enter the first step text (description plus question):", draft.Title),
		}, true, nil

	case domain.StateAdminQuestStepText:
		if ev.Kind != domain.EventMessage {
			return domain.RenderInstruction{}, false, nil
		}
		draft.PendingText = strings.TrimSpace(ev.Text)
		sess.State = domain.StateAdminQuestStepAnswer
		return domain.RenderInstruction{
			Text: "Now enter the expected answer for this step (a word or a phrase):",
		}, true, nil

	case domain.StateAdminQuestStepAnswer:
		if ev.Kind != domain.EventMessage {
			return domain.RenderInstruction{}, false, nil
		}
		draft.Steps = append(draft.Steps, domain.QuestStep{
			Text:   draft.PendingText,
			Answer: strings.TrimSpace(ev.Text),
		})
		draft.PendingText = ""

		sess.State = domain.StateAdminQuestMore
		return domain.RenderInstruction{
			Text: fmt.Sprintf("Step added! Steps so far: %d\n\nWhat next?", len(draft.Steps)),
			Buttons: [][]domain.Button{
				domain.Row(domain.Btn("Add another step", "admin_quest_more")),
				domain.Row(domain.Btn("Save the quest", "admin_quest_save")),
			},
		}, true, nil

	case domain.StateAdminQuestMore:
		switch ev.Key() {
		case "admin_quest_more":
			sess.State = domain.StateAdminQuestStepText
			return domain.RenderInstruction{
				Text: "Enter the next step text:",
			}, true, nil
		case "admin_quest_save":
			return e.saveQuestDraft(ctx, userID, sess)
		}
	}
	return domain.RenderInstruction{}, false, nil
}

func (e *AdminEngine) saveQuestDraft(ctx context.Context, userID int64, sess *Session) (domain.RenderInstruction, bool, error) {
	draft := sess.QuestDraft
	if len(draft.Steps) == 0 {
		sess.State = domain.StateAdminMenu
		return domain.RenderInstruction{
			Text:    "No steps to save.",
			Buttons: adminReturnButtons(),
		}, true, nil
	}

	title := draft.Title
	if title == "" {
		title = "Untitled"
	}
	reward := len(draft.Steps) * 5
	questID, err := e.gateway.AddQuest(ctx, domain.Quest{
		Title:        title,
		Description:  fmt.Sprintf("Quest (%d steps)", len(draft.Steps)),
		Steps:        draft.Steps,
		RewardPoints: reward,
		CreatedBy:    userID,
	})
	if err != nil {
		return domain.RenderInstruction{}, true, err
	}
	e.catalog.Invalidate()

	count := len(draft.Steps)
	sess.QuestDraft = nil
	sess.State = domain.StateAdminMenu
	return domain.RenderInstruction{
		Text:    fmt.Sprintf("Quest saved!\n\nTitle: %s\nSteps: %d\nReward: %d points\nID: %d", title, count, reward, questID),
		Buttons: adminReturnButtons(),
	}, true, nil
}

func adminReturnButtons() [][]domain.Button {
	return [][]domain.Button{
		domain.Row(domain.Btn("Admin panel", "admin_menu")),
		domain.Row(domain.Btn("Main menu", "back_to_menu")),
	}
}
