package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"edubot/internal/domain"
)

// QuestEngine runs quests. Step content is cached in the session, but the
// position is durable per (user, quest) in the gateway: Begin always
// re-fetches the definition and re-derives the cached payload from the
// stored pointer, so an in-progress quest survives a process restart.
type QuestEngine struct {
	catalog Catalog
	gateway Gateway
	ledger  *Ledger
	log     *zap.Logger
}

func NewQuestEngine(catalog Catalog, gateway Gateway, ledger *Ledger, log *zap.Logger) *QuestEngine {
	return &QuestEngine{catalog: catalog, gateway: gateway, ledger: ledger, log: log}
}

// Begin opens (or resumes) a quest at the durably stored step.
func (e *QuestEngine) Begin(ctx context.Context, userID int64, sess *Session, arg string) (domain.RenderInstruction, bool, error) {
	questID, err := parseID(arg)
	if err != nil {
		return domain.RenderInstruction{}, false, nil
	}

	quest, err := e.catalog.GetQuest(ctx, questID)
	if errors.Is(err, domain.ErrQuestNotFound) {
		sess.Reset()
		return domain.RenderInstruction{
			Text:    "Quest not found.",
			Buttons: [][]domain.Button{backRow()},
		}, true, nil
	}
	if err != nil {
		return domain.RenderInstruction{}, true, err
	}
	// A quest without steps has nothing to play; bail out before opening
	// a progress row.
	if len(quest.Steps) == 0 {
		sess.Reset()
		return domain.RenderInstruction{
			Text:    "This quest has no steps yet.",
			Buttons: [][]domain.Button{backRow()},
		}, true, nil
	}

	progress, found, err := e.gateway.GetQuestProgress(ctx, userID, questID)
	if err != nil {
		return domain.RenderInstruction{}, true, err
	}
	currentStep := 0
	if !found {
		if err := e.gateway.StartQuest(ctx, userID, questID); err != nil {
			return domain.RenderInstruction{}, true, err
		}
	} else {
		currentStep = progress.CurrentStep
	}

	sess.Quest = &QuestRun{
		QuestID:      quest.ID,
		Title:        quest.Title,
		Steps:        quest.Steps,
		CurrentStep:  currentStep,
		RewardPoints: quest.RewardPoints,
	}
	sess.State = domain.StateQuestPlay
	return e.showStep(sess), true, nil
}

// Hint returns the current step's hint without changing any state.
func (e *QuestEngine) Hint(sess *Session) (domain.RenderInstruction, bool, error) {
	run := sess.Quest
	if run == nil {
		sess.Reset()
		return mainMenu(), true, nil
	}
	hint := run.Steps[run.CurrentStep].Hint
	if hint == "" {
		hint = "No hint for this step."
	}
	return domain.RenderInstruction{
		Text: "Hint: " + hint,
		Buttons: [][]domain.Button{
			domain.Row(domain.Btn("Leave quest", "quest_list")),
		},
	}, true, nil
}

// Answer checks a free-text answer against the current step. Matching is
// case-insensitive on trimmed text.
func (e *QuestEngine) Answer(ctx context.Context, userID int64, sess *Session, text string) (domain.RenderInstruction, bool, error) {
	run := sess.Quest
	if run == nil {
		sess.Reset()
		return mainMenu(), true, nil
	}

	given := strings.ToLower(strings.TrimSpace(text))
	expected := strings.ToLower(strings.TrimSpace(run.Steps[run.CurrentStep].Answer))
	if given != expected {
		return domain.RenderInstruction{
			Text: "Wrong! Try again.\nIf you are stuck, press Hint.",
			Buttons: [][]domain.Button{
				domain.Row(domain.Btn("Hint", "quest_hint")),
				domain.Row(domain.Btn("Leave quest", "quest_list")),
			},
		}, true, nil
	}

	run.CurrentStep++
	if run.CurrentStep >= len(run.Steps) {
		return e.finalize(ctx, userID, sess)
	}

	if err := e.gateway.AdvanceQuest(ctx, userID, run.QuestID, run.CurrentStep); err != nil {
		return domain.RenderInstruction{}, true, err
	}
	render := e.showStep(sess)
	render.Text = "Correct! On to the next step.\n\n" + render.Text
	return render, true, nil
}

func (e *QuestEngine) showStep(sess *Session) domain.RenderInstruction {
	run := sess.Quest
	step := run.Steps[run.CurrentStep]
	total := len(run.Steps)

	text := fmt.Sprintf("%s\nStep %d/%d %s\n\n%s",
		run.Title, run.CurrentStep+1, total,
		progressBar(run.CurrentStep+1, total, total), step.Text)
	return domain.RenderInstruction{
		Text: text,
		Buttons: [][]domain.Button{
			domain.Row(domain.Btn("Hint", "quest_hint")),
			domain.Row(domain.Btn("Leave quest", "quest_list")),
		},
	}
}

func (e *QuestEngine) finalize(ctx context.Context, userID int64, sess *Session) (domain.RenderInstruction, bool, error) {
	run := sess.Quest

	if err := e.ledger.CompleteQuest(ctx, userID, run.QuestID, run.CurrentStep, run.RewardPoints); err != nil {
		return domain.RenderInstruction{}, true, err
	}

	var earned []string
	granted, err := e.ledger.GrantAchievement(ctx, userID, domain.BadgeFirstQuest)
	if err != nil {
		return domain.RenderInstruction{}, true, err
	}
	if granted {
		earned = append(earned, domain.BadgeName(domain.BadgeFirstQuest))
	}

	text := fmt.Sprintf("Quest %q completed!\n\nAll steps done.\nReward: +%d points",
		run.Title, run.RewardPoints)
	if len(earned) > 0 {
		text += "\n\nNew achievements:"
		for _, name := range earned {
			text += "\n  " + name
		}
	}

	e.log.Info("quest completed",
		zap.Int64("user", userID),
		zap.Int64("quest", run.QuestID),
		zap.Int("reward", run.RewardPoints))

	sess.Quest = nil
	sess.State = domain.StateMain
	return domain.RenderInstruction{
		Text: text,
		Buttons: [][]domain.Button{
			domain.Row(domain.Btn("More quests", "quest_list")),
			domain.Row(domain.Btn("Main menu", "back_to_menu")),
		},
	}, true, nil
}
