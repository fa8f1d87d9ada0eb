package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"edubot/internal/domain"
)

// quizPointsPerAnswer is the score credited per correct answer at finalize.
const quizPointsPerAnswer = 5

// QuizEngine runs the quiz interaction: Select -> Play (one feedback screen
// per answer) -> Results -> Main. The whole question list is cached in the
// session for the run; scoring is settled once, at finalize.
type QuizEngine struct {
	catalog Catalog
	ledger  *Ledger
	log     *zap.Logger
}

func NewQuizEngine(catalog Catalog, ledger *Ledger, log *zap.Logger) *QuizEngine {
	return &QuizEngine{catalog: catalog, ledger: ledger, log: log}
}

// Start loads the quiz and renders its first question. An unknown quiz id
// renders a not-found notice and returns to the main menu with no scoring.
func (e *QuizEngine) Start(ctx context.Context, userID int64, sess *Session, arg string) (domain.RenderInstruction, bool, error) {
	quizID, err := parseID(arg)
	if err != nil {
		return domain.RenderInstruction{}, false, nil
	}

	quiz, err := e.catalog.GetQuiz(ctx, quizID)
	if errors.Is(err, domain.ErrQuizNotFound) {
		sess.Reset()
		return domain.RenderInstruction{
			Text:    "Quiz not found.",
			Buttons: [][]domain.Button{backRow()},
		}, true, nil
	}
	if err != nil {
		return domain.RenderInstruction{}, true, err
	}

	sess.Quiz = &QuizRun{
		QuizID:    quiz.ID,
		Title:     quiz.Title,
		Questions: quiz.Questions,
		Current:   0,
		Score:     0,
		Total:     len(quiz.Questions),
	}
	sess.State = domain.StateQuizPlay

	if sess.Quiz.Total == 0 {
		return e.finalize(ctx, userID, sess, "") // nothing to ask, settle immediately
	}
	return e.showQuestion(sess), true, nil
}

// Answer grades the pressed option against the current question and renders
// feedback. The final answer settles the run, with its feedback carried
// onto the results screen.
func (e *QuizEngine) Answer(ctx context.Context, userID int64, sess *Session, arg string) (domain.RenderInstruction, bool, error) {
	run := sess.Quiz
	if run == nil {
		sess.Reset()
		return mainMenu(), true, nil
	}
	answerIdx, err := parseIndex(arg)
	if err != nil {
		return domain.RenderInstruction{}, false, nil
	}
	q := run.Questions[run.Current]
	if answerIdx >= len(q.Options) {
		return domain.RenderInstruction{}, false, nil
	}

	var feedback string
	if answerIdx == q.Correct {
		run.Score++
		feedback = "Correct!"
	} else {
		feedback = fmt.Sprintf("Wrong!\nThe right answer is: %s", q.Options[q.Correct])
	}
	if q.Explanation != "" {
		feedback += "\n\n" + q.Explanation
	}

	run.Current++
	if run.Current < run.Total {
		return domain.RenderInstruction{
			Text: feedback,
			Buttons: [][]domain.Button{
				domain.Row(domain.Btn("Next question", "quiz_next")),
			},
		}, true, nil
	}
	return e.finalize(ctx, userID, sess, feedback)
}

// Next shows the upcoming question after a feedback screen.
func (e *QuizEngine) Next(sess *Session) (domain.RenderInstruction, bool, error) {
	if sess.Quiz == nil {
		sess.Reset()
		return mainMenu(), true, nil
	}
	return e.showQuestion(sess), true, nil
}

func (e *QuizEngine) showQuestion(sess *Session) domain.RenderInstruction {
	run := sess.Quiz
	q := run.Questions[run.Current]

	labels := []string{"A", "B", "C", "D"}
	buttons := make([][]domain.Button, 0, len(q.Options))
	for i, option := range q.Options {
		label := fmt.Sprintf("%d", i+1)
		if i < len(labels) {
			label = labels[i]
		}
		buttons = append(buttons, domain.Row(
			domain.Btn(fmt.Sprintf("%s) %s", label, option), fmt.Sprintf("quiz_answer:%d", i)),
		))
	}

	text := fmt.Sprintf("%s\n\nQuestion %d/%d\n%s\n\n%s",
		run.Title, run.Current+1, run.Total,
		progressBar(run.Current, run.Total, 10), q.Text)
	return domain.RenderInstruction{Text: text, Buttons: buttons}
}

func (e *QuizEngine) finalize(ctx context.Context, userID int64, sess *Session, lastFeedback string) (domain.RenderInstruction, bool, error) {
	run := sess.Quiz
	score, total := run.Score, run.Total
	percentage := 0
	if total > 0 {
		percentage = score * 100 / total
	}
	points := score * quizPointsPerAnswer

	if err := e.ledger.CompleteQuiz(ctx, domain.QuizResult{
		UserID:    userID,
		QuizID:    run.QuizID,
		QuizTitle: run.Title,
		Score:     score,
		Total:     total,
	}, points); err != nil {
		return domain.RenderInstruction{}, true, err
	}

	var earned []string
	granted, err := e.ledger.GrantAchievement(ctx, userID, domain.BadgeFirstQuiz)
	if err != nil {
		return domain.RenderInstruction{}, true, err
	}
	if granted {
		earned = append(earned, domain.BadgeName(domain.BadgeFirstQuiz))
	}
	if score == total && total > 0 {
		granted, err := e.ledger.GrantAchievement(ctx, userID, domain.BadgePerfectScore)
		if err != nil {
			return domain.RenderInstruction{}, true, err
		}
		if granted {
			earned = append(earned, domain.BadgeName(domain.BadgePerfectScore))
		}
	}

	text := fmt.Sprintf("Results: %s\n\n%s\n\nCorrect answers: %d/%d (%d%%)\nPoints: +%d",
		run.Title, gradeComment(percentage), score, total, percentage, points)
	if lastFeedback != "" {
		text = lastFeedback + "\n\n" + text
	}
	if len(earned) > 0 {
		text += "\n\nNew achievements:"
		for _, name := range earned {
			text += "\n  " + name
		}
	}

	buttons := [][]domain.Button{
		domain.Row(domain.Btn("Play again", fmt.Sprintf("quiz_start:%d", run.QuizID))),
		domain.Row(domain.Btn("All quizzes", "quiz_list")),
		domain.Row(domain.Btn("Main menu", "back_to_menu")),
	}

	e.log.Info("quiz completed",
		zap.Int64("user", userID),
		zap.Int64("quiz", run.QuizID),
		zap.Int("score", score),
		zap.Int("total", total))

	sess.Quiz = nil
	sess.State = domain.StateMain
	return domain.RenderInstruction{Text: text, Buttons: buttons}, true, nil
}

func gradeComment(percentage int) string {
	switch {
	case percentage >= 80:
		return "Excellent result!"
	case percentage >= 60:
		return "Good result!"
	case percentage >= 40:
		return "Not bad, but you can do better!"
	}
	return "Give it another try!"
}
