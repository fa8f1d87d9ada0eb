package app

import (
	"context"
	"fmt"

	"edubot/internal/domain"
)

// careerDefaultTag is the fallback profession when no tags were collected.
const careerDefaultTag = "engineer"

// careerPoints is credited once per finished test.
const careerPoints = 5

// CareerEngine runs the career-aptitude test: Intro -> Play -> Main. Each
// answer contributes a set of profession tags; the most frequent tag wins.
type CareerEngine struct {
	catalog Catalog
	ledger  *Ledger
}

func NewCareerEngine(catalog Catalog, ledger *Ledger) *CareerEngine {
	return &CareerEngine{catalog: catalog, ledger: ledger}
}

// Start resets the run and renders the intro screen.
func (e *CareerEngine) Start(sess *Session) (domain.RenderInstruction, bool, error) {
	sess.Career = &CareerRun{Current: 0, Tags: nil}
	sess.State = domain.StateCareerIntro

	total := len(e.catalog.ListCareerQuestions())
	return domain.RenderInstruction{
		Text: fmt.Sprintf("Career test: which profession fits you?\n\nAnswer %d questions and we will suggest a construction profession for you.\n\nPress Start to begin.", total),
		Buttons: [][]domain.Button{
			domain.Row(domain.Btn("Start!", "career_next")),
			backRow(),
		},
	}, true, nil
}

// Next renders the current question, or the result once all are answered.
func (e *CareerEngine) Next(sess *Session) (domain.RenderInstruction, bool, error) {
	run := sess.Career
	if run == nil {
		sess.Reset()
		return mainMenu(), true, nil
	}

	questions := e.catalog.ListCareerQuestions()
	if run.Current >= len(questions) {
		// Reached only via redundant career_next presses; Answer already
		// finalized, treat as ignore.
		return domain.RenderInstruction{}, false, nil
	}

	q := questions[run.Current]
	buttons := make([][]domain.Button, 0, len(q.Answers))
	for i, ans := range q.Answers {
		buttons = append(buttons, domain.Row(domain.Btn(ans.Text, fmt.Sprintf("career_ans:%d", i))))
	}

	sess.State = domain.StateCareerPlay
	return domain.RenderInstruction{
		Text:    fmt.Sprintf("Career test\nQuestion %d/%d\n\n%s", run.Current+1, len(questions), q.Text),
		Buttons: buttons,
	}, true, nil
}

// Answer collects the chosen answer's tags and advances.
func (e *CareerEngine) Answer(ctx context.Context, userID int64, sess *Session, arg string) (domain.RenderInstruction, bool, error) {
	run := sess.Career
	if run == nil {
		sess.Reset()
		return mainMenu(), true, nil
	}
	questions := e.catalog.ListCareerQuestions()
	if run.Current >= len(questions) {
		return e.finalize(ctx, userID, sess)
	}
	choice, err := parseIndex(arg)
	if err != nil || choice >= len(questions[run.Current].Answers) {
		return domain.RenderInstruction{}, false, nil
	}

	run.Tags = append(run.Tags, questions[run.Current].Answers[choice].Tags...)
	run.Current++

	if run.Current >= len(questions) {
		return e.finalize(ctx, userID, sess)
	}
	return e.Next(sess)
}

func (e *CareerEngine) finalize(ctx context.Context, userID int64, sess *Session) (domain.RenderInstruction, bool, error) {
	run := sess.Career
	ranked := rankTags(run.Tags)

	topTag := careerDefaultTag
	if len(ranked) > 0 {
		topTag = ranked[0]
	}
	result, ok := e.catalog.CareerProfile(topTag)
	if !ok {
		result, _ = e.catalog.CareerProfile(careerDefaultTag)
	}

	text := fmt.Sprintf("Career test result\n\nThe profession for you:\n\n%s\n\n%s", result.Title, result.Description)

	// Up to two runner-up suggestions, same ordering as the winner.
	var alternatives []string
	if len(ranked) > 1 {
		for _, tag := range ranked[1:] {
			if alt, ok := e.catalog.CareerProfile(tag); ok {
				alternatives = append(alternatives, alt.Title)
			}
			if len(alternatives) == 2 {
				break
			}
		}
	}
	if len(alternatives) > 0 {
		text += "\n\nAlso suited for:"
		for _, title := range alternatives {
			text += "\n  - " + title
		}
	}
	text += fmt.Sprintf("\n\n+%d points for finishing the test!", careerPoints)

	if err := e.ledger.AddScore(ctx, userID, careerPoints); err != nil {
		return domain.RenderInstruction{}, true, err
	}
	if _, err := e.ledger.GrantAchievement(ctx, userID, domain.BadgeCareerFound); err != nil {
		return domain.RenderInstruction{}, true, err
	}

	sess.Career = nil
	sess.State = domain.StateMain
	return domain.RenderInstruction{
		Text: text,
		Buttons: [][]domain.Button{
			domain.Row(domain.Btn("Take it again", "career_test")),
			domain.Row(domain.Btn("Main menu", "back_to_menu")),
		},
	}, true, nil
}

// rankTags orders distinct tags by frequency, breaking ties by first
// occurrence in the collected order, so equal inputs always rank the same.
func rankTags(tags []string) []string {
	counts := make(map[string]int, len(tags))
	var order []string
	for _, tag := range tags {
		if counts[tag] == 0 {
			order = append(order, tag)
		}
		counts[tag]++
	}

	ranked := append([]string(nil), order...)
	// Insertion sort keeps the first-seen order stable among equal counts.
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && counts[ranked[j]] > counts[ranked[j-1]]; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	return ranked
}
