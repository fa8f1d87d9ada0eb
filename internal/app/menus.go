package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"edubot/internal/domain"
)

const welcomeText = `Hi! I am the construction-industry learning bot.

Here is what you can do:
  - Education: how buildings go up, the trades, the technology
  - Quizzes: test your knowledge and earn points
  - Quests: step-by-step challenges with rewards
  - Polls: share your opinion
  - Career test: find the profession that fits you

Pick an action:`

func mainMenu() domain.RenderInstruction {
	return domain.RenderInstruction{
		Text: welcomeText,
		Buttons: [][]domain.Button{
			domain.Row(domain.Btn("Learn about construction", "education")),
			domain.Row(domain.Btn("Take a quiz", "quiz_list")),
			domain.Row(domain.Btn("Go on a quest", "quest_list")),
			domain.Row(domain.Btn("Polls", "poll_list")),
			domain.Row(domain.Btn("Career test", "career_test")),
			domain.Row(domain.Btn("Fact of the day", "fact_of_day"), domain.Btn("Leaderboard", "leaderboard")),
			domain.Row(domain.Btn("My profile", "profile")),
		},
	}
}

func helpScreen() domain.RenderInstruction {
	return domain.RenderInstruction{
		Text: `Commands:
/start - main menu
/help - this help
/profile - my profile
/quiz - quiz list
/quest - quest list
/fact - fact of the day
/career - career test`,
		Buttons: [][]domain.Button{
			domain.Row(domain.Btn("Main menu", "back_to_menu")),
		},
	}
}

func transientFailure() domain.RenderInstruction {
	return domain.RenderInstruction{
		Text: "Something went wrong on our side, please try again.",
		Buttons: [][]domain.Button{
			domain.Row(domain.Btn("Main menu", "back_to_menu")),
		},
	}
}

func backRow() []domain.Button {
	return domain.Row(domain.Btn("Back", "back_to_menu"))
}

// progressBar renders current/total as filled and empty segments of the
// given width.
func progressBar(current, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}
	filled := current * width / total
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// ── Education ──

func (d *Dispatcher) educationTopics(sess *Session) (domain.RenderInstruction, bool, error) {
	topics := d.catalog.ListEducationTopics()
	buttons := make([][]domain.Button, 0, len(topics)+1)
	for _, t := range topics {
		buttons = append(buttons, domain.Row(
			domain.Btn(t.Icon+" "+t.Title, "edu_topic:"+t.Key),
		))
	}
	buttons = append(buttons, backRow())

	sess.State = domain.StateEducationTopics
	return domain.RenderInstruction{
		Text:    "Learning materials\n\nPick a topic:",
		Buttons: buttons,
	}, true, nil
}

func (d *Dispatcher) routeEducation(sess *Session, ev domain.Event) (domain.RenderInstruction, bool, error) {
	switch ev.Key() {
	case "education":
		return d.educationTopics(sess)
	case "edu_topic":
		return d.topicSections(sess, ev.Arg())
	case "edu_section":
		if sess.State != domain.StateEducationSections {
			return domain.RenderInstruction{}, false, nil
		}
		args := ev.Args()
		if len(args) != 3 {
			return domain.RenderInstruction{}, false, nil
		}
		return d.sectionDetail(sess, args[1], args[2])
	}
	return domain.RenderInstruction{}, false, nil
}

func (d *Dispatcher) topicSections(sess *Session, topicKey string) (domain.RenderInstruction, bool, error) {
	topic, ok := d.findTopic(topicKey)
	if !ok {
		sess.Reset()
		return domain.RenderInstruction{Text: "Topic not found.", Buttons: [][]domain.Button{backRow()}}, true, nil
	}

	buttons := make([][]domain.Button, 0, len(topic.Sections)+1)
	for _, sec := range topic.Sections {
		buttons = append(buttons, domain.Row(
			domain.Btn(sec.Title, "edu_section:"+topic.Key+":"+sec.Key),
		))
	}
	buttons = append(buttons, domain.Row(domain.Btn("All topics", "education")))

	sess.State = domain.StateEducationSections
	sess.Topic = topicKey
	return domain.RenderInstruction{
		Text:    topic.Icon + " " + topic.Title + "\n\nPick a section:",
		Buttons: buttons,
	}, true, nil
}

func (d *Dispatcher) sectionDetail(sess *Session, topicKey, sectionKey string) (domain.RenderInstruction, bool, error) {
	topic, ok := d.findTopic(topicKey)
	if !ok {
		sess.Reset()
		return mainMenu(), true, nil
	}
	idx := -1
	for i, sec := range topic.Sections {
		if sec.Key == sectionKey {
			idx = i
			break
		}
	}
	if idx < 0 {
		sess.Reset()
		return mainMenu(), true, nil
	}

	var nav []domain.Button
	if idx > 0 {
		prev := topic.Sections[idx-1]
		nav = append(nav, domain.Btn("Back", "edu_section:"+topic.Key+":"+prev.Key))
	}
	if idx < len(topic.Sections)-1 {
		next := topic.Sections[idx+1]
		nav = append(nav, domain.Btn("Next", "edu_section:"+topic.Key+":"+next.Key))
	}

	var buttons [][]domain.Button
	if len(nav) > 0 {
		buttons = append(buttons, nav)
	}
	buttons = append(buttons,
		domain.Row(domain.Btn("Sections of "+topic.Title, "edu_topic:"+topic.Key)),
		backRow(),
	)

	sess.State = domain.StateEducationSections
	text := fmt.Sprintf("%s\n\n(%d/%d)", topic.Sections[idx].Text, idx+1, len(topic.Sections))
	return domain.RenderInstruction{Text: text, Buttons: buttons}, true, nil
}

func (d *Dispatcher) findTopic(key string) (domain.EducationTopic, bool) {
	for _, t := range d.catalog.ListEducationTopics() {
		if t.Key == key {
			return t, true
		}
	}
	return domain.EducationTopic{}, false
}

// ── Quiz / quest selection ──

func (d *Dispatcher) quizList(ctx context.Context, sess *Session) (domain.RenderInstruction, bool, error) {
	quizzes, err := d.catalog.ListQuizzes(ctx)
	if err != nil {
		return domain.RenderInstruction{}, true, err
	}
	sess.State = domain.StateQuizSelect
	if len(quizzes) == 0 {
		return domain.RenderInstruction{
			Text:    "Quizzes\n\nNo quizzes available yet.",
			Buttons: [][]domain.Button{backRow()},
		}, true, nil
	}

	buttons := make([][]domain.Button, 0, len(quizzes)+1)
	for _, q := range quizzes {
		label := fmt.Sprintf("%s (%d questions)", q.Title, len(q.Questions))
		buttons = append(buttons, domain.Row(domain.Btn(label, fmt.Sprintf("quiz_start:%d", q.ID))))
	}
	buttons = append(buttons, backRow())

	return domain.RenderInstruction{
		Text:    "Quizzes\n\nPick a quiz and test your knowledge.\nCorrect answers earn points!",
		Buttons: buttons,
	}, true, nil
}

func (d *Dispatcher) questList(ctx context.Context, sess *Session) (domain.RenderInstruction, bool, error) {
	quests, err := d.catalog.ListQuests(ctx)
	if err != nil {
		return domain.RenderInstruction{}, true, err
	}
	sess.State = domain.StateQuestSelect
	sess.Quest = nil
	if len(quests) == 0 {
		return domain.RenderInstruction{
			Text:    "Quests\n\nNo quests available yet.",
			Buttons: [][]domain.Button{backRow()},
		}, true, nil
	}

	buttons := make([][]domain.Button, 0, len(quests)+1)
	for _, q := range quests {
		label := fmt.Sprintf("%s (%d steps, +%d points)", q.Title, len(q.Steps), q.RewardPoints)
		buttons = append(buttons, domain.Row(domain.Btn(label, fmt.Sprintf("quest_begin:%d", q.ID))))
	}
	buttons = append(buttons, backRow())

	return domain.RenderInstruction{
		Text:    "Quests\n\nPick a quest and work through its steps.\nAnswer with a text message to move forward.\nStuck? Use the hint!",
		Buttons: buttons,
	}, true, nil
}

// ── Polls ──

func (d *Dispatcher) pollList(sess *Session) (domain.RenderInstruction, bool, error) {
	polls := d.catalog.ListPolls()
	sess.State = domain.StatePollSelect

	buttons := make([][]domain.Button, 0, len(polls)+1)
	for i, p := range polls {
		label := p.Question
		if len(label) > 50 {
			label = label[:50] + "..."
		}
		buttons = append(buttons, domain.Row(domain.Btn(label, fmt.Sprintf("poll_send:%d", i))))
	}
	buttons = append(buttons, backRow())

	return domain.RenderInstruction{
		Text:    "Polls\n\nPick a poll and share your opinion.\nEach answer earns +2 points.",
		Buttons: buttons,
	}, true, nil
}

func (d *Dispatcher) pollSend(ctx context.Context, userID int64, sess *Session, arg string) (domain.RenderInstruction, bool, error) {
	polls := d.catalog.ListPolls()
	idx, err := parseIndex(arg)
	if err != nil || idx >= len(polls) {
		return domain.RenderInstruction{}, false, nil
	}
	poll := polls[idx]

	if err := d.ledger.RecordPollAnswer(ctx, userID, poll.ID, 2); err != nil {
		return domain.RenderInstruction{}, true, err
	}

	sess.State = domain.StateMain
	return domain.RenderInstruction{
		Text: "Thanks for taking part in the poll!",
		Buttons: [][]domain.Button{
			domain.Row(domain.Btn("More polls", "poll_list")),
			domain.Row(domain.Btn("Main menu", "back_to_menu")),
		},
		Poll: &poll,
	}, true, nil
}

// ── Profile / leaderboard / fact of the day ──

func (d *Dispatcher) profile(ctx context.Context, userID int64, sess *Session) (domain.RenderInstruction, bool, error) {
	user, err := d.gateway.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		sess.State = domain.StateMain
		return domain.RenderInstruction{
			Text:    "Profile not found. Send /start to register.",
			Buttons: [][]domain.Button{backRow()},
		}, true, nil
	}
	if err != nil {
		return domain.RenderInstruction{}, true, err
	}

	achievements, err := d.gateway.GetUserAchievements(ctx, userID)
	if err != nil {
		return domain.RenderInstruction{}, true, err
	}
	results, err := d.gateway.GetUserQuizResults(ctx, userID)
	if err != nil {
		return domain.RenderInstruction{}, true, err
	}

	badges := "No achievements yet"
	if len(achievements) > 0 {
		names := make([]string, len(achievements))
		for i, a := range achievements {
			names[i] = a.BadgeName
		}
		badges = strings.Join(names, "  ")
	}

	var recent strings.Builder
	if len(results) == 0 {
		recent.WriteString("  No quizzes taken yet\n")
	} else {
		for i, r := range results {
			if i == 3 {
				break
			}
			fmt.Fprintf(&recent, "  - %s: %d/%d\n", r.QuizTitle, r.Score, r.Total)
		}
	}

	sess.State = domain.StateProfile
	text := fmt.Sprintf(`Profile: %s

Rank: %s
Points: %d
Quizzes completed: %d
Quests completed: %d
Polls answered: %d

Achievements:
%s

Recent quizzes:
%s`,
		user.Name, rankFor(user.Score), user.Score,
		user.QuizzesCompleted, user.QuestsCompleted, user.PollsAnswered,
		badges, recent.String())

	return domain.RenderInstruction{
		Text: text,
		Buttons: [][]domain.Button{
			domain.Row(domain.Btn("Leaderboard", "leaderboard")),
			domain.Row(domain.Btn("Main menu", "back_to_menu")),
		},
	}, true, nil
}

func rankFor(score int) string {
	switch {
	case score >= 100:
		return "Master Builder"
	case score >= 50:
		return "Experienced Builder"
	case score >= 20:
		return "Apprentice Builder"
	}
	return "Newcomer"
}

func (d *Dispatcher) leaderboard(ctx context.Context, sess *Session) (domain.RenderInstruction, bool, error) {
	leaders, err := d.ledger.Leaderboard(ctx, 10)
	if err != nil {
		return domain.RenderInstruction{}, true, err
	}

	var text string
	if len(leaders) == 0 {
		text = "Leaderboard\n\nNobody has scored yet."
	} else {
		var b strings.Builder
		b.WriteString("Top players\n\n")
		medals := []string{"1st", "2nd", "3rd"}
		for i, leader := range leaders {
			mark := fmt.Sprintf("%d.", i+1)
			if i < len(medals) {
				mark = medals[i]
			}
			fmt.Fprintf(&b, "%s %s - %d points\n", mark, leader.Name, leader.Score)
		}
		text = b.String()
	}

	sess.State = domain.StateLeaderboard
	return domain.RenderInstruction{
		Text: text,
		Buttons: [][]domain.Button{
			domain.Row(domain.Btn("My profile", "profile")),
			domain.Row(domain.Btn("Main menu", "back_to_menu")),
		},
	}, true, nil
}

func (d *Dispatcher) factOfDay(sess *Session) (domain.RenderInstruction, bool, error) {
	facts := d.catalog.ListDailyFacts()
	text := "Fact of the day\n\nNo facts loaded."
	if len(facts) > 0 {
		text = "Fact of the day\n\n" + facts[rand.Intn(len(facts))] + "\n\nPress again for another one!"
	}

	sess.State = domain.StateFactOfDay
	return domain.RenderInstruction{
		Text: text,
		Buttons: [][]domain.Button{
			domain.Row(domain.Btn("Another fact", "fact_of_day")),
			domain.Row(domain.Btn("Main menu", "back_to_menu")),
		},
	}, true, nil
}
