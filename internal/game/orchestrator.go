package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/aadityarajkumawat/telebot/internal/models"
	"github.com/aadityarajkumawat/telebot/internal/quiz"
	"github.com/aadityarajkumawat/telebot/internal/store"
)

// Messenger is the slice of the chat transport the orchestrator needs:
// plain notices, the join prompt and question broadcasts.
type Messenger interface {
	SendText(chatID int64, text string) error
	SendJoinPrompt(chatID int64) error
	SendQuestion(chatID int64, round int, q models.Question) error
}

// Ledger is the response store the round loop evaluates against.
type Ledger interface {
	Upsert(ctx context.Context, questionID uint, day time.Time, userID int64, answer string) error
	Get(ctx context.Context, questionID uint, day time.Time, userID int64) (*models.Response, error)
	CountByAnswer(ctx context.Context, questionID uint, day time.Time) (map[string]int, error)
}

// Source delivers the day's question sequence; empty means no game today.
type Source interface {
	FetchForDay(ctx context.Context, day time.Time) ([]models.Question, error)
}

// Publisher receives live game events for the operator dashboard.
type Publisher interface {
	Publish(eventType string, data interface{})
}

// State is the transient single-owner state of the running session. The
// orchestrator is the only writer; inbound handlers read Started and
// Current under the orchestrator's lock.
type State struct {
	Started   bool
	Current   int
	Roster    map[int64]struct{}
	Questions []models.Question
}

type JoinResult int

const (
	JoinOK JoinResult = iota
	JoinAlready
	JoinGameStarted
)

type AnswerResult int

const (
	AnswerAccepted AnswerResult = iota
	AnswerStale
	AnswerNoGame
)

type Orchestrator struct {
	users  *store.UserStore
	ledger Ledger
	source Source
	msg    Messenger
	rule   Rule
	events Publisher

	questionGap time.Duration
	gracePeriod time.Duration
	clock       func() time.Time

	mu      sync.Mutex
	state   *State
	running bool
}

func NewOrchestrator(
	users *store.UserStore,
	ledger Ledger,
	source Source,
	msg Messenger,
	rule Rule,
	events Publisher,
	questionGap, gracePeriod time.Duration,
) *Orchestrator {
	return &Orchestrator{
		users:       users,
		ledger:      ledger,
		source:      source,
		msg:         msg,
		rule:        rule,
		events:      events,
		questionGap: questionGap,
		gracePeriod: gracePeriod,
		clock:       time.Now,
		state:       newState(),
	}
}

func newState() *State {
	return &State{Roster: make(map[int64]struct{})}
}

// StartRoom opens the join window: clears yesterday's markers, loads the
// day's questions and invites every signed-up user who has not joined yet.
// No questions is a normal "no game today" outcome, not an error.
func (o *Orchestrator) StartRoom(ctx context.Context) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		log.Println("[Game] room requested while a game is running, skipped")
		return
	}
	o.state = newState()
	o.mu.Unlock()

	if err := o.users.ClearJoined(ctx); err != nil {
		log.Printf("[Game] clear join markers: %v", err)
	}

	questions, err := o.source.FetchForDay(ctx, o.clock())
	if err != nil {
		log.Printf("[Game] fetch questions: %v", err)
		return
	}
	if len(questions) == 0 {
		log.Println("[Game] no questions today")
		return
	}

	o.mu.Lock()
	o.state.Questions = questions
	o.mu.Unlock()

	users, err := o.users.List(ctx)
	if err != nil {
		log.Printf("[Game] list users: %v", err)
		return
	}
	joined, err := o.users.ListJoined(ctx)
	if err != nil {
		log.Printf("[Game] list joined: %v", err)
		return
	}
	alreadyIn := make(map[int64]struct{}, len(joined))
	for _, id := range joined {
		alreadyIn[id] = struct{}{}
	}

	invited := 0
	for _, u := range users {
		if _, ok := alreadyIn[u.ID]; ok {
			continue
		}
		if err := o.msg.SendJoinPrompt(u.ID); err != nil {
			log.Printf("[Game] join prompt to %d: %v", u.ID, err)
			continue
		}
		invited++
	}

	log.Printf("[Game] room opened, %d questions, %d invited", len(questions), invited)
	o.publish("room_opened", map[string]interface{}{"questions": len(questions), "invited": invited})
}

// Join records a participant's acceptance of the join prompt. Accepting
// twice is idempotent.
func (o *Orchestrator) Join(ctx context.Context, id int64) (JoinResult, error) {
	o.mu.Lock()
	started := o.state.Started
	o.mu.Unlock()
	if started {
		return JoinGameStarted, nil
	}

	joined, err := o.users.HasJoined(ctx, id)
	if err != nil {
		return JoinOK, err
	}
	if joined {
		return JoinAlready, nil
	}
	if err := o.users.MarkJoined(ctx, id); err != nil {
		return JoinOK, err
	}
	return JoinOK, nil
}

// StartGame runs the round loop: one broadcast per question plus a trailing
// close-out step that evaluates the final round, then settles scores.
func (o *Orchestrator) StartGame(ctx context.Context) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		log.Println("[Game] game already running, skipped")
		return
	}
	if len(o.state.Questions) == 0 {
		o.mu.Unlock()
		log.Println("[Game] no questions loaded, nothing to run")
		return
	}
	o.running = true
	o.state.Started = true
	o.state.Current = 0
	questions := o.state.Questions
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.state.Started = false
		o.running = false
		o.mu.Unlock()
	}()

	joined, err := o.users.ListJoined(ctx)
	if err != nil {
		log.Printf("[Game] list joined: %v", err)
		return
	}
	o.mu.Lock()
	for _, id := range joined {
		o.state.Roster[id] = struct{}{}
	}
	o.mu.Unlock()

	day := o.clock()
	log.Printf("[Game] game started with %d players", len(joined))
	o.publish("game_started", map[string]interface{}{"players": len(joined)})

	for i := 0; i <= len(questions); i++ {
		// eliminations for round i-1 must close before round i goes out
		if i > 0 {
			o.evaluateRound(ctx, questions[i-1], day)
		}

		if i == 0 {
			o.broadcastText("The game is starting Now!")
			if !o.sleep(ctx, o.gracePeriod) {
				return
			}
		}

		if i < len(questions) {
			o.broadcastQuestion(i, questions[i])
			if !o.sleep(ctx, o.questionGap) {
				return
			}
			o.mu.Lock()
			o.state.Current++
			o.mu.Unlock()
		}
	}

	o.broadcastText("Game Over!")
	o.settle(ctx)
}

func (o *Orchestrator) evaluateRound(ctx context.Context, q models.Question, day time.Time) {
	counts, err := o.ledger.CountByAnswer(ctx, q.ID, day)
	if err != nil {
		// keep the game going for everyone else
		log.Printf("[Game] count responses for question %d: %v", q.ID, err)
		return
	}

	roster := o.rosterSnapshot()
	answers := make(map[int64]string, len(roster))
	for _, id := range roster {
		resp, err := o.ledger.Get(ctx, q.ID, day, id)
		if errors.Is(err, quiz.ErrNoResponse) {
			o.eliminate(id, "missed",
				fmt.Sprintf("You did not answer the question: %s\nGame Over!", q.Text))
			continue
		}
		if err != nil {
			log.Printf("[Game] read response of %d: %v", id, err)
			continue
		}
		answers[id] = resp.Answer
	}

	for _, id := range o.rule.Eliminate(q, counts, answers) {
		o.eliminate(id, "incorrect",
			fmt.Sprintf("You answered the question: %s incorrectly!\nGame Over!", q.Text))
	}
}

func (o *Orchestrator) eliminate(id int64, reason, notice string) {
	o.mu.Lock()
	delete(o.state.Roster, id)
	o.mu.Unlock()

	if err := o.msg.SendText(id, notice); err != nil {
		log.Printf("[Game] eliminate notice to %d: %v", id, err)
	}
	o.publish("eliminated", map[string]interface{}{"user_id": id, "reason": reason})
}

func (o *Orchestrator) settle(ctx context.Context) {
	survivors := o.rosterSnapshot()
	for _, id := range survivors {
		if _, err := o.users.UpdateScore(ctx, id, 1); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				log.Printf("[Game] settle score of %d: %v", id, err)
			}
			// a missing record means the user was removed on purpose
			continue
		}
	}

	if err := o.users.ClearJoined(ctx); err != nil {
		log.Printf("[Game] clear join markers: %v", err)
	}

	log.Printf("[Game] settled, %d survivors", len(survivors))
	o.publish("game_over", map[string]interface{}{"survivors": len(survivors)})
}

// SubmitAnswer records a button press against the currently broadcast
// round. Presses for any other round are rejected without an upsert.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, id int64, round, option int) (AnswerResult, string, error) {
	o.mu.Lock()
	if !o.state.Started {
		o.mu.Unlock()
		return AnswerNoGame, "", nil
	}
	if round != o.state.Current {
		o.mu.Unlock()
		return AnswerStale, "", nil
	}
	if round < 0 || round >= len(o.state.Questions) {
		o.mu.Unlock()
		return AnswerStale, "", nil
	}
	q := o.state.Questions[round]
	o.mu.Unlock()

	answers := q.Answers()
	if option < 0 || option >= len(answers) {
		return AnswerStale, "", nil
	}
	answer := answers[option]

	if err := o.ledger.Upsert(ctx, q.ID, o.clock(), id, answer); err != nil {
		return AnswerAccepted, answer, err
	}

	o.publish("answer_received", map[string]interface{}{"user_id": id, "round": round})
	return AnswerAccepted, answer, nil
}

// RoundOpen reports whether round is the one currently accepting answers.
func (o *Orchestrator) RoundOpen(round int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Started && round == o.state.Current
}

// QuestionAt returns the question for the given round of the running game.
func (o *Orchestrator) QuestionAt(round int) (models.Question, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.state.Started || round < 0 || round >= len(o.state.Questions) {
		return models.Question{}, false
	}
	return o.state.Questions[round], true
}

func (o *Orchestrator) rosterSnapshot() []int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]int64, 0, len(o.state.Roster))
	for id := range o.state.Roster {
		ids = append(ids, id)
	}
	return ids
}

func (o *Orchestrator) broadcastText(text string) {
	for _, id := range o.rosterSnapshot() {
		if err := o.msg.SendText(id, text); err != nil {
			log.Printf("[Game] send to %d: %v", id, err)
		}
	}
}

func (o *Orchestrator) broadcastQuestion(round int, q models.Question) {
	for _, id := range o.rosterSnapshot() {
		if err := o.msg.SendQuestion(id, round, q); err != nil {
			log.Printf("[Game] question to %d: %v", id, err)
		}
	}
	o.publish("round_started", map[string]interface{}{"round": round, "question": q.Text})
}

// sleep pauses the loop without blocking inbound handlers. Returns false if
// the context was cancelled; a restart mid-round is an accepted loss.
func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (o *Orchestrator) publish(eventType string, data interface{}) {
	if o.events != nil {
		o.events.Publish(eventType, data)
	}
}
