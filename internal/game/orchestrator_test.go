package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aadityarajkumawat/telebot/internal/models"
	"github.com/aadityarajkumawat/telebot/internal/quiz"
	"github.com/aadityarajkumawat/telebot/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessenger struct {
	mu        sync.Mutex
	texts     map[int64][]string
	prompts   []int64
	questions map[int64][]int
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		texts:     make(map[int64][]string),
		questions: make(map[int64][]int),
	}
}

func (m *fakeMessenger) SendText(chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts[chatID] = append(m.texts[chatID], text)
	return nil
}

func (m *fakeMessenger) SendJoinPrompt(chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, chatID)
	return nil
}

func (m *fakeMessenger) SendQuestion(chatID int64, round int, _ models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions[chatID] = append(m.questions[chatID], round)
	return nil
}

func (m *fakeMessenger) textsFor(chatID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts[chatID]...)
}

type fakeLedger struct {
	mu      sync.Mutex
	answers map[uint]map[int64]string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{answers: make(map[uint]map[int64]string)}
}

func (l *fakeLedger) Upsert(_ context.Context, questionID uint, _ time.Time, userID int64, answer string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.answers[questionID] == nil {
		l.answers[questionID] = make(map[int64]string)
	}
	l.answers[questionID][userID] = answer
	return nil
}

func (l *fakeLedger) Get(_ context.Context, questionID uint, _ time.Time, userID int64) (*models.Response, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	answer, ok := l.answers[questionID][userID]
	if !ok {
		return nil, quiz.ErrNoResponse
	}
	return &models.Response{QuestionID: questionID, UserID: userID, Answer: answer}, nil
}

func (l *fakeLedger) CountByAnswer(_ context.Context, questionID uint, _ time.Time) (map[string]int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	counts := make(map[string]int)
	for _, answer := range l.answers[questionID] {
		counts[answer]++
	}
	return counts, nil
}

type fakeSource struct {
	questions []models.Question
}

func (s *fakeSource) FetchForDay(context.Context, time.Time) ([]models.Question, error) {
	return s.questions, nil
}

func question(id uint) models.Question {
	return models.Question{
		ID:      id,
		Text:    "What color?",
		Option1: "Red",
		Option2: "Blue",
		Option3: "Green",
		Option4: "Yellow",
	}
}

type fixture struct {
	orch   *Orchestrator
	msg    *fakeMessenger
	ledger *fakeLedger
	users  *store.UserStore
}

func newFixture(t *testing.T, questions ...models.Question) *fixture {
	t.Helper()
	msg := newFakeMessenger()
	ledger := newFakeLedger()
	users := store.NewUserStore(store.NewMemoryKV())
	orch := NewOrchestrator(
		users, ledger, &fakeSource{questions: questions}, msg,
		MinorityRule{}, nil, time.Millisecond, time.Millisecond,
	)
	return &fixture{orch: orch, msg: msg, ledger: ledger, users: users}
}

func (f *fixture) signup(t *testing.T, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		err := f.users.Save(context.Background(), &models.User{ID: id, Score: 1})
		require.NoError(t, err)
	}
}

func TestStartRoom_InvitesEverySignup(t *testing.T) {
	f := newFixture(t, question(1))
	f.signup(t, 1, 2, 3)

	f.orch.StartRoom(context.Background())

	assert.Len(t, f.msg.prompts, 3)
}

func TestStartRoom_NoQuestionsMeansNoInvites(t *testing.T) {
	f := newFixture(t)
	f.signup(t, 1, 2)

	f.orch.StartRoom(context.Background())

	assert.Empty(t, f.msg.prompts)
}

func TestJoin_Idempotent(t *testing.T) {
	f := newFixture(t, question(1))
	f.signup(t, 1)
	ctx := context.Background()

	result, err := f.orch.Join(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, JoinOK, result)

	result, err = f.orch.Join(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, JoinAlready, result)

	joined, err := f.users.ListJoined(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, joined)
}

func TestJoin_RejectedOnceGameStarted(t *testing.T) {
	f := newFixture(t, question(1))
	f.orch.state.Started = true

	result, err := f.orch.Join(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, JoinGameStarted, result)
}

func TestStartGame_MinorityWinsAndScores(t *testing.T) {
	f := newFixture(t, question(1))
	f.signup(t, 1, 2, 3)
	ctx := context.Background()

	f.orch.StartRoom(ctx)
	for _, id := range []int64{1, 2, 3} {
		_, err := f.orch.Join(ctx, id)
		require.NoError(t, err)
	}

	require.NoError(t, f.ledger.Upsert(ctx, 1, time.Now(), 1, "Red"))
	require.NoError(t, f.ledger.Upsert(ctx, 1, time.Now(), 2, "Red"))
	require.NoError(t, f.ledger.Upsert(ctx, 1, time.Now(), 3, "Blue"))

	f.orch.StartGame(ctx)

	// Blue was the minority: 3 survives, 1 and 2 are told they lost
	assert.Contains(t, f.msg.textsFor(1), "You answered the question: What color? incorrectly!\nGame Over!")
	assert.Contains(t, f.msg.textsFor(2), "You answered the question: What color? incorrectly!\nGame Over!")
	assert.Contains(t, f.msg.textsFor(3), "Game Over!")

	survivor, err := f.users.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, survivor.Score)

	loser, err := f.users.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, loser.Score)
}

func TestStartGame_MissedAnswerIsElimination(t *testing.T) {
	f := newFixture(t, question(1))
	f.signup(t, 1, 2)
	ctx := context.Background()

	f.orch.StartRoom(ctx)
	for _, id := range []int64{1, 2} {
		_, err := f.orch.Join(ctx, id)
		require.NoError(t, err)
	}

	require.NoError(t, f.ledger.Upsert(ctx, 1, time.Now(), 1, "Red"))

	f.orch.StartGame(ctx)

	assert.Contains(t, f.msg.textsFor(2), "You did not answer the question: What color?\nGame Over!")

	survivor, err := f.users.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, survivor.Score)
}

func TestStartGame_ClearsJoinMarkers(t *testing.T) {
	f := newFixture(t, question(1))
	f.signup(t, 1)
	ctx := context.Background()

	f.orch.StartRoom(ctx)
	_, err := f.orch.Join(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, f.ledger.Upsert(ctx, 1, time.Now(), 1, "Red"))

	f.orch.StartGame(ctx)

	joined, err := f.users.ListJoined(ctx)
	require.NoError(t, err)
	assert.Empty(t, joined)
}

func TestStartGame_NothingLoaded(t *testing.T) {
	f := newFixture(t)
	f.orch.StartGame(context.Background())
	assert.Empty(t, f.msg.texts)
}

func TestSubmitAnswer_RoundGating(t *testing.T) {
	f := newFixture(t, question(1), question(2))
	ctx := context.Background()

	result, _, err := f.orch.SubmitAnswer(ctx, 1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, AnswerNoGame, result)

	f.orch.state.Started = true
	f.orch.state.Current = 1
	f.orch.state.Questions = []models.Question{question(1), question(2)}

	result, _, err = f.orch.SubmitAnswer(ctx, 1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, AnswerStale, result)
	assert.Empty(t, f.ledger.answers)

	result, answer, err := f.orch.SubmitAnswer(ctx, 1, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, AnswerAccepted, result)
	assert.Equal(t, "Green", answer)
	assert.Equal(t, "Green", f.ledger.answers[2][1])
}

func TestSubmitAnswer_RepressOverwrites(t *testing.T) {
	f := newFixture(t, question(1))
	ctx := context.Background()

	f.orch.state.Started = true
	f.orch.state.Questions = []models.Question{question(1)}

	_, _, err := f.orch.SubmitAnswer(ctx, 1, 0, 0)
	require.NoError(t, err)
	_, _, err = f.orch.SubmitAnswer(ctx, 1, 0, 1)
	require.NoError(t, err)

	assert.Equal(t, "Blue", f.ledger.answers[1][1])
}

func TestRoundOpenAndQuestionAt(t *testing.T) {
	f := newFixture(t, question(1))

	assert.False(t, f.orch.RoundOpen(0))
	_, ok := f.orch.QuestionAt(0)
	assert.False(t, ok)

	f.orch.state.Started = true
	f.orch.state.Questions = []models.Question{question(7)}

	assert.True(t, f.orch.RoundOpen(0))
	assert.False(t, f.orch.RoundOpen(1))

	q, ok := f.orch.QuestionAt(0)
	assert.True(t, ok)
	assert.Equal(t, uint(7), q.ID)
}
