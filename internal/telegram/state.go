package telegram

import "sync"

// Selection is the per-user answer-selection state for the current round.
// It only drives keyboard rendering; the recorded response lives in the
// ledger.
type Selection struct {
	Round    int
	Selected string
}

type StateManager struct {
	mu    sync.RWMutex
	users map[int64]*Selection
}

func NewStateManager() *StateManager {
	return &StateManager{users: make(map[int64]*Selection)}
}

func (m *StateManager) Get(userID int64) Selection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.users[userID]
	if !ok {
		return Selection{Round: -1}
	}
	return *s
}

func (m *StateManager) Set(userID int64, s Selection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = &s
}

func (m *StateManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
}
