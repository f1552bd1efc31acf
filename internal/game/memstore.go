package game

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory Store. It backs unit tests and database-less
// development mode, and seeds the same default settings the schema does.
type MemStore struct {
	mu sync.Mutex

	users    map[int64]*User
	rounds   map[int64]*Round
	bets     map[int64]*Bet
	txs      []Transaction
	settings Settings

	nextUserID  int64
	nextRoundID int64
	nextBetID   int64
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:  make(map[int64]*User),
		rounds: make(map[int64]*Round),
		bets:   make(map[int64]*Bet),
		settings: Settings{
			MinBet:        10,
			MaxBet:        10000,
			HouseEdge:     5,
			MaxMultiplier: 100,
		},
		nextUserID:  1,
		nextRoundID: 1,
		nextBetID:   1,
	}
}

func (m *MemStore) CreateUser(_ context.Context, username string, balance float64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := &User{ID: m.nextUserID, Username: username, Balance: balance}
	m.nextUserID++
	m.users[u.ID] = u
	out := *u
	return &out, nil
}

func (m *MemStore) GetUser(_ context.Context, userID int64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *u
	return &out, nil
}

// AdjustBalance is the compare-and-update the engine relies on: the
// sufficiency check and the write happen under one lock.
func (m *MemStore) AdjustBalance(_ context.Context, userID int64, delta float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return 0, ErrUserNotFound
	}
	if delta < 0 && u.Balance+delta < 0 {
		return u.Balance, ErrInsufficientBalance
	}
	u.Balance += delta
	return u.Balance, nil
}

func (m *MemStore) CreateRound(_ context.Context, crashPoint float64) (*Round, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := &Round{ID: m.nextRoundID, CrashPoint: crashPoint, StartedAt: time.Now()}
	m.nextRoundID++
	m.rounds[r.ID] = r
	out := *r
	return &out, nil
}

func (m *MemStore) EndRound(_ context.Context, roundID int64, crashPoint float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rounds[roundID]
	if !ok {
		return ErrInvariant
	}
	now := time.Now()
	r.CrashPoint = crashPoint
	r.EndedAt = &now
	r.IsComplete = true
	return nil
}

func (m *MemStore) GetGameHistory(_ context.Context, limit int) ([]HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int64, 0, len(m.rounds))
	for id, r := range m.rounds {
		if r.IsComplete {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	history := make([]HistoryEntry, 0, limit)
	for _, id := range ids {
		if len(history) == limit {
			break
		}
		history = append(history, HistoryEntry{ID: id, CrashPoint: m.rounds[id].CrashPoint})
	}
	return history, nil
}

func (m *MemStore) CreateBet(_ context.Context, bet *Bet) (*Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *bet
	stored.ID = m.nextBetID
	stored.CreatedAt = time.Now()
	m.nextBetID++
	m.bets[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *MemStore) UpdateBetStatus(_ context.Context, betID int64, status string, cashedOutAt, profit float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bets[betID]
	if !ok {
		return ErrBetNotFound
	}
	b.Status = status
	if cashedOutAt > 0 {
		b.CashedOutAt = cashedOutAt
		b.Profit = profit
	}
	return nil
}

func (m *MemStore) GetUserBets(_ context.Context, userID int64, limit int) ([]Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int64, 0)
	for id, b := range m.bets {
		if b.UserID == userID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	bets := make([]Bet, 0, limit)
	for _, id := range ids {
		if len(bets) == limit {
			break
		}
		bets = append(bets, *m.bets[id])
	}
	return bets, nil
}

func (m *MemStore) CreateTransaction(_ context.Context, tx *Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs = append(m.txs, *tx)
	return nil
}

// Transactions returns a copy of every recorded transaction, newest last.
func (m *MemStore) Transactions() []Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Transaction, len(m.txs))
	copy(out, m.txs)
	return out
}

// GetBet looks a bet up by id; it is not part of Store but tests and the
// dev-mode server use it.
func (m *MemStore) GetBet(betID int64) (*Bet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bets[betID]
	if !ok {
		return nil, false
	}
	out := *b
	return &out, true
}

func (m *MemStore) GetSettings(_ context.Context) (*Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.settings
	return &s, nil
}

func (m *MemStore) UpdateSettings(_ context.Context, s *Settings) (*Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = *s
	out := m.settings
	return &out, nil
}
