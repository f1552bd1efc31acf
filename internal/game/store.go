package game

import "context"

// Store is the persistence gateway the engine drives. The engine never
// reimplements storage; it only calls through this surface.
//
// AdjustBalance with a negative delta must be an atomic compare-and-update:
// two concurrent debits can never overdraw the same balance. It returns
// ErrInsufficientBalance when the debit would go below zero and
// ErrUserNotFound when the user does not exist.
type Store interface {
	CreateUser(ctx context.Context, username string, balance float64) (*User, error)
	GetUser(ctx context.Context, userID int64) (*User, error)
	AdjustBalance(ctx context.Context, userID int64, delta float64) (float64, error)

	CreateRound(ctx context.Context, crashPoint float64) (*Round, error)
	EndRound(ctx context.Context, roundID int64, crashPoint float64) error
	GetGameHistory(ctx context.Context, limit int) ([]HistoryEntry, error)

	CreateBet(ctx context.Context, bet *Bet) (*Bet, error)
	UpdateBetStatus(ctx context.Context, betID int64, status string, cashedOutAt, profit float64) error
	GetUserBets(ctx context.Context, userID int64, limit int) ([]Bet, error)

	CreateTransaction(ctx context.Context, tx *Transaction) error

	GetSettings(ctx context.Context) (*Settings, error)
	UpdateSettings(ctx context.Context, s *Settings) (*Settings, error)
}

// RoundArchiver receives crashed rounds for caching. Implementations must be
// safe for concurrent use; the scheduler calls it off the tick loop.
type RoundArchiver interface {
	ArchiveRound(ctx context.Context, round *Round) error
}

// Broadcaster fans engine events out to subscribers. It must never block.
type Broadcaster interface {
	Broadcast(msg Message)
}
