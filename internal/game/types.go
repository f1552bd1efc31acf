package game

import (
	"time"
)

// Round status values. Exactly one round is ever in a non-crashed status.
const (
	StatusWaiting    = "waiting"
	StatusInProgress = "in_progress"
	StatusCrashed    = "crashed"
)

// Bet status values. A bet leaves "active" exactly once.
const (
	BetActive = "active"
	BetWon    = "won"
	BetLost   = "lost"
	BetVoid   = "void"
)

// Transaction types written alongside balance changes.
const (
	TxBet    = "bet"
	TxWin    = "win"
	TxRefund = "refund"
)

type Round struct {
	ID         int64      `json:"id"`
	CrashPoint float64    `json:"crashPoint"`
	StartedAt  time.Time  `json:"startedAt"`
	EndedAt    *time.Time `json:"endedAt,omitempty"`
	IsComplete bool       `json:"isComplete"`
}

type Bet struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"userId"`
	RoundID       int64     `json:"gameRoundId"`
	Amount        float64   `json:"amount"`
	AutoCashoutAt float64   `json:"autoCashoutAt,omitempty"` // 0 = no auto-cashout
	CashedOutAt   float64   `json:"cashedOutAt,omitempty"`
	Profit        float64   `json:"profit,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

type User struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Balance  float64 `json:"balance"`
}

// Settings mirrors the game_settings table. HouseEdge is a percentage.
type Settings struct {
	MinBet        float64 `json:"minBet"`
	MaxBet        float64 `json:"maxBet"`
	HouseEdge     float64 `json:"houseEdge"`
	MaxMultiplier float64 `json:"maxMultiplier"`
}

type Transaction struct {
	UserID        int64   `json:"userId"`
	Type          string  `json:"type"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	PaymentMethod string  `json:"paymentMethod"`
	Details       string  `json:"transactionDetails"`
}

// GameState is the snapshot broadcast to every subscriber.
type GameState struct {
	Status            string  `json:"status"`
	CurrentMultiplier float64 `json:"currentMultiplier"`
	CrashPoint        float64 `json:"crashPoint,omitempty"` // revealed only once crashed
	Countdown         int     `json:"countdown,omitempty"`
	RoundID           int64   `json:"roundId,omitempty"`
}

// LiveBet is the public view of a bet in the current round.
type LiveBet struct {
	ID          int64   `json:"id"`
	Username    string  `json:"username"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"` // active, cashed_out, lost
	CashedOutAt float64 `json:"cashedOutAt,omitempty"`
}

type HistoryEntry struct {
	ID         int64   `json:"id"`
	CrashPoint float64 `json:"crashPoint"`
}

// Message is the wire envelope for every websocket frame.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type BetRequest struct {
	UserID        int64            `json:"userId"`
	Amount        float64          `json:"amount"`
	AutoCashoutAt float64          `json:"autoCashoutAt,omitempty"`
	ResponseChan  chan BetResponse `json:"-"`
}

type BetResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	Bet     *Bet    `json:"bet,omitempty"`
	Balance float64 `json:"balance,omitempty"`
}

type CashoutRequest struct {
	UserID       int64                `json:"userId"`
	BetID        int64                `json:"betId"`
	ResponseChan chan CashoutResponse `json:"-"`
}

type CashoutResponse struct {
	Success    bool    `json:"success"`
	Message    string  `json:"message,omitempty"`
	BetID      int64   `json:"betId,omitempty"`
	Multiplier float64 `json:"cashoutMultiplier,omitempty"`
	WinAmount  float64 `json:"winAmount,omitempty"`
	Balance    float64 `json:"balance,omitempty"`
}
