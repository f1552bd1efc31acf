package game

import "sort"

// Ledger is the authoritative in-memory record of the current round's bets.
// It is owned by the scheduler actor: every call happens on the scheduler
// goroutine, so the ledger itself carries no lock. Terminal status is set
// exactly once; the ledger enforces that regardless of caller.
type Ledger struct {
	roundID   int64
	bets      map[int64]*Bet
	usernames map[int64]string // bet id -> username
	byUser    map[int64]int64  // user id -> bet id
	order     []int64          // bet ids in placement order
}

func NewLedger() *Ledger {
	l := &Ledger{}
	l.Reset(0)
	return l
}

// Reset drops all state and binds the ledger to a new round.
func (l *Ledger) Reset(roundID int64) {
	l.roundID = roundID
	l.bets = make(map[int64]*Bet)
	l.usernames = make(map[int64]string)
	l.byUser = make(map[int64]int64)
	l.order = l.order[:0]
}

func (l *Ledger) RoundID() int64 { return l.roundID }

func (l *Ledger) Len() int { return len(l.bets) }

// Add records a freshly persisted bet. The balance must already be debited.
func (l *Ledger) Add(bet *Bet, username string) error {
	if bet.RoundID != l.roundID {
		return ErrInvariant
	}
	if _, exists := l.byUser[bet.UserID]; exists {
		return ErrDuplicateBet
	}
	stored := *bet
	l.bets[stored.ID] = &stored
	l.usernames[stored.ID] = username
	l.byUser[stored.UserID] = stored.ID
	l.order = append(l.order, stored.ID)
	return nil
}

func (l *Ledger) HasBet(userID int64) bool {
	_, ok := l.byUser[userID]
	return ok
}

func (l *Ledger) Get(betID int64) (*Bet, bool) {
	b, ok := l.bets[betID]
	return b, ok
}

func (l *Ledger) Username(betID int64) string {
	return l.usernames[betID]
}

// MarkWon settles a bet as cashed out at the given multiplier.
func (l *Ledger) MarkWon(betID int64, multiplier, profit float64) error {
	b, ok := l.bets[betID]
	if !ok {
		return ErrBetNotFound
	}
	if b.Status != BetActive {
		return ErrAlreadySettled
	}
	b.Status = BetWon
	b.CashedOutAt = multiplier
	b.Profit = profit
	return nil
}

// MarkLost settles a bet that did not cash out before the crash.
func (l *Ledger) MarkLost(betID int64) error {
	b, ok := l.bets[betID]
	if !ok {
		return ErrBetNotFound
	}
	if b.Status != BetActive {
		return ErrAlreadySettled
	}
	b.Status = BetLost
	return nil
}

// MarkVoid is the abort path: it may override active or lost, never a paid
// win entry.
func (l *Ledger) MarkVoid(betID int64) error {
	b, ok := l.bets[betID]
	if !ok {
		return ErrBetNotFound
	}
	if b.Status == BetWon {
		return ErrAlreadySettled
	}
	b.Status = BetVoid
	return nil
}

// AutoCashoutsDue returns active bets whose threshold has been reached at
// multiplier m, in placement order with ties broken by ascending bet id.
// Each is paid at its own threshold, never at m.
func (l *Ledger) AutoCashoutsDue(m float64) []*Bet {
	var due []*Bet
	for _, id := range l.order {
		b := l.bets[id]
		if b.Status == BetActive && b.AutoCashoutAt >= MinMultiplier && b.AutoCashoutAt <= m {
			due = append(due, b)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due
}

// Actives returns bets still eligible for settlement, in placement order.
func (l *Ledger) Actives() []*Bet {
	var out []*Bet
	for _, id := range l.order {
		if b := l.bets[id]; b.Status == BetActive {
			out = append(out, b)
		}
	}
	return out
}

// All returns every bet of the round in placement order.
func (l *Ledger) All() []*Bet {
	out := make([]*Bet, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.bets[id])
	}
	return out
}

// LiveBets builds the public snapshot broadcast to clients.
func (l *Ledger) LiveBets() []LiveBet {
	out := make([]LiveBet, 0, len(l.order))
	for _, id := range l.order {
		b := l.bets[id]
		status := b.Status
		if status == BetWon {
			status = "cashed_out"
		}
		out = append(out, LiveBet{
			ID:          b.ID,
			Username:    l.usernames[id],
			Amount:      b.Amount,
			Status:      status,
			CashedOutAt: b.CashedOutAt,
		})
	}
	return out
}
