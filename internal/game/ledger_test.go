package game

import (
	"errors"
	"testing"
)

func ledgerBet(id, userID, roundID int64, autoCashout float64) *Bet {
	return &Bet{
		ID:            id,
		UserID:        userID,
		RoundID:       roundID,
		Amount:        100,
		AutoCashoutAt: autoCashout,
		Status:        BetActive,
	}
}

func TestLedger_Add(t *testing.T) {
	l := NewLedger()
	l.Reset(7)

	if err := l.Add(ledgerBet(1, 10, 7, 0), "alice"); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	t.Run("rejects duplicate user", func(t *testing.T) {
		err := l.Add(ledgerBet(2, 10, 7, 0), "alice")
		if !errors.Is(err, ErrDuplicateBet) {
			t.Errorf("Add() error = %v, want ErrDuplicateBet", err)
		}
	})

	t.Run("rejects wrong round", func(t *testing.T) {
		err := l.Add(ledgerBet(3, 11, 8, 0), "bob")
		if !errors.Is(err, ErrInvariant) {
			t.Errorf("Add() error = %v, want ErrInvariant", err)
		}
	})

	if !l.HasBet(10) {
		t.Error("HasBet(10) = false, want true")
	}
	if l.HasBet(11) {
		t.Error("HasBet(11) = true, want false")
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}

func TestLedger_TerminalStatusSetOnce(t *testing.T) {
	l := NewLedger()
	l.Reset(1)
	l.Add(ledgerBet(1, 10, 1, 0), "alice")
	l.Add(ledgerBet(2, 11, 1, 0), "bob")

	if err := l.MarkWon(1, 2.0, 100); err != nil {
		t.Fatalf("MarkWon() error: %v", err)
	}
	if err := l.MarkLost(1); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("MarkLost() after win = %v, want ErrAlreadySettled", err)
	}
	if err := l.MarkWon(1, 3.0, 200); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("second MarkWon() = %v, want ErrAlreadySettled", err)
	}
	if err := l.MarkVoid(1); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("MarkVoid() after win = %v, want ErrAlreadySettled", err)
	}

	b, _ := l.Get(1)
	if b.Status != BetWon || b.CashedOutAt != 2.0 || b.Profit != 100 {
		t.Errorf("bet = %+v, want won at 2.0 with profit 100", b)
	}

	// The abort path may override a loss but never a paid win.
	if err := l.MarkLost(2); err != nil {
		t.Fatalf("MarkLost() error: %v", err)
	}
	if err := l.MarkVoid(2); err != nil {
		t.Errorf("MarkVoid() over loss = %v, want nil", err)
	}

	if err := l.MarkWon(99, 2.0, 0); !errors.Is(err, ErrBetNotFound) {
		t.Errorf("MarkWon(99) = %v, want ErrBetNotFound", err)
	}
}

func TestLedger_AutoCashoutsDue(t *testing.T) {
	l := NewLedger()
	l.Reset(1)
	l.Add(ledgerBet(5, 10, 1, 3.00), "alice")   // above current multiplier
	l.Add(ledgerBet(6, 11, 1, 1.50), "bob")     // due
	l.Add(ledgerBet(7, 12, 1, 0), "carol")      // no auto cashout
	l.Add(ledgerBet(8, 13, 1, 2.00), "dave")    // due, higher id
	l.Add(ledgerBet(9, 14, 1, 1.20), "erin")    // due but already settled
	l.MarkWon(9, 1.20, 20)

	due := l.AutoCashoutsDue(2.00)
	if len(due) != 2 {
		t.Fatalf("AutoCashoutsDue() returned %d bets, want 2", len(due))
	}
	if due[0].ID != 6 || due[1].ID != 8 {
		t.Errorf("due order = [%d %d], want [6 8]", due[0].ID, due[1].ID)
	}
}

func TestLedger_LiveBets(t *testing.T) {
	l := NewLedger()
	l.Reset(1)
	l.Add(ledgerBet(1, 10, 1, 0), "alice")
	l.Add(ledgerBet(2, 11, 1, 0), "bob")
	l.Add(ledgerBet(3, 12, 1, 0), "carol")
	l.MarkWon(2, 2.50, 150)
	l.MarkLost(3)

	live := l.LiveBets()
	if len(live) != 3 {
		t.Fatalf("LiveBets() returned %d entries, want 3", len(live))
	}
	if live[0].Status != BetActive || live[0].Username != "alice" {
		t.Errorf("live[0] = %+v, want active alice", live[0])
	}
	if live[1].Status != "cashed_out" || live[1].CashedOutAt != 2.50 {
		t.Errorf("live[1] = %+v, want cashed_out at 2.50", live[1])
	}
	if live[2].Status != BetLost {
		t.Errorf("live[2].Status = %q, want %q", live[2].Status, BetLost)
	}
}

func TestLedger_Reset(t *testing.T) {
	l := NewLedger()
	l.Reset(1)
	l.Add(ledgerBet(1, 10, 1, 0), "alice")

	l.Reset(2)
	if l.RoundID() != 2 {
		t.Errorf("RoundID() = %d, want 2", l.RoundID())
	}
	if l.Len() != 0 || l.HasBet(10) {
		t.Error("Reset() did not clear bets")
	}
	if err := l.Add(ledgerBet(2, 10, 2, 0), "alice"); err != nil {
		t.Errorf("Add() after reset error: %v", err)
	}
}
