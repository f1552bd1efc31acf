package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// Timing defaults. All of them are configurable through Config.
const (
	defaultWaitDuration = 15 * time.Second
	defaultTickInterval = 100 * time.Millisecond
	defaultCrashPause   = 3 * time.Second
	defaultGrowthRate   = 1.0 // multiplier gained per second

	betTimeout     = 5 * time.Second
	cashoutTimeout = 500 * time.Millisecond
	storeOpTimeout = 5 * time.Second
)

type Config struct {
	WaitDuration   time.Duration
	TickInterval   time.Duration
	CrashPause     time.Duration
	GrowthRate     float64
	PersistRetries int
	RetryBackoff   time.Duration
}

func DefaultConfig() Config {
	return Config{
		WaitDuration:   defaultWaitDuration,
		TickInterval:   defaultTickInterval,
		CrashPause:     defaultCrashPause,
		GrowthRate:     defaultGrowthRate,
		PersistRetries: 3,
		RetryBackoff:   250 * time.Millisecond,
	}
}

type phaseOutcome int

const (
	phaseCrashed phaseOutcome = iota
	phaseVoided
	phaseStopped
)

// Scheduler drives the round state machine: waiting -> in_progress ->
// crashed -> waiting. It is a single-writer actor: one goroutine owns the
// round, the ledger, and every phase transition, fed by request channels.
// A cashout racing the crash tick therefore lands entirely on one side.
type Scheduler struct {
	cfg     Config
	store   Store
	hub     Broadcaster
	gen     *Generator
	archive RoundArchiver // optional

	ledger   *Ledger
	round    *Round
	settings Settings
	// in_progress entry instant; time.Since carries the monotonic reading,
	// so NTP adjustments cannot move the crash.
	startedAt time.Time

	mu       sync.RWMutex
	state    GameState
	liveBets []LiveBet

	betCh     chan BetRequest
	cashoutCh chan CashoutRequest
	stopCh    chan struct{}
	stopOnce  sync.Once
	doneCh    chan struct{}
}

func NewScheduler(cfg Config, store Store, hub Broadcaster, gen *Generator, archive RoundArchiver) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		store:   store,
		hub:     hub,
		gen:     gen,
		archive: archive,
		ledger:  NewLedger(),
		settings: Settings{
			MinBet:        10,
			MaxBet:        10000,
			HouseEdge:     5,
			MaxMultiplier: 100,
		},
		state:     GameState{Status: StatusWaiting, CurrentMultiplier: MinMultiplier},
		betCh:     make(chan BetRequest, 1000),
		cashoutCh: make(chan CashoutRequest, 1000),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	go s.Run()
}

// Run executes rounds until Stop is called or an invariant violation halts
// the engine. It blocks; Start wraps it in a goroutine.
func (s *Scheduler) Run() {
	defer close(s.doneCh)
	for {
		select {
		case <-s.stopCh:
			log.Println("[GAME] round loop stopped")
			return
		default:
		}
		if !s.runRound() {
			log.Println("[GAME] round loop stopped")
			return
		}
	}
}

// Stop shuts the actor down and waits for the current round handling to
// unwind.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.doneCh
}

// State returns the current broadcast snapshot. The authoritative multiplier
// during in_progress is always recomputed from elapsed time; this snapshot
// is the last broadcast value.
func (s *Scheduler) State() GameState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// LiveBets returns the last published live-bet snapshot.
func (s *Scheduler) LiveBets() []LiveBet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LiveBet, len(s.liveBets))
	copy(out, s.liveBets)
	return out
}

// PlaceBet submits a bet request to the actor and waits for the verdict.
func (s *Scheduler) PlaceBet(req BetRequest) BetResponse {
	select {
	case <-s.stopCh:
		return BetResponse{Message: "engine stopped"}
	default:
	}

	respChan := make(chan BetResponse, 1)
	req.ResponseChan = respChan

	select {
	case s.betCh <- req:
		select {
		case resp := <-respChan:
			return resp
		case <-time.After(betTimeout):
			return BetResponse{Message: "bet timeout"}
		}
	default:
		return BetResponse{Message: "bet queue full"}
	}
}

// Cashout submits a cashout request to the actor and waits for the verdict.
func (s *Scheduler) Cashout(req CashoutRequest) CashoutResponse {
	select {
	case <-s.stopCh:
		return CashoutResponse{Message: "engine stopped"}
	default:
	}

	respChan := make(chan CashoutResponse, 1)
	req.ResponseChan = respChan

	select {
	case s.cashoutCh <- req:
		select {
		case resp := <-respChan:
			return resp
		case <-time.After(cashoutTimeout):
			return CashoutResponse{Message: "cashout timeout"}
		}
	default:
		return CashoutResponse{Message: "cashout queue full"}
	}
}

// ArmOverride arms the one-shot manual crash point for the next round.
func (s *Scheduler) ArmOverride(multiplier float64) error {
	if err := s.gen.Arm(multiplier); err != nil {
		return err
	}
	log.Printf("[ADMIN] manual crash point armed: %.2fx (next round only)", multiplier)
	return nil
}

func (s *Scheduler) DisarmOverride() {
	s.gen.Disarm()
	log.Println("[ADMIN] manual crash point disarmed")
}

func (s *Scheduler) OverrideStatus() (float64, bool) {
	return s.gen.Armed()
}

// runRound executes one full round. Returns false when the loop should end.
func (s *Scheduler) runRound() bool {
	settings := s.loadSettings()

	crashPoint := s.gen.Generate(settings.HouseEdge/100, settings.MaxMultiplier)

	round, err := s.createRound(crashPoint)
	if err != nil {
		// No bets exist yet, so aborting here loses nothing.
		log.Printf("[GAME] recovered fatal: could not persist new round: %v", err)
		return s.sleep(s.cfg.CrashPause)
	}
	s.round = round
	s.ledger.Reset(round.ID)

	s.setState(GameState{
		Status:            StatusWaiting,
		CurrentMultiplier: MinMultiplier,
		Countdown:         int(s.cfg.WaitDuration / time.Second),
		RoundID:           round.ID,
	})
	s.publishLiveBets()
	s.broadcastState()
	log.Printf("[GAME] round %d waiting, crash point %.2fx (hidden)", round.ID, crashPoint)

	if !s.waitingPhase(settings) {
		return false
	}

	switch s.runningPhase(crashPoint) {
	case phaseStopped:
		return false
	case phaseVoided:
		return s.sleep(s.cfg.CrashPause)
	case phaseCrashed:
		if s.settleRound(crashPoint) {
			log.Printf("[GAME] round %d ended at %.2fx", s.round.ID, crashPoint)
		}
		return s.pausePhase()
	}
	return true
}

// waitingPhase counts down at 1 Hz and accepts bets. Returns false on stop.
func (s *Scheduler) waitingPhase(settings Settings) bool {
	countdown := time.NewTicker(time.Second)
	defer countdown.Stop()
	deadline := time.NewTimer(s.cfg.WaitDuration)
	defer deadline.Stop()
	remaining := int(s.cfg.WaitDuration / time.Second)

	for {
		select {
		case <-deadline.C:
			return true
		case <-countdown.C:
			if remaining > 0 {
				remaining--
			}
			s.updateState(func(st *GameState) { st.Countdown = remaining })
			s.broadcastState()
		case req := <-s.betCh:
			resp := s.placeBet(req, settings)
			if req.ResponseChan != nil {
				req.ResponseChan <- resp
			}
		case req := <-s.cashoutCh:
			s.rejectCashout(req, fmt.Sprintf("%v: the round has not started", ErrInvalidPhase))
		case <-s.stopCh:
			return false
		}
	}
}

// runningPhase ticks the multiplier until it reaches the crash point. The
// crash check and every cashout run on this goroutine, so the transition is
// atomic with respect to the ledger's phase checks.
func (s *Scheduler) runningPhase(crashPoint float64) phaseOutcome {
	s.startedAt = time.Now()
	s.setState(GameState{Status: StatusInProgress, CurrentMultiplier: MinMultiplier, RoundID: s.round.ID})
	s.broadcastState()
	log.Printf("[GAME] round %d in progress", s.round.ID)

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m := s.multiplierNow()
			// Auto-cashouts sweep before the crash decision: a threshold at
			// or below the crash point was reached earlier in continuous
			// time even if this tick already overshoots.
			swept := min(m, crashPoint)
			if !s.sweepAutoCashouts(swept) {
				return phaseVoided
			}
			if m >= crashPoint {
				s.enterCrashed(crashPoint)
				return phaseCrashed
			}
			s.updateState(func(st *GameState) { st.CurrentMultiplier = m })
			s.broadcastState()
		case req := <-s.betCh:
			resp := BetResponse{Message: fmt.Sprintf("%v: betting is closed while the round is running", ErrInvalidPhase)}
			if req.ResponseChan != nil {
				req.ResponseChan <- resp
			}
		case req := <-s.cashoutCh:
			crashed, voided := s.handleCashout(req, crashPoint)
			if voided {
				return phaseVoided
			}
			if crashed {
				// Same rule as the tick path: thresholds at or below the
				// crash point were reached in continuous time and pay out
				// before the crash is entered.
				if !s.sweepAutoCashouts(crashPoint) {
					return phaseVoided
				}
				s.enterCrashed(crashPoint)
				return phaseCrashed
			}
		case <-s.stopCh:
			return phaseStopped
		}
	}
}

// pausePhase holds the crashed state for the configured pause while still
// answering requests with phase errors. Returns false on stop.
func (s *Scheduler) pausePhase() bool {
	deadline := time.NewTimer(s.cfg.CrashPause)
	defer deadline.Stop()

	for {
		select {
		case <-deadline.C:
			return true
		case req := <-s.betCh:
			resp := BetResponse{Message: fmt.Sprintf("%v: betting opens with the next round", ErrInvalidPhase)}
			if req.ResponseChan != nil {
				req.ResponseChan <- resp
			}
		case req := <-s.cashoutCh:
			s.rejectCashout(req, fmt.Sprintf("%v: round already crashed", ErrInvalidPhase))
		case <-s.stopCh:
			return false
		}
	}
}

// multiplierNow recomputes the authoritative multiplier from wall-clock
// elapsed time. Accumulating per-tick increments would drift under scheduler
// jitter; the formula cannot.
func (s *Scheduler) multiplierNow() float64 {
	elapsed := time.Since(s.startedAt).Seconds()
	return roundMultiplier(MinMultiplier + s.cfg.GrowthRate*elapsed)
}

func (s *Scheduler) placeBet(req BetRequest, settings Settings) BetResponse {
	if req.Amount < settings.MinBet || req.Amount > settings.MaxBet {
		return BetResponse{Message: fmt.Sprintf("%v (%.2f to %.2f)", ErrAmountOutOfRange, settings.MinBet, settings.MaxBet)}
	}
	if req.AutoCashoutAt != 0 && req.AutoCashoutAt < MinMultiplier {
		return BetResponse{Message: fmt.Sprintf("auto cashout must be at least %.2f", MinMultiplier)}
	}
	if s.ledger.HasBet(req.UserID) {
		return BetResponse{Message: ErrDuplicateBet.Error()}
	}

	var user *User
	err := s.withRetry("get user", func(ctx context.Context) error {
		var err error
		user, err = s.store.GetUser(ctx, req.UserID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return BetResponse{Message: ErrUserNotFound.Error()}
		}
		return BetResponse{Message: "could not verify user"}
	}

	balance, err := s.adjustBalance(req.UserID, -req.Amount)
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			return BetResponse{Message: ErrInsufficientBalance.Error(), Balance: balance}
		}
		return BetResponse{Message: "could not reserve stake"}
	}

	bet := &Bet{
		UserID:        req.UserID,
		RoundID:       s.round.ID,
		Amount:        req.Amount,
		AutoCashoutAt: req.AutoCashoutAt,
		Status:        BetActive,
	}
	var created *Bet
	err = s.withRetry("create bet", func(ctx context.Context) error {
		var err error
		created, err = s.store.CreateBet(ctx, bet)
		return err
	})
	if err != nil {
		if _, rerr := s.adjustBalance(req.UserID, req.Amount); rerr != nil {
			log.Printf("[GAME] ALERT: refund after failed bet insert for user %d: %v", req.UserID, rerr)
		}
		return BetResponse{Message: "could not record bet"}
	}

	if err := s.ledger.Add(created, user.Username); err != nil {
		// Checked HasBet above on this same goroutine, so this is a defect.
		log.Printf("[GAME] ALERT: %v: bet %d rejected by ledger: %v", ErrInvariant, created.ID, err)
		if _, rerr := s.adjustBalance(req.UserID, req.Amount); rerr != nil {
			log.Printf("[GAME] ALERT: refund after ledger rejection for user %d: %v", req.UserID, rerr)
		}
		return BetResponse{Message: "could not record bet"}
	}

	s.recordTx(req.UserID, TxBet, -req.Amount, fmt.Sprintf("bet on game round #%d", s.round.ID))
	s.broadcastLiveBets()
	log.Printf("[BET] user %d placed %.2f on round %d (bet %d)", req.UserID, req.Amount, s.round.ID, created.ID)

	return BetResponse{Success: true, Bet: created, Balance: balance}
}

// handleCashout processes a manual cashout. The crash decision happens here
// too: if the recomputed multiplier already reached the crash point, the
// request fails with a phase error and the round crashes.
func (s *Scheduler) handleCashout(req CashoutRequest, crashPoint float64) (crashed, voided bool) {
	m := s.multiplierNow()
	if m >= crashPoint {
		s.rejectCashout(req, fmt.Sprintf("%v: round already crashed", ErrInvalidPhase))
		return true, false
	}

	bet, ok := s.ledger.Get(req.BetID)
	if !ok {
		s.rejectCashout(req, ErrBetNotFound.Error())
		return false, false
	}
	if bet.RoundID != s.ledger.RoundID() {
		s.rejectCashout(req, "engine halted")
		s.halt(fmt.Sprintf("bet %d bound to round %d inside round %d", bet.ID, bet.RoundID, s.ledger.RoundID()))
		return false, false
	}
	if bet.UserID != req.UserID {
		s.rejectCashout(req, ErrNotOwner.Error())
		return false, false
	}
	if bet.Status != BetActive {
		s.rejectCashout(req, ErrAlreadySettled.Error())
		return false, false
	}

	payout, balance, err := s.settleWin(bet, m)
	if err != nil {
		s.rejectCashout(req, "cashout could not be recorded")
		s.voidRound(fmt.Sprintf("persisting cashout for bet %d: %v", bet.ID, err))
		return false, true
	}

	if req.ResponseChan != nil {
		req.ResponseChan <- CashoutResponse{
			Success:    true,
			BetID:      bet.ID,
			Multiplier: m,
			WinAmount:  payout,
			Balance:    balance,
		}
	}
	log.Printf("[CASHOUT] user %d cashed out bet %d at %.2fx (payout %.2f)", req.UserID, bet.ID, m, payout)
	return false, false
}

// sweepAutoCashouts settles every active bet whose threshold is reached,
// each at its own threshold in placement order. Returns false when a
// persistence failure voided the round.
func (s *Scheduler) sweepAutoCashouts(m float64) bool {
	for _, bet := range s.ledger.AutoCashoutsDue(m) {
		payout, _, err := s.settleWin(bet, bet.AutoCashoutAt)
		if err != nil {
			s.voidRound(fmt.Sprintf("persisting auto-cashout for bet %d: %v", bet.ID, err))
			return false
		}
		log.Printf("[CASHOUT] auto: user %d bet %d at %.2fx (payout %.2f)", bet.UserID, bet.ID, bet.AutoCashoutAt, payout)
	}
	return true
}

// settleWin credits the payout, marks the bet won, and persists. The credit
// comes first: if it fails the bet stays active and the void path refunds
// the stake instead.
func (s *Scheduler) settleWin(bet *Bet, multiplier float64) (payout, balance float64, err error) {
	payout = round2(bet.Amount * multiplier)
	profit := round2(payout - bet.Amount)

	balance, err = s.adjustBalance(bet.UserID, payout)
	if err != nil {
		return 0, 0, err
	}
	if err := s.ledger.MarkWon(bet.ID, multiplier, profit); err != nil {
		return 0, 0, err
	}
	if err := s.persistBetStatus(bet.ID, BetWon, multiplier, profit); err != nil {
		// The payout is already credited and the in-memory record is
		// settled; surface the storage divergence loudly.
		log.Printf("[GAME] ALERT: bet %d won in memory but not persisted: %v", bet.ID, err)
	}
	s.recordTx(bet.UserID, TxWin, payout, fmt.Sprintf("win from bet #%d at %.2fx", bet.ID, multiplier))
	s.broadcastLiveBets()
	return payout, balance, nil
}

// settleRound marks every remaining active bet lost and persists the round
// end. Stakes were debited at placement, so losses move no balance.
func (s *Scheduler) settleRound(crashPoint float64) bool {
	for _, bet := range s.ledger.Actives() {
		if err := s.ledger.MarkLost(bet.ID); err != nil {
			log.Printf("[GAME] ALERT: %v: marking bet %d lost: %v", ErrInvariant, bet.ID, err)
			continue
		}
		if err := s.persistBetStatus(bet.ID, BetLost, 0, 0); err != nil {
			s.voidRound(fmt.Sprintf("persisting loss for bet %d: %v", bet.ID, err))
			return false
		}
		log.Printf("[LOSS] user %d lost %.2f on bet %d", bet.UserID, bet.Amount, bet.ID)
	}

	err := s.withRetry("end round", func(ctx context.Context) error {
		return s.store.EndRound(ctx, s.round.ID, crashPoint)
	})
	if err != nil {
		s.voidRound(fmt.Sprintf("persisting round end: %v", err))
		return false
	}

	s.broadcastLiveBets()
	s.archiveRound(crashPoint)
	return true
}

// voidRound is the recovered-fatal path: persistence gave up, so the round
// is aborted and every bet that has not already been paid gets its stake
// back.
func (s *Scheduler) voidRound(reason string) {
	log.Printf("[GAME] recovered fatal: voiding round %d: %s", s.round.ID, reason)

	for _, bet := range s.ledger.All() {
		if bet.Status == BetWon || bet.Status == BetVoid {
			continue
		}
		if err := s.ledger.MarkVoid(bet.ID); err != nil {
			continue
		}
		if _, err := s.adjustBalance(bet.UserID, bet.Amount); err != nil {
			log.Printf("[GAME] ALERT: refunding bet %d to user %d failed: %v", bet.ID, bet.UserID, err)
			continue
		}
		if err := s.persistBetStatus(bet.ID, BetVoid, 0, 0); err != nil {
			log.Printf("[GAME] ALERT: bet %d voided in memory but not persisted: %v", bet.ID, err)
		}
		s.recordTx(bet.UserID, TxRefund, bet.Amount, fmt.Sprintf("refund for voided round #%d", s.round.ID))
	}

	s.updateState(func(st *GameState) { st.Status = StatusCrashed })
	s.broadcastLiveBets()
	s.broadcastState()
	s.hub.Broadcast(Message{Type: "error", Data: map[string]string{"message": "round voided, stakes refunded"}})
}

func (s *Scheduler) enterCrashed(crashPoint float64) {
	s.setState(GameState{
		Status:            StatusCrashed,
		CurrentMultiplier: crashPoint,
		CrashPoint:        crashPoint,
		RoundID:           s.round.ID,
	})
	s.broadcastState()
	log.Printf("[GAME] round %d crashed at %.2fx", s.round.ID, crashPoint)
}

func (s *Scheduler) createRound(crashPoint float64) (*Round, error) {
	var round *Round
	err := s.withRetry("create round", func(ctx context.Context) error {
		var err error
		round, err = s.store.CreateRound(ctx, crashPoint)
		return err
	})
	return round, err
}

// loadSettings reads per-round settings; on persistent failure the last
// known values carry the round.
func (s *Scheduler) loadSettings() Settings {
	var loaded *Settings
	err := s.withRetry("load settings", func(ctx context.Context) error {
		var err error
		loaded, err = s.store.GetSettings(ctx)
		return err
	})
	if err != nil {
		log.Printf("[GAME] recovered fatal: settings unavailable, keeping previous: %v", err)
		return s.settings
	}
	s.settings = *loaded
	return s.settings
}

func (s *Scheduler) adjustBalance(userID int64, delta float64) (float64, error) {
	var balance float64
	err := s.withRetry("adjust balance", func(ctx context.Context) error {
		var err error
		balance, err = s.store.AdjustBalance(ctx, userID, delta)
		return err
	})
	return balance, err
}

func (s *Scheduler) persistBetStatus(betID int64, status string, cashedOutAt, profit float64) error {
	return s.withRetry("update bet status", func(ctx context.Context) error {
		return s.store.UpdateBetStatus(ctx, betID, status, cashedOutAt, profit)
	})
}

func (s *Scheduler) recordTx(userID int64, txType string, amount float64, details string) {
	ctx, cancel := opCtx()
	defer cancel()
	err := s.store.CreateTransaction(ctx, &Transaction{
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		Status:        "completed",
		PaymentMethod: "balance",
		Details:       details,
	})
	if err != nil {
		log.Printf("[GAME] transaction record (%s, user %d) failed: %v", txType, userID, err)
	}
}

// withRetry runs a store operation with bounded backoff. Domain errors are
// returned immediately; only infrastructure failures are retried.
func (s *Scheduler) withRetry(op string, fn func(ctx context.Context) error) error {
	backoff := s.cfg.RetryBackoff
	var err error
	for attempt := 0; attempt <= s.cfg.PersistRetries; attempt++ {
		ctx, cancel := opCtx()
		err = fn(ctx)
		cancel()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrInsufficientBalance) || errors.Is(err, ErrUserNotFound) ||
			errors.Is(err, ErrBetNotFound) || errors.Is(err, ErrAlreadySettled) {
			return err
		}
		if attempt < s.cfg.PersistRetries {
			log.Printf("[GAME] %s failed (attempt %d/%d), retrying: %v", op, attempt+1, s.cfg.PersistRetries+1, err)
			if !s.sleep(backoff) {
				return err
			}
			backoff *= 2
		}
	}
	return err
}

func (s *Scheduler) archiveRound(crashPoint float64) {
	if s.archive == nil {
		return
	}
	round := *s.round
	round.CrashPoint = crashPoint
	round.IsComplete = true
	// Off the actor goroutine so a slow cache cannot stall the loop.
	go func() {
		ctx, cancel := opCtx()
		defer cancel()
		if err := s.archive.ArchiveRound(ctx, &round); err != nil {
			log.Printf("[GAME] archiving round %d failed: %v", round.ID, err)
		}
	}()
}

func (s *Scheduler) rejectCashout(req CashoutRequest, msg string) {
	if req.ResponseChan != nil {
		req.ResponseChan <- CashoutResponse{Message: msg}
	}
}

// halt surfaces an invariant violation and refuses to proceed.
func (s *Scheduler) halt(reason string) {
	log.Printf("[GAME] ALERT: %v: %s", ErrInvariant, reason)
	s.hub.Broadcast(Message{Type: "error", Data: map[string]string{"message": "engine halted"}})
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// sleep waits d unless the engine stops first.
func (s *Scheduler) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-s.stopCh:
		return false
	}
}

func (s *Scheduler) setState(st GameState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Scheduler) updateState(fn func(*GameState)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
}

func (s *Scheduler) broadcastState() {
	s.hub.Broadcast(Message{Type: "gameState", Data: s.State()})
}

func (s *Scheduler) publishLiveBets() {
	lb := s.ledger.LiveBets()
	s.mu.Lock()
	s.liveBets = lb
	s.mu.Unlock()
}

func (s *Scheduler) broadcastLiveBets() {
	s.publishLiveBets()
	s.hub.Broadcast(Message{Type: "liveBets", Data: s.LiveBets()})
}

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeOpTimeout)
}
