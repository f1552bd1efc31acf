package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"

	"crash/internal/game"
)

// Service is the Postgres persistence gateway. It implements game.Store plus
// the operational surface the server needs.
type Service interface {
	game.Store
	Health() map[string]string
	Close() error
}

type service struct {
	db *sql.DB
}

var (
	database   = os.Getenv("BLUEPRINT_DB_DATABASE")
	password   = os.Getenv("BLUEPRINT_DB_PASSWORD")
	username   = os.Getenv("BLUEPRINT_DB_USERNAME")
	port       = os.Getenv("BLUEPRINT_DB_PORT")
	host       = os.Getenv("BLUEPRINT_DB_HOST")
	schema     = os.Getenv("BLUEPRINT_DB_SCHEMA")
	dbInstance *service
)

func New() Service {
	// Reuse connection
	if dbInstance != nil {
		return dbInstance
	}
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		username, password, host, port, database, schema)
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		log.Fatal(err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	dbInstance = &service{db: db}
	return dbInstance
}

func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	err := s.db.PingContext(ctx)
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := s.db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()

	return stats
}

func (s *service) Close() error {
	log.Printf("[DB] disconnected from database: %s", database)
	return s.db.Close()
}

func (s *service) CreateUser(ctx context.Context, username string, balance float64) (*game.User, error) {
	u := &game.User{Username: username, Balance: balance}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password, email, balance)
		 VALUES ($1, '', $2, $3) RETURNING id`,
		username, username+"@local", balance,
	).Scan(&u.ID)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *service) GetUser(ctx context.Context, userID int64) (*game.User, error) {
	u := &game.User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, balance FROM users WHERE id = $1`, userID,
	).Scan(&u.ID, &u.Username, &u.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// AdjustBalance applies delta atomically. For debits the sufficiency check
// lives inside the UPDATE predicate, so two concurrent placements cannot
// overdraw the same balance.
func (s *service) AdjustBalance(ctx context.Context, userID int64, delta float64) (float64, error) {
	var balance float64
	err := s.db.QueryRowContext(ctx,
		`UPDATE users SET balance = balance + $1
		 WHERE id = $2 AND balance + $1 >= 0
		 RETURNING balance`,
		delta, userID,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		// Distinguish a missing user from an insufficient balance.
		var current float64
		lookupErr := s.db.QueryRowContext(ctx,
			`SELECT balance FROM users WHERE id = $1`, userID,
		).Scan(&current)
		if errors.Is(lookupErr, sql.ErrNoRows) {
			return 0, game.ErrUserNotFound
		}
		if lookupErr != nil {
			return 0, fmt.Errorf("adjust balance: %w", lookupErr)
		}
		return current, game.ErrInsufficientBalance
	}
	if err != nil {
		return 0, fmt.Errorf("adjust balance: %w", err)
	}
	return balance, nil
}

func (s *service) CreateRound(ctx context.Context, crashPoint float64) (*game.Round, error) {
	r := &game.Round{CrashPoint: crashPoint}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO game_rounds (crash_point) VALUES ($1) RETURNING id, started_at`,
		crashPoint,
	).Scan(&r.ID, &r.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("create round: %w", err)
	}
	return r, nil
}

func (s *service) EndRound(ctx context.Context, roundID int64, crashPoint float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE game_rounds
		 SET crash_point = $2, ended_at = now(), is_complete = true
		 WHERE id = $1`,
		roundID, crashPoint,
	)
	if err != nil {
		return fmt.Errorf("end round: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return game.ErrInvariant
	}
	return nil
}

func (s *service) GetGameHistory(ctx context.Context, limit int) ([]game.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, crash_point FROM game_rounds
		 WHERE is_complete ORDER BY id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("game history: %w", err)
	}
	defer rows.Close()

	history := make([]game.HistoryEntry, 0, limit)
	for rows.Next() {
		var e game.HistoryEntry
		if err := rows.Scan(&e.ID, &e.CrashPoint); err != nil {
			return nil, fmt.Errorf("game history: %w", err)
		}
		history = append(history, e)
	}
	return history, rows.Err()
}

func (s *service) CreateBet(ctx context.Context, bet *game.Bet) (*game.Bet, error) {
	stored := *bet
	autoCashout := sql.NullFloat64{Float64: bet.AutoCashoutAt, Valid: bet.AutoCashoutAt > 0}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO bets (user_id, game_round_id, amount, auto_cashout_at, status)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		bet.UserID, bet.RoundID, bet.Amount, autoCashout, bet.Status,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create bet: %w", err)
	}
	return &stored, nil
}

func (s *service) UpdateBetStatus(ctx context.Context, betID int64, status string, cashedOutAt, profit float64) error {
	var res sql.Result
	var err error
	if cashedOutAt > 0 {
		res, err = s.db.ExecContext(ctx,
			`UPDATE bets SET status = $2, cashed_out_at = $3, profit = $4 WHERE id = $1`,
			betID, status, cashedOutAt, profit,
		)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE bets SET status = $2 WHERE id = $1`,
			betID, status,
		)
	}
	if err != nil {
		return fmt.Errorf("update bet status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return game.ErrBetNotFound
	}
	return nil
}

func (s *service) GetUserBets(ctx context.Context, userID int64, limit int) ([]game.Bet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, game_round_id, amount,
		        COALESCE(auto_cashout_at, 0), COALESCE(cashed_out_at, 0),
		        COALESCE(profit, 0), status, created_at
		 FROM bets WHERE user_id = $1 ORDER BY id DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("user bets: %w", err)
	}
	defer rows.Close()

	bets := make([]game.Bet, 0, limit)
	for rows.Next() {
		var b game.Bet
		err := rows.Scan(&b.ID, &b.UserID, &b.RoundID, &b.Amount,
			&b.AutoCashoutAt, &b.CashedOutAt, &b.Profit, &b.Status, &b.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("user bets: %w", err)
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

func (s *service) CreateTransaction(ctx context.Context, tx *game.Transaction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, type, amount, status, payment_method, transaction_details)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		tx.UserID, tx.Type, tx.Amount, tx.Status, tx.PaymentMethod, tx.Details,
	)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (s *service) GetSettings(ctx context.Context) (*game.Settings, error) {
	gs := &game.Settings{}
	err := s.db.QueryRowContext(ctx,
		`SELECT min_bet, max_bet, house_edge, max_multiplier
		 FROM game_settings ORDER BY id LIMIT 1`,
	).Scan(&gs.MinBet, &gs.MaxBet, &gs.HouseEdge, &gs.MaxMultiplier)
	if errors.Is(err, sql.ErrNoRows) {
		return s.insertDefaultSettings(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return gs, nil
}

func (s *service) insertDefaultSettings(ctx context.Context) (*game.Settings, error) {
	gs := &game.Settings{MinBet: 10, MaxBet: 10000, HouseEdge: 5, MaxMultiplier: 100}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO game_settings (min_bet, max_bet, house_edge, max_multiplier)
		 VALUES ($1, $2, $3, $4)`,
		gs.MinBet, gs.MaxBet, gs.HouseEdge, gs.MaxMultiplier,
	)
	if err != nil {
		return nil, fmt.Errorf("seed settings: %w", err)
	}
	return gs, nil
}

func (s *service) UpdateSettings(ctx context.Context, gs *game.Settings) (*game.Settings, error) {
	if _, err := s.GetSettings(ctx); err != nil {
		return nil, err
	}
	updated := &game.Settings{}
	err := s.db.QueryRowContext(ctx,
		`UPDATE game_settings
		 SET min_bet = $1, max_bet = $2, house_edge = $3, max_multiplier = $4, updated_at = now()
		 WHERE id = (SELECT id FROM game_settings ORDER BY id LIMIT 1)
		 RETURNING min_bet, max_bet, house_edge, max_multiplier`,
		gs.MinBet, gs.MaxBet, gs.HouseEdge, gs.MaxMultiplier,
	).Scan(&updated.MinBet, &updated.MaxBet, &updated.HouseEdge, &updated.MaxMultiplier)
	if err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return updated, nil
}
