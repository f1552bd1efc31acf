package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"crash/internal/game"
)

const (
	roundKeyPrefix = "crash:round:"
	historyKey     = "crash:history"

	roundTTL      = 1 * time.Hour
	historyLength = 100
)

// Archive keeps crashed rounds in Redis: a per-round snapshot with a TTL and
// a capped recent-history list that serves getGameHistory without touching
// the database.
type Archive struct {
	client *redis.Client
}

func NewArchive(client *redis.Client) *Archive {
	return &Archive{client: client}
}

// ArchiveRound stores a crashed round and pushes it onto the history list.
func (a *Archive) ArchiveRound(ctx context.Context, round *game.Round) error {
	data, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("marshal round: %w", err)
	}
	if err := a.client.Set(ctx, roundKey(round.ID), data, roundTTL).Err(); err != nil {
		return fmt.Errorf("store round: %w", err)
	}

	entry, err := json.Marshal(game.HistoryEntry{ID: round.ID, CrashPoint: round.CrashPoint})
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}
	pipe := a.client.TxPipeline()
	pipe.LPush(ctx, historyKey, entry)
	pipe.LTrim(ctx, historyKey, 0, historyLength-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push history: %w", err)
	}
	return nil
}

// RecentHistory returns up to limit crashed rounds, newest first. An empty
// result is not an error; callers fall back to the database.
func (a *Archive) RecentHistory(ctx context.Context, limit int) ([]game.HistoryEntry, error) {
	if limit <= 0 || limit > historyLength {
		limit = historyLength
	}
	raw, err := a.client.LRange(ctx, historyKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	history := make([]game.HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var e game.HistoryEntry
		if json.Unmarshal([]byte(item), &e) == nil {
			history = append(history, e)
		}
	}
	return history, nil
}

func roundKey(roundID int64) string {
	return fmt.Sprintf("%s%d", roundKeyPrefix, roundID)
}
