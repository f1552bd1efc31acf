package server

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"crash/internal/game"
)

const defaultHistoryLimit = 10

func (s *FiberServer) RegisterFiberRoutes() {
	s.App.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Accept,Authorization,Content-Type",
		AllowCredentials: false, // credentials require explicit origins
		MaxAge:           300,
	}))

	s.App.Get("/health", s.healthHandler)

	api := s.App.Group("/api/v1")

	api.Get("/game/state", s.getGameStateHandler)
	api.Get("/game/history", s.getGameHistoryHandler)
	api.Post("/game/bet", s.placeBetHandler)
	api.Post("/game/cashout", s.cashoutHandler)
	api.Get("/user/:userId/bets", s.getUserBetsHandler)

	admin := api.Group("/admin")
	admin.Get("/settings", s.getSettingsHandler)
	admin.Patch("/settings", s.updateSettingsHandler)
	admin.Get("/override", s.getOverrideHandler)
	admin.Post("/override", s.armOverrideHandler)
	admin.Delete("/override", s.disarmOverrideHandler)

	s.App.Get("/ws", websocket.New(s.gameWebSocketHandler))
}

// gameWebSocketHandler serves one client connection: pushes the current
// snapshot on connect, then routes inbound commands to the scheduler.
func (s *FiberServer) gameWebSocketHandler(conn *websocket.Conn) {
	userID, _ := strconv.ParseInt(conn.Query("user_id", "0"), 10, 64)

	sub := s.hub.Register(conn, userID)
	defer s.hub.Unregister(sub)

	sub.Send(game.Message{Type: "gameState", Data: s.scheduler.State()})
	sub.Send(game.Message{Type: "liveBets", Data: s.scheduler.LiveBets()})
	if history, err := s.gameHistory(context.Background(), defaultHistoryLimit); err == nil {
		sub.Send(game.Message{Type: "gameHistory", Data: history})
	}

	for {
		messageType, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			sub.Send(errorMessage("invalid message format"))
			continue
		}

		switch msg.Type {
		case "placeBet":
			s.wsPlaceBet(sub, msg.Data)
		case "cashOut":
			s.wsCashOut(sub, msg.Data)
		case "getGameHistory":
			s.wsGameHistory(sub, msg.Data)
		case "ping":
			sub.Send(game.Message{Type: "pong"})
		default:
			sub.Send(errorMessage("unknown message type"))
		}
	}
}

func (s *FiberServer) wsPlaceBet(sub *game.Subscriber, data json.RawMessage) {
	var req game.BetRequest
	if err := json.Unmarshal(data, &req); err != nil {
		sub.Send(errorMessage("invalid bet data"))
		return
	}
	if req.UserID <= 0 || req.Amount <= 0 {
		sub.Send(errorMessage("invalid bet data"))
		return
	}

	resp := s.scheduler.PlaceBet(req)
	if !resp.Success {
		sub.Send(errorMessage(resp.Message))
		return
	}
	sub.Send(game.Message{Type: "betPlaced", Data: resp.Bet})
}

func (s *FiberServer) wsCashOut(sub *game.Subscriber, data json.RawMessage) {
	var req game.CashoutRequest
	if err := json.Unmarshal(data, &req); err != nil {
		sub.Send(errorMessage("invalid cashout data"))
		return
	}
	if req.UserID <= 0 || req.BetID <= 0 {
		sub.Send(errorMessage("invalid cashout data"))
		return
	}

	resp := s.scheduler.Cashout(req)
	if !resp.Success {
		sub.Send(errorMessage(resp.Message))
		return
	}
	sub.Send(game.Message{Type: "cashoutSuccess", Data: resp})
}

func (s *FiberServer) wsGameHistory(sub *game.Subscriber, data json.RawMessage) {
	limit := defaultHistoryLimit
	if len(data) > 0 {
		var req struct {
			Limit int `json:"limit"`
		}
		if json.Unmarshal(data, &req) == nil && req.Limit > 0 {
			limit = req.Limit
		}
	}

	history, err := s.gameHistory(context.Background(), limit)
	if err != nil {
		sub.Send(errorMessage("history unavailable"))
		return
	}
	sub.Send(game.Message{Type: "gameHistory", Data: history})
}

// gameHistory prefers the Redis archive and falls back to the database.
func (s *FiberServer) gameHistory(ctx context.Context, limit int) ([]game.HistoryEntry, error) {
	if s.archive != nil {
		history, err := s.archive.RecentHistory(ctx, limit)
		if err == nil && len(history) > 0 {
			return history, nil
		}
		if err != nil {
			log.Printf("[SERVER] history cache read failed: %v", err)
		}
	}
	return s.store.GetGameHistory(ctx, limit)
}

func errorMessage(msg string) game.Message {
	return game.Message{Type: "error", Data: map[string]string{"message": msg}}
}
