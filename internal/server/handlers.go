package server

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"crash/internal/game"
)

func (s *FiberServer) healthHandler(c *fiber.Ctx) error {
	health := fiber.Map{
		"game": fiber.Map{
			"status":            "running",
			"connected_clients": s.hub.ClientCount(),
			"round_status":      s.scheduler.State().Status,
		},
	}
	if s.db != nil {
		health["database"] = s.db.Health()
	} else {
		health["database"] = fiber.Map{"status": "disabled"}
	}
	if s.cache != nil {
		health["cache"] = s.cache.Health()
	} else {
		health["cache"] = fiber.Map{"status": "disabled"}
	}
	return c.JSON(health)
}

func (s *FiberServer) getGameStateHandler(c *fiber.Ctx) error {
	return c.JSON(s.scheduler.State())
}

func (s *FiberServer) getGameHistoryHandler(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultHistoryLimit)
	if limit <= 0 || limit > 100 {
		limit = defaultHistoryLimit
	}
	history, err := s.gameHistory(c.Context(), limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "history unavailable"})
	}
	return c.JSON(history)
}

func (s *FiberServer) placeBetHandler(c *fiber.Ctx) error {
	var req game.BetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.UserID <= 0 || req.Amount <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "user id and amount are required"})
	}

	resp := s.scheduler.PlaceBet(req)
	if !resp.Success {
		return c.Status(400).JSON(resp)
	}
	return c.JSON(resp)
}

func (s *FiberServer) cashoutHandler(c *fiber.Ctx) error {
	var req game.CashoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.UserID <= 0 || req.BetID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "user id and bet id are required"})
	}

	resp := s.scheduler.Cashout(req)
	if !resp.Success {
		return c.Status(400).JSON(resp)
	}
	return c.JSON(resp)
}

func (s *FiberServer) getUserBetsHandler(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("userId"), 10, 64)
	if err != nil || userID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid user id"})
	}
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	bets, err := s.store.GetUserBets(c.Context(), userID, limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "could not load bets"})
	}
	return c.JSON(bets)
}

func (s *FiberServer) getSettingsHandler(c *fiber.Ctx) error {
	settings, err := s.store.GetSettings(c.Context())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "could not load settings"})
	}
	return c.JSON(settings)
}

// updateSettingsHandler applies a partial settings update. Changes take
// effect at the next round; the running round keeps the values it started
// with.
func (s *FiberServer) updateSettingsHandler(c *fiber.Ctx) error {
	var req struct {
		MinBet        *float64 `json:"minBet"`
		MaxBet        *float64 `json:"maxBet"`
		HouseEdge     *float64 `json:"houseEdge"`
		MaxMultiplier *float64 `json:"maxMultiplier"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	settings, err := s.store.GetSettings(c.Context())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "could not load settings"})
	}
	if req.MinBet != nil {
		settings.MinBet = *req.MinBet
	}
	if req.MaxBet != nil {
		settings.MaxBet = *req.MaxBet
	}
	if req.HouseEdge != nil {
		settings.HouseEdge = *req.HouseEdge
	}
	if req.MaxMultiplier != nil {
		settings.MaxMultiplier = *req.MaxMultiplier
	}

	if settings.MinBet <= 0 || settings.MaxBet < settings.MinBet {
		return c.Status(400).JSON(fiber.Map{"error": "invalid bet limits"})
	}
	if settings.HouseEdge <= 0 || settings.HouseEdge >= 100 {
		return c.Status(400).JSON(fiber.Map{"error": "house edge must be a percentage in (0, 100)"})
	}
	if settings.MaxMultiplier < game.MinMultiplier {
		return c.Status(400).JSON(fiber.Map{"error": "max multiplier must be at least 1.00"})
	}

	updated, err := s.store.UpdateSettings(c.Context(), settings)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "could not update settings"})
	}
	return c.JSON(updated)
}

func (s *FiberServer) getOverrideHandler(c *fiber.Ctx) error {
	multiplier, armed := s.scheduler.OverrideStatus()
	resp := fiber.Map{"armed": armed}
	if armed {
		resp["crashPoint"] = multiplier
	}
	return c.JSON(resp)
}

func (s *FiberServer) armOverrideHandler(c *fiber.Ctx) error {
	var req struct {
		CrashPoint float64 `json:"crashPoint"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := s.scheduler.ArmOverride(req.CrashPoint); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"armed": true, "crashPoint": req.CrashPoint})
}

func (s *FiberServer) disarmOverrideHandler(c *fiber.Ctx) error {
	s.scheduler.DisarmOverride()
	return c.JSON(fiber.Map{"armed": false})
}
