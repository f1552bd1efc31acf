package game

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
)

const MinMultiplier = 1.00

// Generator produces the terminal multiplier for a round. It is purely
// computational: no storage access, so it can be audited in isolation.
//
// An operator may arm a one-shot override; the next round consumes it and
// every round after that reverts to random generation.
type Generator struct {
	mu       sync.Mutex
	source   func() float64 // uniform in [0,1)
	override float64        // 0 = disarmed
}

func NewGenerator() *Generator {
	return &Generator{source: cryptoFloat}
}

// NewGeneratorWithSource injects the randomness source. Tests use this to
// pin the drawn value.
func NewGeneratorWithSource(source func() float64) *Generator {
	return &Generator{source: source}
}

// Generate draws the crash point for a new round. houseEdge is a fraction in
// (0,1); cap is the settings max multiplier. The result is always in
// [1.00, cap] and carries exactly two decimals.
func (g *Generator) Generate(houseEdge, cap float64) float64 {
	g.mu.Lock()
	if g.override >= MinMultiplier {
		v := g.override
		g.override = 0
		g.mu.Unlock()
		return clampMultiplier(roundMultiplier(v), cap)
	}
	source := g.source
	g.mu.Unlock()

	r := source()
	for r == 0 {
		r = source()
	}
	raw := 0.99 / math.Pow(r, 1/(1-houseEdge))
	return clampMultiplier(roundMultiplier(raw), cap)
}

// Arm sets a one-shot manual crash point for the next round.
func (g *Generator) Arm(multiplier float64) error {
	if multiplier < MinMultiplier {
		return fmt.Errorf("crash point must be at least %.2f", MinMultiplier)
	}
	g.mu.Lock()
	g.override = multiplier
	g.mu.Unlock()
	return nil
}

// Disarm clears a pending override without consuming it.
func (g *Generator) Disarm() {
	g.mu.Lock()
	g.override = 0
	g.mu.Unlock()
}

// Armed reports the pending override, if any.
func (g *Generator) Armed() (float64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.override, g.override >= MinMultiplier
}

func clampMultiplier(v, cap float64) float64 {
	if v < MinMultiplier {
		return MinMultiplier
	}
	if v > cap {
		return cap
	}
	return v
}

// roundMultiplier rounds to cents-of-multiplier. Display and settlement both
// use this precision.
func roundMultiplier(v float64) float64 {
	return round2(v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// cryptoFloat returns a uniform value in [0,1) backed by crypto/rand.
func cryptoFloat() float64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return float64(binary.BigEndian.Uint64(b[:])>>11) / float64(1<<53)
}
