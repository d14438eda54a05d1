package core

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

// Scheduler runs fn on the dispatch loop once d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) *clock.Timer
}

// Notifier delivers room-scoped events on behalf of the grid.
type Notifier interface {
	Broadcast(event *Event)
	SendToPlayer(playerID string, event *Event) bool
}

// GridEngine owns one room's grid, its append-only history and the
// per-player cooldown records.
type GridEngine struct {
	roomID    string
	size      int
	grid      Grid
	history   []CellUpdate
	cooldowns map[string]time.Time
	window    time.Duration

	clock clock.Clock
	sched Scheduler
	out   Notifier
	log   *zerolog.Logger
}

func newGridEngine(roomID string, size int, window time.Duration, clk clock.Clock, sched Scheduler, out Notifier, logger *zerolog.Logger) *GridEngine {
	return &GridEngine{
		roomID:    roomID,
		size:      size,
		grid:      NewGrid(size),
		cooldowns: make(map[string]time.Time),
		window:    window,
		clock:     clk,
		sched:     sched,
		out:       out,
		log:       logger,
	}
}

// SubmitCell writes char at (x, y) on behalf of playerID. Rejections are
// reported to the submitter and returned; they never change state.
func (g *GridEngine) SubmitCell(x, y int, char, playerID string) error {
	if !g.grid.Contains(x, y) {
		g.log.Warn().Int("x", x).Int("y", y).Str("player_id", playerID).Msg("invalid cell coordinates")
		ce := wrapCoreError(ErrCodeInvalidCell, "Invalid cell coordinates", ErrInvalidCell)
		g.out.SendToPlayer(playerID, errorEvent(ce))
		return ce
	}

	if remaining := g.RemainingCooldown(playerID); remaining > 0 {
		g.out.SendToPlayer(playerID, &Event{
			Kind:      EventRestrictionActive,
			Message:   "You're still on cooldown.",
			Remaining: remainingMillis(remaining),
		})
		return wrapCoreError(ErrCodeCooldown, "You're still on cooldown.", ErrCooldown)
	}

	now := g.clock.Now()
	g.grid[x][y] = char
	update := CellUpdate{
		X:         x,
		Y:         y,
		Char:      char,
		PlayerID:  playerID,
		Timestamp: now.UnixMilli(),
	}
	g.history = append(g.history, update)
	g.cooldowns[playerID] = now

	g.out.Broadcast(&Event{Kind: EventCellSubmitted, Update: &update})
	g.out.SendToPlayer(playerID, &Event{
		Kind:      EventRestrictionActive,
		Message:   fmt.Sprintf("You're now on cooldown for %d seconds.", int(g.window.Seconds())),
		Remaining: g.window.Milliseconds(),
	})

	// Fire-and-forget: a player who left by then simply misses the notice.
	g.sched.AfterFunc(g.window, func() {
		g.out.SendToPlayer(playerID, &Event{
			Kind:    EventRestrictionDisabled,
			Message: "Cooldown finished! You can play again.",
		})
	})

	g.log.Info().Int("x", x).Int("y", y).Str("player_id", playerID).Msg("cell submitted")
	return nil
}

// RequestTimeTravel rebuilds the grid from every update stamped at or before
// target, in insertion order, and installs it as the live grid.
func (g *GridEngine) RequestTimeTravel(target int64) Grid {
	restored := NewGrid(g.size)
	for _, u := range g.history {
		if u.Timestamp <= target {
			restored[u.X][u.Y] = u.Char
		}
	}
	for i := range g.grid {
		copy(g.grid[i], restored[i])
	}

	g.out.Broadcast(&Event{
		Kind:      EventTimeTravel,
		Grid:      restored,
		Timestamp: target,
	})
	g.log.Info().Int64("timestamp", target).Int("history_len", len(g.history)).Msg("time travel completed")
	return restored.Clone()
}

// GetHistory returns the full log in insertion order.
func (g *GridEngine) GetHistory() []CellUpdate {
	return append([]CellUpdate(nil), g.history...)
}

// GetCurrentState snapshots grid and history for initial synchronisation.
func (g *GridEngine) GetCurrentState() GameState {
	return GameState{
		Grid:      g.grid.Clone(),
		History:   g.GetHistory(),
		Timestamp: g.clock.Now().UnixMilli(),
	}
}

// RemainingCooldown returns how long playerID must still wait. A player
// with no prior submission has none.
func (g *GridEngine) RemainingCooldown(playerID string) time.Duration {
	last, ok := g.cooldowns[playerID]
	if !ok {
		return 0
	}
	remaining := g.window - g.clock.Since(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Size returns the grid edge length.
func (g *GridEngine) Size() int {
	return g.size
}

// remainingMillis truncates to whole milliseconds but never reports zero for
// a cooldown that is still running.
func remainingMillis(d time.Duration) int64 {
	return max(1, d.Milliseconds())
}
