package room

import (
	"time"

	"spelling-hive/internal/profile"
)

// admit inserts or refreshes a player. A returning identity keeps its
// score and join position; its status is always recomputed from the
// room phase so a stale elimination never carries over.
// A nil stats keeps whatever was mirrored before.
func admit(room *Room, who Identity, stats *profile.Profile, now time.Time) (*Player, bool) {
	status := StatusConnected
	if room.MidRound() {
		status = StatusSpectating
	}
	if existing, ok := room.Player(who.ID); ok {
		existing.Status = status
		if who.Name != "" {
			existing.Name = who.Name
		}
		mirrorStats(existing, stats)
		return existing, true
	}
	room.Players = append(room.Players, Player{
		ID:       who.ID,
		Name:     who.Name,
		IsHost:   who.ID == room.HostID,
		Status:   status,
		JoinedAt: now,
	})
	added := &room.Players[len(room.Players)-1]
	mirrorStats(added, stats)
	return added, false
}

func mirrorStats(p *Player, stats *profile.Profile) {
	if stats == nil {
		return
	}
	p.Corrects = stats.Corrects
	p.Wins = stats.Wins
	p.Title = stats.Title
}

func markDisconnected(room *Room, playerID string) (*Player, error) {
	p, ok := room.Player(playerID)
	if !ok {
		return nil, ErrPlayerNotFound
	}
	p.Status = StatusDisconnected
	if room.GameState.CurrentTurnPlayerID == playerID {
		room.GameState.CurrentInput = ""
	}
	return p, nil
}

// reviveAll is the round-boundary transition: everyone still present
// becomes connected again, spectators included.
func reviveAll(room *Room) {
	for i := range room.Players {
		if room.Players[i].Status == StatusDisconnected {
			continue
		}
		room.Players[i].Status = StatusConnected
	}
}
