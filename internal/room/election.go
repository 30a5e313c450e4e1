package room

// IsDriver decides, from a snapshot alone, whether selfID is the client
// responsible for writing round-state mutations.
//
// The host drives whenever it is present. Without a connected host the
// first non-disconnected player in join order drives. Two clients may
// briefly disagree while membership is changing; the next snapshot
// settles it.
func IsDriver(hostID string, players []Player, selfID string) bool {
	if selfID == "" {
		return false
	}
	if selfID == hostID {
		return true
	}
	for _, p := range players {
		if p.ID == hostID && p.Status != StatusDisconnected {
			return false
		}
	}
	for _, p := range players {
		if p.Status == StatusDisconnected {
			continue
		}
		return p.ID == selfID
	}
	return false
}

// DriverID returns the player IsDriver would pick, or "" when nobody qualifies.
func DriverID(room *Room) string {
	if room == nil {
		return ""
	}
	for _, p := range room.Players {
		if p.ID == room.HostID && p.Status != StatusDisconnected {
			return p.ID
		}
	}
	for _, p := range room.Players {
		if p.Status != StatusDisconnected {
			return p.ID
		}
	}
	return ""
}
