package web

// ModeCard is one difficulty offered on the home page.
type ModeCard struct {
	Name        string
	BaseSeconds int
	Stars       int
}

type RoomPageData struct {
	RoomID     string
	JoinCode   string
	Difficulty string
	Private    bool
}

// RoomCard is one open public room in the server-rendered list.
type RoomCard struct {
	ID         string
	Difficulty string
	Status     string
	Active     int
	MaxPlayers int
}
