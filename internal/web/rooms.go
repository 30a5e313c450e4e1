package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// PublicRoomList renders the list items for open public rooms. The lobby
// socket replaces them once it connects.
func PublicRoomList(rooms []RoomCard) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(rooms) == 0 {
			_, err := io.WriteString(w, `<li class="empty">No open rooms yet.</li>`)
			return err
		}
		for _, room := range rooms {
			_, err := io.WriteString(w, `<li><a href="/rooms/`+esc(room.ID)+`">`+esc(room.Difficulty)+` · `+
				esc(room.Status)+` · `+itoa(room.Active)+`/`+itoa(room.MaxPlayers)+` players</a></li>`)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
