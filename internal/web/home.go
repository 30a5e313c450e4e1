package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func Home(modes []ModeCard, rooms []RoomCard) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, _ = io.WriteString(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Spelling Hive</title>
    <link rel="stylesheet" href="`+assetPath("/static/styles.css")+`"/>
  </head>
  <body>
    <main class="shell">
      <header class="hero">
        <span class="tag">Spelling Hive</span>
        <h1>Hear it. Spell it. Outlast everyone.</h1>
        <p>Pick a difficulty, start a private room for friends or drop into a public match.</p>
      </header>

      <section class="panel">
        <label>Your name
          <input id="playerName" type="text" maxlength="20" placeholder="Display name"/>
        </label>
        <label>Difficulty
          <select id="difficulty">
`)
		for _, mode := range modes {
			_, _ = io.WriteString(w, `            <option value="`+esc(mode.Name)+`">`+esc(mode.Name)+` `+stars(mode.Stars)+` (`+itoa(mode.BaseSeconds)+`s)</option>
`)
		}
		_, _ = io.WriteString(w, `          </select>
        </label>
      </section>

      <section class="panel">
        <div>
          <h2>Play</h2>
          <p>Public matches start as soon as a second player arrives.</p>
        </div>
        <button id="playPublic" class="primary">Find a public match</button>
        <button id="createPrivate">Create private room</button>
        <div id="playResult" class="result"></div>
      </section>

      <section class="panel">
        <div>
          <h2>Join with a code</h2>
        </div>
        <input id="joinCode" type="text" maxlength="6" placeholder="ABC123"/>
        <button id="joinByCode">Join</button>
        <div id="joinResult" class="result"></div>
      </section>

      <section class="panel">
        <h2>Open rooms</h2>
        <ul id="lobbyRooms" class="list">`)
		if err := PublicRoomList(rooms).Render(ctx, w); err != nil {
			return err
		}
		_, _ = io.WriteString(w, `</ul>
        <h3>Browsing now</h3>
        <ul id="lobbyRoster" class="list"></ul>
      </section>
    </main>
    <script>
      const userId = localStorage.getItem("hive:userId") || crypto.randomUUID();
      localStorage.setItem("hive:userId", userId);
      const nameInput = document.getElementById("playerName");
      nameInput.value = localStorage.getItem("hive:name") || "";
      const difficulty = document.getElementById("difficulty");
      const playResult = document.getElementById("playResult");
      const joinResult = document.getElementById("joinResult");

      function identity() {
        const name = nameInput.value.trim();
        localStorage.setItem("hive:name", name);
        return { userId: userId, name: name };
      }

      async function post(url, body) {
        const res = await fetch(url, {
          method: "POST",
          headers: { "Content-Type": "application/json" },
          body: JSON.stringify(body)
        });
        const data = await res.json().catch(() => ({}));
        return { ok: res.ok, data: data };
      }

      function enter(roomId) {
        window.location.href = "/rooms/" + encodeURIComponent(roomId);
      }

      document.getElementById("playPublic").addEventListener("click", async () => {
        const res = await post("/api/rooms/public", Object.assign(identity(), { difficulty: difficulty.value }));
        if (!res.ok) {
          playResult.textContent = res.data.error || "Could not find a match.";
          return;
        }
        enter(res.data.roomId);
      });

      document.getElementById("createPrivate").addEventListener("click", async () => {
        const res = await post("/api/rooms", Object.assign(identity(), { difficulty: difficulty.value, visibility: "private" }));
        if (!res.ok) {
          playResult.textContent = res.data.error || "Could not create a room.";
          return;
        }
        enter(res.data.roomId);
      });

      document.getElementById("joinByCode").addEventListener("click", async () => {
        const code = document.getElementById("joinCode").value.trim().toUpperCase();
        const found = await fetch("/api/rooms/code/" + encodeURIComponent(code));
        const info = await found.json().catch(() => ({}));
        if (!found.ok) {
          joinResult.textContent = info.error || "No room with that code.";
          return;
        }
        const res = await post("/api/rooms/" + encodeURIComponent(info.roomId) + "/join", identity());
        if (!res.ok) {
          joinResult.textContent = res.data.error || "Could not join.";
          return;
        }
        enter(info.roomId);
      });

      let lobby = null;
      function connectLobby() {
        if (lobby) {
          lobby.close();
        }
        const proto = location.protocol === "https:" ? "wss://" : "ws://";
        lobby = new WebSocket(proto + location.host + "/ws/lobby/" + encodeURIComponent(difficulty.value) + "?userId=" + encodeURIComponent(userId));
        lobby.onmessage = (event) => {
          const msg = JSON.parse(event.data);
          if (msg.type !== "lobby") {
            return;
          }
          const rooms = document.getElementById("lobbyRooms");
          rooms.innerHTML = "";
          (msg.rooms || []).forEach((room) => {
            const li = document.createElement("li");
            li.textContent = room.status + " · " + room.active + "/" + room.maxPlayers + " players";
            rooms.appendChild(li);
          });
          const roster = document.getElementById("lobbyRoster");
          roster.innerHTML = "";
          (msg.roster || []).forEach((entry) => {
            const li = document.createElement("li");
            li.textContent = entry.name + (entry.title ? " · " + entry.title : "");
            roster.appendChild(li);
          });
        };
      }
      difficulty.addEventListener("change", connectLobby);
      connectLobby();
    </script>
  </body>
</html>
`)
		return nil
	})
}
