package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// RoomPage is the in-room client. It speaks cues aloud with the browser's
// speech synthesis and renders whatever view the server projects.
func RoomPage(data RoomPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		code := ""
		if data.Private && data.JoinCode != "" {
			code = `<span class="tag">Code ` + esc(data.JoinCode) + `</span>`
		}
		_, _ = io.WriteString(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Spelling Hive · `+esc(data.Difficulty)+`</title>
    <link rel="stylesheet" href="`+assetPath("/static/styles.css")+`"/>
  </head>
  <body data-room-id="`+esc(data.RoomID)+`">
    <main class="shell">
      <header class="hero">
        <span class="tag" id="difficultyTag">`+esc(data.Difficulty)+`</span>
        `+code+`
        <h1 id="headline">Waiting for players</h1>
        <p id="subline"></p>
      </header>

      <section class="panel">
        <div class="stage">
          <div id="timer" class="timer"></div>
          <div id="streak" class="streak"></div>
          <div id="wordSlots" class="slots"></div>
          <div id="spectator" class="spectator"></div>
        </div>
        <form id="answerForm">
          <input id="answer" type="text" autocomplete="off" spellcheck="false" maxlength="64" disabled/>
          <button class="primary" type="submit" id="submitAnswer" disabled>Submit</button>
          <button type="button" id="replay">Replay word</button>
        </form>
        <div id="result" class="result"></div>
      </section>

      <section class="panel" id="hostControls" hidden>
        <label>Next round difficulty
          <input id="nextDifficulty" type="text" placeholder="e.g. heated"/>
        </label>
        <button id="queueDifficulty">Queue</button>
        <button id="skipIntermission">Start next round</button>
      </section>

      <section class="panel">
        <h2>Players</h2>
        <ul id="players" class="list"></ul>
        <h3>Connected</h3>
        <ul id="roster" class="list"></ul>
      </section>

      <section class="panel">
        <h2>Chat</h2>
        <ul id="chat" class="list chat"></ul>
        <form id="chatForm">
          <input id="chatText" type="text" maxlength="280"/>
          <button type="submit">Send</button>
        </form>
      </section>
    </main>
    <script>
      const roomId = document.body.dataset.roomId;
      const userId = localStorage.getItem("hive:userId") || crypto.randomUUID();
      localStorage.setItem("hive:userId", userId);
      const name = localStorage.getItem("hive:name") || "";
      const answer = document.getElementById("answer");
      const submit = document.getElementById("submitAnswer");
      let lastCue = null;
      let view = null;
      let socket = null;

      function speak(cue) {
        if (!cue || !window.speechSynthesis) {
          return;
        }
        window.speechSynthesis.cancel();
        const word = new SpeechSynthesisUtterance(cue.word);
        window.speechSynthesis.speak(word);
        if (cue.definition) {
          window.speechSynthesis.speak(new SpeechSynthesisUtterance(cue.definition));
        }
      }

      function send(type, text, token) {
        if (socket && socket.readyState === WebSocket.OPEN) {
          socket.send(JSON.stringify({ type: type, text: text || "", token: token || "" }));
        }
      }

      function list(id, items, render) {
        const el = document.getElementById(id);
        el.innerHTML = "";
        items.forEach((item) => {
          const li = document.createElement("li");
          li.textContent = render(item);
          el.appendChild(li);
        });
      }

      function render(v) {
        view = v;
        const headline = document.getElementById("headline");
        const subline = document.getElementById("subline");
        if (v.phase === "waiting") {
          headline.textContent = "Waiting for players";
          subline.textContent = "";
        } else if (v.phase === "intermission") {
          headline.textContent = v.winnerName ? v.winnerName + " wins!" : "Round over";
          subline.textContent = "Next round in " + Math.ceil(v.intermissionRemaining) + "s";
        } else if (v.phase === "finished") {
          headline.textContent = "Room closed";
          subline.textContent = "";
        } else if (v.waiting) {
          headline.textContent = "Spectating";
          subline.textContent = "You will play from the next round.";
        } else if (v.isMyTurn) {
          headline.textContent = "Your turn";
          subline.textContent = "";
        } else {
          headline.textContent = (v.currentTurnName || "Someone") + " is spelling";
          subline.textContent = "";
        }
        document.getElementById("difficultyTag").textContent = v.difficulty;
        document.getElementById("streak").textContent = v.streak ? "Streak " + v.streak : "";
        document.getElementById("timer").textContent = v.hasWord ? Math.ceil(v.remainingSeconds) + "s" : "";
        document.getElementById("wordSlots").textContent = v.hasWord ? "_ ".repeat(v.wordLength).trim() : "";
        document.getElementById("spectator").textContent = v.isMyTurn ? "" : (v.spectatorInput || "");
        answer.disabled = !v.isMyTurn;
        submit.disabled = !v.isMyTurn;
        document.getElementById("hostControls").hidden = !(v.isHost && v.visibility === "private");
        list("players", v.players || [], (p) => {
          const marks = [];
          if (p.isHost) marks.push("host");
          if (p.status !== "alive") marks.push(p.status);
          return p.name + " · " + p.score + (marks.length ? " (" + marks.join(", ") + ")" : "");
        });
        list("chat", v.chat || [], (m) => (m.type === "server" ? "" : m.sender + ": ") + m.text);
      }

      function connect() {
        const proto = location.protocol === "https:" ? "wss://" : "ws://";
        socket = new WebSocket(proto + location.host + "/ws/rooms/" + encodeURIComponent(roomId) +
          "?userId=" + encodeURIComponent(userId) + "&name=" + encodeURIComponent(name));
        socket.onmessage = (event) => {
          const msg = JSON.parse(event.data);
          if (msg.type === "view") {
            render(msg.view);
          } else if (msg.type === "cue") {
            lastCue = msg;
            speak(msg);
          } else if (msg.type === "presence") {
            list("roster", msg.roster || [], (r) => r.name + (r.title ? " · " + r.title : ""));
          } else if (msg.type === "result") {
            const r = msg.result;
            document.getElementById("result").textContent = r.correct
              ? "Correct! " + Math.round(r.wpm) + " wpm"
              : "The word was " + r.word;
          } else if (msg.type === "error") {
            document.getElementById("result").textContent = msg.error;
          } else if (msg.type === "closed") {
            window.location.href = "/";
          }
        };
        socket.onclose = () => {
          if (!view || view.phase !== "finished") {
            setTimeout(connect, 1500);
          }
        };
      }

      answer.addEventListener("input", () => send("input", answer.value));
      document.getElementById("answerForm").addEventListener("submit", (event) => {
        event.preventDefault();
        send("answer", answer.value, view ? view.turnToken : "");
        answer.value = "";
      });
      document.getElementById("replay").addEventListener("click", () => speak(lastCue));
      document.getElementById("chatForm").addEventListener("submit", (event) => {
        event.preventDefault();
        const input = document.getElementById("chatText");
        send("chat", input.value);
        input.value = "";
      });
      document.getElementById("queueDifficulty").addEventListener("click", () => {
        send("difficulty", document.getElementById("nextDifficulty").value.trim().toLowerCase());
      });
      document.getElementById("skipIntermission").addEventListener("click", () => send("skip"));
      setInterval(() => send("ping"), 20000);
      connect();
    </script>
  </body>
</html>
`)
		return nil
	})
}
