package server

// homePage is a minimal chat page for trying the concierge from a
// browser. It speaks the WebSocket frame format directly.
const homePage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>SkinBuddy</title>
<style>
body { font-family: sans-serif; max-width: 640px; margin: 2rem auto; }
#log { border: 1px solid #ccc; padding: 1rem; height: 360px; overflow-y: auto; }
.user { color: #333; }
.bot { color: #06c; }
.question { color: #960; }
#input { width: 80%; }
</style>
</head>
<body>
<h1>SkinBuddy</h1>
<div id="log"></div>
<p><input id="input" placeholder="Ask about products, routines, ingredients, reminders..."><button id="send">Send</button></p>
<script>
const userId = "web_" + Math.random().toString(36).slice(2, 10);
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws/" + userId);
const log = document.getElementById("log");
const input = document.getElementById("input");

function append(cls, text) {
  const p = document.createElement("p");
  p.className = cls;
  p.textContent = text;
  log.appendChild(p);
  log.scrollTop = log.scrollHeight;
}

ws.onmessage = (ev) => {
  const frame = JSON.parse(ev.data);
  append(frame.type === "question" ? "question" : "bot", frame.text || "(no message)");
};

function send() {
  const text = input.value.trim();
  if (!text) return;
  append("user", text);
  ws.send(text);
  input.value = "";
}

document.getElementById("send").onclick = send;
input.addEventListener("keydown", (ev) => { if (ev.key === "Enter") send(); });
</script>
</body>
</html>
`
