// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dev

// devPageHTML Dev Page（single page，不做 templating）。
//
// UI 行為：
//   - Seed/Snap 互斥：一邊有值，另一邊 disable；後端同樣以 Snap 為準。
//   - Rounds 前端 cap：Rounds 5,000；Sim 3,000,000。
//   - 點選逐局列表會顯示該局 raw JSON，並可把 snap_before 填回 Snap 重現。
const devPageHTML = `<!doctype html>
<html lang="zh-Hant">
<head>
  <meta charset="utf-8" />
  <link rel="icon" type="image/svg+xml" href="/favicon.svg" />
  <title>LottoLab Dev</title>
  <style>
    body { font-family: -apple-system,BlinkMacSystemFont,"Segoe UI",sans-serif; background:#0f172a; color:#e2e8f0; margin:0; }
    .wrap { max-width: 980px; margin: 24px auto; padding: 16px 20px; background:#111827; border:1px solid #1f2937; border-radius:12px; }
    h1 { margin: 0 0 16px; font-size: 22px; }
    .grid { display:grid; grid-template-columns: repeat(auto-fit, minmax(180px,1fr)); gap:12px; margin-bottom:12px; }
    label { display:flex; flex-direction:column; gap:6px; font-size: 13px; color:#cbd5e1; }
    input { background:#0b1224; color:#e2e8f0; border:1px solid #1f2738; border-radius:8px; padding:10px 12px; font-size:14px; }
    input:disabled { opacity: 0.55; cursor: not-allowed; }
    .actions { display:flex; gap:10px; justify-content:flex-end; margin: 8px 0 14px; }
    button { cursor:pointer; border:none; border-radius:10px; padding:10px 14px; font-weight:600; }
    #btn-rounds { background:#38bdf8; color:#0b1224; }
    #btn-sim { background:#22c55e; color:#0b1224; }
    #btn-clear { background:#1f2937; color:#e2e8f0; border:1px solid #334155; }
    pre { background:#0b1224; border:1px solid #1f2738; border-radius:8px; padding:12px; overflow:auto; max-height:420px; font-size:12px; }
    ul { list-style:none; padding:0; max-height:240px; overflow:auto; }
    li { cursor:pointer; padding:4px 8px; border-bottom:1px solid #1f2937; font-family:monospace; font-size:12px; }
    li:hover { background:#1e293b; }
  </style>
</head>
<body>
<div class="wrap">
  <h1>LottoLab Dev</h1>
  <pre id="meta">loading...</pre>
  <div class="grid">
    <label>Rounds<input id="rounds" type="number" min="1" value="10" /></label>
    <label>Tickets<input id="tickets" type="number" min="1" value="1" /></label>
    <label>Seed<input id="seed" placeholder="auto" /></label>
    <label>Snap<input id="snap" placeholder="base64url" /></label>
  </div>
  <div class="actions">
    <button id="btn-clear">Clear</button>
    <button id="btn-rounds">Rounds</button>
    <button id="btn-sim">Sim</button>
  </div>
  <ul id="list"></ul>
  <pre id="out"></pre>
</div>
<script>
const $ = (id) => document.getElementById(id);
let last = null;

function syncInputLocks() {
  $("seed").disabled = $("snap").value.trim() !== "";
  $("snap").disabled = !$("seed").disabled && $("seed").value.trim() !== "";
}

function payload(cap) {
  return {
    rounds: Math.min(parseInt($("rounds").value || "0", 10), cap),
    tickets: parseInt($("tickets").value || "1", 10),
    seed: $("seed").value.trim(),
    snap: $("snap").value.trim(),
  };
}

async function post(path, body) {
  const res = await fetch(path, { method: "POST", headers: { "Content-Type": "application/json" }, body: JSON.stringify(body) });
  const data = await res.json().catch(() => ({ error: res.statusText }));
  if (!res.ok) { throw new Error(JSON.stringify(data)); }
  return data;
}

async function loadMeta() {
  const res = await fetch("/dev/meta");
  $("meta").textContent = JSON.stringify(await res.json(), null, 2);
}

async function runRounds() {
  try {
    last = await post("/dev/rounds", payload(5000));
    $("list").innerHTML = "";
    last.results.forEach((r, i) => {
      const li = document.createElement("li");
      li.textContent = "#" + r.round + "  drawn=" + r.result.drawnNumbers.join(",") + "  prize=" + r.result.totalPrize;
      li.onclick = () => {
        $("out").textContent = JSON.stringify(r, null, 2);
        $("snap").value = r.snap_before;
        syncInputLocks();
      };
      $("list").appendChild(li);
    });
    $("out").textContent = JSON.stringify(last.stats, null, 2);
  } catch (e) { $("out").textContent = e.message; }
}

async function runSim() {
  try {
    const data = await post("/dev/sim", payload(3000000));
    $("list").innerHTML = "";
    $("out").textContent = JSON.stringify(data, null, 2);
  } catch (e) { $("out").textContent = e.message; }
}

$("seed").oninput = syncInputLocks;
$("snap").oninput = syncInputLocks;
$("btn-rounds").onclick = runRounds;
$("btn-sim").onclick = runSim;
$("btn-clear").onclick = () => {
  $("seed").value = ""; $("snap").value = ""; $("list").innerHTML = ""; $("out").textContent = "";
  syncInputLocks();
};
syncInputLocks();
loadMeta();
</script>
</body>
</html>`
