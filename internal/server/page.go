package server

import (
	"html/template"
	"strings"
)

type pageData struct {
	MaxUploadMB int
	Accept      string
}

func acceptList(exts []string) string {
	out := make([]string, len(exts))
	for i, e := range exts {
		out[i] = "." + strings.TrimPrefix(strings.ToLower(e), ".")
	}
	return strings.Join(out, ",")
}

var pageTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Document Search</title>
<style>
body { font-family: sans-serif; max-width: 860px; margin: 2rem auto; color: #222; }
section { border: 1px solid #ddd; border-radius: 6px; padding: 1rem; margin-bottom: 1rem; }
.result { border-top: 1px solid #eee; padding: .5rem 0; }
.score { color: #666; font-size: .9rem; }
.High { color: #2a7; } .Medium { color: #c80; } .Low { color: #c33; }
#status.error { color: #c33; }
</style>
</head>
<body>
<h1>Document Search</h1>
<section>
  <form id="upload">
    <input type="file" name="file" accept="{{.Accept}}">
    <button type="submit">Upload</button>
    <small>max {{.MaxUploadMB}} MB</small>
  </form>
</section>
<section>
  <form id="search">
    <input type="text" name="query" size="60" placeholder="Ask something about the document">
    <button type="submit">Search</button>
  </form>
  <div id="results"></div>
</section>
<div id="status"></div>
<script>
const status = (msg, ok) => {
  const el = document.getElementById('status');
  el.textContent = msg;
  el.className = ok ? '' : 'error';
};
document.getElementById('upload').addEventListener('submit', async (ev) => {
  ev.preventDefault();
  const res = await fetch('/upload', { method: 'POST', body: new FormData(ev.target) });
  const data = await res.json();
  status(data.message, data.success);
});
document.getElementById('search').addEventListener('submit', async (ev) => {
  ev.preventDefault();
  const query = new FormData(ev.target).get('query');
  const res = await fetch('/search', {
    method: 'POST',
    headers: { 'Content-Type': 'application/json' },
    body: JSON.stringify({ query }),
  });
  const data = await res.json();
  status(data.message, data.success);
  const box = document.getElementById('results');
  box.innerHTML = '';
  (data.results || []).forEach((r) => {
    const div = document.createElement('div');
    div.className = 'result';
    const head = document.createElement('div');
    head.className = 'score';
    head.textContent = '#' + r.rank + ' chunk ' + r.chunk_id +
      (r.page_number ? ' page ' + r.page_number : '') + ' score ' + r.similarity_score + ' ';
    const conf = document.createElement('span');
    conf.className = r.confidence;
    conf.textContent = r.confidence;
    head.appendChild(conf);
    const body = document.createElement('p');
    body.textContent = r.text;
    div.append(head, body);
    box.appendChild(div);
  });
});
</script>
</body>
</html>
`))
