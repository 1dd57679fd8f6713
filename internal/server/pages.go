package server

import (
	"html/template"
	"net/http"

	"github.com/bpollino/angelina-jail-activity-automation/internal/config"
	"github.com/bpollino/angelina-jail-activity-automation/internal/fixtures"
)

var indexPage = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Jail Activity Preview</title>
</head>
<body style="font-family: sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem;">
<h1>Jail Activity Preview</h1>
<p>Articles below are rendered from fixture bookings for {{.Date}}.</p>
<ul>
{{range .Scenarios}}<li><a href="/preview?scenario={{.}}">{{.}}</a> · <a href="/preview?scenario={{.}}&amp;format=lexical">lexical</a></li>
{{end}}</ul>
<h2>API</h2>
<ul>
<li><a href="/api/booking-data">/api/booking-data</a></li>
<li><a href="/api/advertisement-data">/api/advertisement-data</a></li>
<li><a href="/api/generate-preview">/api/generate-preview</a></li>
<li><a href="/healthz">/healthz</a></li>
<li><a href="/metrics">/metrics</a></li>
</ul>
{{if .AdsConfigured}}<p>Advertisement store: configured.</p>{{else}}<p>Advertisement store: not configured; ad workflow endpoints answer 503.</p>{{end}}
</body>
</html>
`))

var previewPage = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}} - Preview</title>
</head>
<body style="font-family: sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem;">
<nav style="margin-bottom: 1rem; font-size: 0.9rem;"><a href="/">All scenarios</a> · scenario <strong>{{.Scenario}}</strong> · {{.Date}} · {{.Format}} · {{.Validation}}</nav>
<h1>{{.Title}}</h1>
<article>
{{if .Lexical}}<pre style="white-space: pre-wrap; word-break: break-all;">{{.Body}}</pre>{{else}}{{.HTML}}{{end}}
</article>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Date":          s.previewDate().Format(config.DateLayout),
		"Scenarios":     fixtures.Names(),
		"AdsConfigured": s.opts.Ads != nil,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := indexPage.Execute(w, data); err != nil {
		s.logger.Error("failed to render index", "error", err)
	}
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	p, perr := s.parsePreviewParams(r)
	if perr != nil {
		http.Error(w, perr.Message, http.StatusBadRequest)
		return
	}

	out, err := s.render(p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Title":      out.Title,
		"Scenario":   out.Scenario,
		"Date":       out.Date,
		"Format":     out.Format,
		"Validation": out.Validation,
		"Lexical":    out.Format == config.FormatLexical,
		"Body":       out.Body,
	}

	// The renderer escapes every record value.
	data["HTML"] = template.HTML(out.Body)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := previewPage.Execute(w, data); err != nil {
		s.logger.Error("failed to render preview", "error", err)
	}
}
