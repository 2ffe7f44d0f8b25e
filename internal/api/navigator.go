package api

import (
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jbattja/fugata-sub001/internal/core"
)

// htmlNavigator performs the browser-level leg of a redirect: a 302 for GET
// actions and a self-submitting form page for POST actions, mirroring how
// payment partners expect to be entered.
type htmlNavigator struct {
	w http.ResponseWriter
	r *http.Request
}

func (n *htmlNavigator) RedirectGET(url string) error {
	http.Redirect(n.w, n.r, url, http.StatusFound)
	return nil
}

func (n *htmlNavigator) SubmitForm(url string, data core.FormData) error {
	n.w.Header().Set("Content-Type", "text/html; charset=utf-8")
	n.w.WriteHeader(http.StatusOK)
	return autoPostPage.Execute(n.w, map[string]any{
		"URL":  url,
		"Data": data,
	})
}

// renderErrorPage shows the shopper a terminal page. The message never
// carries causes or internals; the correlation id is included so support can
// find the server-side log line.
func renderErrorPage(w http.ResponseWriter, r *http.Request, msg string, status int) {
	correlationID, _ := r.Context().Value("correlation_id").(string)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := errorPage.Execute(w, map[string]any{
		"Message":       msg,
		"CorrelationID": correlationID,
	}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to render error page")
	}
}

var autoPostPage = template.Must(template.New("autopost").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Redirecting&hellip;</title>
</head>
<body onload="document.forms[0].submit()">
<form method="POST" action="{{.URL}}">
{{- range .Data}}
<input type="hidden" name="{{.Name}}" value="{{.Value}}">
{{- end}}
<noscript><button type="submit">Continue to payment</button></noscript>
</form>
</body>
</html>
`))

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Payment redirect</title>
</head>
<body>
<h1>We could not complete your redirect</h1>
<p>{{.Message}}</p>
<p><a href="javascript:history.back()">Go back</a> and try again, or contact the shop you were paying.</p>
{{- if .CorrelationID}}
<p><small>Reference: {{.CorrelationID}}</small></p>
{{- end}}
</body>
</html>
`))
