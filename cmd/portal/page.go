package main

import (
	"html/template"
	"net/http"

	"github.com/dmitrymomot/portalguard/app/portal"
	"github.com/dmitrymomot/portalguard/core/handler"
	"github.com/dmitrymomot/portalguard/core/response"
	"github.com/dmitrymomot/portalguard/middleware"
)

var contactTemplate = template.Must(template.New("contact").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Contact support</title>
<style nonce="{{.Nonce}}">body{font-family:sans-serif;max-width:40rem;margin:2rem auto}</style>
</head>
<body>
<form method="post" action="/api/contact">
<input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
<label>Name <input name="name" required></label>
<label>Email <input name="email" type="email" required></label>
<label>Phone <input name="phone"></label>
<label>Message <textarea name="message" required></textarea></label>
<button type="submit">Send</button>
</form>
<script nonce="{{.Nonce}}">document.querySelector("input[name=name]").focus()</script>
</body>
</html>
`))

type contactView struct {
	CSRFToken string
	Nonce     string
}

func contactPage(ctx portal.Context) handler.Response {
	if ctx.Request().URL.Path != "/" {
		return response.Error(response.ErrNotFound)
	}

	token, _ := middleware.GetCSRFToken(ctx)
	nonce, _ := middleware.GetNonce(ctx)

	return func(w http.ResponseWriter, _ *http.Request) error {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		return contactTemplate.Execute(w, contactView{CSRFToken: token, Nonce: nonce})
	}
}
