package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const pageStyle = `body{font-family:sans-serif;max-width:28rem;margin:4rem auto;padding:0 1rem}` +
	`label{display:block;margin-top:1rem}input{width:100%;padding:.4rem}` +
	`button{margin-top:1.5rem;padding:.5rem 1rem}.error{color:#b00020}`

// writer collects the first write error so pages can be written top-down.
type writer struct {
	w   io.Writer
	err error
}

func (p *writer) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *writer) text(s string) {
	p.raw(templ.EscapeString(s))
}

func layout(title string, body func(p *writer)) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &writer{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`)
		p.text(title)
		p.raw(`</title><style>` + pageStyle + `</style></head><body>`)
		body(p)
		p.raw(`</body></html>`)
		return p.err
	})
}

// LoginPage renders the sign-in form. ReturnURL is posted back unchanged.
func LoginPage(props LoginPageProps) templ.Component {
	return layout("Sign in", func(p *writer) {
		p.raw(`<h1>Sign in</h1>`)
		if props.Error != "" {
			p.raw(`<p class="error" role="alert">`)
			p.text(props.Error)
			p.raw(`</p>`)
		}
		p.raw(`<form method="post" action="">`)
		p.raw(`<input type="hidden" name="csrf_token" value="`)
		p.text(props.CSRFToken)
		p.raw(`"><input type="hidden" name="ReturnUrl" value="`)
		p.text(props.ReturnURL)
		p.raw(`"><label for="username">Username</label>`)
		p.raw(`<input id="username" name="username" autocomplete="username" required value="`)
		p.text(props.Username)
		p.raw(`"><label for="password">Password</label>`)
		p.raw(`<input id="password" name="password" type="password" autocomplete="current-password" required>`)
		p.raw(`<button type="submit">Sign in</button></form>`)
	})
}

// HomePage shows who is signed in.
func HomePage(props HomePageProps) templ.Component {
	return layout("oidcgate", func(p *writer) {
		p.raw(`<h1>oidcgate</h1><p>Issuer: <code>`)
		p.text(props.Issuer)
		p.raw(`</code></p>`)
		if props.UserName == "" {
			p.raw(`<p>You are not signed in. <a href="/account/login">Sign in</a></p>`)
			return
		}
		p.raw(`<p>Signed in as <strong>`)
		p.text(props.UserName)
		p.raw(`</strong>.</p><form method="post" action="/connect/logout">`)
		p.raw(`<button type="submit">Sign out</button></form>`)
	})
}
