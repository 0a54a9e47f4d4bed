package api

import (
	"html/template"
	"net/http"

	"github.com/buildright/sitegate/pkg/access"
	"github.com/buildright/sitegate/pkg/auth"
	"github.com/buildright/sitegate/pkg/middleware"
)

// pageData is the payload for every rendered page.
type pageData struct {
	Title       string
	Identity    *auth.Identity
	CallbackURL string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} | BuildRight Consulting</title>
<link rel="stylesheet" href="/static/site.css">
</head>
<body>
<header>
<nav>
<a href="/">Home</a>
<a href="/services">Services</a>
<a href="/about">About</a>
<a href="/contact">Contact</a>
{{if .Identity}}<a href="` + access.DashboardPath + `">Dashboard</a>{{end}}
</nav>
</header>
<main>
{{block "content" .}}{{end}}
</main>
</body>
</html>`))

var pageContents = map[string]string{
	"home": `{{define "content"}}<h1>BuildRight Consulting</h1>
<p>Structural engineering and construction consulting for commercial and industrial projects.</p>{{end}}`,

	"services": `{{define "content"}}<h1>Services</h1>
<ul>
<li>Structural assessments</li>
<li>Project management</li>
<li>Site surveys and inspections</li>
<li>Permit and compliance consulting</li>
</ul>{{end}}`,

	"about": `{{define "content"}}<h1>About</h1>
<p>Two decades of field experience across warehouses, plants, and mixed-use developments.</p>{{end}}`,

	"contact": `{{define "content"}}<h1>Contact us</h1>
<form id="contact-form" method="post" action="/api/contact">
<label>Name <input name="name" required></label>
<label>Email <input name="email" type="email" required></label>
<label>Phone <input name="phone"></label>
<label>Message <textarea name="message" required></textarea></label>
<button type="submit">Send</button>
</form>{{end}}`,

	"login": `{{define "content"}}<h1>Admin login</h1>
<form id="login-form" method="post" action="/api/auth/login" data-callback="{{.CallbackURL}}">
<label>Email <input name="email" type="email" required></label>
<label>Password <input name="password" type="password" required></label>
<button type="submit">Log in</button>
</form>
<p><a href="/admin/auth/signup">Create an account</a></p>{{end}}`,

	"signup": `{{define "content"}}<h1>Create account</h1>
<form id="signup-form" method="post" action="/api/auth/signup">
<label>Name <input name="name" required></label>
<label>Email <input name="email" type="email" required></label>
<label>Password <input name="password" type="password" required minlength="8"></label>
<button type="submit">Sign up</button>
</form>{{end}}`,

	"unauthorized": `{{define "content"}}<h1>Not authorized</h1>
<p>Your account does not have access to that page.</p>
<p><a href="` + access.DashboardPath + `">Back to dashboard</a></p>{{end}}`,

	"dashboard": `{{define "content"}}<h1>Dashboard</h1>
<p>Signed in as {{.Identity.Email}} ({{.Identity.Role}}).</p>
<ul>
<li><a href="/admin/protected/users">Users</a></li>
<li><a href="/admin/protected/contacts">Contacts</a></li>
<li><a href="/admin/protected/projects">Projects</a></li>
</ul>
<form method="post" action="/api/auth/logout"><button type="submit">Log out</button></form>{{end}}`,

	"users": `{{define "content"}}<h1>Users</h1>
<div id="users" data-endpoint="/api/admin/users"></div>{{end}}`,

	"contacts": `{{define "content"}}<h1>Contact submissions</h1>
<div id="contacts" data-endpoint="/api/admin/contacts"></div>{{end}}`,

	"projects": `{{define "content"}}<h1>Projects</h1>
<div id="projects" data-endpoint="/api/admin/projects"></div>{{end}}`,
}

var pageTemplates = func() map[string]*template.Template {
	pages := make(map[string]*template.Template, len(pageContents))
	for name, content := range pageContents {
		base := template.Must(pageTemplate.Clone())
		pages[name] = template.Must(base.Parse(content))
	}
	return pages
}()

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, name, title string) {
	data := pageData{
		Title:       title,
		Identity:    middleware.IdentityFrom(r),
		CallbackURL: r.URL.Query().Get(access.CallbackParam),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates[name].Execute(w, data); err != nil {
		s.logger.WithError(err).WithField("page", name).Error("page render failed")
	}
}

func (s *Server) homePage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "home", "Home")
}

func (s *Server) servicesPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "services", "Services")
}

func (s *Server) aboutPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "about", "About")
}

func (s *Server) contactPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "contact", "Contact")
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "login", "Admin Login")
}

func (s *Server) signupPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "signup", "Sign Up")
}

func (s *Server) unauthorizedPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "unauthorized", "Not Authorized")
}

func (s *Server) dashboardPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "dashboard", "Dashboard")
}

func (s *Server) usersPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "users", "Users")
}

func (s *Server) contactsPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "contacts", "Contacts")
}

func (s *Server) projectsPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "projects", "Projects")
}
