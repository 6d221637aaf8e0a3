package app

import (
	"log/slog"
	"net/http"

	"github.com/comanda-erp/comanda/internal/rbac"
	"github.com/comanda-erp/comanda/internal/session"
	"github.com/comanda-erp/comanda/internal/shared"
	"github.com/comanda-erp/comanda/internal/view"
)

// pages renders full HTML screens with the shared layout data.
type pages struct {
	templates *view.Engine
	csrf      *shared.CSRFManager
	logger    *slog.Logger
}

func (p pages) render(w http.ResponseWriter, r *http.Request, status int, name, title string, principal *rbac.Principal, data any) {
	viewData := view.TemplateData{
		Title:       title,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if principal != nil {
		viewData.Principal = principal
	}
	if store := session.StoreFromContext(r.Context()); store != nil && p.csrf != nil {
		viewData.CSRFToken = p.csrf.Token(store.ID())
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := p.templates.Render(w, name, viewData); err != nil {
		p.logger.Error("render template", slog.String("template", name), slog.Any("error", err))
	}
}

type roleView struct {
	Name  string
	Label string
}

func roleViews(roles []rbac.Role) []roleView {
	out := make([]roleView, len(roles))
	for i, role := range roles {
		out[i] = roleView{Name: role.String(), Label: role.Label()}
	}
	return out
}

type deniedPage struct {
	Reason     string
	Permission string
	Roles      []roleView
}

// RenderDenied renders the access denied screen. Role denials list the roles
// that may open the screen.
func (p pages) RenderDenied(w http.ResponseWriter, r *http.Request, d rbac.Denial) {
	data := deniedPage{Reason: string(d.Reason), Permission: d.Permission.String()}
	if d.Reason == rbac.DenialRole {
		data.Roles = roleViews(d.Roles)
	}
	p.render(w, r, http.StatusForbidden, "pages/denied.html", "Acesso negado", d.Principal, data)
}

var _ rbac.DenialRenderer = pages{}
