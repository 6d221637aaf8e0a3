package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/comanda-erp/comanda/internal/rbac"
)

// moduleScreen is one feature area of the back office.
type moduleScreen struct {
	Path        string
	Title       string
	Description string
	View        rbac.PermissionKey
	Manage      rbac.PermissionKey
	Roles       []rbac.Role
}

func (m moduleScreen) requirement() rbac.Requirement {
	req := rbac.Require(m.View)
	if m.Roles != nil {
		req = req.WithRoles(m.Roles...)
	}
	return req
}

var moduleScreens = []moduleScreen{
	{Path: "/pdv", Title: "PDV", Description: "Frente de caixa e vendas no balcão.", View: rbac.PermPDVView, Manage: rbac.PermPDVManage},
	{Path: "/waiter", Title: "Garçom", Description: "Pedidos por mesa e comandas abertas.", View: rbac.PermWaiterView, Manage: rbac.PermWaiterManage},
	{Path: "/totem", Title: "Totem", Description: "Autoatendimento e cardápio digital.", View: rbac.PermTotemView, Manage: rbac.PermTotemManage},
	{Path: "/delivery", Title: "Delivery", Description: "Pedidos de entrega e entregadores.", View: rbac.PermDeliveryView, Manage: rbac.PermDeliveryManage},
	{Path: "/inventory", Title: "Estoque", Description: "Insumos, fichas técnicas e movimentações.", View: rbac.PermInventoryView, Manage: rbac.PermInventoryManage, Roles: []rbac.Role{rbac.RoleAdmin, rbac.RoleManager}},
	{Path: "/financial", Title: "Financeiro", Description: "Contas a pagar, a receber e fluxo de caixa.", View: rbac.PermFinancialView, Manage: rbac.PermFinancialManage},
	{Path: "/fiscal", Title: "Fiscal", Description: "Notas fiscais e obrigações tributárias.", View: rbac.PermFiscalView, Manage: rbac.PermFiscalManage},
	{Path: "/reports", Title: "Relatórios", Description: "Indicadores de vendas e operação.", View: rbac.PermReportsView, Manage: rbac.PermReportsManage},
	{Path: "/marketing", Title: "Marketing", Description: "Campanhas, cupons e fidelidade.", View: rbac.PermMarketingView, Manage: rbac.PermMarketingManage},
	{Path: "/ai", Title: "IA", Description: "Sugestões de compra e previsão de demanda.", View: rbac.PermAIView, Manage: rbac.PermAIManage},
	{Path: "/support", Title: "Suporte", Description: "Chamados e central de ajuda.", View: rbac.PermSupportView, Manage: rbac.PermSupportManage},
	{Path: "/users", Title: "Usuários", Description: "Equipe e perfis de acesso.", View: rbac.PermUsersView, Manage: rbac.PermUsersManage},
	{Path: "/security", Title: "Segurança", Description: "Políticas de acesso e auditoria.", View: rbac.PermSecurityView, Manage: rbac.PermSecurityManage},
	{Path: "/settings", Title: "Configurações", Description: "Dados do restaurante e preferências.", View: rbac.PermSettingsView, Manage: rbac.PermSettingsManage},
	{Path: "/white-label", Title: "White label", Description: "Marca, cores e domínio próprio.", View: rbac.PermWhiteLabelView, Manage: rbac.PermWhiteLabelManage, Roles: []rbac.Role{rbac.RoleAdmin}},
	{Path: "/multitenancy", Title: "Multiunidades", Description: "Filiais e franquias.", View: rbac.PermMultitenancyView, Manage: rbac.PermMultitenancyManage},
	{Path: "/licensing", Title: "Licenciamento", Description: "Plano contratado e faturas.", View: rbac.PermLicensingView, Manage: rbac.PermLicensingManage},
	{Path: "/integrations", Title: "Integrações", Description: "Marketplaces, TEF e ERPs externos.", View: rbac.PermIntegrationsView, Manage: rbac.PermIntegrationsManage},
}

type modulePage struct {
	Path        string
	Description string
	CanManage   bool
}

type moduleLink struct {
	Path  string
	Title string
}

type homePage struct {
	Modules []moduleLink
}

// mountModules registers every feature screen behind its route guard.
func mountModules(r chi.Router, guards rbac.Middleware, p pages) {
	authz := guards.Authorizer()
	r.With(guards.ProtectedRoute(rbac.Require(rbac.PermDashboardView), nil)).Get("/", func(w http.ResponseWriter, r *http.Request) {
		principal := rbac.PrincipalFromContext(r.Context())
		data := homePage{}
		for _, m := range moduleScreens {
			if authz.Allowed(principal, m.requirement()) {
				data.Modules = append(data.Modules, moduleLink{Path: m.Path, Title: m.Title})
			}
		}
		p.render(w, r, http.StatusOK, "pages/home.html", "Início", principal, data)
	})

	for _, m := range moduleScreens {
		screen := m
		r.With(guards.ProtectedRoute(screen.requirement(), nil)).Get(screen.Path, func(w http.ResponseWriter, r *http.Request) {
			principal := rbac.PrincipalFromContext(r.Context())
			p.render(w, r, http.StatusOK, "pages/module.html", screen.Title, principal, modulePage{
				Path:        screen.Path,
				Description: screen.Description,
				CanManage:   authz.HasPermission(principal, screen.Manage),
			})
		})
		r.With(guards.ProtectedRoute(rbac.Require(screen.Manage), nil)).Get(screen.Path+"/manage", func(w http.ResponseWriter, r *http.Request) {
			principal := rbac.PrincipalFromContext(r.Context())
			p.render(w, r, http.StatusOK, "pages/module.html", screen.Title+" · gestão", principal, modulePage{
				Path:        screen.Path,
				Description: screen.Description,
				CanManage:   true,
			})
		})
		r.With(guards.ConditionalRender(rbac.Require(screen.Manage), nil)).Get("/fragments"+screen.Path+"/actions", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<a class="button" href="` + screen.Path + `/manage">Gerenciar</a>`))
		})
	}

	noAccess := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<p class="muted">Resumo financeiro indisponível para o seu perfil.</p>`))
	})
	r.With(guards.PermissionGuard(rbac.Require(rbac.PermFinancialReports), noAccess, true)).Get("/fragments/financial/summary", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<section class="card"><h2>Resumo financeiro</h2></section>`))
	})
}
