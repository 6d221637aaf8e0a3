package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/comanda-erp/comanda/internal/rbac"
	"github.com/comanda-erp/comanda/internal/session"
	"github.com/comanda-erp/comanda/internal/shared"
	"github.com/comanda-erp/comanda/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger      *slog.Logger
	templates   *view.Engine
	csrfManager *shared.CSRFManager
	validator   *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:      logger,
		templates:   templates,
		csrfManager: csrf,
		validator:   validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
	Next   string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	store := session.StoreFromContext(r.Context())
	next := safeNext(r.URL.Query().Get("next"))
	if store != nil && store.Snapshot().LoggedIn() {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, loginPageData{Next: next})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	store := session.StoreFromContext(r.Context())
	if store == nil {
		h.logger.Error("session missing during login")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	form := loginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	data := loginPageData{Form: form, Errors: make(map[string]string), Next: safeNext(r.PostFormValue("next"))}
	if err := h.validator.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fieldErr := range fieldErrs {
				data.Errors[fieldErr.Field()] = fieldMessage(fieldErr)
			}
		}
		h.renderLogin(w, r, http.StatusBadRequest, data)
		return
	}

	principal, err := store.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, shared.ErrLoginInProgress):
			status = http.StatusConflict
		case errors.Is(err, shared.ErrInvalidCredentials):
		default:
			h.logger.Error("login failed", slog.String("client", store.ID()), slog.Any("error", err))
		}
		data.Errors["general"] = shared.UserSafeMessage(err)
		h.renderLogin(w, r, status, data)
		return
	}

	h.logger.Info("login succeeded", slog.String("user", principal.ID()), slog.String("role", principal.Role().String()))
	http.Redirect(w, r, data.Next, http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if store := session.StoreFromContext(r.Context()); store != nil {
		store.Logout(r.Context())
	}
	http.Redirect(w, r, rbac.DefaultLoginPath, http.StatusSeeOther)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data loginPageData) {
	token := ""
	if store := session.StoreFromContext(r.Context()); store != nil && h.csrfManager != nil {
		token = h.csrfManager.Token(store.ID())
	}
	viewData := view.TemplateData{
		Title:       "Entrar",
		CSRFToken:   token,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, "pages/login.html", viewData); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Campo obrigatório"
	case "email":
		return "E-mail inválido"
	default:
		return fe.Error()
	}
}

// safeNext keeps post-login redirects on this host.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
