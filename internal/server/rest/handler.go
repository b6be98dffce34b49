package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/backoffice/internal/common"
	"github.com/dmitrijs2005/backoffice/internal/logging"
	"github.com/dmitrijs2005/backoffice/internal/server/auth"
	"github.com/dmitrijs2005/backoffice/internal/server/models"
	"github.com/dmitrijs2005/backoffice/internal/server/rbac"
	"github.com/dmitrijs2005/backoffice/internal/server/services"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Gates are built once and shared by every request.
var (
	adminOnly = rbac.RequireAny(models.GroupAdmin)
	isAdmin   = adminOnly.Soft()
)

// RouterConfig carries the HTTP-only knobs.
type RouterConfig struct {
	LoginRateLimit     float64
	LoginRateBurst     int
	CORSAllowedOrigins []string
}

// Handler holds the collaborators the endpoints call into.
type Handler struct {
	auth        *auth.Authenticator
	memberships rbac.MembershipLookup
	users       *services.UserService
	groups      *services.GroupService
	logger      logging.Logger
}

func NewHandler(a *auth.Authenticator, memberships rbac.MembershipLookup, us *services.UserService, gs *services.GroupService, logger logging.Logger) *Handler {
	return &Handler{
		auth:        a,
		memberships: memberships,
		users:       us,
		groups:      gs,
		logger:      logger.With("module", "rest"),
	}
}

// IsAdminGate is the soft admin check, for wiring UserService.
func IsAdminGate() rbac.Gate {
	return isAdmin
}

// Routes builds the chi router.
func (h *Handler) Routes(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(h.accessLog)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{common.AuthorizationHeaderName, "Content-Type", common.RequestIDHeaderName},
			ExposedHeaders: []string{common.AuthenticateHeaderName, common.RequestIDHeaderName},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", h.healthz)

	limiter := newLoginRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst)
	r.With(limiter.middleware).Post("/api/token", h.login)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Post("/", h.guarded(adminOnly, h.createUser))
			r.Get("/me", h.authenticated(h.me))
			r.Put("/change/password", h.authenticated(h.changePassword))
			r.Put("/change/name", h.authenticated(h.changeName))
			r.Get("/{username}", h.authenticated(h.getUser))
		})
		r.Route("/group", func(r chi.Router) {
			r.Get("/", h.guarded(adminOnly, h.listGroups))
			r.Get("/users/{group_name}", h.guarded(adminOnly, h.usersInGroup))
			r.Post("/users/{group_name}", h.guarded(adminOnly, h.addUsersToGroup))
			r.Delete("/users/{group_name}", h.guarded(adminOnly, h.removeUsersFromGroup))
		})
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

// login takes OAuth2 password-grant style form fields.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, common.ErrorValidation)
		return
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	if username == "" || password == "" {
		h.writeError(w, r, fmt.Errorf("%w: username and password are required", common.ErrorValidation))
		return
	}

	pair, err := h.users.Login(r.Context(), username, password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, TokenType: pair.TokenType})
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request, caller *models.User) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.users.Register(r.Context(), req.Name, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info(r.Context(), "user registered", "user", user.Name, "by", caller.Name)
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request, _ *models.User) {
	user, err := h.users.GetByName(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request, caller *models.User) {
	p, err := h.users.Me(r.Context(), caller)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{userResponse: toUserResponse(p.User), Groups: p.Groups, IsAdmin: p.IsAdmin})
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request, caller *models.User) {
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.users.ChangePassword(r.Context(), caller, targetUsername(r, caller), req.OldPassword, req.NewPassword)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) changeName(w http.ResponseWriter, r *http.Request, caller *models.User) {
	var req changeNameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.users.ChangeName(r.Context(), caller, targetUsername(r, caller), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// targetUsername reads ?username=, defaulting to the caller.
func targetUsername(r *http.Request, caller *models.User) string {
	if name := r.URL.Query().Get("username"); name != "" {
		return name
	}
	return caller.Name
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request, _ *models.User) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", services.DefaultListLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	groups, err := h.groups.List(r.Context(), skip, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupList(groups))
}

func (h *Handler) usersInGroup(w http.ResponseWriter, r *http.Request, _ *models.User) {
	users, err := h.groups.UsersInGroup(r.Context(), chi.URLParam(r, "group_name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserList(users))
}

func (h *Handler) addUsersToGroup(w http.ResponseWriter, r *http.Request, _ *models.User) {
	h.changeMembers(w, r, h.groups.AddUsers)
}

func (h *Handler) removeUsersFromGroup(w http.ResponseWriter, r *http.Request, _ *models.User) {
	h.changeMembers(w, r, h.groups.RemoveUsers)
}

// changeMembers applies op and answers with the group's resulting members.
func (h *Handler) changeMembers(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, group string, usernames []string) error) {
	var req usernamesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	groupName := chi.URLParam(r, "group_name")
	if err := op(r.Context(), groupName, req.Usernames); err != nil {
		h.writeError(w, r, err)
		return
	}

	users, err := h.groups.UsersInGroup(r.Context(), groupName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserList(users))
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", common.ErrorValidation, key)
	}
	return v, nil
}
