package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/oreo-app/oreo/internal/auth"
	"github.com/oreo-app/oreo/internal/platform/httpx"
)

// Handler wires the HTTP endpoints for the account subsystem.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	cookies   *auth.SessionCookies
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, cookies *auth.SessionCookies) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		cookies:   cookies,
		validator: validator.New(),
	}
}

// MountRoutes registers the account routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/signup", h.signup)
	r.Post("/login", h.login)
	r.Post("/password-recovery/{email}", h.passwordRecovery)
	r.Post("/reset-password", h.resetPassword)
	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)
		r.Get("/current", h.current)
		r.Put("/{id}", h.update)
	})
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type updateRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

// respondError writes the error response, logging anything outside the
// domain taxonomy since those surface as opaque 500s.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, httpx.ErrBadRequest),
		errors.Is(err, httpx.ErrUnauthorized),
		errors.Is(err, httpx.ErrForbidden),
		errors.Is(err, httpx.ErrNotFound),
		errors.Is(err, httpx.ErrConflict):
	default:
		h.logger.Error("account operation failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

// decodeValid decodes the JSON body into target and validates it.
func (h *Handler) decodeValid(r *http.Request, target any) error {
	if err := httpx.DecodeJSON(r, target); err != nil {
		return httpx.E(httpx.ErrBadRequest, "Invalid request")
	}
	if err := h.validator.Struct(target); err != nil {
		return httpx.E(httpx.ErrBadRequest, "Invalid request")
	}
	return nil
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := h.decodeValid(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	user, token, err := h.service.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.cookies.Issue(w, token)
	httpx.JSON(w, http.StatusCreated, user.Public())
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decodeValid(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.cookies.Issue(w, token)
	httpx.JSON(w, http.StatusOK, user.Public())
}

func (h *Handler) passwordRecovery(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if err := h.service.RequestPasswordRecovery(r.Context(), email); err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.Detail(w, http.StatusOK, "Password recovery email sent")
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := h.decodeValid(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.Detail(w, http.StatusOK, "Password updated successfully")
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		h.respondError(w, r, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, user.Public())
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor := UserFromContext(r.Context())
	if actor == nil {
		h.respondError(w, r, httpx.ErrUnauthorized)
		return
	}
	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondError(w, r, httpx.E(httpx.ErrBadRequest, "Invalid user id"))
		return
	}
	var req updateRequest
	if err := h.decodeValid(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	user, err := h.service.UpdateUser(r.Context(), actor.ID, targetID, UpdateParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user.Public())
}

type contextKey struct{}

var userContextKey contextKey

// ContextWithUser stores the authenticated user on the context.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey).(*User)
	return user
}

// requireSession resolves the session cookie to a user and aborts with
// Unauthorized when it cannot.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.cookies.Read(r)
		if token == "" {
			h.respondError(w, r, httpx.ErrUnauthorized)
			return
		}
		user, err := h.service.GetCurrent(r.Context(), token)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}
