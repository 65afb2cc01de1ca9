// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/recipe-shop/internal/core"
	"github.com/carterperez-dev/recipe-shop/internal/middleware"
)

type Handler struct {
	service  *Service
	validate *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts /auth. The credential endpoints go through
// limiter, logout and me accept anonymous callers.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, optionalAuth, limiter func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.With(limiter).Post("/login",
			jsonEndpoint(h, http.StatusOK, "invalid email or password", h.login))
		r.With(limiter).Post("/register",
			jsonEndpoint(h, http.StatusCreated, "", h.register))
		r.With(limiter).Post("/refresh",
			jsonEndpoint(h, http.StatusOK, "", h.refresh))

		r.With(optionalAuth).Get("/me", h.GetMe)
		r.With(optionalAuth).Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Post("/logout-all", h.LogoutAll)
			r.Get("/sessions", h.GetSessions)
			r.Delete("/sessions/{sessionID}", h.RevokeSession)
			r.Post("/change-password",
				jsonEndpoint(h, http.StatusNoContent, "current password is incorrect", h.changePassword))
		})
	})
}

type normalizer interface {
	normalize()
}

// jsonEndpoint decodes and validates a Req body, runs call and writes its
// result with status. badCredentials is the 401 message used when call
// fails with ErrInvalidCredentials.
func jsonEndpoint[Req any](
	h *Handler,
	status int,
	badCredentials string,
	call func(r *http.Request, req *Req) (any, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := new(Req)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			core.BadRequest(w, "invalid request body")
			return
		}
		if n, ok := any(req).(normalizer); ok {
			n.normalize()
		}
		if err := h.validate.Struct(req); err != nil {
			core.BadRequest(w, core.FormatValidationError(err))
			return
		}

		out, err := call(r, req)
		if err != nil {
			writeAuthError(w, err, badCredentials)
			return
		}

		if status == http.StatusNoContent {
			core.NoContent(w)
			return
		}
		core.JSON(w, status, core.Response{Success: true, Data: out})
	}
}

func clientOf(r *http.Request) Client {
	return Client{UserAgent: r.UserAgent(), IP: middleware.ClientIP(r)}
}

func (h *Handler) login(r *http.Request, req *LoginRequest) (any, error) {
	return h.service.Login(r.Context(), *req, clientOf(r))
}

// register answers 201 with a token pair so the client is signed in
// straight away.
func (h *Handler) register(r *http.Request, req *RegisterRequest) (any, error) {
	return h.service.Register(r.Context(), *req, clientOf(r))
}

func (h *Handler) refresh(r *http.Request, req *RefreshRequest) (any, error) {
	return h.service.Refresh(r.Context(), req.RefreshToken, clientOf(r))
}

func (h *Handler) changePassword(r *http.Request, req *ChangePasswordRequest) (any, error) {
	return nil, h.service.ChangePassword(r.Context(),
		middleware.GetUserID(r.Context()), req.CurrentPassword, req.NewPassword)
}

var tokenReuseError = core.NewAppError(
	core.ErrTokenRevoked,
	"security alert: token reuse detected, all sessions revoked",
	http.StatusUnauthorized,
	"TOKEN_REUSE_DETECTED",
)

func writeAuthError(w http.ResponseWriter, err error, badCredentials string) {
	var out error
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		out = core.UnauthorizedError(badCredentials)
	case errors.Is(err, ErrEmailExists):
		out = core.DuplicateError("email")
	case errors.Is(err, ErrTokenReuse):
		out = tokenReuseError
	case errors.Is(err, core.ErrTokenExpired):
		out = core.TokenExpiredError()
	case errors.Is(err, core.ErrTokenRevoked):
		out = core.TokenRevokedError()
	case errors.Is(err, core.ErrTokenInvalid):
		out = core.TokenInvalidError()
	case errors.Is(err, core.ErrForbidden):
		out = core.ForbiddenError("cannot revoke another user's session")
	default:
		core.WriteError(w, err, "session")
		return
	}
	core.JSONError(w, out)
}

// Logout succeeds for anonymous callers and for an empty body.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken, middleware.GetClaims(r.Context())); err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.Message(w, http.StatusOK, "logged out", nil)
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.LogoutAll(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.NoContent(w)
}

func (h *Handler) GetSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.GetActiveSessions(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, SessionsResponse{Sessions: sessions})
}

func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	err := h.service.RevokeSession(r.Context(),
		middleware.GetUserID(r.Context()), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeAuthError(w, err, "")
		return
	}
	core.NoContent(w)
}

// GetMe reports the current user, or a null user when the caller is
// anonymous or its account no longer exists.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		core.OK(w, MeResponse{})
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), identity.UserID)
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.OK(w, MeResponse{})
	case err != nil:
		core.InternalServerError(w, err)
	default:
		core.OK(w, MeResponse{User: user})
	}
}
