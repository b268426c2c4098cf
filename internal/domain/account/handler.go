package account

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicapi/clinic/internal/platform/auth"
	"github.com/clinicapi/clinic/internal/platform/web"
)

type Handler struct {
	svc *Service
}

// NewHandler returns a Handler backed by svc.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts /auth. register and login are on the public path
// list; logout needs a valid token.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := web.Bind(c, &in); err != nil {
		return err
	}
	u, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "User registered successfully", "user": u})
}

// Login handles POST /auth/login and returns a signed access token.
func (h *Handler) Login(c echo.Context) error {
	var in LoginInput
	if err := web.Bind(c, &in); err != nil {
		return err
	}
	tok, err := h.svc.Login(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tok)
}

// Logout handles POST /auth/logout by revoking the presented token.
func (h *Handler) Logout(c echo.Context) error {
	claims, ok := auth.ClaimsFromContext(c.Request().Context())
	if !ok {
		return auth.ErrTokenRequired
	}
	if err := h.svc.Logout(c.Request().Context(), claims); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, web.Message{Message: "Logged out"})
}
