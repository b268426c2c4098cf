package appointment

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clinicapi/clinic/internal/platform/apperr"
	"github.com/clinicapi/clinic/internal/platform/auth"
	"github.com/clinicapi/clinic/internal/platform/web"
	"github.com/clinicapi/clinic/pkg/pagination"
)

// Handler serves /appointments. The caller identity comes from the JWT
// middleware; listing is narrowed by the caller's role.
type Handler struct {
	svc *Service
}

// NewHandler returns a Handler backed by svc.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the appointment routes under api.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/appointments")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PUT("/:id/status", h.UpdateStatus)
	g.DELETE("/:id", h.Delete)
}

func caller(c echo.Context) (auth.Identity, error) {
	id, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return auth.Identity{}, auth.ErrTokenRequired
	}
	return id, nil
}

// List handles GET /appointments. Accepts page, per_page, patient_id and
// status query parameters.
func (h *Handler) List(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	p, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	f := Filter{Status: c.QueryParam("status")}
	if raw := c.QueryParam("patient_id"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return apperr.Validation("patient_id must be a positive integer")
		}
		f.PatientID = n
	}

	items, total, err := h.svc.List(c.Request().Context(), who, f, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewPage(items, total, p, "/appointments", f.Values()))
}

// Get handles GET /appointments/:id with patient, class, types and
// prescriptions embedded.
func (h *Handler) Get(c echo.Context) error {
	id, err := web.ParamID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

// Create handles POST /appointments.
func (h *Handler) Create(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := web.Bind(c, &in); err != nil {
		return err
	}
	a, err := h.svc.Create(c.Request().Context(), who, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Successfully created appointment", "id": a.ID})
}

// Update handles PUT /appointments/:id. The status is required and is
// recorded in the history.
func (h *Handler) Update(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	id, err := web.ParamID(c, "id")
	if err != nil {
		return err
	}
	var in UpdateInput
	if err := web.Bind(c, &in); err != nil {
		return err
	}
	if err := h.svc.Update(c.Request().Context(), who, id, in); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, web.Message{Message: "Appointment updated successfully"})
}

// UpdateStatus handles PUT /appointments/:id/status.
func (h *Handler) UpdateStatus(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	id, err := web.ParamID(c, "id")
	if err != nil {
		return err
	}
	var in StatusInput
	if err := web.Bind(c, &in); err != nil {
		return err
	}
	if err := h.svc.UpdateStatus(c.Request().Context(), who, id, in.Status); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, web.Message{Message: fmt.Sprintf("Appointment status updated to %s", in.Status)})
}

// Delete handles DELETE /appointments/:id.
func (h *Handler) Delete(c echo.Context) error {
	id, err := web.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, web.Message{Message: fmt.Sprintf("Appointment with id: %d deleted", id)})
}
