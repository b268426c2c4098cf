package prescription

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clinicapi/clinic/internal/platform/apperr"
	"github.com/clinicapi/clinic/internal/platform/web"
	"github.com/clinicapi/clinic/pkg/pagination"
)

// Handler serves /prescriptions.
type Handler struct {
	svc *Service
}

// NewHandler returns a Handler backed by svc.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the prescription routes under api.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/prescriptions")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.GET("/:id/pdf", h.PDF)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// List handles GET /prescriptions, optionally filtered by appointment_id.
func (h *Handler) List(c echo.Context) error {
	p, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	var f Filter
	if raw := c.QueryParam("appointment_id"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return apperr.Validation("appointment_id must be a positive integer")
		}
		f.AppointmentID = n
	}

	items, total, err := h.svc.List(c.Request().Context(), f, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewPage(items, total, p, "/prescriptions", f.Values()))
}

// Get handles GET /prescriptions/:id.
func (h *Handler) Get(c echo.Context) error {
	id, err := web.ParamID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Create handles POST /prescriptions.
func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := web.Bind(c, &in); err != nil {
		return err
	}
	p, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Prescription created successfully", "prescription": p})
}

// Update handles PUT /prescriptions/:id. Absent fields are left as they are.
func (h *Handler) Update(c echo.Context) error {
	id, err := web.ParamID(c, "id")
	if err != nil {
		return err
	}
	var in UpdateInput
	if err := web.Bind(c, &in); err != nil {
		return err
	}
	p, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Prescription updated successfully", "prescription": p})
}

// Delete handles DELETE /prescriptions/:id.
func (h *Handler) Delete(c echo.Context) error {
	id, err := web.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, web.Message{Message: "Prescription deleted successfully"})
}

// PDF handles GET /prescriptions/:id/pdf and marks the prescription printed.
func (h *Handler) PDF(c echo.Context) error {
	id, err := web.ParamID(c, "id")
	if err != nil {
		return err
	}
	doc, err := h.svc.RenderPDF(c.Request().Context(), id)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`inline; filename="prescription-%d.pdf"`, id))
	return c.Blob(http.StatusOK, "application/pdf", doc)
}
