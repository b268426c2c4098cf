package patient

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicapi/clinic/internal/platform/apperr"
	"github.com/clinicapi/clinic/internal/platform/web"
	"github.com/clinicapi/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

// NewHandler returns a Handler backed by svc.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/patients")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// List handles GET /patients. firstname, lastname and middlename are
// case-insensitive substring filters.
func (h *Handler) List(c echo.Context) error {
	p, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	f := Filter{
		FirstName:  c.QueryParam("firstname"),
		LastName:   c.QueryParam("lastname"),
		MiddleName: c.QueryParam("middlename"),
	}
	if raw := c.QueryParam("gender"); raw != "" {
		g, ok := LookupGender(raw)
		if !ok {
			return apperr.Validation("unknown gender %q", raw)
		}
		f.Gender = &g
	}

	items, total, err := h.svc.List(c.Request().Context(), f, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewPage(items, total, p, "/patients", f.Values()))
}

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

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := web.Bind(c, &in); err != nil {
		return err
	}
	p, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Successfully created patient", "id": p.ID})
}

// Update handles PUT /patients/:id.
func (h *Handler) Update(c echo.Context) error {
	id, err := web.ParamID(c, "id")
	if err != nil {
		return err
	}
	var in UpdateInput
	if err := web.Bind(c, &in); err != nil {
		return err
	}
	if err := h.svc.Update(c.Request().Context(), id, in); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, web.Message{Message: fmt.Sprintf("Patient modified with ID: %d", id)})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := web.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, web.Message{Message: fmt.Sprintf("Patient with id: %d deleted", id)})
}
