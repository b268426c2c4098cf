package valueset

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicapi/clinic/internal/platform/auth"
	"github.com/clinicapi/clinic/internal/platform/web"
)

type Handler struct {
	svc        *Service
	writeRoles []string
}

// NewHandler serves the reference catalog. Writes are limited to writeRoles.
func NewHandler(svc *Service, writeRoles []string) *Handler {
	return &Handler{svc: svc, writeRoles: writeRoles}
}

// RegisterRoutes mounts the valueset routes under api. Writes are limited
// to the fixed roles.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/valuesets")
	g.GET("/encounter_classes", h.ListEncounterClasses)
	g.GET("/encounter_types/:code", h.ListEncounterTypes)

	write := g.Group("", auth.RequireRole(h.writeRoles...))
	write.POST("/encounter_classes", h.CreateEncounterClass)
	write.PUT("/encounter_classes/:id", h.UpdateEncounterClass)
	write.POST("/encounter_types", h.CreateEncounterType)
	write.PUT("/encounter_types/:id", h.UpdateEncounterType)
}

func (h *Handler) ListEncounterClasses(c echo.Context) error {
	items, err := h.svc.ListEncounterClasses(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items})
}

func (h *Handler) ListEncounterTypes(c echo.Context) error {
	items, err := h.svc.ListEncounterTypes(c.Request().Context(), c.Param("code"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items})
}

func (h *Handler) CreateEncounterClass(c echo.Context) error {
	var in ClassInput
	if err := web.Bind(c, &in); err != nil {
		return err
	}
	class, err := h.svc.CreateEncounterClass(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Successfully created encounter class", "data": class})
}

func (h *Handler) UpdateEncounterClass(c echo.Context) error {
	id, err := web.ParamID(c, "id")
	if err != nil {
		return err
	}
	var in ClassInput
	if err := web.Bind(c, &in); err != nil {
		return err
	}
	class, err := h.svc.UpdateEncounterClass(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Successfully updated encounter class", "data": class})
}

func (h *Handler) CreateEncounterType(c echo.Context) error {
	var in TypeInput
	if err := web.Bind(c, &in); err != nil {
		return err
	}
	t, err := h.svc.CreateEncounterType(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Successfully created encounter type", "data": t})
}

func (h *Handler) UpdateEncounterType(c echo.Context) error {
	id, err := web.ParamID(c, "id")
	if err != nil {
		return err
	}
	var in TypeUpdate
	if err := web.Bind(c, &in); err != nil {
		return err
	}
	t, err := h.svc.UpdateEncounterType(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Successfully updated encounter type", "data": t})
}
