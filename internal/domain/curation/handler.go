package curation

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-consortia/donor-curator/internal/domain/donor"
	"github.com/x-consortia/donor-curator/internal/domain/valueset"
	"github.com/x-consortia/donor-curator/internal/platform/auth"
	"github.com/x-consortia/donor-curator/internal/platform/remote"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/donors/:id/form", h.GetForm)
	api.POST("/donors/:id/review", h.ReviewMetadata)
	api.PUT("/donors/:id/metadata", h.UpdateMetadata)
}

// submission is a form post: field name to submitted value. Unselected
// dropdowns arrive as the prompt sentinel and are treated as omitted.
type submission struct {
	Values map[string]string `json:"values"`
}

func (h *Handler) GetForm(c echo.Context) error {
	ctx := c.Request().Context()
	form, err := h.svc.Form(ctx, c.Param("id"), auth.Token(ctx))
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, form)
}

func (h *Handler) ReviewMetadata(c echo.Context) error {
	var sub submission
	if err := c.Bind(&sub); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	review, err := h.svc.Review(ctx, c.Param("id"), auth.Token(ctx), sub.Values)
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, review)
}

func (h *Handler) UpdateMetadata(c echo.Context) error {
	var sub submission
	if err := c.Bind(&sub); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	result, err := h.svc.Update(ctx, c.Param("id"), auth.Token(ctx), auth.Actor(ctx), sub.Values)
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// HTTPError maps the curation error taxonomy onto HTTP responses. Shared
// by every handler that calls through the curation service.
func HTTPError(err error) *echo.HTTPError {
	switch e := err.(type) {
	case *ValidationError:
		return echo.NewHTTPError(http.StatusUnprocessableEntity, e.Error())
	case *donor.SchemaError:
		return echo.NewHTTPError(http.StatusBadRequest, e.Error())
	case *valueset.ConfigurationError:
		return echo.NewHTTPError(http.StatusInternalServerError, e.Error())
	case *remote.Error:
		switch e.Kind {
		case remote.KindNotFound:
			return echo.NewHTTPError(http.StatusNotFound, e.Message)
		case remote.KindLocked:
			return echo.NewHTTPError(http.StatusForbidden, e.Message)
		case remote.KindBadRequest:
			return echo.NewHTTPError(http.StatusBadRequest, e.Message)
		case remote.KindUnauthorized:
			return echo.NewHTTPError(http.StatusUnauthorized, e.Message)
		default:
			return echo.NewHTTPError(http.StatusBadGateway, e.Message)
		}
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
