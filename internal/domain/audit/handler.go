package audit

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-consortia/donor-curator/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/donors/:id/audit", h.GetHistory)
}

func (h *Handler) GetHistory(c echo.Context) error {
	p := pagination.FromContext(c)

	entries, total, err := h.svc.History(c.Request().Context(), c.Param("id"), p)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if entries == nil {
		entries = []*Entry{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, p.Limit, p.Offset))
}
