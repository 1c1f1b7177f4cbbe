package export

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-consortia/donor-curator/internal/domain/curation"
	"github.com/x-consortia/donor-curator/internal/platform/auth"
	"github.com/x-consortia/donor-curator/internal/upstream/entity"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/donors/:id/export", h.ExportDonor)
	api.GET("/export/donors", h.ExportConsortium)
	api.GET("/export/doi", h.ExportDOI)
}

func (h *Handler) ExportDonor(c echo.Context) error {
	ctx := c.Request().Context()
	table, filename, err := h.svc.DonorTable(ctx, c.Param("id"), auth.Token(ctx))
	if err != nil {
		return curation.HTTPError(err)
	}
	return attach(c, table, filename, WriteTSV, "text/tab-separated-values")
}

func (h *Handler) ExportConsortium(c echo.Context) error {
	consortium, err := consortiumParam(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	table, filename, err := h.svc.ConsortiumTable(ctx, consortium, auth.Token(ctx))
	if err != nil {
		return curation.HTTPError(err)
	}
	return attach(c, table, filename, WriteCSV, "text/csv")
}

func (h *Handler) ExportDOI(c echo.Context) error {
	consortium, err := consortiumParam(c)
	if err != nil {
		return err
	}

	table, filename, err := h.svc.DOITable(c.Request().Context(), consortium)
	if err != nil {
		return curation.HTTPError(err)
	}
	return attach(c, table, filename, WriteCSV, "text/csv")
}

func consortiumParam(c echo.Context) (entity.Consortium, error) {
	switch c.QueryParam("consortium") {
	case "hubmap":
		return entity.ConsortiumHuBMAP, nil
	case "sennet":
		return entity.ConsortiumSenNet, nil
	default:
		return "", echo.NewHTTPError(http.StatusBadRequest,
			"consortium query parameter must be hubmap or sennet")
	}
}

func attach(c echo.Context, table *Table, filename string, write func(w io.Writer, t *Table) error, contentType string) error {
	var buf bytes.Buffer
	if err := write(&buf, table); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%s", filename))
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}
