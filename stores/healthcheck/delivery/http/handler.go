package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/base/delivery"
	hcdomain "github.com/x-xyz/goledger/domain/healthcheck"
)

// Unhealthy is returned with status 503 and still carries the partial report
type Unhealthy struct {
	Message string           `json:"message"`
	Report  *hcdomain.Report `json:"report,omitempty"`
}

type handler struct {
	hc hcdomain.HealthCheckUsecase
}

func New(e *echo.Echo, us hcdomain.HealthCheckUsecase) {
	h := &handler{hc: us}
	e.GET("/health", h.check)
	e.HEAD("/health", h.check)
}

// check godoc
//
//	@Summary	Report dependency health
//	@Tags		ops
//	@Produce	json
//	@Success	200	{object}	healthcheck.Report
//	@Failure	503	{object}	Unhealthy
//	@Router		/health [get]
func (h *handler) check(c echo.Context) error {
	report, err := h.hc.Check(c.Get("ctx").(ctx.Ctx))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusServiceUnavailable, Unhealthy{err.Error(), report})
	}
	return delivery.MakeJsonResp(c, http.StatusOK, report)
}
