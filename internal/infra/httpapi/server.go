package httpapi

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// NewServer builds the echo instance with all delivery routes registered.
// The cron trigger route is guarded by a shared-token check; everything else
// sits behind whatever auth proxy fronts this service.
func NewServer(handler *DeliveryHandler, cronToken string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	api := e.Group("/api/delivery")
	api.POST("/config/:subscriptionId", handler.SaveOrUpdateConfig)
	api.GET("/logs/:subscriptionId", handler.Logs)
	api.POST("/logs/override/:subscriptionId", handler.OverrideEvent)
	api.POST("/logs/:subscriptionId/regenerate", handler.RegenerateLogs)
	api.GET("/full/:subscriptionId", handler.Ledger)

	cron := api.Group("/cron", requireCronToken(cronToken))
	cron.POST("/generate-monthly", handler.GenerateMonthly)

	return e
}

// requireCronToken admits only callers presenting the configured shared
// token. Intended for the trusted scheduler, not end users.
func requireCronToken(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			presented := c.Request().Header.Get("X-Cron-Token")
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid cron token")
			}
			return next(c)
		}
	}
}
