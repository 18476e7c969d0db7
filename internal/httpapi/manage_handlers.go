package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nexamediaserver/internal/config"
)

type serverInfoResponse struct {
	Name        string `json:"name"`
	Environment string `json:"environment"`
	UptimeSec   int64  `json:"uptimeSeconds"`
}

// registerManageRoutes wires the admin-only manage/info endpoint from §6.
func registerManageRoutes(rg *gin.RouterGroup, cfg *config.Configuration, startedAt time.Time) {
	rg.GET("/manage/info", func(c *gin.Context) {
		c.JSON(http.StatusOK, serverInfoResponse{
			Name:        cfg.App.Name,
			Environment: cfg.App.Environment,
			UptimeSec:   int64(time.Since(startedAt).Seconds()),
		})
	})
}
