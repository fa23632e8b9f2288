package callable

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/quackchatNotification/internal/auth"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Handler     *Handler
	Verifier    auth.Verifier
	Logger      log.FieldLogger
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// BuildRouter serves every callable operation at /{name}.
func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware(dep.Logger))

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Service: dep.ServiceName, Version: dep.Version})
	}
	r.GET("/health", health)
	r.GET("/healthz", health)

	calls := r.Group("/")
	calls.Use(auth.Middleware(dep.Verifier))
	dep.Handler.Register(calls)

	return r
}
