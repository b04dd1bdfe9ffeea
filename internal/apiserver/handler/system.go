package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/amoylab/casamento/internal/apiserver/database"
	"github.com/amoylab/casamento/internal/apiserver/service"
	"github.com/amoylab/casamento/internal/common/cnst"
	"github.com/amoylab/casamento/internal/common/dto"
	"github.com/amoylab/casamento/pkg/version"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gin-gonic/gin"
)

// System serves the health probe and the API description
type System struct {
	db  database.Database
	reg *service.Registry

	docOnce sync.Once
	doc     *openapi3.T
}

// NewSystem creates the system handler
func NewSystem(db database.Database, reg *service.Registry) *System {
	return &System{db: db, reg: reg}
}

// Health handles GET /health
func (h *System) Health(c *gin.Context) {
	resp := dto.HealthResponse{
		Status:   "ok",
		Version:  strings.TrimSpace(version.Get()),
		Database: "ok",
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	sqlDB, err := h.db.DB(ctx).DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		resp.Status = "degraded"
		resp.Database = err.Error()
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// OpenAPI handles GET /openapi.json
func (h *System) OpenAPI(c *gin.Context) {
	h.docOnce.Do(func() {
		h.doc = h.reg.Codec().OpenAPI(cnst.AppName, strings.TrimSpace(version.Get()), h.reg.Resources())
	})
	c.JSON(http.StatusOK, h.doc)
}
