package handler

import (
	"net/http"

	"github.com/amoylab/casamento/internal/apiserver/service"
	"github.com/gin-gonic/gin"
)

// OperationRecorder observes the outcome of resource operations
type OperationRecorder interface {
	Operation(collection, op string, status int)
}

// Resource exposes one CRUD service over HTTP
type Resource struct {
	svc      service.CRUD
	errors   *ErrorHandler
	recorder OperationRecorder
}

// NewResource creates the handler of one collection
func NewResource(svc service.CRUD, errs *ErrorHandler, recorder OperationRecorder) *Resource {
	return &Resource{svc: svc, errors: errs, recorder: recorder}
}

// Register mounts the collection at /{collection}/ and /{collection}/:id/
func (h *Resource) Register(r gin.IRouter) {
	base := "/" + h.svc.Collection() + "/"
	r.GET(base, h.List)
	r.POST(base, h.Create)
	r.GET(base+":id/", h.Retrieve)
	r.PUT(base+":id/", h.Update)
	r.PATCH(base+":id/", h.PartialUpdate)
	r.DELETE(base+":id/", h.Delete)
}

// List handles GET /{collection}/
func (h *Resource) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), service.ListOptions{Ordering: c.Query("ordering")})
	h.reply(c, service.OpList, http.StatusOK, list, err)
}

// Create handles POST /{collection}/
func (h *Resource) Create(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.reply(c, service.OpCreate, 0, nil, err)
		return
	}
	rec, err := h.svc.Create(c.Request.Context(), body)
	h.reply(c, service.OpCreate, http.StatusCreated, rec, err)
}

// Retrieve handles GET /{collection}/:id/
func (h *Resource) Retrieve(c *gin.Context) {
	rec, err := h.svc.Retrieve(c.Request.Context(), c.Param("id"))
	h.reply(c, service.OpRetrieve, http.StatusOK, rec, err)
}

// Update handles PUT /{collection}/:id/
func (h *Resource) Update(c *gin.Context) {
	h.update(c, false)
}

// PartialUpdate handles PATCH /{collection}/:id/
func (h *Resource) PartialUpdate(c *gin.Context) {
	h.update(c, true)
}

func (h *Resource) update(c *gin.Context, partial bool) {
	body, err := c.GetRawData()
	if err != nil {
		h.reply(c, service.OpUpdate, 0, nil, err)
		return
	}
	rec, err := h.svc.Update(c.Request.Context(), c.Param("id"), body, partial)
	h.reply(c, service.OpUpdate, http.StatusOK, rec, err)
}

// Delete handles DELETE /{collection}/:id/
func (h *Resource) Delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	h.reply(c, service.OpDelete, http.StatusNoContent, nil, err)
}

func (h *Resource) reply(c *gin.Context, op service.Operation, status int, payload any, err error) {
	if err != nil {
		h.errors.HandleError(c, err)
	} else if status == http.StatusNoContent {
		c.Status(status)
	} else {
		c.JSON(status, payload)
	}
	if h.recorder != nil {
		h.recorder.Operation(h.svc.Collection(), string(op), c.Writer.Status())
	}
}
