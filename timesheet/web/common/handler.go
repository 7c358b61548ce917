package common

import (
	"errors"
	"net/http"

	"acceptrec.co.uk/timesheets/config"
	"acceptrec.co.uk/timesheets/security"
	engine "acceptrec.co.uk/timesheets/timesheet/core"
	"acceptrec.co.uk/timesheets/timesheet/service"
	web "acceptrec.co.uk/timesheets/web/common"
	"acceptrec.co.uk/timesheets/web/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	Svc *service.Service
	Log logrus.FieldLogger
}

// Principal is the authenticated caller. Routes behind the authentication middleware
// always have one.
func (h *Handler) Principal(c *gin.Context) security.Principal {
	p, _ := middlewares.CurrentPrincipal(c)
	return p
}

func (h *Handler) RequestInfo(c *gin.Context) service.RequestInfo {
	return service.RequestInfo{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// BindJSON binds the request body and answers 400 when it is invalid.
func (h *Handler) BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return false
	}
	return true
}

// StatusOf maps a service error onto an HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, engine.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidTransition), errors.Is(err, engine.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, engine.ErrTokenExpired):
		return http.StatusGone
	}
	return http.StatusInternalServerError
}

func (h *Handler) RespondError(c *gin.Context, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		if h.Log != nil {
			config.LogError(h.Log, "web", c.FullPath(), c.Request.Method, nil, err)
		}
		c.JSON(status, web.NewErrorResponse("internal server error"))
		return
	}
	c.JSON(status, web.NewErrorResponse(err.Error()))
}
