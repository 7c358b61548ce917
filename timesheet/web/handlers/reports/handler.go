package reports

import (
	"net/http"

	common "acceptrec.co.uk/timesheets/timesheet/web/common"
	web "acceptrec.co.uk/timesheets/web/common"
	"github.com/gin-gonic/gin"
)

type Endpoint struct {
	base common.Handler
}

func Register(r *gin.RouterGroup, h common.Handler) {
	endpoint := &Endpoint{base: h}
	r.GET("/reports/driver-performance", endpoint.DriverPerformance)
	r.GET("/reports/client-feedback", endpoint.ClientFeedback)
}

type DriverParams struct {
	Driver string `form:"driver" binding:"omitempty,max=255"`
}

type ClientParams struct {
	Client string `form:"client" binding:"omitempty,max=255"`
}

func (ep *Endpoint) DriverPerformance(c *gin.Context) {
	var params DriverParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	drivers, err := ep.base.Svc.DriverPerformance(c.Request.Context(), ep.base.Principal(c), params.Driver)
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewListResponse(drivers))
}

// ClientFeedback is admin only. Drivers' comments about clients are confidential.
func (ep *Endpoint) ClientFeedback(c *gin.Context) {
	var params ClientParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	clients, err := ep.base.Svc.ClientFeedback(c.Request.Context(), ep.base.Principal(c), params.Client)
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewListResponse(clients))
}
