package payroll

import (
	"fmt"
	"net/http"

	"acceptrec.co.uk/timesheets/timesheet/service"
	common "acceptrec.co.uk/timesheets/timesheet/web/common"
	web "acceptrec.co.uk/timesheets/web/common"
	"github.com/gin-gonic/gin"
)

type Endpoint struct {
	base common.Handler
}

func Register(r *gin.RouterGroup, h common.Handler) {
	endpoint := &Endpoint{base: h}
	r.GET("/payroll", endpoint.Get)
	r.GET("/payroll/export", endpoint.Export)
	r.POST("/payroll/send", endpoint.Send)
	r.GET("/dashboard/stats", endpoint.Dashboard)
}

type PayrollParams struct {
	WeekStartDate string `form:"weekStartDate" binding:"omitempty,weekstart"`
	Format        string `form:"format" binding:"omitempty,oneof=xlsx csv"`
}

type SendDTO struct {
	Email string `json:"email" binding:"required,email"`
}

func (ep *Endpoint) Get(c *gin.Context) {
	var params PayrollParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	weeks, err := ep.base.Svc.Payroll(c.Request.Context(), ep.base.Principal(c), params.WeekStartDate)
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(weeks))
}

func (ep *Endpoint) Export(c *gin.Context) {
	var params PayrollParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	export, err := ep.base.Svc.ExportPayroll(c.Request.Context(), ep.base.Principal(c), params.WeekStartDate, service.ExportFormat(params.Format))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename))
	c.Data(http.StatusOK, export.ContentType, export.Data)
}

func (ep *Endpoint) Send(c *gin.Context) {
	var dto SendDTO
	if !ep.base.BindJSON(c, &dto) {
		return
	}

	sent, err := ep.base.Svc.SendPayrollReport(c.Request.Context(), dto.Email)
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(sent))
}

func (ep *Endpoint) Dashboard(c *gin.Context) {
	stats, err := ep.base.Svc.Dashboard(c.Request.Context(), ep.base.Principal(c))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(stats))
}
