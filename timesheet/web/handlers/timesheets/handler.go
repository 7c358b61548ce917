package timesheets

import (
	"net/http"

	"acceptrec.co.uk/timesheets/timesheet/service"
	"acceptrec.co.uk/timesheets/timesheet/store"
	common "acceptrec.co.uk/timesheets/timesheet/web/common"
	web "acceptrec.co.uk/timesheets/web/common"
	"github.com/gin-gonic/gin"
)

type Endpoint struct {
	base common.Handler
}

func Register(r *gin.RouterGroup, h common.Handler) {
	endpoint := &Endpoint{base: h}
	r.GET("/timesheets", endpoint.Search)
	r.GET("/timesheets/:id", endpoint.Get)
	r.POST("/timesheets", endpoint.Create)
	r.PATCH("/timesheets/:id", endpoint.Update)
	r.DELETE("/timesheets/:id", endpoint.Delete)
}

// RegisterDeleted adds the admin routes for soft-deleted timesheets.
func RegisterDeleted(r *gin.RouterGroup, h common.Handler) {
	endpoint := &Endpoint{base: h}
	r.GET("/deleted/timesheets", endpoint.ListDeleted)
	r.POST("/deleted/timesheets/:id/restore", endpoint.Restore)
}

func (ep *Endpoint) Search(c *gin.Context) {
	var params SearchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	timesheets, err := ep.base.Svc.ListTimesheets(c.Request.Context(), ep.base.Principal(c), store.TimesheetFilter{
		UserID:        params.UserID,
		Status:        params.Status,
		WeekStartDate: params.WeekStartDate,
	})
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewListResponse(timesheets))
}

func (ep *Endpoint) Get(c *gin.Context) {
	ts, err := ep.base.Svc.GetTimesheet(c.Request.Context(), ep.base.Principal(c), c.Param("id"))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(ts))
}

func (ep *Endpoint) Create(c *gin.Context) {
	var dto CreateTimesheetDTO
	if !ep.base.BindJSON(c, &dto) {
		return
	}

	ts, err := ep.base.Svc.CreateTimesheet(c.Request.Context(), ep.base.Principal(c), service.TimesheetInput{
		UserID:         dto.UserID,
		DriverName:     dto.DriverName,
		WeekStartDate:  dto.WeekStartDate,
		Days:           toWeek(dto.Days),
		DriverRating:   dto.DriverRating,
		DriverComments: dto.DriverComments,
	})
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, web.NewSuccessResponse(ts))
}

func (ep *Endpoint) Update(c *gin.Context) {
	var dto UpdateTimesheetDTO
	if !ep.base.BindJSON(c, &dto) {
		return
	}

	update := service.TimesheetUpdate{
		DriverName:     dto.DriverName,
		DriverRating:   dto.DriverRating,
		DriverComments: dto.DriverComments,
	}
	if dto.Days != nil {
		week := toWeek(dto.Days)
		update.Days = &week
	}

	ts, err := ep.base.Svc.UpdateTimesheet(c.Request.Context(), ep.base.Principal(c), c.Param("id"), update, ep.base.RequestInfo(c))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(ts))
}

func (ep *Endpoint) Delete(c *gin.Context) {
	if err := ep.base.Svc.DeleteTimesheet(c.Request.Context(), ep.base.Principal(c), c.Param("id")); err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{}))
}

func (ep *Endpoint) ListDeleted(c *gin.Context) {
	timesheets, err := ep.base.Svc.ListDeletedTimesheets(c.Request.Context(), ep.base.Principal(c))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewListResponse(timesheets))
}

func (ep *Endpoint) Restore(c *gin.Context) {
	ts, err := ep.base.Svc.RestoreTimesheet(c.Request.Context(), ep.base.Principal(c), c.Param("id"))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(ts))
}
