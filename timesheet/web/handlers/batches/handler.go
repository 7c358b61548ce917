package batches

import (
	"net/http"

	"acceptrec.co.uk/timesheets/timesheet/model"
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
	r.GET("/approval-batches", endpoint.List)
	r.GET("/approval-batches/eligible", endpoint.Eligible)
	r.POST("/approval-batches", endpoint.Create)
	r.GET("/approval-batches/:id", endpoint.Get)
	r.GET("/approval-batches/:id/audit-log", endpoint.AuditLog)
	r.POST("/approval-batches/:id/send-email", endpoint.SendEmail)
}

type CreateBatchDTO struct {
	ClientName     string   `json:"clientName" binding:"required"`
	WeekStartDate  string   `json:"weekStartDate" binding:"required,weekstart"`
	TimesheetIDs   []string `json:"timesheetIds" binding:"required,min=1,dive,required"`
	ClientID       *string  `json:"clientId"`
	SendEmail      bool     `json:"sendEmail"`
	RecipientEmail string   `json:"recipientEmail" binding:"omitempty,email"`
}

type SendEmailDTO struct {
	RecipientEmail string `json:"recipientEmail" binding:"omitempty,email"`
}

type ListParams struct {
	ClientID string            `form:"clientId"`
	Status   model.BatchStatus `form:"status" binding:"omitempty,oneof=pending partial approved rejected"`
}

type EligibleParams struct {
	ClientName    string `form:"clientName" binding:"required"`
	WeekStartDate string `form:"weekStartDate" binding:"required,weekstart"`
}

func (ep *Endpoint) List(c *gin.Context) {
	var params ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	batches, err := ep.base.Svc.ListBatches(c.Request.Context(), ep.base.Principal(c), store.BatchFilter{
		ClientID: params.ClientID,
		Status:   params.Status,
	})
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewListResponse(batches))
}

func (ep *Endpoint) Eligible(c *gin.Context) {
	var params EligibleParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	timesheets, err := ep.base.Svc.EligibleTimesheets(c.Request.Context(), ep.base.Principal(c), params.ClientName, params.WeekStartDate)
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewListResponse(timesheets))
}

func (ep *Endpoint) Create(c *gin.Context) {
	var dto CreateBatchDTO
	if !ep.base.BindJSON(c, &dto) {
		return
	}

	result, err := ep.base.Svc.CreateBatch(c.Request.Context(), ep.base.Principal(c), service.BatchRequest{
		ClientName:     dto.ClientName,
		WeekStartDate:  dto.WeekStartDate,
		TimesheetIDs:   dto.TimesheetIDs,
		ClientID:       dto.ClientID,
		SendEmail:      dto.SendEmail,
		RecipientEmail: dto.RecipientEmail,
	}, ep.base.RequestInfo(c))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, web.NewSuccessResponse(result))
}

func (ep *Endpoint) Get(c *gin.Context) {
	detail, err := ep.base.Svc.GetBatch(c.Request.Context(), ep.base.Principal(c), c.Param("id"))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(detail))
}

func (ep *Endpoint) AuditLog(c *gin.Context) {
	entries, err := ep.base.Svc.BatchAuditLog(c.Request.Context(), ep.base.Principal(c), c.Param("id"))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(entries))
}

func (ep *Endpoint) SendEmail(c *gin.Context) {
	var dto SendEmailDTO
	// the body is optional
	if c.Request.ContentLength > 0 && !ep.base.BindJSON(c, &dto) {
		return
	}

	batch, err := ep.base.Svc.SendBatchEmail(c.Request.Context(), ep.base.Principal(c), c.Param("id"), dto.RecipientEmail, ep.base.RequestInfo(c))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{
		"batch": batch,
		"link":  ep.base.Svc.ApprovalLink(batch),
	}))
}
