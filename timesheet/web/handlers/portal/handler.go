package portal

import (
	"net/http"

	engine "acceptrec.co.uk/timesheets/timesheet/core"
	"acceptrec.co.uk/timesheets/timesheet/model"
	"acceptrec.co.uk/timesheets/timesheet/service"
	common "acceptrec.co.uk/timesheets/timesheet/web/common"
	web "acceptrec.co.uk/timesheets/web/common"
	"github.com/gin-gonic/gin"
)

// Endpoint is the logged-in client portal. A super admin may act as any client with
// ?impersonateClientId=.
type Endpoint struct {
	base common.Handler
}

const impersonateParam = "impersonateClientId"

func Register(r *gin.RouterGroup, h common.Handler) {
	endpoint := &Endpoint{base: h}
	r.GET("/client/company", endpoint.Company)
	r.GET("/client/approval-batches", endpoint.Batches)
	r.GET("/client/approval-batches/:id/timesheets", endpoint.BatchTimesheets)
	r.POST("/client/timesheets/:id/approve", endpoint.Approve)
	r.POST("/client/timesheets/:id/reject", endpoint.Reject)
}

// The reviewer of portal decisions is the signed in user, so no name is sent.
type ApproveDTO struct {
	Rating        *int                `json:"rating" binding:"omitempty,min=1,max=10"`
	Comments      string              `json:"comments"`
	Modifications model.Modifications `json:"modifications"`
}

type RejectDTO struct {
	Comments string `json:"comments" binding:"required"`
	Rating   *int   `json:"rating" binding:"omitempty,min=1,max=10"`
}

func (ep *Endpoint) Company(c *gin.Context) {
	client, err := ep.base.Svc.ClientCompany(c.Request.Context(), ep.base.Principal(c), c.Query(impersonateParam))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(client))
}

func (ep *Endpoint) Batches(c *gin.Context) {
	batches, err := ep.base.Svc.ClientBatches(c.Request.Context(), ep.base.Principal(c), c.Query(impersonateParam))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewListResponse(batches))
}

func (ep *Endpoint) BatchTimesheets(c *gin.Context) {
	detail, err := ep.base.Svc.ClientBatchTimesheets(c.Request.Context(), ep.base.Principal(c), c.Query(impersonateParam), c.Param("id"))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(detail))
}

func (ep *Endpoint) Approve(c *gin.Context) {
	var dto ApproveDTO
	if !ep.base.BindJSON(c, &dto) {
		return
	}
	ep.review(c, service.ReviewInput{
		Decision:      engine.DecisionApprove,
		Rating:        dto.Rating,
		Comments:      dto.Comments,
		Modifications: dto.Modifications,
	})
}

func (ep *Endpoint) Reject(c *gin.Context) {
	var dto RejectDTO
	if !ep.base.BindJSON(c, &dto) {
		return
	}
	ep.review(c, service.ReviewInput{
		Decision: engine.DecisionReject,
		Rating:   dto.Rating,
		Comments: dto.Comments,
	})
}

func (ep *Endpoint) review(c *gin.Context, in service.ReviewInput) {
	ts, err := ep.base.Svc.ClientReview(c.Request.Context(), ep.base.Principal(c), c.Query(impersonateParam), c.Param("id"), in, ep.base.RequestInfo(c))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(ts))
}
