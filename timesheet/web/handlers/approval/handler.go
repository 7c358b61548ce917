package approval

import (
	"net/http"

	engine "acceptrec.co.uk/timesheets/timesheet/core"
	"acceptrec.co.uk/timesheets/timesheet/model"
	"acceptrec.co.uk/timesheets/timesheet/service"
	common "acceptrec.co.uk/timesheets/timesheet/web/common"
	web "acceptrec.co.uk/timesheets/web/common"
	"github.com/gin-gonic/gin"
)

// Endpoint serves the tokenised approval links emailed to clients. The routes are public,
// the token is the credential.
type Endpoint struct {
	base common.Handler
}

func Register(r *gin.RouterGroup, h common.Handler) {
	endpoint := &Endpoint{base: h}
	r.GET("/approve/:token", endpoint.Get)
	r.POST("/approve/:token/:id", endpoint.Approve)
	r.POST("/reject/:token/:id", endpoint.Reject)
}

type ApproveDTO struct {
	ApprovedBy    string              `json:"approvedBy" binding:"required"`
	Rating        *int                `json:"rating" binding:"omitempty,min=1,max=10"`
	Comments      string              `json:"comments"`
	Modifications model.Modifications `json:"modifications"`
}

func (dto ApproveDTO) Review() service.ReviewInput {
	return service.ReviewInput{
		Decision:      engine.DecisionApprove,
		ReviewedBy:    dto.ApprovedBy,
		Rating:        dto.Rating,
		Comments:      dto.Comments,
		Modifications: dto.Modifications,
	}
}

type RejectDTO struct {
	RejectedBy string `json:"rejectedBy" binding:"required"`
	Comments   string `json:"comments" binding:"required"`
	Rating     *int   `json:"rating" binding:"omitempty,min=1,max=10"`
}

func (dto RejectDTO) Review() service.ReviewInput {
	return service.ReviewInput{
		Decision:   engine.DecisionReject,
		ReviewedBy: dto.RejectedBy,
		Rating:     dto.Rating,
		Comments:   dto.Comments,
	}
}

func (ep *Endpoint) Get(c *gin.Context) {
	detail, err := ep.base.Svc.ApprovalPage(c.Request.Context(), c.Param("token"), ep.base.RequestInfo(c))
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
	ep.review(c, dto.Review())
}

func (ep *Endpoint) Reject(c *gin.Context) {
	var dto RejectDTO
	if !ep.base.BindJSON(c, &dto) {
		return
	}
	ep.review(c, dto.Review())
}

func (ep *Endpoint) review(c *gin.Context, in service.ReviewInput) {
	ts, err := ep.base.Svc.ReviewByToken(c.Request.Context(), c.Param("token"), c.Param("id"), in, ep.base.RequestInfo(c))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(ts))
}
