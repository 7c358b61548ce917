package receipts

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"

	"acceptrec.co.uk/timesheets/timesheet/service"
	common "acceptrec.co.uk/timesheets/timesheet/web/common"
	web "acceptrec.co.uk/timesheets/web/common"
	"github.com/gin-gonic/gin"
)

const maxUploadSize = 50 << 20

type Endpoint struct {
	base common.Handler
}

func Register(r *gin.RouterGroup, h common.Handler) {
	endpoint := &Endpoint{base: h}
	r.POST("/receipts", endpoint.Upload)
	r.GET("/receipts", endpoint.List)
	r.GET("/receipts/file", endpoint.Download)
}

// Upload stores the receipt photos of a timesheet. Files other than jpg, jpeg, png and
// pdf are ignored.
func (ep *Endpoint) Upload(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUploadSize); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(err.Error()))
		return
	}

	form := c.Request.MultipartForm
	timesheetID := c.Request.FormValue("timesheetId")
	if timesheetID == "" {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse("Field 'timesheetId' is required"))
		return
	}

	files := form.File["files"]
	uploads := make([]service.ReceiptUpload, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, web.NewErrorResponse(err.Error()))
			return
		}
		defer func(f multipart.File) { _ = f.Close() }(file)
		uploads = append(uploads, service.ReceiptUpload{Filename: header.Filename, Body: file})
	}

	keys, err := ep.base.Svc.UploadReceipts(c.Request.Context(), ep.base.Principal(c), timesheetID, uploads)
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{
		"message": fmt.Sprintf("%d files uploaded", len(keys)),
		"files":   keys,
	}))
}

func (ep *Endpoint) List(c *gin.Context) {
	timesheetID := c.Query("timesheetId")
	if timesheetID == "" {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse("Field 'timesheetId' is required"))
		return
	}

	keys, err := ep.base.Svc.ListReceipts(c.Request.Context(), ep.base.Principal(c), timesheetID)
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(keys))
}

func (ep *Endpoint) Download(c *gin.Context) {
	var buf bytes.Buffer
	contentType, err := ep.base.Svc.ReadReceipt(c.Request.Context(), ep.base.Principal(c), c.Query("key"), &buf)
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
