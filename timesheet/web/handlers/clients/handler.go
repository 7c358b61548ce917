package clients

import (
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
	r.GET("/clients", endpoint.List)
	r.POST("/clients", endpoint.Create)
	r.GET("/clients/:id", endpoint.Get)
	r.PATCH("/clients/:id", endpoint.Update)
	r.DELETE("/clients/:id", endpoint.Delete)

	r.GET("/clients/:id/contacts", endpoint.ListContacts)
	r.POST("/clients/:id/contacts", endpoint.CreateContact)
	r.DELETE("/client-contacts/:id", endpoint.DeleteContact)
	r.POST("/client-contacts/:id/set-primary", endpoint.SetPrimaryContact)
}

// RegisterNames exposes the client name list, which drivers need to fill in their days.
func RegisterNames(r *gin.RouterGroup, h common.Handler) {
	endpoint := &Endpoint{base: h}
	r.GET("/clients/names", endpoint.Names)
}

func RegisterDeleted(r *gin.RouterGroup, h common.Handler) {
	endpoint := &Endpoint{base: h}
	r.GET("/deleted/clients", endpoint.ListDeleted)
	r.POST("/deleted/clients/:id/restore", endpoint.Restore)
}

func (ep *Endpoint) List(c *gin.Context) {
	clients, err := ep.base.Svc.ListClients(c.Request.Context(), ep.base.Principal(c))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewListResponse(clients))
}

func (ep *Endpoint) Names(c *gin.Context) {
	names, err := ep.base.Svc.ClientNames(c.Request.Context(), ep.base.Principal(c))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(names))
}

func (ep *Endpoint) Get(c *gin.Context) {
	client, err := ep.base.Svc.GetClient(c.Request.Context(), ep.base.Principal(c), c.Param("id"))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(client))
}

func (ep *Endpoint) Create(c *gin.Context) {
	var dto CreateClientDTO
	if !ep.base.BindJSON(c, &dto) {
		return
	}

	client, err := ep.base.Svc.CreateClient(c.Request.Context(), ep.base.Principal(c), service.ClientInput{
		CompanyName:          dto.CompanyName,
		ContactName:          dto.ContactName,
		Email:                dto.Email,
		Phone:                dto.Phone,
		Notes:                dto.Notes,
		MinimumBillableHours: dto.MinimumBillableHours,
	})
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, web.NewSuccessResponse(client))
}

func (ep *Endpoint) Update(c *gin.Context) {
	var dto UpdateClientDTO
	if !ep.base.BindJSON(c, &dto) {
		return
	}

	client, err := ep.base.Svc.UpdateClient(c.Request.Context(), ep.base.Principal(c), c.Param("id"), service.ClientUpdate{
		CompanyName:          dto.CompanyName,
		ContactName:          dto.ContactName,
		Email:                dto.Email,
		Phone:                dto.Phone,
		Notes:                dto.Notes,
		MinimumBillableHours: dto.MinimumBillableHours,
	})
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(client))
}

func (ep *Endpoint) Delete(c *gin.Context) {
	if err := ep.base.Svc.DeleteClient(c.Request.Context(), ep.base.Principal(c), c.Param("id")); err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{}))
}

func (ep *Endpoint) ListDeleted(c *gin.Context) {
	clients, err := ep.base.Svc.ListDeletedClients(c.Request.Context(), ep.base.Principal(c))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewListResponse(clients))
}

func (ep *Endpoint) Restore(c *gin.Context) {
	client, err := ep.base.Svc.RestoreClient(c.Request.Context(), ep.base.Principal(c), c.Param("id"))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(client))
}

func (ep *Endpoint) ListContacts(c *gin.Context) {
	contacts, err := ep.base.Svc.ListContacts(c.Request.Context(), ep.base.Principal(c), c.Param("id"))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(contacts))
}

func (ep *Endpoint) CreateContact(c *gin.Context) {
	var dto CreateContactDTO
	if !ep.base.BindJSON(c, &dto) {
		return
	}

	contact, err := ep.base.Svc.CreateContact(c.Request.Context(), ep.base.Principal(c), c.Param("id"), service.ContactInput{
		Name:      dto.Name,
		Email:     dto.Email,
		Phone:     dto.Phone,
		IsPrimary: dto.IsPrimary,
	})
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, web.NewSuccessResponse(contact))
}

func (ep *Endpoint) DeleteContact(c *gin.Context) {
	if err := ep.base.Svc.DeleteContact(c.Request.Context(), ep.base.Principal(c), c.Param("id")); err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{}))
}

func (ep *Endpoint) SetPrimaryContact(c *gin.Context) {
	contact, err := ep.base.Svc.SetPrimaryContact(c.Request.Context(), ep.base.Principal(c), c.Param("id"))
	if err != nil {
		ep.base.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(contact))
}
