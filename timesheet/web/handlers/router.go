package handlers

import (
	"net/http"

	"acceptrec.co.uk/timesheets/security"
	"acceptrec.co.uk/timesheets/timesheet/service"
	common "acceptrec.co.uk/timesheets/timesheet/web/common"
	"acceptrec.co.uk/timesheets/timesheet/web/handlers/approval"
	"acceptrec.co.uk/timesheets/timesheet/web/handlers/batches"
	"acceptrec.co.uk/timesheets/timesheet/web/handlers/clients"
	"acceptrec.co.uk/timesheets/timesheet/web/handlers/payroll"
	"acceptrec.co.uk/timesheets/timesheet/web/handlers/portal"
	"acceptrec.co.uk/timesheets/timesheet/web/handlers/receipts"
	"acceptrec.co.uk/timesheets/timesheet/web/handlers/reports"
	"acceptrec.co.uk/timesheets/timesheet/web/handlers/timesheets"
	"acceptrec.co.uk/timesheets/web/middlewares"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type RouterOptions struct {
	Secret       []byte
	CookieName   string
	AllowOrigins []string
	Log          logrus.FieldLogger
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AddAllowMethods(http.MethodPatch)
	cfg.AddAllowHeaders("Origin", "Content-Type", "Authorization")
	cfg.AddExposeHeaders("Content-Disposition")
	return cfg
}

func NewRouter(svc *service.Service, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(opts.AllowOrigins)))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	h := common.Handler{Svc: svc, Log: opts.Log}

	public := r.Group("/api")
	approval.Register(public, h)

	protected := r.Group("/api")
	protected.Use(middlewares.Authentication(opts.Secret, opts.CookieName))
	{
		timesheets.Register(protected, h)
		clients.RegisterNames(protected, h)
		receipts.Register(protected, h)
	}

	admin := protected.Group("")
	admin.Use(middlewares.RequireRole(security.RoleAdmin, security.RoleSuperAdmin))
	{
		clients.Register(admin, h)
		timesheets.RegisterDeleted(admin, h)
		clients.RegisterDeleted(admin, h)
		batches.Register(admin, h)
		payroll.Register(admin, h)
		reports.Register(admin, h)
	}

	client := protected.Group("")
	client.Use(middlewares.RequireRole(security.RoleClient, security.RoleSuperAdmin))
	portal.Register(client, h)

	return r
}
