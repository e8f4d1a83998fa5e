// Package httpapi exposes the ordering service over HTTP with gin.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"brickDelivery/internal/apperr"
	"brickDelivery/internal/auth"
	"brickDelivery/internal/booking"
	"brickDelivery/internal/draft"
	"brickDelivery/internal/faq"
	"brickDelivery/internal/geo"
	"brickDelivery/internal/geocode"
	"brickDelivery/internal/live"
	"brickDelivery/internal/logger"
	"brickDelivery/internal/notify"
	"brickDelivery/internal/orders"
	"brickDelivery/models"
	"brickDelivery/repository"
)

// Geocoder resolves addresses in both directions.
type Geocoder interface {
	Reverse(ctx context.Context, c geo.Coordinate) (string, error)
	Forward(ctx context.Context, text string) (geocode.Place, error)
}

// Deps are the collaborators the handlers use.
type Deps struct {
	Catalog        models.Catalog
	Drafts         *draft.Store
	Geocoder       Geocoder
	Booking        *booking.Workflow
	Orders         *orders.Service
	Messages       repository.MessageStore
	Broker         *live.Broker
	Users          repository.UserRepositoryI
	Sessions       *auth.Sessions
	Admin          *auth.AdminGate
	FAQ            *faq.Responder
	Notifier       notify.Dispatcher
	JWTSecret      string
	WhatsAppNumber string
	Log            logger.Logger
	// KeepAlive is the SSE comment interval; zero means 15s.
	KeepAlive time.Duration
}

type Server struct {
	d Deps
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Catalog == nil {
		d.Catalog = models.DefaultCatalog
	}
	if d.FAQ == nil {
		d.FAQ = faq.NewResponder(nil)
	}
	if d.KeepAlive <= 0 {
		d.KeepAlive = 15 * time.Second
	}
	s := &Server{d: d}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/products", s.listProducts)
	r.POST("/quote", s.quote)
	r.POST("/faq", s.askFAQ)
	r.POST("/contact", s.contact)
	r.GET("/geocode/search", s.geocodeSearch)
	r.GET("/geocode/reverse", s.geocodeReverse)
	r.POST("/admin/login", s.adminLogin)

	authed := r.Group("/", auth.Middleware(d.JWTSecret, d.Sessions, d.Users, d.Log))
	authed.POST("/auth/signout", s.signOut)

	customer := authed.Group("/", auth.CustomerOnly())
	customer.GET("/draft", s.getDraft)
	customer.POST("/draft/actions", s.draftActions)
	customer.POST("/draft/locate", s.draftLocate)
	customer.DELETE("/draft", s.resetDraft)
	customer.POST("/draft/submit", s.submitDraft)
	customer.GET("/orders/mine", s.myOrders)
	customer.GET("/orders/mine/stream", s.myOrdersStream)

	admin := authed.Group("/admin", auth.AdminOnly(d.Users))
	admin.GET("/orders", s.adminOrders)
	admin.PATCH("/orders/:id/status", s.adminUpdateStatus)
	admin.DELETE("/orders/:id", s.adminDeleteOrder)
	admin.GET("/stats", s.adminStats)
	admin.GET("/orders/stream", s.adminOrdersStream)
	admin.GET("/users", s.adminUsers)
	admin.GET("/messages", s.adminMessages)
	admin.DELETE("/messages/:id", s.adminDeleteMessage)

	return r
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.d.Log.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// fail writes the client-facing error body. Causes are logged, never returned.
func (s *Server) fail(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindInternal, apperr.KindPersistence, apperr.KindGeoUnavailable:
		s.d.Log.Error("request failed", "path", c.FullPath(), "kind", apperr.KindOf(err), "err", err)
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), apperr.ToPayload(err))
}

func badBody(err error) error {
	return apperr.Wrap(apperr.KindValidation, "invalid request body", err)
}
