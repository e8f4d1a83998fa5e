package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"brickDelivery/internal/apperr"
	"brickDelivery/internal/geo"
	"brickDelivery/internal/notify"
	"brickDelivery/internal/pricing"
	"brickDelivery/models"
)

func (s *Server) listProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"products": s.d.Catalog.List()})
}

type quoteRequest struct {
	BrickCode string   `json:"brick_code"`
	Quantity  int      `json:"quantity"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
}

// quote prices a brick/quantity pair, using the road estimate when a
// coordinate is given and the flat fallback otherwise.
func (s *Server) quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badBody(err))
		return
	}
	b, ok := s.d.Catalog.Lookup(req.BrickCode)
	if !ok {
		s.fail(c, apperr.Validation("brick_code", "unknown brick type"))
		return
	}
	if req.Lat == nil || req.Lng == nil {
		q, err := pricing.ComputeWithoutDistance(b, req.Quantity)
		if err != nil {
			s.fail(c, apperr.Wrap(apperr.KindValidation, err.Error(), err))
			return
		}
		c.JSON(http.StatusOK, q)
		return
	}
	at := geo.Coordinate{Lat: *req.Lat, Lng: *req.Lng}
	if err := at.Validate(); err != nil {
		s.fail(c, apperr.Validation("location", err.Error()))
		return
	}
	km := geo.EstimateRoadDistance(at, geo.Coordinate{Lat: b.Hub.Lat, Lng: b.Hub.Lng})
	q, err := pricing.Compute(b, req.Quantity, km)
	if err != nil {
		s.fail(c, apperr.Wrap(apperr.KindValidation, err.Error(), err))
		return
	}
	c.JSON(http.StatusOK, q)
}

func (s *Server) askFAQ(c *gin.Context) {
	var req struct {
		Question string `json:"question"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badBody(err))
		return
	}
	c.JSON(http.StatusOK, s.d.FAQ.Ask(req.Question))
}

type contactRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Body    string `json:"body"`
}

// contact stores a contact-form message and forwards it to the shop.
// Delivery of the notification is best effort.
func (s *Server) contact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badBody(err))
		return
	}
	fe := apperr.FieldErrors{}
	req.Name = strings.TrimSpace(req.Name)
	req.Contact = strings.TrimSpace(req.Contact)
	req.Body = strings.TrimSpace(req.Body)
	if req.Name == "" {
		fe.Add("name", "name is required")
	}
	if req.Contact == "" {
		fe.Add("contact", "phone or email is required")
	}
	if req.Body == "" {
		fe.Add("body", "message is required")
	} else if len(req.Body) > 4000 {
		fe.Add("body", "message is too long")
	}
	if err := fe.Err(); err != nil {
		s.fail(c, err)
		return
	}
	m, err := s.d.Messages.Create(c.Request.Context(), &models.Message{Name: req.Name, Contact: req.Contact, Body: req.Body})
	if err != nil {
		s.fail(c, apperr.Wrap(apperr.KindPersistence, "could not send your message, please try again", err))
		return
	}
	if s.d.Notifier != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 10*time.Second)
		defer cancel()
		vars := map[string]any{"name": m.Name, "contact": m.Contact, "body": m.Body}
		if err := s.d.Notifier.Send(ctx, notify.TemplateContactMessage, vars); err != nil {
			s.d.Log.Warn("contact notification failed", "message_id", m.ID,
				"err", apperr.Wrap(apperr.KindNotification, "", err))
		}
	}
	c.JSON(http.StatusCreated, m)
}

func (s *Server) geocodeSearch(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		s.fail(c, apperr.Validation("q", "search text is required"))
		return
	}
	if s.d.Geocoder == nil {
		s.fail(c, apperr.New(apperr.KindGeoUnavailable, "address search is unavailable"))
		return
	}
	p, err := s.d.Geocoder.Forward(c.Request.Context(), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) geocodeReverse(c *gin.Context) {
	at, err := coordinateQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	if s.d.Geocoder == nil {
		s.fail(c, apperr.New(apperr.KindGeoUnavailable, "address lookup is unavailable"))
		return
	}
	label, err := s.d.Geocoder.Reverse(c.Request.Context(), at)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"label": label, "coordinate": at})
}

func coordinateQuery(c *gin.Context) (geo.Coordinate, error) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		return geo.Coordinate{}, apperr.Validation("location", "lat and lng must be numbers")
	}
	at := geo.Coordinate{Lat: lat, Lng: lng}
	if err := at.Validate(); err != nil {
		return geo.Coordinate{}, apperr.Validation("location", err.Error())
	}
	return at, nil
}

func (s *Server) adminLogin(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badBody(err))
		return
	}
	if s.d.Admin == nil {
		s.fail(c, apperr.New(apperr.KindForbidden, "admin login is disabled"))
		return
	}
	tok, err := s.d.Admin.Login(c.Request.Context(), c.ClientIP(), req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tok})
}
