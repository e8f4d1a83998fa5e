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
	"brickDelivery/internal/geo"
	"brickDelivery/internal/notify"
	"brickDelivery/models"
)

// locateTimeout bounds the background address lookup started by /draft/locate.
const locateTimeout = 10 * time.Second

func (s *Server) getDraft(c *gin.Context) {
	u := auth.UserFrom(c)
	c.JSON(http.StatusOK, s.d.Drafts.Get(u.ID).State())
}

type actionRequest struct {
	Type     string   `json:"type"`
	Value    string   `json:"value"`
	Quantity int      `json:"quantity"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Label    string   `json:"label"`
}

func (r actionRequest) action() (draft.Action, error) {
	switch r.Type {
	case "set_name":
		return draft.SetName{Name: r.Value}, nil
	case "set_phone":
		return draft.SetPhone{Phone: r.Value}, nil
	case "set_email":
		return draft.SetEmail{Email: r.Value}, nil
	case "select_brick":
		return draft.SelectBrick{Code: r.Value}, nil
	case "set_quantity":
		return draft.SetQuantity{Quantity: r.Quantity}, nil
	case "set_payment_method":
		m := models.PaymentMethod(r.Value)
		if !m.Valid() {
			return nil, apperr.Validation("payment_method", "unsupported payment method")
		}
		return draft.SetPaymentMethod{Method: m}, nil
	case "set_payment_proof":
		return draft.SetPaymentProof{URL: r.Value}, nil
	case "set_location_label":
		return draft.SetLocationLabel{Label: r.Value}, nil
	case "set_location":
		if r.Lat == nil || r.Lng == nil {
			return nil, apperr.Validation("location", "lat and lng are required")
		}
		at := geo.Coordinate{Lat: *r.Lat, Lng: *r.Lng}
		if err := at.Validate(); err != nil {
			return nil, apperr.Validation("location", err.Error())
		}
		return draft.SetLocation{Coordinate: at, Label: r.Label}, nil
	case "reset":
		return draft.Reset{}, nil
	default:
		return nil, apperr.Validation("type", "unknown action "+r.Type)
	}
}

// draftActions applies a batch of edits. The batch is rejected whole when
// any action is malformed.
func (s *Server) draftActions(c *gin.Context) {
	var req struct {
		Actions []actionRequest `json:"actions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badBody(err))
		return
	}
	actions := make([]draft.Action, 0, len(req.Actions))
	for _, r := range req.Actions {
		a, err := r.action()
		if err != nil {
			s.fail(c, err)
			return
		}
		actions = append(actions, a)
	}
	u := auth.UserFrom(c)
	c.JSON(http.StatusOK, s.d.Drafts.Get(u.ID).Dispatch(actions...))
}

// draftLocate moves the delivery point and resolves its address in the
// background. With ?wait=true the response waits for the lookup.
func (s *Server) draftLocate(c *gin.Context) {
	var req struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badBody(err))
		return
	}
	if req.Lat == nil || req.Lng == nil {
		s.fail(c, apperr.Validation("location", "lat and lng are required"))
		return
	}
	at := geo.Coordinate{Lat: *req.Lat, Lng: *req.Lng}
	if err := at.Validate(); err != nil {
		s.fail(c, apperr.Validation("location", err.Error()))
		return
	}

	u := auth.UserFrom(c)
	sess := s.d.Drafts.Get(u.ID)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), locateTimeout)
	var rev draft.Reverser
	if s.d.Geocoder != nil {
		rev = s.d.Geocoder
	}
	st, done := sess.Locate(ctx, at, rev, func(err error) {
		s.d.Log.Warn("reverse geocode failed", "user_id", u.ID, "err", err)
	})
	resolved := make(chan struct{})
	go func() {
		<-done
		cancel()
		close(resolved)
	}()

	if c.Query("wait") != "true" {
		c.JSON(http.StatusAccepted, st)
		return
	}
	select {
	case <-resolved:
	case <-c.Request.Context().Done():
		return
	}
	c.JSON(http.StatusOK, sess.State())
}

func (s *Server) resetDraft(c *gin.Context) {
	u := auth.UserFrom(c)
	c.JSON(http.StatusOK, s.d.Drafts.Get(u.ID).Dispatch(draft.Reset{}))
}

type submitResponse struct {
	Order        *models.Order `json:"order"`
	WhatsAppLink string        `json:"whatsapp_link,omitempty"`
	Draft        draft.State   `json:"draft"`
}

// submitDraft places the current draft as an order. On success the draft is
// replaced with a fresh one; on failure it is kept for a retry.
func (s *Server) submitDraft(c *gin.Context) {
	u := auth.UserFrom(c)
	sess := s.d.Drafts.Get(u.ID)
	var last booking.Phase
	o, err := s.d.Booking.Submit(c.Request.Context(), u, sess.State(), func(p booking.Phase) { last = p })
	if err != nil {
		s.d.Log.Debug("submit rejected", "user_id", u.ID, "phase", last, "kind", apperr.KindOf(err))
		s.fail(c, err)
		return
	}
	fresh := s.d.Drafts.Replace(u.ID)
	resp := submitResponse{Order: o, Draft: fresh.State()}
	if s.d.WhatsAppNumber != "" {
		text, err := notify.Render(notify.TemplateOrderPlaced, booking.OrderVars(o, s.d.Catalog))
		if err != nil {
			s.d.Log.Warn("render whatsapp text failed", "order_id", o.ID, "err", err)
		} else {
			resp.WhatsAppLink = notify.WhatsAppLink(s.d.WhatsAppNumber, text)
		}
	}
	c.JSON(http.StatusCreated, resp)
}
