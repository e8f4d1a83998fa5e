package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"brickDelivery/internal/apperr"
	"brickDelivery/internal/auth"
	"brickDelivery/internal/live"
	"brickDelivery/internal/orders"
	"brickDelivery/models"
	"brickDelivery/repository"
)

func (s *Server) myOrders(c *gin.Context) {
	u := auth.UserFrom(c)
	list, err := s.d.Orders.ListForUser(c.Request.Context(), u.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (s *Server) myOrdersStream(c *gin.Context) {
	u := auth.UserFrom(c)
	s.stream(c, live.UserOrders(u.ID))
}

func (s *Server) adminOrdersStream(c *gin.Context) {
	s.stream(c, live.AllOrders())
}

// adminOrders lists orders with optional filters:
// status (repeatable), user_id, from, to, page_size and cursor.
func (s *Server) adminOrders(c *gin.Context) {
	f := orders.AdminFilter{
		Statuses: c.QueryArray("status"),
		From:     c.Query("from"),
		To:       c.Query("to"),
		Cursor:   c.Query("cursor"),
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.fail(c, apperr.Validation("user_id", "must be a number"))
			return
		}
		f.UserID = &id
	}
	if raw := c.Query("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.fail(c, apperr.Validation("page_size", "must be a number"))
			return
		}
		f.PageSize = n
	}
	page, err := s.d.Orders.ListAdmin(c.Request.Context(), f)
	if err != nil {
		s.fail(c, err)
		return
	}
	if page.Orders == nil {
		page.Orders = []models.Order{}
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) adminUpdateStatus(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badBody(err))
		return
	}
	o, err := s.d.Orders.UpdateStatus(c.Request.Context(), id, models.OrderStatus(req.Status))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) adminDeleteOrder(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.d.Orders.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) adminStats(c *gin.Context) {
	st, err := s.d.Orders.Stats(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) adminUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := s.d.Users.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.fail(c, apperr.Wrap(apperr.KindPersistence, "could not load users", err))
		return
	}
	if list == nil {
		list = []models.User{}
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

func (s *Server) adminMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := s.d.Messages.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.fail(c, apperr.Wrap(apperr.KindPersistence, "could not load messages", err))
		return
	}
	if list == nil {
		list = []models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": list})
}

func (s *Server) adminDeleteMessage(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	err := s.d.Messages.Delete(c.Request.Context(), id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.fail(c, apperr.New(apperr.KindNotFound, "message not found"))
	case err != nil:
		s.fail(c, apperr.Wrap(apperr.KindPersistence, "could not delete the message", err))
	default:
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		s.fail(c, apperr.Validation("id", "must be a positive number"))
		return 0, false
	}
	return id, true
}

func (s *Server) signOut(c *gin.Context) {
	p := auth.PrincipalFrom(c)
	if s.d.Sessions != nil {
		s.d.Sessions.SignOut(p)
	}
	if p.Kind == auth.KindCustomer {
		s.d.Drafts.Discard(auth.UserFrom(c).ID)
	}
	c.Status(http.StatusNoContent)
}
