package auth

import (
	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"brickDelivery/internal/apperr"
	"brickDelivery/internal/logger"
	"brickDelivery/models"
	"brickDelivery/repository"
)

const (
	ctxPrincipal = "auth.principal"
	ctxUser      = "auth.user"
)

// Middleware authenticates the bearer token, refreshes its session and
// resolves the caller's user row, provisioning customers on first sight.
func Middleware(secret string, sessions *Sessions, users repository.UserRepositoryI, log logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *gin.Context) {
		p, err := ParseHeader(c.GetHeader("Authorization"), secret)
		if err != nil {
			abort(c, apperr.Wrap(apperr.KindAuthRequired, "please sign in", err))
			return
		}
		if sessions != nil {
			if err := sessions.Touch(p); err != nil {
				abort(c, err)
				return
			}
		}
		var u *models.User
		if p.Kind == KindCustomer {
			u, err = users.Ensure(c.Request.Context(), p.Name, models.RoleCustomer)
		} else {
			u, err = users.GetByUsername(c.Request.Context(), p.Name)
		}
		if err != nil {
			log.Error("resolve user failed", "name", p.Name, "err", err)
			abort(c, apperr.Wrap(apperr.KindPersistence, "could not load your account", err))
			return
		}
		if u == nil {
			abort(c, apperr.New(apperr.KindAuthRequired, "unknown account"))
			return
		}
		c.Set(ctxPrincipal, p)
		c.Set(ctxUser, u)
		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

// AdminOnly must run after Middleware. It applies the same DB role check as RequireAdmin.
func AdminOnly(users repository.UserRepositoryI) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, _, err := RequireAdmin(c.Request.Context(), users); err != nil {
			abort(c, fromStatus(err))
			return
		}
		c.Next()
	}
}

// CustomerOnly rejects admin tokens on customer routes.
func CustomerOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := RequireKind(c.Request.Context(), KindCustomer); err != nil {
			abort(c, fromStatus(err))
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the principal set by Middleware.
func PrincipalFrom(c *gin.Context) *Principal {
	v, _ := c.Get(ctxPrincipal)
	p, _ := v.(*Principal)
	return p
}

// UserFrom returns the user resolved by Middleware.
func UserFrom(c *gin.Context) *models.User {
	v, _ := c.Get(ctxUser)
	u, _ := v.(*models.User)
	return u
}

func fromStatus(err error) error {
	switch status.Code(err) {
	case codes.Unauthenticated:
		return apperr.Wrap(apperr.KindAuthRequired, "please sign in", err)
	case codes.PermissionDenied:
		return apperr.Wrap(apperr.KindForbidden, "not allowed", err)
	default:
		return apperr.Wrap(apperr.KindInternal, "", err)
	}
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), apperr.ToPayload(err))
}
