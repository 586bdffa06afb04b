package user

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/storefront/internal/dto"
	"github.com/Additional-Code/storefront/internal/entity"
	"github.com/Additional-Code/storefront/internal/presentation/http/response"
	service "github.com/Additional-Code/storefront/internal/service/user"
	"github.com/Additional-Code/storefront/internal/transport/http/request"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/storefront/transport/http/user")

// Handler exposes user endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a user Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance. The /customers group keeps the
// legacy read and create paths working; deletes are only served under /users.
func Register(e *echo.Echo, h *Handler) {
	for _, prefix := range []string{"/users", "/customers"} {
		g := e.Group(prefix)
		g.GET("/:id", h.getByID)
		g.POST("", h.create)
		g.POST("/", h.create)
	}
	e.DELETE("/users/:id", h.delete)
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := request.PathID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.getByID", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	user, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewUserResponse(user)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var req dto.CreateUserRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.create")
	defer span.End()

	user := &entity.User{FirstName: req.FirstName, LastName: req.LastName, Email: req.Email}
	if err := h.svc.Create(ctx, user); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.UserID{UserID: user.ID}).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	id, err := request.PathID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.delete", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.UserID{UserID: id}).Build()
}
