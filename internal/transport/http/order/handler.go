package order

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/dto"
	"github.com/Additional-Code/storefront/internal/entity"
	"github.com/Additional-Code/storefront/internal/pagination"
	"github.com/Additional-Code/storefront/internal/presentation/http/response"
	service "github.com/Additional-Code/storefront/internal/service/order"
	"github.com/Additional-Code/storefront/internal/transport/http/request"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/storefront/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc   *service.Service
	pages config.Pagination
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service, cfg config.Config) *Handler {
	return &Handler{svc: svc, pages: cfg.Pagination}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.GET("/:id", h.getByID)
	g.POST("", h.create)
	g.POST("/", h.create)

	e.GET("/users/:id/orders", h.listByUser)
	e.GET("/customers_orders/:id", h.listByUser)
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := request.PathID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var req dto.CreateOrderRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create", trace.WithAttributes(attribute.Int64("order.user_id", req.UserID)))
	defer span.End()

	order := &entity.Order{Title: req.Title, Description: req.Description, UserID: req.UserID}
	if err := h.svc.Create(ctx, order); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.OrderCreated{OrderID: order.ID}).Build()
}

func (h *Handler) listByUser(c echo.Context) error {
	b := response.New(c)

	userID, err := request.PathID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	page, err := pagination.Parse(c.QueryParam("page"), c.QueryParam("size"), h.pages)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listByUser", trace.WithAttributes(attribute.Int64("order.user_id", userID)))
	defer span.End()

	orders, meta, err := h.svc.ListByUser(ctx, userID, page)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewOrderResponses(orders)).WithPage(meta).Build()
}
