package order

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/orderdash/orderdash/internal/dto"
	"github.com/orderdash/orderdash/internal/entity"
	"github.com/orderdash/orderdash/internal/presentation/http/response"
	service "github.com/orderdash/orderdash/internal/service/order"
	"github.com/orderdash/orderdash/internal/web"
	"github.com/orderdash/orderdash/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/orderdash/orderdash/transport/http/order")

// Handler exposes the order dashboard pages and JSON endpoints.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register routes on the Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/", h.index)
	e.GET("/create", h.createForm)
	e.POST("/create", h.create)
	e.GET("/edit/:id", h.editForm)
	e.POST("/edit/:id", h.edit)
	e.POST("/delete/:id", h.delete)
	e.POST("/update-status/:id", h.updateStatus)

	api := e.Group("/api")
	api.GET("/orders", h.apiList)
	api.GET("/orders/:id", h.apiGet)
}

// indexData is the template context of the listing page.
type indexData struct {
	Orders   []entity.Order
	Statuses []entity.Status
	Flash    *web.Flash
}

// formData is the template context of the create and edit forms.
type formData struct {
	ID       int64
	Form     dto.OrderForm
	Errors   []string
	Statuses []entity.Status
	Flash    *web.Flash
}

func (h *Handler) index(c echo.Context) error {
	ctx, span := httpTracer.Start(c.Request().Context(), "orders.index")
	defer span.End()

	flash := web.PopFlash(c)

	orders, err := h.svc.List(ctx)
	if err != nil {
		// The dashboard stays usable even when the store is down; the
		// failure is logged and surfaced as a page-level message.
		h.logger.Error("list orders failed", zap.Error(err))
		if flash == nil {
			flash = &web.Flash{Kind: "error", Message: "Orders are temporarily unavailable. Please try again."}
		}
		orders = nil
	}

	return c.Render(http.StatusOK, "index.html", indexData{
		Orders:   orders,
		Statuses: entity.Statuses,
		Flash:    flash,
	})
}

func (h *Handler) createForm(c echo.Context) error {
	return c.Render(http.StatusOK, "create_order.html", formData{
		Form:     dto.OrderForm{Status: string(entity.StatusPending)},
		Statuses: entity.Statuses,
		Flash:    web.PopFlash(c),
	})
}

func (h *Handler) create(c echo.Context) error {
	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create")
	defer span.End()

	var form dto.OrderForm
	if err := c.Bind(&form); err != nil {
		return c.Render(http.StatusBadRequest, "create_order.html", formData{
			Form:     form,
			Errors:   []string{"Invalid form submission"},
			Statuses: entity.Statuses,
		})
	}

	order, err := h.svc.Create(ctx, toInput(form))
	if err != nil {
		appErr := errorbank.From(err)
		if appErr.Kind() != errorbank.KindUnprocessableEntity {
			h.logger.Error("create order failed", zap.Error(err))
		}
		return c.Render(http.StatusOK, "create_order.html", formData{
			Form:     form,
			Errors:   violationsOf(appErr),
			Statuses: entity.Statuses,
		})
	}

	span.SetAttributes(attribute.Int64("order.id", order.ID))
	web.SetFlash(c, "success", fmt.Sprintf("Order %s created successfully!", order.OrderNumber))
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) editForm(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		web.SetFlash(c, "error", "Order not found")
		return c.Redirect(http.StatusSeeOther, "/")
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.editForm", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		web.SetFlash(c, "error", "Order not found")
		return c.Redirect(http.StatusSeeOther, "/")
	}

	return c.Render(http.StatusOK, "edit_order.html", formData{
		ID:       order.ID,
		Form:     toForm(order),
		Statuses: entity.Statuses,
		Flash:    web.PopFlash(c),
	})
}

func (h *Handler) edit(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		web.SetFlash(c, "error", "Order not found")
		return c.Redirect(http.StatusSeeOther, "/")
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.edit", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	existing, err := h.svc.Get(ctx, id)
	if err != nil {
		web.SetFlash(c, "error", "Order not found")
		return c.Redirect(http.StatusSeeOther, "/")
	}

	var form dto.OrderForm
	if err := c.Bind(&form); err != nil {
		return c.Render(http.StatusBadRequest, "edit_order.html", formData{
			ID:       id,
			Form:     form,
			Errors:   []string{"Invalid form submission"},
			Statuses: entity.Statuses,
		})
	}
	// The order number is frozen after creation; always show the stored one.
	form.OrderNumber = existing.OrderNumber

	order, err := h.svc.Update(ctx, id, toInput(form))
	if err != nil {
		appErr := errorbank.From(err)
		if appErr.Kind() == errorbank.KindNotFound {
			web.SetFlash(c, "error", "Order not found")
			return c.Redirect(http.StatusSeeOther, "/")
		}
		if appErr.Kind() != errorbank.KindUnprocessableEntity {
			h.logger.Error("update order failed", zap.Int64("id", id), zap.Error(err))
		}
		return c.Render(http.StatusOK, "edit_order.html", formData{
			ID:       id,
			Form:     form,
			Errors:   violationsOf(appErr),
			Statuses: entity.Statuses,
		})
	}

	web.SetFlash(c, "success", fmt.Sprintf("Order %s updated successfully!", order.OrderNumber))
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		web.SetFlash(c, "error", "Order not found")
		return c.Redirect(http.StatusSeeOther, "/")
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		web.SetFlash(c, "error", "Order not found")
		return c.Redirect(http.StatusSeeOther, "/")
	}

	if err := h.svc.Delete(ctx, id); err != nil {
		h.logger.Error("delete order failed", zap.Int64("id", id), zap.Error(err))
		web.SetFlash(c, "error", "Error deleting order. Please try again.")
		return c.Redirect(http.StatusSeeOther, "/")
	}

	web.SetFlash(c, "success", fmt.Sprintf("Order %s deleted successfully!", order.OrderNumber))
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) updateStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.StatusUpdateResponse{Success: false, Message: "Invalid order id"})
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.updateStatus", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	var req dto.StatusUpdateRequest
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, dto.StatusUpdateResponse{Success: false, Message: "Status is required"})
	}

	if err := h.svc.UpdateStatus(ctx, id, req.Status); err != nil {
		appErr := errorbank.From(err)
		if appErr.Kind() == errorbank.KindBadRequest {
			return c.JSON(http.StatusBadRequest, dto.StatusUpdateResponse{Success: false, Message: appErr.Message()})
		}
		h.logger.Error("update status failed", zap.Int64("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, dto.StatusUpdateResponse{Success: false, Message: "Error updating status"})
	}

	return c.JSON(http.StatusOK, dto.StatusUpdateResponse{Success: true, Message: "Status updated successfully"})
}

func (h *Handler) apiList(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.apiList")
	defer span.End()

	orders, err := h.svc.List(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toDTO(&orders[i]))
	}
	return b.WithData(out).Build()
}

func (h *Handler) apiGet(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.apiGet", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(order)).Build()
}

func parseID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func violationsOf(appErr *errorbank.AppError) []string {
	if v := appErr.Violations(); len(v) > 0 {
		return v
	}
	return []string{"Something went wrong. Please try again."}
}

func toInput(form dto.OrderForm) service.Input {
	return service.Input{
		OrderNumber:  form.OrderNumber,
		CustomerName: form.CustomerName,
		ProductName:  form.ProductName,
		Quantity:     form.Quantity,
		Price:        form.Price,
		Status:       form.Status,
		Notes:        form.Notes,
	}
}

func toForm(order *entity.Order) dto.OrderForm {
	return dto.OrderForm{
		OrderNumber:  order.OrderNumber,
		CustomerName: order.CustomerName,
		ProductName:  order.ProductName,
		Quantity:     strconv.Itoa(order.Quantity),
		Price:        order.Price.StringFixed(2),
		Status:       string(order.Status),
		Notes:        order.Notes,
	}
}

func toDTO(order *entity.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:           order.ID,
		OrderNumber:  order.OrderNumber,
		CustomerName: order.CustomerName,
		ProductName:  order.ProductName,
		Quantity:     order.Quantity,
		Price:        order.Price.StringFixed(2),
		Total:        order.Total.StringFixed(2),
		Status:       string(order.Status),
		OrderDate:    order.OrderDate,
		UpdatedAt:    order.UpdatedAt,
		Notes:        order.Notes,
	}
}
