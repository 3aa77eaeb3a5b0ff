package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/food-ordering/internal/domain/auth"
	"github.com/xenking/food-ordering/internal/domain/cart"
	"github.com/xenking/food-ordering/internal/domain/checkout"
	"github.com/xenking/food-ordering/internal/domain/payment"
	"github.com/xenking/food-ordering/pkg/validate"
)

const instrumentationName = "github.com/xenking/food-ordering/internal/domain/order"

// ErrEmptyCart is returned when checking out a cart with no items.
var ErrEmptyCart = errors.New("cart is empty")

// SubmissionError indicates the order could not be recorded. The cart is
// left as it was and the customer may retry.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return "failed to place order: " + e.Err.Error()
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	DeliveryAddress Address `json:"deliveryAddress"`
	PaymentMethod   string  `json:"paymentMethod" validate:"required"`
}

// Option configures a Service.
type Option func(*Service)

// WithMeterProvider sets the meter provider for order counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meterProvider = mp }
}

// WithTracerProvider sets the tracer provider for checkout spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracerProvider = tp }
}

// Service turns session carts into orders.
type Service struct {
	orders  Repository
	payment payment.Gateway
	pricing checkout.Pricing
	now     func() time.Time

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	placed         metric.Int64Counter
	failed         metric.Int64Counter
}

// NewService creates an order Service.
func NewService(
	orders Repository,
	gateway payment.Gateway,
	pricing checkout.Pricing,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		orders:         orders,
		payment:        gateway,
		pricing:        pricing,
		now:            time.Now,
		meterProvider:  otel.GetMeterProvider(),
		tracerProvider: otel.GetTracerProvider(),
	}
	for _, o := range opts {
		o(s)
	}

	meter := s.meterProvider.Meter(instrumentationName)
	var err error
	if s.placed, err = meter.Int64Counter("food.orders.placed",
		metric.WithDescription("Orders recorded successfully"),
	); err != nil {
		return nil, errors.Wrap(err, "placed counter")
	}
	if s.failed, err = meter.Int64Counter("food.orders.failed",
		metric.WithDescription("Checkout attempts that did not produce an order"),
	); err != nil {
		return nil, errors.Wrap(err, "failed counter")
	}
	s.tracer = s.tracerProvider.Tracer(instrumentationName)

	return s, nil
}

// Pricing returns the delivery fee and tax rate applied at checkout.
func (s *Service) Pricing() checkout.Pricing {
	return s.pricing
}

// PlaceOrder submits the contents of c as an order for id.
//
// Checkouts of the same cart run one at a time. Payment is authorized for
// the quoted total before the order is stored. If storing fails the
// authorization is voided and c is left untouched; a recorded order removes
// exactly the submitted lines from the cart.
func (s *Service) PlaceOrder(ctx context.Context, id auth.Identity, c *cart.Store, req PlaceOrderRequest) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "checkout.PlaceOrder",
		trace.WithAttributes(attribute.String("user.id", id.UserID)),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
			s.failed.Add(ctx, 1)
		}
		span.End()
	}()

	release, err := c.Reserve(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "reserve cart")
	}
	defer release()

	lines := c.Items()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	method, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	items := make([]Item, len(lines))
	for i, l := range lines {
		items[i] = Item{
			ID:       l.ID,
			Name:     l.Name,
			Image:    l.Image,
			Price:    l.UnitPrice,
			Quantity: l.Quantity,
		}
	}
	q := s.pricing.Quote(cart.Subtotal(lines))
	span.SetAttributes(
		attribute.Int("order.lines", len(items)),
		attribute.String("order.total", q.Total.StringFixed(2)),
		attribute.String("payment.method", string(method)),
	)

	authz, err := s.payment.Authorize(ctx, method, q.Total)
	if err != nil {
		return nil, errors.Wrap(err, "authorize payment")
	}

	o := &Order{
		ID:               uuid.NewString(),
		UserID:           id.UserID,
		UserEmail:        id.Email,
		Items:            items,
		Subtotal:         q.Subtotal,
		DeliveryFee:      q.DeliveryFee,
		Tax:              q.Tax,
		Total:            q.Total,
		DeliveryAddress:  req.DeliveryAddress,
		PaymentMethod:    method,
		PaymentReference: authz.Reference,
		Status:           StatusPending,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		if vErr := s.payment.Void(ctx, authz); vErr != nil {
			zctx.From(ctx).Error("Void payment",
				zap.String("reference", authz.Reference),
				zap.Error(vErr),
			)
		}
		return nil, &SubmissionError{Err: err}
	}

	c.Deduct(lines)
	s.placed.Add(ctx, 1, metric.WithAttributes(attribute.String("payment.method", string(method))))
	zctx.From(ctx).Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("user_id", o.UserID),
		zap.String("total", o.Total.StringFixed(2)),
	)
	return o, nil
}

// validateRequest checks req and parses its payment method. Field failures,
// an unknown method included, are reported together as *validate.Error.
func validateRequest(req PlaceOrderRequest) (payment.Method, error) {
	var vErr *validate.Error
	if err := validate.Struct(req); err != nil && !errors.As(err, &vErr) {
		return "", err
	}

	method, err := payment.ParseMethod(req.PaymentMethod)
	if err != nil && req.PaymentMethod != "" {
		if vErr == nil {
			vErr = &validate.Error{Fields: make(map[string]string)}
		}
		names := make([]string, len(payment.Methods))
		for i, m := range payment.Methods {
			names[i] = string(m)
		}
		vErr.Fields["paymentMethod"] = "must be one of [" + strings.Join(names, " ") + "]"
	}
	if vErr != nil {
		return "", vErr
	}
	return method, nil
}

// History returns the user's orders, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// Get returns one of the user's orders. Orders of other users are reported
// as ErrNotFound.
func (s *Service) Get(ctx context.Context, userID, orderID string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get order")
	}
	if o.UserID != userID {
		return nil, ErrNotFound
	}
	return o, nil
}
