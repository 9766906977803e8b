package application

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"voice-cart/internal/domain"
)

type ProductCatalog interface {
	Find(name string) (domain.Product, bool)
	Names() []string
}

type Dispatcher struct {
	catalog       ProductCatalog
	cart          *Cart
	enforceLimits bool
	logger        *slog.Logger
}

type DispatcherOption func(*Dispatcher)

// WithQuantityLimits rejects quantities outside the product bounds or off
// its step grid.
func WithQuantityLimits(enabled bool) DispatcherOption {
	return func(d *Dispatcher) {
		d.enforceLimits = enabled
	}
}

func NewDispatcher(catalog ProductCatalog, cart *Cart, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		catalog: catalog,
		cart:    cart,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Cart() *Cart {
	return d.cart
}

type callArgs struct {
	Name     string   `json:"name"`
	Quantity quantity `json:"quantity"`
	Unit     string   `json:"unit"`
}

// quantity accepts either a JSON number or a numeric string.
type quantity float64

func (q *quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}

	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("quantity %q: %w", raw, err)
	}
	f, _ := d.Float64()
	*q = quantity(f)
	return nil
}

func parseArgs(call domain.FunctionCall) (callArgs, error) {
	var args callArgs
	if strings.TrimSpace(call.Arguments) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		return args, domain.NewSubjectError(fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err), string(call.Name))
	}
	return args, nil
}

// Dispatch applies one function call to the cart.
func (d *Dispatcher) Dispatch(call domain.FunctionCall) error {
	switch call.Name {
	case domain.FuncAddProduct, domain.FuncRemoveProduct, domain.FuncUpdateQuantity, domain.FuncClearCart:
	default:
		return domain.NewSubjectError(domain.ErrUnknownFunction, string(call.Name))
	}

	args, err := parseArgs(call)
	if err != nil {
		return err
	}

	d.logger.Debug("dispatching cart call",
		"function", call.Name,
		"name", args.Name,
		"quantity", float64(args.Quantity),
	)

	switch call.Name {
	case domain.FuncAddProduct:
		return d.AddProduct(args.Name, float64(args.Quantity), args.Unit)
	case domain.FuncRemoveProduct:
		return d.RemoveProduct(args.Name)
	case domain.FuncUpdateQuantity:
		return d.UpdateQuantity(args.Name, float64(args.Quantity))
	default:
		d.ClearCart()
		return nil
	}
}

func (d *Dispatcher) AddProduct(name string, qty float64, unit string) error {
	product, ok := d.catalog.Find(name)
	if !ok {
		return domain.NewSubjectError(domain.ErrUnknownProduct, name)
	}

	if d.enforceLimits {
		if err := product.CheckQuantity(qty); err != nil {
			return err
		}
	}

	if d.cart.AddOrUpdate(product, qty, unit) {
		d.logger.Info("product added", "product", product.Name, "quantity", qty)
	} else {
		d.logger.Info("quantity updated", "product", product.Name, "quantity", qty)
	}
	return nil
}

func (d *Dispatcher) RemoveProduct(name string) error {
	n := d.cart.Remove(name)
	if n == 0 {
		return domain.NewSubjectError(domain.ErrNotInCart, name)
	}
	d.logger.Info("product removed", "product", name, "lines", n)
	return nil
}

func (d *Dispatcher) UpdateQuantity(name string, qty float64) error {
	if d.enforceLimits {
		if product, ok := d.catalog.Find(name); ok {
			if err := product.CheckQuantity(qty); err != nil {
				return err
			}
		}
	}

	if !d.cart.SetQuantity(name, qty) {
		return domain.NewSubjectError(domain.ErrNotInCart, name)
	}
	d.logger.Info("quantity updated", "product", name, "quantity", qty)
	return nil
}

func (d *Dispatcher) ClearCart() {
	d.cart.Clear()
	d.logger.Info("cart cleared")
}
