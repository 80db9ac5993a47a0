// Package terminal implements one cashier's point-of-sale session: catalog,
// cart, totals and the pay flow, driven by events and answered with a view.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go-pos-terminal/internal/cart"
	"go-pos-terminal/internal/catalog"
	"go-pos-terminal/internal/client"
	"go-pos-terminal/internal/model"
	"go-pos-terminal/pkg/validator"

	"github.com/google/uuid"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrSubmissionInFlight   = errors.New("a sale is already being submitted")
	ErrConfirmationRequired = errors.New("clearing the cart needs confirmation")
	ErrUnknownEvent         = errors.New("unknown event type")
	ErrInvalidPayload       = errors.New("invalid sale payload")
)

type Options struct {
	Cashier string
	// RoundSubtotal computes the total from the subtotal rounded for display.
	RoundSubtotal  bool
	Messages       Messages
	InvoiceBaseURL string
	Currency       string
}

// Form holds the raw text of the editable fields under the cart.
type Form struct {
	CustomerName  string
	CustomerPhone string
	Discount      string
	Tax           string
}

func defaultForm() Form {
	return Form{Discount: "0", Tax: "0"}
}

type payState int

const (
	payIdle payState = iota
	paySubmitting
)

// Submission describes one sale that went out to the backend.
type Submission struct {
	IdempotencyKey uuid.UUID
	Payload        model.SalePayload
	Totals         cart.Totals
	Receipt        *model.SaleReceipt
	InvoiceURL     string
	Err            error
}

// Controller owns the state of a single terminal session. It is safe for
// concurrent use; backend calls are made without holding the lock.
type Controller struct {
	backend client.Backend
	catalog *catalog.Catalog
	opts    Options

	mu     sync.Mutex
	cart   *cart.Cart
	form   Form
	filter string
	state  payState
}

func New(backend client.Backend, opts Options) *Controller {
	if opts.Messages == (Messages{}) {
		opts.Messages = English
	}
	return &Controller{
		backend: backend,
		catalog: catalog.New(backend),
		opts:    opts,
		cart:    cart.New(),
		form:    defaultForm(),
	}
}

func (c *Controller) Cashier() string {
	return c.opts.Cashier
}

// Reload refreshes the product list. Older overlapping loads are discarded.
func (c *Controller) Reload(ctx context.Context) error {
	return c.catalog.Load(ctx)
}

func (c *Controller) SetFilter(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = q
}

// Scan looks code up on the server and adds the first match to the cart.
func (c *Controller) Scan(ctx context.Context, code string) error {
	if code == "" {
		return nil
	}
	if err := c.editable(); err != nil {
		return err
	}
	p, err := c.catalog.Lookup(ctx, code)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	c.cart.Add(p)
	return nil
}

// AddProduct adds the cached snapshot of product id, as a click on its card does.
func (c *Controller) AddProduct(id int64) error {
	p, err := c.catalog.Find(id)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	c.cart.Add(p)
	return nil
}

func (c *Controller) UpdateQty(idx int, raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	return c.cart.UpdateQty(idx, raw)
}

func (c *Controller) Remove(idx int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	return c.cart.Remove(idx)
}

// Clear empties the cart and resets the form, but only once confirmed.
func (c *Controller) Clear(confirmed bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	c.resetLocked()
	return nil
}

func (c *Controller) SetDiscount(raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	c.form.Discount = raw
	return nil
}

func (c *Controller) SetTax(raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	c.form.Tax = raw
	return nil
}

func (c *Controller) SetCustomer(name, phone string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	c.form.CustomerName = name
	c.form.CustomerPhone = phone
	return nil
}

func (c *Controller) Totals() cart.Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalsLocked()
}

// Pay submits the cart as a sale. An empty cart or a sale already in flight is
// refused before anything is sent. The cart and form are frozen until the
// backend answers. On success the session starts over with an empty cart; on
// failure the cart is kept so the cashier can try again.
func (c *Controller) Pay(ctx context.Context) (*Submission, error) {
	c.mu.Lock()
	if c.state == paySubmitting {
		c.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if c.cart.IsEmpty() {
		c.mu.Unlock()
		return nil, ErrEmptyCart
	}
	totals := c.totalsLocked()
	payload := model.SalePayload{
		Items:         c.cart.SaleItems(),
		Discount:      totals.Discount,
		Tax:           totals.Tax,
		CustomerName:  c.form.CustomerName,
		CustomerPhone: c.form.CustomerPhone,
	}
	c.state = paySubmitting
	c.mu.Unlock()

	if errs := validator.ValidateStruct(payload); len(errs) > 0 {
		c.setState(payIdle)
		return nil, fmt.Errorf("%w: field '%s' failed on tag '%s'", ErrInvalidPayload, errs[0].FailedField, errs[0].Tag)
	}

	sub := &Submission{IdempotencyKey: uuid.New(), Payload: payload, Totals: totals}
	receipt, err := c.backend.SubmitSale(ctx, payload, client.SubmitOptions{
		IdempotencyKey: sub.IdempotencyKey.String(),
		Cashier:        c.opts.Cashier,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = payIdle
	if err != nil {
		sub.Err = err
		return sub, fmt.Errorf("submitting sale: %w", err)
	}
	sub.Receipt = receipt
	sub.InvoiceURL = c.invoiceURL(receipt.SaleID)
	c.resetLocked()
	return sub, nil
}

// Handle applies ev and returns the re-rendered screen with any notice,
// confirmation prompt or navigation it produced.
func (c *Controller) Handle(ctx context.Context, ev Event) Reply {
	var reply Reply

	if ev.Type == EventKey {
		mapped, ok := ShortcutFor(ev)
		if !ok {
			reply.View = c.View()
			return reply
		}
		ev = mapped
	}

	var err error
	switch ev.Type {
	case EventReload:
		err = c.Reload(ctx)
	case EventFilter:
		c.SetFilter(ev.Value)
	case EventScan:
		err = c.Scan(ctx, ev.Value)
		reply.ClearBarcode = true
	case EventAdd:
		err = c.AddProduct(ev.ProductID)
	case EventUpdateQty:
		err = c.UpdateQty(ev.Index, ev.Value)
	case EventRemove:
		err = c.Remove(ev.Index)
	case EventClear:
		err = c.Clear(ev.Confirmed)
	case EventDiscount:
		err = c.SetDiscount(ev.Value)
	case EventTax:
		err = c.SetTax(ev.Value)
	case EventCustomer:
		err = c.SetCustomer(ev.Name, ev.Phone)
	case EventPay:
		var sub *Submission
		sub, err = c.Pay(ctx)
		reply.Submission = sub
		if err == nil {
			reply.Navigate = sub.InvoiceURL
		}
	default:
		err = ErrUnknownEvent
	}

	reply.Err = err
	reply.Notice, reply.Confirm = c.effects(ev, err)
	reply.View = c.View()
	return reply
}

// effects turns an outcome into what the cashier is shown. Catalog and scan
// transport failures stay silent; they are only logged upstream.
func (c *Controller) effects(ev Event, err error) (notice, confirm string) {
	msgs := c.opts.Messages
	switch {
	case err == nil:
		return "", ""
	case errors.Is(err, ErrConfirmationRequired):
		return "", msgs.ConfirmClear
	case errors.Is(err, ErrEmptyCart):
		return msgs.CartEmpty, ""
	case errors.Is(err, ErrSubmissionInFlight):
		return msgs.SubmissionInFlight, ""
	case errors.Is(err, catalog.ErrProductNotFound) && ev.Type == EventScan:
		return msgs.ProductNotFound, ""
	case ev.Type == EventPay:
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return msgs.SaleErrorPrefix + apiErr.Message, ""
		}
		return msgs.SaleErrorPrefix + msgs.SaleErrorFallback, ""
	}
	return "", ""
}

func (c *Controller) View() View {
	products := RenderProducts(c.catalog.Filter(c.currentFilter()))

	c.mu.Lock()
	defer c.mu.Unlock()
	totals := c.totalsLocked()
	return View{
		Products:      products,
		Cart:          renderCart(c.cart.Lines()),
		Count:         totals.Count,
		Subtotal:      cart.Money(totals.Subtotal),
		Discount:      c.form.Discount,
		Tax:           c.form.Tax,
		Total:         cart.Money(totals.Total),
		CustomerName:  c.form.CustomerName,
		CustomerPhone: c.form.CustomerPhone,
		Filter:        c.filter,
		Currency:      c.opts.Currency,
		Submitting:    c.state == paySubmitting,
		CatalogLoaded: c.catalog.Loaded(),
	}
}

func (c *Controller) currentFilter() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

func (c *Controller) totalsLocked() cart.Totals {
	return cart.ComputeTotals(c.cart, cart.ParseAmount(c.form.Discount), cart.ParseAmount(c.form.Tax), c.opts.RoundSubtotal)
}

func (c *Controller) resetLocked() {
	c.cart.Reset()
	c.form = defaultForm()
}

// editableLocked refuses cart and form edits while a sale is submitting, so
// the reset after success only discards what was actually sold.
func (c *Controller) editableLocked() error {
	if c.state == paySubmitting {
		return ErrSubmissionInFlight
	}
	return nil
}

func (c *Controller) editable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editableLocked()
}

func (c *Controller) setState(s payState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func (c *Controller) invoiceURL(saleID string) string {
	return strings.TrimRight(c.opts.InvoiceBaseURL, "/") + "/invoice/" + url.PathEscape(saleID)
}
