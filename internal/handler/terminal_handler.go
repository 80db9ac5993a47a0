package handler

import (
	"errors"
	"strconv"

	"go-pos-terminal/internal/cart"
	"go-pos-terminal/internal/catalog"
	"go-pos-terminal/internal/middleware"
	"go-pos-terminal/internal/service"
	"go-pos-terminal/internal/terminal"

	"github.com/gofiber/fiber/v2"
)

type TerminalHandler struct {
	terminalService service.TerminalService
}

func NewTerminalHandler(terminalService service.TerminalService) *TerminalHandler {
	return &TerminalHandler{terminalService: terminalService}
}

type filterRequest struct {
	Query string `json:"q"`
}

type scanRequest struct {
	Barcode string `json:"barcode"`
}

type addRequest struct {
	ProductID int64 `json:"product_id"`
}

type qtyRequest struct {
	Qty string `json:"qty"`
}

// formRequest carries only the fields the cashier touched.
type formRequest struct {
	Discount      *string `json:"discount"`
	Tax           *string `json:"tax"`
	CustomerName  *string `json:"customer_name"`
	CustomerPhone *string `json:"customer_phone"`
}

type keyRequest struct {
	Key       string `json:"key"`
	Ctrl      bool   `json:"ctrl"`
	Confirmed bool   `json:"confirmed"`
}

// Open returns the current screen, starting a session if needed
// GET /api/v1/terminal
func (h *TerminalHandler) Open(c *fiber.Ctx) error {
	return c.JSON(h.terminalService.Open(c.UserContext(), middleware.Principal(c)))
}

// Event applies a raw terminal event
// POST /api/v1/terminal/events
func (h *TerminalHandler) Event(c *fiber.Ctx) error {
	var ev terminal.Event
	if err := c.BodyParser(&ev); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	return h.dispatch(c, ev)
}

// POST /api/v1/terminal/reload
func (h *TerminalHandler) Reload(c *fiber.Ctx) error {
	return h.dispatch(c, terminal.Event{Type: terminal.EventReload})
}

// POST /api/v1/terminal/filter
func (h *TerminalHandler) Filter(c *fiber.Ctx) error {
	var req filterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	return h.dispatch(c, terminal.Event{Type: terminal.EventFilter, Value: req.Query})
}

// POST /api/v1/terminal/scan
func (h *TerminalHandler) Scan(c *fiber.Ctx) error {
	var req scanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	return h.dispatch(c, terminal.Event{Type: terminal.EventScan, Value: req.Barcode})
}

// AddItem adds a product card to the cart
// POST /api/v1/terminal/cart
func (h *TerminalHandler) AddItem(c *fiber.Ctx) error {
	var req addRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	return h.dispatch(c, terminal.Event{Type: terminal.EventAdd, ProductID: req.ProductID})
}

// UpdateItem sets a line's quantity from raw input
// PUT /api/v1/terminal/cart/:index
func (h *TerminalHandler) UpdateItem(c *fiber.Ctx) error {
	idx, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid line index"})
	}
	var req qtyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	return h.dispatch(c, terminal.Event{Type: terminal.EventUpdateQty, Index: idx, Value: req.Qty})
}

// DELETE /api/v1/terminal/cart/:index
func (h *TerminalHandler) RemoveItem(c *fiber.Ctx) error {
	idx, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid line index"})
	}
	return h.dispatch(c, terminal.Event{Type: terminal.EventRemove, Index: idx})
}

// Clear empties the cart. Without ?confirmed=true the reply only carries the prompt.
// DELETE /api/v1/terminal/cart
func (h *TerminalHandler) Clear(c *fiber.Ctx) error {
	return h.dispatch(c, terminal.Event{Type: terminal.EventClear, Confirmed: c.QueryBool("confirmed")})
}

// UpdateForm
// PUT /api/v1/terminal/form
func (h *TerminalHandler) UpdateForm(c *fiber.Ctx) error {
	var req formRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	var events []terminal.Event
	if req.Discount != nil {
		events = append(events, terminal.Event{Type: terminal.EventDiscount, Value: *req.Discount})
	}
	if req.Tax != nil {
		events = append(events, terminal.Event{Type: terminal.EventTax, Value: *req.Tax})
	}
	if req.CustomerName != nil || req.CustomerPhone != nil {
		current := h.terminalService.Open(c.UserContext(), middleware.Principal(c)).View
		ev := terminal.Event{Type: terminal.EventCustomer, Name: current.CustomerName, Phone: current.CustomerPhone}
		if req.CustomerName != nil {
			ev.Name = *req.CustomerName
		}
		if req.CustomerPhone != nil {
			ev.Phone = *req.CustomerPhone
		}
		events = append(events, ev)
	}
	if len(events) == 0 {
		return h.Open(c)
	}

	for _, ev := range events[:len(events)-1] {
		if _, err := h.terminalService.Dispatch(c.UserContext(), middleware.Principal(c), ev); err != nil {
			return errorStatus(c, err)
		}
	}
	return h.dispatch(c, events[len(events)-1])
}

// POST /api/v1/terminal/pay
func (h *TerminalHandler) Pay(c *fiber.Ctx) error {
	return h.dispatch(c, terminal.Event{Type: terminal.EventPay})
}

// Key handles a keyboard shortcut (Ctrl+P, Ctrl+L)
// POST /api/v1/terminal/keys
func (h *TerminalHandler) Key(c *fiber.Ctx) error {
	var req keyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	return h.dispatch(c, terminal.Event{Type: terminal.EventKey, Key: req.Key, Ctrl: req.Ctrl, Confirmed: req.Confirmed})
}

func (h *TerminalHandler) dispatch(c *fiber.Ctx, ev terminal.Event) error {
	reply, err := h.terminalService.Dispatch(c.UserContext(), middleware.Principal(c), ev)
	if err != nil {
		return errorStatus(c, err)
	}
	return c.Status(replyStatus(ev, reply.Err)).JSON(reply)
}

// replyStatus keeps 200 for everything the cashier is told about in the
// reply itself. Only references to things that do not exist are 404.
func replyStatus(ev terminal.Event, err error) int {
	switch {
	case errors.Is(err, cart.ErrLineNotFound):
		return 404
	case errors.Is(err, catalog.ErrProductNotFound) && ev.Type == terminal.EventAdd:
		return 404
	}
	return 200
}

func errorStatus(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidEvent):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		return c.Status(403).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(500).JSON(fiber.Map{"error": err.Error()})
}
