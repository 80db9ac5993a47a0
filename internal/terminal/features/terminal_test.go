package features

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"go-pos-terminal/internal/client"
	"go-pos-terminal/internal/model"
	"go-pos-terminal/internal/terminal"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
)

type stubBackend struct {
	mu        sync.Mutex
	products  []model.Product
	rejectMsg string
	submitted int
}

func (b *stubBackend) SearchProducts(_ context.Context, query string) ([]model.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []model.Product
	for _, p := range b.products {
		if query == "" || p.Barcode == query {
			out = append(out, p)
		}
	}
	return out, nil
}

func (b *stubBackend) SubmitSale(context.Context, model.SalePayload, client.SubmitOptions) (*model.SaleReceipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submitted++
	if b.rejectMsg != "" {
		return nil, &client.APIError{StatusCode: 400, Message: b.rejectMsg}
	}
	return &model.SaleReceipt{SaleID: "42"}, nil
}

type terminalTestContext struct {
	backend *stubBackend
	ctrl    *terminal.Controller
	reply   terminal.Reply
}

func (tc *terminalTestContext) reset() {
	tc.backend = &stubBackend{}
	tc.ctrl = nil
	tc.reply = terminal.Reply{}
}

func (tc *terminalTestContext) theCatalogContains(table *godog.Table) error {
	for _, row := range table.Rows[1:] {
		id, err := strconv.ParseInt(row.Cells[0].Value, 10, 64)
		if err != nil {
			return err
		}
		price, err := decimal.NewFromString(row.Cells[2].Value)
		if err != nil {
			return err
		}
		stock, err := strconv.Atoi(row.Cells[3].Value)
		if err != nil {
			return err
		}
		tc.backend.products = append(tc.backend.products, model.Product{
			ID:       id,
			Name:     row.Cells[1].Value,
			Price:    price,
			StockQty: stock,
			Barcode:  row.Cells[4].Value,
		})
	}
	return nil
}

func (tc *terminalTestContext) aTerminalSessionForCashier(cashier string) error {
	tc.ctrl = terminal.New(tc.backend, terminal.Options{Cashier: cashier, RoundSubtotal: true})
	tc.reply = tc.ctrl.Handle(context.Background(), terminal.Event{Type: terminal.EventReload})
	return tc.reply.Err
}

func (tc *terminalTestContext) theBackendRejectsSalesWith(msg string) error {
	tc.backend.rejectMsg = msg
	return nil
}

func (tc *terminalTestContext) handle(ev terminal.Event) {
	tc.reply = tc.ctrl.Handle(context.Background(), ev)
}

func (tc *terminalTestContext) iClickProduct(id int) error {
	tc.handle(terminal.Event{Type: terminal.EventAdd, ProductID: int64(id)})
	return nil
}

func (tc *terminalTestContext) iClickProductTimes(id, times int) error {
	for i := 0; i < times; i++ {
		tc.handle(terminal.Event{Type: terminal.EventAdd, ProductID: int64(id)})
	}
	return nil
}

func (tc *terminalTestContext) iSetTheDiscountTo(v string) error {
	tc.handle(terminal.Event{Type: terminal.EventDiscount, Value: v})
	return nil
}

func (tc *terminalTestContext) iSetTheTaxTo(v string) error {
	tc.handle(terminal.Event{Type: terminal.EventTax, Value: v})
	return nil
}

func (tc *terminalTestContext) iPressPay() error {
	tc.handle(terminal.Event{Type: terminal.EventPay})
	return nil
}

func (tc *terminalTestContext) iPressCtrlL() error {
	tc.handle(terminal.Event{Type: terminal.EventKey, Key: "l", Ctrl: true})
	return nil
}

func (tc *terminalTestContext) iConfirmClearingTheCart() error {
	tc.handle(terminal.Event{Type: terminal.EventClear, Confirmed: true})
	return nil
}

func (tc *terminalTestContext) iScan(code string) error {
	tc.handle(terminal.Event{Type: terminal.EventScan, Value: code})
	return nil
}

func (tc *terminalTestContext) theCartHasLines(n int) error {
	if got := len(tc.reply.View.Cart); got != n {
		return fmt.Errorf("expected %d cart lines, got %d", n, got)
	}
	return nil
}

func (tc *terminalTestContext) theCartIsEmpty() error {
	return tc.theCartHasLines(0)
}

func (tc *terminalTestContext) lineHasQuantity(idx, qty int) error {
	rows := tc.reply.View.Cart
	if idx >= len(rows) {
		return fmt.Errorf("no cart line %d", idx)
	}
	if rows[idx].Qty != qty {
		return fmt.Errorf("expected quantity %d, got %d", qty, rows[idx].Qty)
	}
	return nil
}

func (tc *terminalTestContext) theSubtotalIs(want string) error {
	if got := tc.reply.View.Subtotal; got != want {
		return fmt.Errorf("expected subtotal %q, got %q", want, got)
	}
	return nil
}

func (tc *terminalTestContext) theTotalIs(want string) error {
	if got := tc.reply.View.Total; got != want {
		return fmt.Errorf("expected total %q, got %q", want, got)
	}
	return nil
}

func (tc *terminalTestContext) productIsShownAs(id int, status string) error {
	for _, card := range tc.reply.View.Products {
		if card.ID == int64(id) {
			if string(card.Status) != status {
				return fmt.Errorf("expected status %q, got %q", status, card.Status)
			}
			return nil
		}
	}
	return fmt.Errorf("product %d is not shown", id)
}

func (tc *terminalTestContext) theNoticeIs(want string) error {
	if tc.reply.Notice != want {
		return fmt.Errorf("expected notice %q, got %q", want, tc.reply.Notice)
	}
	return nil
}

func (tc *terminalTestContext) iAmAsked(want string) error {
	if tc.reply.Confirm != want {
		return fmt.Errorf("expected confirmation %q, got %q", want, tc.reply.Confirm)
	}
	return nil
}

func (tc *terminalTestContext) salesWereSubmitted(n int) error {
	tc.backend.mu.Lock()
	defer tc.backend.mu.Unlock()
	if tc.backend.submitted != n {
		return fmt.Errorf("expected %d submitted sales, got %d", n, tc.backend.submitted)
	}
	return nil
}

func (tc *terminalTestContext) noSaleWasSubmitted() error {
	return tc.salesWereSubmitted(0)
}

func (tc *terminalTestContext) theTerminalNavigatesTo(want string) error {
	if tc.reply.Navigate != want {
		return fmt.Errorf("expected navigation to %q, got %q", want, tc.reply.Navigate)
	}
	return nil
}

func (tc *terminalTestContext) theBarcodeFieldIsCleared() error {
	if !tc.reply.ClearBarcode {
		return fmt.Errorf("barcode field was not cleared")
	}
	return nil
}

func (tc *terminalTestContext) theDiscountFieldShows(want string) error {
	if tc.reply.View.Discount != want {
		return fmt.Errorf("expected discount %q, got %q", want, tc.reply.View.Discount)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &terminalTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the catalog contains:$`, tc.theCatalogContains)
	ctx.Step(`^a terminal session for cashier "([^"]*)"$`, tc.aTerminalSessionForCashier)
	ctx.Step(`^the backend rejects sales with "([^"]*)"$`, tc.theBackendRejectsSalesWith)

	// When steps
	ctx.Step(`^I click product (\d+)$`, tc.iClickProduct)
	ctx.Step(`^I click product (\d+) (\d+) times$`, tc.iClickProductTimes)
	ctx.Step(`^I set the discount to "([^"]*)"$`, tc.iSetTheDiscountTo)
	ctx.Step(`^I set the tax to "([^"]*)"$`, tc.iSetTheTaxTo)
	ctx.Step(`^I press pay$`, tc.iPressPay)
	ctx.Step(`^I press Ctrl\+L$`, tc.iPressCtrlL)
	ctx.Step(`^I confirm clearing the cart$`, tc.iConfirmClearingTheCart)
	ctx.Step(`^I scan "([^"]*)"$`, tc.iScan)

	// Then steps
	ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLines)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^line (\d+) has quantity (\d+)$`, tc.lineHasQuantity)
	ctx.Step(`^the subtotal is "([^"]*)"$`, tc.theSubtotalIs)
	ctx.Step(`^the total is "([^"]*)"$`, tc.theTotalIs)
	ctx.Step(`^product (\d+) is shown as "([^"]*)"$`, tc.productIsShownAs)
	ctx.Step(`^the notice is "([^"]*)"$`, tc.theNoticeIs)
	ctx.Step(`^I am asked "([^"]*)"$`, tc.iAmAsked)
	ctx.Step(`^(\d+) sales? (?:was|were) submitted$`, tc.salesWereSubmitted)
	ctx.Step(`^no sale was submitted$`, tc.noSaleWasSubmitted)
	ctx.Step(`^the terminal navigates to "([^"]*)"$`, tc.theTerminalNavigatesTo)
	ctx.Step(`^the barcode field is cleared$`, tc.theBarcodeFieldIsCleared)
	ctx.Step(`^the discount field shows "([^"]*)"$`, tc.theDiscountFieldShows)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
