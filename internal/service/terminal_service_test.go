package service

import (
	"context"
	"errors"
	"testing"

	"go-pos-terminal/internal/client"
	"go-pos-terminal/internal/metrics"
	"go-pos-terminal/internal/model"
	"go-pos-terminal/internal/repository"
	"go-pos-terminal/internal/terminal"
	"go-pos-terminal/internal/ws"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type terminalFixture struct {
	svc     TerminalService
	backend *fakeBackend
	journal *fakeJournal
	metrics *metrics.Metrics
}

func newTerminalFixture(t *testing.T) *terminalFixture {
	t.Helper()
	backend := &fakeBackend{stock: 5}
	journal := &fakeJournal{}
	m := metrics.New(prometheus.NewRegistry())
	registry := terminal.NewRegistry(func(cashier string) *terminal.Controller {
		return terminal.New(backend, terminal.Options{Cashier: cashier, RoundSubtotal: true})
	})
	svc := NewTerminalService(registry, journal, nil, m, zap.NewNop(), TerminalOptions{})
	return &terminalFixture{svc: svc, backend: backend, journal: journal, metrics: m}
}

func cashier() *Principal {
	return &Principal{
		UserID:       uuid.New(),
		Username:     "sara",
		Role:         model.RoleCashier,
		Privileges:   model.RolePrivileges[model.RoleCashier],
		TokenVersion: uuid.NewString(),
	}
}

func TestOpenLoadsCatalogOnce(t *testing.T) {
	f := newTerminalFixture(t)
	p := cashier()

	reply := f.svc.Open(context.Background(), p)
	require.Len(t, reply.View.Products, 1)
	assert.True(t, reply.View.CatalogLoaded)

	f.svc.Open(context.Background(), p)
	assert.Equal(t, 1, f.backend.searches)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Sessions))
}

func TestDispatchSaleIsJournaled(t *testing.T) {
	f := newTerminalFixture(t)
	p := cashier()
	ctx := context.Background()

	_, err := f.svc.Dispatch(ctx, p, terminal.Event{Type: terminal.EventScan, Value: "777"})
	require.NoError(t, err)
	_, err = f.svc.Dispatch(ctx, p, terminal.Event{Type: terminal.EventUpdateQty, Index: 0, Value: "2"})
	require.NoError(t, err)

	reply, err := f.svc.Dispatch(ctx, p, terminal.Event{Type: terminal.EventPay})
	require.NoError(t, err)
	require.NoError(t, reply.Err)
	assert.Equal(t, "/invoice/1001", reply.Navigate)

	// The catalog is reloaded so the new screen shows the reduced stock.
	require.Len(t, reply.View.Products, 1)
	assert.Equal(t, 3, reply.View.Products[0].Stock)

	records, err := f.svc.Submissions(repository.SubmissionFilter{Cashier: "sara"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, model.SubmissionSubmitted, rec.Status)
	assert.Equal(t, "1001", rec.SaleID)
	assert.Equal(t, 2, rec.ItemCount)
	assert.Equal(t, "25.00", rec.Total.StringFixed(2))
	assert.Equal(t, p.TokenVersion, rec.Session)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Sales.WithLabelValues("submitted")))
}

func TestDispatchRejectedSaleIsJournaled(t *testing.T) {
	f := newTerminalFixture(t)
	f.backend.reject = &client.APIError{StatusCode: 409, Message: "stock changed"}
	p := cashier()
	ctx := context.Background()

	_, err := f.svc.Dispatch(ctx, p, terminal.Event{Type: terminal.EventAdd, ProductID: 7})
	require.NoError(t, err)
	reply, err := f.svc.Dispatch(ctx, p, terminal.Event{Type: terminal.EventPay})
	require.NoError(t, err)

	assert.Equal(t, "Error: stock changed", reply.Notice)
	require.Len(t, f.journal.records, 1)
	assert.Equal(t, model.SubmissionFailed, f.journal.records[0].Status)
	assert.Contains(t, f.journal.records[0].Error, "stock changed")
}

func TestDispatchRejectsInvalidOrForbidden(t *testing.T) {
	f := newTerminalFixture(t)
	ctx := context.Background()

	_, err := f.svc.Dispatch(ctx, cashier(), terminal.Event{Type: "teleport"})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	viewer := cashier()
	viewer.Privileges = []string{model.PrivTerminalUse}
	_, err = f.svc.Dispatch(ctx, viewer, terminal.Event{Type: terminal.EventPay})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Dispatch(ctx, viewer, terminal.Event{Type: terminal.EventKey, Key: "p", Ctrl: true})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCloseSessionStartsFresh(t *testing.T) {
	f := newTerminalFixture(t)
	p := cashier()
	ctx := context.Background()

	_, err := f.svc.Dispatch(ctx, p, terminal.Event{Type: terminal.EventAdd, ProductID: 7})
	require.NoError(t, err)

	f.svc.CloseSession(p.TokenVersion)

	reply := f.svc.Open(ctx, p)
	assert.Empty(t, reply.View.Cart)
	assert.Zero(t, f.svc.Sweep())
}

func TestIsCashierError(t *testing.T) {
	assert.True(t, isCashierError(terminal.ErrEmptyCart))
	assert.False(t, isCashierError(errors.New("boom")))
}

type nopClient struct{}

func (nopClient) WriteMessage(int, []byte) error { return nil }
func (nopClient) Close() error                   { return nil }

func TestDispatchFromSkipsOrigin(t *testing.T) {
	hub := ws.NewHub(zap.NewNop())
	backend := &fakeBackend{stock: 5}
	registry := terminal.NewRegistry(func(cashier string) *terminal.Controller {
		return terminal.New(backend, terminal.Options{Cashier: cashier})
	})
	svc := NewTerminalService(registry, nil, hub, nil, zap.NewNop(), TerminalOptions{})
	p := cashier()
	origin := &nopClient{}

	reply, err := svc.DispatchFrom(context.Background(), p, terminal.Event{Type: terminal.EventAdd, ProductID: 7}, origin)
	require.NoError(t, err)
	require.Len(t, reply.View.Cart, 1)

	env := <-hub.Broadcast
	assert.Equal(t, p.TokenVersion, env.Session)
	assert.Equal(t, ws.Client(origin), env.Skip)
}

func TestDispatchAnswersWhenBroadcastQueueIsFull(t *testing.T) {
	hub := ws.NewHub(zap.NewNop())
	for i := 0; i < cap(hub.Broadcast); i++ {
		hub.Broadcast <- ws.Envelope{Payload: []byte("x")}
	}
	backend := &fakeBackend{stock: 5}
	registry := terminal.NewRegistry(func(cashier string) *terminal.Controller {
		return terminal.New(backend, terminal.Options{Cashier: cashier})
	})
	svc := NewTerminalService(registry, nil, hub, nil, zap.NewNop(), TerminalOptions{})

	reply, err := svc.DispatchFrom(context.Background(), cashier(), terminal.Event{Type: terminal.EventAdd, ProductID: 7}, &nopClient{})

	require.NoError(t, err)
	require.Len(t, reply.View.Cart, 1)
	assert.Equal(t, "Tea", reply.View.Cart[0].Name)
}
