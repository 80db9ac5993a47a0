package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-pos-terminal/internal/client"
	"go-pos-terminal/internal/model"
	"go-pos-terminal/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) add(username, password, role string) *model.User {
	u := &model.User{Username: username, Role: role, IsActive: true}
	u.ID = uuid.New()
	if err := u.SetPassword(password); err != nil {
		panic(err)
	}
	r.mu.Lock()
	r.users[u.ID] = u
	r.mu.Unlock()
	return u
}

func (r *fakeUserRepo) FindByUsername(username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errors.New("record not found")
}

func (r *fakeUserRepo) FindByID(id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) Create(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Update(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindAll() ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) Count() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) UpdatePassword(userID uuid.UUID, hashedPassword string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userID].Password = hashedPassword
	return nil
}

func (r *fakeUserRepo) UpdateTokenVersion(userID uuid.UUID, version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userID].TokenVersion = version
	return nil
}

func (r *fakeUserRepo) UpdateLastSeen(userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.users[userID].LastSeenAt = &now
	return nil
}

type fakeJournal struct {
	mu      sync.Mutex
	records []model.SubmissionRecord
}

func (j *fakeJournal) Create(record *model.SubmissionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, *record)
	return nil
}

func (j *fakeJournal) List(filter repository.SubmissionFilter) ([]model.SubmissionRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []model.SubmissionRecord
	for _, r := range j.records {
		if filter.Cashier != "" && r.Cashier != filter.Cashier {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (j *fakeJournal) GetSummary(time.Time, time.Time) (*repository.SubmissionSummary, error) {
	return &repository.SubmissionSummary{}, nil
}

type fakeSessions struct {
	closed []string
}

func (f *fakeSessions) CloseSession(key string) {
	f.closed = append(f.closed, key)
}

type fakeBackend struct {
	mu       sync.Mutex
	stock    int
	searches int
	reject   error
}

func (b *fakeBackend) SearchProducts(_ context.Context, query string) ([]model.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.searches++
	p := model.Product{ID: 7, Name: "Tea", Price: decimal.RequireFromString("12.5"), StockQty: b.stock, Barcode: "777"}
	if query != "" && query != p.Barcode {
		return nil, nil
	}
	return []model.Product{p}, nil
}

func (b *fakeBackend) SubmitSale(_ context.Context, payload model.SalePayload, _ client.SubmitOptions) (*model.SaleReceipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.reject != nil {
		return nil, b.reject
	}
	for _, it := range payload.Items {
		b.stock -= it.Qty
	}
	return &model.SaleReceipt{SaleID: "1001"}, nil
}
