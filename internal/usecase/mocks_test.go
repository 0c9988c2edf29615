//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/domain/model"
	"iptv-subscription-platform/internal/domain/ports/adapter"
	"iptv-subscription-platform/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger so test output stays clean.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Mock PaymentTransactionRepository ----

type MockTxnRepo struct {
	mu    sync.Mutex
	data  map[string]*model.PaymentTransaction
	byRef map[string]string

	SaveFunc                  func(ctx context.Context, tx repository.Tx, t *model.PaymentTransaction) error
	UpdateStatusIfPendingFunc func(ctx context.Context, tx repository.Tx, id string, status model.TransactionStatus, chargedMinor int64, failureCode string, paidAt *time.Time) (bool, error)
}

var _ repository.PaymentTransactionRepository = (*MockTxnRepo)(nil)

func NewMockTxnRepo() *MockTxnRepo {
	return &MockTxnRepo{data: map[string]*model.PaymentTransaction{}, byRef: map[string]string{}}
}

func (r *MockTxnRepo) Save(ctx context.Context, tx repository.Tx, t *model.PaymentTransaction) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, t)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.data[t.ID] = &cp
	if t.Reference != "" {
		r.byRef[t.Reference] = t.ID
	}
	return nil
}

func (r *MockTxnRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *MockTxnRepo) FindByReference(ctx context.Context, tx repository.Tx, reference string) (*model.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byRef[reference]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r.data[id]
	return &cp, nil
}

func (r *MockTxnRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, age time.Duration, limit int) ([]*model.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-age)
	var out []*model.PaymentTransaction
	for _, t := range r.data {
		if t.Status == model.TransactionStatusPending && t.CreatedAt.Before(cutoff) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockTxnRepo) FindLastAuthorizedByUser(ctx context.Context, tx repository.Tx, userID string) (*model.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *model.PaymentTransaction
	for _, t := range r.data {
		if t.UserID != userID || t.Status != model.TransactionStatusSuccess || t.AuthorizationCode == "" {
			continue
		}
		if best == nil || (t.PaidAt != nil && best.PaidAt != nil && t.PaidAt.After(*best.PaidAt)) {
			cp := *t
			best = &cp
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

func (r *MockTxnRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.TransactionStatus, chargedMinor int64, failureCode string, paidAt *time.Time) (bool, error) {
	if r.UpdateStatusIfPendingFunc != nil {
		return r.UpdateStatusIfPendingFunc(ctx, tx, id, status, chargedMinor, failureCode, paidAt)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if t.Status != model.TransactionStatusPending {
		return false, nil
	}
	t.Status = status
	if chargedMinor > 0 {
		t.ChargedMinor = chargedMinor
	}
	t.FailureCode = failureCode
	if paidAt != nil {
		t.PaidAt = paidAt
	}
	t.UpdatedAt = time.Now()
	return true, nil
}

func (r *MockTxnRepo) SumByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, t := range r.data {
		if t.Status == model.TransactionStatusSuccess {
			sum += t.ChargedMinor
		}
	}
	return sum, nil
}

// ---- Mock PlanChangeRepository ----

type MockPlanChangeRepo struct {
	mu    sync.Mutex
	data  map[string]*model.PlanChange
	byRef map[string]string

	CompleteIfPendingFunc func(ctx context.Context, tx repository.Tx, id string, status model.PlanChangeStatus, failureReason string, executedAt *time.Time) (bool, error)
}

var _ repository.PlanChangeRepository = (*MockPlanChangeRepo)(nil)

func NewMockPlanChangeRepo() *MockPlanChangeRepo {
	return &MockPlanChangeRepo{data: map[string]*model.PlanChange{}, byRef: map[string]string{}}
}

func (r *MockPlanChangeRepo) Save(ctx context.Context, tx repository.Tx, pc *model.PlanChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *pc
	r.data[pc.ID] = &cp
	if pc.PaymentReference != "" {
		r.byRef[pc.PaymentReference] = pc.ID
	}
	return nil
}

func (r *MockPlanChangeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PlanChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pc, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *pc
	return &cp, nil
}

func (r *MockPlanChangeRepo) FindByPaymentReference(ctx context.Context, tx repository.Tx, reference string) (*model.PlanChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byRef[reference]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r.data[id]
	return &cp, nil
}

func (r *MockPlanChangeRepo) FindPendingByUser(ctx context.Context, tx repository.Tx, userID string) (*model.PlanChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pc := range r.data {
		if pc.UserID == userID && pc.Status == model.PlanChangeStatusPending {
			cp := *pc
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockPlanChangeRepo) ListDueScheduled(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.PlanChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PlanChange
	for _, pc := range r.data {
		if pc.Status == model.PlanChangeStatusPending && pc.ScheduledAt != nil && !pc.ScheduledAt.After(now) {
			cp := *pc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockPlanChangeRepo) CompleteIfPending(ctx context.Context, tx repository.Tx, id string, status model.PlanChangeStatus, failureReason string, executedAt *time.Time) (bool, error) {
	if r.CompleteIfPendingFunc != nil {
		return r.CompleteIfPendingFunc(ctx, tx, id, status, failureReason, executedAt)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	pc, ok := r.data[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if pc.Status != model.PlanChangeStatusPending {
		return false, nil
	}
	pc.Status = status
	pc.FailureReason = failureReason
	pc.ExecutedAt = executedAt
	pc.UpdatedAt = time.Now()
	return true, nil
}

// ---- Mock OrderRepository ----

type MockOrderRepo struct {
	mu    sync.Mutex
	data  map[string]*model.Order
	byWoo map[int64]string

	UpdateStatusIfPendingFunc func(ctx context.Context, tx repository.Tx, id string, status model.OrderStatus, provisionedAt *time.Time) (bool, error)
}

var _ repository.OrderRepository = (*MockOrderRepo)(nil)

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{data: map[string]*model.Order{}, byWoo: map[int64]string{}}
}

func (r *MockOrderRepo) Save(ctx context.Context, tx repository.Tx, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.data[o.ID] = &cp
	if o.WooOrderID != 0 {
		r.byWoo[o.WooOrderID] = o.ID
	}
	return nil
}

func (r *MockOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *MockOrderRepo) FindByWooOrderID(ctx context.Context, tx repository.Tx, wooOrderID int64) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byWoo[wooOrderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r.data[id]
	return &cp, nil
}

func (r *MockOrderRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Order
	for _, o := range r.data {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockOrderRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.OrderStatus, provisionedAt *time.Time) (bool, error) {
	if r.UpdateStatusIfPendingFunc != nil {
		return r.UpdateStatusIfPendingFunc(ctx, tx, id, status, provisionedAt)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.data[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if o.Status != model.OrderStatusPendingProvisioning {
		return false, nil
	}
	o.Status = status
	o.ProvisionedAt = provisionedAt
	o.UpdatedAt = time.Now()
	return true, nil
}

// ---- Mock SubscriptionRepository ----

type MockSubRepo struct {
	mu   sync.Mutex
	data map[string]*model.Subscription

	SaveFunc func(ctx context.Context, tx repository.Tx, sub *model.Subscription) error
}

var _ repository.SubscriptionRepository = (*MockSubRepo)(nil)

func NewMockSubRepo() *MockSubRepo {
	return &MockSubRepo{data: map[string]*model.Subscription{}}
}

func (r *MockSubRepo) Save(ctx context.Context, tx repository.Tx, sub *model.Subscription) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, sub)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sub
	// Mirror the real repo: Save never touches service_account_id on update;
	// the link is write-once via SetServiceAccountID.
	if prev, ok := r.data[sub.ID]; ok {
		cp.ServiceAccountID = prev.ServiceAccountID
	}
	r.data[sub.ID] = &cp
	return nil
}

func (r *MockSubRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *MockSubRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.data {
		if s.UserID == userID && (s.Status == model.SubscriptionStatusActive || s.Status == model.SubscriptionStatusPending) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockSubRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Subscription
	for _, s := range r.data {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockSubRepo) FindExpiring(ctx context.Context, tx repository.Tx, within time.Duration, limit int) ([]*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deadline := time.Now().Add(within)
	var out []*model.Subscription
	for _, s := range r.data {
		if s.Status == model.SubscriptionStatusActive && s.ExpiresAt != nil && s.ExpiresAt.Before(deadline) && s.ExpiresAt.After(time.Now()) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockSubRepo) ListExpired(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Subscription
	for _, s := range r.data {
		if s.Status == model.SubscriptionStatusActive && s.ExpiresAt != nil && s.ExpiresAt.Before(now) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockSubRepo) SetServiceAccountID(ctx context.Context, tx repository.Tx, subscriptionID, serviceAccountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.data[subscriptionID]
	if !ok {
		return domain.ErrNotFound
	}
	if s.ServiceAccountID != nil {
		return domain.ErrAlreadyExists
	}
	s.ServiceAccountID = &serviceAccountID
	return nil
}

func (r *MockSubRepo) CountActiveByPlan(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]int{}
	for _, s := range r.data {
		if s.Status == model.SubscriptionStatusActive {
			out[s.PlanID]++
		}
	}
	return out, nil
}

// ---- Mock ServiceAccountRepository ----

type MockAccountRepo struct {
	mu    sync.Mutex
	data  map[string]*model.ServiceAccount
	bySub map[string]string
}

var _ repository.ServiceAccountRepository = (*MockAccountRepo)(nil)

func NewMockAccountRepo() *MockAccountRepo {
	return &MockAccountRepo{data: map[string]*model.ServiceAccount{}, bySub: map[string]string{}}
}

func (r *MockAccountRepo) Save(ctx context.Context, tx repository.Tx, sa *model.ServiceAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sa
	r.data[sa.ID] = &cp
	r.bySub[sa.SubscriptionID] = sa.ID
	return nil
}

func (r *MockAccountRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ServiceAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sa, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *sa
	return &cp, nil
}

func (r *MockAccountRepo) FindBySubscriptionID(ctx context.Context, tx repository.Tx, subscriptionID string) (*model.ServiceAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.bySub[subscriptionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r.data[id]
	return &cp, nil
}

func (r *MockAccountRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.ServiceAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sa := range r.data {
		if sa.Username == username {
			cp := *sa
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockAccountRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.ServiceAccountStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sa, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	sa.Status = status
	return nil
}

func (r *MockAccountRepo) ExtendExpiry(ctx context.Context, tx repository.Tx, id string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sa, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	sa.ExpiresAt = expiresAt
	return nil
}

// ---- Mock ProvisioningLogRepository ----

type MockProvLogRepo struct {
	mu      sync.Mutex
	Entries []*model.ProvisioningLog
}

var _ repository.ProvisioningLogRepository = (*MockProvLogRepo)(nil)

func NewMockProvLogRepo() *MockProvLogRepo { return &MockProvLogRepo{} }

func (r *MockProvLogRepo) Append(ctx context.Context, tx repository.Tx, l *model.ProvisioningLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	r.Entries = append(r.Entries, &cp)
	return nil
}

func (r *MockProvLogRepo) ListByOrder(ctx context.Context, tx repository.Tx, orderID string) ([]*model.ProvisioningLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ProvisioningLog
	for _, l := range r.Entries {
		if l.OrderID == orderID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockProvLogRepo) LastAttemptNumber(ctx context.Context, tx repository.Tx, orderID string, action model.ProvisioningAction) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, l := range r.Entries {
		if l.OrderID == orderID && l.Action == action && l.AttemptNumber > max {
			max = l.AttemptNumber
		}
	}
	return max, nil
}

// ---- Mock PlanRepository ----

type MockPlanRepo struct {
	mu    sync.Mutex
	data  map[string]*model.Plan
	byWoo map[int64]string
}

var _ repository.PlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{data: map[string]*model.Plan{}, byWoo: map[int64]string{}}
}

func (r *MockPlanRepo) Save(ctx context.Context, plan *model.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *plan
	r.data[plan.ID] = &cp
	if plan.WooProductID != 0 {
		r.byWoo[plan.WooProductID] = plan.ID
	}
	return nil
}

func (r *MockPlanRepo) FindByID(ctx context.Context, id string) (*model.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MockPlanRepo) FindByWooProductID(ctx context.Context, wooProductID int64) (*model.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byWoo[wooProductID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r.data[id]
	return &cp, nil
}

func (r *MockPlanRepo) ListActive(ctx context.Context) ([]*model.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Plan
	for _, p := range r.data {
		if p.Active {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockPlanRepo) ListAll(ctx context.Context) ([]*model.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Plan
	for _, p := range r.data {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MockPlanRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu      sync.Mutex
	data    map[string]*model.User
	byEmail map[string]string
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{data: map[string]*model.User{}, byEmail: map[string]string{}}
}

func (r *MockUserRepo) Save(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.data[u.ID] = &cp
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *MockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r.data[id]
	return &cp, nil
}

func (r *MockUserRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data), nil
}

// ---- Mock NotificationLogRepository ----

type MockNotifLogRepo struct {
	mu      sync.Mutex
	Entries []*model.NotificationLog
}

var _ repository.NotificationLogRepository = (*MockNotifLogRepo)(nil)

func NewMockNotifLogRepo() *MockNotifLogRepo { return &MockNotifLogRepo{} }

func (r *MockNotifLogRepo) Save(ctx context.Context, tx repository.Tx, l *model.NotificationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	r.Entries = append(r.Entries, &cp)
	return nil
}

func (r *MockNotifLogRepo) Exists(ctx context.Context, tx repository.Tx, userID string, kind model.NotificationKind, since time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.Entries {
		if l.UserID == userID && l.Kind == kind && l.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

// ---- Mock TicketRepository ----

type MockTicketRepo struct {
	mu       sync.Mutex
	data     map[string]*model.SupportTicket
	messages map[string][]*model.TicketMessage
}

var _ repository.TicketRepository = (*MockTicketRepo)(nil)

func NewMockTicketRepo() *MockTicketRepo {
	return &MockTicketRepo{data: map[string]*model.SupportTicket{}, messages: map[string][]*model.TicketMessage{}}
}

func (r *MockTicketRepo) Save(ctx context.Context, t *model.SupportTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.data[t.ID] = &cp
	return nil
}

func (r *MockTicketRepo) FindByID(ctx context.Context, id string) (*model.SupportTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *MockTicketRepo) ListByUser(ctx context.Context, userID string) ([]*model.SupportTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.SupportTicket
	for _, t := range r.data {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockTicketRepo) ListByStatus(ctx context.Context, status model.TicketStatus, limit int) ([]*model.SupportTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.SupportTicket
	for _, t := range r.data {
		if t.Status == status {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockTicketRepo) AppendMessage(ctx context.Context, m *model.TicketMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.messages[m.TicketID] = append(r.messages[m.TicketID], &cp)
	return nil
}

func (r *MockTicketRepo) ListMessages(ctx context.Context, ticketID string) ([]*model.TicketMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.TicketMessage
	for _, m := range r.messages[ticketID] {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

// WithTx runs the function immediately with NoTX unless a test overrides it.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- Mock PaymentGateway ----

type MockGateway struct {
	ID         string
	Up         bool
	Currencies []string

	InitiatePaymentFunc func(ctx context.Context, user *model.User, plan *model.Plan, callbackURL string, meta map[string]any) (*adapter.CheckoutSession, error)
	VerifyPaymentFunc   func(ctx context.Context, reference string) (*adapter.VerifyResult, error)
	ChargeRecurringFunc func(ctx context.Context, authorizationCode string, amountMinor int64, currency string, meta map[string]any) (*adapter.ChargeResult, error)

	VerifyCalls int
}

var _ adapter.PaymentGateway = (*MockGateway)(nil)

func NewMockGateway(id string) *MockGateway {
	return &MockGateway{ID: id, Up: true, Currencies: []string{"USD"}}
}

func (g *MockGateway) Identifier() string            { return g.ID }
func (g *MockGateway) Available() bool               { return g.Up }
func (g *MockGateway) SupportedCurrencies() []string { return g.Currencies }

func (g *MockGateway) InitiatePayment(ctx context.Context, user *model.User, plan *model.Plan, callbackURL string, meta map[string]any) (*adapter.CheckoutSession, error) {
	if g.InitiatePaymentFunc != nil {
		return g.InitiatePaymentFunc(ctx, user, plan, callbackURL, meta)
	}
	return &adapter.CheckoutSession{CheckoutURL: "https://pay.example/" + plan.ID, Reference: "ref-" + uuid.NewString()}, nil
}

func (g *MockGateway) VerifyPayment(ctx context.Context, reference string) (*adapter.VerifyResult, error) {
	g.VerifyCalls++
	if g.VerifyPaymentFunc != nil {
		return g.VerifyPaymentFunc(ctx, reference)
	}
	return &adapter.VerifyResult{Success: true}, nil
}

func (g *MockGateway) ParseWebhook(payload []byte) (*adapter.WebhookEvent, error) {
	return &adapter.WebhookEvent{}, nil
}

func (g *MockGateway) VerifyWebhookSignature(rawBody []byte, signatureHeader string) error {
	return nil
}

func (g *MockGateway) Refund(ctx context.Context, reference string, amountMinor int64, reason string) (*adapter.RefundResult, error) {
	return &adapter.RefundResult{RefundID: uuid.NewString(), Status: "refunded"}, nil
}

func (g *MockGateway) ChargeRecurring(ctx context.Context, authorizationCode string, amountMinor int64, currency string, meta map[string]any) (*adapter.ChargeResult, error) {
	if g.ChargeRecurringFunc != nil {
		return g.ChargeRecurringFunc(ctx, authorizationCode, amountMinor, currency, meta)
	}
	return &adapter.ChargeResult{Success: true, Reference: "chg-" + uuid.NewString(), ChargedMinor: amountMinor}, nil
}

// ---- Mock GatewayManager ----

type MockGatewayManager struct {
	Gateways map[string]adapter.PaymentGateway
	Default  string
}

func NewMockGatewayManager(gws ...adapter.PaymentGateway) *MockGatewayManager {
	m := &MockGatewayManager{Gateways: map[string]adapter.PaymentGateway{}}
	for _, g := range gws {
		m.Gateways[g.Identifier()] = g
		if m.Default == "" {
			m.Default = g.Identifier()
		}
	}
	return m
}

func (m *MockGatewayManager) Gateway(identifier string) (adapter.PaymentGateway, error) {
	if identifier == "" {
		identifier = m.Default
	}
	g, ok := m.Gateways[identifier]
	if !ok {
		return nil, domain.ErrUnknownGateway
	}
	return g, nil
}

func (m *MockGatewayManager) DirectGateways() []adapter.PaymentGateway {
	var out []adapter.PaymentGateway
	for _, g := range m.Gateways {
		if g.Available() {
			out = append(out, g)
		}
	}
	return out
}

// ---- Mock Provisioner ----

type MockProvisioner struct {
	CreateAccountFunc  func(ctx context.Context, plan *model.Plan, note string) (*adapter.ProvisionResult, error)
	ExtendAccountFunc  func(ctx context.Context, username string, plan *model.Plan) (*adapter.ProvisionResult, error)
	SuspendAccountFunc func(ctx context.Context, username string) error

	CreateCalls  int
	ExtendCalls  int
	SuspendCalls int
}

var _ adapter.Provisioner = (*MockProvisioner)(nil)

func (p *MockProvisioner) CreateAccount(ctx context.Context, plan *model.Plan, note string) (*adapter.ProvisionResult, error) {
	p.CreateCalls++
	if p.CreateAccountFunc != nil {
		return p.CreateAccountFunc(ctx, plan, note)
	}
	return &adapter.ProvisionResult{
		UpstreamID: "42",
		Username:   "line_abc",
		Password:   "secret",
		M3UURL:     "http://panel.example:8080/get.php?username=line_abc&password=secret",
		ServerURL:  "panel.example:8080",
	}, nil
}

func (p *MockProvisioner) ExtendAccount(ctx context.Context, username string, plan *model.Plan) (*adapter.ProvisionResult, error) {
	p.ExtendCalls++
	if p.ExtendAccountFunc != nil {
		return p.ExtendAccountFunc(ctx, username, plan)
	}
	return &adapter.ProvisionResult{Username: username}, nil
}

func (p *MockProvisioner) SuspendAccount(ctx context.Context, username string) error {
	p.SuspendCalls++
	if p.SuspendAccountFunc != nil {
		return p.SuspendAccountFunc(ctx, username)
	}
	return nil
}

// ---- Mock use-case shims ----

type MockProvisionUC struct {
	ProvisionOrderFunc func(ctx context.Context, orderID, subscriptionID, planID string) error

	ProvisionedOrders []string
	ExtendedSubs      []string
	SuspendedSubs     []string
	mu                sync.Mutex
}

func (m *MockProvisionUC) ProvisionOrder(ctx context.Context, orderID, subscriptionID, planID string) error {
	m.mu.Lock()
	m.ProvisionedOrders = append(m.ProvisionedOrders, orderID)
	m.mu.Unlock()
	if m.ProvisionOrderFunc != nil {
		return m.ProvisionOrderFunc(ctx, orderID, subscriptionID, planID)
	}
	return nil
}

func (m *MockProvisionUC) ExtendSubscription(ctx context.Context, subscriptionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExtendedSubs = append(m.ExtendedSubs, subscriptionID)
	return nil
}

func (m *MockProvisionUC) SuspendSubscription(ctx context.Context, subscriptionID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SuspendedSubs = append(m.SuspendedSubs, subscriptionID)
	return nil
}

type MockPlanChangeUC struct {
	ApplyFunc func(ctx context.Context, tx repository.Tx, pc *model.PlanChange) error

	Applied []string
	mu      sync.Mutex
}

func (m *MockPlanChangeUC) RequestUpgrade(ctx context.Context, userID, toPlanID, gatewayID string) (*model.PlanChange, string, error) {
	return nil, "", domain.ErrOperationFailed
}

func (m *MockPlanChangeUC) RequestDowngrade(ctx context.Context, userID, toPlanID string) (*model.PlanChange, error) {
	return nil, domain.ErrOperationFailed
}

func (m *MockPlanChangeUC) Cancel(ctx context.Context, userID, changeID string) error {
	return domain.ErrOperationFailed
}

func (m *MockPlanChangeUC) Apply(ctx context.Context, tx repository.Tx, pc *model.PlanChange) error {
	m.mu.Lock()
	m.Applied = append(m.Applied, pc.ID)
	m.mu.Unlock()
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, tx, pc)
	}
	return nil
}

func (m *MockPlanChangeUC) ExecuteDue(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

type notifyCall struct {
	UserID string
	Kind   model.NotificationKind
}

type MockNotifyUC struct {
	mu    sync.Mutex
	Calls []notifyCall
}

func (m *MockNotifyUC) Notify(ctx context.Context, userID string, kind model.NotificationKind, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, notifyCall{UserID: userID, Kind: kind})
	return nil
}

func (m *MockNotifyUC) SendExpiryReminders(ctx context.Context, thresholdDays []int) (int, error) {
	return 0, nil
}

func (m *MockNotifyUC) kinds() []model.NotificationKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.NotificationKind, len(m.Calls))
	for i, c := range m.Calls {
		out[i] = c.Kind
	}
	return out
}

// ---- Mock Notifier ----

type sentNotification struct {
	UserID string
	Kind   model.NotificationKind
}

type MockNotifier struct {
	mu   sync.Mutex
	Sent []sentNotification
	Err  error
}

var _ adapter.Notifier = (*MockNotifier)(nil)

func (n *MockNotifier) Send(ctx context.Context, user *model.User, kind model.NotificationKind, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, sentNotification{UserID: user.ID, Kind: kind})
	return n.Err
}

// ---- Synchronous Enqueuer ----

// syncQueue runs submitted jobs immediately, making queue side effects visible
// to assertions without a worker pool.
type syncQueue struct {
	mu    sync.Mutex
	Kinds []string
	Errs  []error
}

func (q *syncQueue) Submit(kind string, run func(ctx context.Context) error) error {
	q.mu.Lock()
	q.Kinds = append(q.Kinds, kind)
	q.mu.Unlock()
	err := run(context.Background())
	q.mu.Lock()
	q.Errs = append(q.Errs, err)
	q.mu.Unlock()
	return nil
}

func (q *syncQueue) count(kind string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, k := range q.Kinds {
		if k == kind {
			n++
		}
	}
	return n
}

// ---- In-memory Locker ----

type MockLocker struct {
	mu   sync.Mutex
	held map[string]string
}

func NewMockLocker() *MockLocker { return &MockLocker{held: map[string]string{}} }

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", errors.New("locked")
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
		return nil
	}
	return errors.New("unlock token mismatch")
}
