package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/events"
)

// memStore is an in-memory Transactor plus repositories. WithinTx serialises
// transactions and restores a snapshot on error, so rollbacks are real.
type memStore struct {
	mu    sync.Mutex
	state memState
	// fail makes the named repository operation return the error once.
	fail map[string]error
}

type memState struct {
	nextID      int64
	categories  map[int64]domain.InvestmentCategory
	investments map[int64]domain.Investment
	balances    map[int64]domain.InvestorBalance
	txs         map[int64]domain.Transaction
	details     map[int64]domain.WithdrawalDetail
	penalties   map[int64]domain.WithdrawalPenalty
}

func (s memState) clone() memState {
	c := memState{
		nextID:      s.nextID,
		categories:  make(map[int64]domain.InvestmentCategory, len(s.categories)),
		investments: make(map[int64]domain.Investment, len(s.investments)),
		balances:    make(map[int64]domain.InvestorBalance, len(s.balances)),
		txs:         make(map[int64]domain.Transaction, len(s.txs)),
		details:     make(map[int64]domain.WithdrawalDetail, len(s.details)),
		penalties:   make(map[int64]domain.WithdrawalPenalty, len(s.penalties)),
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.investments {
		c.investments[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.txs {
		c.txs[k] = v
	}
	for k, v := range s.details {
		c.details[k] = v
	}
	for k, v := range s.penalties {
		c.penalties[k] = v
	}
	return c
}

func newMemStore() *memStore {
	return &memStore{state: memState{}.clone(), fail: map[string]error{}}
}

type memTxKey struct{}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// guard takes the store lock for calls made outside WithinTx.
func (s *memStore) guard(ctx context.Context) func() {
	if ctx.Value(memTxKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memStore) injected(op string) error {
	if err, ok := s.fail[op]; ok {
		delete(s.fail, op)
		return err
	}
	return nil
}

func (s *memStore) id() int64 {
	s.state.nextID++
	return s.state.nextID
}

func (s *memStore) categories() *memCategories     { return &memCategories{s} }
func (s *memStore) investments() *memInvestments   { return &memInvestments{s} }
func (s *memStore) balances() *memBalances         { return &memBalances{s} }
func (s *memStore) transactions() *memTransactions { return &memTransactions{s} }

// interestRows returns the INTEREST transactions of an investment by period.
func (s *memStore) interestRows(investmentID int64) []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Transaction
	for _, t := range s.state.txs {
		if t.Type == domain.TransactionTypeInterest && t.InvestmentID != nil && *t.InvestmentID == investmentID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].ROIPeriod < *out[j].ROIPeriod })
	return out
}

func (s *memStore) investment(id int64) domain.Investment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.investments[id]
}

func (s *memStore) balance(id int64) domain.InvestorBalance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.balances[id]
}

func (s *memStore) transaction(id int64) domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.txs[id]
}

func (s *memStore) count() (investments, balances, txs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.investments), len(s.state.balances), len(s.state.txs)
}

// seedActive stores an ACTIVE, funded investment started at start.
func (s *memStore) seedActive(userID int64, principal, ratePercent decimal.Decimal, months int, start time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	catID := s.id()
	s.state.categories[catID] = domain.InvestmentCategory{
		ID: catID, Code: fmt.Sprintf("CAT%d", catID), Name: "Seeded",
		MinAmount: decimal.NewFromInt(1), MaxAmount: decimal.NewFromInt(100000000),
		MonthlyROIRate: ratePercent.Div(decimal.NewFromInt(100)), DurationMonths: months, IsActive: true,
	}

	id := s.id()
	end := start.AddDate(0, months, 0)
	st := start
	s.state.investments[id] = domain.Investment{
		ID: id, UserID: userID, CategoryID: catID,
		PrincipalAmount: principal, ROIRateSnapshot: ratePercent, DurationMonths: months,
		Status: domain.InvestmentStatusActive, StartDate: &st, EndDate: &end,
	}
	b := domain.NewInvestorBalance(id)
	b.PrincipalLocked = principal
	b.TotalDeposited = principal
	s.state.balances[id] = *b
	return id
}

type memCategories struct{ s *memStore }

func (r *memCategories) Create(ctx context.Context, cat *domain.InvestmentCategory) error {
	defer r.s.guard(ctx)()
	for _, c := range r.s.state.categories {
		if c.Code == cat.Code {
			return domain.NewValidationError("code", "already exists")
		}
	}
	cat.ID = r.s.id()
	cat.CreatedAt = time.Now()
	cat.UpdatedAt = cat.CreatedAt
	r.s.state.categories[cat.ID] = *cat
	return nil
}

func (r *memCategories) GetByID(ctx context.Context, id int64) (*domain.InvestmentCategory, error) {
	defer r.s.guard(ctx)()
	c, ok := r.s.state.categories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *memCategories) GetByCode(ctx context.Context, code string) (*domain.InvestmentCategory, error) {
	defer r.s.guard(ctx)()
	for _, c := range r.s.state.categories {
		if c.Code == code {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memCategories) Update(ctx context.Context, cat *domain.InvestmentCategory) error {
	defer r.s.guard(ctx)()
	if _, ok := r.s.state.categories[cat.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.state.categories[cat.ID] = *cat
	return nil
}

func (r *memCategories) SetActive(ctx context.Context, id int64, active bool) error {
	defer r.s.guard(ctx)()
	c, ok := r.s.state.categories[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.IsActive = active
	r.s.state.categories[id] = c
	return nil
}

func (r *memCategories) List(ctx context.Context, activeOnly bool) ([]domain.InvestmentCategory, error) {
	defer r.s.guard(ctx)()
	var out []domain.InvestmentCategory
	for _, c := range r.s.state.categories {
		if !activeOnly || c.IsActive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

type memInvestments struct{ s *memStore }

func (r *memInvestments) Create(ctx context.Context, inv *domain.Investment) error {
	defer r.s.guard(ctx)()
	if err := r.s.injected("investments.Create"); err != nil {
		return err
	}
	inv.ID = r.s.id()
	inv.CreatedAt = time.Now()
	r.s.state.investments[inv.ID] = *inv
	return nil
}

func (r *memInvestments) GetByID(ctx context.Context, id int64) (*domain.Investment, error) {
	defer r.s.guard(ctx)()
	inv, ok := r.s.state.investments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &inv, nil
}

func (r *memInvestments) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Investment, error) {
	return r.GetByID(ctx, id)
}

func (r *memInvestments) ListByUser(ctx context.Context, userID int64) ([]domain.Investment, error) {
	defer r.s.guard(ctx)()
	var out []domain.Investment
	for _, inv := range r.s.state.investments {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memInvestments) ListByStatus(ctx context.Context, status domain.InvestmentStatus) ([]domain.Investment, error) {
	defer r.s.guard(ctx)()
	var out []domain.Investment
	for _, inv := range r.s.state.investments {
		if inv.Status == status {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memInvestments) UpdateStatus(ctx context.Context, id int64, from, to domain.InvestmentStatus) error {
	defer r.s.guard(ctx)()
	inv, ok := r.s.state.investments[id]
	if !ok || inv.Status != from {
		return domain.ErrInvalidTransition
	}
	inv.Status = to
	r.s.state.investments[id] = inv
	return nil
}

func (r *memInvestments) Activate(ctx context.Context, id int64, start, end time.Time) error {
	defer r.s.guard(ctx)()
	inv, ok := r.s.state.investments[id]
	if !ok || inv.Status != domain.InvestmentStatusPendingPayment || inv.StartDate != nil {
		return domain.ErrInvalidTransition
	}
	inv.Status = domain.InvestmentStatusActive
	inv.StartDate = &start
	inv.EndDate = &end
	r.s.state.investments[id] = inv
	return nil
}

func (r *memInvestments) AdvanceROIPeriod(ctx context.Context, id int64, period int) error {
	defer r.s.guard(ctx)()
	if err := r.s.injected("investments.AdvanceROIPeriod"); err != nil {
		return err
	}
	inv, ok := r.s.state.investments[id]
	if !ok || inv.LastROIPeriodPaid != period-1 {
		return domain.ErrIntegrity
	}
	inv.LastROIPeriodPaid = period
	r.s.state.investments[id] = inv
	return nil
}

type memBalances struct{ s *memStore }

func (r *memBalances) Create(ctx context.Context, bal *domain.InvestorBalance) error {
	defer r.s.guard(ctx)()
	if _, ok := r.s.state.balances[bal.InvestmentID]; ok {
		return domain.ErrIntegrity
	}
	bal.LastComputedAt = time.Now()
	r.s.state.balances[bal.InvestmentID] = *bal
	return nil
}

func (r *memBalances) GetByInvestmentID(ctx context.Context, investmentID int64) (*domain.InvestorBalance, error) {
	defer r.s.guard(ctx)()
	b, ok := r.s.state.balances[investmentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (r *memBalances) GetForUpdate(ctx context.Context, investmentID int64) (*domain.InvestorBalance, error) {
	return r.GetByInvestmentID(ctx, investmentID)
}

func (r *memBalances) Update(ctx context.Context, bal *domain.InvestorBalance) error {
	defer r.s.guard(ctx)()
	if _, ok := r.s.state.balances[bal.InvestmentID]; !ok {
		return domain.ErrNotFound
	}
	if bal.AvailableBalance.IsNegative() || bal.PrincipalLocked.IsNegative() {
		return domain.ErrIntegrity
	}
	r.s.state.balances[bal.InvestmentID] = *bal
	return nil
}

type memTransactions struct{ s *memStore }

func (r *memTransactions) Create(ctx context.Context, tx *domain.Transaction) error {
	defer r.s.guard(ctx)()
	if err := r.s.injected("transactions.Create"); err != nil {
		return err
	}
	if tx.Type == domain.TransactionTypeInterest {
		for _, t := range r.s.state.txs {
			if t.Type == domain.TransactionTypeInterest && *t.InvestmentID == *tx.InvestmentID && *t.ROIPeriod == *tx.ROIPeriod {
				return domain.ErrIntegrity
			}
		}
	}
	tx.ID = r.s.id()
	tx.CreatedAt = time.Now()
	r.s.state.txs[tx.ID] = *tx
	return nil
}

func (r *memTransactions) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	defer r.s.guard(ctx)()
	t, ok := r.s.state.txs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (r *memTransactions) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Transaction, error) {
	return r.GetByID(ctx, id)
}

func (r *memTransactions) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	defer r.s.guard(ctx)()
	for _, t := range r.s.state.txs {
		if t.Reference == reference {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memTransactions) UpdateStatus(ctx context.Context, id int64, from, to domain.TransactionStatus, processedBy *int64, processedAt time.Time) error {
	defer r.s.guard(ctx)()
	t, ok := r.s.state.txs[id]
	if !ok || t.Status != from {
		return domain.ErrInvalidTransition
	}
	t.Status = to
	t.ProcessedBy = processedBy
	t.ProcessedAt = &processedAt
	r.s.state.txs[id] = t
	return nil
}

func (r *memTransactions) SetProofURL(ctx context.Context, id int64, proofURL string) error {
	defer r.s.guard(ctx)()
	t, ok := r.s.state.txs[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.ProofURL = &proofURL
	r.s.state.txs[id] = t
	return nil
}

func (r *memTransactions) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int, error) {
	defer r.s.guard(ctx)()
	var out []domain.Transaction
	for _, t := range r.s.state.txs {
		if filter.UserID != 0 && t.UserID != filter.UserID {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (r *memTransactions) FindPendingDeposit(ctx context.Context, investmentID int64) (*domain.Transaction, error) {
	defer r.s.guard(ctx)()
	for _, t := range r.s.state.txs {
		if t.Type == domain.TransactionTypeDeposit && t.Status == domain.TransactionStatusPending &&
			t.InvestmentID != nil && *t.InvestmentID == investmentID {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memTransactions) CreateWithdrawalDetail(ctx context.Context, detail *domain.WithdrawalDetail) error {
	defer r.s.guard(ctx)()
	r.s.state.details[detail.TransactionID] = *detail
	return nil
}

func (r *memTransactions) GetWithdrawalDetail(ctx context.Context, transactionID int64) (*domain.WithdrawalDetail, error) {
	defer r.s.guard(ctx)()
	d, ok := r.s.state.details[transactionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

func (r *memTransactions) CreatePenalty(ctx context.Context, penalty *domain.WithdrawalPenalty) error {
	defer r.s.guard(ctx)()
	r.s.state.penalties[penalty.TransactionID] = *penalty
	return nil
}

func (r *memTransactions) GetPenalty(ctx context.Context, transactionID int64) (*domain.WithdrawalPenalty, error) {
	defer r.s.guard(ctx)()
	p, ok := r.s.state.penalties[transactionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

// recordingPublisher keeps published events in order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Type
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	admin    = domain.Actor{UserID: 1, Roles: []string{domain.RoleAdmin}}
	investor = domain.Actor{UserID: 7}
	stranger = domain.Actor{UserID: 8}
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
