package usecase

import (
	"fmt"
	"sync"
	"time"

	"github.com/apsoplatform/apso/internal/domain"
	"github.com/apsoplatform/apso/pkg/utils"
)

// memStore backs the in-memory repositories used across the usecase tests.
// The repository wrappers mirror the database semantics: balance side effects
// and record writes happen under one lock, and failed checks leave the store
// untouched.
type memStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
	txns  map[string]*domain.Transaction
	invs  map[string]*domain.Investment
	plans map[string]*domain.Plan
	queue []string
}

func newMemStore() *memStore {
	s := &memStore{
		users: make(map[string]*domain.User),
		txns:  make(map[string]*domain.Transaction),
		invs:  make(map[string]*domain.Investment),
		plans: make(map[string]*domain.Plan),
	}
	for _, p := range domain.DefaultCatalog() {
		s.plans[p.ID] = p
	}
	return s
}

func (s *memStore) addUser(u *domain.User) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = utils.GenerateUUID()
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	s.users[u.ID] = u
	return u
}

// --- user repository ---

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) GetByPhone(phone string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if user.Phone == phone {
			copied := *user
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("phone %s: %w", phone, domain.ErrNotFound)
}

func (r *memUserRepo) List() ([]*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	users := make([]*domain.User, 0, len(r.s.users))
	for _, user := range r.s.users {
		copied := *user
		users = append(users, &copied)
	}
	return users, nil
}

func (r *memUserRepo) Update(user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return fmt.Errorf("user %s: %w", user.ID, domain.ErrNotFound)
	}
	copied := *user
	r.s.users[user.ID] = &copied
	return nil
}

func (r *memUserRepo) UpdateBankDetails(id string, details *domain.BankDetails) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	user.BankAccountHolder = &details.AccountHolder
	user.BankAccountNumber = &details.AccountNumber
	user.BankIFSC = &details.IFSC
	return nil
}

func (r *memUserRepo) GetByReferrer(referrerID string) ([]*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var users []*domain.User
	for _, user := range r.s.users {
		if user.ReferrerID() == referrerID {
			copied := *user
			users = append(users, &copied)
		}
	}
	return users, nil
}

func (r *memUserRepo) GetBalance(id string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return 0, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return user.Balance, nil
}

// --- ledger repository ---

type memLedgerRepo struct{ s *memStore }

func (r *memLedgerRepo) Create(txn *domain.Transaction, hold bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if hold && txn.Type == domain.TypeWithdrawal {
		user, ok := r.s.users[txn.UserID]
		if !ok {
			return fmt.Errorf("user %s: %w", txn.UserID, domain.ErrNotFound)
		}
		if user.Balance < txn.Amount {
			return domain.NewInsufficientFunds(txn.Amount, user.Balance)
		}
		user.Balance -= txn.Amount
		txn.HoldApplied = true
	} else {
		txn.HoldApplied = false
	}

	copied := *txn
	r.s.txns[txn.ID] = &copied
	return nil
}

func (r *memLedgerRepo) GetByID(id string) (*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	txn, ok := r.s.txns[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	copied := *txn
	return &copied, nil
}

func (r *memLedgerRepo) GetByUserID(userID string, limit, offset int) ([]*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var txns []*domain.Transaction
	for _, txn := range r.s.txns {
		if txn.UserID == userID {
			copied := *txn
			txns = append(txns, &copied)
		}
	}
	return txns, nil
}

func (r *memLedgerRepo) GetPending() ([]*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var txns []*domain.Transaction
	for _, txn := range r.s.txns {
		if txn.Status == domain.StatusPending {
			copied := *txn
			txns = append(txns, &copied)
		}
	}
	return txns, nil
}

func (r *memLedgerRepo) Decide(id, decision string, decidedAt time.Time) (*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	txn, ok := r.s.txns[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	if txn.IsFinal() {
		return nil, fmt.Errorf("transaction %s already %s: %w", id, txn.Status, domain.ErrInvalidState)
	}

	user, ok := r.s.users[txn.UserID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", txn.UserID, domain.ErrNotFound)
	}

	switch {
	case decision == domain.DecisionApprove && txn.Type == domain.TypeDeposit:
		user.Balance += txn.Amount
	case decision == domain.DecisionApprove && txn.Type == domain.TypeWithdrawal:
		if !txn.HoldApplied {
			user.Balance -= txn.Amount
		}
	case decision == domain.DecisionReject && txn.Type == domain.TypeWithdrawal:
		if txn.HoldApplied {
			user.Balance += txn.Amount
		}
	}

	txn.Status = decision
	txn.DecidedAt = &decidedAt
	copied := *txn
	return &copied, nil
}

func (r *memLedgerRepo) SumApprovedByType(userID, txnType string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var total int64
	for _, txn := range r.s.txns {
		if txn.UserID == userID && txn.Type == txnType && txn.Status == domain.StatusApproved {
			total += txn.Amount
		}
	}
	return total, nil
}

// --- investment repository ---

type memInvestmentRepo struct{ s *memStore }

func (r *memInvestmentRepo) PurchaseEntry(inv *domain.Investment, cost int64, maxPerPlan int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[inv.UserID]
	if !ok {
		return fmt.Errorf("user %s: %w", inv.UserID, domain.ErrNotFound)
	}

	count := 0
	for _, existing := range r.s.invs {
		if existing.UserID == inv.UserID && existing.PlanID == inv.PlanID {
			count++
		}
	}
	if count >= maxPerPlan {
		return fmt.Errorf("plan %s held %d times, max %d: %w",
			inv.PlanID, count, maxPerPlan, domain.ErrLimitExceeded)
	}

	if user.Balance < cost {
		return domain.NewInsufficientFunds(cost, user.Balance)
	}

	user.Balance -= cost
	copied := *inv
	r.s.invs[inv.ID] = &copied
	rowID := utils.GenerateUUID()
	r.s.txns[rowID] = &domain.Transaction{
		ID:        rowID,
		UserID:    inv.UserID,
		Type:      domain.TypeInvestment,
		Amount:    cost,
		Status:    domain.StatusApproved,
		CreatedAt: inv.CreatedAt,
	}
	return nil
}

func (r *memInvestmentRepo) Accrue(id string, now time.Time) (*domain.Investment, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	inv, ok := r.s.invs[id]
	if !ok {
		return nil, 0, fmt.Errorf("investment %s: %w", id, domain.ErrNotFound)
	}

	days := inv.AccruableDays(now)
	if days == 0 {
		copied := *inv
		return &copied, 0, nil
	}

	credit := int64(days) * inv.DailyReturn
	inv.ClaimedDays += days
	inv.IsActive = !inv.IsComplete()

	user, ok := r.s.users[inv.UserID]
	if !ok {
		return nil, 0, fmt.Errorf("user %s: %w", inv.UserID, domain.ErrNotFound)
	}
	user.Balance += credit

	rowID := utils.GenerateUUID()
	r.s.txns[rowID] = &domain.Transaction{
		ID:        rowID,
		UserID:    inv.UserID,
		Type:      domain.TypeEarning,
		Amount:    credit,
		Status:    domain.StatusApproved,
		CreatedAt: now,
	}

	copied := *inv
	return &copied, credit, nil
}

func (r *memInvestmentRepo) GetByID(id string) (*domain.Investment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invs[id]
	if !ok {
		return nil, fmt.Errorf("investment %s: %w", id, domain.ErrNotFound)
	}
	copied := *inv
	return &copied, nil
}

func (r *memInvestmentRepo) GetByUserID(userID string) ([]*domain.Investment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var invs []*domain.Investment
	for _, inv := range r.s.invs {
		if inv.UserID == userID {
			copied := *inv
			invs = append(invs, &copied)
		}
	}
	return invs, nil
}

func (r *memInvestmentRepo) GetActiveIDs() ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []string
	for id, inv := range r.s.invs {
		if inv.IsActive {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *memInvestmentRepo) CountByUserAndPlan(userID, planID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, inv := range r.s.invs {
		if inv.UserID == userID && inv.PlanID == planID {
			count++
		}
	}
	return count, nil
}

// --- plan repository ---

type memPlanRepo struct{ s *memStore }

func (r *memPlanRepo) GetByID(id string) (*domain.Plan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	plan, ok := r.s.plans[id]
	if !ok {
		return nil, fmt.Errorf("plan %s: %w", id, domain.ErrNotFound)
	}
	copied := *plan
	return &copied, nil
}

func (r *memPlanRepo) List() ([]*domain.Plan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	plans := make([]*domain.Plan, 0, len(r.s.plans))
	for _, plan := range r.s.plans {
		copied := *plan
		plans = append(plans, &copied)
	}
	return plans, nil
}

func (r *memPlanRepo) Seed(plans []*domain.Plan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if len(r.s.plans) > 0 {
		return nil
	}
	for _, plan := range plans {
		copied := *plan
		r.s.plans[plan.ID] = &copied
	}
	return nil
}

// --- accrual queue ---

type memQueue struct{ s *memStore }

func (q *memQueue) EnqueueAccrual(investmentID string) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	q.s.queue = append(q.s.queue, investmentID)
	return nil
}

func (q *memQueue) DequeueAccrual() (string, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if len(q.s.queue) == 0 {
		return "", nil
	}
	id := q.s.queue[0]
	q.s.queue = q.s.queue[1:]
	return id, nil
}

func (q *memQueue) QueueLength() (int64, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	return int64(len(q.s.queue)), nil
}

// --- user cache ---

type memUserCache struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserCache() *memUserCache {
	return &memUserCache{users: make(map[string]*domain.User)}
}

func (c *memUserCache) CacheUser(user *domain.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *user
	c.users[user.ID] = &copied
	return nil
}

func (c *memUserCache) GetUser(userID string) (*domain.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	user, ok := c.users[userID]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (c *memUserCache) InvalidateUser(userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.users, userID)
	return nil
}

func (c *memUserCache) holds(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.users[userID]
	return ok
}

// --- auth service ---

type stubAuthService struct{}

func (s *stubAuthService) GenerateAccessToken(user *domain.User) (string, error) {
	return "token-" + user.ID, nil
}

func (s *stubAuthService) ValidateToken(token string) (*domain.AuthClaims, error) {
	return &domain.AuthClaims{UserID: token[len("token-"):], Role: domain.RoleUser}, nil
}
