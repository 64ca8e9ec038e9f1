// Package memory is an in-process implementation of repository.Store used by
// service tests and local tooling. Transactions run against a cloned state that
// replaces the committed state only when the callback succeeds, so a failing
// step leaves every record untouched.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"blood-donation/internal/domain"
	"blood-donation/internal/repository"
)

type state struct {
	units         map[uuid.UUID]domain.BloodUnit
	unitOrder     []uuid.UUID
	unitActions   []domain.BloodUnitAction
	donations     map[uuid.UUID]domain.CampaignDonation
	donationOrder []uuid.UUID
	donationLogs  []domain.CampaignDonationLog
	requests      map[uuid.UUID]domain.EmergencyRequest
	requestOrder  []uuid.UUID
	requestLogs   []domain.EmergencyRequestLog
	campaigns     map[uuid.UUID]domain.Campaign
	campaignOrder []uuid.UUID
	customers     map[uuid.UUID]domain.Customer
	accounts      map[uuid.UUID]domain.Account
}

func newState() *state {
	return &state{
		units:     make(map[uuid.UUID]domain.BloodUnit),
		donations: make(map[uuid.UUID]domain.CampaignDonation),
		requests:  make(map[uuid.UUID]domain.EmergencyRequest),
		campaigns: make(map[uuid.UUID]domain.Campaign),
		customers: make(map[uuid.UUID]domain.Customer),
		accounts:  make(map[uuid.UUID]domain.Account),
	}
}

// clone copies every map and slice. Entity values are copied by value; their
// pointer fields are never mutated in place, only replaced.
func (s *state) clone() *state {
	c := &state{
		units:         make(map[uuid.UUID]domain.BloodUnit, len(s.units)),
		unitOrder:     append([]uuid.UUID(nil), s.unitOrder...),
		unitActions:   append([]domain.BloodUnitAction(nil), s.unitActions...),
		donations:     make(map[uuid.UUID]domain.CampaignDonation, len(s.donations)),
		donationOrder: append([]uuid.UUID(nil), s.donationOrder...),
		donationLogs:  append([]domain.CampaignDonationLog(nil), s.donationLogs...),
		requests:      make(map[uuid.UUID]domain.EmergencyRequest, len(s.requests)),
		requestOrder:  append([]uuid.UUID(nil), s.requestOrder...),
		requestLogs:   append([]domain.EmergencyRequestLog(nil), s.requestLogs...),
		campaigns:     make(map[uuid.UUID]domain.Campaign, len(s.campaigns)),
		campaignOrder: append([]uuid.UUID(nil), s.campaignOrder...),
		customers:     make(map[uuid.UUID]domain.Customer, len(s.customers)),
		accounts:      make(map[uuid.UUID]domain.Account, len(s.accounts)),
	}
	for k, v := range s.units {
		c.units[k] = v
	}
	for k, v := range s.donations {
		c.donations[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	for k, v := range s.campaigns {
		c.campaigns[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	return c
}

type fault struct {
	call int
	err  error
}

// Store implements repository.Store. Transactions are serialized, which stands
// in for the row locks the SQL implementation takes.
type Store struct {
	txMu      sync.Mutex
	mu        sync.RWMutex
	committed *state
	nowFn     func() time.Time

	faultMu sync.Mutex
	faults  map[string]fault
	calls   map[string]int
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		committed: newState(),
		nowFn:     time.Now,
		faults:    make(map[string]fault),
		calls:     make(map[string]int),
	}
}

// SetClock overrides the timestamp source used for created_at/updated_at.
func (s *Store) SetClock(now func() time.Time) {
	s.nowFn = now
}

// InjectFailure makes the call-th invocation (1-based, counted from now) of op
// return err. Ops are named "<Repository>.<Method>", e.g. "BloodUnits.Create".
func (s *Store) InjectFailure(op string, call int, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults[op] = fault{call: call, err: err}
	s.calls[op] = 0
}

func (s *Store) hit(op string) error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	f, ok := s.faults[op]
	if !ok {
		return nil
	}
	s.calls[op]++
	if s.calls[op] == f.call {
		delete(s.faults, op)
		return f.err
	}
	return nil
}

// PutAccount seeds an account; customer contact queries join against it.
func (s *Store) PutAccount(account domain.Account) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed.accounts[account.ID] = account
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	work := s.committed.clone()
	s.mu.RUnlock()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("transaction panicked: %v", p)
		}
	}()

	if err := fn(&scope{store: s, tx: work}); err != nil {
		return err
	}

	s.mu.Lock()
	s.committed = work
	s.mu.Unlock()
	return nil
}

// scope runs repository calls either inside a transaction (tx != nil) or
// directly against committed state.
type scope struct {
	store *Store
	tx    *state
}

func (sc *scope) read(op string, fn func(st *state) error) error {
	if err := sc.store.hit(op); err != nil {
		return err
	}
	if sc.tx != nil {
		return fn(sc.tx)
	}
	sc.store.mu.RLock()
	defer sc.store.mu.RUnlock()
	return fn(sc.store.committed)
}

func (sc *scope) write(op string, fn func(st *state) error) error {
	if err := sc.store.hit(op); err != nil {
		return err
	}
	if sc.tx != nil {
		return fn(sc.tx)
	}
	sc.store.txMu.Lock()
	defer sc.store.txMu.Unlock()
	sc.store.mu.Lock()
	defer sc.store.mu.Unlock()
	return fn(sc.store.committed)
}

func (sc *scope) now() time.Time {
	return sc.store.nowFn()
}

func (s *Store) autocommit() *scope {
	return &scope{store: s}
}

func (s *Store) BloodUnits() repository.BloodUnitRepository {
	return s.autocommit().BloodUnits()
}

func (s *Store) BloodUnitActions() repository.BloodUnitActionRepository {
	return s.autocommit().BloodUnitActions()
}

func (s *Store) Donations() repository.CampaignDonationRepository {
	return s.autocommit().Donations()
}

func (s *Store) DonationLogs() repository.DonationLogRepository {
	return s.autocommit().DonationLogs()
}

func (s *Store) EmergencyRequests() repository.EmergencyRequestRepository {
	return s.autocommit().EmergencyRequests()
}

func (s *Store) EmergencyLogs() repository.EmergencyLogRepository {
	return s.autocommit().EmergencyLogs()
}

func (s *Store) Campaigns() repository.CampaignRepository {
	return s.autocommit().Campaigns()
}

func (s *Store) Customers() repository.CustomerRepository {
	return s.autocommit().Customers()
}

func (sc *scope) BloodUnits() repository.BloodUnitRepository {
	return &bloodUnits{sc}
}

func (sc *scope) BloodUnitActions() repository.BloodUnitActionRepository {
	return &unitActions{sc}
}

func (sc *scope) Donations() repository.CampaignDonationRepository {
	return &donations{sc}
}

func (sc *scope) DonationLogs() repository.DonationLogRepository {
	return &donationLogs{sc}
}

func (sc *scope) EmergencyRequests() repository.EmergencyRequestRepository {
	return &emergencyRequests{sc}
}

func (sc *scope) EmergencyLogs() repository.EmergencyLogRepository {
	return &emergencyLogs{sc}
}

func (sc *scope) Campaigns() repository.CampaignRepository {
	return &campaigns{sc}
}

func (sc *scope) Customers() repository.CustomerRepository {
	return &customers{sc}
}

func paginate[T any](items []T, params domain.PaginationParams) ([]T, int64) {
	params.Validate()
	total := int64(len(items))
	start := params.Offset()
	if start >= len(items) {
		return []T{}, total
	}
	end := start + params.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total
}
