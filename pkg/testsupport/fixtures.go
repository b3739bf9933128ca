// Package testsupport provides fakes and fixtures for exercising the cache
// and resource store without a network or a real durable store: an
// in-memory durable store with fault injection, a deterministic remote
// source, and a manual clock.
package testsupport

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bytebank/go-finance-cache/cache"
	"github.com/bytebank/go-finance-cache/finance"
)

// MemoryStore is a map-backed cache.Store. Setting one of the Fail* fields
// makes the corresponding operation return that error, which is how tests
// exercise the cache layer's fail-soft behavior.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]string

	FailGet    error
	FailSet    error
	FailRemove error
	FailKeys   error
}

var _ cache.Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]string)}
}

// GetItem implements cache.Store.
func (m *MemoryStore) GetItem(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailGet != nil {
		return "", false, m.FailGet
	}
	value, ok := m.items[key]
	return value, ok, nil
}

// SetItem implements cache.Store.
func (m *MemoryStore) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSet != nil {
		return m.FailSet
	}
	m.items[key] = value
	return nil
}

// RemoveItem implements cache.Store.
func (m *MemoryStore) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRemove != nil {
		return m.FailRemove
	}
	delete(m.items, key)
	return nil
}

// MultiRemove implements cache.Store.
func (m *MemoryStore) MultiRemove(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRemove != nil {
		return m.FailRemove
	}
	for _, key := range keys {
		delete(m.items, key)
	}
	return nil
}

// Keys implements cache.Store.
func (m *MemoryStore) Keys(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailKeys != nil {
		return nil, m.FailKeys
	}
	keys := make([]string, 0, len(m.items))
	for key := range m.items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Put seeds a raw value directly, bypassing fault injection. Tests use it
// to plant corrupt entries.
func (m *MemoryStore) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
}

// Contains reports whether key currently exists.
func (m *MemoryStore) Contains(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[key]
	return ok
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Clock is a manual time source for crossing TTL and debounce boundaries
// without sleeping.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock returns a Clock frozen at start.
func NewClock(start time.Time) *Clock {
	return &Clock{t: start}
}

// Now returns the current frozen time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// FakeRemote is a deterministic finance.RemoteSource backed by in-memory
// data. ReadErr and WriteErr force failures; Calls counts invocations per
// method so tests can assert de-duplication.
type FakeRemote struct {
	mu           sync.Mutex
	transactions map[string][]finance.Transaction
	profiles     map[string]*finance.UserProfile
	calls        map[string]int
	now          func() time.Time

	ReadErr  error
	WriteErr error
}

var _ finance.RemoteSource = (*FakeRemote)(nil)

// NewFakeRemote returns an empty FakeRemote using the provided time source
// (nil means time.Now).
func NewFakeRemote(now func() time.Time) *FakeRemote {
	if now == nil {
		now = time.Now
	}
	return &FakeRemote{
		transactions: make(map[string][]finance.Transaction),
		profiles:     make(map[string]*finance.UserProfile),
		calls:        make(map[string]int),
		now:          now,
	}
}

// Seed adds transactions for an owner without going through the write path.
func (f *FakeRemote) Seed(ownerID string, txs ...finance.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions[ownerID] = append(f.transactions[ownerID], txs...)
}

// SetProfile installs the profile for an owner.
func (f *FakeRemote) SetProfile(p *finance.UserProfile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[p.ID] = p
}

// Calls returns how many times the named method has run.
func (f *FakeRemote) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// Transactions implements finance.RemoteSource, newest first.
func (f *FakeRemote) Transactions(_ context.Context, ownerID string) ([]finance.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Transactions"]++
	if f.ReadErr != nil {
		return nil, f.ReadErr
	}
	txs := append([]finance.Transaction(nil), f.transactions[ownerID]...)
	sort.Slice(txs, func(i, j int) bool {
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
	return txs, nil
}

// Summary implements finance.RemoteSource.
func (f *FakeRemote) Summary(_ context.Context, ownerID string) ([]finance.SummaryCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Summary"]++
	if f.ReadErr != nil {
		return nil, f.ReadErr
	}
	var balance float64
	if p := f.profiles[ownerID]; p != nil {
		balance = p.Balance
	}
	return finance.ComputeSummary(f.transactions[ownerID], balance, f.now()), nil
}

// MonthlySummaries implements finance.RemoteSource, ordered by month id.
func (f *FakeRemote) MonthlySummaries(_ context.Context, ownerID string) ([]finance.MonthlySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["MonthlySummaries"]++
	if f.ReadErr != nil {
		return nil, f.ReadErr
	}

	byMonth := make(map[string]*finance.MonthlySummary)
	for _, tx := range f.transactions[ownerID] {
		id := finance.MonthID(tx.CreatedAt)
		summary := byMonth[id]
		if summary == nil {
			summary = &finance.MonthlySummary{MonthID: id}
			byMonth[id] = summary
		}
		if tx.Type == finance.Expense {
			summary.TotalExpenses += tx.Price
		} else {
			summary.TotalIncome += tx.Price
		}
	}

	ids := make([]string, 0, len(byMonth))
	for id := range byMonth {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	summaries := make([]finance.MonthlySummary, 0, len(ids))
	for _, id := range ids {
		summaries = append(summaries, *byMonth[id])
	}
	return summaries, nil
}

// Profile implements finance.RemoteSource.
func (f *FakeRemote) Profile(_ context.Context, ownerID string) (*finance.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Profile"]++
	if f.ReadErr != nil {
		return nil, f.ReadErr
	}
	if p := f.profiles[ownerID]; p != nil {
		clone := *p
		return &clone, nil
	}
	return nil, nil
}

// TransactionByID implements finance.RemoteSource.
func (f *FakeRemote) TransactionByID(_ context.Context, id string) (*finance.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["TransactionByID"]++
	if f.ReadErr != nil {
		return nil, f.ReadErr
	}
	for _, txs := range f.transactions {
		for _, tx := range txs {
			if tx.ID == id {
				clone := tx
				return &clone, nil
			}
		}
	}
	return nil, nil
}

// CreateTransaction implements finance.RemoteSource: assigns an id and a
// creation time, appends the transaction and adjusts the owner's balance.
func (f *FakeRemote) CreateTransaction(_ context.Context, ownerID string, input finance.TransactionInput) (*finance.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["CreateTransaction"]++
	if f.WriteErr != nil {
		return nil, f.WriteErr
	}

	tx := finance.Transaction{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Description: input.Description,
		Category:    input.Category,
		Price:       input.Price,
		Type:        input.Type,
		CreatedAt:   f.now(),
		ReceiptURL:  input.ReceiptURL,
	}
	f.transactions[ownerID] = append(f.transactions[ownerID], tx)
	if p := f.profiles[ownerID]; p != nil {
		if tx.Type == finance.Expense {
			p.Balance -= tx.Price
		} else {
			p.Balance += tx.Price
		}
	}
	clone := tx
	return &clone, nil
}

// DeleteAllTransactions implements finance.RemoteSource: drops every
// transaction of the owner and zeroes the balance.
func (f *FakeRemote) DeleteAllTransactions(_ context.Context, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["DeleteAllTransactions"]++
	if f.WriteErr != nil {
		return f.WriteErr
	}
	delete(f.transactions, ownerID)
	if p := f.profiles[ownerID]; p != nil {
		p.Balance = 0
	}
	return nil
}

// Tx builds a transaction fixture with a fresh id.
func Tx(ownerID, description string, price float64, typ finance.TransactionType, createdAt time.Time) finance.Transaction {
	return finance.Transaction{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Description: description,
		Category:    "Outros",
		Price:       price,
		Type:        typ,
		CreatedAt:   createdAt,
	}
}
