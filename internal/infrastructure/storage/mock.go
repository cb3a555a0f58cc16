package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/money"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
// Commits follow the same compare-and-set rules as Storage.
type MockRepository struct {
	mu              sync.Mutex
	lines           map[string]ledger.StatementLine
	transactions    map[string]ledger.Transaction
	reconciliations map[string]*ledger.ReconciliationResult
	linkedTx        map[string]string // transaction ID -> reconciliation ID

	// Hooks for test assertions
	CommitCalls      int
	LastCommit       *ledger.ReconciliationResult
	SaveLinesCalled  bool
	FetchPoolCalls   int
	FetchLinesCalls  int
	BeforeCommitHook func(result *ledger.ReconciliationResult)

	// Error injection for testing error paths
	FetchPoolErr         error
	FetchLinesErr        error
	CommitErr            error
	SaveLinesErr         error
	GetLineErr           error
	SaveTxErr            error
	GetReconciliationErr error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		lines:           make(map[string]ledger.StatementLine),
		transactions:    make(map[string]ledger.Transaction),
		reconciliations: make(map[string]*ledger.ReconciliationResult),
		linkedTx:        make(map[string]string),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// AddStatementLine seeds a line directly, bypassing dedupe
func (m *MockRepository) AddStatementLine(line ledger.StatementLine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines[line.ID] = line
}

// AddTransaction seeds a transaction directly
func (m *MockRepository) AddTransaction(tx ledger.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ID] = tx
}

// FetchStatementLines returns seeded lines of the account within month
func (m *MockRepository) FetchStatementLines(_ context.Context, bankAccountID string, month money.Month) ([]ledger.StatementLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FetchLinesCalls++
	if m.FetchLinesErr != nil {
		return nil, m.FetchLinesErr
	}

	lines := make([]ledger.StatementLine, 0)
	for _, line := range m.lines {
		if line.BankAccountID == bankAccountID && month.Contains(line.Date) {
			lines = append(lines, line)
		}
	}
	sort.Slice(lines, func(i, j int) bool {
		if !lines[i].Date.Equal(lines[j].Date) {
			return lines[i].Date.Before(lines[j].Date)
		}
		return lines[i].ID < lines[j].ID
	})
	return lines, nil
}

// FetchCandidatePool returns unreconciled matchable transactions dated
// before the end of month, in effective date order
func (m *MockRepository) FetchCandidatePool(_ context.Context, bankAccountID string, month money.Month) ([]ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FetchPoolCalls++
	if m.FetchPoolErr != nil {
		return nil, m.FetchPoolErr
	}

	pool := make([]ledger.Transaction, 0)
	for _, tx := range m.transactions {
		if tx.BankAccountID != bankAccountID || tx.IsReconciled || !tx.Type.Matchable() {
			continue
		}
		if !tx.EffectiveDate().Before(month.End()) {
			continue
		}
		pool = append(pool, tx)
	}
	sort.Slice(pool, func(i, j int) bool {
		di, dj := pool[i].EffectiveDate(), pool[j].EffectiveDate()
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return pool[i].ID < pool[j].ID
	})
	return pool, nil
}

// CommitReconciliation applies result atomically under the mock's lock
func (m *MockRepository) CommitReconciliation(_ context.Context, result *ledger.ReconciliationResult) error {
	if m.BeforeCommitHook != nil {
		m.BeforeCommitHook(result)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.CommitCalls++
	m.LastCommit = result
	if m.CommitErr != nil {
		return m.CommitErr
	}

	// Validate everything before mutating anything
	line, ok := m.lines[result.StatementLine.ID]
	if !ok {
		return fmt.Errorf("statement line %s: %w", result.StatementLine.ID, ledger.ErrNotFound)
	}
	if line.IsReconciled {
		return fmt.Errorf("statement line %s: %w", line.ID, ledger.ErrConcurrentModification)
	}
	for _, tx := range result.ReconciledTransactions {
		current, ok := m.transactions[tx.ID]
		if !ok {
			return fmt.Errorf("transaction %s: %w", tx.ID, ledger.ErrNotFound)
		}
		if current.IsReconciled || current.BankAccountID != line.BankAccountID {
			return fmt.Errorf("transaction %s: %w", tx.ID, ledger.ErrConcurrentModification)
		}
		if _, linked := m.linkedTx[tx.ID]; linked {
			return fmt.Errorf("transaction %s: %w", tx.ID, ledger.ErrConcurrentModification)
		}
	}
	if created := result.CreatedTransaction; created != nil {
		if _, exists := m.transactions[created.ID]; exists {
			return fmt.Errorf("transaction %s: %w", created.ID, ledger.ErrConcurrentModification)
		}
	}

	line.IsReconciled = true
	line.ReconciliationID = result.ReconciliationID
	m.lines[line.ID] = line

	for _, tx := range result.ReconciledTransactions {
		current := m.transactions[tx.ID]
		current.IsReconciled = true
		current.Status = ledger.StatusReconciled
		m.transactions[tx.ID] = current
	}
	if created := result.CreatedTransaction; created != nil {
		m.transactions[created.ID] = *created
	}
	for _, link := range result.Links {
		m.linkedTx[link.TransactionID] = result.ReconciliationID
	}

	copied := *result
	copied.Links = append([]ledger.Link(nil), result.Links...)
	copied.ReconciledTransactions = append([]ledger.Transaction(nil), result.ReconciledTransactions...)
	m.reconciliations[result.ReconciliationID] = &copied
	return nil
}

// SaveStatementLines stores lines, skipping duplicate external refs per account
func (m *MockRepository) SaveStatementLines(_ context.Context, lines []ledger.StatementLine) (*ImportResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveLinesCalled = true
	if m.SaveLinesErr != nil {
		return nil, m.SaveLinesErr
	}

	seen := make(map[string]bool)
	for _, line := range m.lines {
		if line.ExternalRef != "" {
			seen[line.BankAccountID+"\x00"+line.ExternalRef] = true
		}
	}

	result := &ImportResult{LineIDs: make([]string, 0, len(lines))}
	for _, line := range lines {
		key := line.BankAccountID + "\x00" + line.ExternalRef
		_, idTaken := m.lines[line.ID]
		if idTaken || (line.ExternalRef != "" && seen[key]) {
			result.Skipped++
			continue
		}
		if line.ImportedAt.IsZero() {
			line.ImportedAt = time.Now()
		}
		m.lines[line.ID] = line
		if line.ExternalRef != "" {
			seen[key] = true
		}
		result.Inserted++
		result.LineIDs = append(result.LineIDs, line.ID)
	}
	return result, nil
}

// GetStatementLine retrieves a line from the in-memory map
func (m *MockRepository) GetStatementLine(_ context.Context, id string) (*ledger.StatementLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetLineErr != nil {
		return nil, m.GetLineErr
	}
	line, ok := m.lines[id]
	if !ok {
		return nil, fmt.Errorf("statement line %s: %w", id, ledger.ErrNotFound)
	}
	return &line, nil
}

// SaveTransaction inserts or replaces an unreconciled transaction
func (m *MockRepository) SaveTransaction(_ context.Context, tx *ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveTxErr != nil {
		return m.SaveTxErr
	}
	if current, ok := m.transactions[tx.ID]; ok && current.IsReconciled {
		return fmt.Errorf("transaction %s: %w", tx.ID, ledger.ErrTransactionReconciled)
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	m.transactions[tx.ID] = *tx
	return nil
}

// GetTransaction retrieves a transaction from the in-memory map
func (m *MockRepository) GetTransaction(_ context.Context, id string) (*ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.transactions[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, ledger.ErrNotFound)
	}
	return &tx, nil
}

// GetReconciliation returns a committed result
func (m *MockRepository) GetReconciliation(_ context.Context, id string) (*ledger.ReconciliationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetReconciliationErr != nil {
		return nil, m.GetReconciliationErr
	}
	result, ok := m.reconciliations[id]
	if !ok {
		return nil, fmt.Errorf("reconciliation %s: %w", id, ledger.ErrNotFound)
	}
	copied := *result
	return &copied, nil
}

// ListLinks returns the links of a committed reconciliation
func (m *MockRepository) ListLinks(_ context.Context, reconciliationID string) ([]ledger.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result, ok := m.reconciliations[reconciliationID]
	if !ok {
		return []ledger.Link{}, nil
	}
	return append([]ledger.Link(nil), result.Links...), nil
}

// CommitCount returns how many commits were attempted
func (m *MockRepository) CommitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CommitCalls
}
