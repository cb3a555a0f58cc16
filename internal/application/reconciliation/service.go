// Package reconciliation runs the operator workflow end to end: statement
// import, candidate ranking, the per-line session, and settlement.
package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/ledger-reconcile/internal/adapters/statement"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/matcher"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/money"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/session"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/settlement"
	"github.com/eshaffer321/ledger-reconcile/internal/infrastructure/logging"
	"github.com/eshaffer321/ledger-reconcile/internal/infrastructure/metrics"
	"github.com/eshaffer321/ledger-reconcile/internal/infrastructure/storage"
)

// Service manages reconciliation sessions.
type Service struct {
	store    storage.Repository
	resolver *settlement.Resolver
	parser   *statement.Parser
	logger   *slog.Logger

	// Sessions by statement line ID
	sessions   map[string]*session.Session
	sessionsMu sync.Mutex

	// Line-level locking (one resolve per statement line at a time).
	// Entries are dropped once no caller holds or waits on them.
	lineLocks map[string]*lineLock
	locksMu   sync.Mutex
}

type lineLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a Service
type Option func(*Service)

// WithResolver replaces the default resolver
func WithResolver(r *settlement.Resolver) Option {
	return func(s *Service) { s.resolver = r }
}

// WithParser replaces the default statement parser
func WithParser(p *statement.Parser) Option {
	return func(s *Service) { s.parser = p }
}

// NewService creates a new reconciliation service.
func NewService(store storage.Repository, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Service{
		store:     store,
		logger:    logger,
		sessions:  make(map[string]*session.Session),
		lineLocks: make(map[string]*lineLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.resolver == nil {
		s.resolver = settlement.NewResolver(store)
	}
	if s.parser == nil {
		s.parser = statement.NewParser()
	}
	return s
}

// ListStatementLines returns the lines of an account within month.
func (s *Service) ListStatementLines(ctx context.Context, bankAccountID string, month money.Month) ([]ledger.StatementLine, error) {
	lines, err := s.store.FetchStatementLines(ctx, bankAccountID, month)
	if err != nil {
		return nil, fmt.Errorf("list statement lines for %s %s: %w", bankAccountID, month, err)
	}
	return lines, nil
}

// ImportStatement parses r and stores the lines it contains. Lines already
// imported for the account (same external reference) are skipped.
func (s *Service) ImportStatement(ctx context.Context, bankAccountID string, format statement.Format, r io.Reader) (*ImportReport, error) {
	if bankAccountID == "" {
		return nil, ErrMissingBankAccount
	}

	parsed, err := s.parser.Parse(r, format, bankAccountID)
	if err != nil {
		return nil, fmt.Errorf("parse %s statement: %w", format, err)
	}
	for _, w := range parsed.Warnings {
		metrics.ImportWarnings.WithLabelValues(w.Field).Inc()
		s.logger.Warn("statement field degraded",
			"bank_account_id", bankAccountID,
			"row", w.Row,
			"field", w.Field,
			"detail", w.Message)
	}

	saved, err := s.store.SaveStatementLines(ctx, parsed.Lines)
	if err != nil {
		return nil, fmt.Errorf("save statement lines: %w", err)
	}
	metrics.StatementLinesImported.WithLabelValues("inserted").Add(float64(saved.Inserted))
	metrics.StatementLinesImported.WithLabelValues("skipped").Add(float64(saved.Skipped))

	s.logger.Info("statement imported",
		"bank_account_id", bankAccountID,
		"format", format,
		"parsed", len(parsed.Lines),
		"inserted", saved.Inserted,
		"skipped", saved.Skipped,
		"warnings", len(parsed.Warnings))

	warnings := parsed.Warnings
	if warnings == nil {
		warnings = []statement.Warning{}
	}
	return &ImportReport{
		BankAccountID: bankAccountID,
		Format:        format,
		Parsed:        len(parsed.Lines),
		Inserted:      saved.Inserted,
		Skipped:       saved.Skipped,
		LineIDs:       saved.LineIDs,
		Warnings:      warnings,
	}, nil
}

// RecordTransaction stores a ledger transaction on behalf of the ledger
// collaborator. A missing ID is generated and a missing status defaults to
// pending.
func (s *Service) RecordTransaction(ctx context.Context, tx *ledger.Transaction) error {
	if err := validateTransaction(tx); err != nil {
		return err
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Status == "" {
		tx.Status = ledger.StatusPending
	}
	tx.Date = money.Day(tx.Date)
	tx.LaunchDate = money.Day(tx.LaunchDate)
	tx.DueDate = money.Day(tx.DueDate)

	if err := s.store.SaveTransaction(ctx, tx); err != nil {
		return fmt.Errorf("save transaction %s: %w", tx.ID, err)
	}
	s.logger.Debug("transaction recorded", "transaction_id", tx.ID, "type", tx.Type, "amount", money.Format(tx.Amount))
	return nil
}

func validateTransaction(tx *ledger.Transaction) error {
	switch {
	case tx == nil:
		return fmt.Errorf("%w: missing body", ErrInvalidTransaction)
	case tx.BankAccountID == "":
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, ErrMissingBankAccount)
	case !tx.Type.IsValid():
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, tx.Type)
	case tx.Amount.IsNegative():
		return fmt.Errorf("%w: amount must be an unsigned magnitude", ErrInvalidTransaction)
	case tx.Date.IsZero() && tx.LaunchDate.IsZero():
		return fmt.Errorf("%w: date or launch date is required", ErrInvalidTransaction)
	case tx.IsReconciled, tx.Status == ledger.StatusReconciled:
		return fmt.Errorf("%w: reconciled transactions are written by settlement only", ErrInvalidTransaction)
	}
	switch tx.Status {
	case "", ledger.StatusPending, ledger.StatusScheduled, ledger.StatusOverdue:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransaction, tx.Status)
	}
	return nil
}

// Candidates ranks the candidate pool against a statement line without
// opening a session.
func (s *Service) Candidates(ctx context.Context, lineID string) ([]ledger.MatchCandidate, error) {
	line, pool, err := s.loadLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	return s.rank(line, pool), nil
}

// OpenSession starts a session for lineID. Opening an already open session
// keeps its selection and adjustment but rebases it onto the freshly fetched
// pool, so every returned candidate is selectable.
func (s *Service) OpenSession(ctx context.Context, lineID string) (*SessionView, error) {
	line, pool, err := s.loadLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	candidates := s.rank(line, pool)

	unlock := s.lockLine(lineID)
	defer unlock()

	s.sessionsMu.Lock()
	sess, existed := s.sessions[lineID]
	if !existed {
		sess = session.New(line, pool)
		s.sessions[lineID] = sess
		metrics.OpenSessions.Inc()
	}
	s.sessionsMu.Unlock()

	if existed {
		if dropped := sess.Rebase(line, pool); len(dropped) > 0 {
			s.logger.Info("session selection pruned",
				"statement_line_id", lineID,
				"dropped", dropped)
		}
	} else {
		s.logger.Info("session opened",
			"statement_line_id", lineID,
			"amount", money.Format(line.Amount),
			"pool", len(pool),
			"candidates", len(candidates))
	}

	return &SessionView{Summary: sess.Summary(), Candidates: candidates}, nil
}

// Session returns the current state of an open session.
func (s *Service) Session(ctx context.Context, lineID string) (*session.Summary, error) {
	var summary session.Summary
	err := s.withSession(ctx, lineID, func(sess *session.Session) error {
		summary = sess.Summary()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// Select adds a transaction to the session of lineID
func (s *Service) Select(ctx context.Context, lineID, txID string) (*session.Summary, error) {
	return s.mutate(ctx, lineID, "select", func(sess *session.Session) error {
		return sess.Select(txID)
	})
}

// Deselect removes a transaction from the session of lineID
func (s *Service) Deselect(ctx context.Context, lineID, txID string) (*session.Summary, error) {
	return s.mutate(ctx, lineID, "deselect", func(sess *session.Session) error {
		sess.Deselect(txID)
		return nil
	})
}

// Toggle flips a transaction's selection in the session of lineID
func (s *Service) Toggle(ctx context.Context, lineID, txID string) (*session.Summary, error) {
	return s.mutate(ctx, lineID, "toggle", func(sess *session.Session) error {
		return sess.Toggle(txID)
	})
}

// SetAdjustment replaces the interest, penalty and discount of a session
func (s *Service) SetAdjustment(ctx context.Context, lineID string, interest, penalty, discount decimal.Decimal) (*session.Summary, error) {
	return s.mutate(ctx, lineID, "adjust", func(sess *session.Session) error {
		return sess.SetAdjustment(interest, penalty, discount)
	})
}

// Resolve commits the session of lineID under decision. A resolve already
// running for the same line fails fast with ErrConcurrentModification, and a
// line that is already committed fails with ErrAlreadyReconciled. The
// session is closed on success and kept on failure so the operator can
// correct it.
func (s *Service) Resolve(ctx context.Context, lineID string, decision settlement.Decision) (*ledger.ReconciliationResult, error) {
	unlock, ok := s.tryLockLine(lineID)
	if !ok {
		metrics.ObserveResolution(string(decision.Kind), ledger.ErrConcurrentModification)
		return nil, fmt.Errorf("resolve already running for statement line %s: %w", lineID, ledger.ErrConcurrentModification)
	}
	defer unlock()

	s.sessionsMu.Lock()
	sess, ok := s.sessions[lineID]
	s.sessionsMu.Unlock()
	if !ok {
		err := s.noSession(ctx, lineID)
		if errors.Is(err, ledger.ErrAlreadyReconciled) {
			metrics.ObserveResolution(string(decision.Kind), err)
		}
		return nil, err
	}

	start := time.Now()
	result, err := s.resolver.Resolve(ctx, sess, decision)
	metrics.ObserveCommit(start)
	metrics.ObserveResolution(string(decision.Kind), err)
	if err != nil {
		var residualErr *ledger.ResidualError
		if errors.As(err, &residualErr) {
			s.logger.Info("resolve refused: unbalanced",
				"statement_line_id", lineID,
				"residual", money.Format(residualErr.Residual))
		} else {
			s.logger.Warn("resolve failed",
				"statement_line_id", lineID,
				"decision", decision.Kind,
				"error", err)
		}
		return nil, err
	}

	s.sessionsMu.Lock()
	delete(s.sessions, lineID)
	s.sessionsMu.Unlock()
	metrics.OpenSessions.Dec()

	if created := result.CreatedTransaction; created != nil {
		metrics.GapFillTransactions.WithLabelValues(string(created.Type)).Inc()
	}

	s.logger.Info("statement line reconciled",
		"statement_line_id", lineID,
		"reconciliation_id", result.ReconciliationID,
		"status", result.Status,
		"links", len(result.Links),
		"open_difference", money.Format(result.OpenDifference))

	return result, nil
}

// DiscardSession drops an open session without writing anything.
func (s *Service) DiscardSession(ctx context.Context, lineID string) error {
	unlock := s.lockLine(lineID)
	defer unlock()

	s.sessionsMu.Lock()
	_, ok := s.sessions[lineID]
	if ok {
		delete(s.sessions, lineID)
	}
	s.sessionsMu.Unlock()

	if !ok {
		return s.noSession(ctx, lineID)
	}
	metrics.OpenSessions.Dec()
	s.logger.Info("session discarded", "statement_line_id", lineID)
	return nil
}

// GetReconciliation reads a committed reconciliation back.
func (s *Service) GetReconciliation(ctx context.Context, id string) (*ledger.ReconciliationResult, error) {
	return s.store.GetReconciliation(ctx, id)
}

// loadLine fetches an unreconciled line and the pool of its month
func (s *Service) loadLine(ctx context.Context, lineID string) (ledger.StatementLine, []ledger.Transaction, error) {
	line, err := s.store.GetStatementLine(ctx, lineID)
	if err != nil {
		return ledger.StatementLine{}, nil, err
	}
	if line.IsReconciled {
		return ledger.StatementLine{}, nil, fmt.Errorf("statement line %s: %w", lineID, ledger.ErrAlreadyReconciled)
	}

	pool, err := s.store.FetchCandidatePool(ctx, line.BankAccountID, money.MonthOf(line.Date))
	if err != nil {
		return ledger.StatementLine{}, nil, fmt.Errorf("fetch candidate pool: %w", err)
	}
	return *line, pool, nil
}

func (s *Service) rank(line ledger.StatementLine, pool []ledger.Transaction) []ledger.MatchCandidate {
	candidates := matcher.Rank(line, pool)
	scores := make([]int, len(candidates))
	for i, c := range candidates {
		scores[i] = c.Score
	}
	metrics.ObserveRanking(scores)
	return candidates
}

// withSession runs fn on the session of lineID while holding the line lock,
// so edits never interleave with a resolve.
func (s *Service) withSession(ctx context.Context, lineID string, fn func(*session.Session) error) error {
	unlock := s.lockLine(lineID)
	defer unlock()

	s.sessionsMu.Lock()
	sess, ok := s.sessions[lineID]
	s.sessionsMu.Unlock()
	if !ok {
		return s.noSession(ctx, lineID)
	}
	return fn(sess)
}

// noSession explains a missing session: a committed line reports
// ErrAlreadyReconciled, anything else ErrSessionNotFound.
func (s *Service) noSession(ctx context.Context, lineID string) error {
	line, err := s.store.GetStatementLine(ctx, lineID)
	switch {
	case err == nil && line.IsReconciled:
		return fmt.Errorf("statement line %s: %w", lineID, ledger.ErrAlreadyReconciled)
	case err == nil, errors.Is(err, ledger.ErrNotFound):
		return fmt.Errorf("statement line %s: %w", lineID, ErrSessionNotFound)
	default:
		return fmt.Errorf("statement line %s: %w", lineID, err)
	}
}

func (s *Service) mutate(ctx context.Context, lineID, op string, fn func(*session.Session) error) (*session.Summary, error) {
	var summary session.Summary
	err := s.withSession(ctx, lineID, func(sess *session.Session) error {
		if err := fn(sess); err != nil {
			return err
		}
		summary = sess.Summary()
		return nil
	})
	if err != nil {
		s.logger.Debug("session edit rejected", "statement_line_id", lineID, "op", op, "error", err)
		return nil, err
	}
	s.logger.Debug("session edited",
		"statement_line_id", lineID,
		"op", op,
		"selected", len(summary.SelectedIDs),
		"residual", money.Format(summary.Residual))
	return &summary, nil
}

// acquireLock returns the lock for a statement line, creating it on first
// use, and counts the caller as a holder.
func (s *Service) acquireLock(lineID string) *lineLock {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, exists := s.lineLocks[lineID]
	if !exists {
		l = &lineLock{}
		s.lineLocks[lineID] = l
	}
	l.refs++
	return l
}

// releaseLock drops the caller's reference and forgets idle locks.
func (s *Service) releaseLock(lineID string, l *lineLock) {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(s.lineLocks, lineID)
	}
}

// lockLine blocks until the line is free and returns its unlock func.
func (s *Service) lockLine(lineID string) func() {
	l := s.acquireLock(lineID)
	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.releaseLock(lineID, l)
	}
}

// tryLockLine attempts to acquire the lock for a statement line.
func (s *Service) tryLockLine(lineID string) (func(), bool) {
	l := s.acquireLock(lineID)
	if !l.mu.TryLock() {
		s.releaseLock(lineID, l)
		return nil, false
	}
	return func() {
		l.mu.Unlock()
		s.releaseLock(lineID, l)
	}, true
}
