package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/money"
)

// dsnOptions enables foreign keys on every pooled connection, waits for
// locks instead of failing, and makes every transaction BEGIN IMMEDIATE so
// two commits on the same database serialize at the write lock.
const dsnOptions = "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"

// Storage provides SQLite database access for statement lines, ledger
// transactions and reconciliations. It implements the Repository interface.
type Storage struct {
	db     *sql.DB
	logger *slog.Logger
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	return NewStorageWithLogger(dbPath, slog.Default())
}

// NewStorageWithLogger is NewStorage with an explicit logger for migration
// and commit output.
func NewStorageWithLogger(dbPath string, logger *slog.Logger) (*Storage, error) {
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, err
	}

	s := &Storage{db: db, logger: logger}

	// Run all pending migrations
	if err := runMigrations(context.Background(), db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + dsnOptions
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// FetchStatementLines returns the lines of an account dated within month,
// ordered by date then id.
func (s *Storage) FetchStatementLines(ctx context.Context, bankAccountID string, month money.Month) ([]ledger.StatementLine, error) {
	query := `
	SELECT ` + statementLineColumns + `
	FROM statement_lines
	WHERE bank_account_id = ? AND date >= ? AND date < ?
	ORDER BY date, id
	`

	rows, err := s.db.QueryContext(ctx, query, bankAccountID,
		money.FormatDate(month.Start()), money.FormatDate(month.End()))
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = rows.Close() }()

	lines := make([]ledger.StatementLine, 0)
	for rows.Next() {
		line, err := scanStatementLine(rows)
		if err != nil {
			return nil, classify(err)
		}
		lines = append(lines, *line)
	}

	return lines, classify(rows.Err())
}

// FetchCandidatePool returns the unreconciled income and expense
// transactions of an account whose effective date falls before the end of
// month. Older open items stay in the pool so late payments can still match.
func (s *Storage) FetchCandidatePool(ctx context.Context, bankAccountID string, month money.Month) ([]ledger.Transaction, error) {
	query := `
	SELECT ` + transactionColumns + `
	FROM ledger_transactions
	WHERE bank_account_id = ?
	  AND is_reconciled = 0
	  AND type IN ('income', 'expense')
	  AND COALESCE(NULLIF(date, ''), launch_date) < ?
	ORDER BY COALESCE(NULLIF(date, ''), launch_date), id
	`

	rows, err := s.db.QueryContext(ctx, query, bankAccountID, money.FormatDate(month.End()))
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = rows.Close() }()

	pool := make([]ledger.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, classify(err)
		}
		pool = append(pool, *tx)
	}

	return pool, classify(rows.Err())
}

// CommitReconciliation writes result in a single transaction. The statement
// line and every linked transaction flip is_reconciled 0 -> 1 with a
// compare-and-set; losing any of those races rolls everything back with
// ledger.ErrConcurrentModification.
func (s *Storage) CommitReconciliation(ctx context.Context, result *ledger.ReconciliationResult) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			s.logger.Warn("reconciliation rolled back",
				"reconciliation_id", result.ReconciliationID,
				"statement_line_id", result.StatementLine.ID,
				"error", err)
		}
	}()

	line := result.StatementLine
	res, err := tx.ExecContext(ctx, `
		UPDATE statement_lines
		SET is_reconciled = 1, reconciliation_id = ?
		WHERE id = ? AND is_reconciled = 0
	`, result.ReconciliationID, line.ID)
	if err != nil {
		return classify(err)
	}
	if err = s.expectOneRow(ctx, tx, res, "statement_lines", line.ID); err != nil {
		return err
	}

	var createdID sql.NullString
	if created := result.CreatedTransaction; created != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ledger_transactions (`+transactionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, transactionArgs(created)...)
		if err != nil {
			return classify(err)
		}
		createdID = nullString(created.ID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reconciliations
		(id, statement_line_id, status, adjustment_interest, adjustment_penalty,
		 adjustment_discount, adjustment_net, open_difference, created_transaction_id, reconciled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.ReconciliationID,
		line.ID,
		string(result.Status),
		result.Adjustment.Interest.String(),
		result.Adjustment.Penalty.String(),
		result.Adjustment.Discount.String(),
		result.AdjustmentNet.String(),
		result.OpenDifference.String(),
		createdID,
		formatTimestamp(result.ReconciledAt),
	)
	if err != nil {
		return classify(err)
	}

	for _, reconciled := range result.ReconciledTransactions {
		res, err = tx.ExecContext(ctx, `
			UPDATE ledger_transactions
			SET is_reconciled = 1, status = ?
			WHERE id = ? AND bank_account_id = ? AND is_reconciled = 0
		`, string(ledger.StatusReconciled), reconciled.ID, line.BankAccountID)
		if err != nil {
			return classify(err)
		}
		if err = s.expectOneRow(ctx, tx, res, "ledger_transactions", reconciled.ID); err != nil {
			return err
		}
	}

	for i, link := range result.Links {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO reconciliation_links
			(id, reconciliation_id, statement_line_id, transaction_id, amount_allocated, position)
			VALUES (?, ?, ?, ?, ?, ?)
		`, link.ID, link.ReconciliationID, link.StatementLineID, link.TransactionID, link.AmountAllocated.String(), i)
		if err != nil {
			return classify(err)
		}
	}

	if err = tx.Commit(); err != nil {
		return classify(err)
	}

	s.logger.Debug("reconciliation committed",
		"reconciliation_id", result.ReconciliationID,
		"statement_line_id", line.ID,
		"links", len(result.Links))
	return nil
}

// expectOneRow turns a zero-row compare-and-set into ErrNotFound when the
// row is missing and ErrConcurrentModification when it was already flipped.
func (s *Storage) expectOneRow(ctx context.Context, tx *sql.Tx, res sql.Result, table, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return classify(err)
	}
	if exists == 0 {
		return fmt.Errorf("%s %s: %w", table, id, ledger.ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", table, id, ledger.ErrConcurrentModification)
}

// SaveStatementLines inserts lines in one transaction. Lines whose
// external ref already exists for the account are skipped, not updated.
func (s *Storage) SaveStatementLines(ctx context.Context, lines []ledger.StatementLine) (result *ImportResult, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO statement_lines (`+statementLineColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = stmt.Close() }()

	result = &ImportResult{LineIDs: make([]string, 0, len(lines))}
	for _, line := range lines {
		importedAt := line.ImportedAt
		if importedAt.IsZero() {
			importedAt = time.Now()
		}

		res, err := stmt.ExecContext(ctx,
			line.ID,
			line.BankAccountID,
			money.FormatDate(line.Date),
			line.Description,
			line.Amount.String(),
			nullString(line.ExternalRef),
			boolInt(line.IsReconciled),
			nullString(line.ReconciliationID),
			formatTimestamp(importedAt),
		)
		if err != nil {
			return nil, classify(err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return nil, classify(err)
		}
		if n == 0 {
			result.Skipped++
			continue
		}
		result.Inserted++
		result.LineIDs = append(result.LineIDs, line.ID)
	}

	if err = tx.Commit(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}

// GetStatementLine retrieves a line by ID
func (s *Storage) GetStatementLine(ctx context.Context, id string) (*ledger.StatementLine, error) {
	query := `SELECT ` + statementLineColumns + ` FROM statement_lines WHERE id = ?`

	line, err := scanStatementLine(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("statement line %s: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return nil, classify(err)
	}
	return line, nil
}

// SaveTransaction inserts or replaces a transaction. Reconciled
// transactions are owned by their reconciliation and cannot be replaced.
func (s *Storage) SaveTransaction(ctx context.Context, t *ledger.Transaction) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	query := `
	INSERT INTO ledger_transactions (` + transactionColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		bank_account_id = excluded.bank_account_id,
		type = excluded.type,
		amount = excluded.amount,
		date = excluded.date,
		launch_date = excluded.launch_date,
		due_date = excluded.due_date,
		payment_date = excluded.payment_date,
		description = excluded.description,
		category_id = excluded.category_id,
		status = excluded.status,
		is_reconciled = excluded.is_reconciled
	WHERE ledger_transactions.is_reconciled = 0
	`

	res, err := s.db.ExecContext(ctx, query, transactionArgs(t)...)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", t.ID, ledger.ErrTransactionReconciled)
	}
	return nil
}

// GetTransaction retrieves a transaction by ID
func (s *Storage) GetTransaction(ctx context.Context, id string) (*ledger.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM ledger_transactions WHERE id = ?`

	t, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return nil, classify(err)
	}
	return t, nil
}

// GetReconciliation rebuilds a committed reconciliation from its header,
// statement line, links and transactions.
func (s *Storage) GetReconciliation(ctx context.Context, id string) (*ledger.ReconciliationResult, error) {
	var (
		result                                 ledger.ReconciliationResult
		lineID, status, reconciledAt           string
		interest, penalty, discount, net, open string
		createdID                              sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, statement_line_id, status, adjustment_interest, adjustment_penalty,
		       adjustment_discount, adjustment_net, open_difference, created_transaction_id, reconciled_at
		FROM reconciliations WHERE id = ?
	`, id).Scan(&result.ReconciliationID, &lineID, &status, &interest, &penalty,
		&discount, &net, &open, &createdID, &reconciledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reconciliation %s: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return nil, classify(err)
	}

	result.Status = ledger.ResultStatus(status)
	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&result.Adjustment.Interest, interest},
		{&result.Adjustment.Penalty, penalty},
		{&result.Adjustment.Discount, discount},
		{&result.AdjustmentNet, net},
		{&result.OpenDifference, open},
	} {
		if *f.dst, err = decimal.NewFromString(f.src); err != nil {
			return nil, fmt.Errorf("reconciliation %s: %w", id, err)
		}
	}
	if result.ReconciledAt, err = parseTimestamp(reconciledAt); err != nil {
		return nil, fmt.Errorf("reconciliation %s reconciled_at: %w", id, err)
	}

	line, err := s.GetStatementLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	result.StatementLine = *line

	if result.Links, err = s.ListLinks(ctx, id); err != nil {
		return nil, err
	}

	result.ReconciledTransactions = make([]ledger.Transaction, 0, len(result.Links))
	for _, link := range result.Links {
		t, err := s.GetTransaction(ctx, link.TransactionID)
		if err != nil {
			return nil, err
		}
		if createdID.Valid && t.ID == createdID.String {
			result.CreatedTransaction = t
			continue
		}
		result.ReconciledTransactions = append(result.ReconciledTransactions, *t)
	}

	return &result, nil
}

// ListLinks returns the links of a reconciliation in commit order
func (s *Storage) ListLinks(ctx context.Context, reconciliationID string) ([]ledger.Link, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reconciliation_id, statement_line_id, transaction_id, amount_allocated
		FROM reconciliation_links
		WHERE reconciliation_id = ?
		ORDER BY position
	`, reconciliationID)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = rows.Close() }()

	links := make([]ledger.Link, 0)
	for rows.Next() {
		var (
			link   ledger.Link
			amount string
		)
		if err := rows.Scan(&link.ID, &link.ReconciliationID, &link.StatementLineID, &link.TransactionID, &amount); err != nil {
			return nil, classify(err)
		}
		if link.AmountAllocated, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("link %s amount: %w", link.ID, err)
		}
		links = append(links, link)
	}

	return links, classify(rows.Err())
}
