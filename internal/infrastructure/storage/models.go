package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/money"
)

// Columns are TEXT throughout. The sqlite3 driver turns DATE and TIMESTAMP
// declared columns into time.Time, and amounts must survive as exact decimals.

const timestampLayout = time.RFC3339Nano

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timestampLayout, s)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return money.ParseDate(s)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

const statementLineColumns = `id, bank_account_id, date, description, amount,
	external_ref, is_reconciled, reconciliation_id, imported_at`

func scanStatementLine(row scanner) (*ledger.StatementLine, error) {
	var (
		line                      ledger.StatementLine
		date, amount, importedAt  string
		externalRef, reconciledBy sql.NullString
		reconciled                int
	)
	err := row.Scan(&line.ID, &line.BankAccountID, &date, &line.Description, &amount,
		&externalRef, &reconciled, &reconciledBy, &importedAt)
	if err != nil {
		return nil, err
	}

	if line.Date, err = parseDate(date); err != nil {
		return nil, fmt.Errorf("statement line %s date: %w", line.ID, err)
	}
	if line.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("statement line %s amount: %w", line.ID, err)
	}
	if line.ImportedAt, err = parseTimestamp(importedAt); err != nil {
		return nil, fmt.Errorf("statement line %s imported_at: %w", line.ID, err)
	}
	line.ExternalRef = externalRef.String
	line.IsReconciled = reconciled == 1
	line.ReconciliationID = reconciledBy.String
	return &line, nil
}

const transactionColumns = `id, bank_account_id, type, amount, date, launch_date,
	due_date, payment_date, description, category_id, status, is_reconciled, created_at`

func scanTransaction(row scanner) (*ledger.Transaction, error) {
	var (
		tx                                   ledger.Transaction
		txType, status, amount               string
		date, launchDate, dueDate, createdAt string
		paymentDate, categoryID              sql.NullString
		reconciled                           int
	)
	err := row.Scan(&tx.ID, &tx.BankAccountID, &txType, &amount, &date, &launchDate,
		&dueDate, &paymentDate, &tx.Description, &categoryID, &status, &reconciled, &createdAt)
	if err != nil {
		return nil, err
	}

	tx.Type = ledger.TransactionType(txType)
	tx.Status = ledger.TransactionStatus(status)
	tx.CategoryID = categoryID.String
	tx.IsReconciled = reconciled == 1

	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("transaction %s amount: %w", tx.ID, err)
	}
	if tx.Date, err = parseDate(date); err != nil {
		return nil, fmt.Errorf("transaction %s date: %w", tx.ID, err)
	}
	if tx.LaunchDate, err = parseDate(launchDate); err != nil {
		return nil, fmt.Errorf("transaction %s launch_date: %w", tx.ID, err)
	}
	if tx.DueDate, err = parseDate(dueDate); err != nil {
		return nil, fmt.Errorf("transaction %s due_date: %w", tx.ID, err)
	}
	if paymentDate.Valid && paymentDate.String != "" {
		paid, err := parseDate(paymentDate.String)
		if err != nil {
			return nil, fmt.Errorf("transaction %s payment_date: %w", tx.ID, err)
		}
		tx.PaymentDate = &paid
	}
	if tx.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("transaction %s created_at: %w", tx.ID, err)
	}
	return &tx, nil
}

func transactionArgs(tx *ledger.Transaction) []any {
	var paymentDate sql.NullString
	if tx.PaymentDate != nil {
		paymentDate = nullString(money.FormatDate(*tx.PaymentDate))
	}
	return []any{
		tx.ID,
		tx.BankAccountID,
		string(tx.Type),
		tx.Amount.String(),
		money.FormatDate(tx.Date),
		money.FormatDate(tx.LaunchDate),
		money.FormatDate(tx.DueDate),
		paymentDate,
		tx.Description,
		nullString(tx.CategoryID),
		string(tx.Status),
		boolInt(tx.IsReconciled),
		formatTimestamp(tx.CreatedAt),
	}
}

// classify maps driver errors onto the ledger error taxonomy. Unique and
// foreign key violations mean another writer got there first. Any other
// constraint failure is a bad record and retrying will not help.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ledger.ErrConcurrentModification) || errors.Is(err, ledger.ErrNotFound) {
		return err
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %w", ledger.ErrConcurrentModification, err)
		}
		if sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%w: %w", ledger.ErrConstraintViolation, err)
		}
	}
	return fmt.Errorf("%w: %w", ledger.ErrStoreUnavailable, err)
}
