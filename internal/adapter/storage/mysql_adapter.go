package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/rl1809/pos-register/internal/core/domain"
)

const mysqlDuplicateEntry = 1062

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// OpenMySQL opens and pings the journal database. parseTime is forced on.
func OpenMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// RecordAttempt writes the attempt and its lines in one transaction.
// Recording the same request id twice is a no-op.
func (m *MySQLAdapter) RecordAttempt(ctx context.Context, attempt domain.SaleAttempt) error {
	req := attempt.Request

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sale_attempts (request_id, terminal_id, outcome, message, payment_method,
			total_amount, tendered_amount, change_amount, receipt_count, created_at, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.RequestID, req.TerminalID, string(attempt.Outcome), truncate(attempt.Message, 512),
		string(req.PaymentMethod), req.TotalAmount, req.TenderedAmount, req.ChangeAmount,
		attempt.ReceiptCount, req.CreatedAt.UTC(), attempt.RecordedAt.UTC(),
	)
	if isDuplicate(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert sale attempt: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sale_attempt_lines (request_id, line_no, product_id, name, unit_price, quantity)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare sale lines: %w", err)
	}
	defer stmt.Close()

	for i, l := range req.Lines {
		if _, err := stmt.ExecContext(ctx, req.RequestID, i+1, l.ProductID, l.Name, l.UnitPrice, l.Quantity); err != nil {
			return fmt.Errorf("insert sale line %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

// CashFlow sums settled sales created in [from, to) per payment method.
func (m *MySQLAdapter) CashFlow(ctx context.Context, from, to time.Time) (domain.CashFlowReport, error) {
	report := domain.CashFlowReport{
		From:     from,
		To:       to,
		ByMethod: make(map[domain.PaymentMethod]decimal.Decimal),
		Total:    decimal.Zero,
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT payment_method, COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM sale_attempts
		WHERE outcome = ? AND created_at >= ? AND created_at < ?
		GROUP BY payment_method`,
		string(domain.OutcomeSettled), from.UTC(), to.UTC(),
	)
	if err != nil {
		return report, fmt.Errorf("query cash flow: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			method string
			count  int
			sum    decimal.Decimal
		)
		if err := rows.Scan(&method, &count, &sum); err != nil {
			return report, fmt.Errorf("scan cash flow: %w", err)
		}
		report.ByMethod[domain.PaymentMethod(method)] = sum
		report.Sales += count
		report.Total = report.Total.Add(sum)
	}
	if err := rows.Err(); err != nil {
		return report, fmt.Errorf("iterate cash flow: %w", err)
	}

	return report, nil
}

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
