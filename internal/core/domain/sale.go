package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleLine struct {
	ProductID int64
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// SaleRequest is built once per checkout attempt and never mutated afterwards.
type SaleRequest struct {
	RequestID      string
	TerminalID     string
	Lines          []SaleLine
	TotalAmount    decimal.Decimal
	PaymentMethod  PaymentMethod
	TenderedAmount decimal.Decimal
	ChangeAmount   decimal.Decimal
	CreatedAt      time.Time
}

func NewSaleRequest(requestID, terminalID string, lines []CartLine, payment PaymentState, now time.Time) SaleRequest {
	saleLines := make([]SaleLine, 0, len(lines))
	for _, l := range lines {
		saleLines = append(saleLines, SaleLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		})
	}

	return SaleRequest{
		RequestID:      requestID,
		TerminalID:     terminalID,
		Lines:          saleLines,
		TotalAmount:    payment.Total,
		PaymentMethod:  payment.Method,
		TenderedAmount: payment.Tendered,
		ChangeAmount:   payment.Change,
		CreatedAt:      now,
	}
}

func (r SaleRequest) Units() int {
	n := 0
	for _, l := range r.Lines {
		n += l.Quantity
	}
	return n
}

// SaleResult carries one opaque receipt document per sub-sale.
type SaleResult struct {
	Success          bool
	Message          string
	ReceiptDocuments []string
}

type AttemptOutcome string

const (
	OutcomeSettled AttemptOutcome = "settled"
	OutcomeFailed  AttemptOutcome = "failed"
)

// SaleAttempt is the journal record of one checkout submission.
type SaleAttempt struct {
	Request      SaleRequest
	Outcome      AttemptOutcome
	Message      string
	ReceiptCount int
	RecordedAt   time.Time
}

type CashFlowReport struct {
	From     time.Time
	To       time.Time
	Sales    int
	ByMethod map[PaymentMethod]decimal.Decimal
	Total    decimal.Decimal
}
