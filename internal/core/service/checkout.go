package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/pos-register/internal/core/domain"
	"github.com/rl1809/pos-register/internal/port"
)

const (
	msgEmptyCart         = "the cart is empty; add products to finish the sale"
	msgInsufficientCash  = "the tendered amount is not enough for a cash sale"
	msgCheckoutInFlight  = "a checkout is already being processed"
	msgTransportFailure  = "could not reach the checkout service; the cart was kept"
	msgBusinessRejection = "the sale was rejected by the checkout service"
)

type CheckoutState int

const (
	CheckoutIdle CheckoutState = iota
	CheckoutSubmitting
	CheckoutSettled
	CheckoutFailed
)

func (s CheckoutState) String() string {
	switch s {
	case CheckoutIdle:
		return "idle"
	case CheckoutSubmitting:
		return "submitting"
	case CheckoutSettled:
		return "settled"
	case CheckoutFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CheckoutOutcome describes how one submission ended. State is Settled or Failed.
type CheckoutOutcome struct {
	Request domain.SaleRequest
	Result  domain.SaleResult
	State   CheckoutState
	Err     error
}

// CheckoutCoordinator runs Idle -> Submitting -> {Settled, Failed} -> Idle.
// At most one submission is in flight; failed submissions are never retried.
type CheckoutCoordinator struct {
	client     port.CheckoutClient
	cart       *CartStore
	payment    *PaymentForm
	receipts   *ReceiptDispatcher
	journal    *SaleJournal
	terminalID string
	logger     *zap.Logger

	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	state    CheckoutState
	last     CheckoutOutcome
	attempts uint64
}

type CheckoutDeps struct {
	Client     port.CheckoutClient
	Cart       *CartStore
	Payment    *PaymentForm
	Receipts   *ReceiptDispatcher
	Journal    *SaleJournal // optional
	TerminalID string
	Logger     *zap.Logger
}

func NewCheckoutCoordinator(deps CheckoutDeps) *CheckoutCoordinator {
	return &CheckoutCoordinator{
		client:     deps.Client,
		cart:       deps.Cart,
		payment:    deps.Payment,
		receipts:   deps.Receipts,
		journal:    deps.Journal,
		terminalID: deps.TerminalID,
		logger:     deps.Logger,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
}

func (c *CheckoutCoordinator) State() CheckoutState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Last returns the most recent outcome and how many submissions have finished.
func (c *CheckoutCoordinator) Last() (CheckoutOutcome, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.attempts
}

// Submit performs a whole checkout synchronously.
func (c *CheckoutCoordinator) Submit(ctx context.Context) (CheckoutOutcome, error) {
	req, err := c.Begin()
	if err != nil {
		return CheckoutOutcome{}, err
	}

	result, err := c.Send(ctx, req)
	out := c.Finish(req, result, err)
	return out, out.Err
}

// Begin checks the guards, builds the sale request from the live cart and
// moves to Submitting. No network call happens here.
func (c *CheckoutCoordinator) Begin() (domain.SaleRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == CheckoutSubmitting {
		return domain.SaleRequest{}, &domain.Error{Kind: domain.ErrCheckoutInFlight, Message: msgCheckoutInFlight}
	}
	if c.cart.IsEmpty() {
		return domain.SaleRequest{}, domain.NewValidationError(msgEmptyCart)
	}

	payment := c.payment.Compute(c.cart)
	if !payment.Eligible {
		return domain.SaleRequest{}, domain.NewValidationError(msgInsufficientCash)
	}

	req := domain.NewSaleRequest(c.newID(), c.terminalID, c.cart.Lines(), payment, c.now())
	c.state = CheckoutSubmitting

	c.logger.Info("checkout submitting",
		zap.String("request_id", req.RequestID),
		zap.Int("lines", len(req.Lines)),
		zap.String("total", domain.FormatMoney(req.TotalAmount)),
		zap.String("method", string(req.PaymentMethod)))
	return req, nil
}

// Send issues exactly one checkout call.
func (c *CheckoutCoordinator) Send(ctx context.Context, req domain.SaleRequest) (domain.SaleResult, error) {
	return c.client.Checkout(ctx, req)
}

// Finish interprets the response. On success the receipts are captured before
// the cart and payment fields are reset. On failure nothing is touched.
func (c *CheckoutCoordinator) Finish(req domain.SaleRequest, result domain.SaleResult, sendErr error) CheckoutOutcome {
	out := CheckoutOutcome{Request: req, Result: result}

	switch {
	case sendErr != nil:
		out.State = CheckoutFailed
		out.Err = transportFailure(sendErr)
	case !result.Success:
		out.State = CheckoutFailed
		msg := result.Message
		if msg == "" {
			msg = msgBusinessRejection
		}
		out.Err = domain.NewBusinessFailure(msg)
	default:
		out.State = CheckoutSettled
	}

	if out.State == CheckoutSettled {
		if err := c.receipts.Load(result.ReceiptDocuments); err != nil {
			c.logger.Warn("receipts loaded without preview", zap.Error(err))
		}
		c.cart.Clear()
		c.payment.Reset()

		c.logger.Info("checkout settled",
			zap.String("request_id", req.RequestID),
			zap.Int("receipts", len(result.ReceiptDocuments)))
	} else {
		c.logger.Warn("checkout failed",
			zap.String("request_id", req.RequestID),
			zap.Error(out.Err))
	}

	c.journalAttempt(out)

	c.mu.Lock()
	c.state = CheckoutIdle
	c.last = out
	c.attempts++
	c.mu.Unlock()

	return out
}

func (c *CheckoutCoordinator) journalAttempt(out CheckoutOutcome) {
	if c.journal == nil {
		return
	}

	attempt := domain.SaleAttempt{
		Request:      out.Request,
		Outcome:      domain.OutcomeSettled,
		Message:      out.Result.Message,
		ReceiptCount: len(out.Result.ReceiptDocuments),
		RecordedAt:   c.now(),
	}
	if out.State == CheckoutFailed {
		attempt.Outcome = domain.OutcomeFailed
		attempt.Message = domain.Message(out.Err)
		attempt.ReceiptCount = 0
	}
	c.journal.Record(attempt)
}

// transportFailure keeps an adapter-classified error, which carries the
// server's message when one was available, and wraps anything else in a
// generic transport notice.
func transportFailure(err error) error {
	var e *domain.Error
	if errors.As(err, &e) && (e.Kind == domain.ErrTransport || e.Kind == domain.ErrBusinessFailure) {
		return err
	}
	return domain.NewTransportError(msgTransportFailure, err)
}
