package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/rl1809/pos-register/internal/core/domain"
	"github.com/rl1809/pos-register/internal/port"
)

var ErrSessionClosed = errors.New("session closed")

const (
	inboxSize = 64

	msgSubmitting        = "a checkout is in progress; wait for it to finish"
	msgClearNotConfirmed = "clearing the cart must be confirmed"
	msgPrintInProgress   = "receipts are already being printed"
	msgNoReceiptsIssued  = "sale completed, no receipt generated"
)

// Command is an operator action or an I/O completion consumed by the session loop.
type Command interface {
	command()
}

type (
	SearchInput struct{ Query string }
	AddProduct  struct{ Product domain.Product }
	// AddSearchResult adds the product at Index (0-based) of the last applied search.
	AddSearchResult struct{ Index int }
	SetQuantity     struct {
		ProductID int64
		Quantity  int
	}
	Increment       struct{ ProductID int64 }
	Decrement       struct{ ProductID int64 }
	RemoveLine      struct{ ProductID int64 }
	ClearCart       struct{ Confirmed bool }
	SelectPayment   struct{ Method domain.PaymentMethod }
	SetTendered     struct{ Input string }
	Submit          struct{}
	PrintCurrent    struct{}
	PrintAll        struct{}
	DismissReceipts struct{}
	Refresh         struct{}

	searchCompleted   struct{ result SearchResult }
	checkoutCompleted struct {
		req    domain.SaleRequest
		result domain.SaleResult
		err    error
	}
	printCompleted struct {
		requested int
		printed   int
		err       error
	}
)

func (SearchInput) command()       {}
func (AddProduct) command()        {}
func (AddSearchResult) command()   {}
func (SetQuantity) command()       {}
func (Increment) command()         {}
func (Decrement) command()         {}
func (RemoveLine) command()        {}
func (ClearCart) command()         {}
func (SelectPayment) command()     {}
func (SetTendered) command()       {}
func (Submit) command()            {}
func (PrintCurrent) command()      {}
func (PrintAll) command()          {}
func (DismissReceipts) command()   {}
func (Refresh) command()           {}
func (searchCompleted) command()   {}
func (checkoutCompleted) command() {}
func (printCompleted) command()    {}

type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
	NoticeError
)

func (l NoticeLevel) String() string {
	switch l {
	case NoticeWarning:
		return "warning"
	case NoticeError:
		return "error"
	default:
		return "info"
	}
}

type Notice struct {
	Level NoticeLevel
	Text  string
}

type SearchView struct {
	Seq       uint64
	Query     string
	Phase     SearchPhase
	Results   []domain.Product
	TooShort  bool
	NoMatch   bool
	Err       string
	Discarded uint64
}

type CheckoutView struct {
	State       CheckoutState
	Attempts    uint64
	LastState   CheckoutState
	LastMessage string
	RequestID   string
}

type ReceiptView struct {
	Count       int
	Preview     string
	CanPrintAll bool
}

// View is the snapshot published after every applied command. Notices only
// carry what that command produced.
type View struct {
	Lines    []domain.CartLine
	Payment  domain.PaymentState
	Search   SearchView
	Checkout CheckoutView
	Receipts ReceiptView
	Printing bool
	Notices  []Notice
}

type SessionDeps struct {
	Cart     *CartStore
	Payment  *PaymentForm
	Checkout *CheckoutCoordinator
	Receipts *ReceiptDispatcher
	Catalog  port.CatalogClient
	Search   SearchOptions
	Drafts   *DraftSync // optional
	Logger   *zap.Logger
}

type envelope struct {
	cmd   Command
	reply chan reply
}

type reply struct {
	view View
	err  error
}

// Session serializes every cart, payment, checkout and receipt transition on
// one goroutine. Search, checkout and printing run off-loop and re-enter as
// completion commands.
type Session struct {
	cart     *CartStore
	payment  *PaymentForm
	checkout *CheckoutCoordinator
	receipts *ReceiptDispatcher
	searcher *CatalogSearcher
	drafts   *DraftSync
	logger   *zap.Logger

	inbox chan envelope
	done  chan struct{}

	subsMu  sync.Mutex
	subs    map[int]chan View
	nextSub int

	// owned by the loop
	runCtx   context.Context
	search   SearchView
	printing bool
	notices  []Notice
}

func NewSession(deps SessionDeps) *Session {
	s := &Session{
		cart:     deps.Cart,
		payment:  deps.Payment,
		checkout: deps.Checkout,
		receipts: deps.Receipts,
		drafts:   deps.Drafts,
		logger:   deps.Logger,
		inbox:    make(chan envelope, inboxSize),
		done:     make(chan struct{}),
		subs:     make(map[int]chan View),
	}
	s.searcher = NewCatalogSearcher(deps.Catalog, deps.Search, func(res SearchResult) {
		s.post(searchCompleted{result: res})
	}, deps.Logger)

	if s.drafts != nil {
		s.cart.Subscribe(s.drafts.Schedule)
	}
	return s
}

// Run restores the cart draft, then applies commands until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	s.runCtx = ctx

	var wg sync.WaitGroup
	if s.drafts != nil {
		if lines, err := s.drafts.Restore(ctx); err != nil {
			s.logger.Warn("could not restore cart draft", zap.Error(err))
		} else {
			s.cart.Restore(lines)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.drafts.Run(ctx)
		}()
	}

	s.publish(s.view())

	for {
		select {
		case env := <-s.inbox:
			view, err := s.apply(env.cmd)
			if env.reply != nil {
				env.reply <- reply{view: view, err: err}
			}
			s.publish(view)
		case <-ctx.Done():
			s.searcher.Stop()
			wg.Wait()
			s.closeSubscribers()
			return nil
		}
	}
}

// Do applies cmd on the loop and returns the resulting view together with the
// command's own error, if any. It does not wait for I/O started by cmd.
func (s *Session) Do(ctx context.Context, cmd Command) (View, error) {
	env := envelope{cmd: cmd, reply: make(chan reply, 1)}

	select {
	case s.inbox <- env:
	case <-s.done:
		return View{}, ErrSessionClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}

	select {
	case r := <-env.reply:
		return r.view, r.err
	case <-s.done:
		return View{}, ErrSessionClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// Dispatch queues cmd without waiting for it to be applied.
func (s *Session) Dispatch(cmd Command) {
	s.post(cmd)
}

// Subscribe returns a channel of views. A slow subscriber only misses
// intermediate views; the most recent one is always delivered.
func (s *Session) Subscribe(buf int) (<-chan View, func()) {
	if buf < 1 {
		buf = 1
	}

	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan View, buf)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// WaitFor reads views until done reports true.
func WaitFor(ctx context.Context, views <-chan View, done func(View) bool) (View, error) {
	for {
		select {
		case v, ok := <-views:
			if !ok {
				return View{}, ErrSessionClosed
			}
			if done(v) {
				return v, nil
			}
		case <-ctx.Done():
			return View{}, ctx.Err()
		}
	}
}

func (s *Session) post(cmd Command) {
	select {
	case s.inbox <- envelope{cmd: cmd}:
	case <-s.done:
	}
}

func (s *Session) publish(v View) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

func (s *Session) closeSubscribers() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Session) apply(cmd Command) (View, error) {
	s.notices = nil
	err := s.handle(cmd)
	if err != nil {
		s.noticeFor(err)
	}
	return s.view(), err
}

func (s *Session) handle(cmd Command) error {
	switch c := cmd.(type) {
	case SearchInput:
		return s.handleSearchInput(c.Query)
	case searchCompleted:
		s.handleSearchCompleted(c.result)
		return nil

	case AddProduct:
		if err := s.guardCart(); err != nil {
			return err
		}
		return s.cart.AddProduct(c.Product)
	case AddSearchResult:
		if err := s.guardCart(); err != nil {
			return err
		}
		if c.Index < 0 || c.Index >= len(s.search.Results) {
			return domain.NewValidationError(fmt.Sprintf("no search result at position %d", c.Index+1))
		}
		return s.cart.AddProduct(s.search.Results[c.Index])
	case SetQuantity:
		return s.handleSetQuantity(c.ProductID, c.Quantity)
	case Increment:
		if err := s.guardCart(); err != nil {
			return err
		}
		return s.cart.Increment(c.ProductID)
	case Decrement:
		if err := s.guardCart(); err != nil {
			return err
		}
		return s.cart.Decrement(c.ProductID)
	case RemoveLine:
		if err := s.guardCart(); err != nil {
			return err
		}
		s.cart.RemoveLine(c.ProductID)
		return nil
	case ClearCart:
		if err := s.guardCart(); err != nil {
			return err
		}
		if !c.Confirmed {
			return domain.NewValidationError(msgClearNotConfirmed)
		}
		s.cart.Clear()
		s.payment.Reset()
		return nil

	case SelectPayment:
		if err := s.guardCart(); err != nil {
			return err
		}
		s.payment.Method = c.Method
		return nil
	case SetTendered:
		if err := s.guardCart(); err != nil {
			return err
		}
		s.payment.TenderedInput = c.Input
		return nil

	case Submit:
		return s.handleSubmit()
	case checkoutCompleted:
		s.handleCheckoutCompleted(c)
		return nil

	case PrintCurrent:
		return s.startPrint(false)
	case PrintAll:
		return s.startPrint(true)
	case printCompleted:
		s.handlePrintCompleted(c)
		return nil
	case DismissReceipts:
		s.receipts.Dismiss()
		return nil

	case Refresh:
		return nil
	default:
		return fmt.Errorf("unknown command %T", cmd)
	}
}

// guardCart keeps the cart and payment fields frozen while a checkout is in
// flight, so a failed submission leaves them exactly as submitted.
func (s *Session) guardCart() error {
	if s.checkout.State() == CheckoutSubmitting {
		return domain.NewValidationError(msgSubmitting)
	}
	return nil
}

func (s *Session) handleSearchInput(query string) error {
	res, ok := s.searcher.Input(query)
	s.search = SearchView{
		Seq:       res.Seq,
		Query:     res.Query,
		Phase:     s.searcher.Phase(),
		TooShort:  !ok,
		Discarded: s.searcher.Discarded(),
	}
	return nil
}

func (s *Session) handleSearchCompleted(res SearchResult) {
	if res.Seq != s.searcher.Latest() {
		s.logger.Debug("search result superseded", zap.Uint64("seq", res.Seq))
		return
	}

	s.search = SearchView{
		Seq:       res.Seq,
		Query:     res.Query,
		Phase:     SearchApplied,
		Results:   res.Products,
		NoMatch:   res.NoMatch(),
		Discarded: s.searcher.Discarded(),
	}
	if res.Err != nil {
		s.search.Err = domain.Message(res.Err)
		s.notices = append(s.notices, Notice{Level: NoticeWarning, Text: s.search.Err})
	}
}

func (s *Session) handleSetQuantity(productID int64, quantity int) error {
	if err := s.guardCart(); err != nil {
		return err
	}

	applied, err := s.cart.SetQuantity(productID, quantity)
	if err != nil {
		return err
	}
	if applied > 0 && applied != quantity {
		line, _ := s.cart.Line(productID)
		s.notices = append(s.notices, Notice{
			Level: NoticeWarning,
			Text:  domain.Message(domain.NewStockExceededError(line.Name, line.StockAtAddTime)),
		})
	}
	return nil
}

func (s *Session) handleSubmit() error {
	req, err := s.checkout.Begin()
	if err != nil {
		return err
	}

	ctx := s.runCtx
	go func() {
		result, err := s.checkout.Send(ctx, req)
		s.post(checkoutCompleted{req: req, result: result, err: err})
	}()
	return nil
}

func (s *Session) handleCheckoutCompleted(c checkoutCompleted) {
	out := s.checkout.Finish(c.req, c.result, c.err)
	if out.State == CheckoutFailed {
		s.notices = append(s.notices, Notice{Level: NoticeError, Text: domain.Message(out.Err)})
		return
	}

	text := "sale completed"
	if out.Result.Message != "" {
		text = out.Result.Message
	}
	s.notices = append(s.notices, Notice{Level: NoticeInfo, Text: text})
	if s.receipts.Count() == 0 {
		s.notices = append(s.notices, Notice{Level: NoticeInfo, Text: msgNoReceiptsIssued})
	}
}

func (s *Session) startPrint(all bool) error {
	if s.printing {
		return domain.NewValidationError(msgPrintInProgress)
	}

	docs := s.receipts.Current()
	if all {
		docs = s.receipts.Documents()
	}
	if len(docs) == 0 {
		return &domain.Error{Kind: domain.ErrNoReceipts, Message: "there is no receipt to print"}
	}

	s.printing = true
	ctx := s.runCtx
	go func() {
		printed, err := s.receipts.Print(ctx, docs)
		s.post(printCompleted{requested: len(docs), printed: printed, err: err})
	}()
	return nil
}

func (s *Session) handlePrintCompleted(c printCompleted) {
	s.printing = false
	if c.err != nil {
		s.notices = append(s.notices, Notice{
			Level: NoticeError,
			Text:  fmt.Sprintf("printed %d of %d receipts: %v", c.printed, c.requested, c.err),
		})
		return
	}
	s.notices = append(s.notices, Notice{
		Level: NoticeInfo,
		Text:  fmt.Sprintf("printed %d receipt(s)", c.printed),
	})
}

func (s *Session) noticeFor(err error) {
	level := NoticeError
	if domain.IsWarning(err) || errors.Is(err, domain.ErrValidation) {
		level = NoticeWarning
	}
	s.notices = append(s.notices, Notice{Level: level, Text: domain.Message(err)})
	s.logger.Debug("command rejected", zap.Error(err))
}

func (s *Session) view() View {
	outcome, attempts := s.checkout.Last()
	preview, _ := s.receipts.Preview()

	v := View{
		Lines:   s.cart.Lines(),
		Payment: s.payment.Compute(s.cart),
		Search:  s.search,
		Checkout: CheckoutView{
			State:     s.checkout.State(),
			Attempts:  attempts,
			LastState: outcome.State,
			RequestID: outcome.Request.RequestID,
		},
		Receipts: ReceiptView{
			Count:       s.receipts.Count(),
			Preview:     preview,
			CanPrintAll: s.receipts.CanPrintAll(),
		},
		Printing: s.printing,
		Notices:  append([]Notice(nil), s.notices...),
	}
	if outcome.Err != nil {
		v.Checkout.LastMessage = domain.Message(outcome.Err)
	} else {
		v.Checkout.LastMessage = outcome.Result.Message
	}
	v.Search.Results = append([]domain.Product(nil), s.search.Results...)
	return v
}
