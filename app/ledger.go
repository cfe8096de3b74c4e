package app

import (
	"context"
	"time"

	"github.com/iov-one/bequest"
	"github.com/iov-one/bequest/errors"
	"github.com/iov-one/bequest/journal"
	"github.com/iov-one/bequest/store"
	"github.com/iov-one/bequest/x/cash"
	"github.com/iov-one/bequest/x/inheritance"
	"github.com/tendermint/tendermint/libs/log"
)

// Ledger is the inheritance ledger service. It is safe for concurrent use.
//
// Operations on the same plan are serialized, operations on different plans
// run concurrently. Every operation either commits all of its changes as a
// single new store version or none of them.
type Ledger struct {
	store   *store.CommitStore
	router  *Router
	bank    cash.Controller
	querier inheritance.Querier
	init    bequest.Initializer
	journal journal.Journal
	locks   *keyedMutex
	logger  log.Logger
	debug   bool
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithJournal records committed operations in j.
func WithJournal(j journal.Journal) Option {
	return func(l *Ledger) { l.journal = j }
}

// WithLogger sets the logger used for all operations.
func WithLogger(logger log.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithDebug logs full error stack traces.
func WithDebug(debug bool) Option {
	return func(l *Ledger) { l.debug = debug }
}

// NewLedger returns a ledger working on top of the commit store.
func NewLedger(cs *store.CommitStore, opts ...Option) *Ledger {
	bank := cash.NewController()
	router := NewRouter()
	inheritance.RegisterRoutes(router, bank)

	l := &Ledger{
		store:   cs,
		router:  router,
		bank:    bank,
		querier: inheritance.NewQuerier(),
		init:    ChainInitializers(&inheritance.Initializer{}),
		journal: journal.Nop{},
		locks:   newKeyedMutex(),
		logger:  log.NewNopLogger(),
	}
	for _, o := range opts {
		o(l)
	}
	l.logger = l.logger.With("module", "ledger")
	return l
}

// InitGenesis loads the genesis state. It can only be called on an empty
// store.
func (l *Ledger) InitGenesis(opts bequest.Options) error {
	if v := l.store.LatestVersion().Version; v != 0 {
		return errors.Wrapf(errors.ErrInvalidState, "genesis already loaded, at version %d", v)
	}
	cache := l.store.CacheWrap()
	if err := l.init.FromGenesis(opts, cache); err != nil {
		cache.Discard()
		return errors.Wrap(err, "genesis")
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(err, "commit genesis")
	}
	l.logger.Info("genesis loaded", "version", l.store.LatestVersion().Version)
	return nil
}

// Deliver processes a single message. The message is attributed to the
// caller set in the context with bequest.WithCaller.
func (l *Ledger) Deliver(ctx context.Context, msg bequest.Msg) (*bequest.DeliverResult, error) {
	if msg == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "message")
	}
	h, err := l.router.Handler(msg.Path())
	if err != nil {
		return nil, err
	}

	caller, _ := bequest.GetCaller(ctx)
	owner := planOwner(caller, msg)
	unlock := l.locks.Lock(string(owner))
	defer unlock()

	logger := l.logger.With("path", msg.Path())
	if id, ok := bequest.GetRequestID(ctx); ok {
		logger = logger.With("request", id)
	}
	ctx = bequest.WithLogger(ctx, logger)

	start := time.Now()
	cache := l.store.CacheWrap()
	res, err := deliver(ctx, h, cache, msg)
	if err != nil {
		cache.Discard()
		code, info := errors.Info(err, l.debug)
		logger.Info("operation rejected", "code", code, "err", info)
		return nil, err
	}
	if err := cache.Write(); err != nil {
		logger.Error("cannot commit", "err", err)
		return nil, errors.Wrap(err, "commit")
	}
	logger.Info("operation applied",
		"owner", owner,
		"transfers", len(res.Transfers),
		"version", l.store.LatestVersion().Version,
		"took", time.Since(start))

	entry := journal.NewEntry(msg.Path(), owner, caller, res)
	entry.RequestID, _ = bequest.GetRequestID(ctx)
	// the caller leaving must not lose the entry of a committed operation
	if err := l.journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		// the operation is committed, the journal is an audit trail only
		logger.Error("cannot record journal entry", "entry", entry.ID, "err", err)
	}
	return res, nil
}

// deliver calls the handler, turning a panic into an error.
func deliver(ctx bequest.Context, h bequest.Handler, db bequest.KVStore, msg bequest.Msg) (res *bequest.DeliverResult, err error) {
	defer errors.Recover(&err)
	res, err = h.Deliver(ctx, db, msg)
	if err == nil && res == nil {
		res = &bequest.DeliverResult{}
	}
	return res, err
}

// ownedMsg is implemented by messages acting on the plan of somebody else
// than the caller.
type ownedMsg interface {
	PlanOwner() bequest.Address
}

// planOwner returns the owner of the plan the message acts on. All
// operations on the same plan are serialized on that address.
func planOwner(caller bequest.Address, msg bequest.Msg) bequest.Address {
	if m, ok := msg.(ownedMsg); ok {
		return m.PlanOwner()
	}
	return caller
}

// Create creates a plan owned by the caller.
func (l *Ledger) Create(ctx context.Context, required uint32, model inheritance.Model) (*bequest.DeliverResult, error) {
	return l.Deliver(ctx, &inheritance.CreateMsg{RequiredConfirmations: required, Model: model})
}

// Deposit adds amount to the escrow of the caller's plan.
func (l *Ledger) Deposit(ctx context.Context, amount uint64) (*bequest.DeliverResult, error) {
	return l.Deliver(ctx, &inheritance.DepositMsg{Amount: amount})
}

// AddBeneficiary registers a beneficiary on the caller's plan.
func (l *Ledger) AddBeneficiary(ctx context.Context, msg inheritance.AddBeneficiaryMsg) (*bequest.DeliverResult, error) {
	return l.Deliver(ctx, &msg)
}

// AddValidator registers a validator on the caller's plan.
func (l *Ledger) AddValidator(ctx context.Context, validator bequest.Address) (*bequest.DeliverResult, error) {
	return l.Deliver(ctx, &inheritance.AddValidatorMsg{Address: validator})
}

// Cancel cancels the caller's plan and refunds the escrow.
func (l *Ledger) Cancel(ctx context.Context) (*bequest.DeliverResult, error) {
	return l.Deliver(ctx, &inheritance.CancelMsg{})
}

// ConfirmDeath records the confirmation of the calling validator.
func (l *Ledger) ConfirmDeath(ctx context.Context, owner bequest.Address) (*bequest.DeliverResult, error) {
	return l.Deliver(ctx, &inheritance.ConfirmDeathMsg{Owner: owner})
}

// Distribute pays out the escrow of a death confirmed plan.
func (l *Ledger) Distribute(ctx context.Context, owner bequest.Address) (*bequest.DeliverResult, error) {
	return l.Deliver(ctx, &inheritance.DistributeMsg{Owner: owner})
}

// PlanStatus returns the status summary of the owner's plan.
func (l *Ledger) PlanStatus(owner bequest.Address) (*inheritance.PlanStatus, error) {
	return l.querier.PlanStatus(l.store, owner)
}

// Plan returns the full plan of the owner.
func (l *Ledger) Plan(owner bequest.Address) (*inheritance.Plan, error) {
	return l.querier.Plan(l.store, owner)
}

// Beneficiaries returns the beneficiaries of the owner's plan.
func (l *Ledger) Beneficiaries(owner bequest.Address) ([]inheritance.Beneficiary, error) {
	return l.querier.Beneficiaries(l.store, owner)
}

// Beneficiary returns the beneficiary at given position.
func (l *Ledger) Beneficiary(owner bequest.Address, index int) (*inheritance.Beneficiary, error) {
	return l.querier.Beneficiary(l.store, owner, index)
}

// Validators returns the validators of the owner's plan.
func (l *Ledger) Validators(owner bequest.Address) ([]inheritance.Validator, error) {
	return l.querier.Validators(l.store, owner)
}

// ValidatorIndex returns the position of the validator in the owner's plan.
func (l *Ledger) ValidatorIndex(owner, validator bequest.Address) (int, error) {
	return l.querier.ValidatorIndex(l.store, owner, validator)
}

// PlansForValidator returns the owners of all plans validated by address.
func (l *Ledger) PlansForValidator(validator bequest.Address) ([]bequest.Address, error) {
	return l.querier.PlansForValidator(l.store, validator)
}

// ValidatorAssignments returns the dashboard rows of the validator.
func (l *Ledger) ValidatorAssignments(validator bequest.Address) ([]inheritance.ValidatorAssignment, error) {
	return l.querier.ValidatorAssignments(l.store, validator)
}

// Configuration returns the configuration in effect.
func (l *Ledger) Configuration() (inheritance.Configuration, error) {
	return inheritance.LoadConfiguration(l.store)
}

// Balance returns the total value credited to the account.
func (l *Ledger) Balance(account bequest.Address) (uint64, error) {
	return l.bank.Balance(l.store, account)
}

// Receipts returns all credits of the account.
func (l *Ledger) Receipts(account bequest.Address) ([]*cash.Receipt, error) {
	return l.bank.Receipts(l.store, account)
}

// Journal returns the most recent journal entries of the owner's plan.
func (l *Ledger) Journal(ctx context.Context, owner bequest.Address, limit int) ([]journal.Entry, error) {
	return l.journal.Entries(ctx, owner, limit)
}

// Version returns the last committed store version.
func (l *Ledger) Version() store.CommitID {
	return l.store.LatestVersion()
}

// Close releases the journal and the store.
func (l *Ledger) Close() error {
	jerr := l.journal.Close()
	if err := l.store.Close(); err != nil {
		return err
	}
	return jerr
}
