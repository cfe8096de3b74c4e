package inheritance

import (
	"context"
	"math"
	"testing"

	"github.com/iov-one/bequest"
	"github.com/iov-one/bequest/bequesttest"
	"github.com/iov-one/bequest/bequesttest/assert"
	"github.com/iov-one/bequest/errors"
	"github.com/iov-one/bequest/store"
	"github.com/iov-one/bequest/x/cash"
)

type testRegistry map[string]bequest.Handler

func (r testRegistry) Handle(m bequest.Msg, h bequest.Handler) {
	r[m.Path()] = h
}

// action is a single message delivered on behalf of caller.
type action struct {
	caller  bequest.Address
	msg     bequest.Msg
	wantErr *errors.Error
}

// ledger runs messages against an in memory store, writing the changes of
// successful messages and discarding all others.
type ledger struct {
	t        testing.TB
	db       bequest.CacheableKVStore
	handlers testRegistry
	bank     cash.Controller
}

func newLedger(t testing.TB) *ledger {
	bank := cash.NewController()
	r := make(testRegistry)
	RegisterRoutes(r, bank)
	return &ledger{t: t, db: store.MemStore(), handlers: r, bank: bank}
}

func (l *ledger) deliver(caller bequest.Address, msg bequest.Msg) (*bequest.DeliverResult, error) {
	l.t.Helper()
	h, ok := l.handlers[msg.Path()]
	if !ok {
		l.t.Fatalf("no handler for %q", msg.Path())
	}
	ctx := context.Background()
	if caller != nil {
		ctx = bequest.WithCaller(ctx, caller)
	}
	cache := l.db.CacheWrap()
	res, err := h.Deliver(ctx, cache, msg)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if err := cache.Write(); err != nil {
		l.t.Fatalf("cannot write: %s", err)
	}
	return res, nil
}

func (l *ledger) run(actions ...action) {
	l.t.Helper()
	for i, a := range actions {
		_, err := l.deliver(a.caller, a.msg)
		if !a.wantErr.Is(err) {
			l.t.Fatalf("action %d (%T): want %v error, got %+v", i, a.msg, a.wantErr, err)
		}
	}
}

func (l *ledger) plan(owner bequest.Address) *Plan {
	l.t.Helper()
	p, err := NewPlanBucket().GetPlan(l.db, owner)
	assert.Nil(l.t, err)
	if p == nil {
		l.t.Fatalf("no plan of %s", owner)
	}
	return p
}

func (l *ledger) balance(a bequest.Address) uint64 {
	l.t.Helper()
	b, err := l.bank.Balance(l.db, a)
	assert.Nil(l.t, err)
	return b
}

var (
	owner = bequesttest.SequenceAddr("owner")
	alice = bequesttest.SequenceAddr("alice")
	bob   = bequesttest.SequenceAddr("bob")
	carol = bequesttest.SequenceAddr("carol")
	val1  = bequesttest.SequenceAddr("validator-1")
	val2  = bequesttest.SequenceAddr("validator-2")
	val3  = bequesttest.SequenceAddr("validator-3")
)

func TestCreatePlan(t *testing.T) {
	cases := map[string]struct {
		before  []action
		caller  bequest.Address
		msg     *CreateMsg
		wantErr *errors.Error
	}{
		"create a plan": {
			caller: owner,
			msg:    &CreateMsg{RequiredConfirmations: 2, Model: ModelProportional},
		},
		"zero quorum": {
			caller:  owner,
			msg:     &CreateMsg{RequiredConfirmations: 0},
			wantErr: errors.ErrInvalidParameter,
		},
		"unknown model": {
			caller:  owner,
			msg:     &CreateMsg{RequiredConfirmations: 1, Model: Model(7)},
			wantErr: errors.ErrInvalidParameter,
		},
		"anonymous caller": {
			msg:     &CreateMsg{RequiredConfirmations: 1},
			wantErr: ErrNotAuthorized,
		},
		"active plan exists": {
			before: []action{
				{caller: owner, msg: &CreateMsg{RequiredConfirmations: 1}},
			},
			caller:  owner,
			msg:     &CreateMsg{RequiredConfirmations: 3},
			wantErr: errors.ErrAlreadyExists,
		},
		"death confirmed plan exists": {
			before: []action{
				{caller: owner, msg: &CreateMsg{RequiredConfirmations: 1}},
				{caller: owner, msg: &AddValidatorMsg{Address: val1}},
				{caller: val1, msg: &ConfirmDeathMsg{Owner: owner}},
			},
			caller:  owner,
			msg:     &CreateMsg{RequiredConfirmations: 3},
			wantErr: errors.ErrAlreadyExists,
		},
		"cancelled plan is replaced": {
			before: []action{
				{caller: owner, msg: &CreateMsg{RequiredConfirmations: 1}},
				{caller: owner, msg: &CancelMsg{}},
			},
			caller: owner,
			msg:    &CreateMsg{RequiredConfirmations: 2},
		},
		"distributed plan is replaced": {
			before: []action{
				{caller: owner, msg: &CreateMsg{RequiredConfirmations: 1}},
				{caller: owner, msg: &AddValidatorMsg{Address: val1}},
				{caller: owner, msg: &DepositMsg{Amount: 10}},
				{caller: val1, msg: &ConfirmDeathMsg{Owner: owner}},
				{caller: carol, msg: &DistributeMsg{Owner: owner}},
			},
			caller: owner,
			msg:    &CreateMsg{RequiredConfirmations: 2},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			l := newLedger(t)
			l.run(tc.before...)

			_, err := l.deliver(tc.caller, tc.msg)
			if !tc.wantErr.Is(err) {
				t.Fatalf("want %v error, got %+v", tc.wantErr, err)
			}
			if tc.wantErr != nil {
				return
			}

			p := l.plan(owner)
			assert.Equal(t, StatusActive, p.Status)
			assert.Equal(t, tc.msg.RequiredConfirmations, p.RequiredConfirmations)
			assert.Equal(t, uint64(0), p.EscrowedValue)
			assert.Equal(t, uint32(0), p.ConfirmationCount)
			assert.Equal(t, 0, len(p.Beneficiaries))
			assert.Equal(t, 0, len(p.Validators))
			assert.Equal(t, EscrowCondition(owner).Address(), p.EscrowAddress)

			// a replaced plan is no longer listed for its validators
			owners, err := NewPlanBucket().OwnersForValidator(l.db, val1)
			assert.Nil(t, err)
			assert.Equal(t, 0, len(owners))
		})
	}
}

func TestCreateUsesConfiguredModel(t *testing.T) {
	l := newLedger(t)
	assert.Nil(t, SaveConfiguration(l.db, Configuration{DefaultModel: ModelFixedAmount}))

	l.run(action{caller: owner, msg: &CreateMsg{RequiredConfirmations: 1}})
	assert.Equal(t, ModelFixedAmount, l.plan(owner).Model)

	l.run(action{caller: alice, msg: &CreateMsg{RequiredConfirmations: 1, Model: ModelProportional}})
	assert.Equal(t, ModelProportional, l.plan(alice).Model)

	// without configuration the proportional model is used
	l2 := newLedger(t)
	l2.run(action{caller: owner, msg: &CreateMsg{RequiredConfirmations: 1}})
	assert.Equal(t, ModelProportional, l2.plan(owner).Model)
}

func TestAddBeneficiary(t *testing.T) {
	proportional := action{caller: owner, msg: &CreateMsg{RequiredConfirmations: 1, Model: ModelProportional}}
	fixed := action{caller: owner, msg: &CreateMsg{RequiredConfirmations: 1, Model: ModelFixedAmount}}

	cases := map[string]struct {
		before    []action
		msg       *AddBeneficiaryMsg
		wantErr   *errors.Error
		wantCount int
		wantValue uint64
	}{
		"proportional share": {
			before:    []action{proportional},
			msg:       &AddBeneficiaryMsg{Address: alice, Share: 5000},
			wantCount: 1,
		},
		"full share": {
			before: []action{
				proportional,
				{caller: owner, msg: &AddBeneficiaryMsg{Address: alice, Share: 4000}},
			},
			msg:       &AddBeneficiaryMsg{Address: bob, Share: 6000},
			wantCount: 2,
		},
		"share above the total": {
			before:  []action{proportional},
			msg:     &AddBeneficiaryMsg{Address: alice, Share: 10001},
			wantErr: errors.ErrInvalidParameter,
		},
		"shares exceed the total": {
			before: []action{
				proportional,
				{caller: owner, msg: &AddBeneficiaryMsg{Address: alice, Share: 6000}},
			},
			msg:     &AddBeneficiaryMsg{Address: bob, Share: 4001},
			wantErr: ErrAllocationExceeded,
		},
		"amount in a proportional plan": {
			before:  []action{proportional},
			msg:     &AddBeneficiaryMsg{Address: alice, Amount: 10},
			wantErr: errors.ErrInvalidParameter,
		},
		"zero share": {
			before:  []action{proportional},
			msg:     &AddBeneficiaryMsg{Address: alice},
			wantErr: errors.ErrInvalidParameter,
		},
		"zero amount": {
			before:  []action{fixed},
			msg:     &AddBeneficiaryMsg{Address: alice, Deposit: 10},
			wantErr: errors.ErrInvalidParameter,
		},
		"share in a fixed amount plan": {
			before:  []action{fixed},
			msg:     &AddBeneficiaryMsg{Address: alice, Share: 10},
			wantErr: errors.ErrInvalidParameter,
		},
		"fixed amount funded by the registration": {
			before:    []action{fixed},
			msg:       &AddBeneficiaryMsg{Address: alice, Amount: 300, Deposit: 300},
			wantCount: 1,
			wantValue: 300,
		},
		"fixed amount funded earlier": {
			before: []action{
				fixed,
				{caller: owner, msg: &DepositMsg{Amount: 500}},
			},
			msg:       &AddBeneficiaryMsg{Address: alice, Amount: 500},
			wantCount: 1,
			wantValue: 500,
		},
		"fixed amount not covered by escrow": {
			before: []action{
				fixed,
				{caller: owner, msg: &DepositMsg{Amount: 500}},
				{caller: owner, msg: &AddBeneficiaryMsg{Address: alice, Amount: 400}},
			},
			msg:     &AddBeneficiaryMsg{Address: bob, Amount: 101, Deposit: 0},
			wantErr: ErrAllocationExceeded,
		},
		"owner as beneficiary": {
			before:  []action{proportional},
			msg:     &AddBeneficiaryMsg{Address: owner, Share: 1},
			wantErr: ErrSelfReference,
		},
		"same beneficiary twice": {
			before: []action{
				proportional,
				{caller: owner, msg: &AddBeneficiaryMsg{Address: alice, Share: 1}},
			},
			msg:     &AddBeneficiaryMsg{Address: alice, Share: 1},
			wantErr: ErrDuplicateParticipant,
		},
		"validator as beneficiary": {
			before: []action{
				proportional,
				{caller: owner, msg: &AddValidatorMsg{Address: alice}},
			},
			msg:     &AddBeneficiaryMsg{Address: alice, Share: 1},
			wantErr: ErrDuplicateParticipant,
		},
		"no plan": {
			msg:     &AddBeneficiaryMsg{Address: alice, Share: 1},
			wantErr: errors.ErrNotFound,
		},
		"death confirmed plan": {
			before: []action{
				proportional,
				{caller: owner, msg: &AddValidatorMsg{Address: val1}},
				{caller: val1, msg: &ConfirmDeathMsg{Owner: owner}},
			},
			msg:     &AddBeneficiaryMsg{Address: alice, Share: 1},
			wantErr: errors.ErrInvalidState,
		},
		"invalid address": {
			before:  []action{proportional},
			msg:     &AddBeneficiaryMsg{Address: bequest.Address("short"), Share: 1},
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			l := newLedger(t)
			l.run(tc.before...)

			var before *Plan
			if has, _ := NewPlanBucket().Has(l.db, owner); has {
				before = l.plan(owner)
			}

			_, err := l.deliver(owner, tc.msg)
			if !tc.wantErr.Is(err) {
				t.Fatalf("want %v error, got %+v", tc.wantErr, err)
			}
			if tc.wantErr != nil {
				if before != nil {
					assert.Equal(t, before, l.plan(owner))
				}
				return
			}
			p := l.plan(owner)
			assert.Equal(t, tc.wantCount, len(p.Beneficiaries))
			assert.Equal(t, tc.wantValue, p.EscrowedValue)
			last := p.Beneficiaries[len(p.Beneficiaries)-1]
			assert.Equal(t, tc.msg.Address, last.Address)
		})
	}
}

func TestAddValidator(t *testing.T) {
	l := newLedger(t)
	l.run(
		action{caller: owner, msg: &CreateMsg{RequiredConfirmations: 2}},
		action{caller: owner, msg: &AddValidatorMsg{Address: val1}},
		action{caller: owner, msg: &AddValidatorMsg{Address: val2}},
		action{caller: owner, msg: &AddValidatorMsg{Address: val1}, wantErr: ErrDuplicateParticipant},
		action{caller: owner, msg: &AddValidatorMsg{Address: owner}, wantErr: ErrSelfReference},
		action{caller: owner, msg: &AddBeneficiaryMsg{Address: alice, Share: 100}},
		action{caller: owner, msg: &AddValidatorMsg{Address: alice}, wantErr: ErrDuplicateParticipant},
		action{caller: alice, msg: &AddValidatorMsg{Address: val3}, wantErr: errors.ErrNotFound},
		action{caller: val1, msg: &ConfirmDeathMsg{Owner: owner}},
		// a late validator does not change the quorum nor the count
		action{caller: owner, msg: &AddValidatorMsg{Address: val3}},
	)

	p := l.plan(owner)
	assert.Equal(t, 3, len(p.Validators))
	assert.Equal(t, uint32(2), p.RequiredConfirmations)
	assert.Equal(t, uint32(1), p.ConfirmationCount)
	assert.Equal(t, StatusActive, p.Status)
	assert.Equal(t, []Validator{
		{Address: val1, HasConfirmed: true},
		{Address: val2},
		{Address: val3},
	}, p.Validators)
}

func TestDeposit(t *testing.T) {
	l := newLedger(t)
	l.run(
		action{caller: owner, msg: &DepositMsg{Amount: 1}, wantErr: errors.ErrNotFound},
		action{caller: owner, msg: &CreateMsg{RequiredConfirmations: 1}},
		action{caller: owner, msg: &DepositMsg{Amount: 0}, wantErr: errors.ErrInvalidParameter},
		action{caller: owner, msg: &DepositMsg{Amount: 100}},
		action{caller: owner, msg: &DepositMsg{Amount: math.MaxUint64}, wantErr: errors.ErrInvalidParameter},
		action{caller: owner, msg: &AddValidatorMsg{Address: val1}},
		action{caller: val1, msg: &ConfirmDeathMsg{Owner: owner}},
		// still accepted while death confirmed
		action{caller: owner, msg: &DepositMsg{Amount: 50}},
	)
	assert.Equal(t, uint64(150), l.plan(owner).EscrowedValue)

	l.run(
		action{caller: carol, msg: &DistributeMsg{Owner: owner}},
		action{caller: owner, msg: &DepositMsg{Amount: 1}, wantErr: errors.ErrInvalidState},
	)
}

func TestConfirmDeath(t *testing.T) {
	l := newLedger(t)
	l.run(
		action{caller: val1, msg: &ConfirmDeathMsg{Owner: owner}, wantErr: errors.ErrNotFound},
		action{caller: owner, msg: &CreateMsg{RequiredConfirmations: 2}},
		action{caller: owner, msg: &AddValidatorMsg{Address: val1}},
		action{caller: owner, msg: &AddValidatorMsg{Address: val2}},
		action{caller: owner, msg: &AddValidatorMsg{Address: val3}},
		action{caller: owner, msg: &AddBeneficiaryMsg{Address: alice, Share: 10000, Deposit: 90}},
		action{caller: alice, msg: &ConfirmDeathMsg{Owner: owner}, wantErr: ErrNotAuthorized},
		action{caller: owner, msg: &ConfirmDeathMsg{Owner: owner}, wantErr: ErrNotAuthorized},
		action{caller: nil, msg: &ConfirmDeathMsg{Owner: owner}, wantErr: ErrNotAuthorized},
		action{caller: val1, msg: &ConfirmDeathMsg{Owner: owner}},
	)

	// a single validator never reaches a quorum of two
	p := l.plan(owner)
	assert.Equal(t, StatusActive, p.Status)
	assert.Equal(t, uint32(1), p.ConfirmationCount)

	// confirming again is a no-op
	res, err := l.deliver(val1, &ConfirmDeathMsg{Owner: owner})
	assert.Nil(t, err)
	assert.Equal(t, "already confirmed", res.Log)
	assert.Equal(t, p, l.plan(owner))

	l.run(action{caller: val2, msg: &ConfirmDeathMsg{Owner: owner}})
	p = l.plan(owner)
	assert.Equal(t, StatusDeathConfirmed, p.Status)
	assert.Equal(t, uint32(2), p.ConfirmationCount)
	// distribution is not automatic by default
	assert.Equal(t, uint64(90), p.EscrowedValue)

	// remaining validators may still confirm
	l.run(
		action{caller: val3, msg: &ConfirmDeathMsg{Owner: owner}},
		action{caller: val2, msg: &ConfirmDeathMsg{Owner: owner}},
	)
	p = l.plan(owner)
	assert.Equal(t, StatusDeathConfirmed, p.Status)
	assert.Equal(t, uint32(3), p.ConfirmationCount)

	l.run(
		action{caller: carol, msg: &DistributeMsg{Owner: owner}},
		action{caller: val1, msg: &ConfirmDeathMsg{Owner: owner}, wantErr: errors.ErrInvalidState},
	)
}

func TestAutoDistribute(t *testing.T) {
	l := newLedger(t)
	assert.Nil(t, SaveConfiguration(l.db, Configuration{AutoDistribute: true, DefaultModel: ModelProportional}))

	l.run(
		action{caller: owner, msg: &CreateMsg{RequiredConfirmations: 1}},
		action{caller: owner, msg: &AddValidatorMsg{Address: val1}},
		action{caller: owner, msg: &AddBeneficiaryMsg{Address: alice, Share: 5000, Deposit: 1001}},
		action{caller: owner, msg: &AddBeneficiaryMsg{Address: bob, Share: 5000}},
	)
	res, err := l.deliver(val1, &ConfirmDeathMsg{Owner: owner})
	assert.Nil(t, err)
	assert.Equal(t, 2, len(res.Transfers))

	p := l.plan(owner)
	assert.Equal(t, StatusDistributed, p.Status)
	assert.Equal(t, uint64(0), p.EscrowedValue)
	assert.Equal(t, uint64(500), l.balance(alice))
	assert.Equal(t, uint64(501), l.balance(bob))

	// nothing to distribute keeps the plan waiting for a deposit
	l.run(
		action{caller: carol, msg: &CreateMsg{RequiredConfirmations: 1}},
		action{caller: carol, msg: &AddValidatorMsg{Address: val1}},
		action{caller: val1, msg: &ConfirmDeathMsg{Owner: carol}},
	)
	assert.Equal(t, StatusDeathConfirmed, l.plan(carol).Status)
	l.run(
		action{caller: carol, msg: &DepositMsg{Amount: 7}},
		action{caller: val1, msg: &DistributeMsg{Owner: carol}},
	)
	assert.Equal(t, StatusDistributed, l.plan(carol).Status)
	assert.Equal(t, uint64(7), l.balance(carol))
}

func TestDistribute(t *testing.T) {
	l := newLedger(t)
	l.run(
		action{caller: carol, msg: &DistributeMsg{Owner: owner}, wantErr: errors.ErrNotFound},
		action{caller: owner, msg: &CreateMsg{RequiredConfirmations: 1, Model: ModelProportional}},
		action{caller: owner, msg: &AddValidatorMsg{Address: val1}},
		action{caller: owner, msg: &AddBeneficiaryMsg{Address: alice, Share: 3333}},
		action{caller: owner, msg: &AddBeneficiaryMsg{Address: bob, Share: 3333}},
		action{caller: owner, msg: &AddBeneficiaryMsg{Address: carol, Share: 3334}},
		action{caller: carol, msg: &DistributeMsg{Owner: owner}, wantErr: errors.ErrInvalidState},
		action{caller: val1, msg: &ConfirmDeathMsg{Owner: owner}},
		action{caller: carol, msg: &DistributeMsg{Owner: owner}, wantErr: ErrNothingToDistribute},
		action{caller: owner, msg: &DepositMsg{Amount: 1000}},
	)

	res, err := l.deliver(carol, &DistributeMsg{Owner: owner})
	assert.Nil(t, err)
	escrow := EscrowCondition(owner).Address()
	assert.Equal(t, []bequest.Transfer{
		{From: escrow, To: alice, Amount: 333, Memo: "distribution"},
		{From: escrow, To: bob, Amount: 333, Memo: "distribution"},
		{From: escrow, To: carol, Amount: 334, Memo: "distribution"},
	}, res.Transfers)
	assert.Equal(t, uint64(333), l.balance(alice))
	assert.Equal(t, uint64(333), l.balance(bob))
	assert.Equal(t, uint64(334), l.balance(carol))

	// exactly once
	before := l.plan(owner)
	assert.Equal(t, StatusDistributed, before.Status)
	assert.Equal(t, uint64(0), before.EscrowedValue)
	l.run(action{caller: carol, msg: &DistributeMsg{Owner: owner}, wantErr: errors.ErrInvalidState})
	assert.Equal(t, before, l.plan(owner))
	assert.Equal(t, uint64(334), l.balance(carol))
}

func TestDistributeFixedAmount(t *testing.T) {
	l := newLedger(t)
	l.run(
		action{caller: owner, msg: &CreateMsg{RequiredConfirmations: 1, Model: ModelFixedAmount}},
		action{caller: owner, msg: &AddValidatorMsg{Address: val1}},
		action{caller: owner, msg: &AddBeneficiaryMsg{Address: alice, Amount: 300, Deposit: 300}},
		action{caller: owner, msg: &AddBeneficiaryMsg{Address: bob, Amount: 200, Deposit: 250}},
		action{caller: val1, msg: &ConfirmDeathMsg{Owner: owner}},
		action{caller: val1, msg: &DistributeMsg{Owner: owner}},
	)
	assert.Equal(t, uint64(300), l.balance(alice))
	assert.Equal(t, uint64(200), l.balance(bob))
	// unallocated escrow returns to the owner
	assert.Equal(t, uint64(50), l.balance(owner))
}

func TestCancel(t *testing.T) {
	l := newLedger(t)
	l.run(
		action{caller: owner, msg: &CancelMsg{}, wantErr: errors.ErrNotFound},
		action{caller: owner, msg: &CreateMsg{RequiredConfirmations: 2}},
		action{caller: owner, msg: &AddValidatorMsg{Address: val1}},
		action{caller: owner, msg: &AddValidatorMsg{Address: val2}},
		action{caller: owner, msg: &AddBeneficiaryMsg{Address: alice, Share: 10000}},
		action{caller: owner, msg: &DepositMsg{Amount: 500}},
		action{caller: val1, msg: &ConfirmDeathMsg{Owner: owner}},
	)

	res, err := l.deliver(owner, &CancelMsg{})
	assert.Nil(t, err)
	assert.Equal(t, []bequest.Transfer{
		{From: EscrowCondition(owner).Address(), To: owner, Amount: 500, Memo: "refund"},
	}, res.Transfers)
	assert.Equal(t, uint64(500), l.balance(owner))

	p := l.plan(owner)
	assert.Equal(t, StatusCancelled, p.Status)
	assert.Equal(t, uint64(0), p.EscrowedValue)
	assert.Equal(t, 0, len(p.Beneficiaries))
	assert.Equal(t, 0, len(p.Validators))

	owners, err := NewPlanBucket().OwnersForValidator(l.db, val1)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(owners))

	l.run(
		action{caller: owner, msg: &AddBeneficiaryMsg{Address: bob, Share: 1}, wantErr: errors.ErrInvalidState},
		action{caller: owner, msg: &AddValidatorMsg{Address: val3}, wantErr: errors.ErrInvalidState},
		action{caller: owner, msg: &DepositMsg{Amount: 1}, wantErr: errors.ErrInvalidState},
		action{caller: owner, msg: &CancelMsg{}, wantErr: errors.ErrInvalidState},
		action{caller: val2, msg: &ConfirmDeathMsg{Owner: owner}, wantErr: errors.ErrInvalidState},
		action{caller: val2, msg: &DistributeMsg{Owner: owner}, wantErr: errors.ErrInvalidState},
	)
	assert.Equal(t, uint64(500), l.balance(owner))
}

func TestCancelDeathConfirmed(t *testing.T) {
	l := newLedger(t)
	l.run(
		action{caller: owner, msg: &CreateMsg{RequiredConfirmations: 1}},
		action{caller: owner, msg: &AddValidatorMsg{Address: val1}},
		action{caller: owner, msg: &DepositMsg{Amount: 10}},
		action{caller: val1, msg: &ConfirmDeathMsg{Owner: owner}},
		action{caller: owner, msg: &CancelMsg{}},
		action{caller: val1, msg: &DistributeMsg{Owner: owner}, wantErr: errors.ErrInvalidState},
	)
	assert.Equal(t, uint64(10), l.balance(owner))
}

func TestFundConservation(t *testing.T) {
	l := newLedger(t)
	var deposited uint64
	deposit := func(amount uint64) action {
		deposited += amount
		return action{caller: owner, msg: &DepositMsg{Amount: amount}}
	}
	l.run(
		action{caller: owner, msg: &CreateMsg{RequiredConfirmations: 2}},
		deposit(17),
		action{caller: owner, msg: &AddValidatorMsg{Address: val1}},
		action{caller: owner, msg: &AddValidatorMsg{Address: val2}},
		action{caller: owner, msg: &AddBeneficiaryMsg{Address: alice, Share: 1}},
		action{caller: owner, msg: &AddBeneficiaryMsg{Address: bob, Share: 7}},
		deposit(999983),
		action{caller: val1, msg: &ConfirmDeathMsg{Owner: owner}},
		deposit(1),
		action{caller: val2, msg: &ConfirmDeathMsg{Owner: owner}},
		action{caller: val2, msg: &DistributeMsg{Owner: owner}},
	)
	paid := l.balance(alice) + l.balance(bob) + l.balance(owner)
	assert.Equal(t, deposited, paid)
	assert.Equal(t, uint64(0), l.plan(owner).EscrowedValue)
}

func TestUnknownMessage(t *testing.T) {
	h := CreatePlanHandler{bucket: NewPlanBucket()}
	_, err := h.Deliver(bequesttest.CallerCtx(owner), store.MemStore(), &DepositMsg{Amount: 1})
	assert.IsErr(t, errors.ErrType, err)
}
