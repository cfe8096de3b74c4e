package inheritance

import (
	"fmt"
	"math"

	"github.com/iov-one/bequest"
	"github.com/iov-one/bequest/errors"
	"github.com/iov-one/bequest/x/cash"
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r bequest.Registry, cashctrl cash.Controller) {
	bucket := NewPlanBucket()

	r.Handle(&CreateMsg{}, CreatePlanHandler{bucket: bucket})
	r.Handle(&DepositMsg{}, DepositHandler{bucket: bucket})
	r.Handle(&AddBeneficiaryMsg{}, AddBeneficiaryHandler{bucket: bucket})
	r.Handle(&AddValidatorMsg{}, AddValidatorHandler{bucket: bucket})
	r.Handle(&CancelMsg{}, CancelPlanHandler{bucket: bucket, bank: cashctrl})
	r.Handle(&ConfirmDeathMsg{}, ConfirmDeathHandler{bucket: bucket, bank: cashctrl})
	r.Handle(&DistributeMsg{}, DistributeHandler{bucket: bucket, bank: cashctrl})
}

// CreatePlanHandler creates a plan owned by the caller.
type CreatePlanHandler struct {
	bucket PlanBucket
}

var _ bequest.Handler = CreatePlanHandler{}

// Deliver stores a new active plan. A distributed or cancelled plan of the
// same owner is replaced.
func (h CreatePlanHandler) Deliver(ctx bequest.Context, db bequest.KVStore, msg bequest.Msg) (*bequest.DeliverResult, error) {
	m, ok := msg.(*CreateMsg)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", msg)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	owner, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}

	prev, err := h.bucket.GetPlan(db, owner)
	if err != nil {
		return nil, errors.Wrap(err, "cannot load plan")
	}
	if prev != nil && prev.Status.IsLive() {
		return nil, errors.Wrapf(errors.ErrAlreadyExists, "%s plan of %s", prev.Status, owner)
	}

	model := m.Model
	if model == ModelUnspecified {
		conf, err := loadConf(db)
		if err != nil {
			return nil, err
		}
		model = conf.DefaultModel
	}

	plan := NewPlan(owner, m.RequiredConfirmations, model)
	if err := h.bucket.SavePlan(db, plan); err != nil {
		return nil, errors.Wrap(err, "cannot store plan")
	}
	return &bequest.DeliverResult{
		Data: plan.Owner,
		Log:  fmt.Sprintf("plan created, quorum %d, %s model", plan.RequiredConfirmations, plan.Model),
	}, nil
}

// DepositHandler adds value to the escrow of the caller's plan.
type DepositHandler struct {
	bucket PlanBucket
}

var _ bequest.Handler = DepositHandler{}

// Deliver increases the escrow of an active or death confirmed plan.
func (h DepositHandler) Deliver(ctx bequest.Context, db bequest.KVStore, msg bequest.Msg) (*bequest.DeliverResult, error) {
	m, ok := msg.(*DepositMsg)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", msg)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	owner, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := loadPlan(db, h.bucket, owner)
	if err != nil {
		return nil, err
	}
	if !plan.Status.IsLive() {
		return nil, errors.Wrapf(errors.ErrInvalidState, "cannot deposit to %s plan", plan.Status)
	}
	if err := addEscrow(plan, m.Amount); err != nil {
		return nil, err
	}
	if err := h.bucket.SavePlan(db, plan); err != nil {
		return nil, errors.Wrap(err, "cannot store plan")
	}
	return &bequest.DeliverResult{
		Data: plan.Owner,
		Log:  fmt.Sprintf("deposited %d, escrow %d", m.Amount, plan.EscrowedValue),
	}, nil
}

// AddBeneficiaryHandler registers a beneficiary on the caller's plan.
type AddBeneficiaryHandler struct {
	bucket PlanBucket
}

var _ bequest.Handler = AddBeneficiaryHandler{}

// Deliver appends the beneficiary and adds the accompanying deposit to the
// escrow in a single step.
func (h AddBeneficiaryHandler) Deliver(ctx bequest.Context, db bequest.KVStore, msg bequest.Msg) (*bequest.DeliverResult, error) {
	m, ok := msg.(*AddBeneficiaryMsg)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", msg)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	owner, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := loadPlan(db, h.bucket, owner)
	if err != nil {
		return nil, err
	}
	if plan.Status != StatusActive {
		return nil, errors.Wrapf(errors.ErrInvalidState, "cannot add beneficiary to %s plan", plan.Status)
	}
	if err := checkNewParticipant(plan, m.Address); err != nil {
		return nil, err
	}

	switch plan.Model {
	case ModelProportional:
		if m.Amount != 0 {
			return nil, errors.Wrap(errors.ErrInvalidParameter, "proportional plan requires a share, not an amount")
		}
	case ModelFixedAmount:
		if m.Share != 0 {
			return nil, errors.Wrap(errors.ErrInvalidParameter, "fixed amount plan requires an amount, not a share")
		}
	}
	if m.Deposit > 0 {
		if err := addEscrow(plan, m.Deposit); err != nil {
			return nil, err
		}
	}

	plan.Beneficiaries = append(plan.Beneficiaries, Beneficiary{
		Address: m.Address,
		Share:   m.Share,
		Amount:  m.Amount,
	})
	if err := plan.checkAllocation(plan.EscrowedValue); err != nil {
		return nil, err
	}
	if err := h.bucket.SavePlan(db, plan); err != nil {
		return nil, errors.Wrap(err, "cannot store plan")
	}
	return &bequest.DeliverResult{
		Data: plan.Owner,
		Log:  fmt.Sprintf("beneficiary %s added at position %d", m.Address, len(plan.Beneficiaries)-1),
	}, nil
}

// AddValidatorHandler registers a validator on the caller's plan.
type AddValidatorHandler struct {
	bucket PlanBucket
}

var _ bequest.Handler = AddValidatorHandler{}

// Deliver appends the validator. The required number of confirmations is
// not changed.
func (h AddValidatorHandler) Deliver(ctx bequest.Context, db bequest.KVStore, msg bequest.Msg) (*bequest.DeliverResult, error) {
	m, ok := msg.(*AddValidatorMsg)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", msg)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	owner, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := loadPlan(db, h.bucket, owner)
	if err != nil {
		return nil, err
	}
	if plan.Status != StatusActive {
		return nil, errors.Wrapf(errors.ErrInvalidState, "cannot add validator to %s plan", plan.Status)
	}
	if err := checkNewParticipant(plan, m.Address); err != nil {
		return nil, err
	}

	plan.Validators = append(plan.Validators, Validator{Address: m.Address})
	if err := h.bucket.SavePlan(db, plan); err != nil {
		return nil, errors.Wrap(err, "cannot store plan")
	}
	return &bequest.DeliverResult{
		Data: plan.Owner,
		Log:  fmt.Sprintf("validator %s added at position %d", m.Address, len(plan.Validators)-1),
	}, nil
}

// CancelPlanHandler cancels the caller's plan.
type CancelPlanHandler struct {
	bucket PlanBucket
	bank   cash.Controller
}

var _ bequest.Handler = CancelPlanHandler{}

// Deliver refunds the whole escrow to the owner and clears all
// participants.
func (h CancelPlanHandler) Deliver(ctx bequest.Context, db bequest.KVStore, msg bequest.Msg) (*bequest.DeliverResult, error) {
	m, ok := msg.(*CancelMsg)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", msg)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	owner, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := loadPlan(db, h.bucket, owner)
	if err != nil {
		return nil, err
	}
	if !plan.Status.IsLive() {
		return nil, errors.Wrapf(errors.ErrInvalidState, "cannot cancel %s plan", plan.Status)
	}

	refund := plan.EscrowedValue
	var transfers []bequest.Transfer
	if refund > 0 {
		if err := h.bank.Credit(db, plan.Owner, plan.Owner, refund); err != nil {
			return nil, errors.Wrap(err, "refund")
		}
		transfers = append(transfers, bequest.Transfer{
			From:   plan.EscrowAddress,
			To:     plan.Owner,
			Amount: refund,
			Memo:   "refund",
		})
	}

	plan.EscrowedValue = 0
	plan.Status = StatusCancelled
	plan.Beneficiaries = nil
	plan.Validators = nil
	plan.ConfirmationCount = 0
	if err := h.bucket.SavePlan(db, plan); err != nil {
		return nil, errors.Wrap(err, "cannot store plan")
	}
	return &bequest.DeliverResult{
		Data:      plan.Owner,
		Log:       fmt.Sprintf("plan cancelled, refunded %d", refund),
		Transfers: transfers,
	}, nil
}

// ConfirmDeathHandler records the confirmation of a validator.
type ConfirmDeathHandler struct {
	bucket PlanBucket
	bank   cash.Controller
}

var _ bequest.Handler = ConfirmDeathHandler{}

// Deliver marks the caller as confirmed. The confirmation that reaches the
// quorum moves the plan to the death confirmed state and, if configured,
// distributes the escrow. Confirming twice is a successful no-op.
func (h ConfirmDeathHandler) Deliver(ctx bequest.Context, db bequest.KVStore, msg bequest.Msg) (*bequest.DeliverResult, error) {
	m, ok := msg.(*ConfirmDeathMsg)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", msg)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	caller, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := loadPlan(db, h.bucket, m.Owner)
	if err != nil {
		return nil, err
	}
	// Checked before the registration, a cancelled plan has no validators
	// left.
	if !plan.Status.IsLive() {
		return nil, errors.Wrapf(errors.ErrInvalidState, "cannot confirm %s plan", plan.Status)
	}
	pos := plan.ValidatorPosition(caller)
	if pos < 0 {
		return nil, errors.Wrapf(ErrNotAuthorized, "%s is not a validator of the plan", caller)
	}
	if plan.Validators[pos].HasConfirmed {
		return &bequest.DeliverResult{
			Data: plan.Owner,
			Log:  "already confirmed",
		}, nil
	}

	plan.Validators[pos].HasConfirmed = true
	plan.ConfirmationCount++

	res := &bequest.DeliverResult{
		Data: plan.Owner,
		Log:  fmt.Sprintf("confirmation %d of %d", plan.ConfirmationCount, plan.RequiredConfirmations),
	}
	if plan.Status == StatusActive && plan.QuorumReached() {
		plan.Status = StatusDeathConfirmed
		res.Log += ", death confirmed"
		bequest.GetLogger(ctx).Debug("quorum reached", "owner", plan.Owner)

		conf, err := loadConf(db)
		if err != nil {
			return nil, err
		}
		if conf.AutoDistribute && plan.EscrowedValue > 0 {
			transfers, err := distribute(db, h.bank, plan)
			if err != nil {
				return nil, err
			}
			res.Transfers = transfers
			res.Log += ", distributed"
		}
	}

	if err := h.bucket.SavePlan(db, plan); err != nil {
		return nil, errors.Wrap(err, "cannot store plan")
	}
	return res, nil
}

// DistributeHandler pays out the escrow of a death confirmed plan.
type DistributeHandler struct {
	bucket PlanBucket
	bank   cash.Controller
}

var _ bequest.Handler = DistributeHandler{}

// Deliver distributes the escrow. It can be called by anyone, but succeeds
// only once per plan.
func (h DistributeHandler) Deliver(ctx bequest.Context, db bequest.KVStore, msg bequest.Msg) (*bequest.DeliverResult, error) {
	m, ok := msg.(*DistributeMsg)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", msg)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	plan, err := loadPlan(db, h.bucket, m.Owner)
	if err != nil {
		return nil, err
	}
	if plan.Status != StatusDeathConfirmed {
		return nil, errors.Wrapf(errors.ErrInvalidState, "cannot distribute %s plan", plan.Status)
	}
	if plan.EscrowedValue == 0 {
		return nil, errors.Wrap(ErrNothingToDistribute, "escrow is empty")
	}

	escrow := plan.EscrowedValue
	transfers, err := distribute(db, h.bank, plan)
	if err != nil {
		return nil, err
	}
	if err := h.bucket.SavePlan(db, plan); err != nil {
		return nil, errors.Wrap(err, "cannot store plan")
	}
	return &bequest.DeliverResult{
		Data:      plan.Owner,
		Log:       fmt.Sprintf("distributed %d in %d payouts", escrow, len(transfers)),
		Transfers: transfers,
	}, nil
}

// distribute credits all payouts of the plan and marks it distributed. The
// caller is responsible for saving the plan.
func distribute(db bequest.KVStore, bank cash.Controller, plan *Plan) ([]bequest.Transfer, error) {
	payouts, err := ComputePayouts(plan)
	if err != nil {
		return nil, err
	}
	transfers := make([]bequest.Transfer, 0, len(payouts))
	for _, p := range payouts {
		if err := bank.Credit(db, plan.Owner, p.To, p.Amount); err != nil {
			return nil, errors.Wrapf(err, "payout to %s", p.To)
		}
		transfers = append(transfers, bequest.Transfer{
			From:   plan.EscrowAddress,
			To:     p.To,
			Amount: p.Amount,
			Memo:   "distribution",
		})
	}
	plan.EscrowedValue = 0
	plan.Status = StatusDistributed
	return transfers, nil
}

// callerOf returns the account the operation is attributed to.
func callerOf(ctx bequest.Context) (bequest.Address, error) {
	caller, ok := bequest.GetCaller(ctx)
	if !ok {
		return nil, errors.Wrap(ErrNotAuthorized, "no caller")
	}
	return caller, nil
}

// loadPlan returns the plan of the owner or ErrNotFound.
func loadPlan(db bequest.ReadOnlyKVStore, bucket PlanBucket, owner bequest.Address) (*Plan, error) {
	plan, err := bucket.GetPlan(db, owner)
	if err != nil {
		return nil, errors.Wrap(err, "cannot load plan")
	}
	if plan == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "plan of %s", owner)
	}
	return plan, nil
}

// checkNewParticipant ensures the address can join the plan.
func checkNewParticipant(plan *Plan, a bequest.Address) error {
	if a.Equals(plan.Owner) {
		return errors.Wrap(ErrSelfReference, "owner cannot be a participant of its own plan")
	}
	if plan.HasParticipant(a) {
		return errors.Wrapf(ErrDuplicateParticipant, "%s", a)
	}
	return nil
}

func addEscrow(plan *Plan, amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrInvalidParameter, "amount must be positive")
	}
	if plan.EscrowedValue > math.MaxUint64-amount {
		return errors.Wrap(errors.ErrInvalidParameter, "escrow overflow")
	}
	plan.EscrowedValue += amount
	return nil
}
