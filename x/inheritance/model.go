package inheritance

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/iov-one/bequest"
	"github.com/iov-one/bequest/errors"
	"github.com/iov-one/bequest/orm"
)

const (
	// BucketName is where we store the plans
	BucketName = "plan"

	// ValidatorIndex is the name of the index of plans by validator
	// address.
	ValidatorIndex = "validator"

	// MaxShare is the total of all shares in basis points.
	MaxShare = 10000
)

// Status is the lifecycle state of a plan.
type Status int32

const (
	StatusNone Status = iota
	StatusActive
	StatusDeathConfirmed
	StatusDistributed
	StatusCancelled
)

var statusNames = map[Status]string{
	StatusNone:           "none",
	StatusActive:         "active",
	StatusDeathConfirmed: "death_confirmed",
	StatusDistributed:    "distributed",
	StatusCancelled:      "cancelled",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}

// IsTerminal returns true for states that accept no further mutation.
func (s Status) IsTerminal() bool {
	return s == StatusDistributed || s == StatusCancelled
}

// IsLive returns true for states holding escrow that can still be acted on.
func (s Status) IsLive() bool {
	return s == StatusActive || s == StatusDeathConfirmed
}

// MarshalJSON encodes the status by name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the status name.
func (s *Status) UnmarshalJSON(raw []byte) error {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return errors.Wrap(errors.ErrInput, "status must be a string")
	}
	for st, n := range statusNames {
		if n == name {
			*s = st
			return nil
		}
	}
	return errors.Wrapf(errors.ErrInput, "unknown status %q", name)
}

// Model is the payout model of a plan. It is chosen at creation and never
// changes.
type Model int32

const (
	// ModelUnspecified means the configured default is used.
	ModelUnspecified Model = iota
	// ModelProportional pays each beneficiary a share of the escrow
	// expressed in basis points.
	ModelProportional
	// ModelFixedAmount pays each beneficiary a fixed amount and returns
	// the unallocated escrow to the owner.
	ModelFixedAmount
)

var modelNames = map[Model]string{
	ModelUnspecified:  "",
	ModelProportional: "proportional",
	ModelFixedAmount:  "fixed_amount",
}

func (m Model) String() string {
	if n, ok := modelNames[m]; ok {
		return n
	}
	return fmt.Sprintf("Model(%d)", int32(m))
}

// Validate returns an error unless this is a concrete payout model.
func (m Model) Validate() error {
	switch m {
	case ModelProportional, ModelFixedAmount:
		return nil
	default:
		return errors.Wrapf(errors.ErrInvalidParameter, "unknown payout model %d", int32(m))
	}
}

// MarshalJSON encodes the model by name.
func (m Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts the model name. An empty name is the unspecified
// model.
func (m *Model) UnmarshalJSON(raw []byte) error {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return errors.Wrap(errors.ErrInput, "model must be a string")
	}
	name = strings.ToLower(strings.TrimSpace(name))
	for md, n := range modelNames {
		if n == name {
			*m = md
			return nil
		}
	}
	return errors.Wrapf(errors.ErrInvalidParameter, "unknown payout model %q", name)
}

// Beneficiary receives a part of the escrow on distribution. Only the
// allocation field matching the plan model is used, the other must be zero.
type Beneficiary struct {
	Address bequest.Address `json:"address"`
	// Share in basis points, proportional model only.
	Share uint32 `json:"share"`
	// Amount is the fixed payout, fixed amount model only.
	Amount uint64 `json:"amount"`
}

// Validator confirms the death of the owner.
type Validator struct {
	Address      bequest.Address `json:"address"`
	HasConfirmed bool            `json:"has_confirmed"`
}

// Plan is the inheritance plan of a single owner.
type Plan struct {
	Metadata *bequest.Metadata `json:"metadata"`
	Owner    bequest.Address   `json:"owner"`
	Status   Status            `json:"status"`
	Model    Model             `json:"model"`
	// EscrowedValue is the value held by the plan, pending distribution.
	EscrowedValue         uint64 `json:"escrowed_value"`
	RequiredConfirmations uint32 `json:"required_confirmations"`
	ConfirmationCount     uint32 `json:"confirmation_count"`
	// Beneficiaries in payout order.
	Beneficiaries []Beneficiary `json:"beneficiaries"`
	// Validators in registration order.
	Validators []Validator `json:"validators"`
	// EscrowAddress is the account the escrow is accounted to.
	EscrowAddress bequest.Address `json:"escrow_address"`
}

var _ orm.Model = (*Plan)(nil)

// NewPlan returns an active plan without escrow and participants.
func NewPlan(owner bequest.Address, required uint32, model Model) *Plan {
	return &Plan{
		Metadata:              &bequest.Metadata{Schema: 1},
		Owner:                 owner,
		Status:                StatusActive,
		Model:                 model,
		RequiredConfirmations: required,
		EscrowAddress:         EscrowCondition(owner).Address(),
	}
}

// EscrowCondition returns the condition controlling the escrow of the plan
// of given owner.
func EscrowCondition(owner bequest.Address) bequest.Condition {
	return bequest.NewCondition("inheritance", "plan", owner)
}

// Validate ensures all plan invariants hold.
func (p *Plan) Validate() error {
	if err := p.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := p.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if err := p.EscrowAddress.Validate(); err != nil {
		return errors.Wrap(err, "escrow address")
	}
	switch p.Status {
	case StatusActive, StatusDeathConfirmed, StatusDistributed, StatusCancelled:
	default:
		return errors.Wrapf(errors.ErrModel, "invalid status %s", p.Status)
	}
	if err := p.Model.Validate(); err != nil {
		return errors.Wrap(err, "model")
	}
	if p.RequiredConfirmations < 1 {
		return errors.Wrap(errors.ErrModel, "required confirmations must be positive")
	}

	var confirmed uint32
	for i, v := range p.Validators {
		if err := v.Address.Validate(); err != nil {
			return errors.Wrapf(err, "validator %d", i)
		}
		if v.HasConfirmed {
			confirmed++
		}
	}
	if confirmed != p.ConfirmationCount {
		return errors.Wrapf(errors.ErrModel, "confirmation count %d, want %d", p.ConfirmationCount, confirmed)
	}
	if p.Status == StatusDeathConfirmed && p.ConfirmationCount < p.RequiredConfirmations {
		return errors.Wrap(errors.ErrModel, "death confirmed without quorum")
	}

	for i, b := range p.Beneficiaries {
		if err := b.Address.Validate(); err != nil {
			return errors.Wrapf(err, "beneficiary %d", i)
		}
		switch p.Model {
		case ModelProportional:
			if b.Amount != 0 {
				return errors.Wrapf(errors.ErrModel, "beneficiary %d: amount in proportional plan", i)
			}
			if b.Share == 0 {
				return errors.Wrapf(errors.ErrModel, "beneficiary %d: zero share", i)
			}
		case ModelFixedAmount:
			if b.Share != 0 {
				return errors.Wrapf(errors.ErrModel, "beneficiary %d: share in fixed amount plan", i)
			}
			if b.Amount == 0 {
				return errors.Wrapf(errors.ErrModel, "beneficiary %d: zero amount", i)
			}
		}
	}
	if err := p.checkParticipants(); err != nil {
		return err
	}
	if err := p.checkAllocation(p.EscrowedValue); err != nil {
		return err
	}

	if p.Status.IsTerminal() && p.EscrowedValue != 0 {
		return errors.Wrapf(errors.ErrModel, "%s plan holds escrow", p.Status)
	}
	if p.Status == StatusCancelled && (len(p.Beneficiaries) != 0 || len(p.Validators) != 0) {
		return errors.Wrap(errors.ErrModel, "cancelled plan holds participants")
	}
	return nil
}

// checkParticipants ensures that no address holds more than one role.
func (p *Plan) checkParticipants() error {
	seen := make(map[string]struct{}, len(p.Beneficiaries)+len(p.Validators)+1)
	seen[string(p.Owner)] = struct{}{}
	add := func(a bequest.Address) error {
		if a.Equals(p.Owner) {
			return errors.Wrapf(ErrSelfReference, "%s", a)
		}
		if _, ok := seen[string(a)]; ok {
			return errors.Wrapf(ErrDuplicateParticipant, "%s", a)
		}
		seen[string(a)] = struct{}{}
		return nil
	}
	for _, b := range p.Beneficiaries {
		if err := add(b.Address); err != nil {
			return err
		}
	}
	for _, v := range p.Validators {
		if err := add(v.Address); err != nil {
			return err
		}
	}
	return nil
}

// checkAllocation ensures beneficiary allocations fit the plan. In the
// fixed amount model the allocations must be covered by escrow, this is
// only required while the plan is live.
func (p *Plan) checkAllocation(escrow uint64) error {
	switch p.Model {
	case ModelProportional:
		if total := p.TotalShares(); total > MaxShare {
			return errors.Wrapf(ErrAllocationExceeded, "shares sum to %d", total)
		}
	case ModelFixedAmount:
		if !p.Status.IsLive() {
			return nil
		}
		total, ok := p.TotalAmounts()
		if !ok || total > escrow {
			return errors.Wrapf(ErrAllocationExceeded, "amounts exceed escrow of %d", escrow)
		}
	}
	return nil
}

// TotalShares returns the sum of all beneficiary shares.
func (p *Plan) TotalShares() uint64 {
	var total uint64
	for _, b := range p.Beneficiaries {
		total += uint64(b.Share)
	}
	return total
}

// TotalAmounts returns the sum of all fixed beneficiary amounts. False is
// returned if the sum does not fit in uint64.
func (p *Plan) TotalAmounts() (uint64, bool) {
	var total uint64
	for _, b := range p.Beneficiaries {
		if total > math.MaxUint64-b.Amount {
			return 0, false
		}
		total += b.Amount
	}
	return total, true
}

// HasParticipant returns true if the address is a beneficiary or a
// validator of this plan.
func (p *Plan) HasParticipant(a bequest.Address) bool {
	for _, b := range p.Beneficiaries {
		if b.Address.Equals(a) {
			return true
		}
	}
	return p.ValidatorPosition(a) >= 0
}

// ValidatorPosition returns the registration index of the validator or -1.
func (p *Plan) ValidatorPosition(a bequest.Address) int {
	for i, v := range p.Validators {
		if v.Address.Equals(a) {
			return i
		}
	}
	return -1
}

// QuorumReached returns true when enough distinct validators confirmed.
func (p *Plan) QuorumReached() bool {
	return p.ConfirmationCount >= p.RequiredConfirmations
}

// Copy returns a deep copy of the plan.
func (p *Plan) Copy() *Plan {
	cpy := *p
	cpy.Metadata = p.Metadata.Copy()
	cpy.Owner = p.Owner.Clone()
	cpy.EscrowAddress = p.EscrowAddress.Clone()
	if p.Beneficiaries != nil {
		cpy.Beneficiaries = make([]Beneficiary, len(p.Beneficiaries))
		for i, b := range p.Beneficiaries {
			cpy.Beneficiaries[i] = Beneficiary{Address: b.Address.Clone(), Share: b.Share, Amount: b.Amount}
		}
	}
	if p.Validators != nil {
		cpy.Validators = make([]Validator, len(p.Validators))
		for i, v := range p.Validators {
			cpy.Validators[i] = Validator{Address: v.Address.Clone(), HasConfirmed: v.HasConfirmed}
		}
	}
	return &cpy
}

// Marshal serializes the plan.
func (p *Plan) Marshal() ([]byte, error) {
	return orm.MarshalBinary(p)
}

// Unmarshal loads the plan from its serialized form.
func (p *Plan) Unmarshal(raw []byte) error {
	return orm.UnmarshalBinary(raw, p)
}

// PlanBucket is a type-safe wrapper around orm.Bucket
type PlanBucket struct {
	orm.Bucket
}

// NewPlanBucket initializes a PlanBucket with default name and the index of
// plans by validator address.
func NewPlanBucket() PlanBucket {
	b := orm.NewBucket(BucketName, orm.NewSimpleObj(nil, new(Plan))).
		WithMultiKeyIndex(ValidatorIndex, validatorIndexer)
	return PlanBucket{Bucket: b}
}

func validatorIndexer(obj orm.Object) ([][]byte, error) {
	p, err := asPlan(obj)
	if err != nil {
		return nil, err
	}
	keys := make([][]byte, 0, len(p.Validators))
	for _, v := range p.Validators {
		keys = append(keys, v.Address)
	}
	return keys, nil
}

// GetPlan returns the plan of given owner or nil if there is none.
func (b PlanBucket) GetPlan(db bequest.ReadOnlyKVStore, owner bequest.Address) (*Plan, error) {
	obj, err := b.Get(db, owner)
	if err != nil || obj == nil {
		return nil, err
	}
	return asPlan(obj)
}

// SavePlan writes the plan under its owner key.
func (b PlanBucket) SavePlan(db bequest.KVStore, p *Plan) error {
	return b.Save(db, orm.NewSimpleObj(p.Owner, p))
}

// OwnersForValidator returns the owners of all plans having the address
// registered as a validator.
func (b PlanBucket) OwnersForValidator(db bequest.ReadOnlyKVStore, validator bequest.Address) ([]bequest.Address, error) {
	keys, err := b.IndexKeys(db, ValidatorIndex, validator)
	if err != nil {
		return nil, err
	}
	res := make([]bequest.Address, len(keys))
	for i, k := range keys {
		res[i] = bequest.Address(k)
	}
	return res, nil
}

func asPlan(obj orm.Object) (*Plan, error) {
	p, ok := obj.Value().(*Plan)
	if !ok {
		return nil, errors.Wrapf(errors.ErrModel, "invalid type: %T", obj.Value())
	}
	return p, nil
}
