package inheritance

import (
	"github.com/iov-one/bequest"
	"github.com/iov-one/bequest/errors"
)

// PlanStatus is the summary of a plan shown to the owner and validators.
type PlanStatus struct {
	Owner                 bequest.Address `json:"owner"`
	Status                Status          `json:"status"`
	Model                 Model           `json:"model"`
	EscrowedValue         uint64          `json:"escrowed_value"`
	ConfirmationCount     uint32          `json:"confirmation_count"`
	RequiredConfirmations uint32          `json:"required_confirmations"`
}

// ValidatorAssignment describes the participation of a validator in a
// single plan.
type ValidatorAssignment struct {
	Owner                 bequest.Address `json:"owner"`
	Status                Status          `json:"status"`
	HasConfirmed          bool            `json:"has_confirmed"`
	ConfirmationCount     uint32          `json:"confirmation_count"`
	RequiredConfirmations uint32          `json:"required_confirmations"`
}

// Querier serves read only queries. It never modifies the store.
type Querier struct {
	bucket PlanBucket
}

// NewQuerier returns a querier using the default plan bucket.
func NewQuerier() Querier {
	return Querier{bucket: NewPlanBucket()}
}

// PlanStatus returns the summary of the owner's plan. An owner without a
// plan has the status None.
func (q Querier) PlanStatus(db bequest.ReadOnlyKVStore, owner bequest.Address) (*PlanStatus, error) {
	if err := owner.Validate(); err != nil {
		return nil, errors.Wrap(err, "owner")
	}
	plan, err := q.bucket.GetPlan(db, owner)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return &PlanStatus{Owner: owner, Status: StatusNone}, nil
	}
	return &PlanStatus{
		Owner:                 plan.Owner,
		Status:                plan.Status,
		Model:                 plan.Model,
		EscrowedValue:         plan.EscrowedValue,
		ConfirmationCount:     plan.ConfirmationCount,
		RequiredConfirmations: plan.RequiredConfirmations,
	}, nil
}

// Plan returns the full plan of the owner or ErrNotFound.
func (q Querier) Plan(db bequest.ReadOnlyKVStore, owner bequest.Address) (*Plan, error) {
	if err := owner.Validate(); err != nil {
		return nil, errors.Wrap(err, "owner")
	}
	return loadPlan(db, q.bucket, owner)
}

// Beneficiaries returns the beneficiaries in payout order. The list is
// empty for an unknown or cancelled plan.
func (q Querier) Beneficiaries(db bequest.ReadOnlyKVStore, owner bequest.Address) ([]Beneficiary, error) {
	plan, err := q.optionalPlan(db, owner)
	if err != nil || plan == nil {
		return []Beneficiary{}, err
	}
	res := make([]Beneficiary, len(plan.Beneficiaries))
	copy(res, plan.Beneficiaries)
	return res, nil
}

// Beneficiary returns the beneficiary at given position.
func (q Querier) Beneficiary(db bequest.ReadOnlyKVStore, owner bequest.Address, index int) (*Beneficiary, error) {
	list, err := q.Beneficiaries(db, owner)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(list) {
		return nil, errors.Wrapf(errors.ErrNotFound, "beneficiary %d of %d", index, len(list))
	}
	return &list[index], nil
}

// Validators returns the validators in registration order together with
// their confirmation flags. The list is empty for an unknown or cancelled
// plan.
func (q Querier) Validators(db bequest.ReadOnlyKVStore, owner bequest.Address) ([]Validator, error) {
	plan, err := q.optionalPlan(db, owner)
	if err != nil || plan == nil {
		return []Validator{}, err
	}
	res := make([]Validator, len(plan.Validators))
	copy(res, plan.Validators)
	return res, nil
}

// ValidatorIndex returns the registration position of the validator in the
// owner's plan or ErrNotFound.
func (q Querier) ValidatorIndex(db bequest.ReadOnlyKVStore, owner, validator bequest.Address) (int, error) {
	plan, err := q.optionalPlan(db, owner)
	if err != nil {
		return -1, err
	}
	if plan != nil {
		if pos := plan.ValidatorPosition(validator); pos >= 0 {
			return pos, nil
		}
	}
	return -1, errors.Wrapf(errors.ErrNotFound, "validator %s", validator)
}

// PlansForValidator returns the owners of all plans the address validates.
func (q Querier) PlansForValidator(db bequest.ReadOnlyKVStore, validator bequest.Address) ([]bequest.Address, error) {
	if err := validator.Validate(); err != nil {
		return nil, errors.Wrap(err, "validator")
	}
	owners, err := q.bucket.OwnersForValidator(db, validator)
	if err != nil {
		return nil, err
	}
	if owners == nil {
		owners = []bequest.Address{}
	}
	return owners, nil
}

// ValidatorAssignments returns a dashboard row for every plan the address
// validates.
func (q Querier) ValidatorAssignments(db bequest.ReadOnlyKVStore, validator bequest.Address) ([]ValidatorAssignment, error) {
	owners, err := q.PlansForValidator(db, validator)
	if err != nil {
		return nil, err
	}
	res := make([]ValidatorAssignment, 0, len(owners))
	for _, owner := range owners {
		plan, err := loadPlan(db, q.bucket, owner)
		if err != nil {
			return nil, err
		}
		pos := plan.ValidatorPosition(validator)
		if pos < 0 {
			return nil, errors.Wrapf(errors.ErrDatabase, "stale validator index for %s", owner)
		}
		res = append(res, ValidatorAssignment{
			Owner:                 plan.Owner,
			Status:                plan.Status,
			HasConfirmed:          plan.Validators[pos].HasConfirmed,
			ConfirmationCount:     plan.ConfirmationCount,
			RequiredConfirmations: plan.RequiredConfirmations,
		})
	}
	return res, nil
}

func (q Querier) optionalPlan(db bequest.ReadOnlyKVStore, owner bequest.Address) (*Plan, error) {
	if err := owner.Validate(); err != nil {
		return nil, errors.Wrap(err, "owner")
	}
	return q.bucket.GetPlan(db, owner)
}
