package inheritance

import (
	"github.com/iov-one/bequest"
	"github.com/iov-one/bequest/errors"
)

const (
	pathCreate         = "inheritance/create"
	pathDeposit        = "inheritance/deposit"
	pathAddBeneficiary = "inheritance/add_beneficiary"
	pathAddValidator   = "inheritance/add_validator"
	pathCancel         = "inheritance/cancel"
	pathConfirmDeath   = "inheritance/confirm_death"
	pathDistribute     = "inheritance/distribute"
)

// CreateMsg creates a plan owned by the caller.
type CreateMsg struct {
	RequiredConfirmations uint32 `json:"required_confirmations"`
	// Model may be left unspecified to use the configured default.
	Model Model `json:"model"`
}

var _ bequest.Msg = (*CreateMsg)(nil)

// Path returns the routing path for this message.
func (CreateMsg) Path() string {
	return pathCreate
}

// Validate ensures the message is well formed.
func (m *CreateMsg) Validate() error {
	if m.RequiredConfirmations < 1 {
		return errors.Wrap(errors.ErrInvalidParameter, "required confirmations must be at least 1")
	}
	if m.Model != ModelUnspecified {
		return m.Model.Validate()
	}
	return nil
}

// DepositMsg adds value to the escrow of the caller's plan.
type DepositMsg struct {
	Amount uint64 `json:"amount"`
}

var _ bequest.Msg = (*DepositMsg)(nil)

// Path returns the routing path for this message.
func (DepositMsg) Path() string {
	return pathDeposit
}

// Validate ensures the message is well formed.
func (m *DepositMsg) Validate() error {
	if m.Amount == 0 {
		return errors.Wrap(errors.ErrInvalidParameter, "amount must be positive")
	}
	return nil
}

// AddBeneficiaryMsg registers a beneficiary on the caller's plan. Share is
// used by proportional plans, Amount by fixed amount plans. Deposit is
// optionally added to the escrow together with the registration.
type AddBeneficiaryMsg struct {
	Address bequest.Address `json:"address"`
	Share   uint32          `json:"share"`
	Amount  uint64          `json:"amount"`
	Deposit uint64          `json:"deposit"`
}

var _ bequest.Msg = (*AddBeneficiaryMsg)(nil)

// Path returns the routing path for this message.
func (AddBeneficiaryMsg) Path() string {
	return pathAddBeneficiary
}

// Validate ensures the message is well formed.
func (m *AddBeneficiaryMsg) Validate() error {
	if err := m.Address.Validate(); err != nil {
		return errors.Wrap(err, "address")
	}
	if m.Share > MaxShare {
		return errors.Wrapf(errors.ErrInvalidParameter, "share %d exceeds %d basis points", m.Share, MaxShare)
	}
	if m.Share != 0 && m.Amount != 0 {
		return errors.Wrap(errors.ErrInvalidParameter, "share and amount are mutually exclusive")
	}
	if m.Share == 0 && m.Amount == 0 {
		return errors.Wrap(errors.ErrInvalidParameter, "share or amount is required")
	}
	return nil
}

// AddValidatorMsg registers a validator on the caller's plan.
type AddValidatorMsg struct {
	Address bequest.Address `json:"address"`
}

var _ bequest.Msg = (*AddValidatorMsg)(nil)

// Path returns the routing path for this message.
func (AddValidatorMsg) Path() string {
	return pathAddValidator
}

// Validate ensures the message is well formed.
func (m *AddValidatorMsg) Validate() error {
	if err := m.Address.Validate(); err != nil {
		return errors.Wrap(err, "address")
	}
	return nil
}

// CancelMsg cancels the caller's plan and refunds its escrow.
type CancelMsg struct{}

var _ bequest.Msg = (*CancelMsg)(nil)

// Path returns the routing path for this message.
func (CancelMsg) Path() string {
	return pathCancel
}

// Validate always succeeds.
func (m *CancelMsg) Validate() error {
	return nil
}

// ConfirmDeathMsg is sent by a validator of the plan of Owner.
type ConfirmDeathMsg struct {
	Owner bequest.Address `json:"owner"`
}

var _ bequest.Msg = (*ConfirmDeathMsg)(nil)

// Path returns the routing path for this message.
func (ConfirmDeathMsg) Path() string {
	return pathConfirmDeath
}

// PlanOwner returns the owner of the plan the message acts on.
func (m *ConfirmDeathMsg) PlanOwner() bequest.Address {
	return m.Owner
}

// Validate ensures the message is well formed.
func (m *ConfirmDeathMsg) Validate() error {
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	return nil
}

// DistributeMsg distributes the escrow of a death confirmed plan. It can be
// sent by anyone.
type DistributeMsg struct {
	Owner bequest.Address `json:"owner"`
}

var _ bequest.Msg = (*DistributeMsg)(nil)

// Path returns the routing path for this message.
func (DistributeMsg) Path() string {
	return pathDistribute
}

// PlanOwner returns the owner of the plan the message acts on.
func (m *DistributeMsg) PlanOwner() bequest.Address {
	return m.Owner
}

// Validate ensures the message is well formed.
func (m *DistributeMsg) Validate() error {
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	return nil
}
