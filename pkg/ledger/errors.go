package ledger

import "errors"

// RevertError is returned when a call is rejected by the token rules. Reason is the revert
// string the token contract would report.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	return e.Reason
}

func (e *RevertError) Is(target error) bool {
	t, ok := target.(*RevertError)
	return ok && t.Reason == e.Reason
}

func revert(reason string) *RevertError {
	return &RevertError{Reason: reason}
}

var ErrNotInitialized = errors.New("ledger: token is not initialized")

var (
	ErrAlreadyInitialized = revert("Initializable: contract is already initialized")

	ErrTransferFromZeroAddress  = revert("ERC20: transfer from the zero address")
	ErrTransferToZeroAddress    = revert("ERC20: transfer to the zero address")
	ErrTransferExceedsBalance   = revert("ERC20: transfer amount exceeds balance")
	ErrTransferExceedsAllowance = revert("ERC20: transfer amount exceeds allowance")
	ErrApproveFromZeroAddress   = revert("ERC20: approve from the zero address")
	ErrApproveToZeroAddress     = revert("ERC20: approve to the zero address")
	ErrDecreasedBelowZero       = revert("ERC20: decreased allowance below zero")
	ErrMintToZeroAddress        = revert("ERC20: mint to the zero address")
	ErrBurnFromZeroAddress      = revert("ERC20: burn from the zero address")
	ErrBurnExceedsBalance       = revert("ERC20: burn amount exceeds balance")
	ErrAdditionOverflow         = revert("SafeMath: addition overflow")

	ErrNotOwner            = revert("Ownable: caller is not the owner")
	ErrNewOwnerZeroAddress = revert("Ownable: new owner is the zero address")

	ErrNotMinter          = revert("MinterRole: caller does not have the Minter role")
	ErrAlreadyHasRole     = revert("Roles: account already has role")
	ErrDoesNotHaveRole    = revert("Roles: account does not have role")
	ErrRoleForZeroAddress = revert("Roles: account is the zero address")

	ErrStakeExists           = revert("Stake: stake exists")
	ErrStakeExceedsBalance   = revert("Stake: amount exceeds balance")
	ErrStakeAmountZero       = revert("Stake: amount is zero")
	ErrNoStake               = revert("Stake: no stake")
	ErrStakeAlreadyCancelled = revert("Stake: stake already cancelled")
	ErrStakeNotCancelled     = revert("Stake: stake not cancelled")
	ErrStakeOnHold           = revert("Stake: stake on hold")
)

var (
	ErrNegativeAmount      = errors.New("ledger: amount is negative")
	ErrInvalidAnnualPeriod = errors.New("ledger: annual period must be greater than zero")
	ErrPeriodOutOfRange    = errors.New("ledger: period does not fit a signed 64 bit integer")
	ErrClockNotSet         = errors.New("ledger: clock reports time zero")
)
