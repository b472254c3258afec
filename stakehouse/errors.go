package stakehouse

import "errors"

var (
	// ErrInsufficientBalance indicates the requester holds no tokens and cannot join.
	ErrInsufficientBalance = errors.New("stakehouse: requester balance must be positive")

	// ErrAlreadyRegistered indicates the requester is already a member.
	ErrAlreadyRegistered = errors.New("stakehouse: already registered")

	// ErrInsufficientAllowance indicates the depositor has not authorized the pool for the amount.
	ErrInsufficientAllowance = errors.New("stakehouse: insufficient allowance")

	// ErrInvalidAmount indicates a non-positive deposit or a negative distribution amount.
	ErrInvalidAmount = errors.New("stakehouse: invalid amount")

	// ErrEmptyPool indicates the pool holds nothing to distribute.
	ErrEmptyPool = errors.New("stakehouse: pool is empty")

	// ErrNoMembers indicates the registry is empty.
	ErrNoMembers = errors.New("stakehouse: no registered members")

	// ErrNoValidHolders indicates every registered member has a zero balance.
	ErrNoValidHolders = errors.New("stakehouse: no member holds a positive balance")

	// ErrPartialAirdrop indicates a payout transfer failed after earlier payouts were sent.
	ErrPartialAirdrop = errors.New("stakehouse: airdrop stopped after a failed transfer")

	// ErrBalanceOverflow indicates holder balances sum past the int64 range.
	ErrBalanceOverflow = errors.New("stakehouse: holder balance total overflows")

	// ErrNotInitialized indicates Create has not been called.
	ErrNotInitialized = errors.New("stakehouse: not initialized")

	// ErrAlreadyInitialized indicates Create was called a second time.
	ErrAlreadyInitialized = errors.New("stakehouse: already initialized")

	// ErrInvalidConfig indicates a configuration with a missing address.
	ErrInvalidConfig = errors.New("stakehouse: invalid configuration")

	// ErrInvalidRegistryData indicates the serialized registry is malformed.
	ErrInvalidRegistryData = errors.New("stakehouse: invalid registry data")

	// ErrInvalidConfigData indicates the serialized configuration is malformed.
	ErrInvalidConfigData = errors.New("stakehouse: invalid config data")

	// ErrTooManyMembers indicates the registry cannot be encoded.
	ErrTooManyMembers = errors.New("stakehouse: too many members")

	// ErrConservationViolation indicates a round paid out more than it could.
	ErrConservationViolation = errors.New("stakehouse: conservation violated")
)
