package governance

import "errors"

var (
	// ErrValidation indicates malformed proposal parameters.
	ErrValidation = errors.New("invalid proposal parameters")

	// ErrProposalNotFound indicates the proposal was not found.
	ErrProposalNotFound = errors.New("proposal not found")

	// ErrVotingWindow indicates a vote outside the voting window.
	ErrVotingWindow = errors.New("outside voting window")

	// ErrDuplicateVote indicates the address already voted on this proposal.
	ErrDuplicateVote = errors.New("already voted")

	// ErrIneligibleVoter indicates the voter does not meet the balance
	// requirement for this proposal (treasury holding or voting fee).
	ErrIneligibleVoter = errors.New("voter not eligible")

	// ErrZeroWeight indicates the computed vote weight is zero.
	ErrZeroWeight = errors.New("vote weight is zero")

	// ErrTimelockNotElapsed indicates execution before the timelock expired.
	ErrTimelockNotElapsed = errors.New("timelock not elapsed")

	// ErrAlreadyExecuted indicates the proposal was already finalized.
	ErrAlreadyExecuted = errors.New("proposal already executed")

	// ErrQuorumNotMet indicates a failed quorum, approval or unique
	// voter gate.
	ErrQuorumNotMet = errors.New("quorum not met")

	// ErrInsufficientFunds indicates the requested amount exceeds the
	// available allocation.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUnauthorized indicates a developer-only operation called by
	// another address.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPaused indicates the system is paused.
	ErrPaused = errors.New("system paused")

	// ErrNotPaused indicates a forced unpause while the system is running.
	ErrNotPaused = errors.New("system not paused")

	// ErrForcedUnpauseUnavailable indicates a forced unpause before
	// seven continuous paused days have passed.
	ErrForcedUnpauseUnavailable = errors.New("forced unpause not yet available")

	// ErrWithdrawalWindowActive indicates a sweep attempt while the
	// developer grace period has not yet expired.
	ErrWithdrawalWindowActive = errors.New("withdrawal window still active")

	// ErrWithdrawalNotOpen indicates a withdrawal before the first
	// window opens.
	ErrWithdrawalNotOpen = errors.New("withdrawal window not open")

	// ErrNothingToBurn indicates a due annual burn computed to zero.
	ErrNothingToBurn = errors.New("nothing to burn")
)
