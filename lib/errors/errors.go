package errors

var (
	ConfigurationError    = NewError(100, "required configuration is missing or invalid")
	NotFoundError         = NewError(101, "not found")
	TallyMismatchError    = NewError(102, "calculated votes do not add up to the proposal score")
	ShareSumMismatchError = NewError(103, "vote shares do not add up to 1")
	TransientNetworkError = NewError(104, "network request failed")
	InvalidBallotError    = NewError(105, "ballot references an unknown choice")
	BudgetMismatchError   = NewError(106, "allocated amounts do not add up to the budget")
	InvalidInputError     = NewError(107, "invalid input")
)
