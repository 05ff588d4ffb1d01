package ledger

import "errors"

// Kind classifies a business-rule failure.
type Kind int

const (
	// KindBadRequest means the input was missing or malformed.
	KindBadRequest Kind = iota + 1
	// KindNotFound means a referenced record does not exist.
	KindNotFound
	// KindConflict means the request clashes with existing state.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is a failure the caller can act on. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// IsKind reports whether err is a ledger Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var lerr *Error
	return errors.As(err, &lerr) && lerr.Kind == kind
}

func badRequest(msg string) error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

func notFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

const (
	msgUserNotFound        = "User not found"
	msgAccountNotFound     = "Account not found"
	msgTransactionNotFound = "Transaction not found"

	msgUserFieldsRequired        = "Email and password are required"
	msgUserExists                = "User with this email already exists"
	msgEmailTaken                = "Email already taken"
	msgEmailEmpty                = "Email must not be empty"
	msgPasswordEmpty             = "Password must not be empty"
	msgUserHasAccounts           = "User has accounts; delete them first"
	msgAccountFieldsRequired     = "userId and name are required"
	msgNameEmpty                 = "Name must not be empty"
	msgInvalidBalance            = "Balance must be a valid number"
	msgBalanceOutOfRange         = "Balance is out of range"
	msgAccountHasTransactions    = "Account has transactions; delete them first"
	msgTransactionFieldsRequired = "accountId, amount, and type are required"
	msgInvalidType               = `Type must be either "income" or "expense"`
	msgInvalidAmount             = "Amount must be a valid number"
	msgAmountNotPositive         = "Amount must be greater than zero"
	msgAmountOutOfRange          = "Amount is out of range"
	msgInvalidDate               = "Invalid date format. Use YYYY-MM-DD"
)
