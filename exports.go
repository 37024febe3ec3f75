package postings

import "github.com/xraph/postings/types"

// Re-export common types so callers don't have to import the types package.

// Amount is re-exported from the types package.
type Amount = types.Amount

// Entity is re-exported from the types package.
type Entity = types.Entity

// Re-export amount helpers.
var (
	NewAmount       = types.NewAmount
	AmountFromInt   = types.AmountFromInt
	ParseAmount     = types.ParseAmount
	MustParseAmount = types.MustParseAmount
	SumAmounts      = types.SumAmounts
)

// Zero is the zero amount.
var Zero = types.Zero
