package orchestrator

import (
	"fmt"

	"github.com/rakhasetya/duitbot/internal/llm"
)

// Intent is the tagged union of everything a message can ask for. The
// orchestrator switches over it exhaustively; a new variant that is not
// handled falls through to an explicit error instead of being silently
// ignored.
type Intent interface {
	isIntent()
}

// Question is free-form conversation with no budgeting action.
type Question struct{}

// Transaction records money movement of the given sub-type.
type Transaction struct {
	Detail llm.TransactionDetail
}

// BalanceQuery asks about account balances or budget state.
type BalanceQuery struct{}

func (Question) isIntent()     {}
func (Transaction) isIntent()  {}
func (BalanceQuery) isIntent() {}

// intentFromClassification converts the model's classification into the
// intent union, rejecting values outside the known vocabulary.
func intentFromClassification(c *llm.Classification) (Intent, error) {
	switch c.Intent {
	case llm.IntentQuestion:
		return Question{}, nil
	case llm.IntentQueryBalance:
		return BalanceQuery{}, nil
	case llm.IntentTransaction:
		switch c.TransactionDetail {
		case llm.DetailExpense, llm.DetailIncome, llm.DetailTransfer:
			return Transaction{Detail: c.TransactionDetail}, nil
		default:
			return nil, fmt.Errorf("intentFromClassification: unknown transaction detail %q", c.TransactionDetail)
		}
	default:
		return nil, fmt.Errorf("intentFromClassification: unknown intent %q", c.Intent)
	}
}
