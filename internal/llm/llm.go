// Package llm classifies chat messages and extracts structured budgeting
// data from them using a generative language model.
package llm

import "context"

// Intent is the top-level classification of an incoming message.
type Intent string

const (
	// IntentTransaction indicates the message records money movement.
	IntentTransaction Intent = "transaction"
	// IntentQuestion indicates a free-form question with no budgeting action.
	IntentQuestion Intent = "question"
	// IntentQueryBalance indicates a balance or budget lookup.
	IntentQueryBalance Intent = "query_balance"
)

// TransactionDetail is the sub-type of a transaction intent.
type TransactionDetail string

const (
	DetailExpense  TransactionDetail = "expense"
	DetailIncome   TransactionDetail = "income"
	DetailTransfer TransactionDetail = "transfer"
)

// Classification is the model's verdict on a message.
type Classification struct {
	Intent Intent `json:"intent"`

	// TransactionDetail is only set when Intent is transaction.
	TransactionDetail TransactionDetail `json:"transaction_detail,omitempty"`
}

// TransactionExtraction is the structured form of a transaction message.
// Amount is a pre-normalized decimal string: the model expands shorthand
// like "20k" to "20000" before returning it.
type TransactionExtraction struct {
	Description       string `json:"description"`
	Amount            string `json:"amount"`
	Category          string `json:"category"`
	Payee             string `json:"payee"`
	SourceAccountName string `json:"source_account_name"`
	MessageToUser     string `json:"message_to_user"`
}

// BalanceQueryType selects what a balance query is asking about.
type BalanceQueryType string

const (
	QueryAccount BalanceQueryType = "account"
	QueryBudget  BalanceQueryType = "budget"
	QuerySummary BalanceQueryType = "summary"
)

// BalanceQuery is the structured form of a balance/budget question.
// Name may be empty or "all".
type BalanceQuery struct {
	QueryType BalanceQueryType `json:"query_type"`
	Name      string           `json:"name"`
}

// Model is the language-model surface the orchestrator depends on.
// Every call is a single blocking request with no retry; errors
// propagate to the caller.
type Model interface {
	// Classify determines the intent of a raw message body.
	Classify(ctx context.Context, body string) (*Classification, error)

	// ExtractTransaction pulls transaction fields out of the message.
	// The model is constrained to choose account and category names only
	// from the supplied lists.
	ExtractTransaction(ctx context.Context, body string, accounts, categories []string) (*TransactionExtraction, error)

	// ExtractBalanceQuery pulls balance-query fields out of the message.
	ExtractBalanceQuery(ctx context.Context, body string, accounts, categories []string) (*BalanceQuery, error)

	// Answer returns a free-text conversational reply.
	Answer(ctx context.Context, body string) (string, error)
}
