package llm

import "google.golang.org/genai"

// classificationSchema constrains the intent classification output.
var classificationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"intent": {
			Type: genai.TypeString,
			Enum: []string{
				string(IntentTransaction),
				string(IntentQuestion),
				string(IntentQueryBalance),
			},
		},
		"transaction_detail": {
			Type: genai.TypeString,
			Enum: []string{
				string(DetailExpense),
				string(DetailIncome),
				string(DetailTransfer),
			},
			Nullable: genai.Ptr(true),
		},
	},
	Required: []string{"intent"},
}

// transactionSchema constrains extraction output. Account and category
// fields are enum-restricted to the names fetched from the budget backend
// so the model cannot invent entities.
func transactionSchema(accounts, categories []string) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"description": {Type: genai.TypeString},
			"amount": {
				Type:        genai.TypeString,
				Description: "Numeric amount as a plain decimal string, shorthand expanded (20k -> 20000).",
			},
			"category": {
				Type: genai.TypeString,
				Enum: categories,
			},
			"payee": {
				Type:        genai.TypeString,
				Description: "Counterparty name; for transfers, the destination account name.",
				Nullable:    genai.Ptr(true),
			},
			"source_account_name": {
				Type: genai.TypeString,
				Enum: accounts,
			},
			"message_to_user": {
				Type:        genai.TypeString,
				Description: "Short confirmation to send back to the user, in the user's language.",
			},
		},
		Required: []string{"description", "amount", "category", "source_account_name", "message_to_user"},
	}
}

// balanceQuerySchema constrains balance-query extraction output.
var balanceQuerySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"query_type": {
			Type: genai.TypeString,
			Enum: []string{
				string(QueryAccount),
				string(QueryBudget),
				string(QuerySummary),
			},
		},
		"name": {
			Type:        genai.TypeString,
			Description: "Account or category name being asked about, \"all\" for everything, or null.",
			Nullable:    genai.Ptr(true),
		},
	},
	Required: []string{"query_type"},
}
