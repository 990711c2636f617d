// Package budget talks to an Actual-Budget-compatible REST backend.
// All monetary amounts are integer minor currency units (hundredths),
// signed: negative for money out, positive for money in.
package budget

import "time"

// Account is a ledger account owned by the backend.
type Account struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Closed    bool   `json:"closed"`
	OffBudget bool   `json:"offbudget"`
}

// EntityName implements orchestration name matching.
func (a Account) EntityName() string { return a.Name }

// Category is a budget category owned by the backend.
type Category struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	GroupID string `json:"group_id"`
}

// EntityName implements orchestration name matching.
func (c Category) EntityName() string { return c.Name }

// Payee is a transaction counterparty. When TransferAccountID is set the
// payee is the internal transfer payee of that account.
type Payee struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	TransferAccountID string `json:"transfer_acct"`
}

// Transaction is an outbound ledger transaction. Exactly one of PayeeID
// and PayeeName should be set: PayeeID for internal transfer payees,
// PayeeName for free-text counterparties.
type Transaction struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Amount    int64  `json:"amount"`
	PayeeID   string `json:"payee,omitempty"`
	PayeeName string `json:"payee_name,omitempty"`
	Notes     string `json:"notes,omitempty"`
	Category  string `json:"category,omitempty"`
	Cleared   bool   `json:"cleared"`
}

// MonthCategory is one category's state within a budget month.
type MonthCategory struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Budgeted int64  `json:"budgeted"`
	Spent    int64  `json:"spent"`
	Balance  int64  `json:"balance"`
}

// CategoryGroup is a group of categories within a budget month.
type CategoryGroup struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	IsIncome   bool            `json:"is_income"`
	Categories []MonthCategory `json:"categories"`
}

// BudgetMonth is the backend's view of one month (YYYY-MM).
type BudgetMonth struct {
	Month          string          `json:"month"`
	CategoryGroups []CategoryGroup `json:"categoryGroups"`
}

// MonthKey formats t as the YYYY-MM key the backend expects.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
