package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/rakhasetya/duitbot/internal/budget"
	"github.com/rakhasetya/duitbot/internal/idempotency"
	"github.com/rakhasetya/duitbot/internal/llm"
)

// ---------------------------------------------------------------------
// Collaborator mocks
// ---------------------------------------------------------------------

type sentText struct {
	chat string
	text string
}

type mockMessenger struct {
	texts   []sentText
	seen    []string
	seenErr error
	textErr error
}

func (m *mockMessenger) SendText(ctx context.Context, chatID, text string) error {
	if m.textErr != nil {
		return m.textErr
	}
	m.texts = append(m.texts, sentText{chat: chatID, text: text})
	return nil
}

func (m *mockMessenger) SendSeen(ctx context.Context, chatID string) error {
	if m.seenErr != nil {
		return m.seenErr
	}
	m.seen = append(m.seen, chatID)
	return nil
}

type mockModel struct {
	classification *llm.Classification
	classifyErr    error
	classifyCalls  int

	extraction *llm.TransactionExtraction
	extractErr error

	balanceQuery *llm.BalanceQuery

	answer string
}

func (m *mockModel) Classify(ctx context.Context, body string) (*llm.Classification, error) {
	m.classifyCalls++
	if m.classifyErr != nil {
		return nil, m.classifyErr
	}
	return m.classification, nil
}

func (m *mockModel) ExtractTransaction(ctx context.Context, body string, accounts, categories []string) (*llm.TransactionExtraction, error) {
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	return m.extraction, nil
}

func (m *mockModel) ExtractBalanceQuery(ctx context.Context, body string, accounts, categories []string) (*llm.BalanceQuery, error) {
	return m.balanceQuery, nil
}

func (m *mockModel) Answer(ctx context.Context, body string) (string, error) {
	return m.answer, nil
}

type addCall struct {
	accountID string
	txns      []budget.Transaction
}

type mockSession struct {
	accounts   []budget.Account
	categories []budget.Category
	payees     []budget.Payee
	balances   map[string]int64
	month      *budget.BudgetMonth

	added    []addCall
	released int
}

func (s *mockSession) Accounts(ctx context.Context) ([]budget.Account, error) {
	return s.accounts, nil
}

func (s *mockSession) Categories(ctx context.Context) ([]budget.Category, error) {
	return s.categories, nil
}

func (s *mockSession) Payees(ctx context.Context) ([]budget.Payee, error) {
	return s.payees, nil
}

func (s *mockSession) AccountBalance(ctx context.Context, accountID string) (int64, error) {
	balance, ok := s.balances[accountID]
	if !ok {
		return 0, errors.New("no such account")
	}
	return balance, nil
}

func (s *mockSession) BudgetMonth(ctx context.Context, month string) (*budget.BudgetMonth, error) {
	return s.month, nil
}

func (s *mockSession) AddTransactions(ctx context.Context, accountID string, txns []budget.Transaction) error {
	s.added = append(s.added, addCall{accountID: accountID, txns: txns})
	return nil
}

func (s *mockSession) Release() { s.released++ }

type mockBudget struct {
	session  *mockSession
	acquires int
}

func (b *mockBudget) Acquire(ctx context.Context) (budget.Session, error) {
	b.acquires++
	return b.session, nil
}

// ---------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------

var testTime = time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

func newTestOrchestrator(model *mockModel, session *mockSession) (*Orchestrator, *mockMessenger, *mockBudget) {
	messenger := &mockMessenger{}
	budgetSvc := &mockBudget{session: session}
	store := idempotency.NewMemoryStore(24 * time.Hour)

	o := New(store, messenger, model, budgetSvc, NewFormatter("id", "Rp"), zerolog.Nop())
	o.now = func() time.Time { return testTime }
	return o, messenger, budgetSvc
}

func messageEvent(id, body string) Event {
	return Event{
		Name: "message",
		Message: Message{
			ID:   id,
			From: "628123@c.us",
			To:   "bot@c.us",
			Body: body,
		},
	}
}

func testAccounts() []budget.Account {
	return []budget.Account{
		{ID: "acc-cash", Name: "Cash"},
		{ID: "acc-gopay", Name: "Gopay"},
	}
}

func testCategories() []budget.Category {
	return []budget.Category{
		{ID: "cat-food", Name: "Food & Drink"},
		{ID: "cat-transport", Name: "Transport"},
	}
}

// ---------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------

func TestHandleEvent_NonMessageEventIgnored(t *testing.T) {
	model := &mockModel{}
	o, messenger, budgetSvc := newTestOrchestrator(model, &mockSession{})

	status, err := o.HandleEvent(context.Background(), Event{Name: "session.status"})
	require.NoError(t, err)
	require.Equal(t, StatusReceived, status)

	require.Zero(t, model.classifyCalls)
	require.Empty(t, messenger.texts)
	require.Empty(t, messenger.seen)
	require.Zero(t, budgetSvc.acquires)
}

func TestHandleEvent_MissingIDIgnored(t *testing.T) {
	model := &mockModel{}
	o, messenger, _ := newTestOrchestrator(model, &mockSession{})

	ev := Event{Name: "message", Message: Message{From: "628123@c.us", Body: "hi"}}
	status, err := o.HandleEvent(context.Background(), ev)
	require.NoError(t, err)
	require.Equal(t, StatusReceived, status)
	require.Zero(t, model.classifyCalls)
	require.Empty(t, messenger.texts)
}

func TestHandleEvent_DuplicateIgnored(t *testing.T) {
	model := &mockModel{
		classification: &llm.Classification{Intent: llm.IntentQuestion},
		answer:         "hello!",
	}
	o, messenger, budgetSvc := newTestOrchestrator(model, &mockSession{})

	ev := messageEvent("evt-1", "halo")

	status, err := o.HandleEvent(context.Background(), ev)
	require.NoError(t, err)
	require.Equal(t, StatusReceived, status)

	textsAfterFirst := len(messenger.texts)
	seenAfterFirst := len(messenger.seen)
	classifyAfterFirst := model.classifyCalls

	status, err = o.HandleEvent(context.Background(), ev)
	require.NoError(t, err)
	require.Equal(t, StatusDuplicate, status)

	// The duplicate triggers no further collaborator calls.
	require.Equal(t, textsAfterFirst, len(messenger.texts))
	require.Equal(t, seenAfterFirst, len(messenger.seen))
	require.Equal(t, classifyAfterFirst, model.classifyCalls)
	require.Zero(t, budgetSvc.acquires)
}

func TestHandleEvent_Question(t *testing.T) {
	model := &mockModel{
		classification: &llm.Classification{Intent: llm.IntentQuestion},
		answer:         "A budget is a plan for your money.",
	}
	o, messenger, budgetSvc := newTestOrchestrator(model, &mockSession{})

	status, err := o.HandleEvent(context.Background(), messageEvent("evt-q", "what is a budget?"))
	require.NoError(t, err)
	require.Equal(t, StatusReceived, status)

	require.Equal(t, []string{"628123@c.us"}, messenger.seen)
	require.Equal(t, []sentText{{chat: "628123@c.us", text: "A budget is a plan for your money."}}, messenger.texts)
	require.Zero(t, budgetSvc.acquires, "question branch must not touch the budget backend")
}

func TestHandleEvent_Expense(t *testing.T) {
	session := &mockSession{
		accounts:   testAccounts(),
		categories: testCategories(),
	}
	model := &mockModel{
		classification: &llm.Classification{
			Intent:            llm.IntentTransaction,
			TransactionDetail: llm.DetailExpense,
		},
		extraction: &llm.TransactionExtraction{
			Description:       "Beli kopi",
			Amount:            "20000",
			Category:          "Food & Drink",
			Payee:             "Starbucks",
			SourceAccountName: "Cash",
			MessageToUser:     "Tercatat: beli kopi Rp20.000 dari Cash.",
		},
	}
	o, messenger, _ := newTestOrchestrator(model, session)

	status, err := o.HandleEvent(context.Background(), messageEvent("evt-exp", "Beli kopi 20k dari Cash"))
	require.NoError(t, err)
	require.Equal(t, StatusReceived, status)

	require.Len(t, session.added, 1)
	require.Equal(t, "acc-cash", session.added[0].accountID)
	require.Equal(t, []budget.Transaction{{
		Date:      "2026-08-23",
		Amount:    -2000000,
		PayeeName: "Starbucks",
		Notes:     "Beli kopi",
		Category:  "cat-food",
		Cleared:   false,
	}}, session.added[0].txns)

	require.Equal(t, 1, session.released, "session must be released")
	require.Equal(t, "Tercatat: beli kopi Rp20.000 dari Cash.", messenger.texts[len(messenger.texts)-1].text)
}

func TestHandleEvent_IncomeIsPositive(t *testing.T) {
	session := &mockSession{
		accounts:   testAccounts(),
		categories: []budget.Category{{ID: "cat-salary", Name: "Salary"}},
	}
	model := &mockModel{
		classification: &llm.Classification{
			Intent:            llm.IntentTransaction,
			TransactionDetail: llm.DetailIncome,
		},
		extraction: &llm.TransactionExtraction{
			Description:       "Gajian",
			Amount:            "5000000",
			Category:          "Salary",
			SourceAccountName: "Cash",
			MessageToUser:     "Income recorded.",
		},
	}
	o, _, _ := newTestOrchestrator(model, session)

	_, err := o.HandleEvent(context.Background(), messageEvent("evt-inc", "Gajian 5jt masuk Cash"))
	require.NoError(t, err)

	require.Len(t, session.added, 1)
	require.Equal(t, int64(500000000), session.added[0].txns[0].Amount)
}

func TestHandleEvent_UnknownSourceAccount(t *testing.T) {
	session := &mockSession{
		accounts:   testAccounts(),
		categories: testCategories(),
	}
	model := &mockModel{
		classification: &llm.Classification{
			Intent:            llm.IntentTransaction,
			TransactionDetail: llm.DetailExpense,
		},
		extraction: &llm.TransactionExtraction{
			Amount:            "20000",
			Category:          "Food & Drink",
			SourceAccountName: "Mandiri",
			MessageToUser:     "done",
		},
	}
	o, messenger, _ := newTestOrchestrator(model, session)

	status, err := o.HandleEvent(context.Background(), messageEvent("evt-acc", "Beli kopi 20k dari Mandiri"))
	require.NoError(t, err, "resolution failure is a reply, not a request failure")
	require.Equal(t, StatusReceived, status)

	require.Empty(t, session.added, "no transaction may be posted")
	reply := messenger.texts[len(messenger.texts)-1].text
	require.Contains(t, reply, "Mandiri")
	require.Equal(t, 1, session.released)
}

func TestHandleEvent_UnknownCategory(t *testing.T) {
	session := &mockSession{
		accounts:   []budget.Account{{ID: "acc-bri", Name: "BRI"}},
		categories: testCategories(), // no "Electricity"
	}
	model := &mockModel{
		classification: &llm.Classification{
			Intent:            llm.IntentTransaction,
			TransactionDetail: llm.DetailExpense,
		},
		extraction: &llm.TransactionExtraction{
			Amount:            "100000",
			Category:          "Electricity",
			SourceAccountName: "BRI",
			MessageToUser:     "done",
		},
	}
	o, messenger, _ := newTestOrchestrator(model, session)

	status, err := o.HandleEvent(context.Background(), messageEvent("evt-cat", "Bayar token listrik dari BRI"))
	require.NoError(t, err)
	require.Equal(t, StatusReceived, status)

	require.Empty(t, session.added)
	reply := messenger.texts[len(messenger.texts)-1].text
	require.Contains(t, reply, "Electricity")
}

func TestHandleEvent_Transfer(t *testing.T) {
	session := &mockSession{
		accounts:   testAccounts(),
		categories: testCategories(),
		payees: []budget.Payee{
			{ID: "pay-starbucks", Name: "Starbucks"},
			{ID: "pay-tr-cash", Name: "Transfer: Cash", TransferAccountID: "acc-cash"},
			{ID: "pay-tr-gopay", Name: "Transfer: Gopay", TransferAccountID: "acc-gopay"},
		},
	}
	model := &mockModel{
		classification: &llm.Classification{
			Intent:            llm.IntentTransaction,
			TransactionDetail: llm.DetailTransfer,
		},
		extraction: &llm.TransactionExtraction{
			Description:       "Top up Gopay",
			Amount:            "50000",
			Category:          "Transport",
			Payee:             "Gopay",
			SourceAccountName: "Cash",
			MessageToUser:     "Transfer recorded.",
		},
	}
	o, _, _ := newTestOrchestrator(model, session)

	_, err := o.HandleEvent(context.Background(), messageEvent("evt-tr", "Top up gopay 50k dari cash"))
	require.NoError(t, err)

	require.Len(t, session.added, 2, "transfer posts exactly two transactions")

	withdrawal := session.added[0]
	require.Equal(t, "acc-cash", withdrawal.accountID)
	require.Equal(t, int64(-5000000), withdrawal.txns[0].Amount)
	require.Equal(t, "pay-tr-gopay", withdrawal.txns[0].PayeeID, "withdrawal uses destination's transfer payee")
	require.False(t, withdrawal.txns[0].Cleared)

	deposit := session.added[1]
	require.Equal(t, "acc-gopay", deposit.accountID)
	require.Equal(t, int64(5000000), deposit.txns[0].Amount)
	require.Equal(t, "pay-tr-cash", deposit.txns[0].PayeeID, "deposit uses source's transfer payee")
	require.Equal(t, "2026-08-23", deposit.txns[0].Date)
}

func TestHandleEvent_TransferMissingDestinationTransferPayee(t *testing.T) {
	session := &mockSession{
		accounts:   testAccounts(),
		categories: testCategories(),
		payees: []budget.Payee{
			// Source has a transfer payee; destination (Gopay) does not.
			{ID: "pay-tr-cash", Name: "Transfer: Cash", TransferAccountID: "acc-cash"},
		},
	}
	model := &mockModel{
		classification: &llm.Classification{
			Intent:            llm.IntentTransaction,
			TransactionDetail: llm.DetailTransfer,
		},
		extraction: &llm.TransactionExtraction{
			Amount:            "50000",
			Category:          "Transport",
			Payee:             "Gopay",
			SourceAccountName: "Cash",
			MessageToUser:     "done",
		},
	}
	o, messenger, _ := newTestOrchestrator(model, session)

	_, err := o.HandleEvent(context.Background(), messageEvent("evt-tr2", "Top up gopay 50k"))
	require.NoError(t, err)

	require.Empty(t, session.added, "no transactions may be posted")

	// The reply names the destination's missing transfer payee, not the
	// source's.
	reply := messenger.texts[len(messenger.texts)-1].text
	require.Contains(t, reply, "Gopay")
	require.NotContains(t, reply, "Cash")
}

func TestHandleEvent_ModelErrorNotRetried(t *testing.T) {
	model := &mockModel{classifyErr: errors.New("model unavailable")}
	o, messenger, _ := newTestOrchestrator(model, &mockSession{})

	_, err := o.HandleEvent(context.Background(), messageEvent("evt-err", "halo"))
	require.Error(t, err)

	require.Equal(t, 1, model.classifyCalls, "a failing model call is never retried")

	// The user got exactly one generic apology.
	require.Len(t, messenger.texts, 1)
	require.Equal(t, apologyText, messenger.texts[0].text)
}

func TestHandleEvent_SendSeenFailureIsNonFatal(t *testing.T) {
	model := &mockModel{
		classification: &llm.Classification{Intent: llm.IntentQuestion},
		answer:         "hi there",
	}
	o, messenger, _ := newTestOrchestrator(model, &mockSession{})
	messenger.seenErr = errors.New("gateway hiccup")

	status, err := o.HandleEvent(context.Background(), messageEvent("evt-seen", "halo"))
	require.NoError(t, err)
	require.Equal(t, StatusReceived, status)
	require.Equal(t, "hi there", messenger.texts[0].text)
}

func TestHandleEvent_SendTextFailureIsFatal(t *testing.T) {
	model := &mockModel{
		classification: &llm.Classification{Intent: llm.IntentQuestion},
		answer:         "hi there",
	}
	o, messenger, _ := newTestOrchestrator(model, &mockSession{})
	messenger.textErr = errors.New("gateway down")

	_, err := o.HandleEvent(context.Background(), messageEvent("evt-send", "halo"))
	require.Error(t, err)
}

func TestHandleEvent_BalanceAllSkipsClosedAccounts(t *testing.T) {
	session := &mockSession{
		accounts: []budget.Account{
			{ID: "acc-cash", Name: "Cash"},
			{ID: "acc-old", Name: "Old Wallet", Closed: true},
			{ID: "acc-gopay", Name: "Gopay"},
		},
		categories: testCategories(),
		balances: map[string]int64{
			"acc-cash":  2000000,
			"acc-gopay": 125050,
		},
	}
	model := &mockModel{
		classification: &llm.Classification{Intent: llm.IntentQueryBalance},
		balanceQuery:   &llm.BalanceQuery{QueryType: llm.QueryAccount, Name: "all"},
	}
	o, messenger, _ := newTestOrchestrator(model, session)

	_, err := o.HandleEvent(context.Background(), messageEvent("evt-bal", "saldo semua akun"))
	require.NoError(t, err)

	reply := messenger.texts[len(messenger.texts)-1].text
	require.Equal(t, "Cash: Rp20.000,00\nGopay: Rp1.250,50", reply)
	require.NotContains(t, reply, "Old Wallet")
	require.Equal(t, 1, session.released)
}

func TestHandleEvent_BalanceSingleAccountNotFound(t *testing.T) {
	session := &mockSession{
		accounts:   testAccounts(),
		categories: testCategories(),
		balances:   map[string]int64{},
	}
	model := &mockModel{
		classification: &llm.Classification{Intent: llm.IntentQueryBalance},
		balanceQuery:   &llm.BalanceQuery{QueryType: llm.QueryAccount, Name: "Mandiri"},
	}
	o, messenger, _ := newTestOrchestrator(model, session)

	_, err := o.HandleEvent(context.Background(), messageEvent("evt-bal2", "saldo mandiri"))
	require.NoError(t, err)

	reply := messenger.texts[len(messenger.texts)-1].text
	require.Contains(t, reply, "Mandiri")
}

func TestHandleEvent_BudgetCategoryQuery(t *testing.T) {
	session := &mockSession{
		accounts:   testAccounts(),
		categories: testCategories(),
		month: &budget.BudgetMonth{
			Month: "2026-08",
			CategoryGroups: []budget.CategoryGroup{
				{
					ID: "g1", Name: "Usual Expenses",
					Categories: []budget.MonthCategory{
						{ID: "cat-food", Name: "Food & Drink", Budgeted: 500000, Spent: -200000, Balance: 300000},
					},
				},
			},
		},
	}
	model := &mockModel{
		classification: &llm.Classification{Intent: llm.IntentQueryBalance},
		balanceQuery:   &llm.BalanceQuery{QueryType: llm.QueryBudget, Name: "food & drink"},
	}
	o, messenger, _ := newTestOrchestrator(model, session)

	_, err := o.HandleEvent(context.Background(), messageEvent("evt-bud", "budget makan bulan ini?"))
	require.NoError(t, err)

	reply := messenger.texts[len(messenger.texts)-1].text
	require.Contains(t, reply, "Food & Drink")
	require.Contains(t, reply, "Budgeted: Rp5.000,00")
	// Spent is shown as its absolute value.
	require.Contains(t, reply, "Spent: Rp2.000,00")
	require.Contains(t, reply, "Remaining: Rp3.000,00")
}

func TestHandleEvent_BudgetSummaryExcludesIncomeGroups(t *testing.T) {
	session := &mockSession{
		accounts:   testAccounts(),
		categories: testCategories(),
		month: &budget.BudgetMonth{
			Month: "2026-08",
			CategoryGroups: []budget.CategoryGroup{
				{
					ID: "g1", Name: "Usual Expenses",
					Categories: []budget.MonthCategory{
						{ID: "cat-food", Name: "Food & Drink", Balance: 300000},
						{ID: "cat-transport", Name: "Transport", Balance: 150000},
					},
				},
				{
					ID: "g2", Name: "Income", IsIncome: true,
					Categories: []budget.MonthCategory{
						{ID: "cat-salary", Name: "Salary", Balance: 0},
					},
				},
			},
		},
	}
	model := &mockModel{
		classification: &llm.Classification{Intent: llm.IntentQueryBalance},
		balanceQuery:   &llm.BalanceQuery{QueryType: llm.QuerySummary, Name: "all"},
	}
	o, messenger, _ := newTestOrchestrator(model, session)

	_, err := o.HandleEvent(context.Background(), messageEvent("evt-sum", "gimana budget bulan ini?"))
	require.NoError(t, err)

	reply := messenger.texts[len(messenger.texts)-1].text
	require.Contains(t, reply, "Usual Expenses")
	require.Contains(t, reply, "Food & Drink: Rp3.000,00")
	require.Contains(t, reply, "Transport: Rp1.500,00")
	require.NotContains(t, reply, "Salary")
}
