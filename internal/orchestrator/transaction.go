package orchestrator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rakhasetya/duitbot/internal/budget"
	"github.com/rakhasetya/duitbot/internal/llm"
)

// handleTransaction runs the transaction branch: fetch backend entities,
// extract structured fields, resolve names, and post the ledger
// transaction(s). Name-resolution misses come back as user-facing
// replies with a nil error; everything else is an error for the caller.
func (o *Orchestrator) handleTransaction(ctx context.Context, body string, detail llm.TransactionDetail) (string, error) {
	sess, err := o.budget.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("handleTransaction: acquiring budget session: %w", err)
	}
	defer sess.Release()

	var (
		accounts   []budget.Account
		categories []budget.Category
		payees     []budget.Payee
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = sess.Accounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = sess.Categories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		payees, err = sess.Payees(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("handleTransaction: fetching budget entities: %w", err)
	}

	ext, err := o.model.ExtractTransaction(ctx, body, accountNames(accounts), categoryNames(categories))
	if err != nil {
		return "", fmt.Errorf("handleTransaction: %w", err)
	}

	minor, err := ParseMinorUnits(ext.Amount)
	if err != nil {
		return "", fmt.Errorf("handleTransaction: %w", err)
	}
	if minor < 0 {
		minor = -minor
	}

	source, ok := ResolveByName(ext.SourceAccountName, accounts)
	if !ok {
		return fmt.Sprintf("Sorry, I couldn't find an account named %q in your budget.", ext.SourceAccountName), nil
	}

	if detail == llm.DetailTransfer {
		return o.postTransfer(ctx, sess, ext, accounts, payees, source, minor)
	}
	return o.postSimple(ctx, sess, ext, categories, source, minor, detail)
}

// postSimple posts a single expense or income transaction on the source
// account. Expenses are negative, income positive.
func (o *Orchestrator) postSimple(ctx context.Context, sess budget.Session, ext *llm.TransactionExtraction, categories []budget.Category, source budget.Account, minor int64, detail llm.TransactionDetail) (string, error) {
	category, ok := ResolveByName(ext.Category, categories)
	if !ok {
		return fmt.Sprintf("Sorry, I couldn't find a category named %q in your budget.", ext.Category), nil
	}

	amount := minor
	if detail == llm.DetailExpense {
		amount = -amount
	}

	txn := budget.Transaction{
		Date:      o.today(),
		Amount:    amount,
		PayeeName: ext.Payee,
		Notes:     ext.Description,
		Category:  category.ID,
		Cleared:   false,
	}
	if err := sess.AddTransactions(ctx, source.ID, []budget.Transaction{txn}); err != nil {
		return "", fmt.Errorf("postSimple: %w", err)
	}

	return ext.MessageToUser, nil
}

// postTransfer posts the two linked transactions of a transfer: a
// withdrawal on the source account against the destination's internal
// transfer payee, and a deposit on the destination account against the
// source's. Resolution failures are reported in this order: destination
// account, destination transfer payee, source transfer payee.
func (o *Orchestrator) postTransfer(ctx context.Context, sess budget.Session, ext *llm.TransactionExtraction, accounts []budget.Account, payees []budget.Payee, source budget.Account, minor int64) (string, error) {
	dest, ok := ResolveByName(ext.Payee, accounts)
	if !ok {
		return fmt.Sprintf("Sorry, I couldn't find a destination account named %q in your budget.", ext.Payee), nil
	}

	destPayee, ok := transferPayeeFor(payees, dest.ID)
	if !ok {
		return fmt.Sprintf("Sorry, account %q has no transfer payee in your budget, so I can't transfer into it.", dest.Name), nil
	}
	sourcePayee, ok := transferPayeeFor(payees, source.ID)
	if !ok {
		return fmt.Sprintf("Sorry, account %q has no transfer payee in your budget, so I can't transfer out of it.", source.Name), nil
	}

	date := o.today()
	withdrawal := budget.Transaction{
		Date:    date,
		Amount:  -minor,
		PayeeID: destPayee.ID,
		Notes:   ext.Description,
		Cleared: false,
	}
	deposit := budget.Transaction{
		Date:    date,
		Amount:  minor,
		PayeeID: sourcePayee.ID,
		Notes:   ext.Description,
		Cleared: false,
	}

	if err := sess.AddTransactions(ctx, source.ID, []budget.Transaction{withdrawal}); err != nil {
		return "", fmt.Errorf("postTransfer: posting withdrawal: %w", err)
	}
	if err := sess.AddTransactions(ctx, dest.ID, []budget.Transaction{deposit}); err != nil {
		return "", fmt.Errorf("postTransfer: posting deposit: %w", err)
	}

	return ext.MessageToUser, nil
}

// transferPayeeFor finds the internal transfer payee for an account id.
func transferPayeeFor(payees []budget.Payee, accountID string) (budget.Payee, bool) {
	for _, p := range payees {
		if p.TransferAccountID == accountID {
			return p, true
		}
	}
	return budget.Payee{}, false
}

func accountNames(accounts []budget.Account) []string {
	names := make([]string, 0, len(accounts))
	for _, a := range accounts {
		names = append(names, a.Name)
	}
	return names
}

func categoryNames(categories []budget.Category) []string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return names
}
