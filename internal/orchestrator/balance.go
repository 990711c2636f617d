package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rakhasetya/duitbot/internal/budget"
	"github.com/rakhasetya/duitbot/internal/llm"
)

// handleBalance runs the balance-query branch.
func (o *Orchestrator) handleBalance(ctx context.Context, body string) (string, error) {
	sess, err := o.budget.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("handleBalance: acquiring budget session: %w", err)
	}
	defer sess.Release()

	var (
		accounts   []budget.Account
		categories []budget.Category
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
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("handleBalance: fetching budget entities: %w", err)
	}

	query, err := o.model.ExtractBalanceQuery(ctx, body, accountNames(accounts), categoryNames(categories))
	if err != nil {
		return "", fmt.Errorf("handleBalance: %w", err)
	}

	switch query.QueryType {
	case llm.QueryAccount:
		if strings.EqualFold(query.Name, "all") {
			return o.allAccountBalances(ctx, sess, accounts)
		}
		return o.singleAccountBalance(ctx, sess, accounts, query.Name)
	case llm.QueryBudget, llm.QuerySummary:
		return o.budgetOverview(ctx, sess, query.Name)
	default:
		return "", fmt.Errorf("handleBalance: unhandled query type %q", query.QueryType)
	}
}

// allAccountBalances fetches every open account's balance concurrently
// and joins them one line per account, preserving account order. Closed
// accounts are skipped.
func (o *Orchestrator) allAccountBalances(ctx context.Context, sess budget.Session, accounts []budget.Account) (string, error) {
	open := make([]budget.Account, 0, len(accounts))
	for _, a := range accounts {
		if !a.Closed {
			open = append(open, a)
		}
	}
	if len(open) == 0 {
		return "You have no open accounts in your budget.", nil
	}

	lines := make([]string, len(open))
	g, gctx := errgroup.WithContext(ctx)
	for i, account := range open {
		g.Go(func() error {
			balance, err := sess.AccountBalance(gctx, account.ID)
			if err != nil {
				return err
			}
			lines[i] = fmt.Sprintf("%s: %s", account.Name, o.money.Format(balance))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("allAccountBalances: %w", err)
	}

	return strings.Join(lines, "\n"), nil
}

func (o *Orchestrator) singleAccountBalance(ctx context.Context, sess budget.Session, accounts []budget.Account, name string) (string, error) {
	account, ok := ResolveByName(name, accounts)
	if !ok {
		return fmt.Sprintf("Sorry, I couldn't find an account named %q in your budget.", name), nil
	}

	balance, err := sess.AccountBalance(ctx, account.ID)
	if err != nil {
		return "", fmt.Errorf("singleAccountBalance: %w", err)
	}

	return fmt.Sprintf("%s: %s", account.Name, o.money.Format(balance)), nil
}

// budgetOverview answers budget and summary queries from the current
// month. A concrete category name yields that category's numbers;
// otherwise every non-income group is listed with remaining balances.
func (o *Orchestrator) budgetOverview(ctx context.Context, sess budget.Session, name string) (string, error) {
	monthKey := budget.MonthKey(o.now())
	month, err := sess.BudgetMonth(ctx, monthKey)
	if err != nil {
		return "", fmt.Errorf("budgetOverview: %w", err)
	}

	if name != "" && !strings.EqualFold(name, "all") {
		for _, group := range month.CategoryGroups {
			for _, cat := range group.Categories {
				if strings.EqualFold(cat.Name, name) {
					spent := cat.Spent
					if spent < 0 {
						spent = -spent
					}
					return fmt.Sprintf("%s (%s)\nBudgeted: %s\nSpent: %s\nRemaining: %s",
						cat.Name, month.Month,
						o.money.Format(cat.Budgeted),
						o.money.Format(spent),
						o.money.Format(cat.Balance)), nil
				}
			}
		}
		return fmt.Sprintf("Sorry, I couldn't find a budget category named %q for %s.", name, month.Month), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Budget for %s:", month.Month)
	for _, group := range month.CategoryGroups {
		if group.IsIncome {
			continue
		}
		b.WriteString("\n\n" + group.Name)
		for _, cat := range group.Categories {
			fmt.Fprintf(&b, "\n  %s: %s", cat.Name, o.money.Format(cat.Balance))
		}
	}
	return b.String(), nil
}
