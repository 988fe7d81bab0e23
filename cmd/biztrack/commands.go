package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/biztrack/pkg/bizapi"
	"github.com/dmitrymomot/biztrack/pkg/validator"
)

func loginCmd(a *app, fs *flag.FlagSet) func(context.Context) error {
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Password, prompted for when empty")

	return func(ctx context.Context) error {
		pw := *password
		if pw == "" {
			var err error
			if pw, err = a.prompt("Password: "); err != nil {
				return err
			}
		}
		user, err := a.ctrl.Login(ctx, *email, pw)
		if err != nil {
			return err
		}
		a.printf("Signed in as %s (%s)\n", user.Name, user.Email)
		return nil
	}
}

func logoutCmd(a *app, _ *flag.FlagSet) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := a.ctrl.Logout(ctx); err != nil {
			return err
		}
		a.printf("Signed out\n")
		return nil
	}
}

func whoamiCmd(a *app, _ *flag.FlagSet) func(context.Context) error {
	return func(ctx context.Context) error {
		user, err := a.ctrl.RefreshProfile(ctx)
		if err != nil {
			return err
		}
		a.printf("%s <%s>\nRole: %s\n", user.Name, user.Email, a.title.String(string(user.Role)))
		if !user.CreatedAt.IsZero() {
			a.printf("Member since: %s\n", day(user.CreatedAt))
		}
		return nil
	}
}

func forgotCmd(a *app, fs *flag.FlagSet) func(context.Context) error {
	email := fs.String("email", "", "Account email")

	return func(ctx context.Context) error {
		res, err := a.ctrl.ForgotPassword(ctx, *email)
		if err != nil {
			return err
		}
		a.printf("%s\n", orDefault(res.Message, "Check your inbox for a reset link"))
		return nil
	}
}

func resetCmd(a *app, fs *flag.FlagSet) func(context.Context) error {
	token := fs.String("token", "", "Reset token from the email")
	password := fs.String("password", "", "New password")
	confirm := fs.String("confirm", "", "New password again")

	return func(ctx context.Context) error {
		res, err := a.ctrl.ResetPassword(ctx, *token, *password, *confirm)
		if err != nil {
			return err
		}
		a.printf("%s\n", orDefault(res.Message, "Password has been reset, you can sign in now"))
		return nil
	}
}

func passwdCmd(a *app, fs *flag.FlagSet) func(context.Context) error {
	current := fs.String("current", "", "Current password")
	next := fs.String("new", "", "New password")
	confirm := fs.String("confirm", "", "New password again")

	return func(ctx context.Context) error {
		res, err := a.ctrl.ChangePassword(ctx, *current, *next, *confirm)
		if err != nil {
			return err
		}
		a.printf("%s\n", orDefault(res.Message, "Password updated"))
		return nil
	}
}

func balanceCmd(a *app, fs *flag.FlagSet) func(context.Context) error {
	set := fs.Float64("set", 0, "Set the balance to this amount (super admin)")
	adjust := fs.Float64("adjust", 0, "Add this amount to the balance (super admin)")
	reason := fs.String("reason", "", "Reason for a set or adjust")

	return func(ctx context.Context) error {
		token := a.ctrl.Token()
		var (
			res *bizapi.BalanceResult
			err error
		)
		switch passed := visited(fs); {
		case passed["set"] && passed["adjust"]:
			return errors.New("use either -set or -adjust, not both")
		case passed["set"]:
			res, err = a.api.SetBalance(ctx, token, *set, *reason)
		case passed["adjust"]:
			res, err = a.api.AdjustBalance(ctx, token, *adjust, *reason)
		default:
			b, err := a.api.Balance(ctx, token)
			if err != nil {
				return err
			}
			a.printf("Balance: %s\n", a.money(b.Balance))
			if !b.LastUpdated.IsZero() {
				a.printf("Last updated: %s\n", b.LastUpdated.Local().Format(time.DateTime))
			}
			return nil
		}
		if err != nil {
			return err
		}

		if res.PreviousBalance != nil && res.Balance != nil {
			a.printf("Balance: %s -> %s\n", a.money(*res.PreviousBalance), a.money(*res.Balance))
		} else if res.Balance != nil {
			a.printf("Balance: %s\n", a.money(*res.Balance))
		}
		if res.Message != "" {
			a.printf("%s\n", res.Message)
		}
		return nil
	}
}

func historyCmd(a *app, fs *flag.FlagSet) func(context.Context) error {
	var r bizapi.HistoryRange
	fs.StringVar(&r.StartDate, "from", "", "Start date, "+validator.DateLayout)
	fs.StringVar(&r.EndDate, "to", "", "End date, "+validator.DateLayout)

	return func(ctx context.Context) error {
		h, err := a.api.BalanceHistory(ctx, a.ctrl.Token(), r)
		if err != nil {
			return err
		}
		if len(h.History) == 0 {
			a.printf("No balance changes\n")
			return nil
		}
		tw := a.table("DATE", "FROM", "TO", "CHANGE", "REASON")
		for _, item := range h.History {
			row(tw, day(item.Timestamp), a.money(item.PreviousBalance), a.money(item.NewBalance),
				a.signed(item.Delta()), item.Reason)
		}
		return tw.Flush()
	}
}

func transactionsCmd(a *app, fs *flag.FlagSet) func(context.Context) error {
	var f bizapi.TransactionFilters
	id := fs.String("id", "", "Show a single transaction")
	typ := fs.String("type", "", "income or expense")
	fs.StringVar(&f.Category, "category", "", "Category")
	fs.StringVar(&f.PaidBy, "paid-by", "", "Payer: "+strings.Join(bizapi.Payers, ", "))
	fs.StringVar(&f.StartDate, "from", "", "Start date, "+validator.DateLayout)
	fs.StringVar(&f.EndDate, "to", "", "End date, "+validator.DateLayout)
	fs.IntVar(&f.Page, "page", 0, "Page number")
	fs.IntVar(&f.Limit, "limit", 0, "Page size")

	return func(ctx context.Context) error {
		token := a.ctrl.Token()
		if *id != "" {
			tx, err := a.api.GetTransaction(ctx, token, *id)
			if err != nil {
				return err
			}
			a.printTransaction(tx)
			return nil
		}

		f.Type = bizapi.TransactionType(*typ)
		list, err := a.api.ListTransactions(ctx, token, f)
		if err != nil {
			return err
		}
		if len(list.Transactions) == 0 {
			a.printf("No transactions\n")
			return nil
		}
		if err := a.transactionTable(list.Transactions); err != nil {
			return err
		}
		if list.Pages > 1 {
			a.printf("Page %d of %d, %d total\n", list.Page, list.Pages, list.Total)
		}
		return nil
	}
}

func addCmd(a *app, fs *flag.FlagSet) func(context.Context) error {
	var (
		in       bizapi.TransactionInput
		receipts []string
	)
	fs.Float64Var(&in.Amount, "amount", 0, "Amount")
	date := fs.String("date", "", "Date, "+validator.DateLayout+", defaults to today")
	fs.StringVar(&in.Category, "category", "", "Category: "+strings.Join(bizapi.Categories, ", "))
	fs.StringVar(&in.Purpose, "purpose", "", "What it was for")
	fs.StringVar(&in.PaidBy, "paid-by", "", "Payer: "+strings.Join(bizapi.Payers, ", "))
	typ := fs.String("type", string(bizapi.TransactionExpense), "income or expense")
	fs.StringVar(&in.Notes, "notes", "", "Notes")
	fs.Func("receipt", "Receipt image to attach, repeatable", func(s string) error {
		receipts = append(receipts, s)
		return nil
	})

	return func(ctx context.Context) error {
		in.Type = bizapi.TransactionType(*typ)
		if *date != "" {
			d, err := time.ParseInLocation(validator.DateLayout, *date, time.Local)
			if err != nil {
				return fmt.Errorf("invalid -date %q, expected %s", *date, validator.DateLayout)
			}
			in.Date = d
		}

		files := make([]bizapi.Receipt, 0, len(receipts))
		for _, path := range receipts {
			r, err := bizapi.OpenReceipt(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			files = append(files, r)
		}

		tx, err := a.api.CreateTransaction(ctx, a.ctrl.Token(), in, files...)
		if err != nil {
			return err
		}
		a.printf("Recorded %s %s (%s)\n", tx.Type, a.money(tx.Amount), tx.ID)
		return nil
	}
}

func rmCmd(a *app, fs *flag.FlagSet) func(context.Context) error {
	id := fs.String("id", "", "Transaction ID")

	return func(ctx context.Context) error {
		if err := a.api.DeleteTransaction(ctx, a.ctrl.Token(), *id); err != nil {
			return err
		}
		a.printf("Deleted %s\n", *id)
		return nil
	}
}

func logsCmd(a *app, fs *flag.FlagSet) func(context.Context) error {
	limit := fs.Int("limit", 20, "Number of entries to show, 0 for all")

	return func(ctx context.Context) error {
		list, err := a.api.ActionLogs(ctx, a.ctrl.Token())
		if err != nil {
			return err
		}
		logs := list.ActionLogs
		if *limit > 0 && len(logs) > *limit {
			logs = logs[:*limit]
		}
		if len(logs) == 0 {
			a.printf("No actions recorded\n")
			return nil
		}
		tw := a.table("TIME", "ACTION", "USER", "ENTITY")
		for _, l := range logs {
			who := orDefault(l.User.Name, l.User.Email)
			row(tw, l.Timestamp.Local().Format(time.DateTime), l.Action, orDefault(who, l.User.ID),
				strings.TrimSpace(l.EntityType+" "+l.EntityID))
		}
		return tw.Flush()
	}
}

func dashboardCmd(a *app, fs *flag.FlagSet) func(context.Context) error {
	recent := fs.Int("recent", 5, "Number of recent transactions")
	watch := fs.Bool("watch", false, "Keep refreshing until interrupted or signed out")
	every := fs.Duration("every", 30*time.Second, "Refresh interval in watch mode")

	return func(ctx context.Context) error {
		show := func(ctx context.Context) error {
			d, err := a.api.Dashboard(ctx, a.ctrl.Token(), *recent)
			if err != nil {
				return err
			}
			a.printf("Balance: %s\n\n", a.money(d.Balance.Balance))
			if len(d.Recent) == 0 {
				a.printf("No recent transactions\n")
				return nil
			}
			return a.transactionTable(d.Recent)
		}

		if !*watch {
			return show(ctx)
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		a.mu.Lock()
		a.endWatch = cancel
		a.mu.Unlock()
		a.ctrl.StartRevalidation(ctx)

		ticker := time.NewTicker(*every)
		defer ticker.Stop()
		for {
			if err := show(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			select {
			case <-ctx.Done():
				if a.ctrl.Token() == "" {
					return errors.New("session ended")
				}
				return nil
			case <-ticker.C:
				a.printf("\n")
			}
		}
	}
}

func visited(fs *flag.FlagSet) map[string]bool {
	m := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { m[f.Name] = true })
	return m
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
