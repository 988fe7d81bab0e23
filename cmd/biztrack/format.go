package main

import (
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrymomot/biztrack/pkg/bizapi"
	"github.com/dmitrymomot/biztrack/pkg/validator"
)

// money formats an amount with the locale's grouping and two decimals.
func (a *app) money(v float64) string {
	return a.p.Sprintf("%.2f", v)
}

func (a *app) signed(v float64) string {
	return a.p.Sprintf("%+.2f", v)
}

func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(validator.DateLayout)
}

func (a *app) table(header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	row(tw, header...)
	return tw
}

func row(tw *tabwriter.Writer, cols ...string) {
	_, _ = tw.Write([]byte(strings.Join(cols, "\t") + "\n"))
}

func (a *app) transactionTable(txs []bizapi.Transaction) error {
	tw := a.table("DATE", "TYPE", "AMOUNT", "CATEGORY", "PURPOSE", "PAID BY", "ID")
	for _, tx := range txs {
		row(tw, day(tx.Date), a.title.String(string(tx.Type)), a.money(tx.Amount),
			tx.Category, tx.Purpose, tx.PaidBy, tx.ID)
	}
	return tw.Flush()
}

func (a *app) printTransaction(tx *bizapi.Transaction) {
	a.printf("%s %s on %s\n", a.title.String(string(tx.Type)), a.money(tx.Amount), day(tx.Date))
	a.printf("Category: %s\nPurpose: %s\nPaid by: %s\n", tx.Category, tx.Purpose, tx.PaidBy)
	if tx.Notes != "" {
		a.printf("Notes: %s\n", tx.Notes)
	}
	for _, r := range tx.Receipts {
		a.printf("Receipt: %s\n", r)
	}
	a.printf("ID: %s\n", tx.ID)
}
