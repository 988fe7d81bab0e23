package bizapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/biztrack/internal/fakeapi"
	"github.com/dmitrymomot/biztrack/pkg/apiclient"
	"github.com/dmitrymomot/biztrack/pkg/bizapi"
	"github.com/dmitrymomot/biztrack/pkg/session"
	"github.com/dmitrymomot/biztrack/pkg/validator"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type env struct {
	api   *fakeapi.API
	svc   *bizapi.Service
	token string
	admin session.User
}

func setup(t *testing.T) env {
	t.Helper()
	api := fakeapi.Start(t)
	admin := api.AddUser("admin@biztrack.test", "supersecret", "Ahmed", session.RoleSuperAdmin)
	api.AddUser("user@biztrack.test", "password1", "Faisal", session.RoleUser)

	client, err := apiclient.New(api.URL)
	require.NoError(t, err)

	return env{
		api:   api,
		svc:   bizapi.New(client),
		token: api.IssueToken(admin.Email),
		admin: admin,
	}
}

// countingDoer records calls without sending anything.
type countingDoer struct {
	calls int
}

func (d *countingDoer) Do(context.Context, string, string, any, ...apiclient.RequestOption) error {
	d.calls++
	return nil
}

func TestLogin(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	res, err := e.svc.Login(ctx, "admin@biztrack.test", "supersecret")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.Token)
	sess := res.Session()
	assert.True(t, sess.Valid())
	assert.Equal(t, e.admin.ID, sess.User.ID)
	assert.Equal(t, session.RoleSuperAdmin, sess.User.Role)

	_, err = e.svc.Login(ctx, "u@x.com", "badpass")
	require.Error(t, err)
	assert.True(t, apiclient.IsUnauthorized(err))
	assert.Equal(t, "Invalid credentials", apiclient.Message(err))
}

func TestProfileAndLogout(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	u, err := e.svc.Profile(ctx, e.token)
	require.NoError(t, err)
	assert.Equal(t, e.admin.Email, u.Email)
	assert.Equal(t, "Bearer "+e.token, e.api.Requests()[0].Authorization)

	require.NoError(t, e.svc.Logout(ctx, e.token))
	_, err = e.svc.Profile(ctx, e.token)
	assert.True(t, apiclient.IsUnauthorized(err))
}

func TestForgotPassword_DoesNotLeakExistence(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	known, err := e.svc.ForgotPassword(ctx, "user@biztrack.test")
	require.NoError(t, err)
	unknown, err := e.svc.ForgotPassword(ctx, "nobody@biztrack.test")
	require.NoError(t, err)

	assert.True(t, unknown.Success)
	assert.Equal(t, known, unknown)
}

func TestResetAndChangePassword(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	_, err := e.svc.ResetPassword(ctx, "bogus-token", "newpassword")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apiclient.StatusCode(err))

	_, err = e.svc.ForgotPassword(ctx, "user@biztrack.test")
	require.NoError(t, err)
	resetToken := e.api.ResetToken("user@biztrack.test")
	require.NotEmpty(t, resetToken)

	res, err := e.svc.ResetPassword(ctx, resetToken, "newpassword")
	require.NoError(t, err)
	assert.True(t, res.Success)

	login, err := e.svc.Login(ctx, "user@biztrack.test", "newpassword")
	require.NoError(t, err)

	_, err = e.svc.ChangePassword(ctx, login.Token, "wrong", "another1")
	require.Error(t, err)
	assert.Equal(t, "Current password is incorrect", apiclient.Message(err))
	assert.False(t, apiclient.IsUnauthorized(err))

	_, err = e.svc.ChangePassword(ctx, login.Token, "newpassword", "another1")
	require.NoError(t, err)
}

func TestCreateTransaction_ContentType(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	in := bizapi.TransactionInput{
		Amount:   250.5,
		Date:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Category: "Food",
		Purpose:  "Team lunch",
		PaidBy:   "Company",
	}

	t.Run("json without receipt", func(t *testing.T) {
		tx, err := e.svc.CreateTransaction(ctx, e.token, in)
		require.NoError(t, err)
		assert.NotEmpty(t, tx.ID)
		assert.Equal(t, 250.5, tx.Amount)
		assert.Empty(t, tx.Receipts)

		reqs := e.api.Requests()
		assert.Equal(t, "application/json", reqs[len(reqs)-1].ContentType)
	})

	t.Run("multipart with receipt", func(t *testing.T) {
		receipt, err := bizapi.NewReceipt("../scan.png", bytes.NewReader(append(pngHeader, make([]byte, 64)...)))
		require.NoError(t, err)
		assert.Equal(t, "image/png", receipt.ContentType)
		assert.Equal(t, "scan.png", receipt.Name)

		tx, err := e.svc.CreateTransaction(ctx, e.token, in, receipt)
		require.NoError(t, err)
		assert.Equal(t, "Team lunch", tx.Purpose)
		assert.Equal(t, []string{"/uploads/receipts/scan.png"}, tx.Receipts)
		assert.True(t, tx.Date.Equal(in.Date))

		reqs := e.api.Requests()
		ct := reqs[len(reqs)-1].ContentType
		assert.True(t, strings.HasPrefix(ct, "multipart/form-data; boundary="), ct)
	})
}

func TestCreateTransaction_ValidatesBeforeSending(t *testing.T) {
	t.Parallel()
	doer := &countingDoer{}
	svc := bizapi.New(doer)

	_, err := svc.CreateTransaction(context.Background(), "tok", bizapi.TransactionInput{
		Amount: 10,
		PaidBy: "Stranger",
	})
	require.Error(t, err)
	errs := validator.ExtractValidationErrors(err)
	assert.Equal(t, "Please enter a purpose", errs.First())
	assert.True(t, errs.Has("category"))
	assert.True(t, errs.Has("paidBy"))

	_, err = svc.AdjustBalance(context.Background(), "tok", 0, "typo")
	assert.True(t, validator.IsValidationError(err))

	_, err = svc.BalanceHistory(context.Background(), "tok", bizapi.HistoryRange{StartDate: "2024-05-01", EndDate: "2024-04-01"})
	assert.True(t, validator.IsValidationError(err))

	assert.ErrorIs(t, svc.DeleteTransaction(context.Background(), "tok", ""), bizapi.ErrMissingID)
	assert.Zero(t, doer.calls)
}

func TestTransactionsCRUD(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	for i, c := range []string{"Food", "Rent", "Food"} {
		_, err := e.svc.CreateTransaction(ctx, e.token, bizapi.TransactionInput{
			Amount:   float64(100 * (i + 1)),
			Category: c,
			Purpose:  "item",
			PaidBy:   "Ahmed",
		})
		require.NoError(t, err)
	}

	list, err := e.svc.ListTransactions(ctx, e.token, bizapi.TransactionFilters{Category: "Food"})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Count)
	require.Len(t, list.Transactions, 2)
	assert.Equal(t, 300.0, list.Transactions[0].Amount, "newest first")

	page, err := e.svc.ListTransactions(ctx, e.token, bizapi.TransactionFilters{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Transactions, 1)

	id := list.Transactions[0].ID
	got, err := e.svc.GetTransaction(ctx, e.token, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	notes := "reimbursed"
	updated, err := e.svc.UpdateTransaction(ctx, e.token, id, bizapi.TransactionUpdate{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "reimbursed", updated.Notes)
	assert.Equal(t, "Food", updated.Category)

	require.NoError(t, e.svc.DeleteTransaction(ctx, e.token, id))
	_, err = e.svc.GetTransaction(ctx, e.token, id)
	assert.Equal(t, http.StatusNotFound, apiclient.StatusCode(err))
	assert.Equal(t, "Transaction not found", apiclient.Message(err))
}

func TestBalance(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	res, err := e.svc.SetBalance(ctx, e.token, 1000, "opening balance")
	require.NoError(t, err)
	require.NotNil(t, res.Balance)
	assert.Equal(t, 1000.0, *res.Balance)

	res, err = e.svc.AdjustBalance(ctx, e.token, -250, "petty cash")
	require.NoError(t, err)
	assert.Equal(t, 750.0, *res.Balance)
	assert.Equal(t, 1000.0, *res.PreviousBalance)

	b, err := e.svc.Balance(ctx, e.token)
	require.NoError(t, err)
	assert.Equal(t, 750.0, b.Balance)
	assert.False(t, b.LastUpdated.IsZero())

	today := time.Now().UTC().Format(validator.DateLayout)
	h, err := e.svc.BalanceHistory(ctx, e.token, bizapi.HistoryRange{StartDate: today})
	require.NoError(t, err)
	require.Equal(t, 2, h.Count)
	assert.Equal(t, "petty cash", h.History[0].Reason)
	assert.Equal(t, -250.0, h.History[0].Delta())

	h, err = e.svc.BalanceHistory(ctx, e.token, bizapi.HistoryRange{EndDate: "2000-01-01"})
	require.NoError(t, err)
	assert.Zero(t, h.Count)
}

func TestBalance_SuperAdminOnly(t *testing.T) {
	t.Parallel()
	e := setup(t)

	token := e.api.IssueToken("user@biztrack.test")
	_, err := e.svc.SetBalance(context.Background(), token, 5, "nope")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, apiclient.StatusCode(err))
	assert.False(t, apiclient.IsUnauthorized(err))
}

func TestActionLogs(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	_, err := e.svc.Login(ctx, "admin@biztrack.test", "supersecret")
	require.NoError(t, err)
	_, err = e.svc.AdjustBalance(ctx, e.token, 10, "tip jar")
	require.NoError(t, err)

	logs, err := e.svc.ActionLogs(ctx, e.token)
	require.NoError(t, err)
	require.Equal(t, 2, logs.Count)
	assert.Equal(t, "ADJUST_BALANCE", logs.ActionLogs[0].Action)
	assert.Equal(t, e.admin.ID, logs.ActionLogs[0].User.ID)
	assert.Equal(t, "Ahmed", logs.ActionLogs[0].User.Name)
}

func TestActionUser_Unmarshal(t *testing.T) {
	t.Parallel()

	var logs []bizapi.ActionLog
	require.NoError(t, json.Unmarshal([]byte(`[
		{"_id":"1","action":"LOGIN","userId":{"_id":"u1","name":"Wasey","email":"w@x.com"},"entityId":null},
		{"_id":"2","action":"LOGIN","userId":"u2"},
		{"_id":"3","action":"LOGIN","userId":null}
	]`), &logs))

	assert.Equal(t, "Wasey", logs[0].User.Name)
	assert.Empty(t, logs[0].EntityID)
	assert.Equal(t, "u2", logs[1].User.ID)
	assert.Empty(t, logs[2].User.ID)
}

func TestDashboard(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()
	e.api.SetBalance(5000)

	for range 7 {
		_, err := e.svc.CreateTransaction(ctx, e.token, bizapi.TransactionInput{
			Amount: 10, Category: "Supplies", Purpose: "pens", PaidBy: "Company",
		})
		require.NoError(t, err)
	}

	d, err := e.svc.Dashboard(ctx, e.token, 0)
	require.NoError(t, err)
	assert.Equal(t, 4930.0, d.Balance.Balance)
	assert.Len(t, d.Recent, 5)

	e.api.RevokeAll()
	_, err = e.svc.Dashboard(ctx, e.token, 3)
	assert.True(t, apiclient.IsUnauthorized(err))
}

func TestReceipts(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	img := filepath.Join(dir, "receipt.png")
	require.NoError(t, os.WriteFile(img, append(pngHeader, 1, 2, 3), 0o600))
	r, err := bizapi.OpenReceipt(img)
	require.NoError(t, err)
	assert.Equal(t, "receipt.png", r.Name)
	assert.Equal(t, "image/png", r.ContentType)

	txt := filepath.Join(dir, "notes.png")
	require.NoError(t, os.WriteFile(txt, []byte("just some text pretending"), 0o600))
	_, err = bizapi.OpenReceipt(txt)
	assert.ErrorIs(t, err, bizapi.ErrReceiptNotImage)

	_, err = bizapi.OpenReceipt(filepath.Join(dir, "missing.jpg"))
	assert.ErrorIs(t, err, bizapi.ErrReceiptRead)
}

func TestInputIsNormalised(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	tx, err := e.svc.CreateTransaction(ctx, e.token, bizapi.TransactionInput{
		Amount:   12.3456,
		Category: "  Food ",
		Purpose:  "Team\n  lunch\x07",
		PaidBy:   " Wasey",
		Notes:    "  first\nsecond  ",
	})
	require.NoError(t, err)
	assert.InDelta(t, 12.35, tx.Amount, 1e-9)
	assert.Equal(t, "Food", tx.Category)
	assert.Equal(t, "Team lunch", tx.Purpose)
	assert.Equal(t, "Wasey", tx.PaidBy)
	assert.Equal(t, "first\nsecond", tx.Notes)

	purpose := "  Dinner  "
	updated, err := e.svc.UpdateTransaction(ctx, e.token, tx.ID, bizapi.TransactionUpdate{Purpose: &purpose})
	require.NoError(t, err)
	assert.Equal(t, "Dinner", updated.Purpose)
	assert.Equal(t, "  Dinner  ", purpose, "caller's value is not modified")

	// Whitespace-only text is empty after cleaning and fails validation.
	_, err = e.svc.AdjustBalance(ctx, e.token, 10, " \n ")
	assert.True(t, validator.IsValidationError(err))
}
