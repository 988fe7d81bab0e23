package fakeapi

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/biztrack/pkg/bizapi"
)

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Email == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "Please provide email and password")
		return
	}

	a.mu.Lock()
	acc := a.accounts[strings.ToLower(body.Email)]
	if acc == nil || acc.password != body.Password {
		a.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	token := uuid.NewString()
	a.tokens[token] = strings.ToLower(body.Email)
	a.logAction(acc.user, "LOGIN", "User", acc.user.ID)
	user := acc.user
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": token, "user": user})
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	fail := a.failLogout
	if !fail {
		token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		delete(a.tokens, token)
	}
	a.mu.Unlock()

	if fail {
		writeError(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *API) profile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": currentUser(r)})
}

func (a *API) changePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !decode(w, r, &body) {
		return
	}

	u := currentUser(r)
	a.mu.Lock()
	defer a.mu.Unlock()
	acc := a.accounts[strings.ToLower(u.Email)]
	if acc.password != body.CurrentPassword {
		writeError(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	acc.password = body.NewPassword
	a.logAction(u, "CHANGE_PASSWORD", "User", u.ID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Password updated successfully"})
}

func (a *API) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &body) {
		return
	}

	a.mu.Lock()
	if _, ok := a.accounts[strings.ToLower(body.Email)]; ok {
		a.resetTokens[uuid.NewString()] = strings.ToLower(body.Email)
	}
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "If an account with that email exists, a password reset link has been sent",
	})
}

func (a *API) resetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if !decode(w, r, &body) {
		return
	}
	token := chi.URLParam(r, "token")

	a.mu.Lock()
	defer a.mu.Unlock()
	email, ok := a.resetTokens[token]
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid or expired reset token")
		return
	}
	delete(a.resetTokens, token)
	a.accounts[email].password = body.Password
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Password reset successful"})
}

func (a *API) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, _ := time.Parse(time.DateOnly, q.Get("startDate"))
	end, _ := time.Parse(time.DateOnly, q.Get("endDate"))

	a.mu.Lock()
	var matched []bizapi.Transaction
	for _, tx := range slices.Backward(a.transactions) {
		switch {
		case q.Get("type") != "" && string(tx.Type) != q.Get("type"),
			q.Get("category") != "" && tx.Category != q.Get("category"),
			q.Get("paidBy") != "" && tx.PaidBy != q.Get("paidBy"),
			!start.IsZero() && tx.Date.Before(start),
			!end.IsZero() && !tx.Date.Before(end.AddDate(0, 0, 1)):
			continue
		}
		matched = append(matched, tx)
	}
	a.mu.Unlock()

	page, limit := atoiDefault(q.Get("page"), 1), atoiDefault(q.Get("limit"), 20)
	total := len(matched)
	from := min((page-1)*limit, total)
	to := min(from+limit, total)
	pageItems := matched[from:to]
	if pageItems == nil {
		pageItems = []bizapi.Transaction{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(pageItems),
		"total":   total,
		"page":    page,
		"pages":   (total + limit - 1) / limit,
		"data":    pageItems,
	})
}

func (a *API) createTransaction(w http.ResponseWriter, r *http.Request) {
	var (
		in       bizapi.TransactionInput
		receipts []string
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(bizapi.MaxReceiptSize); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid form data")
			return
		}
		in.Amount, _ = strconv.ParseFloat(r.FormValue("amount"), 64)
		in.Date, _ = time.Parse(time.RFC3339, r.FormValue("date"))
		in.Category = r.FormValue("category")
		in.Purpose = r.FormValue("purpose")
		in.PaidBy = r.FormValue("paidBy")
		in.Type = bizapi.TransactionType(r.FormValue("type"))
		in.Notes = r.FormValue("notes")
		for _, fh := range r.MultipartForm.File["receipts"] {
			receipts = append(receipts, "/uploads/receipts/"+fh.Filename)
		}
	} else if !decode(w, r, &in) {
		return
	}

	if in.Amount == 0 || in.Purpose == "" || in.Category == "" {
		writeError(w, http.StatusBadRequest, "Amount, purpose and category are required")
		return
	}
	if in.Type == "" {
		in.Type = bizapi.TransactionExpense
	}

	now := time.Now().UTC()
	tx := bizapi.Transaction{
		ID:        uuid.NewString(),
		Amount:    in.Amount,
		Date:      in.Date,
		Category:  in.Category,
		Purpose:   in.Purpose,
		PaidBy:    in.PaidBy,
		Type:      in.Type,
		Notes:     in.Notes,
		Receipts:  receipts,
		CreatedAt: now,
		UpdatedAt: now,
	}

	u := currentUser(r)
	a.mu.Lock()
	a.transactions = append(a.transactions, tx)
	delta := tx.Amount
	if tx.Type == bizapi.TransactionExpense {
		delta = -delta
	}
	a.applyBalance(u.ID, a.balance+delta, "Transaction: "+tx.Purpose, tx.ID)
	a.logAction(u, "CREATE_TRANSACTION", "Transaction", tx.ID)
	a.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": tx})
}

func (a *API) getTransaction(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.findTransaction(chi.URLParam(r, "id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": a.transactions[i]})
}

func (a *API) updateTransaction(w http.ResponseWriter, r *http.Request) {
	var u bizapi.TransactionUpdate
	if !decode(w, r, &u) {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.findTransaction(chi.URLParam(r, "id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	tx := &a.transactions[i]
	if u.Amount != nil {
		tx.Amount = *u.Amount
	}
	if u.Date != nil {
		tx.Date = *u.Date
	}
	if u.Category != nil {
		tx.Category = *u.Category
	}
	if u.Purpose != nil {
		tx.Purpose = *u.Purpose
	}
	if u.PaidBy != nil {
		tx.PaidBy = *u.PaidBy
	}
	if u.Type != nil {
		tx.Type = *u.Type
	}
	if u.Notes != nil {
		tx.Notes = *u.Notes
	}
	tx.UpdatedAt = time.Now().UTC()
	a.logAction(currentUser(r), "UPDATE_TRANSACTION", "Transaction", tx.ID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": *tx})
}

func (a *API) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.findTransaction(chi.URLParam(r, "id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	id := a.transactions[i].ID
	a.transactions = slices.Delete(a.transactions, i, i+1)
	a.logAction(currentUser(r), "DELETE_TRANSACTION", "Transaction", id)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Transaction deleted"})
}

func (a *API) getBalance(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"balance":     a.balance,
		"lastUpdated": a.balanceAt,
	})
}

func (a *API) setBalance(w http.ResponseWriter, r *http.Request) {
	a.changeBalance(w, r, false)
}

func (a *API) adjustBalance(w http.ResponseWriter, r *http.Request) {
	a.changeBalance(w, r, true)
}

func (a *API) changeBalance(w http.ResponseWriter, r *http.Request, relative bool) {
	var body struct {
		Amount float64 `json:"amount"`
		Reason string  `json:"reason"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Reason == "" {
		writeError(w, http.StatusBadRequest, "Reason is required")
		return
	}

	u := currentUser(r)
	a.mu.Lock()
	defer a.mu.Unlock()
	previous := a.balance
	next := body.Amount
	action := "SET_BALANCE"
	if relative {
		next = previous + body.Amount
		action = "ADJUST_BALANCE"
	}
	a.applyBalance(u.ID, next, body.Reason, "")
	a.logAction(u, action, "Balance", "")
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"message":         "Balance updated",
		"balance":         next,
		"previousBalance": previous,
	})
}

func (a *API) balanceHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, _ := time.Parse(time.DateOnly, q.Get("startDate"))
	end, _ := time.Parse(time.DateOnly, q.Get("endDate"))

	a.mu.Lock()
	history := []bizapi.BalanceHistoryItem{}
	for _, h := range slices.Backward(a.history) {
		if (!start.IsZero() && h.Timestamp.Before(start)) ||
			(!end.IsZero() && !h.Timestamp.Before(end.AddDate(0, 0, 1))) {
			continue
		}
		history = append(history, h)
	}
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(history), "history": history})
}

func (a *API) actionLogs(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	logs := slices.Clone(a.logs)
	a.mu.Unlock()
	slices.Reverse(logs)
	if logs == nil {
		logs = []bizapi.ActionLog{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(logs), "actionLogs": logs})
}

// applyBalance records a balance change. Callers hold a.mu.
func (a *API) applyBalance(userID string, next float64, reason, txID string) {
	now := time.Now().UTC()
	a.history = append(a.history, bizapi.BalanceHistoryItem{
		UserID:          userID,
		Timestamp:       now,
		PreviousBalance: a.balance,
		NewBalance:      next,
		Reason:          reason,
		TransactionID:   txID,
	})
	a.balance = next
	a.balanceAt = now
}

// findTransaction returns the index of id or -1. Callers hold a.mu.
func (a *API) findTransaction(id string) int {
	return slices.IndexFunc(a.transactions, func(tx bizapi.Transaction) bool { return tx.ID == id })
}

func atoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return def
}
