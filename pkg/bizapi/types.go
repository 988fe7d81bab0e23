package bizapi

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrymomot/biztrack/pkg/sanitizer"
	"github.com/dmitrymomot/biztrack/pkg/validator"
)

// Known payers accepted by the API.
var Payers = []string{"Ahmed", "Faisal", "Wasey", "Company", "Others"}

// Categories offered by the client. The server accepts free-form values.
var Categories = []string{"Food", "Transport", "Utilities", "Rent", "Supplies", "Salary", "Other"}

// TransactionType tells money in from money out.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Transaction is a single recorded movement of money.
type Transaction struct {
	ID        string          `json:"_id"`
	Amount    float64         `json:"amount"`
	Date      time.Time       `json:"date"`
	Category  string          `json:"category"`
	Purpose   string          `json:"purpose"`
	PaidBy    string          `json:"paidBy"`
	Type      TransactionType `json:"type,omitempty"`
	Notes     string          `json:"notes,omitempty"`
	Receipts  []string        `json:"receipts,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// TransactionInput is the payload for creating a transaction.
type TransactionInput struct {
	Amount   float64         `json:"amount"`
	Date     time.Time       `json:"date"`
	Category string          `json:"category"`
	Purpose  string          `json:"purpose"`
	PaidBy   string          `json:"paidBy"`
	Type     TransactionType `json:"type,omitempty"`
	Notes    string          `json:"notes,omitempty"`
}

// Validate checks the payload before it is sent.
func (in TransactionInput) Validate() error {
	return validator.Apply(
		validator.NonZero("amount", in.Amount, "Please enter a valid amount"),
		validator.Required("purpose", in.Purpose, "Please enter a purpose"),
		validator.Required("category", in.Category, "Please select a category"),
		validator.Required("paidBy", in.PaidBy, "Please select who paid"),
		validator.OneOf("paidBy", in.PaidBy, Payers, ""),
		validator.OneOf("type", in.Type, []TransactionType{TransactionIncome, TransactionExpense}, ""),
	)
}

// normalized returns a copy with text fields cleaned and the amount
// rounded to cents.
func (in TransactionInput) normalized() TransactionInput {
	in.Amount = sanitizer.Amount(in.Amount)
	in.Category = sanitizer.Text(in.Category)
	in.Purpose = sanitizer.Text(in.Purpose)
	in.PaidBy = sanitizer.Text(in.PaidBy)
	in.Notes = sanitizer.Notes(in.Notes)
	return in
}

// formFields renders the payload as multipart form fields.
func (in TransactionInput) formFields() map[string]string {
	fields := map[string]string{
		"amount":   strconv.FormatFloat(in.Amount, 'f', -1, 64),
		"date":     in.Date.UTC().Format(time.RFC3339),
		"category": in.Category,
		"purpose":  in.Purpose,
		"paidBy":   in.PaidBy,
	}
	if in.Type != "" {
		fields["type"] = string(in.Type)
	}
	if in.Notes != "" {
		fields["notes"] = in.Notes
	}
	return fields
}

// TransactionUpdate carries the fields to change. Nil fields are left as is.
type TransactionUpdate struct {
	Amount   *float64         `json:"amount,omitempty"`
	Date     *time.Time       `json:"date,omitempty"`
	Category *string          `json:"category,omitempty"`
	Purpose  *string          `json:"purpose,omitempty"`
	PaidBy   *string          `json:"paidBy,omitempty"`
	Type     *TransactionType `json:"type,omitempty"`
	Notes    *string          `json:"notes,omitempty"`
}

func (u TransactionUpdate) normalized() TransactionUpdate {
	if u.Amount != nil {
		u.Amount = ptr(sanitizer.Amount(*u.Amount))
	}
	for _, f := range []**string{&u.Category, &u.Purpose, &u.PaidBy} {
		if *f != nil {
			*f = ptr(sanitizer.Text(**f))
		}
	}
	if u.Notes != nil {
		u.Notes = ptr(sanitizer.Notes(*u.Notes))
	}
	return u
}

func ptr[T any](v T) *T {
	return &v
}

// Validate checks the fields that are set.
func (u TransactionUpdate) Validate() error {
	var rules []validator.Rule
	if u.Amount != nil {
		rules = append(rules, validator.NonZero("amount", *u.Amount, "Please enter a valid amount"))
	}
	if u.Purpose != nil {
		rules = append(rules, validator.Required("purpose", *u.Purpose, "Please enter a purpose"))
	}
	if u.Category != nil {
		rules = append(rules, validator.Required("category", *u.Category, "Please select a category"))
	}
	if u.PaidBy != nil {
		rules = append(rules, validator.OneOf("paidBy", *u.PaidBy, Payers, ""))
	}
	return validator.Apply(rules...)
}

// TransactionFilters narrows a transaction listing. Zero values are omitted
// from the query.
type TransactionFilters struct {
	Type      TransactionType
	Category  string
	PaidBy    string
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
	Page      int
	Limit     int
}

// Validate checks the date range and payer filters.
func (f TransactionFilters) Validate() error {
	return validator.Apply(
		validator.Date("startDate", f.StartDate, ""),
		validator.Date("endDate", f.EndDate, ""),
		validator.DateRange("endDate", f.StartDate, f.EndDate, ""),
		validator.OneOf("paidBy", f.PaidBy, Payers, ""),
	)
}

func (f TransactionFilters) query() url.Values {
	q := url.Values{}
	q.Set("type", string(f.Type))
	q.Set("category", f.Category)
	q.Set("paidBy", f.PaidBy)
	q.Set("startDate", f.StartDate)
	q.Set("endDate", f.EndDate)
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// TransactionList is one page of transactions.
type TransactionList struct {
	Success      bool          `json:"success"`
	Count        int           `json:"count"`
	Total        int           `json:"total,omitempty"`
	Page         int           `json:"page,omitempty"`
	Pages        int           `json:"pages,omitempty"`
	Transactions []Transaction `json:"data"`
}

// Balance is the current business balance.
type Balance struct {
	Success     bool      `json:"success"`
	Balance     float64   `json:"balance"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// BalanceResult is returned by set and adjust operations.
type BalanceResult struct {
	Success         bool     `json:"success"`
	Message         string   `json:"message,omitempty"`
	Balance         *float64 `json:"balance,omitempty"`
	PreviousBalance *float64 `json:"previousBalance,omitempty"`
}

// BalanceHistoryItem is one recorded balance change.
type BalanceHistoryItem struct {
	UserID          string    `json:"userId"`
	Timestamp       time.Time `json:"timestamp"`
	PreviousBalance float64   `json:"previousBalance"`
	NewBalance      float64   `json:"newBalance"`
	Reason          string    `json:"reason"`
	TransactionID   string    `json:"transactionId,omitempty"`
}

// Delta returns the signed change recorded by the entry.
func (i BalanceHistoryItem) Delta() float64 {
	return i.NewBalance - i.PreviousBalance
}

// BalanceHistory is the balance history response.
type BalanceHistory struct {
	Success bool                 `json:"success"`
	Count   int                  `json:"count"`
	History []BalanceHistoryItem `json:"history"`
}

// HistoryRange optionally bounds the balance history by calendar date.
type HistoryRange struct {
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
}

// Validate checks that the dates, when given, parse and are ordered.
func (r HistoryRange) Validate() error {
	return validator.Apply(
		validator.Date("startDate", r.StartDate, ""),
		validator.Date("endDate", r.EndDate, ""),
		validator.DateRange("endDate", r.StartDate, r.EndDate, ""),
	)
}

// ActionUser identifies who performed a logged action. The server sends
// either a populated user object or a bare id.
type ActionUser struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func (u *ActionUser) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &u.ID)
	}
	type plain ActionUser
	return json.Unmarshal(data, (*plain)(u))
}

// ActionLog is one audited user action.
type ActionLog struct {
	ID            string          `json:"_id"`
	Action        string          `json:"action"`
	User          ActionUser      `json:"userId"`
	Details       map[string]any  `json:"details,omitempty"`
	PreviousState json.RawMessage `json:"previousState,omitempty"`
	NewState      json.RawMessage `json:"newState,omitempty"`
	EntityID      string          `json:"entityId,omitempty"`
	EntityType    string          `json:"entityType,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// ActionLogList is the action log response.
type ActionLogList struct {
	Success    bool        `json:"success"`
	Count      int         `json:"count"`
	ActionLogs []ActionLog `json:"actionLogs"`
}
