package model

import "time"

// MonthlyRevenue is one bucket of the revenue chart. Month is "YYYY-MM" in UTC.
type MonthlyRevenue struct {
	Month    string `json:"month"`
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
	Count    int    `json:"count"`
}

// RevenueSummary totals successful payments in one currency
type RevenueSummary struct {
	Currency     string `json:"currency"`
	Total        int64  `json:"total"`
	Count        int    `json:"count"`
	AverageOrder int64  `json:"average_order"`
}

// BillingReport is what the dashboard loads for a date range
type BillingReport struct {
	From    *time.Time       `json:"from,omitempty"`
	To      *time.Time       `json:"to,omitempty"`
	Months  []MonthlyRevenue `json:"months"`
	Summary []RevenueSummary `json:"summary"`
}
