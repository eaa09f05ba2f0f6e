// Package finance aggregates session revenue into monthly and annual
// reports and exports them as spreadsheets.
package finance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"praxis/internal/model"
)

// Repository is the storage surface reports are built from.
type Repository interface {
	SessionsInRange(ctx context.Context, from, to time.Time) ([]model.Session, error)
	UnpaidCompletedSessions(ctx context.Context) ([]model.Session, error)
}

// Service builds financial reports.
type Service struct {
	repo Repository
}

// NewService returns a report service over the given storage.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ClientLine is one client's totals within a report.
type ClientLine struct {
	ClientID    int64   `json:"client_id"`
	ClientName  string  `json:"client_name"`
	Sessions    int     `json:"sessions"`
	Completed   int     `json:"completed"`
	BilledValue float64 `json:"billed_value"`
	PaidValue   float64 `json:"paid_value"`
	Outstanding float64 `json:"outstanding"`
}

// MonthlyReport aggregates one calendar month.
type MonthlyReport struct {
	Year            int                `json:"year"`
	Month           time.Month         `json:"month"`
	TotalSessions   int                `json:"total_sessions"`
	Completed       int                `json:"completed"`
	Cancelled       int                `json:"cancelled"`
	NoShows         int                `json:"no_shows"`
	BilledValue     float64            `json:"billed_value"`
	PaidValue       float64            `json:"paid_value"`
	Outstanding     float64            `json:"outstanding"`
	ByClient        []ClientLine       `json:"by_client"`
	ByPaymentMethod map[string]float64 `json:"by_payment_method"`
}

// Monthly builds the report for one calendar month. Billed value covers
// billable completed sessions; outstanding is the billed amount not yet
// paid.
func (s *Service) Monthly(ctx context.Context, year int, month time.Month) (*MonthlyReport, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	sessions, err := s.repo.SessionsInRange(ctx, from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, fmt.Errorf("load sessions for %d-%02d: %w", year, month, err)
	}

	report := &MonthlyReport{
		Year:            year,
		Month:           month,
		ByPaymentMethod: make(map[string]float64),
	}
	lines := make(map[int64]*ClientLine)
	for i := range sessions {
		sess := &sessions[i]
		if !sess.Active {
			continue
		}
		report.TotalSessions++

		line, ok := lines[sess.ClientID]
		if !ok {
			line = &ClientLine{ClientID: sess.ClientID, ClientName: sess.ClientName}
			lines[sess.ClientID] = line
		}
		line.Sessions++

		switch {
		case sess.Status == model.StatusCompleted:
			report.Completed++
			line.Completed++
			if sess.Billable {
				report.BilledValue += sess.Value
				line.BilledValue += sess.Value
				if sess.Paid {
					report.PaidValue += sess.Value
					line.PaidValue += sess.Value
					method := sess.PaymentMethod
					if method == "" {
						method = "unspecified"
					}
					report.ByPaymentMethod[method] += sess.Value
				}
			}
		case sess.Status.IsCancellation():
			report.Cancelled++
		case sess.Status == model.StatusNoShow:
			report.NoShows++
		}
	}
	report.Outstanding = report.BilledValue - report.PaidValue

	for _, line := range lines {
		line.Outstanding = line.BilledValue - line.PaidValue
		report.ByClient = append(report.ByClient, *line)
	}
	sort.Slice(report.ByClient, func(i, j int) bool {
		return report.ByClient[i].ClientName < report.ByClient[j].ClientName
	})
	return report, nil
}

// MonthSummary is one row of an annual report.
type MonthSummary struct {
	Month       time.Month `json:"month"`
	Sessions    int        `json:"sessions"`
	Completed   int        `json:"completed"`
	BilledValue float64    `json:"billed_value"`
	PaidValue   float64    `json:"paid_value"`
}

// AnnualReport aggregates a calendar year month by month.
type AnnualReport struct {
	Year        int            `json:"year"`
	Months      []MonthSummary `json:"months"`
	BilledValue float64        `json:"billed_value"`
	PaidValue   float64        `json:"paid_value"`
}

// Annual builds the year report from twelve monthly aggregations.
func (s *Service) Annual(ctx context.Context, year int) (*AnnualReport, error) {
	report := &AnnualReport{Year: year}
	for month := time.January; month <= time.December; month++ {
		monthly, err := s.Monthly(ctx, year, month)
		if err != nil {
			return nil, err
		}
		report.Months = append(report.Months, MonthSummary{
			Month:       month,
			Sessions:    monthly.TotalSessions,
			Completed:   monthly.Completed,
			BilledValue: monthly.BilledValue,
			PaidValue:   monthly.PaidValue,
		})
		report.BilledValue += monthly.BilledValue
		report.PaidValue += monthly.PaidValue
	}
	return report, nil
}

// Outstanding lists clients with unpaid completed sessions, largest debt
// first.
func (s *Service) Outstanding(ctx context.Context) ([]ClientLine, error) {
	sessions, err := s.repo.UnpaidCompletedSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load unpaid sessions: %w", err)
	}
	lines := make(map[int64]*ClientLine)
	for i := range sessions {
		sess := &sessions[i]
		line, ok := lines[sess.ClientID]
		if !ok {
			line = &ClientLine{ClientID: sess.ClientID, ClientName: sess.ClientName}
			lines[sess.ClientID] = line
		}
		line.Sessions++
		line.Completed++
		line.BilledValue += sess.Value
		line.Outstanding += sess.Value
	}
	out := make([]ClientLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, *line)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Outstanding != out[j].Outstanding {
			return out[i].Outstanding > out[j].Outstanding
		}
		return out[i].ClientName < out[j].ClientName
	})
	return out, nil
}
