package http

import (
	"net/http"
	"time"

	"subtrack/internal/core"
	"subtrack/internal/log"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	data := struct {
		Email string
		Today string // YYYY-MM-DD, pre-fills the start-date input
	}{
		Email: user.Email,
		Today: time.Now().Format(dateLayout),
	}
	s.renderTemplate(w, r, "index.html", data)
}

type upcomingRow struct {
	Name     string
	Amount   string
	DueOn    string
	DaysLeft int
}

type categoryRow struct {
	Name   string
	Amount string
	Width  int
}

// handleOverview renders the dashboard overview partial.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	today := time.Now()
	summary, err := s.getOverview(r.Context(), user.ID, today)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "overview failed",
			log.FieldUserID, user.ID,
			log.FieldError, err)
		_, _ = w.Write([]byte(`<section id="overview" class="overview"><div class="placeholder">Could not load the overview</div></section>`))
		return
	}

	data := struct {
		MonthlySpend string
		YearlySpend  string
		HasNextDue   bool
		NextDueName  string
		NextDueOn    string
		NextDueDays  int
		Upcoming     []upcomingRow
		Categories   []categoryRow
	}{
		MonthlySpend: summary.MonthlySpend.String(),
		YearlySpend:  summary.YearlySpend.String(),
	}

	if summary.NextDue != nil {
		data.HasNextDue = true
		data.NextDueName = summary.NextDue.Subscription.Name
		data.NextDueOn = summary.NextDue.DueOn.Format("02 Jan 2006")
		data.NextDueDays = summary.NextDue.DaysLeft
	}

	for _, up := range summary.Upcoming {
		data.Upcoming = append(data.Upcoming, upcomingRow{
			Name:     up.Subscription.Name,
			Amount:   up.Subscription.ActualAmount.String(),
			DueOn:    up.DueOn.Format("02 Jan 2006"),
			DaysLeft: up.DaysLeft,
		})
	}

	// Scale category bars against the largest category.
	var maxCents int64
	for _, c := range summary.ByCategory {
		if c.Amount.Cents > maxCents {
			maxCents = c.Amount.Cents
		}
	}
	for _, c := range summary.ByCategory {
		width := 0
		if maxCents > 0 && c.Amount.Cents > 0 {
			width = int((c.Amount.Cents*100 + maxCents/2) / maxCents)
			if width > 0 && width < 2 {
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		data.Categories = append(data.Categories, categoryRow{
			Name:   c.Name,
			Amount: c.Amount.String(),
			Width:  width,
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="overview" class="overview"><div class="placeholder">Monthly: ` + core.FormatRupees(summary.MonthlySpend.Cents) + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "overview.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "overview template failed",
			log.FieldUserID, user.ID,
			log.FieldError, err)
		_, _ = w.Write([]byte(`<section id="overview" class="overview"><div class="placeholder">Could not render the overview</div></section>`))
	}
}
