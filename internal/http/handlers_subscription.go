package http

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"subtrack/internal/core"
	"subtrack/internal/log"
	"subtrack/internal/services"
	"subtrack/internal/storage"
)

const dateLayout = "2006-01-02"

// plainAmount renders money as an ungrouped decimal for form inputs.
func plainAmount(m core.Money) string {
	return strconv.FormatInt(m.Cents/100, 10) + "." + pad2(m.Cents%100)
}

func pad2(n int64) string {
	if n < 0 {
		n = -n
	}
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

// parseSubscriptionForm turns form values into a SubscriptionInput. The
// returned message is user-facing; when it is non-empty the input must not
// reach the service layer.
func parseSubscriptionForm(r *http.Request) (services.SubscriptionInput, string) {
	var in services.SubscriptionInput

	in.Name = sanitizeInput(r.Form.Get("name"))
	if in.Name == "" {
		return in, "Name is required"
	}

	cents, err := core.ParseDecimalToCents(strings.TrimSpace(r.Form.Get("amount")))
	if err != nil {
		return in, "Enter a valid positive amount"
	}
	in.Amount = core.Money{Cents: cents}

	freq, err := core.ParseFrequency(r.Form.Get("frequency"))
	if err != nil {
		return in, "Choose a billing frequency"
	}
	in.Frequency = freq

	start, err := time.Parse(dateLayout, strings.TrimSpace(r.Form.Get("start_date")))
	if err != nil {
		return in, "Enter a valid start date"
	}
	in.StartDate = start

	in.BillingDay = start.Day()
	if v := strings.TrimSpace(r.Form.Get("billing_day")); v != "" {
		day, err := strconv.Atoi(v)
		if err != nil || day < 1 || day > 31 {
			return in, "Billing day must be between 1 and 31"
		}
		in.BillingDay = day
	}

	in.Category = sanitizeInput(r.Form.Get("category"))
	if in.Category == "" {
		return in, "Category is required"
	}

	if v := strings.TrimSpace(r.Form.Get("reminder_days")); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 {
			return in, "Reminder days must be zero or more"
		}
		in.ReminderDays = days
	}

	shared := r.Form.Get("shared")
	in.Shared = shared == "on" || shared == "true"
	if in.Shared {
		n, err := strconv.Atoi(strings.TrimSpace(r.Form.Get("participants")))
		if err != nil || n < 2 {
			return in, "Shared subscriptions need at least 2 participants"
		}
		in.Participants = n
	}

	return in, ""
}

// domainMessage maps domain validation errors to user-facing text.
func domainMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "Enter a valid positive amount", true
	case errors.Is(err, core.ErrInvalidFrequency):
		return "Choose a billing frequency", true
	case errors.Is(err, core.ErrInvalidBillingDay):
		return "Billing day must be between 1 and 31", true
	case errors.Is(err, core.ErrInvalidStartDate):
		return "Enter a valid start date", true
	case errors.Is(err, core.ErrInvalidReminderDays):
		return "Reminder days must be zero or more", true
	case errors.Is(err, core.ErrEmptyName):
		return "Name is required", true
	case errors.Is(err, core.ErrEmptyCategory):
		return "Category is required", true
	case errors.Is(err, core.ErrInvalidParticipants), errors.Is(err, core.ErrMissingTotalAmount):
		return "Shared subscriptions need at least 2 participants", true
	}
	return "", false
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		writeErrorFragment(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	in, msg := parseSubscriptionForm(r)
	if msg != "" {
		writeErrorFragment(w, http.StatusUnprocessableEntity, msg)
		return
	}

	sub, err := s.subscriptions.Create(r.Context(), user.ID, in)
	if err != nil {
		if msg, ok := domainMessage(err); ok {
			writeErrorFragment(w, http.StatusUnprocessableEntity, msg)
			return
		}
		s.logger.ErrorContext(r.Context(), "subscription create failed",
			log.FieldUserID, user.ID,
			log.FieldError, err)
		writeErrorFragment(w, http.StatusInternalServerError, "Could not save the subscription")
		return
	}

	s.metrics.SubscriptionsCreated.Inc()
	s.invalidateOverview(user.ID)
	s.logger.InfoContext(r.Context(), "subscription created",
		log.FieldUserID, user.ID,
		log.FieldSubscriptionID, sub.ID,
		log.FieldSubscription, sub.Name,
		log.FieldAmountCents, sub.MonthlyAmount.Cents)

	w.Header().Set("HX-Trigger", `{"subscription:changed": {}}`)
	writeSuccessFragment(w, "Saved "+sub.Name+" at "+sub.MonthlyAmount.String()+" per month")
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	id := mux.Vars(r)["id"]

	if err := r.ParseForm(); err != nil {
		writeErrorFragment(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	in, msg := parseSubscriptionForm(r)
	if msg != "" {
		writeErrorFragment(w, http.StatusUnprocessableEntity, msg)
		return
	}

	sub, err := s.subscriptions.Update(r.Context(), user.ID, id, in)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeErrorFragment(w, http.StatusNotFound, "Subscription not found")
			return
		}
		if msg, ok := domainMessage(err); ok {
			writeErrorFragment(w, http.StatusUnprocessableEntity, msg)
			return
		}
		s.logger.ErrorContext(r.Context(), "subscription update failed",
			log.FieldUserID, user.ID,
			log.FieldSubscriptionID, id,
			log.FieldError, err)
		writeErrorFragment(w, http.StatusInternalServerError, "Could not save the subscription")
		return
	}

	s.metrics.SubscriptionsUpdated.Inc()
	s.invalidateOverview(user.ID)
	s.logger.InfoContext(r.Context(), "subscription updated",
		log.FieldUserID, user.ID,
		log.FieldSubscriptionID, sub.ID)

	w.Header().Set("HX-Trigger", `{"subscription:changed": {}}`)
	writeSuccessFragment(w, "Updated "+sub.Name)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	id := mux.Vars(r)["id"]

	if err := s.subscriptions.Delete(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeErrorFragment(w, http.StatusNotFound, "Subscription not found")
			return
		}
		s.logger.ErrorContext(r.Context(), "subscription delete failed",
			log.FieldUserID, user.ID,
			log.FieldSubscriptionID, id,
			log.FieldError, err)
		writeErrorFragment(w, http.StatusInternalServerError, "Could not delete the subscription")
		return
	}

	s.metrics.SubscriptionsDeleted.Inc()
	s.invalidateOverview(user.ID)
	s.logger.InfoContext(r.Context(), "subscription deleted",
		log.FieldUserID, user.ID,
		log.FieldSubscriptionID, id)

	w.Header().Set("HX-Trigger", `{"subscription:changed": {}}`)
	w.WriteHeader(http.StatusOK)
}

// subscriptionRow is the list view model.
type subscriptionRow struct {
	ID           string
	Name         string
	Category     string
	Frequency    string
	Actual       string
	Monthly      string
	NextBilling  string
	DaysLeft     int
	Shared       bool
	Participants int
}

func newSubscriptionRow(sub core.Subscription, today time.Time) subscriptionRow {
	due := sub.NextBilling(today)
	row := subscriptionRow{
		ID:          sub.ID,
		Name:        sub.Name,
		Category:    sub.Category,
		Frequency:   string(sub.Frequency),
		Actual:      sub.ActualAmount.String(),
		Monthly:     sub.MonthlyAmount.String(),
		NextBilling: due.Format("02 Jan 2006"),
		DaysLeft:    core.DaysUntil(due, today),
		Shared:      sub.Shared,
	}
	if sub.Participants != nil {
		row.Participants = *sub.Participants
	}
	return row
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	subs, err := s.subscriptions.List(r.Context(), user.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "subscription list failed",
			log.FieldUserID, user.ID,
			log.FieldError, err)
		writeErrorFragment(w, http.StatusInternalServerError, "Could not load subscriptions")
		return
	}

	today := time.Now()
	rows := make([]subscriptionRow, 0, len(subs))
	for _, sub := range subs {
		rows = append(rows, newSubscriptionRow(sub, today))
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DaysLeft < rows[j].DaysLeft
	})

	s.renderTemplate(w, r, "subscriptions.html", struct {
		Rows []subscriptionRow
	}{Rows: rows})
}

func (s *Server) handleEditSubscriptionForm(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	id := mux.Vars(r)["id"]

	sub, err := s.subscriptions.Get(r.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeErrorFragment(w, http.StatusNotFound, "Subscription not found")
			return
		}
		s.logger.ErrorContext(r.Context(), "subscription load failed",
			log.FieldUserID, user.ID,
			log.FieldSubscriptionID, id,
			log.FieldError, err)
		writeErrorFragment(w, http.StatusInternalServerError, "Could not load the subscription")
		return
	}

	data := struct {
		ID           string
		Name         string
		Amount       string
		Frequency    string
		StartDate    string
		BillingDay   int
		Category     string
		ReminderDays int
		Shared       bool
		Participants int
	}{
		ID:           sub.ID,
		Name:         sub.Name,
		Frequency:    string(sub.Frequency),
		StartDate:    sub.StartDate.Format(dateLayout),
		BillingDay:   sub.BillingDay,
		Category:     sub.Category,
		ReminderDays: sub.ReminderDays,
		Shared:       sub.Shared,
	}
	// The form edits the billed amount: the split total for shared
	// subscriptions, the actual amount otherwise.
	if sub.Shared && sub.TotalAmount != nil {
		data.Amount = plainAmount(*sub.TotalAmount)
	} else {
		data.Amount = plainAmount(sub.ActualAmount)
	}
	if sub.Participants != nil {
		data.Participants = *sub.Participants
	}

	s.renderTemplate(w, r, "subscription_edit.html", data)
}
