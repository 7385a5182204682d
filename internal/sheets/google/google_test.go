package google

import (
	"context"
	"strings"
	"testing"
	"time"

	"subtrack/internal/core"
)

func TestNewFromEnvMissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnvMissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if !strings.Contains(err.Error(), "service account credentials") {
		t.Errorf("expected credentials error, got: %v", err)
	}
}

func TestExportRejectsInvalidSubscription(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "2026 Subscriptions"}

	invalid := core.Subscription{Name: ""} // fails validation before any API call
	_, err := c.Export(context.Background(), invalid)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSubscriptionRow(t *testing.T) {
	sub := core.Subscription{
		ID:            "sub-1",
		OwnerID:       "user-1",
		Name:          "Music Plus",
		Category:      "entertainment",
		Frequency:     core.Yearly,
		ActualAmount:  core.Money{Cents: 120000},
		MonthlyAmount: core.Money{Cents: 10000},
		StartDate:     time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
		BillingDay:    15,
	}

	row := subscriptionRow(sub)
	if len(row) != 10 {
		t.Fatalf("row length = %d, want 10", len(row))
	}
	if row[0] != "sub-1" || row[2] != "Music Plus" {
		t.Errorf("unexpected identity columns: %v", row[:3])
	}
	if row[5] != 1200.0 {
		t.Errorf("actual amount column = %v, want 1200.0", row[5])
	}
	if row[6] != 100.0 {
		t.Errorf("monthly column = %v, want 100.0", row[6])
	}
	if row[7] != "2025-01-15" {
		t.Errorf("start date column = %v", row[7])
	}
}

func TestYearPrefixedName(t *testing.T) {
	if got := yearPrefixedName("Subscriptions", 2026); got != "2026 Subscriptions" {
		t.Errorf("yearPrefixedName = %q", got)
	}
	if got := yearPrefixedName("2026 Subscriptions", 2026); got != "2026 Subscriptions" {
		t.Errorf("yearPrefixedName already prefixed = %q", got)
	}
}
