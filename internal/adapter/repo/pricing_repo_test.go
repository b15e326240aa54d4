package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/sqlinline"
)

func testApplication() domain.PriceApplication {
	return domain.PriceApplication{
		TenantID:     "acme",
		ProductID:    "9f1c2f7e-8f57-4a53-9f65-6a2f3b8f1a10",
		SuggestionID: "3d9b5f0e-4c1a-4e7b-8f7e-0b4c2d1e9a22",
		OldPrice:     100,
		NewPrice:     110,
		Action:       domain.AuditActionAutoPriceApproved,
		AppliedAt:    time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC),
	}
}

func TestApplySuggestionRunsAllStatementsInOneTx(t *testing.T) {
	runner := newStubRunner()
	store := NewPricingStore(runner)

	if err := store.ApplySuggestion(context.Background(), testApplication()); err != nil {
		t.Fatalf("ApplySuggestion error: %v", err)
	}
	if runner.txBegun != 1 || runner.txAborted != 0 {
		t.Fatalf("tx begun=%d aborted=%d", runner.txBegun, runner.txAborted)
	}
	for _, q := range []string{sqlinline.QMarkSuggestionApplied, sqlinline.QApplyAutoProductPrice, sqlinline.QInsertActivityLog} {
		if !runner.executed(q) {
			t.Fatalf("expected statement to run:\n%s", q)
		}
	}
	if runner.executed(sqlinline.QApplyProductPrice) {
		t.Fatalf("auto-approval must use the guarded price update")
	}
}

func TestApplySuggestionManualUsesUnguardedUpdate(t *testing.T) {
	runner := newStubRunner()
	store := NewPricingStore(runner)
	app := testApplication()
	app.Action = domain.AuditActionPriceApproved

	if err := store.ApplySuggestion(context.Background(), app); err != nil {
		t.Fatalf("ApplySuggestion error: %v", err)
	}
	if !runner.executed(sqlinline.QApplyProductPrice) || runner.executed(sqlinline.QApplyAutoProductPrice) {
		t.Fatalf("manual approval should use the plain price update")
	}
}

func TestApplySuggestionIneligibleProductRollsBack(t *testing.T) {
	runner := newStubRunner()
	runner.affected[sqlinline.QApplyAutoProductPrice] = 0
	store := NewPricingStore(runner)

	err := store.ApplySuggestion(context.Background(), testApplication())
	if !errors.Is(err, domain.ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible, got %v", err)
	}
	if runner.txAborted != 1 {
		t.Fatalf("expected rollback")
	}
	if runner.executed(sqlinline.QInsertActivityLog) {
		t.Fatalf("activity log must not be written for an ineligible product")
	}
}

func TestApplySuggestionAlreadyAppliedRollsBack(t *testing.T) {
	runner := newStubRunner()
	runner.affected[sqlinline.QMarkSuggestionApplied] = 0
	store := NewPricingStore(runner)

	err := store.ApplySuggestion(context.Background(), testApplication())
	if !errors.Is(err, domain.ErrAlreadyApplied) {
		t.Fatalf("expected ErrAlreadyApplied, got %v", err)
	}
	if runner.txAborted != 1 {
		t.Fatalf("expected rollback")
	}
	if runner.executed(sqlinline.QApplyAutoProductPrice) || runner.executed(sqlinline.QInsertActivityLog) {
		t.Fatalf("no further statements should run after the guard fails")
	}
}

func TestApplySuggestionAuditFailureRollsBack(t *testing.T) {
	runner := newStubRunner()
	runner.execErr[sqlinline.QInsertActivityLog] = errors.New("disk full")
	store := NewPricingStore(runner)

	if err := store.ApplySuggestion(context.Background(), testApplication()); err == nil {
		t.Fatalf("expected error")
	}
	if runner.txAborted != 1 {
		t.Fatalf("expected rollback")
	}
}

func TestLatestUnappliedWithoutRowsReturnsNil(t *testing.T) {
	store := NewPricingStore(newStubRunner())
	sug, err := store.LatestUnapplied(context.Background(), "acme", "p1")
	if err != nil {
		t.Fatalf("LatestUnapplied error: %v", err)
	}
	if sug != nil {
		t.Fatalf("expected nil suggestion, got %+v", sug)
	}
}

func TestGetProductNotFound(t *testing.T) {
	store := NewPricingStore(newStubRunner())
	if _, err := store.GetProduct(context.Background(), "acme", "p1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryPricingStoreApplyIsAllOrNothing(t *testing.T) {
	app := testApplication()
	store := NewMemoryPricingStore(domain.Product{ID: app.ProductID, TenantID: "acme", CurrentPrice: 100, AutoApprove: true, Status: domain.ProductStatusPending})
	store.PutSuggestion(domain.PriceSuggestion{ID: app.SuggestionID, TenantID: "acme", ProductID: app.ProductID, SuggestedPrice: 110})
	store.FailApply = func(string) error { return errors.New("storage down") }

	if err := store.ApplySuggestion(context.Background(), app); err == nil {
		t.Fatalf("expected error")
	}
	p, _ := store.GetProduct(context.Background(), "acme", app.ProductID)
	if p.CurrentPrice != 100 || p.Status != domain.ProductStatusPending || len(store.Audit()) != 0 {
		t.Fatalf("failed apply leaked effects: %+v audit=%d", p, len(store.Audit()))
	}

	store.FailApply = nil
	if err := store.ApplySuggestion(context.Background(), app); err != nil {
		t.Fatalf("ApplySuggestion error: %v", err)
	}
	if err := store.ApplySuggestion(context.Background(), app); !errors.Is(err, domain.ErrAlreadyApplied) {
		t.Fatalf("second apply should fail with ErrAlreadyApplied, got %v", err)
	}
	p, _ = store.GetProduct(context.Background(), "acme", app.ProductID)
	if p.CurrentPrice != 110 || p.Status != domain.ProductStatusApproved || len(store.Audit()) != 1 {
		t.Fatalf("apply effects missing: %+v audit=%d", p, len(store.Audit()))
	}
}

func TestMemoryPricingStoreRejectsAutoApplyAfterOptOut(t *testing.T) {
	app := testApplication()
	store := NewMemoryPricingStore(domain.Product{ID: app.ProductID, TenantID: "acme", CurrentPrice: 100, AutoApprove: false, Status: domain.ProductStatusPending})
	store.PutSuggestion(domain.PriceSuggestion{ID: app.SuggestionID, TenantID: "acme", ProductID: app.ProductID, SuggestedPrice: 110})

	if err := store.ApplySuggestion(context.Background(), app); !errors.Is(err, domain.ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible, got %v", err)
	}
	p, _ := store.GetProduct(context.Background(), "acme", app.ProductID)
	if p.CurrentPrice != 100 || p.Status != domain.ProductStatusPending || len(store.Audit()) != 0 {
		t.Fatalf("ineligible apply leaked effects: %+v audit=%d", p, len(store.Audit()))
	}
	sug, _ := store.LatestUnapplied(context.Background(), "acme", app.ProductID)
	if sug == nil || sug.ID != app.SuggestionID {
		t.Fatalf("suggestion should stay unapplied, got %+v", sug)
	}

	app.Action = domain.AuditActionPriceApproved
	if err := store.ApplySuggestion(context.Background(), app); err != nil {
		t.Fatalf("manual approval should ignore the opt-out: %v", err)
	}
}

func testSuggestion() *domain.PriceSuggestion {
	return &domain.PriceSuggestion{
		ID:             "3d9b5f0e-4c1a-4e7b-8f7e-0b4c2d1e9a22",
		TenantID:       "acme",
		ProductID:      "9f1c2f7e-8f57-4a53-9f65-6a2f3b8f1a10",
		CurrentPrice:   100,
		SuggestedPrice: 108,
		Confidence:     0.82,
		Source:         domain.SourceAdvisor,
		CreatedAt:      time.Date(2025, 3, 1, 1, 0, 0, 0, time.UTC),
	}
}

func TestSaveSuggestionLogsActivityInSameTx(t *testing.T) {
	runner := newStubRunner()
	store := NewPricingStore(runner)

	if err := store.SaveSuggestion(context.Background(), testSuggestion()); err != nil {
		t.Fatalf("SaveSuggestion error: %v", err)
	}
	if runner.txBegun != 1 || runner.txAborted != 0 {
		t.Fatalf("tx begun=%d aborted=%d", runner.txBegun, runner.txAborted)
	}
	var logged *call
	for i := range runner.calls {
		if runner.calls[i].query == sqlinline.QInsertActivityLog {
			logged = &runner.calls[i]
		}
	}
	if logged == nil {
		t.Fatalf("expected activity log insert")
	}
	if logged.args[1] != domain.AuditActionPriceSuggested || logged.args[3] != "9f1c2f7e-8f57-4a53-9f65-6a2f3b8f1a10" {
		t.Fatalf("unexpected activity log args %v", logged.args)
	}
}

func TestSaveSuggestionActivityFailureRollsBack(t *testing.T) {
	runner := newStubRunner()
	runner.execErr[sqlinline.QInsertActivityLog] = errors.New("disk full")
	store := NewPricingStore(runner)

	if err := store.SaveSuggestion(context.Background(), testSuggestion()); err == nil {
		t.Fatalf("expected error")
	}
	if runner.txAborted != 1 {
		t.Fatalf("expected rollback")
	}
}

func TestMemoryPricingStoreLogsSuggestions(t *testing.T) {
	sug := testSuggestion()
	store := NewMemoryPricingStore(domain.Product{ID: sug.ProductID, TenantID: "acme", CurrentPrice: 100})

	if err := store.SaveSuggestion(context.Background(), sug); err != nil {
		t.Fatalf("SaveSuggestion error: %v", err)
	}
	audit := store.Audit()
	if len(audit) != 1 {
		t.Fatalf("expected one activity entry, got %d", len(audit))
	}
	entry := audit[0]
	if entry.Action != domain.AuditActionPriceSuggested || entry.EntityID != sug.ProductID || entry.Details["suggestedPrice"] != 108.0 {
		t.Fatalf("unexpected entry %+v", entry)
	}
}
