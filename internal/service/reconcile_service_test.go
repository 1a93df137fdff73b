package service

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/westgate-cre/outreach-backend/internal/model"
)

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name    string
		summary model.LeadSignalSummary
		want    string
	}{
		{"hot wins over everything", model.LeadSignalSummary{HasHot: true, HasPass: true, HasBounce: true, InboundCount: 3}, model.LeadEngaged},
		{"question beats pass", model.LeadSignalSummary{HasQuestion: true, HasPass: true}, model.LeadReplied},
		{"pass beats bounce", model.LeadSignalSummary{HasPass: true, HasBounce: true}, model.LeadNurture},
		{"bounce alone", model.LeadSignalSummary{HasBounce: true, OutboundCount: 1}, model.LeadContacted},
		{"unclassified inbound", model.LeadSignalSummary{InboundCount: 1, OutboundCount: 2}, model.LeadReplied},
		{"outbound only", model.LeadSignalSummary{OutboundCount: 2}, model.LeadContacted},
		{"no signals keeps current", model.LeadSignalSummary{CurrentStatus: model.LeadWaiting}, model.LeadWaiting},
	}
	for _, tc := range cases {
		if got := deriveStatus(tc.summary); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestShouldUpdate(t *testing.T) {
	cases := []struct {
		name      string
		current   string
		suggested string
		force     bool
		want      bool
	}{
		{"no-op", model.LeadReplied, model.LeadReplied, false, false},
		{"forward move", model.LeadContacted, model.LeadReplied, false, true},
		{"skip-level forward", model.LeadNew, model.LeadEngaged, false, true},
		{"backward blocked", model.LeadEngaged, model.LeadContacted, false, false},
		{"bounce never downgrades engaged", model.LeadEngaged, model.LeadContacted, false, false},
		{"new accepts anything", model.LeadNew, model.LeadContacted, false, true},
		{"nurture lateral from replied", model.LeadReplied, model.LeadNurture, false, true},
		{"nurture from contacted", model.LeadContacted, model.LeadNurture, false, true},
		{"nurture blocked from engaged", model.LeadEngaged, model.LeadNurture, false, false},
		{"closed immovable", model.LeadClosed, model.LeadEngaged, false, false},
		{"closed moves under force", model.LeadClosed, model.LeadEngaged, true, true},
		{"handed_off immovable", model.LeadHandedOff, model.LeadReplied, false, false},
		{"force overrides monotonicity", model.LeadQualified, model.LeadContacted, true, true},
	}
	for _, tc := range cases {
		if got := shouldUpdate(tc.current, tc.suggested, tc.force); got != tc.want {
			t.Errorf("%s: shouldUpdate(%s, %s, %v) = %v, want %v", tc.name, tc.current, tc.suggested, tc.force, got, tc.want)
		}
	}
}

func TestPreviewDoesNotMutate(t *testing.T) {
	leadRepo := newMockLeadRepo()
	leadRepo.summaries = []model.LeadSignalSummary{
		{LeadID: "lead-1", LeadName: "Harborview", CurrentStatus: model.LeadNew, OutboundCount: 2},
		{LeadID: "lead-2", LeadName: "Crestline", CurrentStatus: model.LeadEngaged, HasBounce: true, OutboundCount: 1},
	}
	svc := &ReconcileService{LeadRepo: leadRepo}

	result, err := svc.Preview(false, nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.Mode != "dry_run" {
		t.Errorf("mode = %q", result.Mode)
	}
	if result.TotalLeadsWithActivity != 2 {
		t.Errorf("total = %d, want 2", result.TotalLeadsWithActivity)
	}
	// lead-1 advances new → contacted; lead-2 would downgrade and is held.
	if result.ChangesNeeded != 1 {
		t.Fatalf("changes = %d, want 1", result.ChangesNeeded)
	}
	if result.Summary["new → contacted"] != 1 {
		t.Errorf("summary = %v", result.Summary)
	}

	if len(leadRepo.statusUpdates) != 0 || len(leadRepo.activities) != 0 {
		t.Errorf("preview wrote to the repository")
	}
}

func TestApplyUpdatesAndIsIdempotent(t *testing.T) {
	leadRepo := newMockLeadRepo()
	leadRepo.summaries = []model.LeadSignalSummary{
		{LeadID: "lead-1", LeadName: "Harborview", CurrentStatus: model.LeadContacted, HasQuestion: true, InboundCount: 1, OutboundCount: 2},
		{LeadID: "lead-2", LeadName: "Crestline", CurrentStatus: model.LeadQualified, InboundCount: 1},
	}
	svc := &ReconcileService{LeadRepo: leadRepo}

	result, err := svc.Apply(false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Updated != 1 || result.Skipped != 1 {
		t.Errorf("result = %+v", result)
	}
	if leadRepo.statusUpdates["lead-1"] != model.LeadReplied {
		t.Errorf("lead-1 status = %q", leadRepo.statusUpdates["lead-1"])
	}
	if _, ok := leadRepo.statusUpdates["lead-2"]; ok {
		t.Errorf("qualified lead must not be downgraded")
	}

	if len(leadRepo.activities) != 1 {
		t.Fatalf("activities = %d, want 1", len(leadRepo.activities))
	}
	activity := leadRepo.activities[0]
	if activity.ActivityType != "status_change" {
		t.Errorf("activity type = %q", activity.ActivityType)
	}
	if !strings.Contains(activity.Metadata, `"reconciled_by":"lead-status-reconciler"`) {
		t.Errorf("metadata = %s", activity.Metadata)
	}
	if !strings.Contains(activity.Metadata, `"from_status":"contacted"`) {
		t.Errorf("metadata = %s", activity.Metadata)
	}

	// A second run with the same signals changes nothing.
	again, err := svc.Apply(false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if again.Updated != 0 {
		t.Errorf("second run updated %d leads, want 0", again.Updated)
	}
}

func TestApplyCountsPerLeadErrors(t *testing.T) {
	leadRepo := newMockLeadRepo()
	leadRepo.summaries = []model.LeadSignalSummary{
		{LeadID: "lead-bad", CurrentStatus: model.LeadNew, OutboundCount: 1},
		{LeadID: "lead-good", CurrentStatus: model.LeadNew, OutboundCount: 1},
	}
	leadRepo.updateErrFor["lead-bad"] = errBoom
	svc := &ReconcileService{LeadRepo: leadRepo}

	result, err := svc.Apply(false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Errors != 1 {
		t.Errorf("errors = %d, want 1", result.Errors)
	}
	if result.Updated != 1 {
		t.Errorf("the batch must continue past a bad lead: updated = %d", result.Updated)
	}
	if leadRepo.statusUpdates["lead-good"] != model.LeadContacted {
		t.Errorf("lead-good not updated")
	}
}

func TestApplyScopedToLeadIDs(t *testing.T) {
	leadRepo := newMockLeadRepo()
	leadRepo.summaries = []model.LeadSignalSummary{
		{LeadID: "lead-1", CurrentStatus: model.LeadNew, OutboundCount: 1},
		{LeadID: "lead-2", CurrentStatus: model.LeadNew, OutboundCount: 1},
	}
	svc := &ReconcileService{LeadRepo: leadRepo}

	result, err := svc.Apply(false, []string{"lead-1"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Processed != 1 || result.Updated != 1 {
		t.Errorf("result = %+v", result)
	}
	if _, ok := leadRepo.statusUpdates["lead-2"]; ok {
		t.Errorf("lead-2 was outside the requested scope")
	}
}

func TestApplyProducesHotLeadsReview(t *testing.T) {
	now := time.Now()
	leadRepo := newMockLeadRepo()
	leadRepo.summaries = []model.LeadSignalSummary{
		{LeadID: "lead-hot", LeadName: "Harborview", CurrentStatus: model.LeadContacted, HasHot: true, InboundCount: 1, OutboundCount: 1},
	}
	leadRepo.signals["lead-hot"] = []model.EmailSignal{
		{ID: "sig-2", Direction: model.DirectionInbound, Classification: model.ClassHot, FromEmail: "dana@example.com", BodyText: "Yes, let's talk about selling.", OccurredAt: now.Add(-3 * 24 * time.Hour)},
		{ID: "sig-1", Direction: model.DirectionOutbound, OccurredAt: now.Add(-10 * 24 * time.Hour)},
	}
	leadRepo.contacts["lead-hot"] = &model.Contact{ID: "contact-1", Name: "Dana Whitfield", Email: "dana@example.com"}
	svc := &ReconcileService{LeadRepo: leadRepo}

	result, err := svc.Apply(false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.HotLeadsReview) != 1 {
		t.Fatalf("hot leads review = %d entries, want 1", len(result.HotLeadsReview))
	}

	review := result.HotLeadsReview[0]
	if review.Assessment != "promising" {
		t.Errorf("assessment = %q, want promising", review.Assessment)
	}
	if review.WeRepliedAfter {
		t.Errorf("no outbound came after the hot reply")
	}
	if review.ContactEmail != "dana@example.com" {
		t.Errorf("contact email = %q", review.ContactEmail)
	}
	if review.DaysSinceLastActivity != 3 {
		t.Errorf("days = %d, want 3", review.DaysSinceLastActivity)
	}
}

func TestAssessHotLead(t *testing.T) {
	cases := []struct {
		days           int
		weRepliedAfter bool
		want           string
	}{
		{3, true, "promising"},
		{3, false, "promising"},
		{14, false, "promising"},
		{20, true, "needs_review"},
		{20, false, "promising"},
		{30, true, "needs_review"},
		{45, true, "stale"},
		{45, false, "needs_review"},
	}
	for _, tc := range cases {
		got, reason := assessHotLead(tc.days, tc.weRepliedAfter)
		if got != tc.want {
			t.Errorf("assessHotLead(%d, %v) = %q, want %q", tc.days, tc.weRepliedAfter, got, tc.want)
		}
		if reason == "" {
			t.Errorf("assessHotLead(%d, %v) returned no reason", tc.days, tc.weRepliedAfter)
		}
	}
}

func TestSnippetKeepsMultibyteTextValid(t *testing.T) {
	short := "quick note"
	if got := snippet(short, 200); got != short {
		t.Errorf("snippet(%q) = %q", short, got)
	}

	long := strings.Repeat("é", 250)
	got := snippet(long, 200)
	if !utf8.ValidString(got) {
		t.Fatalf("snippet produced invalid UTF-8: %q", got)
	}
	if got != strings.Repeat("é", 200)+"..." {
		t.Errorf("snippet truncated at %d runes, got %d", 200, utf8.RuneCountInString(got))
	}
}
