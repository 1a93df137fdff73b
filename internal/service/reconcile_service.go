// internal/service/reconcile_service.go
package service

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/westgate-cre/outreach-backend/internal/metrics"
	"github.com/westgate-cre/outreach-backend/internal/model"
	"github.com/westgate-cre/outreach-backend/internal/repository"
)

// statusPriority orders pipeline stages; higher means further along.
// nurture shares replied's rank: moving into it is lateral, not forward.
var statusPriority = map[string]int{
	model.LeadNew:       0,
	model.LeadContacted: 1,
	model.LeadReplied:   2,
	model.LeadNurture:   2,
	model.LeadEngaged:   3,
	model.LeadWaiting:   4,
	model.LeadQualified: 5,
	model.LeadHandedOff: 6,
	model.LeadClosed:    7,
}

// ReconcileService re-derives lead pipeline statuses from classified
// email signals. It only ever advances a lead (plus the documented
// nurture lateral move); ambiguous signals never downgrade progress.
type ReconcileService struct {
	LeadRepo repository.LeadRepositoryInterface
}

// StatusChange is one proposed or applied transition with the signal
// vector that produced it.
type StatusChange struct {
	LeadID        string `json:"lead_id"`
	LeadName      string `json:"lead_name"`
	FromStatus    string `json:"from_status"`
	ToStatus      string `json:"to_status"`
	HasHot        bool   `json:"has_hot"`
	HasPass       bool   `json:"has_pass"`
	HasBounce     bool   `json:"has_bounce"`
	HasQuestion   bool   `json:"has_question"`
	OutboundCount int    `json:"outbound_count"`
	InboundCount  int    `json:"inbound_count"`
}

type PreviewResult struct {
	Mode                   string         `json:"mode"`
	TotalLeadsWithActivity int            `json:"total_leads_with_activity"`
	ChangesNeeded          int            `json:"changes_needed"`
	Summary                map[string]int `json:"summary"`
	Changes                []StatusChange `json:"changes"`
}

type ApplyResult struct {
	Mode           string          `json:"mode"`
	Processed      int             `json:"processed"`
	Updated        int             `json:"updated"`
	Skipped        int             `json:"skipped"`
	Errors         int             `json:"errors"`
	Changes        []StatusChange  `json:"changes"`
	HotLeadsReview []HotLeadReview `json:"hot_leads_review"`
}

// HotLeadReview annotates a lead newly moved to engaged with a staleness
// assessment for follow-up triage.
type HotLeadReview struct {
	LeadID                string    `json:"lead_id"`
	LeadName              string    `json:"lead_name"`
	ContactName           string    `json:"contact_name,omitempty"`
	ContactEmail          string    `json:"contact_email,omitempty"`
	LastHotAt             time.Time `json:"last_hot_at"`
	LastHotSnippet        string    `json:"last_hot_snippet"`
	LastActivityAt        time.Time `json:"last_activity_at"`
	DaysSinceLastActivity int       `json:"days_since_last_activity"`
	WeRepliedAfter        bool      `json:"we_replied_after"`
	Assessment            string    `json:"assessment"` // promising, needs_review, stale
	Reason                string    `json:"reason"`
}

// deriveStatus suggests a pipeline status from the signal summary.
// Strict priority order, first match wins.
func deriveStatus(s model.LeadSignalSummary) string {
	switch {
	case s.HasHot:
		return model.LeadEngaged
	case s.HasQuestion:
		return model.LeadReplied
	case s.HasPass:
		return model.LeadNurture
	case s.HasBounce:
		return model.LeadContacted
	case s.InboundCount > 0:
		return model.LeadReplied
	case s.OutboundCount > 0:
		return model.LeadContacted
	default:
		return s.CurrentStatus
	}
}

// shouldUpdate decides whether a suggested transition may be applied.
func shouldUpdate(current, suggested string, force bool) bool {
	if current == suggested {
		return false
	}

	// Terminal statuses only move when forced.
	if current == model.LeadClosed || current == model.LeadHandedOff {
		return force
	}

	if force {
		return true
	}

	// Bootstrap: a brand-new lead accepts any derived status.
	if current == model.LeadNew {
		return true
	}

	currentPriority := statusPriority[current]
	suggestedPriority := statusPriority[suggested]

	// The documented lateral move into nurture.
	if suggested == model.LeadNurture && currentPriority <= statusPriority[model.LeadReplied] {
		return true
	}

	return suggestedPriority > currentPriority
}

// Preview computes the changes reconciliation would make without mutating
// anything.
func (s *ReconcileService) Preview(force bool, leadIDs []string) (*PreviewResult, error) {
	summaries, err := s.LeadRepo.SignalSummaries(leadIDs)
	if err != nil {
		return nil, err
	}

	result := &PreviewResult{
		Mode:                   "dry_run",
		TotalLeadsWithActivity: len(summaries),
		Summary:                map[string]int{},
		Changes:                []StatusChange{},
	}
	for _, summary := range summaries {
		suggested := deriveStatus(summary)
		if !shouldUpdate(summary.CurrentStatus, suggested, force) {
			continue
		}
		result.Changes = append(result.Changes, changeFrom(summary, suggested))
		result.Summary[summary.CurrentStatus+" → "+suggested]++
	}
	result.ChangesNeeded = len(result.Changes)
	return result, nil
}

// Apply runs reconciliation and persists the outcome. Per-lead write
// failures are counted and the batch continues; running twice with no new
// signals applies nothing the second time.
func (s *ReconcileService) Apply(force bool, leadIDs []string) (*ApplyResult, error) {
	summaries, err := s.LeadRepo.SignalSummaries(leadIDs)
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{
		Mode:           "applied",
		Changes:        []StatusChange{},
		HotLeadsReview: []HotLeadReview{},
	}

	for _, summary := range summaries {
		result.Processed++

		suggested := deriveStatus(summary)
		if !shouldUpdate(summary.CurrentStatus, suggested, force) {
			result.Skipped++
			continue
		}

		if err := s.LeadRepo.UpdateStatus(summary.LeadID, suggested); err != nil {
			log.Printf("[reconcile] failed to update lead %s: %v", summary.LeadID, err)
			result.Errors++
			continue
		}

		if err := s.recordChange(summary, suggested); err != nil {
			// The status change stuck; only the audit trail is short one row.
			log.Printf("[reconcile] failed to record activity for lead %s: %v", summary.LeadID, err)
			result.Errors++
		}

		metrics.LeadStatusChanges.WithLabelValues(suggested).Inc()
		result.Changes = append(result.Changes, changeFrom(summary, suggested))
		result.Updated++
	}

	hotLeadIDs := []string{}
	for _, c := range result.Changes {
		if c.ToStatus == model.LeadEngaged {
			hotLeadIDs = append(hotLeadIDs, c.LeadID)
		}
	}
	if len(hotLeadIDs) > 0 {
		result.HotLeadsReview = s.hotLeadsReview(hotLeadIDs, result.Changes)
	}

	return result, nil
}

func changeFrom(summary model.LeadSignalSummary, suggested string) StatusChange {
	return StatusChange{
		LeadID:        summary.LeadID,
		LeadName:      summary.LeadName,
		FromStatus:    summary.CurrentStatus,
		ToStatus:      suggested,
		HasHot:        summary.HasHot,
		HasPass:       summary.HasPass,
		HasBounce:     summary.HasBounce,
		HasQuestion:   summary.HasQuestion,
		OutboundCount: summary.OutboundCount,
		InboundCount:  summary.InboundCount,
	}
}

func (s *ReconcileService) recordChange(summary model.LeadSignalSummary, suggested string) error {
	metadata, err := json.Marshal(map[string]any{
		"from_status":    summary.CurrentStatus,
		"to_status":      suggested,
		"has_hot":        summary.HasHot,
		"has_pass":       summary.HasPass,
		"has_bounce":     summary.HasBounce,
		"has_question":   summary.HasQuestion,
		"outbound_count": summary.OutboundCount,
		"inbound_count":  summary.InboundCount,
		"reconciled_by":  "lead-status-reconciler",
	})
	if err != nil {
		return err
	}

	return s.LeadRepo.InsertActivity(&model.Activity{
		LeadID:       summary.LeadID,
		ActivityType: "status_change",
		Description:  fmt.Sprintf("Status reconciled: %s → %s (based on email activity)", summary.CurrentStatus, suggested),
		Metadata:     string(metadata),
	})
}

// hotLeadsReview assesses leads that just moved to engaged: how old the
// hot reply is and whether anyone already followed up.
func (s *ReconcileService) hotLeadsReview(leadIDs []string, changes []StatusChange) []HotLeadReview {
	names := map[string]string{}
	for _, c := range changes {
		names[c.LeadID] = c.LeadName
	}

	reviews := []HotLeadReview{}
	for _, leadID := range leadIDs {
		signals, err := s.LeadRepo.SignalsForLead(leadID)
		if err != nil {
			log.Printf("[reconcile] failed to load signals for lead %s: %v", leadID, err)
			continue
		}

		var lastHot *model.EmailSignal
		for i := range signals {
			sig := &signals[i]
			if sig.Classification == model.ClassHot && sig.Direction == model.DirectionInbound {
				if lastHot == nil || sig.OccurredAt.After(lastHot.OccurredAt) {
					lastHot = sig
				}
			}
		}
		if lastHot == nil {
			continue
		}

		var lastActivity time.Time
		weRepliedAfter := false
		for _, sig := range signals {
			if sig.OccurredAt.After(lastActivity) {
				lastActivity = sig.OccurredAt
			}
			if sig.Direction == model.DirectionOutbound && sig.OccurredAt.After(lastHot.OccurredAt) {
				weRepliedAfter = true
			}
		}

		days := int(time.Since(lastActivity).Hours() / 24)
		assessment, reason := assessHotLead(days, weRepliedAfter)

		review := HotLeadReview{
			LeadID:                leadID,
			LeadName:              names[leadID],
			LastHotAt:             lastHot.OccurredAt,
			LastHotSnippet:        snippet(lastHot.BodyText, 200),
			LastActivityAt:        lastActivity,
			DaysSinceLastActivity: days,
			WeRepliedAfter:        weRepliedAfter,
			Assessment:            assessment,
			Reason:                reason,
		}

		if contact, err := s.LeadRepo.PrimaryContact(leadID); err == nil && contact != nil {
			review.ContactName = contact.Name
			review.ContactEmail = contact.Email
		} else if review.ContactEmail == "" {
			review.ContactEmail = lastHot.FromEmail
		}

		reviews = append(reviews, review)
	}

	assessmentOrder := map[string]int{"promising": 0, "needs_review": 1, "stale": 2}
	sort.SliceStable(reviews, func(i, j int) bool {
		if assessmentOrder[reviews[i].Assessment] != assessmentOrder[reviews[j].Assessment] {
			return assessmentOrder[reviews[i].Assessment] < assessmentOrder[reviews[j].Assessment]
		}
		return reviews[i].DaysSinceLastActivity < reviews[j].DaysSinceLastActivity
	})

	return reviews
}

func assessHotLead(daysSinceLastActivity int, weRepliedAfter bool) (assessment, reason string) {
	switch {
	case daysSinceLastActivity <= 14:
		if weRepliedAfter {
			return "promising", "Recent activity, we followed up"
		}
		return "promising", "Recent hot reply, needs follow-up"
	case daysSinceLastActivity <= 30:
		if weRepliedAfter {
			return "needs_review", fmt.Sprintf("%d days since last activity, we replied but no response", daysSinceLastActivity)
		}
		return "promising", fmt.Sprintf("%d days old but we never followed up - may still be viable", daysSinceLastActivity)
	default:
		if weRepliedAfter {
			return "stale", fmt.Sprintf("%d days since last activity, already followed up", daysSinceLastActivity)
		}
		return "needs_review", fmt.Sprintf("%d days old, we never followed up - worth a shot?", daysSinceLastActivity)
	}
}

// snippet truncates to at most max runes so multibyte text stays valid.
func snippet(body string, max int) string {
	r := []rune(body)
	if len(r) > max {
		return string(r[:max]) + "..."
	}
	return body
}
