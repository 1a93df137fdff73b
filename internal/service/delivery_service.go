// internal/service/delivery_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/westgate-cre/outreach-backend/internal/config"
	"github.com/westgate-cre/outreach-backend/internal/metrics"
	"github.com/westgate-cre/outreach-backend/internal/model"
	"github.com/westgate-cre/outreach-backend/internal/ratelimit"
	"github.com/westgate-cre/outreach-backend/internal/repository"
)

// Backpressure conditions on the single-job path. Neither is a delivery
// failure: the job stays pending and the polling cycle picks it up, so
// dispatch consumers must not redeliver on these.
var (
	ErrRateLimited  = errors.New("rate limited")
	ErrWorkerPaused = errors.New("worker is paused")
)

// Sender is the outbound transport. The engine owns retries and status
// accounting; the transport just delivers one message.
type Sender interface {
	Send(ctx context.Context, to, toName, subject, body string) error
}

// DeliveryService drains the email queue: claim, send, record outcome.
type DeliveryService struct {
	JobRepo repository.EmailJobRepositoryInterface
	Limiter *ratelimit.Limiter
	Sender  Sender
}

// CycleResult reports what one worker cycle did.
type CycleResult struct {
	Processed   int  `json:"processed"`
	Sent        int  `json:"sent"`
	Retried     int  `json:"retried"`
	Failed      int  `json:"failed"`
	Skipped     int  `json:"skipped"`
	RateLimited bool `json:"rate_limited"`
	Paused      bool `json:"paused"`
}

// RunCycle processes one batch of due jobs under the given settings.
// The rate limiter is a hard gate: when a ceiling is reached the cycle
// stops and the remaining jobs stay pending with no attempts penalty.
func (s *DeliveryService) RunCycle(ctx context.Context, settings config.WorkerSettings) (*CycleResult, error) {
	result := &CycleResult{}

	if settings.Paused {
		result.Paused = true
		return result, nil
	}

	decision, err := s.Limiter.CanSend(ctx, settings.RateLimitHourly, settings.RateLimitDaily)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		log.Printf("[worker] rate limited: %s", decision.Reason)
		metrics.RateLimitHits.Inc()
		result.RateLimited = true
		return result, nil
	}

	jobs, err := s.JobRepo.FetchDue(settings.BatchSize)
	if err != nil {
		return nil, err
	}

	for i, job := range jobs {
		decision, err := s.Limiter.CanSend(ctx, settings.RateLimitHourly, settings.RateLimitDaily)
		if err != nil {
			return result, err
		}
		if !decision.Allowed {
			log.Printf("[worker] rate limit reached mid-cycle: %s", decision.Reason)
			metrics.RateLimitHits.Inc()
			result.RateLimited = true
			result.Skipped += len(jobs) - i
			break
		}

		claimed, err := s.JobRepo.Claim(job.ID)
		if err != nil {
			log.Printf("[worker] failed to claim job %s: %v", job.ID, err)
			result.Skipped++
			continue
		}
		if !claimed {
			// Another worker got there first.
			result.Skipped++
			continue
		}

		result.Processed++
		switch s.attempt(ctx, job, settings) {
		case model.JobSent:
			result.Sent++
		case model.JobFailed:
			result.Failed++
		default:
			result.Retried++
		}
	}

	return result, nil
}

// ProcessJob is the single-job path used by the dispatch consumer for
// immediate sends. The claim keeps it safe against a concurrent cycle.
func (s *DeliveryService) ProcessJob(ctx context.Context, jobID string, settings config.WorkerSettings) error {
	if settings.Paused {
		return ErrWorkerPaused
	}

	decision, err := s.Limiter.CanSend(ctx, settings.RateLimitHourly, settings.RateLimitDaily)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return fmt.Errorf("%w: %s", ErrRateLimited, decision.Reason)
	}

	job, err := s.JobRepo.GetByID(jobID)
	if err != nil {
		return err
	}
	if job == nil {
		log.Printf("[worker] job %s not found, dropping", jobID)
		return nil
	}
	if !job.Eligible(time.Now()) {
		return nil
	}

	claimed, err := s.JobRepo.Claim(job.ID)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	s.attempt(ctx, job, settings)
	return nil
}

// attempt runs one delivery attempt for a claimed job and records the
// outcome. It returns the job's resulting status.
func (s *DeliveryService) attempt(ctx context.Context, job *model.EmailJob, settings config.WorkerSettings) string {
	if settings.DryRun {
		// Dry run is indistinguishable downstream except for the audit flag.
		if err := s.JobRepo.MarkSent(job.ID, true); err != nil {
			log.Printf("[worker] failed to mark job %s sent (dry run): %v", job.ID, err)
		}
		if err := s.Limiter.RecordSend(ctx); err != nil {
			log.Printf("[worker] failed to record send: %v", err)
		}
		metrics.JobsProcessed.WithLabelValues(model.JobSent, job.Source).Inc()
		log.Printf("[worker] dry run: simulated send of job %s to %s", job.ID, job.ToEmail)
		return model.JobSent
	}

	// Each attempt gets its own deadline so a stuck transport call cannot
	// starve the cycle.
	attemptCtx, cancel := context.WithTimeout(ctx, settings.SendTimeout)
	defer cancel()

	start := time.Now()
	err := s.Sender.Send(attemptCtx, job.ToEmail, job.ToName, job.Subject, job.BodyText)
	metrics.SendDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		attempts := job.Attempts + 1
		if attempts >= job.MaxAttempts {
			if mErr := s.JobRepo.MarkFailed(job.ID, err.Error()); mErr != nil {
				log.Printf("[worker] failed to mark job %s failed: %v", job.ID, mErr)
			}
			metrics.JobsProcessed.WithLabelValues(model.JobFailed, job.Source).Inc()
			log.Printf("[worker] job %s permanently failed after %d attempts: %v", job.ID, attempts, err)
			return model.JobFailed
		}
		if mErr := s.JobRepo.MarkRetry(job.ID, err.Error()); mErr != nil {
			log.Printf("[worker] failed to requeue job %s: %v", job.ID, mErr)
		}
		metrics.JobsProcessed.WithLabelValues("retried", job.Source).Inc()
		log.Printf("[worker] job %s failed (attempt %d/%d): %v", job.ID, attempts, job.MaxAttempts, err)
		return model.JobPending
	}

	if mErr := s.JobRepo.MarkSent(job.ID, false); mErr != nil {
		log.Printf("[worker] failed to mark job %s sent: %v", job.ID, mErr)
	}
	if err := s.Limiter.RecordSend(ctx); err != nil {
		log.Printf("[worker] failed to record send: %v", err)
	}
	metrics.JobsProcessed.WithLabelValues(model.JobSent, job.Source).Inc()
	log.Printf("[worker] sent job %s to %s", job.ID, job.ToEmail)
	return model.JobSent
}
