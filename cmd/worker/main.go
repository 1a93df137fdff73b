// cmd/worker/main.go
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/streadway/amqp"

	"github.com/westgate-cre/outreach-backend/internal/config"
	"github.com/westgate-cre/outreach-backend/internal/db"
	"github.com/westgate-cre/outreach-backend/internal/metrics"
	"github.com/westgate-cre/outreach-backend/internal/ratelimit"
	"github.com/westgate-cre/outreach-backend/internal/repository"
	"github.com/westgate-cre/outreach-backend/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	db.Init()

	jobRepo := &repository.EmailJobRepository{DB: db.DB}
	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	enrollmentRepo := &repository.EnrollmentRepository{DB: db.DB}
	contactRepo := &repository.ContactRepository{DB: db.DB}
	leadRepo := &repository.LeadRepository{DB: db.DB}
	settingsRepo := &repository.SettingsRepository{DB: db.DB}

	defaults := config.FromEnv()

	deliveryService := &service.DeliveryService{
		JobRepo: jobRepo,
		Limiter: ratelimit.New(ratelimit.StoreFromEnv()),
		Sender:  service.NewMockSender(),
	}
	campaignService := &service.CampaignService{
		CampaignRepo:   campaignRepo,
		EnrollmentRepo: enrollmentRepo,
		JobRepo:        jobRepo,
		ContactRepo:    contactRepo,
		LeadRepo:       leadRepo,
	}
	reconcileService := &service.ReconcileService{LeadRepo: leadRepo}

	metricsAddr := os.Getenv("METRICS_ADDR")
	if metricsAddr == "" {
		metricsAddr = ":9091"
	}
	metrics.StartMetricsServer(metricsAddr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional RabbitMQ consumer for immediate dispatch of test sends and
	// reply jobs, ahead of the polling cycle.
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		go consumeImmediate(ctx, amqpURL, deliveryService, settingsRepo, defaults)
	}

	log.Printf("🚀 Worker running, cycle every %s", defaults.CycleInterval)

	ticker := time.NewTicker(defaults.CycleInterval)
	defer ticker.Stop()

	// Follow-up scheduling and status reconciliation run on a slower
	// cadence than the send cycle.
	maintenance := time.NewTicker(10 * time.Minute)
	defer maintenance.Stop()

	runCycle(ctx, deliveryService, settingsRepo, defaults)
	for {
		select {
		case <-ctx.Done():
			log.Println("Worker shutting down")
			return
		case <-ticker.C:
			runCycle(ctx, deliveryService, settingsRepo, defaults)
		case <-maintenance.C:
			runMaintenance(campaignService, reconcileService)
		}
	}
}

// runCycle reloads persisted settings and drains one batch.
func runCycle(ctx context.Context, svc *service.DeliveryService, settingsRepo repository.SettingsRepositoryInterface, defaults config.WorkerSettings) {
	settings := defaults
	overrides, err := settingsRepo.Load()
	if err != nil {
		log.Printf("⚠️ Failed to load worker settings, using defaults: %v", err)
	} else {
		settings = defaults.ApplyOverrides(overrides)
	}

	result, err := svc.RunCycle(ctx, settings)
	if err != nil {
		log.Printf("⚠️ Cycle error: %v", err)
		return
	}
	if result.Paused {
		log.Println("[worker] paused, skipping cycle")
		return
	}
	if result.Processed > 0 || result.RateLimited {
		log.Printf("[worker] cycle done: processed=%d sent=%d retried=%d failed=%d skipped=%d rate_limited=%v",
			result.Processed, result.Sent, result.Retried, result.Failed, result.Skipped, result.RateLimited)
	}
}

func runMaintenance(campaigns *service.CampaignService, reconciler *service.ReconcileService) {
	if result, err := campaigns.ScheduleFollowUps(time.Now()); err != nil {
		log.Printf("⚠️ Follow-up scheduling error: %v", err)
	} else if result.Scheduled > 0 || result.Completed > 0 || result.Stopped > 0 {
		log.Printf("[worker] follow-ups: scheduled=%d completed=%d stopped=%d", result.Scheduled, result.Completed, result.Stopped)
	}

	if result, err := reconciler.Apply(false, nil); err != nil {
		log.Printf("⚠️ Reconciliation error: %v", err)
	} else if result.Updated > 0 {
		log.Printf("[worker] reconciled lead statuses: updated=%d skipped=%d", result.Updated, result.Skipped)
	}
}

// consumeImmediate drains the email_sends queue, processing one job per
// message. A failed message is requeued once; rate-limited and paused
// jobs are acked and left to the polling cycle.
func consumeImmediate(ctx context.Context, amqpURL string, svc *service.DeliveryService, settingsRepo repository.SettingsRepositoryInterface, defaults config.WorkerSettings) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		log.Printf("⚠️ Failed to connect to RabbitMQ: %v", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("⚠️ Failed to open a channel: %v", err)
		return
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		"email_sends",
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		log.Printf("⚠️ Failed to declare queue: %v", err)
		return
	}

	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		log.Printf("⚠️ Failed to register consumer: %v", err)
		return
	}

	log.Println("✅ Consuming email_sends")

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				return
			}
			jobID := string(d.Body)

			settings := defaults
			if overrides, err := settingsRepo.Load(); err == nil {
				settings = defaults.ApplyOverrides(overrides)
			}

			if err := svc.ProcessJob(ctx, jobID, settings); err != nil {
				// Backpressure is not a delivery failure. The job is
				// still pending, so the polling cycle will send it once
				// the gate opens; redelivering here would spin.
				if errors.Is(err, service.ErrRateLimited) || errors.Is(err, service.ErrWorkerPaused) {
					log.Printf("[worker] deferring job %s to the polling cycle: %v", jobID, err)
					d.Ack(false)
					continue
				}
				log.Printf("⚠️ Failed to process job %s: %v", jobID, err)
				if !d.Redelivered {
					d.Nack(false, true)
					continue
				}
			}
			d.Ack(false)
		}
	}
}
