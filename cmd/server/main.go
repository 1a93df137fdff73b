// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/westgate-cre/outreach-backend/internal/config"
	"github.com/westgate-cre/outreach-backend/internal/controller"
	"github.com/westgate-cre/outreach-backend/internal/db"
	"github.com/westgate-cre/outreach-backend/internal/queue"
	"github.com/westgate-cre/outreach-backend/internal/ratelimit"
	"github.com/westgate-cre/outreach-backend/internal/repository"
	"github.com/westgate-cre/outreach-backend/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	// Init DB
	db.Init()

	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	enrollmentRepo := &repository.EnrollmentRepository{DB: db.DB}
	jobRepo := &repository.EmailJobRepository{DB: db.DB}
	contactRepo := &repository.ContactRepository{DB: db.DB}
	leadRepo := &repository.LeadRepository{DB: db.DB}
	settingsRepo := &repository.SettingsRepository{DB: db.DB}

	q := newDispatchQueue(jobRepo, settingsRepo)

	campaignService := &service.CampaignService{
		CampaignRepo:   campaignRepo,
		EnrollmentRepo: enrollmentRepo,
		JobRepo:        jobRepo,
		ContactRepo:    contactRepo,
		LeadRepo:       leadRepo,
		Queue:          q,
	}
	reconcileService := &service.ReconcileService{
		LeadRepo: leadRepo,
	}

	campaignController := &controller.CampaignController{
		CampaignService: campaignService,
	}
	reconcileController := &controller.ReconcileController{
		ReconcileService: reconcileService,
	}
	queueController := &controller.QueueController{
		JobRepo: jobRepo,
		Queue:   q,
	}
	settingsController := &controller.SettingsController{
		SettingsRepo: settingsRepo,
	}

	r := chi.NewRouter()

	// Campaign routes
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaignDetails)
	r.Post("/campaigns/{id}/activate", campaignController.Activate)
	r.Post("/campaigns/{id}/enroll", campaignController.Enroll)
	r.Post("/campaigns/{id}/test-send", campaignController.TestSend)
	r.Post("/campaigns/{id}/personalized-preview", campaignController.PersonalizedPreview)
	r.Post("/campaigns/{id}/pause", campaignController.Pause)
	r.Post("/campaigns/{id}/complete", campaignController.Complete)
	r.Post("/campaigns/{id}/archive", campaignController.Archive)

	// Queue routes
	r.Post("/queue", queueController.EnqueueJob)
	r.Post("/queue/{id}/cancel", queueController.CancelJob)
	r.Get("/queue/stats", queueController.QueueStats)

	// Lead status reconciliation
	r.Get("/jobs/reconcile-lead-status", reconcileController.Preview)
	r.Post("/jobs/reconcile-lead-status", reconcileController.Apply)

	// Worker control knobs
	r.Get("/settings/worker", settingsController.GetWorkerSettings)
	r.Put("/settings/worker", settingsController.UpdateWorkerSettings)

	addr := os.Getenv("SERVER_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("🚀 Server running on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

// newDispatchQueue picks the dispatch transport for immediate sends.
// With RabbitMQ configured, messages go to the worker fleet; otherwise an
// in-memory queue delivers them to an in-process dispatcher so test sends
// still go out right away in single-binary setups.
func newDispatchQueue(jobRepo repository.EmailJobRepositoryInterface, settingsRepo repository.SettingsRepositoryInterface) queue.Queue {
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		aq, err := queue.NewAMQPQueue(amqpURL)
		if err != nil {
			log.Fatalf("failed to set up RabbitMQ dispatch: %v", err)
		}
		log.Println("✅ Dispatching immediate sends via RabbitMQ")
		return aq
	}

	defaults := config.FromEnv()
	delivery := &service.DeliveryService{
		JobRepo: jobRepo,
		Limiter: ratelimit.New(ratelimit.StoreFromEnv()),
		Sender:  service.NewMockSender(),
	}

	q := queue.NewInMemoryQueue()
	q.Subscribe(queue.TopicEmailSends, func(payload any) error {
		jobID, ok := payload.(string)
		if !ok {
			log.Printf("⚠️ invalid dispatch payload: %+v", payload)
			return nil
		}
		settings := defaults
		if overrides, err := settingsRepo.Load(); err == nil {
			settings = defaults.ApplyOverrides(overrides)
		}
		err := delivery.ProcessJob(context.Background(), jobID, settings)
		if errors.Is(err, service.ErrRateLimited) || errors.Is(err, service.ErrWorkerPaused) {
			// The job stays pending for the worker's polling cycle.
			log.Printf("[dispatch] deferring job %s: %v", jobID, err)
			return nil
		}
		return err
	})
	log.Println("⚠️ AMQP_URL not set, dispatching immediate sends in process")
	return q
}
