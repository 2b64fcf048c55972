package scheduler

import (
	"context"
	"time"

	"payflow/internal/app"
	domainTelegram "payflow/internal/domain/telegram"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// EngineScheduler runs the two background jobs: the daily reminder generation
// across all merchants and the frequent outbox drain. Both jobs are safe to
// re-run; the reminder job is idempotent by construction and the dispatcher
// only ever picks PENDING rows.
type EngineScheduler struct {
	cronEngine      *cron.Cron
	reminderService *app.ReminderService
	dispatchService *app.DispatchService
	adminClient     domainTelegram.Client // Optional; nil disables run summaries
	adminChatID     int64
	logger          *logrus.Logger
	cronSpecDaily   string
	cronSpecOutbox  string
}

func NewEngineScheduler(
	rs *app.ReminderService,
	ds *app.DispatchService,
	adminClient domainTelegram.Client,
	adminChatID int64,
	logger *logrus.Logger,
	cronSpecDailyReminders string, // e.g., "0 8 * * *" (08:00 daily)
	cronSpecOutboxDispatch string, // e.g., "* * * * *" (every minute)
) *EngineScheduler {
	return &EngineScheduler{
		cronEngine:      cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		reminderService: rs,
		dispatchService: ds,
		adminClient:     adminClient,
		adminChatID:     adminChatID,
		logger:          logger,
		cronSpecDaily:   cronSpecDailyReminders,
		cronSpecOutbox:  cronSpecOutboxDispatch,
	}
}

func (s *EngineScheduler) Start() {
	s.logger.Info("Starting engine scheduler...")

	// Daily reminder generation across all merchants
	_, err := s.cronEngine.AddFunc(s.cronSpecDaily, func() {
		s.logger.Info("Cron job triggered for daily reminder generation.")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		summary, err := s.reminderService.GenerateDailyReminders(ctx)
		if err != nil {
			s.logger.Errorf("Error during daily reminder generation: %v", err)
		}
		s.notifyAdmin(summary)
	})
	if err != nil {
		s.logger.Fatalf("Could not add daily reminder cron job: %v", err)
	}

	// Frequent outbox draining
	_, err = s.cronEngine.AddFunc(s.cronSpecOutbox, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if _, err := s.dispatchService.ProcessPendingBatch(ctx); err != nil {
			s.logger.Errorf("Error during outbox dispatch: %v", err)
		}
	})
	if err != nil {
		s.logger.Fatalf("Could not add outbox dispatch cron job: %v", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Engine scheduler started with jobs.")
}

// notifyAdmin pushes the run summary to the admin Telegram chat, when one is
// configured. A delivery failure is only logged; the run itself already
// succeeded or failed on its own terms.
func (s *EngineScheduler) notifyAdmin(summary *app.RunSummary) {
	if s.adminClient == nil || s.adminChatID == 0 || summary == nil {
		return
	}
	if err := s.adminClient.SendMessage(s.adminChatID, summary.String(), nil); err != nil {
		s.logger.Errorf("Failed to send run summary to admin chat %d: %v", s.adminChatID, err)
	}
}

func (s *EngineScheduler) Stop() {
	s.logger.Info("Stopping engine scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Engine scheduler gracefully stopped.")
}
