package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/adetunjii/esusu-engine/internal/config"
	"github.com/adetunjii/esusu-engine/internal/domain"
	"github.com/adetunjii/esusu-engine/internal/notify"
	"github.com/adetunjii/esusu-engine/internal/repository"
	"github.com/adetunjii/esusu-engine/pkg/logging"
)

// The scheduler only nudges: it reminds invitees whose participation
// deadline is approaching. Deadline expiry itself is enforced lazily by the
// invitation state machine, never here.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level)

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		slog.Error("connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	groupRepo := repository.NewGroupRepository(db)
	dispatcher := notify.NewDispatcher(notify.LogNotifier{})

	c := cron.New(cron.WithSeconds())
	_, err = c.AddFunc(cfg.Scheduler.ReminderSpec, func() {
		if err := sendDeadlineReminders(context.Background(), groupRepo, dispatcher, cfg.GetReminderWindow()); err != nil {
			slog.Error("deadline reminder job failed", "error", err)
		}
	})
	if err != nil {
		slog.Error("scheduling reminder job", "error", err)
		os.Exit(1)
	}

	c.Start()
	slog.Info("scheduler started", "spec", cfg.Scheduler.ReminderSpec)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down scheduler")
	<-c.Stop().Done()
	dispatcher.Wait()
	slog.Info("scheduler stopped")
}

func sendDeadlineReminders(ctx context.Context, repo repository.GroupRepository, dispatcher *notify.Dispatcher, window time.Duration) error {
	now := time.Now()
	groups, err := repo.ListPendingWithDeadlineBetween(ctx, now, now.Add(window))
	if err != nil {
		return err
	}

	for _, group := range groups {
		participants, err := repo.GetParticipants(ctx, group.ID)
		if err != nil {
			slog.Error("loading roster for reminders", "group_id", group.ID, "error", err)
			continue
		}

		var notifications []notify.Notification
		for _, p := range participants {
			if p.InviteStatus != domain.InviteStatusInvited {
				continue
			}
			notifications = append(notifications, notify.Notification{
				UserID: p.UserID,
				Title:  "Esusu invitation expiring",
				Body: fmt.Sprintf("Your invitation to %q closes on %s.",
					group.Name, group.ParticipationDeadline.Format("Jan 2, 3:04 PM")),
				Metadata: map[string]string{
					"group_id": group.ID.String(),
					"event":    "invitation_reminder",
				},
			})
		}

		dispatcher.Dispatch(notifications...)
		slog.Info("deadline reminders queued", "group_id", group.ID, "count", len(notifications))
	}

	return nil
}
