// File: internal/jobs/user_cleanup.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"engla_backend/internal/config"
	"engla_backend/internal/user"
)

// UserCleanupJob hard-deletes accounts that stayed soft-deleted past the
// configured retention window.
type UserCleanupJob struct {
	userService   *user.Service
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

// NewUserCleanupJob creates a new UserCleanupJob.
func NewUserCleanupJob(
	userService *user.Service,
	logger *zap.Logger,
	cfg *config.Config,
) *UserCleanupJob {
	scheduler := cron.New(
		cron.WithLogger(NewCronLogger(logger.Named("cron"))),
		cron.WithChain(cron.SkipIfStillRunning(NewCronLogger(logger.Named("cron")))),
	)

	return &UserCleanupJob{
		userService:   userService,
		logger:        logger.Named("UserCleanupJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *UserCleanupJob) SetupAndStart() error {
	jobSpec := j.cfg.UserPurgeJobSchedule
	if jobSpec == "" {
		j.logger.Warn("User purge job schedule not defined (USER_PURGE_JOB_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule user purge job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("User purge job scheduled",
		zap.String("spec", jobSpec),
		zap.Int("retention_days", j.cfg.UserPurgeRetentionDays),
		zap.Any("jobID", jobID),
	)
	j.cronScheduler.Start()
	return nil
}

// runJob is the actual work performed by the cron job.
func (j *UserCleanupJob) runJob() {
	j.logger.Info("Starting user purge job run...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	retention := time.Duration(j.cfg.UserPurgeRetentionDays) * 24 * time.Hour
	purged, err := j.userService.PurgeDeleted(ctx, retention)
	if err != nil {
		j.logger.Error("User purge job run failed", zap.Error(err))
		return
	}
	j.logger.Info("User purge job run completed", zap.Int64("users_purged", purged))
}

// Stop gracefully stops the cron scheduler.
func (j *UserCleanupJob) Stop() {
	if j.cronScheduler == nil {
		return
	}
	j.logger.Info("Stopping user purge job scheduler...")
	stopCtx := j.cronScheduler.Stop()
	select {
	case <-stopCtx.Done():
		j.logger.Info("User purge job scheduler stopped gracefully.")
	case <-time.After(10 * time.Second):
		j.logger.Warn("User purge job scheduler stop timed out.")
	}
}

// --- Cron Logger Adapter ---

// cronLogger adapts zap.Logger to the cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

// Info logs routine messages from cron.
func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Info(msg, cl.parseKeysAndValues(keysAndValues...)...)
}

// Error logs error messages from cron.
func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
