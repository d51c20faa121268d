package scheduler

import (
	"context"
	"time"

	"studynotes_backend/pkg/logger"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Job 周期任务，返回的错误只记录日志
type Job func(ctx context.Context) error

type Scheduler struct {
	scheduler *gocron.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *Scheduler) Every(interval time.Duration, name string, job Job) error {
	_, err := s.scheduler.Every(interval).Tag(name).Do(func() {
		start := time.Now()
		if err := job(s.ctx); err != nil {
			logger.Log.Error("Scheduled job failed", zap.String("job", name), zap.Error(err))
			return
		}
		logger.Log.Debug("Scheduled job finished",
			zap.String("job", name),
			zap.Duration("took", time.Since(start)),
		)
	})
	return err
}

// Start 非阻塞
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
}
