package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

// Daily runs task once right away, then on every activation of spec (standard
// five-field cron or @descriptors) until ctx is done. A run still in progress when
// the next one is due makes that one skip.
func Daily(ctx context.Context, spec, name string, task Task, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("task", name))

	clog := cronLogger{log.Sugar()}
	c := cron.New(cron.WithLogger(clog), cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)))

	run := func() {
		if err := task(ctx); err != nil {
			log.Error("scheduled run failed", zap.Error(err))
			return
		}
		log.Info("scheduled run completed")
	}

	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	c.Schedule(sched, cron.FuncJob(run))

	log.Info("running initial pass now")
	run()
	if ctx.Err() != nil {
		return nil
	}

	c.Start()
	log.Info("scheduler started", zap.String("spec", spec), zap.Time("next", sched.Next(time.Now())))

	<-ctx.Done()
	<-c.Stop().Done()
	log.Info("scheduler stopped")
	return nil
}

type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, kv ...any) { l.s.Debugw(msg, kv...) }

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.s.Errorw(msg, append(kv, "error", err)...)
}
