package scheduler

import (
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is one periodic task.
type Job interface {
	Run() int
}

// Cron runs client-side jobs on a schedule.
type Cron struct {
	c   *cron.Cron
	log *logrus.Entry
}

func New(log *logrus.Entry) *Cron {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Cron{c: cron.New(), log: log.WithField("component", "scheduler")}
}

// AddReminder runs job every minute.
func (s *Cron) AddReminder(job Job) error {
	_, err := s.c.AddFunc("@every 1m", func() {
		job.Run()
	})
	if err != nil {
		s.log.WithError(err).Error("Failed to register reminder job")
	}
	return err
}

// AddFunc registers fn under a standard cron spec.
func (s *Cron) AddFunc(spec string, fn func()) error {
	_, err := s.c.AddFunc(spec, fn)
	return err
}

func (s *Cron) Start() {
	s.c.Start()
	s.log.Info("Scheduler started")
}

// Stop halts the scheduler and waits for running jobs.
func (s *Cron) Stop() {
	<-s.c.Stop().Done()
	s.log.Info("Scheduler stopped")
}
