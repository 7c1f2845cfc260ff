package service

import (
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/subglot/subglot/pkg/file"
	"github.com/subglot/subglot/pkg/log"
)

// Cleaner removes stale uploads and translations on a schedule so the
// data directory does not grow without bound.
type Cleaner struct {
	dirs      []string
	retention time.Duration
	cron      *cron.Cron
	group     singleflight.Group
}

func NewCleaner(dirs []string, retention time.Duration) *Cleaner {
	return &Cleaner{
		dirs:      dirs,
		retention: retention,
		cron:      cron.New(),
	}
}

// Start schedules the sweep with the given cron expression and begins
// running it. An overlapping trigger joins the in-flight sweep instead
// of starting a second one.
func (c *Cleaner) Start(cronExpr string) error {
	_, err := c.cron.AddFunc(cronExpr, func() {
		if _, err, _ := c.group.Do("sweep", func() (any, error) {
			return c.Sweep(), nil
		}); err != nil {
			log.Error("Cleanup sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	c.cron.Start()
	return nil
}

func (c *Cleaner) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

// Sweep removes every file in the managed directories older than the
// retention window. It returns the number of files removed.
func (c *Cleaner) Sweep() int {
	cutoff := time.Now().Add(-c.retention)
	removed := 0
	for _, dir := range c.dirs {
		stale, err := file.FindOlderThan(dir, cutoff)
		if err != nil {
			log.Warn("Cleanup scan of %s failed: %v", dir, err)
			continue
		}
		for _, path := range stale {
			if err := os.Remove(path); err != nil {
				log.Warn("Failed to remove %s: %v", path, err)
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		log.Info("Cleanup removed %d stale files", removed)
	}
	return removed
}
