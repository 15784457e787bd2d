package scheduler

import (
	"context"
	"fmt"
	"log"

	"LottoSentinel/internal/model"
	"LottoSentinel/internal/notifier"

	"github.com/robfig/cron/v3"
)

// DefaultDigestCron sends the digest every day at 09:00.
const DefaultDigestCron = "0 0 9 * * *"

// StatusProvider is implemented by every Scheduler.
type StatusProvider interface {
	Status() model.SourceStatus
}

// Statuses collects the status of every source in order.
func Statuses(sources []StatusProvider) []model.SourceStatus {
	out := make([]model.SourceStatus, 0, len(sources))
	for _, src := range sources {
		out = append(out, src.Status())
	}
	return out
}

// Digest periodically sends a summary of all sources.
type Digest struct {
	Cron     *cron.Cron
	Sources  []StatusProvider
	Notifier notifier.Notifier
	Ctx      context.Context
}

// NewDigest registers the digest job on a seconds-resolution cron.
func NewDigest(ctx context.Context, spec string, n notifier.Notifier, sources []StatusProvider) (*Digest, error) {
	d := &Digest{
		Cron:     cron.New(cron.WithSeconds()),
		Sources:  sources,
		Notifier: n,
		Ctx:      ctx,
	}
	if _, err := d.Cron.AddFunc(spec, d.Send); err != nil {
		return nil, fmt.Errorf("register digest task: %w", err)
	}
	return d, nil
}

// Start starts the cron scheduler.
func (d *Digest) Start() {
	d.Cron.Start()
	log.Println("[INFO] digest scheduler started")
}

// Stop stops the cron scheduler and waits for a running digest to finish.
func (d *Digest) Stop() {
	<-d.Cron.Stop().Done()
	log.Println("[INFO] digest scheduler stopped")
}

// Send delivers the digest now.
func (d *Digest) Send() {
	if err := d.Notifier.Notify(d.Ctx, notifier.FormatDigest(Statuses(d.Sources))); err != nil {
		log.Printf("[ERROR] send digest: %v", err)
	}
}
