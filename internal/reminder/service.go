package reminder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"dayflow/internal/domain"
	"dayflow/internal/store"
	"dayflow/internal/urgency"
	"dayflow/internal/visibility"
)

// Service periodically selects reminder content: at each cron-scheduled fire
// it takes the tasks visible today, orders them by urgency and builds a
// bounded digest. Delivery is someone else's job; the digest is logged.
type Service struct {
	repo     store.Repository
	schedule cron.Schedule
	limit    int
	interval time.Duration
	stop     chan struct{}
}

func NewService(repo store.Repository, cronExpr string, limit int, checkInterval time.Duration) (*Service, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("parse reminder schedule %q: %w", cronExpr, err)
	}
	return &Service{
		repo:     repo,
		schedule: schedule,
		limit:    limit,
		interval: checkInterval,
		stop:     make(chan struct{}),
	}, nil
}

func (s *Service) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	next := s.schedule.Next(time.Now())
	log.Info().Time("next_fire", next).Msg("reminder service started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case now := <-ticker.C:
			if now.Before(next) {
				continue
			}
			s.fire(ctx, now)
			next = s.schedule.Next(now)
		}
	}
}

func (s *Service) Stop() {
	close(s.stop)
}

func (s *Service) fire(ctx context.Context, now time.Time) {
	tasks, err := s.repo.ListActive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load tasks for reminder")
		return
	}

	d := BuildDigest(tasks, now, s.limit)
	if d.Total == 0 {
		log.Info().Msg("reminder fired with nothing due")
		return
	}
	log.Info().
		Int("total", d.Total).
		Int("overdue", d.Overdue).
		Str("digest", d.Text()).
		Msg("reminder digest")
}

// Digest is the content handed to a notification dispatcher.
type Digest struct {
	Total   int      // tasks visible today
	Overdue int      // of those, past their due day
	Lines   []string // top tasks, most urgent first
}

// BuildDigest filters with the visibility gate, orders by sort score and
// keeps the top limit lines. Pure; now is the reference instant.
func BuildDigest(tasks []domain.Task, now time.Time, limit int) Digest {
	visible := visibility.VisibleToday(tasks, now)
	urgency.Sort(visible, now)

	d := Digest{Total: len(visible)}
	for _, t := range visible {
		if visibility.StateAt(t, now) == visibility.StateOverdue {
			d.Overdue++
		}
	}
	if limit > 0 && len(visible) > limit {
		visible = visible[:limit]
	}
	for _, t := range visible {
		d.Lines = append(d.Lines, fmt.Sprintf("[P%d] %s", t.Priority, t.Title))
	}
	return d
}

func (d Digest) Text() string {
	head := fmt.Sprintf("%d task(s) today", d.Total)
	if d.Overdue > 0 {
		head += fmt.Sprintf(", %d overdue", d.Overdue)
	}
	if len(d.Lines) == 0 {
		return head
	}
	return head + ": " + strings.Join(d.Lines, "; ")
}
