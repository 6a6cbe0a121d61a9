package dashboard

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Downloader replaces the local copy of a remote source. A failed download
// must leave the previous copy in place.
type Downloader interface {
	Download(ctx context.Context) error
}

// ScheduleRefresh returns a stopped cron scheduler that reloads the dataset
// on spec (standard 5-field cron or descriptors such as "@daily"). src may be
// nil for local sources.
func (s *Service) ScheduleRefresh(spec string, src Downloader) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { s.Refresh(context.Background(), src) }); err != nil {
		return nil, fmt.Errorf("refresh schedule %q: %w", spec, err)
	}
	return c, nil
}

// Refresh downloads the source again, drops the cached dataset and loads it
// so the next request does not pay for it.
func (s *Service) Refresh(ctx context.Context, src Downloader) {
	if src != nil {
		if err := src.Download(ctx); err != nil {
			s.log.Warn().Err(err).Msg("source download failed; keeping cached dataset")
			return
		}
	}
	s.Invalidate()
	d, err := s.Dataset(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("dataset reload failed")
		return
	}
	s.log.Info().Int("rows", d.Len()).Msg("dataset reloaded")
}
