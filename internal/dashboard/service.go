// Package dashboard answers one UI interaction at a time: filter the cached
// dataset, optionally cluster it, score the clustering and report anything
// that degraded along the way.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/KaramelBytes/edudanger-cli/internal/cluster"
	"github.com/KaramelBytes/edudanger-cli/internal/dataset"
	"github.com/KaramelBytes/edudanger-cli/internal/logging"
)

// ErrInvalidRequest marks requests that cannot be evaluated as given.
var ErrInvalidRequest = errors.New("invalid request")

// Loader produces the cleaned dataset.
type Loader interface {
	Load(ctx context.Context) (*dataset.Dataset, error)
}

// Config wires a Service.
type Config struct {
	Loader Loader
	// Cache is shared across services; nil creates a private one.
	Cache *dataset.Cache
	// Key identifies the source in the cache.
	Key string

	K                int
	MaxIter          int
	DefaultCountries []string
	Log              zerolog.Logger
}

// Service is safe for concurrent use. The cleaned dataset is shared
// read-only; every request works on its own filtered copy.
type Service struct {
	cfg   Config
	cache *dataset.Cache
	log   zerolog.Logger
}

func NewService(cfg Config) *Service {
	if cfg.Cache == nil {
		cfg.Cache = dataset.NewCache()
	}
	if cfg.K == 0 {
		cfg.K = 4
	}
	if cfg.MaxIter == 0 {
		cfg.MaxIter = cluster.DefaultMaxIter
	}
	return &Service{cfg: cfg, cache: cfg.Cache, log: logging.Component(cfg.Log, "dashboard")}
}

// Request carries the filter and clustering choices of one interaction.
// Zero years default to the dataset bounds, widened to include the other
// bound when it lies outside them; zero K to the configured k.
type Request struct {
	Countries    []string
	Perpetrators []string
	YearMin      int
	YearMax      int
	Cluster      bool
	K            int
}

// Result is the dataset to render plus the quality score and any warnings.
type Result struct {
	Filter    dataset.Filter
	Dataset   *dataset.Dataset
	Clustered bool
	K         int
	RunID     string
	Score     *float64
	Profile   []ClusterProfile
	Warnings  []string
}

// Summary aggregates the result dataset and carries over score and warnings.
func (r *Result) Summary() *Summary {
	s := Summarize(r.Dataset)
	s.Score = r.Score
	s.Warnings = append(s.Warnings, r.Warnings...)
	return s
}

// ClusterMarkdown renders the cluster run: filter, profiles, silhouette and
// any degradation notes.
func (r *Result) ClusterMarkdown() string {
	var b strings.Builder
	b.WriteString("[CLUSTER RUN]\n")
	b.WriteString(fmt.Sprintf("Filter: %s\n", r.Filter))
	b.WriteString(fmt.Sprintf("Incidents: %d\n", r.Dataset.Len()))
	if r.Clustered {
		b.WriteString(fmt.Sprintf("k: %d\nRun: %s\n", r.K, r.RunID))
		writeClusters(&b, r.Profile, r.Score)
	} else {
		b.WriteString("Clustering: not applied\n")
	}
	writeNotes(&b, r.Warnings)
	return b.String()
}

// Dataset returns the cleaned dataset, loading it on first use.
func (s *Service) Dataset(ctx context.Context) (*dataset.Dataset, error) {
	return s.cache.Get(ctx, s.cfg.Key, func(ctx context.Context) (*dataset.Dataset, error) {
		s.log.Info().Str("source", s.cfg.Key).Msg("loading dataset")
		return s.cfg.Loader.Load(ctx)
	})
}

// Invalidate drops the cached dataset; the next request reloads it.
func (s *Service) Invalidate() {
	s.cache.Invalidate(s.cfg.Key)
	s.log.Info().Str("source", s.cfg.Key).Msg("dataset cache invalidated")
}

// Explore filters and optionally clusters the dataset. Loader errors are
// returned unchanged; clustering and scoring failures become warnings and
// leave the filtered dataset in place.
func (s *Service) Explore(ctx context.Context, req Request) (*Result, error) {
	d, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	f, err := s.filterFor(d, req)
	if err != nil {
		return nil, err
	}
	filtered, err := f.Apply(d)
	if err != nil {
		return nil, err
	}
	res := &Result{Filter: f, Dataset: filtered}
	s.log.Debug().Stringer("filter", f).Int("rows", filtered.Len()).Msg("filter applied")
	if !req.Cluster {
		return res, nil
	}

	k := req.K
	if k == 0 {
		k = s.cfg.K
	}
	if k < 2 {
		return nil, fmt.Errorf("%w: k must be at least 2, got %d", ErrInvalidRequest, k)
	}
	res.K = k
	s.cluster(res, k)
	return res, nil
}

func (s *Service) cluster(res *Result, k int) {
	withRatios, err := dataset.DeriveRatios(res.Dataset)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("clustering not applied: %v", err))
		return
	}
	a, err := cluster.Assign(withRatios, cluster.Options{K: k, MaxIter: s.cfg.MaxIter})
	if err != nil {
		res.Warnings = append(res.Warnings, clusterWarning(err))
		s.log.Warn().Err(err).Int("k", k).Int("rows", res.Dataset.Len()).Msg("clustering not applied")
		return
	}
	res.Dataset = a.Dataset
	res.Clustered = true
	res.RunID = a.RunID
	res.Profile = ProfileClusters(a.Dataset)
	s.log.Debug().Str("run_id", a.RunID).Int("k", k).Int("iterations", a.Iterations).
		Bool("converged", a.Converged).Float64("inertia", a.Inertia).Msg("clustering applied")

	score, err := a.Score()
	if err != nil {
		res.Warnings = append(res.Warnings, "silhouette score unavailable: "+scoreReason(err))
		return
	}
	rounded := cluster.Round3(score)
	res.Score = &rounded
}

func (s *Service) filterFor(d *dataset.Dataset, req Request) (dataset.Filter, error) {
	f := dataset.Filter{
		Countries:    req.Countries,
		Perpetrators: req.Perpetrators,
		YearMin:      req.YearMin,
		YearMax:      req.YearMax,
	}
	if f.YearMin != 0 && f.YearMax != 0 && f.YearMin > f.YearMax {
		return f, fmt.Errorf("%w: year range %d-%d is empty", ErrInvalidRequest, f.YearMin, f.YearMax)
	}
	// A single bound outside the data selects nothing rather than an
	// inverted range.
	full := dataset.FullRange(d)
	if f.YearMin == 0 {
		f.YearMin = full.YearMin
		if f.YearMax != 0 && f.YearMax < f.YearMin {
			f.YearMin = f.YearMax
		}
	}
	if f.YearMax == 0 {
		f.YearMax = full.YearMax
		if f.YearMax < f.YearMin {
			f.YearMax = f.YearMin
		}
	}
	return f, nil
}

func clusterWarning(err error) string {
	var ide *cluster.InsufficientDataError
	if errors.As(err, &ide) {
		return fmt.Sprintf("clustering disabled: %d incidents match the filters, need at least %d for k=%d", ide.Rows, ide.K, ide.K)
	}
	return fmt.Sprintf("clustering not applied: %v", err)
}

func scoreReason(err error) string {
	var ue *cluster.UndefinedScoreError
	if errors.As(err, &ue) {
		return ue.Reason
	}
	return err.Error()
}

// Options are the filter choices offered to the user.
type Options struct {
	Countries        []string `json:"countries"`
	Perpetrators     []string `json:"perpetrators"`
	YearMin          int      `json:"year_min"`
	YearMax          int      `json:"year_max"`
	DefaultCountries []string `json:"default_countries"`
	DefaultK         int      `json:"default_k"`
}

// Options lists the available filter values. Configured default countries
// absent from the data are left out.
func (s *Service) Options(ctx context.Context) (*Options, error) {
	d, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	o := &Options{
		Countries:    d.Unique(dataset.ColCountry),
		Perpetrators: d.Unique(dataset.ColPerpetrator),
		DefaultK:     s.cfg.K,
	}
	o.YearMin, o.YearMax, _ = d.YearRange()
	have := map[string]bool{}
	for _, c := range o.Countries {
		have[c] = true
	}
	for _, c := range s.cfg.DefaultCountries {
		if have[c] {
			o.DefaultCountries = append(o.DefaultCountries, c)
		}
	}
	return o, nil
}
