package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KaramelBytes/edudanger-cli/internal/dashboard"
	"github.com/KaramelBytes/edudanger-cli/internal/dataset"
	"github.com/KaramelBytes/edudanger-cli/internal/logging"
	"github.com/KaramelBytes/edudanger-cli/internal/source"
	"github.com/spf13/cobra"
)

// requireConfig returns the loaded configuration or the reason it is missing.
func requireConfig() error {
	if cfg != nil {
		return nil
	}
	if cfgErr != nil {
		return cfgErr
	}
	return errors.New("no config loaded")
}

// newLocator picks the local workbook when configured, else the remote one.
func newLocator() dataset.Locator {
	if cfg.SourcePath != "" {
		return source.Local{Path: cfg.SourcePath}
	}
	return newRemote()
}

func newRemote() *source.Remote {
	log := logging.Component(logger, "source")
	return &source.Remote{
		URL:      cfg.SourceURL,
		File:     cfg.SourceFile,
		CacheDir: cfg.CacheDir,
		Username: cfg.KaggleUsername,
		Password: cfg.KaggleKey,
		Client: source.NewClient(source.ClientOptions{
			Timeout:  time.Duration(cfg.HTTPTimeoutSec) * time.Second,
			RetryMax: cfg.RetryMaxAttempts,
			WaitMin:  time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
			WaitMax:  time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond,
			Log:      log,
		}),
		Log: log,
	}
}

func newService() (*dashboard.Service, error) {
	if err := requireConfig(); err != nil {
		return nil, err
	}
	loc := newLocator()
	loader := &dataset.Loader{
		Source:  loc,
		Options: dataset.Options{SheetName: cfg.SheetName, SheetIndex: 1},
		Log:     logging.Component(logger, "loader"),
	}
	return dashboard.NewService(dashboard.Config{
		Loader:           loader,
		Key:              loc.String(),
		K:                cfg.Clusters,
		MaxIter:          cfg.MaxIterations,
		DefaultCountries: cfg.DefaultCountries,
		Log:              logger,
	}), nil
}

// Filter flags shared by the data commands.
var (
	fltCountries    []string
	fltPerpetrators []string
	fltYearMin      int
	fltYearMax      int
	fltDefaults     bool
)

func addFilterFlags(c *cobra.Command) {
	c.Flags().StringArrayVar(&fltCountries, "country", nil, "country to include (repeatable; default all)")
	c.Flags().StringArrayVar(&fltPerpetrators, "perpetrator", nil, "reported perpetrator to include (repeatable; default all)")
	c.Flags().IntVar(&fltYearMin, "year-min", 0, "first year to include (default: earliest in data)")
	c.Flags().IntVar(&fltYearMax, "year-max", 0, "last year to include (default: latest in data)")
	c.Flags().BoolVar(&fltDefaults, "default-countries", false, "restrict to the configured default countries when --country is not given")
}

// filterRequest builds the service request from the filter flags.
func filterRequest(ctx context.Context, svc *dashboard.Service) (dashboard.Request, error) {
	req := dashboard.Request{
		Countries:    fltCountries,
		Perpetrators: fltPerpetrators,
		YearMin:      fltYearMin,
		YearMax:      fltYearMax,
	}
	if fltDefaults && len(req.Countries) == 0 {
		o, err := svc.Options(ctx)
		if err != nil {
			return req, err
		}
		if len(o.DefaultCountries) == 0 {
			return req, fmt.Errorf("none of the default countries %v appear in the data", cfg.DefaultCountries)
		}
		req.Countries = o.DefaultCountries
	}
	return req, nil
}
