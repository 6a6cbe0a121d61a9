// Package cluster groups incidents by the shape of their human impact:
// standardized impact ratios, k-means labels and a silhouette quality score.
package cluster

import (
	"fmt"

	"github.com/go-gota/gota/series"
	"github.com/google/uuid"

	"github.com/KaramelBytes/edudanger-cli/internal/dataset"
)

// Assignment is one clustering run over a row set. It is discarded, not
// updated, when the rows or k change.
type Assignment struct {
	RunID      string
	K          int
	Dataset    *dataset.Dataset
	Scaled     [][]float64
	Scaler     Scaler
	Labels     []int
	Centroids  [][]float64
	Inertia    float64
	Iterations int
	Converged  bool
}

// Assign standardizes the ratio features of d, runs k-means and returns a new
// dataset carrying the Cluster column. d must already hold the ratio columns.
// No partial result is returned on error.
func Assign(d *dataset.Dataset, opt Options) (*Assignment, error) {
	for _, c := range dataset.RatioColumns {
		if !d.HasColumn(c) {
			return nil, fmt.Errorf("cluster: column %q missing; derive ratios first", c)
		}
	}
	if opt.K < 2 {
		return nil, fmt.Errorf("cluster: k must be at least 2, got %d", opt.K)
	}
	if d.Len() < opt.K {
		return nil, &InsufficientDataError{Rows: d.Len(), K: opt.K}
	}

	scaled, scaler := Standardize(d.Matrix(dataset.RatioColumns...))
	res, err := KMeans(scaled, opt)
	if err != nil {
		return nil, err
	}
	labeled, err := d.WithColumns(series.New(res.Labels, series.Int, dataset.ColCluster))
	if err != nil {
		return nil, &FitError{Err: err}
	}
	return &Assignment{
		RunID:      uuid.NewString(),
		K:          opt.K,
		Dataset:    labeled,
		Scaled:     scaled,
		Scaler:     scaler,
		Labels:     res.Labels,
		Centroids:  res.Centroids,
		Inertia:    res.Inertia,
		Iterations: res.Iterations,
		Converged:  res.Converged,
	}, nil
}

// Score is the silhouette coefficient of the assignment in scaled space.
func (a *Assignment) Score() (float64, error) {
	return Silhouette(a.Scaled, a.Labels)
}
