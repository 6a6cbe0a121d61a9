package cluster

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/edudanger-cli/internal/dataset"
)

func blobs(rng *rand.Rand, perBlob int, centers ...[2]float64) ([][]float64, []int) {
	var X [][]float64
	var truth []int
	for b, c := range centers {
		for i := 0; i < perBlob; i++ {
			X = append(X, []float64{c[0] + rng.NormFloat64()*0.3, c[1] + rng.NormFloat64()*0.3})
			truth = append(truth, b)
		}
	}
	return X, truth
}

func TestKMeansSeparatesBlobs(t *testing.T) {
	X, truth := blobs(rand.New(rand.NewSource(1)), 25, [2]float64{0, 0}, [2]float64{10, 10}, [2]float64{-10, 10})

	res, err := KMeans(X, Options{K: 3})
	require.NoError(t, err)
	require.Len(t, res.Labels, len(X))

	blobLabel := map[int]int{}
	for i, l := range res.Labels {
		if want, ok := blobLabel[truth[i]]; ok {
			assert.Equal(t, want, l, "point %d split from its blob", i)
			continue
		}
		blobLabel[truth[i]] = l
	}
	seen := map[int]bool{}
	for _, l := range blobLabel {
		seen[l] = true
	}
	assert.Len(t, seen, 3, "each blob should get its own label")
	assert.True(t, res.Converged)
	assert.LessOrEqual(t, res.Iterations, DefaultMaxIter)

	score, err := Silhouette(X, res.Labels)
	require.NoError(t, err)
	assert.Greater(t, score, 0.8)
}

func TestKMeansDeterministic(t *testing.T) {
	X, _ := blobs(rand.New(rand.NewSource(2)), 15, [2]float64{0, 0}, [2]float64{3, 3}, [2]float64{6, 0}, [2]float64{0, 6})
	a, err := KMeans(X, Options{K: 4})
	require.NoError(t, err)
	b, err := KMeans(X, Options{K: 4})
	require.NoError(t, err)
	assert.Equal(t, a.Labels, b.Labels)
	assert.InDelta(t, a.Inertia, b.Inertia, 1e-12)
}

func TestKMeansErrors(t *testing.T) {
	_, err := KMeans([][]float64{{0}, {1}}, Options{K: 3})
	var ide *InsufficientDataError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, 2, ide.Rows)
	assert.Equal(t, 3, ide.K)

	_, err = KMeans([][]float64{{1, 1}, {1, 1}, {1, 1}}, Options{K: 2})
	var fe *FitError
	assert.ErrorAs(t, err, &fe)

	_, err = KMeans([][]float64{{1}, {2}, {3}}, Options{K: 1})
	assert.Error(t, err)
}

func TestKMeansFillsEmptyClusters(t *testing.T) {
	// two tight groups plus duplicates; k=3 must still yield three labels
	X := [][]float64{{0}, {0}, {0}, {0.1}, {5}, {5}, {5.1}}
	res, err := KMeans(X, Options{K: 3})
	require.NoError(t, err)
	seen := map[int]bool{}
	for _, l := range res.Labels {
		seen[l] = true
	}
	assert.Len(t, seen, 3)
}

func TestStandardize(t *testing.T) {
	X := [][]float64{{1, 7}, {2, 7}, {3, 7}, {4, 7}}
	scaled, s := Standardize(X)
	assert.InDelta(t, 2.5, s.Mean[0], 1e-12)
	assert.Equal(t, 1.0, s.Scale[1])

	var sum, sq float64
	for _, r := range scaled {
		sum += r[0]
		sq += r[0] * r[0]
		assert.Equal(t, 0.0, r[1])
	}
	assert.InDelta(t, 0, sum/4, 1e-12)
	assert.InDelta(t, 1, sq/4, 1e-12)
	assert.Equal(t, 1.0, X[0][0], "input must not be modified")
}

func TestSilhouette(t *testing.T) {
	X := [][]float64{{0}, {1}, {10}, {11}}
	score, err := Silhouette(X, []int{0, 0, 1, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.8997, score, 1e-4)
	assert.Equal(t, 0.9, Round3(score))

	_, err = Silhouette(X, []int{2, 2, 2, 2})
	var ue *UndefinedScoreError
	assert.ErrorAs(t, err, &ue)

	_, err = Silhouette(X, []int{0, 0, 0, 1})
	assert.ErrorAs(t, err, &ue)

	_, err = Silhouette(X, []int{0, 1})
	assert.Error(t, err)
}

// profileDataset builds a dataset whose rows have a single non-zero victim
// column each, giving one distinct ratio profile per column used.
func profileDataset(t *testing.T, cols ...string) *dataset.Dataset {
	t.Helper()
	header := dataset.RequiredColumns()
	recs := [][]string{header}
	for _, c := range cols {
		rec := make([]string, len(header))
		for i, h := range header {
			switch h {
			case dataset.ColDate:
				rec[i] = "2022-05-01"
			case dataset.ColCountry:
				rec[i] = "Ukraine"
			case dataset.ColFacility:
				rec[i] = "School"
			case dataset.ColLatitude, dataset.ColLongitude:
				rec[i] = "1"
			case c:
				rec[i] = "5"
			}
		}
		recs = append(recs, rec)
	}
	d, err := dataset.FromRecords("profiles", recs)
	require.NoError(t, err)
	d, err = dataset.DeriveRatios(d)
	require.NoError(t, err)
	return d
}

func TestAssignLabelsProfiles(t *testing.T) {
	var cols []string
	for i := 0; i < 4; i++ {
		cols = append(cols, dataset.ColStudentsKilled, dataset.ColEducatorsKidnapped, dataset.ColStudentsArrested)
	}
	d := profileDataset(t, cols...)

	a, err := Assign(d, Options{K: 3})
	require.NoError(t, err)
	assert.NotEmpty(t, a.RunID)
	assert.False(t, d.HasColumn(dataset.ColCluster), "input dataset must stay unlabeled")
	require.True(t, a.Dataset.HasColumn(dataset.ColCluster))

	labels := a.Dataset.Ints(dataset.ColCluster)
	for i := 3; i < len(labels); i++ {
		assert.Equal(t, labels[i%3], labels[i])
	}
	assert.NotEqual(t, labels[0], labels[1])
	assert.NotEqual(t, labels[1], labels[2])
	assert.NotEqual(t, labels[0], labels[2])
	for _, l := range labels {
		assert.True(t, l >= 0 && l < 3)
	}

	score, err := a.Score()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestAssignErrors(t *testing.T) {
	d := profileDataset(t, dataset.ColStudentsKilled, dataset.ColStudentsInjured)

	a, err := Assign(d, Options{K: 3})
	var ide *InsufficientDataError
	require.ErrorAs(t, err, &ide)
	assert.Nil(t, a)

	raw, err := dataset.FromRecords("raw", [][]string{dataset.RequiredColumns()})
	require.NoError(t, err)
	_, err = Assign(raw, Options{K: 2})
	assert.ErrorContains(t, err, "derive ratios first")
}
