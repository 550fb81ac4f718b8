package segmentation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/dataprocessing"
	"salespulse/internal/errors"
	"salespulse/internal/shared/testutil"
	"salespulse/pkg/contracts/domain"
)

func TestBuildFeatures(t *testing.T) {
	ds := dataprocessing.NewDataset([]domain.OrderRecord{
		testutil.Order("1", testutil.Date(2023, 1, 1), "Books", "Novel", "C1", 10, 2, 1),
		testutil.Order("2", testutil.Date(2023, 3, 31), "Food", "Tea", "C2", 5, 1, 1),
		testutil.Order("3", testutil.Date(2023, 3, 2), "Books", "Atlas", "C1", 30, 1, 1),
		testutil.Order("4", testutil.Date(2023, 2, 1), "Books", "Novel", "C1", 10, 1, 1),
	}, nil, "")

	got, err := BuildFeatures(ds)
	require.NoError(t, err)
	require.Len(t, got, 2)

	c1 := got[0]
	assert.Equal(t, "C1", c1.CustomerID)
	assert.Equal(t, 3, c1.OrderCount)
	assert.Equal(t, 60.0, c1.TotalSpend)
	assert.Equal(t, 2, c1.DistinctProducts)
	assert.Equal(t, 29, c1.RecencyDays)
	assert.Equal(t, 60, c1.ActiveSpanDays)
	assert.InDelta(t, 1.5, c1.MonthlyRate, 1e-9)

	c2 := got[1]
	assert.Equal(t, 0, c2.RecencyDays)
	assert.Equal(t, 1, c2.ActiveSpanDays, "single-day customers are floored at one day")
	assert.InDelta(t, 30.0, c2.MonthlyRate, 1e-9)
}

func TestStandardize(t *testing.T) {
	got := Standardize([][]float64{{1, 5}, {2, 5}, {3, 5}})

	s := math.Sqrt(2.0 / 3.0)
	assert.InDeltaSlice(t, []float64{-1 / s, 0}, got[0], 1e-9)
	assert.InDeltaSlice(t, []float64{0, 0}, got[1], 1e-9)
	assert.InDeltaSlice(t, []float64{1 / s, 0}, got[2], 1e-9)
	assert.Nil(t, Standardize(nil))
}

func TestKMeans_SeparatesBlobs(t *testing.T) {
	points := [][]float64{
		{0, 0}, {0.1, 0.2}, {0.2, 0.1},
		{10, 10}, {10.1, 9.9}, {9.8, 10.2},
		{-10, 5}, {-9.9, 5.1},
	}

	res := NewKMeans(3, 42).Fit(points)
	a := res.Assignments
	assert.Equal(t, a[0], a[1])
	assert.Equal(t, a[0], a[2])
	assert.Equal(t, a[3], a[4])
	assert.Equal(t, a[3], a[5])
	assert.Equal(t, a[6], a[7])
	assert.NotEqual(t, a[0], a[3])
	assert.NotEqual(t, a[0], a[6])
	assert.NotEqual(t, a[3], a[6])

	again := NewKMeans(3, 42).Fit(points)
	assert.Equal(t, res, again)
}

func TestKMeans_NoEmptyClusters(t *testing.T) {
	points := [][]float64{{1, 1}, {1, 1}, {1, 1}, {1, 1}, {2, 2}}

	res := NewKMeans(4, 7).Fit(points)
	sizes := make([]int, 4)
	for _, c := range res.Assignments {
		sizes[c]++
	}
	for c, n := range sizes {
		assert.Positive(t, n, "cluster %d", c)
	}
}

func TestLabelClusters(t *testing.T) {
	profiles := []domain.ClusterProfile{
		{Cluster: 0, TotalSpend: 100, OrderCount: 10, RecencyDays: 5},
		{Cluster: 1, TotalSpend: 200, OrderCount: 1, RecencyDays: 50},
		{Cluster: 2, TotalSpend: 300, OrderCount: 8, RecencyDays: 10},
		{Cluster: 3, TotalSpend: 400, OrderCount: 2, RecencyDays: 40},
	}

	LabelClusters(profiles)

	assert.Equal(t, "active low-value high-frequency", profiles[0].Label)
	assert.Equal(t, "at-risk low-value low-frequency", profiles[1].Label)
	assert.Equal(t, "active high-value loyal", profiles[2].Label)
	assert.Equal(t, "at-risk high-value low-frequency", profiles[3].Label)
}

func TestLabelClusters_ValuesAtMedianAreNotHigh(t *testing.T) {
	profiles := []domain.ClusterProfile{
		{TotalSpend: 10, OrderCount: 3, RecencyDays: 7},
		{TotalSpend: 20, OrderCount: 3, RecencyDays: 7},
		{TotalSpend: 30, OrderCount: 3, RecencyDays: 7},
	}

	LabelClusters(profiles)

	assert.Equal(t, "at-risk low-value low-frequency", profiles[0].Label)
	assert.Equal(t, "at-risk low-value low-frequency", profiles[1].Label)
	assert.Equal(t, "at-risk high-value low-frequency", profiles[2].Label)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.5, median([]float64{4, 1, 3, 2}))
	assert.Equal(t, 3.0, median([]float64{5, 3, 1}))
	assert.Equal(t, 0.0, median(nil))
}

func TestSegment(t *testing.T) {
	orders := testutil.RandomOrders(testutil.OrderOptions{Seed: 3, Count: 400, Customers: 50})
	ds := dataprocessing.NewDataset(orders, nil, "")

	seg, err := Segment(ds, 4, 42)
	require.NoError(t, err)
	require.Len(t, seg.Clusters, 4)
	require.Len(t, seg.Customers, 50)

	seen := make(map[string]bool)
	total := 0
	for _, p := range seg.Clusters {
		assert.Positive(t, p.Size)
		total += p.Size
	}
	assert.Equal(t, 50, total)

	for _, c := range seg.Customers {
		assert.False(t, seen[c.CustomerID], "customer %s listed twice", c.CustomerID)
		seen[c.CustomerID] = true
		require.GreaterOrEqual(t, c.Cluster, 0)
		require.Less(t, c.Cluster, 4)
		assert.Equal(t, seg.Clusters[c.Cluster].Label, c.Label)
	}

	relabeled := make([]domain.ClusterProfile, len(seg.Clusters))
	copy(relabeled, seg.Clusters)
	for i := range relabeled {
		relabeled[i].Label = ""
	}
	LabelClusters(relabeled)
	assert.Equal(t, seg.Clusters, relabeled, "labels depend only on the cluster mean table")

	again, err := Segment(ds, 4, 42)
	require.NoError(t, err)
	assert.Equal(t, seg, again)

	counts := Counts(seg)
	sum := 0
	for _, c := range counts {
		sum += c.Customers
	}
	assert.Equal(t, 50, sum)
}

func TestSegment_Errors(t *testing.T) {
	small := dataprocessing.NewDataset([]domain.OrderRecord{
		testutil.Order("1", testutil.Date(2023, 1, 1), "Books", "Novel", "C1", 10, 1, 1),
		testutil.Order("2", testutil.Date(2023, 1, 2), "Books", "Novel", "C2", 10, 1, 1),
	}, nil, "")
	noCustomer := dataprocessing.NewDataset(small.Records(),
		domain.NewColumnSet(domain.ColDate, domain.ColTotalPrice, domain.ColProductName), "")

	tests := []struct {
		name     string
		ds       *dataprocessing.Dataset
		k        int
		wantType errors.ErrorType
	}{
		{"zero clusters", small, 0, errors.ErrTypeRange},
		{"nothing loaded", nil, 4, errors.ErrTypeNotLoaded},
		{"empty dataset", dataprocessing.NewDataset(nil, nil, ""), 4, errors.ErrTypeNotLoaded},
		{"fewer customers than clusters", small, 3, errors.ErrTypeInsufficientData},
		{"missing customer column", noCustomer, 2, errors.ErrTypeMissingColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Segment(tt.ds, tt.k, 42)
			assert.True(t, errors.IsType(err, tt.wantType), "got %v", err)
		})
	}
}
