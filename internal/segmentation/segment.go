package segmentation

import (
	"salespulse/internal/dataprocessing"
	"salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// Segment clusters the customers of ds into k groups and labels each group.
// The same dataset, k and seed always produce the same assignments and
// labels.
func Segment(ds *dataprocessing.Dataset, k int, seed int64) (*domain.Segmentation, error) {
	if k < 1 {
		return nil, errors.NewRangeError("clusters", k, 1, 0)
	}
	customers, err := BuildFeatures(ds)
	if err != nil {
		return nil, err
	}
	if len(customers) < k {
		return nil, errors.NewInsufficientDataError("too few customers for the requested cluster count", len(customers), k)
	}

	raw := make([][]float64, len(customers))
	for i, c := range customers {
		raw[i] = c.Vector()
	}
	res := NewKMeans(k, seed).Fit(Standardize(raw))

	profiles := profile(customers, res.Assignments, k)
	LabelClusters(profiles)

	for i := range customers {
		c := res.Assignments[i]
		customers[i].Cluster = c
		customers[i].Label = profiles[c].Label
	}
	return &domain.Segmentation{Customers: customers, Clusters: profiles}, nil
}

// profile computes per-cluster means of the raw features.
func profile(customers []domain.CustomerFeatures, assign []int, k int) []domain.ClusterProfile {
	out := make([]domain.ClusterProfile, k)
	for c := range out {
		out[c].Cluster = c
	}
	for i, cust := range customers {
		p := &out[assign[i]]
		p.Size++
		p.OrderCount += float64(cust.OrderCount)
		p.TotalSpend += cust.TotalSpend
		p.DistinctProducts += float64(cust.DistinctProducts)
		p.RecencyDays += float64(cust.RecencyDays)
		p.MonthlyRate += cust.MonthlyRate
	}
	for c := range out {
		p := &out[c]
		if p.Size == 0 {
			continue
		}
		n := float64(p.Size)
		p.OrderCount /= n
		p.TotalSpend /= n
		p.DistinctProducts /= n
		p.RecencyDays /= n
		p.MonthlyRate /= n
	}
	return out
}

// Counts summarizes customers per label in cluster order. Clusters sharing
// a label are merged.
func Counts(seg *domain.Segmentation) []domain.SegmentCount {
	index := make(map[string]int)
	var out []domain.SegmentCount
	for _, p := range seg.Clusters {
		i, ok := index[p.Label]
		if !ok {
			i = len(out)
			index[p.Label] = i
			out = append(out, domain.SegmentCount{Label: p.Label})
		}
		total := out[i].MeanSpend*float64(out[i].Customers) + p.TotalSpend*float64(p.Size)
		out[i].Customers += p.Size
		if out[i].Customers > 0 {
			out[i].MeanSpend = total / float64(out[i].Customers)
		}
	}
	return out
}
