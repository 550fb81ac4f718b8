package segmentation

import (
	"sort"

	"salespulse/pkg/contracts/domain"
)

// Label stems and recency prefixes.
const (
	StemHighValueLoyal        = "high-value loyal"
	StemHighValueLowFrequency = "high-value low-frequency"
	StemLowValueHighFrequency = "low-value high-frequency"
	StemLowValueLowFrequency  = "low-value low-frequency"

	PrefixActive = "active"
	PrefixAtRisk = "at-risk"
)

// LabelClusters assigns a label to every profile from the profile table
// alone. Spend and order count are compared with the median of the cluster
// means, not with per-customer values; recency below the median of cluster
// means counts as active.
func LabelClusters(profiles []domain.ClusterProfile) {
	spend := make([]float64, len(profiles))
	count := make([]float64, len(profiles))
	recency := make([]float64, len(profiles))
	for i, p := range profiles {
		spend[i] = p.TotalSpend
		count[i] = p.OrderCount
		recency[i] = p.RecencyDays
	}
	medSpend, medCount, medRecency := median(spend), median(count), median(recency)

	for i := range profiles {
		p := &profiles[i]
		highValue := p.TotalSpend > medSpend
		frequent := p.OrderCount > medCount

		var stem string
		switch {
		case highValue && frequent:
			stem = StemHighValueLoyal
		case highValue:
			stem = StemHighValueLowFrequency
		case frequent:
			stem = StemLowValueHighFrequency
		default:
			stem = StemLowValueLowFrequency
		}

		prefix := PrefixAtRisk
		if p.RecencyDays < medRecency {
			prefix = PrefixActive
		}
		p.Label = prefix + " " + stem
	}
}

// median averages the two middle values for an even count.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
