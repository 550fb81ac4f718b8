// Package segmentation clusters customers by purchasing behavior.
//
// Five features are computed per customer (order count, total spend,
// distinct products, recency in days and monthly order rate), standardized
// to zero mean and unit population variance, and partitioned with seeded
// k-means. Each cluster is then labeled by comparing its mean feature
// vector with the median of all cluster means, so labels depend only on the
// per-cluster mean table.
package segmentation
