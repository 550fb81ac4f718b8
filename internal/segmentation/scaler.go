package segmentation

import "gonum.org/v1/gonum/stat"

// Standardize returns a copy of rows with every column shifted to zero mean
// and scaled to unit population standard deviation. Columns with zero
// variance map to 0.
func Standardize(rows [][]float64) [][]float64 {
	if len(rows) == 0 {
		return nil
	}
	dims := len(rows[0])
	out := make([][]float64, len(rows))
	for i := range out {
		out[i] = make([]float64, dims)
	}

	col := make([]float64, len(rows))
	for j := 0; j < dims; j++ {
		for i, r := range rows {
			col[i] = r[j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			continue
		}
		for i := range rows {
			out[i][j] = (col[i] - mean) / std
		}
	}
	return out
}
