// Package analytics groups a loaded dataset into revenue tables: time
// series by day, month, quarter or year, category and region breakdowns,
// product rankings and the category by month pivot.
//
// Every function validates its required columns first and returns a
// MissingColumnError naming all absent ones. An empty dataset, or a
// category filter that matches nothing, yields an EmptyResultError.
package analytics
