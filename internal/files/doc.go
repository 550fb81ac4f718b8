// Package files maps dataset paths onto the server's data directory.
//
// A Catalog resolves relative paths against its base directory, refusing
// any that climb out of it, and lists the .csv/.xlsx/.xls files found there:
//
//	catalog := files.NewCatalog("data", logger)
//	path, err := catalog.Resolve("2024/orders.csv")
//	latest, err := catalog.Latest()
package files
