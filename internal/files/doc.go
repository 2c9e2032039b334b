// Package files provides file discovery and atomic replacement for the
// per-symbol price files.
//
// Discovery finds the tabular files (.csv, .xlsx) in a directory, skipping
// hidden files and spreadsheet lock files. WriteAtomic replaces a file through
// a temp file and rename so an interrupted run never leaves a partial file.
//
//	discovery := files.NewDiscovery("")
//	found, err := discovery.FindTabularFiles("/srv/nepse/stock_data")
package files
