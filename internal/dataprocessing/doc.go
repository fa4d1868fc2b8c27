// Package dataprocessing turns point-of-sale CSV exports into one enriched
// table.
//
// # Stages
//
//  1. Loader reads each file, trying UTF-8 first and then a single-byte
//     Western encoding. Unreadable files are skipped and reported.
//  2. Merge concatenates the loaded tables, taking the union of their columns.
//  3. FeatureDeriver drops rows whose "Sent Date" does not parse and appends
//     the item frequency, calendar and cheese category columns.
//
// Pricing lives in internal/pricing. Summarizer rolls the priced table up
// per item for the optional summary file.
//
// # Usage
//
//	loader, err := dataprocessing.NewLoader("iso-8859-1", logger)
//	result, err := loader.LoadAll(ctx, paths)
//	table := dataprocessing.Merge(result.Tables...)
//	stats := dataprocessing.NewFeatureDeriver(false, logger).Derive(ctx, table)
package dataprocessing
