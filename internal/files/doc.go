// Package files provides file system operations for the pipeline.
//
// Discovery finds the input exports matching a glob pattern and leaves out
// the pipeline's own output files, so re-running in the same directory does
// not read the previous result back in.
//
// Manager gives the exporters a temp-file-then-rename way to overwrite an
// output file.
//
// Example usage:
//
//	discovery := files.NewDiscovery("")
//	inputs, err := discovery.FindFilesByPattern(".", "*.csv", "Combinedata.csv")
package files
