package operations

// Pipeline step identifiers
const (
	StepIDDiscover = "discover"
	StepIDLoad     = "load"
	StepIDMerge    = "merge"
	StepIDDerive   = "derive"
	StepIDPrice    = "price"
	StepIDWrite    = "write"
)

// Pipeline step names
const (
	StepNameDiscover = "File Discovery"
	StepNameLoad     = "File Load"
	StepNameMerge    = "Merge"
	StepNameDerive   = "Feature Derivation"
	StepNamePrice    = "Pricing"
	StepNameWrite    = "Output"
)

// Metadata keys recorded on step states and copied into the run manifest
const (
	MetaFiles       = "files"
	MetaBytes       = "bytes"
	MetaLoaded      = "loaded"
	MetaSkipped     = "skipped"
	MetaRows        = "rows"
	MetaColumns     = "columns"
	MetaDropped     = "dropped"
	MetaPriceMisses = "price_misses"
	MetaTotalCost   = "total_cost"
	MetaSinks       = "sinks"
	MetaFailedSinks = "failed_sinks"
)
