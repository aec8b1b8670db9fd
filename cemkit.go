// Package cemkit builds matched control samples for retrospective studies of
// retracted articles, using coarsened exact matching over journal rank,
// publication year and scientific domain.
package cemkit

const (
	// AppName is used for data and config directories.
	AppName = "cemkit"
	// Version of the toolkit.
	Version = "0.1.0"
)
