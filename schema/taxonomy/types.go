// Package taxonomy has the layout of the curated retraction reason taxonomy.
package taxonomy

// Required columns.
var Required = []string{"Reason", "TopReason"}

// Row maps a raw retraction reason to its top level category.
type Row struct {
	Reason    string `csv:"Reason"`
	TopReason string `csv:"TopReason"`
}
