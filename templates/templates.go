// Package templates ships the NF-e document template used when no
// template_path is configured.
package templates

import _ "embed"

// DefaultNFeName is the file name of the embedded template.
const DefaultNFeName = "nfe-order-details.mock.xml"

// DefaultNFe holds the embedded NF-e template bytes.
//
//go:embed nfe-order-details.mock.xml
var DefaultNFe []byte
