// Package apidoc turns resolved Python objects into symbol records and
// writes them as a versioned JSON document.
package apidoc

import (
	"github.com/drift-labs/pyapidoc/internal/docstring"
	"github.com/drift-labs/pyapidoc/internal/pysource"
)

// Symbol is the documentation record emitted for one requested FQN.
type Symbol struct {
	FQN       string             `json:"fqn"`
	Kind      *string            `json:"kind"`
	Signature *string            `json:"signature"`
	Summary   *string            `json:"summary"`
	Params    []docstring.Param  `json:"params"`
	Returns   *docstring.Returns `json:"returns"`
}

// Extract builds the record for obj, keyed by the name it was requested
// under. Aliases are followed to their final target first.
func Extract(fqn string, obj pysource.Object) Symbol {
	obj = pysource.Final(obj)

	var doc string
	if d := obj.Docstring(); d != nil {
		doc = d.Value
	}
	parsed := docstring.Parse(doc)

	sym := Symbol{
		FQN:     fqn,
		Summary: parsed.Summary,
		Params:  parsed.Params,
		Returns: parsed.Returns,
	}
	if kind := string(obj.Kind()); kind != "" {
		sym.Kind = &kind
	}
	if signer, ok := obj.(pysource.Signer); ok {
		if sig := signer.Signature(); sig != "" {
			sym.Signature = &sig
		}
	}
	return sym
}
