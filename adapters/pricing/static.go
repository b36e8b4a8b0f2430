// Package pricing loads the externally-authored pricing data the
// engine consumes: the payment method fee matrix and the markup
// matrix, both YAML documents.
package pricing

import (
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"bundle-pricing/core/facts"
	"bundle-pricing/core/types"
	"bundle-pricing/internal/errors"
)

// LoadFeeMatrix reads a YAML fee matrix:
//
//	card:
//	  percentage_fee: 2.9
//	  fixed_fee: 0.30
//	paypal:
//	  percentage_fee: 3.4
func LoadFeeMatrix(path string) (types.FeeMatrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Config("reading fee matrix", err).WithContext("path", path)
	}

	var matrix types.FeeMatrix
	if err := yaml.Unmarshal(data, &matrix); err != nil {
		return nil, errors.Config("parsing fee matrix", err).WithContext("path", path)
	}
	return matrix, nil
}

// markupEntry is one markup matrix row. Provider and group follow the
// key fallback semantics: both set is a compound entry, group empty
// is a provider-only entry, provider empty is a legacy group entry.
type markupEntry struct {
	Provider string             `yaml:"provider,omitempty"`
	Group    string             `yaml:"group,omitempty"`
	Amounts  map[int]yamlAmount `yaml:"amounts"`
}

type yamlAmount struct {
	value decimal.Decimal
}

func (a *yamlAmount) UnmarshalYAML(node *yaml.Node) error {
	d, err := decimal.NewFromString(node.Value)
	if err != nil {
		return err
	}
	a.value = d
	return nil
}

// LoadMarkupMatrix reads a YAML markup matrix:
//
//	- provider: AIRLINK
//	  group: Standard Unlimited Essential
//	  amounts: {1: 0.50, 3: 0.60, 7: 1.20}
//	- provider: SATCOM
//	  amounts: {1: 0.40}
func LoadMarkupMatrix(path string) (*facts.MarkupMatrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Config("reading markup matrix", err).WithContext("path", path)
	}

	var entries []markupEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, errors.Config("parsing markup matrix", err).WithContext("path", path)
	}

	matrix := facts.NewMarkupMatrix()
	for _, entry := range entries {
		for days, amount := range entry.Amounts {
			matrix.Add(entry.Provider, entry.Group, days, amount.value)
		}
	}
	return matrix, nil
}
