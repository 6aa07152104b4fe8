// Package chain holds the static table of supported chains.
package chain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Family selects the rule variant applied to a chain.
type Family string

const (
	FamilySolana Family = "solana"
	FamilyEVM    Family = "evm"
)

// ID is a chain identifier. Solana uses a symbolic cluster name,
// EVM chains use their numeric chain id.
type ID struct {
	numeric int64
	name    string
}

// NumericID returns an ID for an EVM chain id.
func NumericID(n int64) ID {
	return ID{numeric: n}
}

// NamedID returns an ID for a non-numeric chain identifier.
func NamedID(name string) ID {
	return ID{name: name}
}

// String returns the identifier as text.
func (id ID) String() string {
	if id.name != "" {
		return id.name
	}
	return strconv.FormatInt(id.numeric, 10)
}

// MarshalJSON encodes numeric ids as JSON numbers and named ids as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.name != "" {
		return json.Marshal(id.name)
	}
	return json.Marshal(id.numeric)
}

// Descriptor describes one supported chain. Descriptors are immutable.
type Descriptor struct {
	Key        string // symbolic key, e.g. "ethereum"
	Name       string // display name
	ChainID    ID     // chain identifier
	SecurityID string // security provider chain identifier
	MarketID   string // market data provider chain identifier
	Family     Family // rule variant
}

// IsEVM reports whether the chain runs the EVM checklist.
func (d Descriptor) IsEVM() bool {
	return d.Family == FamilyEVM
}

// Info is the public listing entry for a chain.
type Info struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	ChainID ID     `json:"chain_id"`
}

// Registry is an ordered, read-only set of chain descriptors.
type Registry struct {
	ordered []Descriptor
	byKey   map[string]Descriptor
}

// NewRegistry creates a registry from descriptors, keeping their order.
// Later descriptors with a duplicate key are ignored.
func NewRegistry(descriptors ...Descriptor) *Registry {
	r := &Registry{
		ordered: make([]Descriptor, 0, len(descriptors)),
		byKey:   make(map[string]Descriptor, len(descriptors)),
	}
	for _, d := range descriptors {
		if _, exists := r.byKey[d.Key]; exists {
			continue
		}
		r.ordered = append(r.ordered, d)
		r.byKey[d.Key] = d
	}
	return r
}

// Default returns the registry of chains supported out of the box.
func Default() *Registry {
	return NewRegistry(
		Descriptor{Key: "solana", Name: "Solana", ChainID: NamedID("solana-mainnet"), SecurityID: "solana", MarketID: "solana", Family: FamilySolana},
		Descriptor{Key: "ethereum", Name: "Ethereum", ChainID: NumericID(1), SecurityID: "1", MarketID: "ethereum", Family: FamilyEVM},
		Descriptor{Key: "base", Name: "Base", ChainID: NumericID(8453), SecurityID: "8453", MarketID: "base", Family: FamilyEVM},
		Descriptor{Key: "arbitrum", Name: "Arbitrum", ChainID: NumericID(42161), SecurityID: "42161", MarketID: "arbitrum", Family: FamilyEVM},
		Descriptor{Key: "polygon", Name: "Polygon", ChainID: NumericID(137), SecurityID: "137", MarketID: "polygon", Family: FamilyEVM},
	)
}

// Lookup returns the descriptor for a key. Keys are matched case-insensitively.
func (r *Registry) Lookup(key string) (Descriptor, bool) {
	d, ok := r.byKey[strings.ToLower(strings.TrimSpace(key))]
	return d, ok
}

// Keys returns the supported chain keys in registry order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.ordered))
	for i, d := range r.ordered {
		keys[i] = d.Key
	}
	return keys
}

// List returns the public listing of all chains in registry order.
func (r *Registry) List() []Info {
	out := make([]Info, len(r.ordered))
	for i, d := range r.ordered {
		out[i] = Info{Key: d.Key, Name: d.Name, ChainID: d.ChainID}
	}
	return out
}

// Len returns the number of supported chains.
func (r *Registry) Len() int {
	return len(r.ordered)
}
