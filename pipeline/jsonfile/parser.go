// Package jsonfile translates the JSON transform description embedded in
// classifier model files into typed stage descriptors. The pipeline core
// only ever sees the typed list; all loosely-typed metadata handling stays
// here.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pamflow/specpipe/pipeline"
)

// TransformParams is one entry of a model's transform list, e.g.
//
//	{"name": "decimate", "params": [256000]}
type TransformParams struct {
	Name   string    `json:"name"`
	Params []float64 `json:"params"`
}

// ParseDescriptors converts a JSON transform list into an ordered descriptor
// list. Element order is preserved; it determines execution order.
func ParseDescriptors(data []byte) ([]pipeline.Descriptor, error) {
	var entries []TransformParams
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing transform list: %w", err)
	}

	descriptors := make([]pipeline.Descriptor, len(entries))
	for i, entry := range entries {
		kind, err := pipeline.ParseKind(entry.Name)
		if err != nil {
			return nil, fmt.Errorf("transform %d: %w", i, err)
		}
		descriptors[i] = pipeline.NewDescriptor(kind, entry.Params...)
		if err := descriptors[i].Validate(); err != nil {
			return nil, fmt.Errorf("transform %d: %w", i, err)
		}
	}

	return descriptors, nil
}

// ReadDescriptorFile reads and parses a JSON transform description file
func ReadDescriptorFile(path string) ([]pipeline.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading transform file: %w", err)
	}
	return ParseDescriptors(data)
}
