package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/reefrank/pkg/domain"
	"github.com/matzehuels/reefrank/pkg/pipeline"
)

// WriteDomain encodes a domain's inputs as a JSON domain document.
// The output can be read back with [ReadDomain].
func WriteDomain(in domain.Inputs, w io.Writer) error {
	doc := document{
		Name:         in.Name,
		Sites:        in.Sites,
		Connectivity: connectivityDoc{Cutoff: in.ConnectivityCutoff, Matrix: in.Connectivity},
		WaveStress:   in.WaveStress,
		HeatStress:   in.HeatStress,
		CoralCover:   coverDoc{Types: in.CoralTypes, Cover: in.CoralCover},
		Distances:    in.Distances,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteResult encodes res as indented JSON.
func WriteResult(res *pipeline.Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// ExportResult writes res as JSON to path, creating or truncating the file.
func ExportResult(res *pipeline.Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteResult(res, f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
