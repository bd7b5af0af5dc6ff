package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/reefrank/pkg/domain"
	"github.com/matzehuels/reefrank/pkg/errors"
	"github.com/matzehuels/reefrank/pkg/pipeline"
)

type document struct {
	Name         string          `json:"name"`
	Sites        []domain.Site   `json:"sites"`
	Connectivity connectivityDoc `json:"connectivity"`
	WaveStress   [][][]float64   `json:"wave_stress"`
	HeatStress   [][][]float64   `json:"heat_stress"`
	CoralCover   coverDoc        `json:"coral_cover"`
	Distances    [][]float64     `json:"distances,omitempty"`
}

type connectivityDoc struct {
	Cutoff float64     `json:"cutoff"`
	Matrix [][]float64 `json:"matrix"`
}

type coverDoc struct {
	Types []string    `json:"types,omitempty"`
	Cover [][]float64 `json:"cover"`
}

// ReadDomain decodes a JSON domain document from r.
// Unknown fields are rejected. ReadDomain does not close r.
func ReadDomain(r io.Reader) (domain.Inputs, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return domain.Inputs{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode domain")
	}
	if len(doc.Sites) == 0 {
		return domain.Inputs{}, errors.New(errors.ErrCodeInvalidFormat, "domain has no sites")
	}
	return domain.Inputs{
		Name:               doc.Name,
		Sites:              doc.Sites,
		Connectivity:       doc.Connectivity.Matrix,
		ConnectivityCutoff: doc.Connectivity.Cutoff,
		WaveStress:         doc.WaveStress,
		HeatStress:         doc.HeatStress,
		CoralCover:         doc.CoralCover.Cover,
		CoralTypes:         doc.CoralCover.Types,
		Distances:          doc.Distances,
	}, nil
}

// ImportDomain reads the JSON domain document at path.
func ImportDomain(path string) (domain.Inputs, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return domain.Inputs{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "domain %s", path)
	}
	if err != nil {
		return domain.Inputs{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	in, err := ReadDomain(f)
	if err != nil {
		return domain.Inputs{}, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// ReadResult decodes a JSON pipeline result from r.
func ReadResult(r io.Reader) (*pipeline.Result, error) {
	var res pipeline.Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode result")
	}
	return &res, nil
}
