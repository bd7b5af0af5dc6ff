// Package scenario loads and validates ranking scenarios.
//
// A scenario is one row of the intervention design: which MCDA algorithm to
// use, the seeding and shading weights, how many sites to pick, the
// filtering thresholds and the coral area to seed. Scenarios are written in
// TOML:
//
//	name = "balanced"
//	algorithm = "topsis"
//	risk_tolerance = 0.75
//	seed_sites = 5
//	shade_sites = 5
//	priority_zones = ["green", "orange"]
//
//	[seed_weights]
//	in_connectivity = 1.0
//	heat_stress = 0.5
//
//	[seeded_area]
//	tabular_acropora = 1500.0
//
// Every validation failure is an INVALID_CONFIG error and is raised before
// any replicate is ranked.
package scenario

import (
	"bytes"
	"encoding/json"
	"maps"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/reefrank/pkg/errors"
	"github.com/matzehuels/reefrank/pkg/mcda"
)

// Scenario is a validated ranking configuration.
type Scenario struct {
	Name string `toml:"name" json:"name"`

	// Algorithm is "order", "topsis" or "vikor". AlgorithmIndex (1-3) takes
	// precedence when set.
	Algorithm      string `toml:"algorithm" json:"algorithm" validate:"omitempty,oneof=order topsis vikor"`
	AlgorithmIndex int    `toml:"algorithm_index" json:"algorithm_index,omitempty" validate:"omitempty,min=1,max=3"`

	RiskTolerance float64 `toml:"risk_tolerance" json:"risk_tolerance" validate:"gte=0,lte=1"`

	SeedWeights  mcda.Weights `toml:"seed_weights" json:"seed_weights"`
	ShadeWeights mcda.Weights `toml:"shade_weights" json:"shade_weights"`

	SeedSites  int `toml:"seed_sites" json:"seed_sites" validate:"min=1"`
	ShadeSites int `toml:"shade_sites" json:"shade_sites" validate:"min=1"`

	MinSeedArea float64 `toml:"min_seed_area" json:"min_seed_area" validate:"gte=0"`
	MinDistance float64 `toml:"min_distance" json:"min_distance" validate:"gte=0"`
	TopN        int     `toml:"top_n" json:"top_n" validate:"gte=0"`

	DepthMin    float64 `toml:"depth_min" json:"depth_min" validate:"gte=0"`
	DepthOffset float64 `toml:"depth_offset" json:"depth_offset" validate:"gte=0"`

	PriorityZones []string `toml:"priority_zones" json:"priority_zones,omitempty" validate:"dive,required"`

	// SeededArea is the coral area to seed per coral type name, in m².
	SeededArea map[string]float64 `toml:"seeded_area" json:"seeded_area,omitempty" validate:"dive,gte=0"`

	// Timesteps restricts ranking to these timesteps. Empty means all.
	Timesteps []int `toml:"timesteps" json:"timesteps,omitempty" validate:"dive,gte=0"`

	// Replicates limits ranking to the first Replicates replicates. Zero
	// means all.
	Replicates int `toml:"replicates" json:"replicates,omitempty" validate:"gte=0"`
}

// Default returns a scenario with equal weights and the order-ranking
// algorithm.
func Default() *Scenario {
	return &Scenario{
		Name:          "default",
		Algorithm:     mcda.OrderRanking.String(),
		RiskTolerance: 0.75,
		SeedWeights:   mcda.DefaultWeights(),
		ShadeWeights:  mcda.DefaultWeights(),
		SeedSites:     5,
		ShadeSites:    5,
		DepthOffset:   10,
	}
}

// Load reads and validates the TOML scenario at path. Fields absent from the
// file keep their Default values. A weights table present in the file
// replaces the default weights: criteria it does not name weigh zero.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scenario %s", path)
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a TOML scenario. Unknown keys are rejected.
func Parse(data []byte) (*Scenario, error) {
	sc := Default()
	sc.SeedWeights, sc.ShadeWeights = mcda.Weights{}, mcda.Weights{}
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(sc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode scenario")
	}
	if !md.IsDefined("seed_weights") {
		sc.SeedWeights = mcda.DefaultWeights()
	}
	if !md.IsDefined("shade_weights") {
		sc.ShadeWeights = mcda.DefaultWeights()
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return nil, errors.Config("unknown scenario keys: %s", strings.Join(keys, ", "))
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// Clone returns a deep copy of s.
func (s *Scenario) Clone() *Scenario {
	c := *s
	c.PriorityZones = slices.Clone(s.PriorityZones)
	c.SeededArea = maps.Clone(s.SeededArea)
	c.Timesteps = slices.Clone(s.Timesteps)
	return &c
}

// Override returns a validated copy of s with the JSON object data decoded
// over it. Absent fields keep their values in s. Present seed_weights,
// shade_weights and seeded_area objects replace the ones in s instead of
// merging into them, matching Parse.
func (s *Scenario) Override(data []byte) (*Scenario, error) {
	var present map[string]json.RawMessage
	if err := json.Unmarshal(data, &present); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode scenario")
	}
	c := s.Clone()
	if _, ok := present["seed_weights"]; ok {
		c.SeedWeights = mcda.Weights{}
	}
	if _, ok := present["shade_weights"]; ok {
		c.ShadeWeights = mcda.Weights{}
	}
	if _, ok := present["seeded_area"]; ok {
		c.SeededArea = nil
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode scenario")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks field ranges and weights.
func (s *Scenario) Validate() error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	if err := s.SeedWeights.Validate(); err != nil {
		return err
	}
	if err := s.ShadeWeights.Validate(); err != nil {
		return err
	}
	_, err := s.MCDA()
	return err
}

// MCDA returns the configured algorithm.
func (s *Scenario) MCDA() (mcda.Algorithm, error) {
	if s.AlgorithmIndex != 0 {
		return mcda.AlgorithmFromIndex(s.AlgorithmIndex)
	}
	if s.Algorithm == "" {
		return mcda.OrderRanking, nil
	}
	return mcda.ParseAlgorithm(s.Algorithm)
}

// SeededVector resolves SeededArea against the domain's coral type order.
// Types missing from the scenario seed nothing; unknown types are an
// INVALID_CONFIG error.
func (s *Scenario) SeededVector(types []string) ([]float64, error) {
	idx := make(map[string]int, len(types))
	for i, t := range types {
		idx[t] = i
	}
	out := make([]float64, len(types))
	for name, area := range s.SeededArea {
		i, ok := idx[name]
		if !ok {
			return nil, errors.Config("seeded_area names unknown coral type %q", name)
		}
		out[i] = area
	}
	return out, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func formatValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "validate scenario")
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.Config("%s", strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "min", "gte":
		return field + " must be at least " + e.Param()
	case "max", "lte":
		return field + " must be at most " + e.Param()
	case "oneof":
		return field + " must be one of: " + e.Param()
	default:
		return field + " is invalid"
	}
}
