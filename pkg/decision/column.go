package decision

// Column identifies a decision matrix column.
type Column int

// Decision matrix columns, in storage order.
const (
	Site Column = iota
	InConnectivity
	OutConnectivity
	WaveDamage
	HeatStress
	DepthPriority
	PredecessorPriority
	ZonePriority
	SeedSpace
	ShadeSpace

	// NumColumns is the number of columns in a decision matrix.
	NumColumns int = iota
)

var columnNames = [...]string{
	Site:                "site",
	InConnectivity:      "in_connectivity",
	OutConnectivity:     "out_connectivity",
	WaveDamage:          "wave_damage",
	HeatStress:          "heat_stress",
	DepthPriority:       "depth_priority",
	PredecessorPriority: "predecessor_priority",
	ZonePriority:        "zone_priority",
	SeedSpace:           "seed_space",
	ShadeSpace:          "shade_space",
}

func (c Column) String() string {
	if c < 0 || int(c) >= NumColumns {
		return "unknown"
	}
	return columnNames[c]
}

// Columns returns every column in storage order.
func Columns() []Column {
	cols := make([]Column, NumColumns)
	for i := range cols {
		cols[i] = Column(i)
	}
	return cols
}
