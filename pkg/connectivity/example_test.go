package connectivity_test

import (
	"fmt"

	"github.com/matzehuels/reefrank/pkg/connectivity"
)

func ExampleBuild() {
	// Larvae flow 0→1→2 and 3→2.
	m, err := connectivity.NewMatrix([][]float64{
		{0, 0.3, 0, 0},
		{0, 0, 0.2, 0},
		{0, 0, 0, 0},
		{0, 0, 0.1, 0},
	}, 0.05)
	if err != nil {
		panic(err)
	}

	c, err := connectivity.Build(m)
	if err != nil {
		panic(err)
	}
	fmt.Println("predecessors:", c.Predecessor)
	fmt.Printf("betweenness of site 1: %.3f\n", c.In[1])
	// Output:
	// predecessors: [-1 0 1 -1]
	// betweenness of site 1: 0.167
}
