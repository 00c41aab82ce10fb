package simpson_test

import (
	"fmt"

	"github.com/paradoxlab/reversal/pkg/simpson"
)

func ExampleBuild() {
	// Treatment recovers at 60%, control at 40%, equal population shares.
	root := simpson.Layer{
		Taller:  []simpson.Column{{Height: 0.6, Width: 0.5}},
		Shorter: []simpson.Column{{Height: 0.4, Width: 0.5}},
	}

	tree, err := simpson.Build(root, 3)
	if err != nil {
		panic(err)
	}

	for k := 1; k <= tree.Depth(); k++ {
		layer, _ := tree.Layer(k)
		fmt.Printf("layer %d: %d column pairs, labels %v\n", k, layer.Len(), simpson.Labels(k))
	}
	// Output:
	// layer 1: 1 column pairs, labels []
	// layer 2: 2 column pairs, labels [0 1]
	// layer 3: 4 column pairs, labels [00 01 10 11]
}

func ExampleTree_Groups() {
	root := simpson.Layer{
		Taller:  []simpson.Column{{Height: 0.6, Width: 0.5}},
		Shorter: []simpson.Column{{Height: 0.4, Width: 0.5}},
	}
	tree, _ := simpson.Build(root, 2)

	// On layer 2 the treatment population sits in the shorter group:
	// overall it still recovers at the higher rate, yet in each of the two
	// sub-populations it recovers at the lower rate.
	treatment, control, _ := tree.Groups(2)
	fmt.Println("treatment columns:", len(treatment))
	for i := range treatment {
		fmt.Printf("sub-population %d: treatment below control: %v\n",
			i, treatment[i].Height < control[i].Height)
	}
	// Output:
	// treatment columns: 2
	// sub-population 0: treatment below control: true
	// sub-population 1: treatment below control: true
}
