package render

import "math"

// aspectRatios and sizeTiers enumerate the output geometries the image model
// supports. 21:9 is excluded: listing photos are never that wide and the
// model distorts rooms at that ratio. Iteration order is fixed so the same
// input always picks the same config.
var aspectRatios = []struct {
	name  string
	value float64
}{
	{"1:1", 1.0},
	{"2:3", 2.0 / 3.0},
	{"3:2", 3.0 / 2.0},
	{"3:4", 3.0 / 4.0},
	{"4:3", 4.0 / 3.0},
	{"4:5", 4.0 / 5.0},
	{"5:4", 5.0 / 4.0},
	{"9:16", 9.0 / 16.0},
	{"16:9", 16.0 / 9.0},
}

var sizeTiers = []struct {
	name string
	long int
}{
	{"1K", 1024},
	{"2K", 2048},
	{"4K", 4096},
}

// ChooseImageConfig picks the supported aspect ratio and size tier closest to
// the source photo's geometry. Ratio mismatch dominates the score; among
// near-ties the 2K tier wins because it balances fidelity and latency.
func ChooseImageConfig(width, height int) (aspectRatio, imageSize string) {
	if width <= 0 || height <= 0 {
		return "16:9", "2K"
	}

	arIn := float64(width) / float64(height)
	longIn := width
	if height > longIn {
		longIn = height
	}

	best := math.MaxFloat64
	aspectRatio, imageSize = "16:9", "2K"
	for _, ar := range aspectRatios {
		for _, size := range sizeTiers {
			score := 2.0*math.Abs(ar.value-arIn) +
				math.Abs(float64(size.long-longIn))/math.Max(float64(longIn), 1)
			if size.name == "2K" {
				score -= 0.001
			}
			if score < best {
				best = score
				aspectRatio = ar.name
				imageSize = size.name
			}
		}
	}
	return aspectRatio, imageSize
}
