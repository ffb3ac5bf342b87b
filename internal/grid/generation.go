// Terrain generation using layered simplex noise thresholded into land and
// water, with a continental falloff so water pools toward the edges.
package grid

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/cityforge/internal/catalog"
)

// GenConfig holds terrain generation parameters.
type GenConfig struct {
	Width, Height int
	Seed          int64   // 0 = random
	WaterLevel    float64 // Noise threshold below which a tile is water
}

// DefaultGenConfig returns the standard city map parameters.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:      40,
		Height:     40,
		WaterLevel: 0.32,
	}
}

// Generate creates a terrain grid deterministically from the seed.
func Generate(cfg GenConfig) *Grid {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	noise := opensimplex.NewNormalized(seed)
	g := New(cfg.Width, cfg.Height)

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			elev := octaveNoise(noise, float64(x), float64(y), 4, 0.07, 0.5)

			// Edge falloff keeps the city center dry and pushes water
			// toward the map border.
			dx := (float64(x)/float64(cfg.Width) - 0.5) * 2
			dy := (float64(y)/float64(cfg.Height) - 0.5) * 2
			dist := math.Sqrt(dx*dx + dy*dy)
			elev *= 1.0 - math.Pow(dist, 3)

			if elev < cfg.WaterLevel {
				g.Tiles[y][x].Building = catalog.Water
			}
		}
	}

	// The starting area must be buildable: clear a small patch at center.
	cx, cy := cfg.Width/2, cfg.Height/2
	for y := cy - 2; y <= cy+2; y++ {
		for x := cx - 2; x <= cx+2; x++ {
			if t := g.At(x, y); t != nil {
				t.Building = catalog.None
			}
		}
	}

	return g
}

// octaveNoise layers multiple noise frequencies for natural-looking terrain.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
