// Package gaze implements a synthetic environment in which an agent
// looks around a fixed scene by moving its region of interest
package gaze

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/mineagent/action"
	"github.com/samuelfneumann/mineagent/environment"
	"github.com/samuelfneumann/mineagent/timestep"
	"github.com/samuelfneumann/mineagent/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"
)

// Config describes a Gaze environment
type Config struct {
	// Features is the size of the embeddings
	Features int

	// ImageSize is the height and width of the scene, which bound the
	// region of interest
	ImageSize [2]int

	// Objects is the number of objects in the scene. The first object
	// is the target.
	Objects int

	// Width is the standard deviation of the salience of each object
	// around its position
	Width float64

	// Noise is the standard deviation of the noise added to each
	// feature of an embedding
	Noise float64

	// EpisodeSteps is the number of steps per episode, 0 for no limit
	EpisodeSteps int
}

// DefaultConfig returns the default configuration of a Gaze
// environment with the given embedding size and scene size
func DefaultConfig(features int, imageSize [2]int) Config {
	return Config{
		Features:  features,
		ImageSize: imageSize,
		Objects:   4,
		Width:     float64(imageSize[0]) / 8,
		Noise:     0.01,
	}
}

// Gaze is a scene of objects at fixed positions, each with a fixed
// appearance. On each step the region of interest of the action moves
// the gaze, and the embedding is the sum of the object appearances
// weighted by their salience at the gaze, plus Gaussian noise. The
// salience of an object is a Gaussian bump around its position. The
// reward is the salience of the target object.
//
// The categorical components of actions are accepted but do not affect
// the scene.
type Gaze struct {
	environment.Starter
	environment.Ender
	space action.Space

	bounds     [2]r1.Interval
	positions  [][2]float64
	appearance [][]float64
	width      float64
	noise      distuv.Normal

	gaze     [2]float64
	lastStep timestep.TimeStep
	started  bool
}

// New returns a new Gaze environment accepting actions of the given
// space
func New(c Config, space action.Space, seed uint64) (*Gaze, error) {
	if c.Features < 1 {
		return nil, fmt.Errorf("new: features must be positive, have(%v)",
			c.Features)
	}
	if c.ImageSize[0] < 1 || c.ImageSize[1] < 1 {
		return nil, fmt.Errorf("new: image size must be positive, have(%v)",
			c.ImageSize)
	}
	if c.Objects < 1 {
		return nil, fmt.Errorf("new: must have at least one object, have(%v)",
			c.Objects)
	}
	if c.Width <= 0 || c.Noise < 0 {
		return nil, fmt.Errorf("new: invalid width %v or noise %v", c.Width,
			c.Noise)
	}
	if err := space.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	src := rand.New(rand.NewSource(seed))
	bounds := [2]r1.Interval{
		{Min: 0, Max: float64(c.ImageSize[0])},
		{Min: 0, Max: float64(c.ImageSize[1])},
	}

	positions := make([][2]float64, c.Objects)
	appearance := make([][]float64, c.Objects)
	for i := range positions {
		positions[i] = [2]float64{src.Float64() * bounds[0].Max,
			src.Float64() * bounds[1].Max}
		appearance[i] = make([]float64, c.Features)
		for j := range appearance[i] {
			appearance[i][j] = src.NormFloat64()
		}
	}

	var ender environment.Ender = environment.NoLimit{}
	if c.EpisodeSteps > 0 {
		ender = environment.NewStepLimit(c.EpisodeSteps)
	}
	starter := environment.NewUniformStarter(bounds[:], src.Uint64())

	return &Gaze{
		Starter:    starter,
		Ender:      ender,
		space:      space,
		bounds:     bounds,
		positions:  positions,
		appearance: appearance,
		width:      c.Width,
		noise: distuv.Normal{
			Mu:    0,
			Sigma: c.Noise,
			Src:   rand.NewSource(src.Uint64()),
		},
	}, nil
}

// Reset starts a new episode with a gaze sampled uniformly over the
// scene
func (g *Gaze) Reset() (timestep.TimeStep, error) {
	start := g.Start()
	g.gaze = [2]float64{start.AtVec(0), start.AtVec(1)}
	g.started = true

	g.lastStep = timestep.New(timestep.First, 0, 1, g.embed(), 0)
	return g.lastStep, nil
}

// Step moves the gaze to the region of interest of a, clipped to the
// scene. The returned bool is true if the episode has ended.
func (g *Gaze) Step(a action.Vector) (timestep.TimeStep, bool, error) {
	if !g.started || g.lastStep.Last() {
		return timestep.TimeStep{}, true, fmt.Errorf("step: environment " +
			"must be reset")
	}
	roi := a.ROI()
	for i := range roi {
		if math.IsNaN(roi[i]) {
			return timestep.TimeStep{}, false, fmt.Errorf("step: %w: region "+
				"of interest is NaN", action.ErrMalformed)
		}
		g.gaze[i] = floatutils.ClipInterval(roi[i], g.bounds[i])
	}

	reward := g.salience(0)
	step := timestep.New(timestep.Mid, reward, 1, g.embed(),
		g.lastStep.Number+1)
	done := g.End(&step)
	g.lastStep = step

	return step, done, nil
}

// salience returns the salience of object i at the current gaze
func (g *Gaze) salience(i int) float64 {
	dy := g.gaze[0] - g.positions[i][0]
	dx := g.gaze[1] - g.positions[i][1]
	return math.Exp(-(dy*dy + dx*dx) / (2 * g.width * g.width))
}

// embed returns the embedding of the scene at the current gaze
func (g *Gaze) embed() *mat.VecDense {
	embedding := make([]float64, len(g.appearance[0]))
	for i := range g.appearance {
		floats.AddScaled(embedding, g.salience(i), g.appearance[i])
	}
	if g.noise.Sigma > 0 {
		for i := range embedding {
			embedding[i] += g.noise.Rand()
		}
	}
	return mat.NewVecDense(len(embedding), embedding)
}

// LastTimeStep returns the last TimeStep returned by the environment
func (g *Gaze) LastTimeStep() timestep.TimeStep {
	return g.lastStep
}

// Gaze returns the current gaze
func (g *Gaze) Gaze() [2]float64 {
	return g.gaze
}

// Target returns the position of the target object
func (g *Gaze) Target() [2]float64 {
	return g.positions[0]
}

// ObservationSpec returns the specification of the embeddings, which
// are unbounded
func (g *Gaze) ObservationSpec() environment.Spec {
	n := len(g.appearance[0])
	lower := make([]float64, n)
	upper := make([]float64, n)
	for i := range lower {
		lower[i] = math.Inf(-1)
		upper[i] = math.Inf(1)
	}
	return environment.NewSpec(environment.Observation,
		mat.NewVecDense(n, lower), mat.NewVecDense(n, upper),
		environment.Continuous)
}

// ActionSpace returns the categorical action space of the environment
func (g *Gaze) ActionSpace() action.Space {
	return g.space
}
