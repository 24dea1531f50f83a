// Package components defines ECS components for receptor populations.
package components

import "github.com/pthm-cable/odorsampling/odor"

// Identity is a receptor's stable position in its epithelium.
type Identity struct {
	ID    int
	Index int // Insertion order within the epithelium
}

// Tuning holds the receptor's immutable model parameters.
type Tuning struct {
	Receptor *odor.Receptor
}

// Response is the receptor's most recent activation.
// Written only by the activation system.
type Response struct {
	SceneID    int
	Occupancy  float64
	Activation float64
	Evaluated  bool // False until the receptor has seen a scene
}
