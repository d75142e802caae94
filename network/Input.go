package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// NewInput adds to g a (len(rows), cols) matrix input node holding the
// given rows. All rows must have the same, non-zero, length.
func NewInput(g *G.ExprGraph, name string, rows [][]float64) (*G.Node,
	error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("newInput: %v must have at least one row",
			name)
	}
	cols := len(rows[0])
	if cols == 0 {
		return nil, fmt.Errorf("newInput: %v must have at least one column",
			name)
	}

	backing := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("newInput: %v row %v has illegal length "+
				"\n\twant(%v)\n\thave(%v)", name, i, cols, len(row))
		}
		backing = append(backing, row...)
	}

	return NewInputFromBacking(g, name, len(rows), cols, backing), nil
}

// NewInputFromBacking adds to g a (rows, cols) matrix input node which
// uses backing as its data
func NewInputFromBacking(g *G.ExprGraph, name string, rows, cols int,
	backing []float64) *G.Node {
	return G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(rows, cols),
		G.WithValue(tensor.New(
			tensor.WithShape(rows, cols),
			tensor.WithBacking(backing),
		)),
		G.WithName(name),
	)
}

// Load copies the values of the parameter nodes, as left by a solver
// step, back into the parameters they were bound from. The nodes
// must be ordered as the params.
func Load(params []*tensor.Dense, nodes G.Nodes) error {
	if len(params) != len(nodes) {
		return fmt.Errorf("load: illegal number of nodes "+
			"\n\twant(%v)\n\thave(%v)", len(params), len(nodes))
	}

	for i, node := range nodes {
		value := node.Value()
		if value == nil {
			return fmt.Errorf("load: node %v has no value", node.Name())
		}
		if t, ok := value.(*tensor.Dense); ok && t == params[i] {
			// The solver stepped the parameter in place
			continue
		}

		src, ok := value.Data().([]float64)
		if !ok {
			return fmt.Errorf("load: node %v does not hold float64 data",
				node.Name())
		}
		dst := params[i].Data().([]float64)
		if len(src) != len(dst) {
			return fmt.Errorf("load: node %v has illegal size "+
				"\n\twant(%v)\n\thave(%v)", node.Name(), len(dst), len(src))
		}
		copy(dst, src)
	}
	return nil
}

// NumParams returns the total number of scalar parameters of a Module
func NumParams(m Module) int {
	n := 0
	for _, param := range m.Learnables() {
		n += param.Size()
	}
	return n
}
