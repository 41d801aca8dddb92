package model

import (
	"github.com/lxxca/covid-prevalence-estimate/common"
	"gonum.org/v1/gonum/mat"
)

// Ensemble is a samples x time matrix of posterior draws of one quantity.
// Operations never modify the receiver.
type Ensemble struct {
	data *mat.Dense
}

// NewEnsemble builds an ensemble from rows indexed by [sample][time].
func NewEnsemble(rows [][]float64) (*Ensemble, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, common.ErrorInvalidValue
	}
	steps := len(rows[0])
	data := mat.NewDense(len(rows), steps, nil)
	for s, row := range rows {
		if len(row) != steps {
			return nil, common.ShapeError("sample %d has %d steps, want %d", s, len(row), steps)
		}
		data.SetRow(s, row)
	}
	return &Ensemble{data: data}, nil
}

// NewEnsemble3D builds an ensemble from a [sample][group][time] cube whose
// middle axis has length one.
func NewEnsemble3D(cube [][][]float64) (*Ensemble, error) {
	rows := make([][]float64, len(cube))
	for s, groups := range cube {
		if len(groups) != 1 {
			return nil, common.ShapeError("sample %d has %d groups, want 1", s, len(groups))
		}
		rows[s] = groups[0]
	}
	return NewEnsemble(rows)
}

func (e *Ensemble) Dims() (samples, steps int) {
	return e.data.Dims()
}

func (e *Ensemble) Samples() int {
	r, _ := e.data.Dims()
	return r
}

func (e *Ensemble) Steps() int {
	_, c := e.data.Dims()
	return c
}

func (e *Ensemble) At(sample, step int) float64 {
	return e.data.At(sample, step)
}

// Column returns a copy of every sample's value at step t.
func (e *Ensemble) Column(t int) []float64 {
	return mat.Col(nil, t, e.data)
}

// Row returns a copy of one sample's trajectory.
func (e *Ensemble) Row(sample int) []float64 {
	return mat.Row(nil, sample, e.data)
}

func (e *Ensemble) Scale(k float64) *Ensemble {
	var res mat.Dense
	res.Scale(k, e.data)
	return &Ensemble{data: &res}
}

func (e *Ensemble) Add(o *Ensemble) (*Ensemble, error) {
	if err := e.sameShape(o); err != nil {
		return nil, err
	}
	var res mat.Dense
	res.Add(e.data, o.data)
	return &Ensemble{data: &res}, nil
}

func (e *Ensemble) MulElem(o *Ensemble) (*Ensemble, error) {
	if err := e.sameShape(o); err != nil {
		return nil, err
	}
	var res mat.Dense
	res.MulElem(e.data, o.data)
	return &Ensemble{data: &res}, nil
}

// DivElem divides element-wise. Division by zero follows IEEE 754.
func (e *Ensemble) DivElem(o *Ensemble) (*Ensemble, error) {
	if err := e.sameShape(o); err != nil {
		return nil, err
	}
	var res mat.Dense
	res.DivElem(e.data, o.data)
	return &Ensemble{data: &res}, nil
}

// Apply returns a new ensemble with fn applied to every element.
func (e *Ensemble) Apply(fn func(sample, step int, v float64) float64) *Ensemble {
	var res mat.Dense
	res.Apply(fn, e.data)
	return &Ensemble{data: &res}
}

// SliceSteps returns the steps [from, to) of every sample.
func (e *Ensemble) SliceSteps(from, to int) (*Ensemble, error) {
	samples, steps := e.Dims()
	if from < 0 || to > steps || from >= to {
		return nil, common.ShapeError("step range [%d, %d) outside [0, %d)", from, to, steps)
	}
	var res mat.Dense
	res.CloneFrom(e.data.Slice(0, samples, from, to))
	return &Ensemble{data: &res}, nil
}

func (e *Ensemble) sameShape(o *Ensemble) error {
	er, ec := e.Dims()
	or, oc := o.Dims()
	if er != or || ec != oc {
		return common.ShapeError("%dx%d vs %dx%d", er, ec, or, oc)
	}
	return nil
}
