package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/namedtensor/internal/dimname"
	"github.com/roach88/namedtensor/internal/ir"
)

// CompileFile compiles CUE source and returns every graph declared under
// its top-level "graph" field, in declaration order.
func CompileFile(filename string, src []byte) ([]ir.Graph, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	return CompileGraphs(v)
}

// CompileGraphs compiles every graph declared under the "graph" field of a
// CUE root value. A value without a "graph" field yields no graphs.
func CompileGraphs(root cue.Value) ([]ir.Graph, error) {
	if err := root.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	graphsVal := root.LookupPath(cue.ParsePath("graph"))
	if !graphsVal.Exists() {
		return nil, nil
	}

	iter, err := graphsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var graphs []ir.Graph
	for iter.Next() {
		g, err := CompileGraph(iter.Value())
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, *g)
	}
	return graphs, nil
}

// CompileGraph parses a CUE value into a Graph.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the graph struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`graph: conv: { tensors: {...}, ops: [...] }`)
//	g, err := CompileGraph(v.LookupPath(cue.ParsePath("graph.conv")))
//
// CompileGraph checks structure and types only. Dimension names are
// NFC-normalised here; references and ranks are checked by Validate.
func CompileGraph(v cue.Value) (*ir.Graph, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	g := &ir.Graph{}

	// Graph name from struct label (the path selector)
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		g.Name = strings.Trim(labels[len(labels)-1].String(), `"`)
	}

	var err error
	g.Tensors, err = parseTensors(v)
	if err != nil {
		return nil, err
	}

	g.Ops, err = parseOps(v)
	if err != nil {
		return nil, err
	}

	return g, nil
}

// parseTensors extracts the declared input tensors.
func parseTensors(v cue.Value) ([]ir.TensorDecl, error) {
	tensorsVal := v.LookupPath(cue.ParsePath("tensors"))
	if !tensorsVal.Exists() {
		return nil, &CompileError{
			Field:   "tensors",
			Message: "tensors is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := tensorsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var tensors []ir.TensorDecl
	for iter.Next() {
		name := strings.Trim(iter.Label(), `"`)
		tv := iter.Value()
		field := "tensors." + name

		shapeVal := tv.LookupPath(cue.ParsePath("shape"))
		if !shapeVal.Exists() {
			return nil, &CompileError{
				Field:   field + ".shape",
				Message: "shape is required",
				Pos:     tv.Pos(),
			}
		}
		shape, err := int64List(shapeVal)
		if err != nil {
			return nil, err
		}

		decl := ir.TensorDecl{Name: name, Shape: shape}
		namesVal := tv.LookupPath(cue.ParsePath("names"))
		if namesVal.Exists() {
			decl.Names, err = dimnameList(namesVal, field+".names")
			if err != nil {
				return nil, err
			}
		}

		tensors = append(tensors, decl)
	}

	return tensors, nil
}

// parseOps extracts the operation list.
func parseOps(v cue.Value) ([]ir.OpDecl, error) {
	opsVal := v.LookupPath(cue.ParsePath("ops"))
	if !opsVal.Exists() {
		return nil, &CompileError{
			Field:   "ops",
			Message: "ops is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := opsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var ops []ir.OpDecl
	for i := 0; iter.Next(); i++ {
		op, err := parseOp(iter.Value(), i)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}

	return ops, nil
}

func parseOp(v cue.Value, index int) (ir.OpDecl, error) {
	var op ir.OpDecl
	field := fmt.Sprintf("ops[%d]", index)

	id, err := requiredString(v, "id", field)
	if err != nil {
		return op, err
	}
	op.ID = id
	field = fmt.Sprintf("ops[%d](%s)", index, id)

	kind, err := requiredString(v, "kind", field)
	if err != nil {
		return op, err
	}
	op.Kind = ir.OpKind(kind)

	inputsVal := v.LookupPath(cue.ParsePath("inputs"))
	if !inputsVal.Exists() {
		return op, &CompileError{
			Field:   field + ".inputs",
			Message: "inputs is required",
			Pos:     v.Pos(),
		}
	}
	op.Inputs, err = stringList(inputsVal)
	if err != nil {
		return op, err
	}

	if dimsVal := v.LookupPath(cue.ParsePath("dims")); dimsVal.Exists() {
		op.Dims, err = dimnameList(dimsVal, field+".dims")
		if err != nil {
			return op, err
		}
	}

	if axesVal := v.LookupPath(cue.ParsePath("axes")); axesVal.Exists() {
		axes, err := int64List(axesVal)
		if err != nil {
			return op, err
		}
		op.Axes = make([]int, len(axes))
		for i, a := range axes {
			op.Axes[i] = int(a)
		}
	}

	if keepVal := v.LookupPath(cue.ParsePath("keepdim")); keepVal.Exists() {
		op.Keepdim, err = keepVal.Bool()
		if err != nil {
			return op, formatCUEError(err)
		}
	}

	if namesVal := v.LookupPath(cue.ParsePath("names")); namesVal.Exists() {
		op.Names, err = dimnameList(namesVal, field+".names")
		if err != nil {
			return op, err
		}
	}

	return op, nil
}

func requiredString(v cue.Value, name, field string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(name))
	if !sv.Exists() {
		return "", &CompileError{
			Field:   field + "." + name,
			Message: name + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func stringList(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	out := []string{}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

func int64List(v cue.Value) ([]int64, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	out := []int64{}
	for iter.Next() {
		n, err := iter.Value().Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, n)
	}
	return out, nil
}

// dimnameList reads a list of names and returns them in normalised form.
// Each entry must be "*" or a valid identifier.
func dimnameList(v cue.Value, field string) ([]string, error) {
	raw, err := stringList(v)
	if err != nil {
		return nil, err
	}
	list, err := dimname.ParseList(raw...)
	if err != nil {
		return nil, &CompileError{
			Field:   field,
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}
	return list.Strings(), nil
}
