package manifest

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/seanchatmangpt/sigil/internal/capability"
	"github.com/seanchatmangpt/sigil/internal/graph"
)

// capabilityDecl is one compiled capability declaration.
type capabilityDecl struct {
	ID          capability.ID
	Name        string
	Metadata    capability.EffectMetadata
	Input       string
	Output      string
	Cost        int64
	Reliability float64
}

// compileCapability parses one capability struct from a CUE value.
//
// Declaration shape:
//
//	capability: "user.read": {
//		name:          "Read user"
//		effects:       ["read_only"]
//		sensitivity:   "internal"
//		idempotent:    true
//		required_role: "viewer"
//		data_tags:     ["pii"]
//		isolation:     "sandbox"
//		dry_run:       false
//		input:         "UserQuery"
//		output:        "User"
//		cost:          1
//		reliability:   0.99
//	}
//
// Only effects is required; everything else has a zero default.
func compileCapability(label string, v cue.Value) (*capabilityDecl, *LoadError) {
	if err := v.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeCapability, Message: err.Error(), Pos: v.Pos()}
	}

	id, err := capability.NewID(label)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeCapability, Message: err.Error(), Pos: v.Pos()}
	}
	decl := &capabilityDecl{ID: id, Name: string(id)}

	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
		if decl.Name, err = nameVal.String(); err != nil {
			return nil, &LoadError{Code: ErrCodeCapability, Message: fmt.Sprintf("%s: name: %v", id, err), Pos: nameVal.Pos()}
		}
	}

	effectsVal := v.LookupPath(cue.ParsePath("effects"))
	if !effectsVal.Exists() {
		return nil, &LoadError{Code: ErrCodeEffects, Message: fmt.Sprintf("%s: effects is required", id), Pos: v.Pos()}
	}
	iter, err := effectsVal.List()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeEffects, Message: fmt.Sprintf("%s: effects: %v", id, err), Pos: effectsVal.Pos()}
	}
	for iter.Next() {
		name, err := iter.Value().String()
		if err != nil {
			return nil, &LoadError{Code: ErrCodeEffects, Message: fmt.Sprintf("%s: effects: %v", id, err), Pos: iter.Value().Pos()}
		}
		effect, err := capability.ParseEffectType(name)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeEffects, Message: fmt.Sprintf("%s: %v", id, err), Pos: iter.Value().Pos()}
		}
		decl.Metadata.Effects = append(decl.Metadata.Effects, effect)
	}
	if len(decl.Metadata.Effects) == 0 {
		return nil, &LoadError{Code: ErrCodeEffects, Message: fmt.Sprintf("%s: at least one effect is required", id), Pos: effectsVal.Pos()}
	}

	if sensVal := v.LookupPath(cue.ParsePath("sensitivity")); sensVal.Exists() {
		name, err := sensVal.String()
		if err != nil {
			return nil, &LoadError{Code: ErrCodeCapability, Message: fmt.Sprintf("%s: sensitivity: %v", id, err), Pos: sensVal.Pos()}
		}
		if decl.Metadata.Sensitivity, err = capability.ParseSensitivity(name); err != nil {
			return nil, &LoadError{Code: ErrCodeCapability, Message: fmt.Sprintf("%s: %v", id, err), Pos: sensVal.Pos()}
		}
	}

	if bv := v.LookupPath(cue.ParsePath("idempotent")); bv.Exists() {
		if decl.Metadata.Idempotent, err = bv.Bool(); err != nil {
			return nil, &LoadError{Code: ErrCodeCapability, Message: fmt.Sprintf("%s: idempotent: %v", id, err), Pos: bv.Pos()}
		}
	}
	if bv := v.LookupPath(cue.ParsePath("dry_run")); bv.Exists() {
		if decl.Metadata.SupportsDryRun, err = bv.Bool(); err != nil {
			return nil, &LoadError{Code: ErrCodeCapability, Message: fmt.Sprintf("%s: dry_run: %v", id, err), Pos: bv.Pos()}
		}
	}
	if sv := v.LookupPath(cue.ParsePath("required_role")); sv.Exists() {
		if decl.Metadata.RequiredRole, err = sv.String(); err != nil {
			return nil, &LoadError{Code: ErrCodeCapability, Message: fmt.Sprintf("%s: required_role: %v", id, err), Pos: sv.Pos()}
		}
	}
	if sv := v.LookupPath(cue.ParsePath("isolation")); sv.Exists() {
		if decl.Metadata.Isolation, err = sv.String(); err != nil {
			return nil, &LoadError{Code: ErrCodeCapability, Message: fmt.Sprintf("%s: isolation: %v", id, err), Pos: sv.Pos()}
		}
	}
	if tagsVal := v.LookupPath(cue.ParsePath("data_tags")); tagsVal.Exists() {
		tagIter, err := tagsVal.List()
		if err != nil {
			return nil, &LoadError{Code: ErrCodeCapability, Message: fmt.Sprintf("%s: data_tags: %v", id, err), Pos: tagsVal.Pos()}
		}
		for tagIter.Next() {
			tag, err := tagIter.Value().String()
			if err != nil {
				return nil, &LoadError{Code: ErrCodeCapability, Message: fmt.Sprintf("%s: data_tags: %v", id, err), Pos: tagIter.Value().Pos()}
			}
			decl.Metadata.DataTags = append(decl.Metadata.DataTags, tag)
		}
	}

	if sv := v.LookupPath(cue.ParsePath("input")); sv.Exists() {
		if decl.Input, err = sv.String(); err != nil {
			return nil, &LoadError{Code: ErrCodeCapability, Message: fmt.Sprintf("%s: input: %v", id, err), Pos: sv.Pos()}
		}
	}
	if sv := v.LookupPath(cue.ParsePath("output")); sv.Exists() {
		if decl.Output, err = sv.String(); err != nil {
			return nil, &LoadError{Code: ErrCodeCapability, Message: fmt.Sprintf("%s: output: %v", id, err), Pos: sv.Pos()}
		}
	}
	if nv := v.LookupPath(cue.ParsePath("cost")); nv.Exists() {
		if decl.Cost, err = nv.Int64(); err != nil {
			return nil, &LoadError{Code: ErrCodeCapability, Message: fmt.Sprintf("%s: cost: %v", id, err), Pos: nv.Pos()}
		}
	}
	if nv := v.LookupPath(cue.ParsePath("reliability")); nv.Exists() {
		if decl.Reliability, err = nv.Float64(); err != nil {
			return nil, &LoadError{Code: ErrCodeCapability, Message: fmt.Sprintf("%s: reliability: %v", id, err), Pos: nv.Pos()}
		}
	}

	return decl, nil
}

// compileEdges parses the edge list and adds each edge to the graph.
//
// Declaration shape:
//
//	edge: [
//		{from: "user.read", to: "auth.check", kind: "requires"},
//	]
func (m *Manifest) compileEdges(v cue.Value, mode LoadMode) []error {
	var errs []error
	iter, err := v.List()
	if err != nil {
		return []error{&LoadError{Code: ErrCodeEdge, Message: fmt.Sprintf("edge: %v", err), Pos: v.Pos()}}
	}
	for iter.Next() {
		edge, loadErr := compileEdge(iter.Value())
		if loadErr != nil {
			errs = append(errs, loadErr)
			if mode == LoadModeFailFast {
				return errs
			}
			continue
		}
		if err := m.Graph.AddEdge(edge); err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeEdge, Message: err.Error(), Pos: iter.Value().Pos()})
			if mode == LoadModeFailFast {
				return errs
			}
		}
	}
	return errs
}

func compileEdge(v cue.Value) (graph.Edge, *LoadError) {
	var e graph.Edge

	from, err := v.LookupPath(cue.ParsePath("from")).String()
	if err != nil {
		return e, &LoadError{Code: ErrCodeEdge, Message: fmt.Sprintf("edge from: %v", err), Pos: v.Pos()}
	}
	to, err := v.LookupPath(cue.ParsePath("to")).String()
	if err != nil {
		return e, &LoadError{Code: ErrCodeEdge, Message: fmt.Sprintf("edge to: %v", err), Pos: v.Pos()}
	}
	kindName, err := v.LookupPath(cue.ParsePath("kind")).String()
	if err != nil {
		return e, &LoadError{Code: ErrCodeEdge, Message: fmt.Sprintf("edge kind: %v", err), Pos: v.Pos()}
	}
	kind, ok := parseEdgeKind(kindName)
	if !ok {
		return e, &LoadError{Code: ErrCodeEdge, Message: fmt.Sprintf("unknown edge kind %q", kindName), Pos: v.Pos()}
	}

	e = graph.Edge{From: capability.ID(from), To: capability.ID(to), Kind: kind}
	if labelVal := v.LookupPath(cue.ParsePath("label")); labelVal.Exists() {
		if e.Label, err = labelVal.String(); err != nil {
			return e, &LoadError{Code: ErrCodeEdge, Message: fmt.Sprintf("edge label: %v", err), Pos: labelVal.Pos()}
		}
	}
	return e, nil
}

func parseEdgeKind(name string) (graph.EdgeKind, bool) {
	switch name {
	case "produces":
		return graph.EdgeProduces, true
	case "requires":
		return graph.EdgeRequires, true
	case "equivalent":
		return graph.EdgeEquivalent, true
	case "dominates":
		return graph.EdgeDominates, true
	case "custom":
		return graph.EdgeCustom, true
	}
	return 0, false
}
