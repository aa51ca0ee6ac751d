// Package manifest loads capability declarations from CUE files into a
// registry and capability graph. Manifests are the single authoring
// surface: effect metadata, schemas, and graph edges all come from the
// same declaration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/seanchatmangpt/sigil/internal/capability"
	"github.com/seanchatmangpt/sigil/internal/graph"
)

// LoadMode controls how errors are handled during manifest loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Error code constants, unified across manifest diagnostics.
const (
	ErrCodeGeneric     = "M001" // generic/unknown error
	ErrCodeScanError   = "M002" // directory scan error
	ErrCodeNoFiles     = "M003" // no CUE files found
	ErrCodeLoadFailed  = "M004" // CUE load failed
	ErrCodeNotFound    = "M005" // path not found
	ErrCodeBuildFailed = "M006" // CUE build failed

	ErrCodeCapability = "M101" // invalid capability declaration
	ErrCodeEffects    = "M102" // missing or unknown effects
	ErrCodeEdge       = "M111" // invalid graph edge
)

// LoadError is a manifest diagnostic with an optional CUE position.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Manifest is the loaded result: every declared capability registered
// with its effect metadata, and the capability graph over them.
type Manifest struct {
	Registry  *capability.Registry
	Graph     *graph.Graph
	CUEValue  cue.Value // raw value, for additional processing
	FileCount int
}

// LoadDir loads all CUE files in a directory into one manifest.
// LoadModeFailFast returns on the first error; LoadModeCollectAll
// gathers every diagnostic so an author sees the full picture at once.
func LoadDir(dir string, mode LoadMode) (*Manifest, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("manifest directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing manifest directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := findCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	m, errs := Build(value, mode)
	if m != nil {
		m.FileCount = len(cueFiles)
	}
	return m, errs
}

// Build compiles an already-evaluated CUE value into a manifest. Split
// out from LoadDir so tests and embedders can compile manifests from
// strings.
func Build(value cue.Value, mode LoadMode) (*Manifest, []error) {
	var errs []error
	m := &Manifest{
		Registry: capability.NewRegistry(),
		Graph:    graph.New(),
		CUEValue: value,
	}

	capsVal := value.LookupPath(cue.ParsePath("capability"))
	if capsVal.Exists() {
		iter, iterErr := capsVal.Fields()
		if iterErr != nil {
			errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating capabilities: %v", iterErr)})
			if mode == LoadModeFailFast {
				return m, errs
			}
		} else {
			for iter.Next() {
				decl, compileErr := compileCapability(iter.Label(), iter.Value())
				if compileErr != nil {
					errs = append(errs, compileErr)
					if mode == LoadModeFailFast {
						return m, errs
					}
					continue
				}
				if err := m.register(decl); err != nil {
					errs = append(errs, &LoadError{Code: ErrCodeCapability, Message: err.Error(), Pos: iter.Value().Pos()})
					if mode == LoadModeFailFast {
						return m, errs
					}
				}
			}
		}
	}

	edgesVal := value.LookupPath(cue.ParsePath("edge"))
	if edgesVal.Exists() {
		edgeErrs := m.compileEdges(edgesVal, mode)
		errs = append(errs, edgeErrs...)
		if mode == LoadModeFailFast && len(edgeErrs) > 0 {
			return m, errs
		}
	}

	if m.Registry.Len() == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no capabilities found in manifest"})
	}
	return m, errs
}

// register adds one compiled declaration to the registry and graph.
func (m *Manifest) register(decl *capabilityDecl) error {
	if _, err := m.Registry.Register(decl.ID, decl.Name, decl.Metadata); err != nil {
		return err
	}
	m.Graph.AddNode(graph.Node{
		ID:           decl.ID,
		Name:         decl.Name,
		InputSchema:  decl.Input,
		OutputSchema: decl.Output,
		Effects:      decl.Metadata.Effects,
		Cost:         decl.Cost,
		Reliability:  decl.Reliability,
	})
	return nil
}

// findCUEFiles walks the directory and returns all .cue file paths.
func findCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
