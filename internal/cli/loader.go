package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/namedtensor/internal/compiler"
	"github.com/roach88/namedtensor/internal/ir"
)

// Loader error codes, shared by every command that reads specs.
const (
	ErrCodeGeneric     = "E001"
	ErrCodeScanError   = "E002"
	ErrCodeNoFiles     = "E003"
	ErrCodeLoadFailed  = "E004"
	ErrCodeNotFound    = "E005"
	ErrCodeBuildFailed = "E006"
	ErrCodeNoGraphs    = "E007"

	ErrCodeTensorDecl = "E101"
	ErrCodeOpDecl     = "E102"
	ErrCodeNames      = "E103" // bad names or dims list
)

// LoadMode chooses whether LoadSpecs stops at the first bad graph.
type LoadMode int

const (
	LoadModeFailFast LoadMode = iota
	LoadModeCollectAll
)

// LoadResult holds the graphs compiled from a specs directory.
type LoadResult struct {
	Graphs    []ir.Graph // in CUE field order
	FileCount int
}

// LoadError is a coded loader failure, positioned when CUE knows where.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if !e.Pos.IsValid() {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
}

func loadFailure(code, format string, args ...any) []error {
	return []error{&LoadError{Code: code, Message: fmt.Sprintf(format, args...)}}
}

// LoadSpecs builds the CUE package in dir and compiles each field of its
// top-level graph struct. A nil result means nothing could be built.
// Every file must declare the same package; files without a package
// clause fail to load with ErrCodeLoadFailed.
//
// Graphs are compiled but not validated; run PrepareGraph before
// evaluating one.
func LoadSpecs(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return nil, loadFailure(ErrCodeNotFound, "specs directory not found: %s", dir)
	case err != nil:
		return nil, loadFailure(ErrCodeNotFound, "error accessing specs directory: %v", err)
	case !info.IsDir():
		return nil, loadFailure(ErrCodeNotFound, "not a directory: %s", dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, loadFailure(ErrCodeScanError, "error scanning directory: %v", err)
	}
	if len(files) == 0 {
		return nil, loadFailure(ErrCodeNoFiles, "no CUE files found in %s", dir)
	}

	value, errs := buildSpecs(dir)
	if errs != nil {
		return nil, errs
	}

	result := &LoadResult{FileCount: len(files)}
	errs = compileGraphs(value.LookupPath(cue.ParsePath("graph")), mode, result)
	if len(result.Graphs) == 0 && len(errs) == 0 {
		errs = loadFailure(ErrCodeNoGraphs, "no graphs found in specs")
	}
	return result, errs
}

func buildSpecs(dir string) (cue.Value, []error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, loadFailure(ErrCodeLoadFailed, "no CUE instances loaded")
	}
	if err := instances[0].Err; err != nil {
		return cue.Value{}, loadFailure(ErrCodeLoadFailed, "loading CUE files: %v", err)
	}
	value := cuecontext.New().BuildInstance(instances[0])
	if err := value.Err(); err != nil {
		return cue.Value{}, loadFailure(ErrCodeBuildFailed, "building CUE value: %v", err)
	}
	return value, nil
}

func compileGraphs(graphs cue.Value, mode LoadMode, into *LoadResult) []error {
	if !graphs.Exists() {
		return nil
	}
	iter, err := graphs.Fields()
	if err != nil {
		return loadFailure(ErrCodeGeneric, "iterating graphs: %v", err)
	}

	var errs []error
	for iter.Next() {
		g, err := compiler.CompileGraph(iter.Value())
		if err != nil {
			errs = append(errs, convertCompileError(err, "graph."+iter.Label()))
			if mode == LoadModeFailFast {
				return errs
			}
			continue
		}
		into.Graphs = append(into.Graphs, *g)
	}
	return errs
}

// PrepareGraph validates g and orders its ops for evaluation. An empty
// result means g is ready.
func PrepareGraph(g *ir.Graph) []compiler.ValidationError {
	if errs := compiler.Validate(g); len(errs) > 0 {
		return errs
	}
	if err := compiler.Schedule(g); err != nil {
		return []compiler.ValidationError{{
			Field:   "ops",
			Message: err.Error(),
			Code:    compiler.ErrDependencyCycle,
		}}
	}
	return nil
}

// FindCUEFiles returns every .cue file under dir.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func convertCompileError(err error, graphPath string) *LoadError {
	var ce *compiler.CompileError
	if !errors.As(err, &ce) {
		return &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%s: %v", graphPath, err)}
	}
	return &LoadError{
		Code:    MapFieldToErrorCode(ce.Field),
		Message: fmt.Sprintf("%s: %s: %s", graphPath, ce.Field, ce.Message),
		Pos:     ce.Pos,
	}
}

// MapFieldToErrorCode picks the loader code for a compile error field
// such as "ops[2].dims" or "tensors.img.shape".
func MapFieldToErrorCode(field string) string {
	switch {
	case strings.HasSuffix(field, ".names"), strings.HasSuffix(field, ".dims"):
		return ErrCodeNames
	case strings.HasPrefix(field, "tensors"):
		return ErrCodeTensorDecl
	case strings.HasPrefix(field, "ops"):
		return ErrCodeOpDecl
	default:
		return ErrCodeGeneric
	}
}
