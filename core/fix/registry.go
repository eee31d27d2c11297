package fix

import (
	"context"
	"fmt"
	"strings"

	"github.com/ecoacoustics/emu/core/extract"
)

// ProblemKind enumerates the problems emu knows about.
type ProblemKind int

const (
	ProblemEmptyFile ProblemKind = iota
	ProblemPreallocatedHeader
	ProblemDurationBug
)

// CheckFunc inspects an open target without modifying it.
type CheckFunc func(ctx context.Context, t *extract.Target) CheckResult

// FixFunc repairs the file at path. It re-checks the file itself and
// returns NoOperation unless the file is affected.
type FixFunc func(ctx context.Context, path string, pc *PatchContext) FixResult

// Definition ties a problem to its check and fix.
type Definition struct {
	Kind    ProblemKind
	Problem WellKnownProblem
	Check   CheckFunc
	Fix     FixFunc
}

const knownProblemsURL = "https://github.com/ecoacoustics/known-problems/blob/main/"

var definitions = []Definition{
	{
		Kind: ProblemEmptyFile,
		Problem: WellKnownProblem{
			Title:   "Empty file",
			Message: "The file has no content at all",
			Code:    4,
			Group:   "OE",
			URL:     knownProblemsURL + "open_ecoacoustics/OE004.md",
		},
		Check: checkEmptyFile,
		Fix:   fixEmptyFile,
	},
	{
		Kind: ProblemPreallocatedHeader,
		Problem: WellKnownProblem{
			Title:   "Preallocated header",
			Message: "The recording has a header but no audio was ever written",
			Code:    1,
			Group:   "FL",
			URL:     knownProblemsURL + "frontier_labs/FL001.md",
		},
		Check: checkPreallocatedHeader,
		Fix:   fixPreallocatedHeader,
	},
	{
		Kind: ProblemDurationBug,
		Problem: WellKnownProblem{
			Title:   "Incorrect duration",
			Message: "Firmware 3.17 to 3.27 wrote double the real sample count into the FLAC header",
			Code:    10,
			Group:   "FL",
			URL:     knownProblemsURL + "frontier_labs/FL010.md",
		},
		Check: checkDurationBug,
		Fix:   fixDurationBug,
	},
}

var byID map[string]int

func init() {
	byID = make(map[string]int, len(definitions))
	for i, d := range definitions {
		if d.Kind != ProblemKind(i) {
			panic(fmt.Sprintf("fix: definition %s out of order", d.Problem.ID()))
		}
		id := d.Problem.ID()
		if _, dup := byID[id]; dup {
			panic("fix: duplicate problem id " + id)
		}
		byID[id] = i
	}
}

// All returns every definition in kind order.
func All() []Definition {
	return append([]Definition(nil), definitions...)
}

// Get returns the definition of a kind.
func Get(k ProblemKind) Definition {
	return definitions[k]
}

// Lookup finds a definition by id such as "FL010", ignoring case.
func Lookup(id string) (Definition, bool) {
	i, ok := byID[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return Definition{}, false
	}
	return definitions[i], true
}

// Check opens path read-only and runs def's check.
func Check(ctx context.Context, def Definition, path string) CheckResult {
	return checkPath(ctx, path, def.Check)
}

// Fix runs def's fix and attaches the actions pc recorded.
func Fix(ctx context.Context, def Definition, path string, pc *PatchContext) FixResult {
	if err := ctx.Err(); err != nil {
		return FixResult{Status: NotFixed, CheckResult: checkError(err), Message: err.Error()}
	}
	r := def.Fix(ctx, path, pc)
	r.Actions = pc.Actions()
	return r
}

func checkPath(ctx context.Context, path string, check CheckFunc) CheckResult {
	if err := ctx.Err(); err != nil {
		return checkError(err)
	}
	t, err := extract.Open(path, nil)
	if err != nil {
		return checkError(err)
	}
	defer t.Close()
	return check(ctx, t)
}
