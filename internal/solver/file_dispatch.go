package solver

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// ObjectStore is the narrow storage port FileDispatchBackend needs: put an
// object, get an object back. internal/infrastructure/storage/minio adapts
// its ObjectRepository to this interface at wiring time, the same way
// model.Solve avoids importing a concrete solver implementation — this
// package must not import the minio SDK directly.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, data []byte) error
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

// DispatchMode selects which of the facade's batch/file behaviors
// FileDispatchBackend.Run performs.
type DispatchMode int

const (
	// ModeDirect solves in-process via the wrapped backend, same as calling
	// it directly — useful for toggling batch mode on and off without
	// restructuring caller code.
	ModeDirect DispatchMode = iota

	// ModePrintOnly writes the formulated LP to object storage instead of
	// solving, and appends an invocation line to a driver script object,
	// mirroring GlobalRunSolver's "print lp files rather than solve" branch.
	ModePrintOnly

	// ModeParseOutput reads a previously produced solver output object back
	// and parses it into an OptSolutionData, mirroring GlobalRunSolver's
	// "use solver output files" branch.
	ModeParseOutput
)

// FileDispatchBackend wraps a Backend to add the facade's batch/file mode
// without duplicating its problem bookkeeping: every method but Run
// delegates straight through.
type FileDispatchBackend struct {
	inner  Backend
	store  ObjectStore
	bucket string
	mode   DispatchMode

	lpPrefix     string
	outputPrefix string
	driverKey    string

	jobID string
}

// NewFileDispatchBackend wraps inner for batch/file dispatch against bucket
// in store. lpPrefix/outputPrefix/driverKey default to "lpfiles/",
// "outputs/", and "driver/JobFile.txt" when empty.
func NewFileDispatchBackend(inner Backend, store ObjectStore, bucket, lpPrefix, outputPrefix, driverKey string) *FileDispatchBackend {
	if lpPrefix == "" {
		lpPrefix = "lpfiles/"
	}
	if outputPrefix == "" {
		outputPrefix = "outputs/"
	}
	if driverKey == "" {
		driverKey = "driver/JobFile.txt"
	}
	return &FileDispatchBackend{
		inner:        inner,
		store:        store,
		bucket:       bucket,
		lpPrefix:     lpPrefix,
		outputPrefix: outputPrefix,
		driverKey:    driverKey,
	}
}

// SetMode switches between direct, print-only, and parse-output dispatch.
func (f *FileDispatchBackend) SetMode(mode DispatchMode) { f.mode = mode }

// SetJobID names the LP/output object pair Run writes to or reads from.
// Callers typically pass an ids.RunID-derived string so a print-only Run
// and its later matching parse-output Run agree on the same object keys
// across process boundaries.
func (f *FileDispatchBackend) SetJobID(jobID string) { f.jobID = jobID }

func (f *FileDispatchBackend) lpKey() string     { return f.lpPrefix + f.jobID + ".lp" }
func (f *FileDispatchBackend) outputKey() string { return f.outputPrefix + f.jobID + ".out" }

func (f *FileDispatchBackend) Name() string                        { return f.inner.Name() }
func (f *FileDispatchBackend) Capabilities() Capability             { return f.inner.Capabilities() }
func (f *FileDispatchBackend) Available() bool                      { return f.inner.Available() }
func (f *FileDispatchBackend) Init() error                          { return f.inner.Init() }
func (f *FileDispatchBackend) Reset() error                         { return f.inner.Reset() }
func (f *FileDispatchBackend) WriteLP(w io.Writer) error            { return f.inner.WriteLP(w) }
func (f *FileDispatchBackend) RemoveConstraint(name string) error   { return f.inner.RemoveConstraint(name) }
func (f *FileDispatchBackend) LoadObjective(obj model.Objective) error {
	return f.inner.LoadObjective(obj)
}

func (f *FileDispatchBackend) LoadVariable(v *model.Variable, relaxIntegrality, useTightBounds bool) (int, error) {
	return f.inner.LoadVariable(v, relaxIntegrality, useTightBounds)
}

func (f *FileDispatchBackend) AddConstraint(eq *model.LinEquation) (int, error) {
	return f.inner.AddConstraint(eq)
}

func (f *FileDispatchBackend) Run(class ProblemClass, opts RunOptions) (model.OptSolutionData, error) {
	switch f.mode {
	case ModeDirect:
		return f.inner.Run(class, opts)
	case ModePrintOnly:
		return f.runPrintOnly(class)
	case ModeParseOutput:
		return f.runParseOutput()
	default:
		return model.OptSolutionData{Status: model.StatusFailed}, mfaerr.New(mfaerr.CodeInvalidParam, "file dispatch: unknown mode")
	}
}

func (f *FileDispatchBackend) runPrintOnly(class ProblemClass) (model.OptSolutionData, error) {
	if f.jobID == "" {
		return model.OptSolutionData{Status: model.StatusFailed}, mfaerr.New(mfaerr.CodeInvalidParam, "file dispatch: SetJobID required before a print-only run")
	}

	var buf bytes.Buffer
	if err := f.inner.WriteLP(&buf); err != nil {
		return model.OptSolutionData{Status: model.StatusFailed}, mfaerr.Wrap(err, mfaerr.CodeLPWriteError, "file dispatch: write lp")
	}
	ctx := context.Background()
	if err := f.store.Put(ctx, f.bucket, f.lpKey(), buf.Bytes()); err != nil {
		return model.OptSolutionData{Status: model.StatusFailed}, mfaerr.Wrap(err, mfaerr.CodeStorageError, "file dispatch: upload lp file")
	}

	line := fmt.Sprintf("%s --class=%s --lp=%s --out=%s\n", f.inner.Name(), class.String(), f.lpKey(), f.outputKey())
	existing, err := f.store.Get(ctx, f.bucket, f.driverKey)
	if err != nil {
		existing = nil
	}
	if err := f.store.Put(ctx, f.bucket, f.driverKey, append(existing, []byte(line)...)); err != nil {
		return model.OptSolutionData{Status: model.StatusFailed}, mfaerr.Wrap(err, mfaerr.CodeStorageError, "file dispatch: append driver script")
	}

	return model.OptSolutionData{Status: model.StatusDeferred}, nil
}

func (f *FileDispatchBackend) runParseOutput() (model.OptSolutionData, error) {
	if f.jobID == "" {
		return model.OptSolutionData{Status: model.StatusFailed}, mfaerr.New(mfaerr.CodeInvalidParam, "file dispatch: SetJobID required before a parse-output run")
	}
	data, err := f.store.Get(context.Background(), f.bucket, f.outputKey())
	if err != nil {
		return model.OptSolutionData{Status: model.StatusFailed}, mfaerr.Wrap(err, mfaerr.CodeStorageError, "file dispatch: fetch output file")
	}
	return ParseSolutionText(data)
}

// ParseSolutionText parses the plain-text solver output format
// FileDispatchBackend writes and reads back:
//
//	STATUS optimal
//	OBJECTIVE 12.5
//	VALUES
//	0 3.2
//	1 -1
//
// This is this facade's own format, not a reproduction of any particular
// commercial solver's native solution-file syntax.
func ParseSolutionText(data []byte) (model.OptSolutionData, error) {
	sol := model.OptSolutionData{Status: model.StatusFailed}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	inValues := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "STATUS "):
			sol.Status = parseStatus(strings.TrimPrefix(line, "STATUS "))
		case strings.HasPrefix(line, "OBJECTIVE "):
			v, err := strconv.ParseFloat(strings.TrimPrefix(line, "OBJECTIVE "), 64)
			if err != nil {
				return sol, mfaerr.Wrap(err, mfaerr.CodeSolveFailed, "file dispatch: parse objective value")
			}
			sol.ObjectiveValue = v
		case line == "VALUES":
			inValues = true
		case inValues:
			fields := strings.Fields(line)
			if len(fields) != 2 {
				continue
			}
			idx, err := strconv.Atoi(fields[0])
			if err != nil {
				continue
			}
			val, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				continue
			}
			for len(sol.Values) <= idx {
				sol.Values = append(sol.Values, 0)
			}
			sol.Values[idx] = val
		}
	}
	if err := scanner.Err(); err != nil {
		return sol, mfaerr.Wrap(err, mfaerr.CodeSolveFailed, "file dispatch: scan output")
	}
	return sol, nil
}

func parseStatus(s string) model.SolutionStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "optimal":
		return model.StatusOptimal
	case "infeasible":
		return model.StatusInfeasible
	case "unbounded":
		return model.StatusUnbounded
	case "timeout":
		return model.StatusTimeout
	default:
		return model.StatusFailed
	}
}

// WriteSolutionText renders sol in ParseSolutionText's format, used by a
// backend-side driver process producing an output object for
// ModeParseOutput to later consume.
func WriteSolutionText(w io.Writer, sol model.OptSolutionData) error {
	if _, err := fmt.Fprintf(w, "STATUS %s\n", sol.Status.String()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "OBJECTIVE %g\n", sol.ObjectiveValue); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "VALUES\n"); err != nil {
		return err
	}
	for i, v := range sol.Values {
		if _, err := fmt.Fprintf(w, "%d %g\n", i, v); err != nil {
			return err
		}
	}
	return nil
}
