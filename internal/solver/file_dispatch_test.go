package solver_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/internal/solver"
)

// memStore is an in-memory solver.ObjectStore fake keyed by bucket+"/"+key.
type memStore struct {
	mu   sync.Mutex
	objs map[string][]byte
}

func newMemStore() *memStore { return &memStore{objs: make(map[string][]byte)} }

func (m *memStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objs[bucket+"/"+key] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objs[bucket+"/"+key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

type stubBackend struct {
	name string
	lp   string
}

func (s *stubBackend) Name() string                   { return s.name }
func (s *stubBackend) Capabilities() solver.Capability { return solver.CapLP }
func (s *stubBackend) Available() bool                { return true }
func (s *stubBackend) Init() error                     { return nil }
func (s *stubBackend) Reset() error                    { return nil }
func (s *stubBackend) RemoveConstraint(name string) error { return nil }
func (s *stubBackend) LoadObjective(obj model.Objective) error { return nil }

func (s *stubBackend) WriteLP(w io.Writer) error {
	_, err := io.Copy(w, strings.NewReader(s.lp))
	return err
}

func (s *stubBackend) LoadVariable(v *model.Variable, relaxIntegrality, useTightBounds bool) (int, error) {
	return 0, nil
}

func (s *stubBackend) AddConstraint(eq *model.LinEquation) (int, error) { return 0, nil }

func (s *stubBackend) Run(class solver.ProblemClass, opts solver.RunOptions) (model.OptSolutionData, error) {
	return model.OptSolutionData{Status: model.StatusOptimal, ObjectiveValue: 42}, nil
}

func TestFileDispatch_PrintOnlyUploadsLPAndAppendsDriverLine(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	inner := &stubBackend{name: "s-simplex", lp: "Maximize\nobj: x\nEnd\n"}
	f := solver.NewFileDispatchBackend(inner, store, "mfa-bucket", "", "", "")
	f.SetMode(solver.ModePrintOnly)
	f.SetJobID("job-1")

	sol, err := f.Run(solver.LP, solver.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeferred, sol.Status)

	lp, err := store.Get(context.Background(), "mfa-bucket", "lpfiles/job-1.lp")
	require.NoError(t, err)
	assert.Contains(t, string(lp), "Maximize")

	driver, err := store.Get(context.Background(), "mfa-bucket", "driver/JobFile.txt")
	require.NoError(t, err)
	assert.Contains(t, string(driver), "s-simplex")
	assert.Contains(t, string(driver), "lpfiles/job-1.lp")
	assert.Contains(t, string(driver), "outputs/job-1.out")
}

func TestFileDispatch_PrintOnlyRequiresJobID(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	inner := &stubBackend{name: "s-simplex"}
	f := solver.NewFileDispatchBackend(inner, store, "b", "", "", "")
	f.SetMode(solver.ModePrintOnly)

	_, err := f.Run(solver.LP, solver.RunOptions{})
	assert.Error(t, err)
}

func TestFileDispatch_ParseOutputRoundTripsWithWriteSolutionText(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	inner := &stubBackend{name: "s-simplex"}
	f := solver.NewFileDispatchBackend(inner, store, "mfa-bucket", "", "", "")
	f.SetJobID("job-2")

	var sb strings.Builder
	want := model.OptSolutionData{Status: model.StatusOptimal, ObjectiveValue: 7.5, Values: []float64{1, 2.5}}
	require.NoError(t, solver.WriteSolutionText(&sb, want))
	require.NoError(t, store.Put(context.Background(), "mfa-bucket", "outputs/job-2.out", []byte(sb.String())))

	f.SetMode(solver.ModeParseOutput)
	got, err := f.Run(solver.LP, solver.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, want.Status, got.Status)
	assert.InDelta(t, want.ObjectiveValue, got.ObjectiveValue, 1e-9)
	require.Len(t, got.Values, 2)
	assert.InDelta(t, 1.0, got.Values[0], 1e-9)
	assert.InDelta(t, 2.5, got.Values[1], 1e-9)
}

func TestFileDispatch_ParseOutputErrorsOnMissingObject(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	inner := &stubBackend{name: "s-simplex"}
	f := solver.NewFileDispatchBackend(inner, store, "mfa-bucket", "", "", "")
	f.SetJobID("missing")
	f.SetMode(solver.ModeParseOutput)

	_, err := f.Run(solver.LP, solver.RunOptions{})
	assert.Error(t, err)
}

func TestFileDispatch_DirectModeDelegatesToInner(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	inner := &stubBackend{name: "s-simplex"}
	f := solver.NewFileDispatchBackend(inner, store, "mfa-bucket", "", "", "")

	sol, err := f.Run(solver.LP, solver.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusOptimal, sol.Status)
	assert.InDelta(t, 42.0, sol.ObjectiveValue, 1e-9)
}

func TestParseSolutionText_DefaultsToFailedOnUnknownStatus(t *testing.T) {
	t.Parallel()

	sol, err := solver.ParseSolutionText([]byte("STATUS weird\nOBJECTIVE 1\nVALUES\n0 1\n"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, sol.Status)
}
