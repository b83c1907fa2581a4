package migration

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/statevault/internal/core/domain"
	"github.com/yndnr/statevault/internal/telemetry/logger"
	"github.com/yndnr/statevault/internal/telemetry/metric"
)

// recordingStep returns a step that appends name to *calls and sets key=name.
func recordingStep(name string, calls *[]string) Step {
	return func(s domain.Snapshot) (domain.Snapshot, error) {
		*calls = append(*calls, name)
		s[name] = true
		return s, nil
	}
}

func newEngine(t *testing.T, current string, opts ...Option) *Engine {
	t.Helper()
	e, err := New(current, opts...)
	if err != nil {
		t.Fatalf("New(%q) error = %v", current, err)
	}
	return e
}

func TestMigrate_Idempotent(t *testing.T) {
	var calls []string
	e := newEngine(t, "2.3.4",
		WithMajorStep(recordingStep("major", &calls)),
		WithMinorStep(recordingStep("minor", &calls)),
		WithPatchStep(recordingStep("patch", &calls)),
	)

	snapshots := []domain.Snapshot{
		{},
		{"hp": json.Number("100")},
		{"nested": map[string]any{"a": []any{"x"}}},
	}
	for i, s := range snapshots {
		got, err := e.Migrate(s, "2.3.4")
		if err != nil {
			t.Fatalf("case %d: Migrate() error = %v", i, err)
		}
		if !reflect.DeepEqual(got, s) {
			t.Errorf("case %d: Migrate(S, current) = %v, want %v", i, got, s)
		}
	}
	if len(calls) != 0 {
		t.Errorf("steps ran for current schema: %v", calls)
	}
}

func TestMigrate_StepOrder(t *testing.T) {
	var calls []string
	e := newEngine(t, "2.3.4",
		WithPatchStep(recordingStep("patch", &calls)),
		WithMinorStep(recordingStep("minor", &calls)),
		WithMajorStep(recordingStep("major", &calls)),
	)

	got, err := e.Migrate(domain.Snapshot{"hp": json.Number("1")}, "1.0.0")
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	want := []string{"major", "minor", "patch"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("step order = %v, want %v", calls, want)
	}
	for _, k := range want {
		if got[k] != true {
			t.Errorf("result missing %q: %v", k, got)
		}
	}
}

func TestMigrate_ComponentWise(t *testing.T) {
	tests := []struct {
		from string
		want []string
	}{
		{"1.5.9", []string{"major"}},
		{"2.0.9", []string{"minor"}},
		{"2.3.0", []string{"patch"}},
		{"1.0.9", []string{"major", "minor"}},
		{"3.0.0", []string{"minor", "patch"}},
	}

	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			var calls []string
			e := newEngine(t, "2.3.4",
				WithMajorStep(recordingStep("major", &calls)),
				WithMinorStep(recordingStep("minor", &calls)),
				WithPatchStep(recordingStep("patch", &calls)),
			)
			if _, err := e.Migrate(domain.Snapshot{}, tt.from); err != nil {
				t.Fatalf("Migrate() error = %v", err)
			}
			if !reflect.DeepEqual(calls, tt.want) {
				t.Errorf("Migrate(%s) ran %v, want %v", tt.from, calls, tt.want)
			}
		})
	}
}

func TestMigrate_ChainsOutput(t *testing.T) {
	e := newEngine(t, "2.0.1",
		WithMajorStep(func(s domain.Snapshot) (domain.Snapshot, error) {
			return domain.Snapshot{"health": s["hp"]}, nil
		}),
		WithPatchStep(func(s domain.Snapshot) (domain.Snapshot, error) {
			if _, ok := s["health"]; !ok {
				t.Error("patch step did not receive major step output")
			}
			s["patched"] = true
			return s, nil
		}),
	)

	got, err := e.Migrate(domain.Snapshot{"hp": json.Number("7")}, "1.0.0")
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	want := domain.Snapshot{"health": json.Number("7"), "patched": true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Migrate() = %v, want %v", got, want)
	}
}

func TestMigrate_DoesNotMutateInput(t *testing.T) {
	e := newEngine(t, "2.0.0",
		WithMajorStep(func(s domain.Snapshot) (domain.Snapshot, error) {
			s["hp"] = json.Number("0")
			delete(s, "name")
			return s, nil
		}),
	)

	in := domain.Snapshot{"hp": json.Number("100"), "name": "hero"}
	if _, err := e.Migrate(in, "1.0.0"); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if in["hp"] != json.Number("100") || in["name"] != "hero" {
		t.Errorf("input mutated: %v", in)
	}
}

func TestMigrate_GapPassesThrough(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.New(logger.Config{Level: "warn", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("logger.New() error = %v", err)
	}
	m := metric.New(nil)

	var calls []string
	e := newEngine(t, "2.1.0",
		WithMinorStep(recordingStep("minor", &calls)),
		WithLogger(log),
		WithMetrics(m),
	)

	got, err := e.Migrate(domain.Snapshot{"hp": json.Number("3")}, "1.0.0")
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if got["hp"] != json.Number("3") || got["minor"] != true {
		t.Errorf("Migrate() = %v, want hp kept and minor applied", got)
	}
	if !strings.Contains(buf.String(), "migration gap") || !strings.Contains(buf.String(), domain.ErrMigrationGap.Code) {
		t.Errorf("gap not logged: %s", buf.String())
	}
	if v := testutil.ToFloat64(m.MigrationSteps.WithLabelValues("major", metric.ResultGap)); v != 1 {
		t.Errorf("gap metric = %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.MigrationSteps.WithLabelValues("minor", metric.ResultApplied)); v != 1 {
		t.Errorf("applied metric = %v, want 1", v)
	}
}

func TestMigrate_StepFailure(t *testing.T) {
	boom := errors.New("boom")
	e := newEngine(t, "2.0.0",
		WithMajorStep(func(domain.Snapshot) (domain.Snapshot, error) { return nil, boom }),
	)

	_, err := e.Migrate(domain.Snapshot{}, "1.0.0")
	if !errors.Is(err, domain.ErrMigrationFailed) {
		t.Errorf("Migrate() error = %v, want ErrMigrationFailed", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Migrate() error = %v, want cause boom", err)
	}
}

func TestMigrate_NilStepResult(t *testing.T) {
	e := newEngine(t, "2.0.0",
		WithMajorStep(func(domain.Snapshot) (domain.Snapshot, error) { return nil, nil }),
	)
	got, err := e.Migrate(domain.Snapshot{"a": "b"}, "1.0.0")
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Migrate() = %#v, want empty snapshot", got)
	}
}

func TestMigrate_InvalidSchema(t *testing.T) {
	e := newEngine(t, "1.0.0")
	if _, err := e.Migrate(domain.Snapshot{}, "one"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Migrate(bad schema) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := New("1.0"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("New(bad schema) error = %v, want ErrInvalidArgument", err)
	}
}

func TestEngine_Current(t *testing.T) {
	e := newEngine(t, "v3.2.1")
	if got := e.Current(); got != (SchemaVersion{3, 2, 1}) {
		t.Errorf("Current() = %v, want 3.2.1", got)
	}
}
