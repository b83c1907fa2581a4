package migration

import (
	"testing"

	"github.com/yndnr/statevault/internal/core/domain"
)

func TestParseSchemaVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    SchemaVersion
		wantErr bool
	}{
		{"1.2.3", SchemaVersion{1, 2, 3}, false},
		{"v0.0.1", SchemaVersion{0, 0, 1}, false},
		{" 10.0.0 ", SchemaVersion{10, 0, 0}, false},
		{"1.2", SchemaVersion{}, true},
		{"1.2.3.4", SchemaVersion{}, true},
		{"1.x.3", SchemaVersion{}, true},
		{"1.-1.3", SchemaVersion{}, true},
		{"", SchemaVersion{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSchemaVersion(tt.in)
			if tt.wantErr {
				if !domain.IsDomainError(err, domain.ErrInvalidArgument.Code) {
					t.Errorf("ParseSchemaVersion(%q) error = %v, want ErrInvalidArgument", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSchemaVersion(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseSchemaVersion(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSchemaVersion_Compare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "2.0.0", -1},
		{"1.9.9", "2.0.0", -1},
		{"2.1.0", "2.0.9", 1},
		{"2.0.1", "2.0.0", 1},
	}

	for _, tt := range tests {
		a := MustParseSchemaVersion(tt.a)
		b := MustParseSchemaVersion(tt.b)
		if got := a.Compare(b); got != tt.want {
			t.Errorf("%s.Compare(%s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSchemaVersion_String(t *testing.T) {
	if got := (SchemaVersion{1, 20, 3}).String(); got != "1.20.3" {
		t.Errorf("String() = %q, want 1.20.3", got)
	}
}

func TestMustParseSchemaVersion_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParseSchemaVersion(bad) should panic")
		}
	}()
	MustParseSchemaVersion("bad")
}
