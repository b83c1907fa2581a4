package command

import (
	"sort"
	"time"

	"github.com/yndnr/statevault/internal/cli/output"
	"github.com/yndnr/statevault/internal/core/domain"
)

// versionView is the rendered form of a version.
type versionView struct {
	ID        string          `json:"version_id"`
	CreatedAt time.Time       `json:"created_at"`
	ParentID  string          `json:"parent_version_id,omitempty"`
	Checksum  string          `json:"checksum"`
	Snapshot  domain.Snapshot `json:"snapshot"`
	Metadata  map[string]any  `json:"metadata"`
}

func newVersionView(v *domain.Version) versionView {
	return versionView{
		ID:        v.ID,
		CreatedAt: v.CreatedAt,
		ParentID:  v.ParentID,
		Checksum:  v.Checksum,
		Snapshot:  v.Snapshot(),
		Metadata:  v.Metadata(),
	}
}

func (v versionView) Table() *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("version_id", v.ID)
	t.AddRow("created_at", v.CreatedAt)
	t.AddRow("parent_version_id", v.ParentID)
	t.AddRow("checksum", v.Checksum)
	for _, k := range sortedKeys(v.Metadata) {
		t.AddRow("metadata."+k, v.Metadata[k])
	}
	for _, k := range v.Snapshot.Keys() {
		t.AddRow("snapshot."+k, v.Snapshot[k])
	}
	return t
}

type historyView []domain.HistoryEntry

func (h historyView) Table() *output.Table {
	t := output.NewTable("VERSION ID", "CREATED AT")
	for _, e := range h {
		t.AddRow(e.VersionID, e.CreatedAt)
	}
	return t
}

type diffView struct {
	*domain.StateDiff
}

func (d diffView) Table() *output.Table {
	t := output.NewTable("", "KEY", "FROM", "TO")
	for _, k := range sortedKeys(d.Added) {
		t.AddRow("+", k, nil, d.Added[k])
	}
	for _, k := range d.Removed {
		t.AddRow("-", k, nil, nil)
	}
	modified := make([]string, 0, len(d.Modified))
	for k := range d.Modified {
		modified = append(modified, k)
	}
	sort.Strings(modified)
	for _, k := range modified {
		t.AddRow("~", k, d.Modified[k].From, d.Modified[k].To)
	}
	return t
}

// verifyResult reports the integrity check of one durable record.
type verifyResult struct {
	ID     string `json:"version_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type verifyReport struct {
	Checked int            `json:"checked"`
	Failed  int            `json:"failed"`
	Results []verifyResult `json:"results"`
}

func (r verifyReport) Table() *output.Table {
	t := output.NewTable("VERSION ID", "STATUS", "ERROR")
	for _, res := range r.Results {
		t.AddRow(res.ID, res.Status, res.Error)
	}
	return t
}

type statsView struct {
	Backend         string    `json:"backend"`
	Root            string    `json:"root"`
	HistoryLength   int       `json:"history_length"`
	IndexedVersions int       `json:"indexed_versions"`
	MaxVersions     int       `json:"max_versions"`
	CurrentID       string    `json:"current_version_id,omitempty"`
	CurrentCreated  time.Time `json:"current_created_at,omitempty"`
}

func (s statsView) Table() *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("backend", s.Backend)
	t.AddRow("root", s.Root)
	t.AddRow("history_length", s.HistoryLength)
	t.AddRow("indexed_versions", s.IndexedVersions)
	t.AddRow("max_versions", s.MaxVersions)
	t.AddRow("current_version_id", s.CurrentID)
	t.AddRow("current_created_at", s.CurrentCreated)
	return t
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
