package exporter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YKarmar/ApplicationTracker/internal/types"
)

func readReport(t *testing.T, path string) map[string][]map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out map[string][]map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestJSONRecorder_RewritesAfterEachAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applications.json")
	rec := NewJSONRecorder(path)

	require.NoError(t, rec.Append(types.ClassifiedEmail{Company: "Acme", Status: types.StatusApplied, Date: "2025-01-02"}))

	report := readReport(t, path)
	require.Len(t, report["applications"], 1)
	assert.Equal(t, "Acme", report["applications"][0]["company"])

	require.NoError(t, rec.Append(types.ClassifiedEmail{Company: "hr@example.com", Date: "2025-01-03"}))
	require.NoError(t, rec.Append(types.ClassifiedEmail{Company: "Globex", Status: types.StatusRejected, Date: "2025-01-04"}))

	report = readReport(t, path)
	apps := report["applications"]
	require.Len(t, apps, 3)
	assert.Equal(t, []string{"Acme", "hr@example.com", "Globex"}, []string{
		apps[0]["company"].(string), apps[1]["company"].(string), apps[2]["company"].(string),
	})

	_, hasStatus := apps[1]["status"]
	assert.False(t, hasStatus, "unclassified records omit status")
	assert.Equal(t, "Rejected", apps[2]["status"])
	assert.Equal(t, "2025-01-04", apps[2]["date"])
	assert.Len(t, rec.Records(), 3)
}

func TestJSONRecorder_Formatting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	rec := NewJSONRecorder(path)
	require.NoError(t, rec.Append(types.ClassifiedEmail{Company: "Ünïcode & <Co>", Status: types.StatusAccepted, Date: "2025-02-01"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := `{
    "applications": [
        {
            "company": "Ünïcode & <Co>",
            "status": "Accepted",
            "date": "2025-02-01"
        }
    ]
}
`
	assert.Equal(t, want, string(data))
}

func TestJSONRecorder_EmptyFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, NewJSONRecorder(path).Flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"applications": []}`, string(data))
}

func TestJSONRecorder_WriteError(t *testing.T) {
	rec := NewJSONRecorder(filepath.Join(t.TempDir(), "missing", "out.json"))
	assert.Error(t, rec.Append(types.ClassifiedEmail{Company: "Acme"}))
}

func TestCSVExporter_Export(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applications.csv")
	records := []types.ClassifiedEmail{
		{Company: "Acme", Status: types.StatusApplied, Date: "2025-01-02"},
		{Company: "hr@example.com", Date: "2025-01-03"},
	}
	require.NoError(t, NewCSVExporter(path).Export(records))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"company", "status", "date"},
		{"Acme", "Applied", "2025-01-02"},
		{"hr@example.com", "", "2025-01-03"},
	}, rows)
}

func TestSummarize(t *testing.T) {
	records := []types.ClassifiedEmail{
		{Company: "Acme", Status: types.StatusApplied},
		{Company: "Acme", Status: types.StatusRejected},
		{Company: "Globex", Status: types.StatusApplied},
		{Company: "Initech"},
	}

	stats := Summarize(records, 2)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, map[string]int{"Applied": 2, "Rejected": 1, Unclassified: 1}, stats.ByStatus)
	assert.Equal(t, []CompanyCount{{"Acme", 2}, {"Globex", 1}}, stats.TopCompanies)
}
