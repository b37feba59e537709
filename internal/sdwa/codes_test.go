package sdwa

import (
	"bytes"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/water-atlas/internal/table"
)

func itoa(i int) string { return strconv.Itoa(i) }

func indexOf(data []byte, s string) int { return bytes.Index(data, []byte(s)) }

func refTable() *table.Table {
	return table.New("ref", []string{ColValueCode, ColValueDescription}, [][]any{
		{"03", "Monitoring Violation"},
		{"MR", "Old"},
		{nil, "No code"},
		{"MR", "Monitoring and Reporting"},
		{"BLANK", ""},
		{"NULL", nil},
	})
}

func TestBuildCodeDictionary_LastWins(t *testing.T) {
	d := BuildCodeDictionary(refTable())
	assert.Equal(t, "Monitoring and Reporting", d.Lookup("MR"))
	assert.Equal(t, "Monitoring Violation", d.Lookup("03"))
	assert.Len(t, d, 4)
}

func TestCodeDictionary_LookupMissingIsNil(t *testing.T) {
	d := BuildCodeDictionary(refTable())
	assert.Nil(t, d.Lookup("3"), "codes compare on source text")
	assert.Nil(t, d.Lookup("ZZ"))
	assert.Nil(t, d.Lookup(nil))
	assert.Nil(t, d.Lookup("BLANK"))
	assert.Nil(t, d.Lookup("NULL"))
}

func TestAnnotateViolations(t *testing.T) {
	v := table.New("viol", []string{ColPWSID, ColViolationCode, ColContaminantCode}, [][]any{
		{"GA1", "03", "MR"},
		{"GA1", "ZZ", nil},
	})
	unresolved := AnnotateViolations(v, BuildCodeDictionary(refTable()))

	assert.Equal(t, 1, unresolved)
	assert.Equal(t, []string{ColPWSID, ColViolationCode, ColContaminantCode, ColViolationName, ColContaminantName}, v.Columns)
	assert.Equal(t, "Monitoring Violation", v.Rows[0][3])
	assert.Equal(t, "Monitoring and Reporting", v.Rows[0][4])
	assert.Nil(t, v.Rows[1][3])
	assert.Nil(t, v.Rows[1][4])
}

func TestGroupBy_PreservesOrder(t *testing.T) {
	v := table.New("viol", []string{ColPWSID, "ID"}, [][]any{
		{"GA1", "a"},
		{"GA2", "b"},
		{nil, "c"},
		{"GA1", "d"},
	})
	g := GroupBy(v, ColPWSID)

	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []int{0, 3}, g.Get("GA1").Index)
	assert.Equal(t, 0, g.Get("GA3").Len())

	data, err := json.Marshal(g.Get("GA1"))
	require.NoError(t, err)
	assert.Equal(t, `{"0":{"PWSID":"GA1","ID":"a"},"1":{"PWSID":"GA1","ID":"d"}}`, string(data))

	data, err = json.Marshal(g.Get("GA3"))
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestGroupBy_MissingColumn(t *testing.T) {
	g := GroupBy(table.New("x", []string{"OTHER"}, [][]any{{"a"}}), ColPWSID)
	assert.Equal(t, 0, g.Len())
}

func TestAssemble_TwoViolationsInOrder(t *testing.T) {
	systems := table.New("sys", []string{ColPWSID, "PWS_NAME"}, [][]any{
		{"GA1234567", "Atlanta"},
		{nil, "Orphan"},
	})
	viol := table.New("viol", []string{ColPWSID, "VIOLATION_ID"}, [][]any{
		{"GA1234567", "first"},
		{"GA9999999", "elsewhere"},
		{"GA1234567", "second"},
	})
	geo := table.New("geo", []string{ColPWSID}, nil)

	a := Assemble(systems, GroupBy(viol, ColPWSID), GroupBy(geo, ColPWSID))
	assert.Equal(t, 1, a.Dropped)
	assert.Equal(t, 2, a.Violations)
	require.Equal(t, []string{"GA1234567"}, a.Document.Keys())

	data, err := json.Marshal(a.Document)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"GA1234567": {
			"PWSID": "GA1234567",
			"PWS_NAME": "Atlanta",
			"violations": {
				"0": {"PWSID": "GA1234567", "VIOLATION_ID": "first"},
				"1": {"PWSID": "GA1234567", "VIOLATION_ID": "second"}
			},
			"geo_areas": {}
		}
	}`, string(data))
}
