// File: internal/browser/query_test.go
package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/dashverify/internal/locator"
)

func TestQueryTemplate(t *testing.T) {
	require.Contains(t, queryTemplate, requestPlaceholder, "embedded runtime must carry its placeholder")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(queryTemplate), "function"), "runtime must be a function expression")
}

func TestCheckQuery(t *testing.T) {
	row := locator.ByCSS("#coursesList > div").Filter("AP Physics").First()

	js, err := checkQuery(row, locator.ContainsText("IGNORED"))
	require.NoError(t, err)

	assert.NotContains(t, js, requestPlaceholder)
	assert.Contains(t, js, `"op":"check"`)
	assert.Contains(t, js, `"kind":"css","value":"#coursesList > div","ops":[{"op":"has_text","text":"AP Physics","index":0},{"op":"nth","index":0}]`)
	assert.Contains(t, js, `"condition":{"state":"contains_text","text":"IGNORED"}`)
	assert.NotContains(t, js, `"want"`)
}

func TestPointAndCheckedQueries(t *testing.T) {
	cell := locator.ByCSS(".calendar-cell").Nth(40)

	js, err := pointQuery(cell)
	require.NoError(t, err)
	assert.Contains(t, js, `"op":"point"`)
	assert.Contains(t, js, `"ops":[{"op":"nth","index":40}]`)
	assert.NotContains(t, js, `"condition"`)

	js, err = checkedQuery(locator.ByCSS("input[type='checkbox']"), false)
	require.NoError(t, err)
	assert.Contains(t, js, `"op":"checked"`)
	assert.Contains(t, js, `"want":false`)

	js, err = stateQuery(locator.ByText("Courses"))
	require.NoError(t, err)
	assert.Contains(t, js, `"kind":"text","value":"Courses"}`)
}

func TestQuery_NarrowingOrderIsSerialized(t *testing.T) {
	rows := locator.ByCSS(".row")

	js, err := checkQuery(rows.Nth(5).First(), locator.Visible())
	require.NoError(t, err)
	assert.Contains(t, js, `"ops":[{"op":"nth","index":5},{"op":"nth","index":0}]`)

	js, err = checkQuery(rows.Filter("AP").Filter("Physics"), locator.Visible())
	require.NoError(t, err)
	assert.Contains(t, js, `"ops":[{"op":"has_text","text":"AP","index":0},{"op":"has_text","text":"Physics","index":0}]`)

	js, err = checkQuery(rows.First().Filter("AP"), locator.Visible())
	require.NoError(t, err)
	assert.Contains(t, js, `"ops":[{"op":"nth","index":0},{"op":"has_text","text":"AP","index":0}]`)
}

func TestBuildQuery_RejectsEmptyChain(t *testing.T) {
	_, err := checkQuery(locator.Locator{}, locator.Visible())
	assert.Error(t, err)
}

func TestInvoke(t *testing.T) {
	assert.Equal(t, "(function () { return 1; })()", invoke("function () { return 1; }"))
}
