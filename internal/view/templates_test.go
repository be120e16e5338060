package view

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrpanel/hrpanel/internal/shared"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderLoginPage(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	err = engine.Render(rr, "pages/login.html", TemplateData{
		Title:     "Sign in",
		CSRFToken: "token-123",
		Flash:     &shared.FlashMessage{Kind: shared.FlashDanger, Message: "Invalid credentials"},
		Data:      map[string]any{"Email": "ana@example.com"},
	})
	require.NoError(t, err)
	body := rr.Body.String()
	assert.Contains(t, body, "token-123")
	assert.Contains(t, body, "Invalid credentials")
	assert.Contains(t, body, "ana@example.com")
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
}

func TestTemplateDataCan(t *testing.T) {
	data := TemplateData{Permissions: []string{"months.manage"}}
	assert.True(t, data.Can("MONTHS.manage"))
	assert.False(t, data.Can("bonus.manage"))
}

func TestFormatHelpers(t *testing.T) {
	day := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "29 Feb 2024", formatDay(day))
	assert.Equal(t, "29 Feb 2024", formatDay(&day))
	var missing *time.Time
	assert.Equal(t, "", formatDay(missing))
	assert.Equal(t, "March", monthName(3))
	assert.Equal(t, "", monthName(0))
}

func TestRenderToWritesExport(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = engine.RenderTo(&buf, "exports/table.html", map[string]any{
		"Title":   "Salary report June 2024",
		"Headers": []string{"Manager", "Net salary"},
		"Rows":    [][]string{{"Ana", "4035.00"}},
		"Footer":  []string{"Total", "4035.00"},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Salary report June 2024")
	assert.Contains(t, buf.String(), "<td>Ana</td>")
}
