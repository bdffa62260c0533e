// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestStatusIndicatorsUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range []string{
		StatusIndicators.Success,
		StatusIndicators.Error,
		StatusIndicators.Warning,
		StatusIndicators.Info,
		StatusIndicators.Active,
	} {
		assert.NotEmpty(t, s)
		assert.False(t, seen[s], "duplicate indicator %q", s)
		seen[s] = true
	}
}

func TestRenderHelpersIncludeIndicator(t *testing.T) {
	assert.Contains(t, RenderSuccess("signed in"), StatusIndicators.Success)
	assert.Contains(t, RenderError("expired"), StatusIndicators.Error)
	assert.Contains(t, RenderWarning("idle"), StatusIndicators.Warning)
	assert.Contains(t, RenderWarning("idle"), "idle")
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		percent float64
		want    string
	}{
		{"empty", 10, 0, "----------"},
		{"full", 10, 100, "##########"},
		{"half", 10, 50, "#####-----"},
		{"over", 4, 250, "####"},
		{"under", 4, -5, "----"},
		{"zero width", 0, 50, ""},
		{"negative width", -3, 50, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderProgressBar(tt.width, tt.percent))
		})
	}
}

func TestRenderProgressBarWidthIsStable(t *testing.T) {
	for p := 0.0; p <= 100; p += 3.7 {
		bar := RenderProgressBar(17, p)
		assert.Len(t, bar, 17, "percent %.1f", p)
		assert.False(t, strings.Contains(bar, " "))
	}
}

func TestNewThemeLayout(t *testing.T) {
	theme := newTheme(termenv.TrueColor, true)
	assert.True(t, theme.HasTrueColor)
	assert.True(t, theme.IsDark)

	theme.SetSize(40, 20)
	assert.Equal(t, LayoutNarrow, theme.GetLayoutMode())
	theme.SetSize(120, 40)
	assert.Equal(t, LayoutWide, theme.GetLayoutMode())

	assert.NotEmpty(t, theme.StatusActive.Render("ACTIVE"))
}
