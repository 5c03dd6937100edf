// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent = lipgloss.Color("#00AFFF")
	colorDim    = lipgloss.Color("#808080")
	colorGood   = lipgloss.Color("#00CC33")
	colorFair   = lipgloss.Color("#FFAA00")
	colorPoor   = lipgloss.Color("#FF3300")
)

var (
	styleTitle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	styleLabel = lipgloss.NewStyle().
			Foreground(colorDim).
			Width(18)

	styleValue = lipgloss.NewStyle().
			Bold(true)

	stylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)
)

// row is a label and its value.
type row struct {
	label, value string
	style        lipgloss.Style
}

func plain(label, value string) row {
	return row{label: label, value: value, style: styleValue}
}

func panel(title string, rows []row) string {
	lines := []string{styleTitle.Render(title)}
	for _, r := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, styleLabel.Render(r.label), r.style.Render(r.value)))
	}
	return stylePanel.Render(strings.Join(lines, "\n"))
}

// airQualityStyle colors a score.
func airQualityStyle(score float64) lipgloss.Style {
	switch {
	case score >= 80:
		return styleValue.Foreground(colorGood)
	case score >= 50:
		return styleValue.Foreground(colorFair)
	default:
		return styleValue.Foreground(colorPoor)
	}
}
