// Copyright 2026 The Shields Authors
// SPDX-License-Identifier: Apache-2.0

// Package badge renders shields-style status badges as SVG and JSON.
//
// A badge is a label/value pair with a status color. The SVG output is
// the classic flat style: two rounded rectangles, label on the left
// over gray, value on the right over the status color.
package badge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"
)

// Badge is a renderable label/value pair. Color names the status color
// by its palette name ("brightgreen", "red", ...); unknown names fall
// back to lightgray.
type Badge struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Color string `json:"color"`
}

// matrixLabel is the left-hand label of every room badge.
const matrixLabel = "matrix"

// ForMemberCount builds the badge for a successfully counted room.
func ForMemberCount(count int) Badge {
	value := fmt.Sprintf("%d users", count)
	if count == 1 {
		value = "1 user"
	}
	return Badge{Label: matrixLabel, Value: value, Color: "brightgreen"}
}

// ForError builds the badge shown when the room could not be counted,
// whatever the reason. The badge deliberately carries no detail: the
// host, the room, or the network being at fault all look the same to a
// README visitor.
func ForError() Badge {
	return Badge{Label: matrixLabel, Value: "inaccessible", Color: "red"}
}

// palette maps status color names to their hex values.
var palette = map[string]string{
	"brightgreen": "#4c1",
	"green":       "#97ca00",
	"yellow":      "#dfb317",
	"orange":      "#fe7d37",
	"red":         "#e05d44",
	"blue":        "#007ec6",
	"lightgray":   "#9f9f9f",
}

// hexColor resolves the badge's color name against the palette.
func (b Badge) hexColor() string {
	if hex, ok := palette[b.Color]; ok {
		return hex
	}
	return palette["lightgray"]
}

// JSON encodes the badge as its endpoint representation.
func (b Badge) JSON() ([]byte, error) {
	return json.Marshal(b)
}

// textWidth approximates the rendered width of s in the badge font
// (11px Verdana). Good enough for badge geometry; exact metrics would
// need font tables.
func textWidth(s string) int {
	return 7*len(s) + 10
}

type svgParams struct {
	Label      string
	Value      string
	Color      string
	LabelWidth int
	ValueWidth int
	TotalWidth int
}

var svgTemplate = template.Must(template.New("badge").Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="{{.TotalWidth}}" height="20">
  <linearGradient id="smooth" x2="0" y2="100%">
    <stop offset="0" stop-color="#bbb" stop-opacity=".1"/>
    <stop offset="1" stop-opacity=".1"/>
  </linearGradient>
  <clipPath id="round">
    <rect width="{{.TotalWidth}}" height="20" rx="3" fill="#fff"/>
  </clipPath>
  <g clip-path="url(#round)">
    <rect width="{{.LabelWidth}}" height="20" fill="#555"/>
    <rect x="{{.LabelWidth}}" width="{{.ValueWidth}}" height="20" fill="{{.Color}}"/>
    <rect width="{{.TotalWidth}}" height="20" fill="url(#smooth)"/>
  </g>
  <g fill="#fff" text-anchor="middle" font-family="Verdana,Geneva,DejaVu Sans,sans-serif" font-size="11">
    <text x="{{.LabelAnchor}}" y="15" fill="#010101" fill-opacity=".3">{{.Label}}</text>
    <text x="{{.LabelAnchor}}" y="14">{{.Label}}</text>
    <text x="{{.ValueAnchor}}" y="15" fill="#010101" fill-opacity=".3">{{.Value}}</text>
    <text x="{{.ValueAnchor}}" y="14">{{.Value}}</text>
  </g>
</svg>
`))

// SVG renders the badge as a flat-style SVG document.
func (b Badge) SVG() ([]byte, error) {
	labelWidth := textWidth(b.Label)
	valueWidth := textWidth(b.Value)

	var buffer bytes.Buffer
	err := svgTemplate.Execute(&buffer, struct {
		svgParams
		LabelAnchor int
		ValueAnchor int
	}{
		svgParams: svgParams{
			Label:      b.Label,
			Value:      b.Value,
			Color:      b.hexColor(),
			LabelWidth: labelWidth,
			ValueWidth: valueWidth,
			TotalWidth: labelWidth + valueWidth,
		},
		LabelAnchor: labelWidth / 2,
		ValueAnchor: labelWidth + valueWidth/2,
	})
	if err != nil {
		return nil, fmt.Errorf("badge: rendering SVG: %w", err)
	}
	return buffer.Bytes(), nil
}
