package bingo

import (
	"encoding/json"
	"fmt"
)

type Color int

const (
	Red Color = iota
	Blue
	Green
	Yellow
	Purple
)

var Palette = [...]Color{Red, Blue, Green, Yellow, Purple}

var colorNames = map[Color]string{
	Red:    "red",
	Blue:   "blue",
	Green:  "green",
	Yellow: "yellow",
	Purple: "purple",
}

// PaletteColor returns the color of the i-th card, cycling the palette.
func PaletteColor(i int) Color {
	return Palette[i%len(Palette)]
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Color(%d)", int(c))
}

func ParseColor(s string) (Color, error) {
	for c, name := range colorNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown color %q", s)
}

// [Color] implements [json.Marshaler]
func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
