package luma

import (
	"regexp"
	"strconv"
	"strings"
)

// #region color

// Color is a parsed RGB color with an optional alpha component.
type Color struct {
	R, G, B int
	Alpha   float64 // 1 when the source string carried no alpha component
}

// #endregion color

// #region parsing

var rgbPattern = regexp.MustCompile(`^rgba?\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*(?:,\s*([0-9]*\.?[0-9]+)\s*)?\)$`)

// Parse reads an rgb(r,g,b) or rgba(r,g,b,a) string with arbitrary whitespace
// between components. Any other format (named colors, hex, hsl) is not a
// parse error, just no signal: ok is false.
func Parse(s string) (Color, bool) {
	m := rgbPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Color{}, false
	}

	r, _ := strconv.Atoi(m[1])
	g, _ := strconv.Atoi(m[2])
	b, _ := strconv.Atoi(m[3])
	if r > 255 || g > 255 || b > 255 {
		return Color{}, false
	}

	alpha := 1.0
	if m[4] != "" {
		a, err := strconv.ParseFloat(m[4], 64)
		if err != nil || a < 0 || a > 1 {
			return Color{}, false
		}
		alpha = a
	}

	return Color{R: r, G: g, B: b, Alpha: alpha}, true
}

// #endregion parsing

// #region brightness

// Brightness converts the color to perceived brightness in [0,1] using the
// standard luminance weights on channels normalized to [0,1]. Alpha is
// ignored: a translucent color contributes its nominal RGB as-is.
func (c Color) Brightness() float64 {
	return Clamp(0.299*float64(c.R)/255 + 0.587*float64(c.G)/255 + 0.114*float64(c.B)/255)
}

// BrightnessOf parses s and returns its perceived brightness. ok is false
// when the color is unparseable or fully transparent, meaning the value
// carries no signal and must be excluded from any average.
func BrightnessOf(s string) (float64, bool) {
	c, ok := Parse(s)
	if !ok || c.Alpha == 0 {
		return 0, false
	}
	return c.Brightness(), true
}

// #endregion brightness

// #region clamp

// Clamp restricts v to [0, 1].
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion clamp
