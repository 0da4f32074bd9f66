package scene

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ThemeLight is the only marker value that selects the light branch.
const ThemeLight = "light"

// ThemeProfile is the set of theme-adaptive values applied on a theme change.
type ThemeProfile struct {
	Bloom Bloom

	HudRingOpacity float32
	HudGlowOpacity float32
	HudGlowColor   colorful.Color

	SpeedLineOpacity float32

	StarOpacity float32
	StarSize    float32

	GridGlow float32

	// Background is the page color behind the transparent surface.
	Background colorful.Color
}

// DarkProfile is the richer visual state, also used for unknown markers.
func DarkProfile() ThemeProfile {
	return ThemeProfile{
		Bloom:            Bloom{Strength: 2.5, Radius: 1.2, Threshold: 0.3},
		HudRingOpacity:   0.9,
		HudGlowOpacity:   0.4,
		HudGlowColor:     mustHex("#44ffff"),
		SpeedLineOpacity: 0.7,
		StarOpacity:      0.9,
		StarSize:         0.2,
		GridGlow:         1.6,
		Background:       mustHex("#0b0d12"),
	}
}

// LightProfile reduces bloom and opacities so the inverted image does not wash out.
func LightProfile() ThemeProfile {
	return ThemeProfile{
		Bloom:            Bloom{Strength: 1.2, Radius: 0.8, Threshold: 0.6},
		HudRingOpacity:   0.6,
		HudGlowOpacity:   0.15,
		HudGlowColor:     mustHex("#22aaaa"),
		SpeedLineOpacity: 0.4,
		StarOpacity:      0.5,
		StarSize:         0.15,
		GridGlow:         1.2,
		Background:       mustHex("#f4f2ee"),
	}
}

// ParseTheme reports whether a theme marker value selects the light theme.
// Anything unrecognised falls back to dark.
func ParseTheme(marker string) bool {
	return strings.EqualFold(strings.TrimSpace(marker), ThemeLight)
}

// ThemeName is the marker value for a theme flag.
func ThemeName(light bool) string {
	if light {
		return ThemeLight
	}
	return "dark"
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}
