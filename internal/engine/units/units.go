// Package units converts temperatures and pressures to and from SI.
package units

import (
	"fmt"
	"strings"
)

var pressureFactors = map[string]float64{
	"pa":    1,
	"kpa":   1e3,
	"mpa":   1e6,
	"bar":   1e5,
	"atm":   101325,
	"psi":   6894.757293168,
	"mmhg":  133.322387415,
	"torr":  101325.0 / 760,
	"mbar":  100,
	"hpa":   100,
	"kgcm2": 98066.5,
}

func normalize(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	u = strings.NewReplacer("°", "", "deg", "", " ", "", "/", "", "_", "").Replace(u)
	return u
}

// ToKelvin converts value from unit (K, C, F, R) to kelvin.
func ToKelvin(value float64, unit string) (float64, error) {
	var k float64
	switch normalize(unit) {
	case "k", "kelvin":
		k = value
	case "c", "celsius":
		k = value + 273.15
	case "f", "fahrenheit":
		k = (value-32)*5/9 + 273.15
	case "r", "rankine":
		k = value * 5 / 9
	default:
		return 0, fmt.Errorf("unknown temperature unit %q (use K, C, F or R)", unit)
	}
	if k <= 0 {
		return 0, fmt.Errorf("temperature %g %s is not above absolute zero", value, unit)
	}
	return k, nil
}

// FromKelvin converts kelvin to unit.
func FromKelvin(k float64, unit string) (float64, error) {
	switch normalize(unit) {
	case "k", "kelvin":
		return k, nil
	case "c", "celsius":
		return k - 273.15, nil
	case "f", "fahrenheit":
		return (k-273.15)*9/5 + 32, nil
	case "r", "rankine":
		return k * 9 / 5, nil
	default:
		return 0, fmt.Errorf("unknown temperature unit %q (use K, C, F or R)", unit)
	}
}

// ToPascal converts value from unit to pascal.
func ToPascal(value float64, unit string) (float64, error) {
	f, ok := pressureFactors[normalize(unit)]
	if !ok {
		return 0, fmt.Errorf("unknown pressure unit %q (use Pa, kPa, MPa, bar, atm, psi, mmHg or torr)", unit)
	}
	return value * f, nil
}

// FromPascal converts pascal to unit.
func FromPascal(pa float64, unit string) (float64, error) {
	f, ok := pressureFactors[normalize(unit)]
	if !ok {
		return 0, fmt.Errorf("unknown pressure unit %q (use Pa, kPa, MPa, bar, atm, psi, mmHg or torr)", unit)
	}
	return pa / f, nil
}

// IsPressureUnit reports whether unit is a known pressure unit.
func IsPressureUnit(unit string) bool {
	_, ok := pressureFactors[normalize(unit)]
	return ok
}

// IsTemperatureUnit reports whether unit is a known temperature unit.
func IsTemperatureUnit(unit string) bool {
	_, err := FromKelvin(1, unit)
	return err == nil
}
