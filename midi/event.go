package midi

import "math"

// Controller numbers used for track automation
const (
	CCVolume uint8 = 7
	CCPan    uint8 = 10
)

// UnityCC is the CC7 value sent for unity gain
const UnityCC = 100

// GainToCC maps linear gain to CC7, unity at UnityCC
func GainToCC(gain float64) uint8 {
	return clampCC(math.Round(gain * UnityCC))
}

// PanToCC maps -1..1 to 0..127 with centre at 64
func PanToCC(pan float64) uint8 {
	return clampCC(math.Round((pan + 1) / 2 * 127))
}

// ScaleToCC maps value from [min, max] to 0..127
func ScaleToCC(value, min, max float64) uint8 {
	if max <= min {
		return clampCC(math.Round(value))
	}
	return clampCC(math.Round((value - min) / (max - min) * 127))
}

// CCToUnit maps a CC value to 0..1
func CCToUnit(v uint8) float64 {
	return float64(v) / 127
}

func clampCC(v float64) uint8 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}
