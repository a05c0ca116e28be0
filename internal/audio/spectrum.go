package audio

import "math"

// Spectrum reduces one PCM-16 frame to a fixed-size magnitude vector, one value
// per frequency band in [0, 1]. Bands are spread linearly up to the Nyquist
// frequency and evaluated with the Goertzel recurrence, which is cheap enough
// to run once per visualization tick on a single frame.
//
// The same frame always yields the same vector.
func Spectrum(samples []int16, bins int) []float64 {
	if bins <= 0 {
		return nil
	}

	out := make([]float64, bins)
	n := len(samples)
	if n == 0 {
		return out
	}

	for bin := 0; bin < bins; bin++ {
		// Center each band between DC and Nyquist, skipping both extremes.
		freq := (float64(bin) + 0.5) / float64(2*bins)
		omega := 2 * math.Pi * freq
		coeff := 2 * math.Cos(omega)

		var s0, s1, s2 float64
		for _, sample := range samples {
			s0 = float64(sample)/32768.0 + coeff*s1 - s2
			s2 = s1
			s1 = s0
		}

		power := s1*s1 + s2*s2 - coeff*s1*s2
		if power < 0 {
			power = 0
		}

		magnitude := math.Sqrt(power) / float64(n)
		// Goertzel magnitudes for a full-scale tone reach ~0.5; rescale so a
		// loud input approaches 1.0.
		magnitude *= 2
		if magnitude > 1 {
			magnitude = 1
		}
		out[bin] = magnitude
	}

	return out
}

// MeanMagnitude reduces a magnitude vector to a single loudness scalar
func MeanMagnitude(spectrum []float64) float64 {
	if len(spectrum) == 0 {
		return 0
	}

	var sum float64
	for _, v := range spectrum {
		sum += v
	}
	return sum / float64(len(spectrum))
}
