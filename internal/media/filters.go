package media

import (
	"errors"
	"fmt"
	"math"
)

// LessonSampleRate is the rate clips are normalised to before they are
// concatenated.
const LessonSampleRate = 44100

var ErrInvalidSpeed = errors.New("speed must be greater than 0")

// splitTempo breaks a tempo factor into atempo steps within [0.5, 2].
func splitTempo(value float64) ([]float64, error) {
	if value <= 0 {
		return nil, errors.New("tempo factor must be greater than zero")
	}
	var factors []float64
	remaining := value
	for remaining > 2.0 {
		factors = append(factors, 2.0)
		remaining /= 2.0
	}
	for remaining < 0.5 {
		factors = append(factors, 0.5)
		remaining /= 0.5
	}
	if math.Abs(remaining-1.0) > 1e-9*math.Max(1, remaining) {
		factors = append(factors, remaining)
	}
	return factors, nil
}

func atempoFilters(value float64) ([]string, error) {
	factors, err := splitTempo(value)
	if err != nil {
		return nil, err
	}
	filters := make([]string, 0, len(factors))
	for _, f := range factors {
		filters = append(filters, fmt.Sprintf("atempo=%.8f", f))
	}
	return filters, nil
}

// SpeedFilters changes tempo without touching pitch.
func SpeedFilters(speed float64) ([]string, error) {
	if speed <= 0 {
		return nil, ErrInvalidSpeed
	}
	filters, err := atempoFilters(speed)
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return []string{"atempo=1.0"}, nil
	}
	return filters, nil
}

// PitchFilters shifts pitch by semitones while keeping the tempo.
func PitchFilters(semitones float64, sampleRate int) []string {
	if math.Abs(semitones) < 1e-9 {
		return nil
	}
	factor := math.Pow(2, semitones/12.0)
	filters := []string{
		fmt.Sprintf("asetrate=%.6f", float64(sampleRate)*factor),
		fmt.Sprintf("aresample=%d", sampleRate),
	}
	comp, _ := atempoFilters(1.0 / factor)
	return append(filters, comp...)
}

// ResampleSpeedFilters plays a clip faster or slower by resampling, which
// moves pitch along with tempo. Clips must already be at LessonSampleRate.
func ResampleSpeedFilters(speed float64) []string {
	if speed <= 0 || speed == 1.0 {
		return nil
	}
	return []string{
		fmt.Sprintf("asetrate=%d", int(math.Round(LessonSampleRate*speed))),
		fmt.Sprintf("aresample=%d", LessonSampleRate),
	}
}

// SilenceRemoveFilter drops leading and inner silence longer than
// minSilence seconds below thresholdDB.
func SilenceRemoveFilter(minSilence, thresholdDB float64) string {
	return fmt.Sprintf(
		"silenceremove=start_periods=1:start_silence=%s:start_threshold=%sdB:stop_periods=-1:stop_silence=%s:stop_threshold=%sdB",
		trimFloat(minSilence), trimFloat(thresholdDB), trimFloat(minSilence), trimFloat(thresholdDB),
	)
}

func GainFilter(db float64) string {
	return "volume=" + trimFloat(db) + "dB"
}

func trimFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}

func seconds(v float64) string {
	return fmt.Sprintf("%.3f", v)
}
