package campaign

import (
	"strings"
	"testing"

	"github.com/hardware-forge/fij-go/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestSlugLowercasesAndDashesNonAlnum(t *testing.T) {
	assert.Equal(t, "my-target-variant-1", slug("My Target", "variant 1"))
}

func TestSlugTruncatesTo64Chars(t *testing.T) {
	got := slug(strings.Repeat("a", 100))
	assert.Len(t, got, 64)
}

func TestMeanStdDevEmptySamples(t *testing.T) {
	mean, stddev := meanStdDev(nil)
	assert.Zero(t, mean)
	assert.Zero(t, stddev)
}

func TestMeanStdDevSingleSample(t *testing.T) {
	mean, stddev := meanStdDev([]float64{42})
	assert.Equal(t, 42.0, mean)
	assert.Zero(t, stddev)
}

func TestMeanStdDevKnownSamples(t *testing.T) {
	// mean of {2,4,4,4,5,5,7,9} is 5, sample stddev (Bessel's correction) is 2.13809...
	samples := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	mean, stddev := meanStdDev(samples)
	assert.Equal(t, 5.0, mean)
	assert.InDelta(t, 2.1381, stddev, 0.001)
}

func TestDigestIsDeterministic(t *testing.T) {
	cfg := domain.CampaignConfig{Defaults: domain.InjectionPolicy{WeightMem: 2}}
	target := domain.TargetConfig{Path: "/bin/true"}
	variant := domain.VariantConfig{Label: "default"}

	a := digest(cfg, target, variant)
	b := digest(cfg, target, variant)
	assert.Equal(t, a, b)

	variant2 := domain.VariantConfig{Label: "other"}
	c := digest(cfg, target, variant2)
	assert.NotEqual(t, a, c)
}
