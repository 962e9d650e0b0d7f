package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, root, rel string, size int) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, make([]byte, size), 0o644))
}

func TestNearestRank(t *testing.T) {
	sorted := []float64{15, 20, 35, 40, 50}
	assert.Equal(t, 15.0, NearestRank(sorted, 0))
	assert.Equal(t, 20.0, NearestRank(sorted, 30))
	assert.Equal(t, 35.0, NearestRank(sorted, 50))
	assert.Equal(t, 50.0, NearestRank(sorted, 100))
	assert.Equal(t, 7.0, NearestRank([]float64{7}, 90))
}

func TestSavings(t *testing.T) {
	assert.Equal(t, 75.0, Savings(400, 100))
	assert.Equal(t, 0.0, Savings(0, 100))
	assert.Equal(t, -50.0, Savings(100, 150))
}

func TestBuild(t *testing.T) {
	root := t.TempDir()
	write(t, root, "2024/01/a.jpg", 1000)
	write(t, root, "2024/01/a.avif", 250)
	write(t, root, "2024/01/b.png", 1000)
	write(t, root, "2024/01/b.avif", 500)
	write(t, root, "2024/01/c.gif", 100)
	write(t, root, "logo.svg", 10)

	r, err := Build(root, Options{Format: "avif", Percentiles: []int{50, 90}})
	require.NoError(t, err)

	require.Len(t, r.Pairs, 2)
	assert.Equal(t, "2024/01/a.avif", r.Pairs[0].Converted)
	assert.Equal(t, 75.0, r.Pairs[0].Savings)
	assert.Equal(t, []string{"2024/01/c.gif"}, r.Unconverted)
	assert.EqualValues(t, 2000, r.TotalOriginalBytes)
	assert.EqualValues(t, 750, r.TotalConvertedBytes)
	assert.Equal(t, "62.50", r.SavingsPercent)
	assert.Equal(t, "66.67", r.ConvertedPercent)
	assert.Equal(t, []Percentile{{P: 50, Savings: 50}, {P: 90, Savings: 75}}, r.Percentiles)
	assert.Equal(t, []string{"2024/01/a.jpg", "2024/01/b.png"}, r.Originals())
}

func TestBuild_SeparateConvertedDir(t *testing.T) {
	root, out := t.TempDir(), t.TempDir()
	write(t, root, "a.jpg", 100)
	write(t, out, "a.webp", 40)

	r, err := Build(root, Options{Format: "webp", ConvertedDir: out})
	require.NoError(t, err)
	require.Len(t, r.Pairs, 1)
	assert.Len(t, r.Percentiles, len(DefaultPercentiles))
}

func TestBuild_Empty(t *testing.T) {
	r, err := Build(t.TempDir(), Options{Format: "avif"})
	require.NoError(t, err)
	assert.Empty(t, r.Pairs)
	assert.Empty(t, r.Percentiles)
	assert.Equal(t, "0.00", r.SavingsPercent)
	assert.Equal(t, "0.00", r.ConvertedPercent)
}

func TestBuild_SharedStemPairsOnlyFirstSource(t *testing.T) {
	root := t.TempDir()
	write(t, root, "2024/01/a.jpg", 1000)
	write(t, root, "2024/01/a.png", 4000)
	write(t, root, "2024/01/a.avif", 200)

	r, err := Build(root, Options{Format: "avif"})
	require.NoError(t, err)

	require.Len(t, r.Pairs, 1)
	assert.Equal(t, "2024/01/a.jpg", r.Pairs[0].Original)
	assert.Equal(t, []string{"2024/01/a.png"}, r.Unconverted)
	assert.Equal(t, []string{"2024/01/a.jpg"}, r.Originals())
	assert.EqualValues(t, 1000, r.TotalOriginalBytes)
}

func TestBuild_TargetFormatOriginalIsNotAConversion(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.jpg", 1000)
	write(t, root, "a.webp", 300)

	r, err := Build(root, Options{Format: "webp"})
	require.NoError(t, err)
	assert.Empty(t, r.Pairs)
	assert.Equal(t, []string{"a.jpg"}, r.Unconverted)
	assert.Empty(t, r.Originals())
}
