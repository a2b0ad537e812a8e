package keygen

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stemPattern = regexp.MustCompile(`^\d+-[0-9a-z]{13}$`)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestGenerate_WithExtension(t *testing.T) {
	g := New()

	tests := []struct {
		name string
		ext  string
	}{
		{"diagram.jpg", "jpg"},
		{"wireframe.final.PNG", "PNG"},
		{"archive.tar.gz", "gz"},
		{".gitignore", "gitignore"},
		{"uploads/2024/mock.webp", "webp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := g.Generate(tt.name)

			require.True(t, strings.HasSuffix(key, "."+tt.ext), "key %q", key)
			stem := strings.TrimSuffix(key, "."+tt.ext)
			assert.Regexp(t, stemPattern, stem)
		})
	}
}

func TestGenerate_FallbackExtension(t *testing.T) {
	g := New()

	for _, name := range []string{"", "README", "trailing.", "odd.j p g", `C:\scans\photo`, "dir.v2/file"} {
		t.Run(name, func(t *testing.T) {
			var key string
			require.NotPanics(t, func() { key = g.Generate(name) })

			assert.True(t, strings.HasSuffix(key, "."+FallbackExtension), "key %q", key)
			assert.Regexp(t, stemPattern, strings.TrimSuffix(key, "."+FallbackExtension))
		})
	}
}

func TestGenerate_UsesClock(t *testing.T) {
	g := New(WithClock(fixedClock(1700000000123)))

	key := g.Generate("a.png")

	assert.True(t, strings.HasPrefix(key, "1700000000123-"), "key %q", key)
}

func TestGenerate_UniqueUnderFixedTime(t *testing.T) {
	clock := fixedClock(1700000000000)
	seen := make(map[string]struct{})

	for seed := uint64(1); seed <= 200; seed++ {
		g := New(WithClock(clock), WithRand(rand.New(rand.NewPCG(seed, seed*31))))
		key := g.Generate("diagram.jpg")
		_, dup := seen[key]
		require.False(t, dup, "duplicate key %q for seed %d", key, seed)
		seen[key] = struct{}{}
	}
}

func TestGenerate_DeterministicForSameSeed(t *testing.T) {
	clock := fixedClock(42)
	a := New(WithClock(clock), WithRand(rand.New(rand.NewPCG(7, 7))))
	b := New(WithClock(clock), WithRand(rand.New(rand.NewPCG(7, 7))))

	assert.Equal(t, a.Generate("x.png"), b.Generate("x.png"))
}

func TestGenerate_ConcurrentUse(t *testing.T) {
	g := New(WithClock(fixedClock(1)))

	const n = 64
	keys := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			keys[i] = g.Generate("f.png")
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, n)
	for _, k := range keys {
		_, dup := seen[k]
		assert.False(t, dup, "duplicate key %q", k)
		seen[k] = struct{}{}
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "jpg", Extension("diagram.jpg"))
	assert.Equal(t, "bin", Extension("diagram"))
	assert.Equal(t, "bin", Extension("diagram."))
	assert.Equal(t, "svg", Extension(`..\..\evil.svg`))
}

func TestPackageGenerate(t *testing.T) {
	key := Generate("shot.jpeg")

	assert.True(t, strings.HasSuffix(key, ".jpeg"))
	assert.Regexp(t, stemPattern, strings.TrimSuffix(key, ".jpeg"))
}
