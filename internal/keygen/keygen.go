// Package keygen produces storage keys for uploaded files.
//
// A key has the form "{unix-ms}-{13 base36 chars}.{ext}". The random part is
// a uniqueness aid only and must not be treated as a secret.
package keygen

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// RandomLength is the number of base36 characters in the random segment.
	RandomLength = 13

	// FallbackExtension is used when the original name carries no usable extension.
	FallbackExtension = "bin"

	alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Generator creates storage keys from original file names.
type Generator struct {
	now func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithRand overrides the random source.
func WithRand(rnd *rand.Rand) Option {
	return func(g *Generator) { g.rnd = rnd }
}

// New returns a Generator using the wall clock and a randomly seeded PCG source.
func New(opts ...Option) *Generator {
	g := &Generator{
		now: time.Now,
		rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a new key for originalName. It never fails.
func (g *Generator) Generate(originalName string) string {
	var b strings.Builder
	b.Grow(13 + 1 + RandomLength + 1 + 8)
	b.WriteString(strconv.FormatInt(g.now().UnixMilli(), 10))
	b.WriteByte('-')
	b.WriteString(g.randomString())
	b.WriteByte('.')
	b.WriteString(Extension(originalName))
	return b.String()
}

func (g *Generator) randomString() string {
	buf := make([]byte, RandomLength)
	g.mu.Lock()
	for i := range buf {
		buf[i] = alphabet[g.rnd.IntN(len(alphabet))]
	}
	g.mu.Unlock()
	return string(buf)
}

// Extension returns the text after the final dot of the base name, or
// FallbackExtension when there is none or it contains anything other than
// ASCII letters and digits. Case is preserved.
func Extension(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		return FallbackExtension
	}
	ext := name[dot+1:]
	if ext == "" || !isAlnum(ext) {
		return FallbackExtension
	}
	return ext
}

func isAlnum(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		default:
			return false
		}
	}
	return true
}

var defaultGenerator = New()

// Generate returns a new key for originalName using the package default Generator.
func Generate(originalName string) string {
	return defaultGenerator.Generate(originalName)
}
