package healthid

import (
	"crypto/rand"
	"fmt"
	"io"
	mrand "math/rand/v2"
)

// DigitSource draws random decimal digits.
type DigitSource interface {
	Digits(n int) (string, error)
}

// SourceSelector picks the DigitSource for one generation call.
type SourceSelector func() DigitSource

type strongSource struct {
	r io.Reader
}

// NewStrongSource reads digits from r, normally crypto/rand.Reader.
func NewStrongSource(r io.Reader) DigitSource {
	return strongSource{r: r}
}

func (s strongSource) Digits(n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n+4)
	for len(out) < n {
		if _, err := io.ReadFull(s.r, buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			// 250 is the largest multiple of 10 that fits a byte; rejecting
			// the rest keeps every digit equally likely.
			if b >= 250 {
				continue
			}
			out = append(out, '0'+b%10)
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

type fallbackSource struct{}

// FallbackSource uses the auto-seeded math/rand generator. It never fails and
// is not suitable where unpredictability matters.
func FallbackSource() DigitSource {
	return fallbackSource{}
}

func (fallbackSource) Digits(n int) (string, error) {
	out := make([]byte, n)
	for i := range out {
		out[i] = '0' + byte(mrand.IntN(10))
	}
	return string(out), nil
}

// ProbeSource returns a selector that reads one byte from strong on every
// call and falls back to FallbackSource when that read fails.
func ProbeSource(strong io.Reader) SourceSelector {
	return func() DigitSource {
		var b [1]byte
		if _, err := io.ReadFull(strong, b[:]); err != nil {
			return FallbackSource()
		}
		return NewStrongSource(strong)
	}
}

// DefaultSourceSelector probes crypto/rand.
func DefaultSourceSelector() SourceSelector {
	return ProbeSource(rand.Reader)
}
