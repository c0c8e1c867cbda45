package countries

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver() *Resolver {
	return NewResolver(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolveFallbackTable(t *testing.T) {
	t.Parallel()

	r := newTestResolver()

	cases := map[string]string{
		"Ivory Coast": "CI",
		"russia":      "RU",
		"Turkey":      "TR",
		"kosovo":      "XK",
		"vatican":     "VA",
	}

	for name, want := range cases {
		code, ok := r.Resolve(name)
		require.True(t, ok, "expected %q to resolve", name)
		assert.Equal(t, want, code)
	}
}

func TestResolveGeneralLookup(t *testing.T) {
	t.Parallel()

	r := newTestResolver()

	cases := map[string]string{
		"france":  "FR",
		"Germany": "DE",
		"  japan": "JP",
	}

	for name, want := range cases {
		code, ok := r.Resolve(name)
		require.True(t, ok, "expected %q to resolve", name)
		assert.Equal(t, want, code)
	}
}

func TestResolveUnknownCountry(t *testing.T) {
	t.Parallel()

	r := newTestResolver()

	code, ok := r.Resolve("Wakanda")
	assert.False(t, ok)
	assert.Empty(t, code)
}

func TestResolveEmptyName(t *testing.T) {
	t.Parallel()

	r := newTestResolver()

	_, ok := r.Resolve("")
	assert.False(t, ok)
	_, ok = r.Resolve("   ")
	assert.False(t, ok)
}
