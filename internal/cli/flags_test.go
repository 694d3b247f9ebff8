package cli

import (
	"flag"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/bill-linker/internal/domain/matcher"
)

func parseLinkFlags(t *testing.T, args ...string) *LinkFlags {
	t.Helper()
	fs := flag.NewFlagSet("linker", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := RegisterLinkFlags(fs)
	require.NoError(t, fs.Parse(args))
	f.MarkSet(fs)
	return f
}

func TestLinkFlags_Apply(t *testing.T) {
	defaults := matcher.DefaultOptions()

	t.Run("no flags keep defaults", func(t *testing.T) {
		f := parseLinkFlags(t, "-dry-run")

		opts, err := f.Apply(defaults)

		require.NoError(t, err)
		assert.True(t, f.DryRun)
		assert.Equal(t, defaults, opts)
	})

	t.Run("given flags override", func(t *testing.T) {
		f := parseLinkFlags(t,
			"-past-window", "3",
			"-max-delta", "2.5",
			"-delta-mode", "Absolute",
			"-identifiers", "ameli, mgen,",
			"-allow-uncategorized",
		)

		opts, err := f.Apply(defaults)

		require.NoError(t, err)
		assert.Equal(t, 3, opts.PastWindow)
		assert.Equal(t, defaults.FutureWindow, opts.FutureWindow)
		assert.True(t, decimal.RequireFromString("2.5").Equal(opts.MaxAmountDelta))
		assert.True(t, defaults.MinAmountDelta.Equal(opts.MinAmountDelta))
		assert.Equal(t, matcher.DeltaAbsolute, opts.DeltaMode)
		assert.Equal(t, []string{"ameli", "mgen"}, opts.Identifiers)
		assert.True(t, opts.AllowUncategorized)
	})

	t.Run("explicit zero window is kept", func(t *testing.T) {
		f := parseLinkFlags(t, "-future-window", "0")

		opts, err := f.Apply(defaults)

		require.NoError(t, err)
		assert.Equal(t, 0, opts.FutureWindow)
	})

	t.Run("bad delta", func(t *testing.T) {
		f := parseLinkFlags(t, "-min-delta", "ten")

		_, err := f.Apply(defaults)

		assert.ErrorContains(t, err, "-min-delta")
	})

	t.Run("invalid options", func(t *testing.T) {
		f := parseLinkFlags(t, "-past-window=-1")

		_, err := f.Apply(defaults)

		assert.Error(t, err)
	})
}
