package cmd

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orgharvest/orgharvest/internal/app"
	"github.com/orgharvest/orgharvest/internal/config"
	"github.com/orgharvest/orgharvest/internal/publisher/memory"
)

// stubServices swaps the app factory for one that wires a recording
// publisher, so tests can observe teardown.
func stubServices(t *testing.T) *memory.Publisher {
	t.Helper()
	events := memory.New()
	orig := newApp
	newApp = func(_ context.Context, cfg config.Config) (*app.App, error) {
		return app.NewWithServices(cfg, zap.NewNop(), events), nil
	}
	t.Cleanup(func() { newApp = orig })
	return events
}

func TestRootCmd_ClosesServicesWhenCommandFails(t *testing.T) {
	events := stubServices(t)

	cmd, cleanup := newRootCmd()
	cmd.AddCommand(&cobra.Command{
		Use:  "always-fails",
		RunE: func(*cobra.Command, []string) error { return errors.New("run failed") },
	})
	cmd.SetArgs([]string{"always-fails"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	cleanup()

	require.Error(t, err)
	assert.True(t, events.Closed())
}

func TestRootCmd_ClosesServicesAfterSuccess(t *testing.T) {
	events := stubServices(t)

	cmd, cleanup := newRootCmd()
	cmd.AddCommand(&cobra.Command{
		Use:  "succeeds",
		RunE: func(*cobra.Command, []string) error { return nil },
	})
	cmd.SetArgs([]string{"succeeds"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	require.NoError(t, cmd.Execute())
	assert.False(t, events.Closed())
	cleanup()
	assert.True(t, events.Closed())
}
