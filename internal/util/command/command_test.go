package command_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/SafeMPC/custody-engine/internal/api"
	"github.com/SafeMPC/custody-engine/internal/config"
	"github.com/SafeMPC/custody-engine/internal/util/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithServer(t *testing.T) {
	t.Setenv("CUSTODY_KEYSTORE_ALLOW_SOFTWARE_FALLBACK", "true")
	t.Setenv("CUSTODY_KEYSTORE_PATH", filepath.Join(t.TempDir(), "keystore.json"))
	t.Setenv("CUSTODY_STORAGE_BACKEND", "memory")

	ctx := t.Context()

	var testError = errors.New("test error")

	cfg := config.DefaultServiceConfigFromEnv()
	resultErr := command.WithServer(ctx, cfg, func(ctx context.Context, s *api.Server) error {
		require.True(t, s.Ready())

		set, err := s.PinAuth.IsPinSet(ctx)
		require.NoError(t, err)
		assert.False(t, set)

		return testError
	})

	assert.Equal(t, testError, resultErr)
}
