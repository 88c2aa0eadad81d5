package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8083", cfg.Port)
	require.Equal(t, "badger", cfg.StoreDriver)
	require.Equal(t, "main", cfg.RoomListName)
	require.Equal(t, "global", cfg.UserListName)
	require.Equal(t, "general", cfg.DefaultPublicRoom)
	require.Equal(t, "kevin", cfg.DefaultOwnerAlias)
}

func TestLoadRejectsUnknownStoreDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "cassandra")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "postgres", cfg.StoreDriver)
}
