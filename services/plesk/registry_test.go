package plesk

import (
	"context"
	"sync"
	"testing"

	"sslmanager-backend/lib/plesk"
	"sslmanager-backend/lib/testutil"
	"sslmanager-backend/services/plesk/db"

	"github.com/stretchr/testify/require"
)

func setupRegistry(t *testing.T) (*Registry, *fakePanel) {
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/plesk/registry",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)

	panel := newFakePanel(t)
	qry := db.New(result.DB)
	registry := NewRegistry(qry)
	registry.endpoint = func(string) string { return panel.srv.URL }

	err := qry.CreateConnection(context.Background(), db.CreateConnectionParams{
		Host:         testHost,
		FriendlyName: "staging panel",
		Login:        "admin",
		ApiKey:       "key-123",
		UseHttps:     true,
	})
	require.NoError(t, err)

	return registry, panel
}

func TestClientVerifiedOnceUnderConcurrency(t *testing.T) {
	registry, panel := setupRegistry(t)
	ctx := context.Background()

	const callers = 8
	clients := make([]*plesk.Client, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			clients[i], errs[i] = registry.Client(ctx, testHost)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	for i := 1; i < callers; i++ {
		require.Same(t, clients[0], clients[i])
	}
	require.Equal(t, 1, panel.count("<stat>"))
}

func TestClientUnknownHost(t *testing.T) {
	registry, _ := setupRegistry(t)

	_, err := registry.Client(context.Background(), "nowhere.invalid")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestEvictForcesRebuild(t *testing.T) {
	registry, panel := setupRegistry(t)
	ctx := context.Background()

	first, err := registry.Client(ctx, testHost)
	require.NoError(t, err)

	registry.Evict(testHost)

	second, err := registry.Client(ctx, testHost)
	require.NoError(t, err)
	require.NotSame(t, first, second)
	require.Equal(t, 2, panel.count("<stat>"))
}
