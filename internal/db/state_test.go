//go:build integration

package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/raphaelgruber/knowbot/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *Client

// TestMain starts a SurrealDB container shared by every test in the package.
func TestMain(m *testing.M) {
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v2.3.7",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	if host == "" || host == "null" {
		host = "localhost"
	}
	port, err := container.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, port.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.WipeData(ctx))

	_, err := testDB.Get(ctx, state.KeyConversations)
	assert.True(t, errors.Is(err, state.ErrNotFound))

	value := []byte(`[{"id":"1","title":"PTO Policy Inquiry","createdAt":1,"lastUpdated":2}]`)
	require.NoError(t, testDB.Put(ctx, state.KeyConversations, value))

	got, err := testDB.Get(ctx, state.KeyConversations)
	require.NoError(t, err)
	assert.JSONEq(t, string(value), string(got))
}

func TestStateOverwriteAndDelete(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.WipeData(ctx))

	require.NoError(t, testDB.Put(ctx, state.KeyIsAuthenticated, []byte("true")))
	require.NoError(t, testDB.Put(ctx, state.KeyUserEmail, []byte(`"a@example.com"`)))
	require.NoError(t, testDB.Put(ctx, state.KeyUserEmail, []byte(`"b@example.com"`)))

	got, err := testDB.Get(ctx, state.KeyUserEmail)
	require.NoError(t, err)
	assert.Equal(t, `"b@example.com"`, string(got))

	require.NoError(t, testDB.Delete(ctx, state.KeyUserEmail))
	_, err = testDB.Get(ctx, state.KeyUserEmail)
	assert.True(t, errors.Is(err, state.ErrNotFound))

	require.NoError(t, testDB.Delete(ctx, "missing"))
}
