package chainstore

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeUntilDone(t *testing.T) {
	server := &http.Server{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- serveUntilDone(ctx, server)
	}()

	select {
	case <-done:
		t.Fatal("returned before the context was cancelled")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("did not return after the context was cancelled")
	}

	// The server no longer accepts work.
	assert.ErrorIs(t, server.ListenAndServe(), http.ErrServerClosed)
}
