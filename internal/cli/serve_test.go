package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestServe_StopsOnCancel(t *testing.T) {
	rt := newRuntime(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, rt, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServe_ListenError(t *testing.T) {
	rt := newRuntime(t, nil)
	err := Serve(context.Background(), rt, "not-an-address")
	assert.ErrorContains(t, err, "server error")
}
