package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/catalog-service/catalog/config"
)

func TestNewServer(t *testing.T) {
	t.Parallel()
	srv := NewServer(config.HTTPServer{Host: "127.0.0.1", Port: "8080"}, http.NotFoundHandler())
	require.Equal(t, "127.0.0.1:8080", srv.Addr())
	require.Equal(t, defaultReadTimeout, srv.httpServer.ReadTimeout)
	require.Equal(t, defaultWriteTimeout, srv.httpServer.WriteTimeout)

	srv = NewServer(config.HTTPServer{Host: "::1", Port: "9090", WriteTimeout: time.Minute}, http.NotFoundHandler())
	require.Equal(t, "[::1]:9090", srv.Addr())
	require.Equal(t, time.Minute, srv.httpServer.WriteTimeout)
}

func TestServer_RunStop(t *testing.T) {
	t.Parallel()
	srv := NewServer(config.HTTPServer{Host: "127.0.0.1", Port: "0"}, http.NotFoundHandler())
	done := make(chan error, 1)
	go func() { done <- srv.Run() }()

	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
