package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rpcpool/inferencestore/cachestore"
	"github.com/rpcpool/inferencestore/dispatcher"
	"github.com/rpcpool/inferencestore/rpcproto"
)

func newService(t *testing.T, mode dispatcher.Mode) *Service {
	t.Helper()
	infer, err := cachestore.OpenInferStore(t.TempDir())
	require.NoError(t, err)
	cfg, err := cachestore.OpenConfigStore(t.TempDir())
	require.NoError(t, err)
	return &Service{Dispatcher: &dispatcher.Dispatcher{Mode: mode, Infer: infer, Configs: cfg}}
}

func TestServerLiveAndReady(t *testing.T) {
	s := newService(t, dispatcher.ModeServe)

	live, err := s.ServerLive(context.Background(), &rpcproto.ServerLiveRequest{})
	require.NoError(t, err)
	assert.True(t, live.Live)

	ready, err := s.ServerReady(context.Background(), &rpcproto.ServerReadyRequest{})
	require.NoError(t, err)
	assert.True(t, ready.Ready)
}

func TestModelReadyReflectsModeAndStoreContents(t *testing.T) {
	serve := newService(t, dispatcher.ModeServe)
	resp, err := serve.ModelReady(context.Background(), &rpcproto.ModelReadyRequest{Name: "m", Version: "1"})
	require.NoError(t, err)
	assert.False(t, resp.Ready, "serve mode with an empty store has nothing to answer with")

	collect := newService(t, dispatcher.ModeCollect)
	resp2, err := collect.ModelReady(context.Background(), &rpcproto.ModelReadyRequest{Name: "m", Version: "1"})
	require.NoError(t, err)
	assert.True(t, resp2.Ready, "collect mode can always fall back to upstream")
}

func TestModelInferDelegatesToDispatcher(t *testing.T) {
	s := newService(t, dispatcher.ModeServe)
	_, err := s.ModelInfer(context.Background(), &rpcproto.ModelInferRequest{ModelName: "m", ModelVersion: "1"})
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestAdminRPCsAreUnimplemented(t *testing.T) {
	s := newService(t, dispatcher.ModeServe)
	_, err := s.RepositoryIndex(context.Background(), &rpcproto.RepositoryIndexRequest{})
	require.Error(t, err)
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}
