package http

import (
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/parley-chat/parley-server/internal/auth"
	"github.com/parley-chat/parley-server/internal/config"
	"github.com/parley-chat/parley-server/internal/core"
	"github.com/parley-chat/parley-server/internal/media"
	"github.com/parley-chat/parley-server/internal/store"
	"github.com/parley-chat/parley-server/internal/store/memory"
)

type testEnv struct {
	ts        *httptest.Server
	store     store.Store
	auth      *auth.Service
	registry  *core.Registry
	broadcast *core.BroadcastRouter
	private   *core.PrivateRouter
	directory *core.Directory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zerolog.Nop()

	cfg := config.Default()
	cfg.MediaDir = t.TempDir()
	cfg.JWTSecret = "test-secret-change-me"

	st := memory.New()
	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})

	blobs, err := media.NewDiskStore(cfg.MediaDir, cfg.MediaBaseURL)
	if err != nil {
		t.Fatalf("media store: %v", err)
	}

	registry := core.NewRegistry(st, &logger)
	directory := core.NewDirectory(st)
	routers := Routers{
		Registry:  registry,
		Broadcast: core.NewBroadcastRouter(registry, st, &logger),
		Private:   core.NewPrivateRouter(directory, st, &logger),
		Pager:     core.NewPager(st, st),
		Directory: directory,
	}

	server := NewServer(routers, authService, st, blobs, &cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{
		ts:        ts,
		store:     st,
		auth:      authService,
		registry:  registry,
		broadcast: routers.Broadcast,
		private:   routers.Private,
		directory: directory,
	}
}
