// Package di wires infrastructure, the cart usecase and the HTTP surface.
// Pure DI: build deps only, no routing branching.
package di

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	httpin "mallcart/internal/adapters/in/http"
	"mallcart/internal/adapters/in/http/handlers"
	"mallcart/internal/adapters/in/http/middleware"
	kvfs "mallcart/internal/adapters/out/keyvalue/firestore"
	kvmem "mallcart/internal/adapters/out/keyvalue/memory"
	kvpg "mallcart/internal/adapters/out/keyvalue/postgres"
	usecase "mallcart/internal/application/usecase"
	kv "mallcart/internal/domain/keyvalue"
	"mallcart/internal/infra/config"
	"mallcart/internal/infra/database"
	firestoreinfra "mallcart/internal/infra/firestore"
)

// Container holds everything main needs to serve requests.
type Container struct {
	Config *config.Config
	Store  kv.Store
	CartUC *usecase.CartUsecase

	// FirebaseAuth is nil when no Firebase project is configured; all
	// callers are then anonymous.
	FirebaseAuth *middleware.FirebaseAuthClient

	closers []io.Closer
}

// New builds the container: config, store backend, usecase, auth verifier.
func New(ctx context.Context) (*Container, error) {
	cfg := config.Load()

	c := &Container{Config: cfg}

	store, err := c.buildStore(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Store = store
	c.CartUC = usecase.NewCartUsecase(store, cfg.CachePrefix)

	if cfg.FirebaseProjectID != "" {
		auth, err := buildFirebaseAuth(ctx, cfg)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.FirebaseAuth = auth
	} else {
		log.Println("[di] no firebase project configured; all callers resolve as anonymous")
	}

	return c, nil
}

func (c *Container) buildStore(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	switch cfg.CacheBackend {
	case config.BackendMemory:
		log.Println("[di] cache backend: memory")
		return kvmem.New(), nil

	case config.BackendPostgres:
		password, err := cfg.ResolveDBPassword(ctx)
		if err != nil {
			return nil, err
		}
		db, err := database.NewConnection(cfg.DBHost, cfg.DBPort, cfg.DBUser, password, cfg.DBName)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, db)

		store := kvpg.New(db.Client)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		log.Println("[di] cache backend: postgres")
		return store, nil

	case config.BackendFirestore:
		fs, err := firestoreinfra.NewClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, fs)
		log.Println("[di] cache backend: firestore")
		return kvfs.New(fs.Client), nil

	default:
		return nil, fmt.Errorf("di: unknown cache backend %q", cfg.CacheBackend)
	}
}

func buildFirebaseAuth(ctx context.Context, cfg *config.Config) (*middleware.FirebaseAuthClient, error) {
	var opts []option.ClientOption
	if cfg.FirestoreCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirestoreCredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("di: init firebase app: %w", err)
	}
	auth, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("di: init firebase auth: %w", err)
	}
	log.Printf("[di] firebase auth ready (project: %s)", cfg.FirebaseProjectID)
	return auth, nil
}

// Handler builds the full middleware chain around the router.
func (c *Container) Handler() http.Handler {
	router := httpin.NewRouter(httpin.Deps{
		Cart:     handlers.NewCartHandler(c.CartUC),
		Coupon:   handlers.NewCouponHandler(c.CartUC),
		Store:    handlers.NewStoreHandler(c.CartUC),
		Transfer: handlers.NewTransferHandler(c.CartUC),
	})

	ident := &middleware.Identity{
		FirebaseAuth: c.FirebaseAuth,
		TrustProxy:   c.Config.TrustProxy,
	}

	var h http.Handler = ident.Handler(router)
	h = middleware.RequestID(h)
	h = middleware.Recover(h)
	h = middleware.CORS(c.Config.AllowedOrigin)(h)
	return h
}

// Close releases infra clients. Safe to call on a partially built container.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			log.Printf("[di] close: %v", err)
		}
	}
	c.closers = nil
}
