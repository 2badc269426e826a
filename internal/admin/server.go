package admin

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/manifestd/internal/auth"
	"github.com/danmuck/manifestd/internal/logging"
	"github.com/danmuck/manifestd/internal/observability"
	"github.com/danmuck/manifestd/internal/tree"
	"github.com/danmuck/manifestd/internal/validate"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const Version = "0.1.0"

// Options wires the admin router to the running daemon.
type Options struct {
	Trees       *tree.Holder
	Engine      *validate.Engine
	CORSOrigins []string
	// Token, when set, is required as a bearer token on /validate and /query.
	Token string
}

// Admin serves health, metrics and read-only manifest endpoints over HTTP.
type Admin struct {
	trees    *tree.Holder
	engine   *validate.Engine
	token    auth.Validator
	router   *gin.Engine
	appeared time.Time
}

func New(opts Options) *Admin {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logging.For("admin")))
	r.Use(observability.RequestMetricsMiddleware())
	if origins := normalizeOrigins(opts.CORSOrigins); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	engine := opts.Engine
	if engine == nil {
		engine = validate.NewEngine(nil)
	}
	a := &Admin{
		trees:    opts.Trees,
		engine:   engine,
		router:   r,
		appeared: time.Now(),
	}
	if token := strings.TrimSpace(opts.Token); token != "" {
		a.token = auth.StaticToken{Token: token}
	}
	a.registerRoutes()
	return a
}

func (a *Admin) Handler() http.Handler {
	return a.router
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (a *Admin) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              strings.TrimSpace(addr),
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log := logging.For("admin")
		log.Info().Str("addr", srv.Addr).Msg("admin listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
