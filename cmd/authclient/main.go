package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-auth-client/account"
	"github.com/jrsteele09/go-auth-client/client"
	"github.com/jrsteele09/go-auth-client/internal/config"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/metrics"
	"github.com/jrsteele09/go-auth-client/routes"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/token/jwt"
	"github.com/jrsteele09/go-auth-client/transport"
	"github.com/jrsteele09/go-auth-client/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running client")
	}
	log.Info().Msg("Client stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load("")
	if err != nil {
		return err
	}
	setupLogging(c)
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	collector, err := metrics.New(registry)
	if err != nil {
		return fmt.Errorf("metrics.New: %w", err)
	}
	if addr := c.GetMetricsAddr(); addr != "" {
		server := &http.Server{Addr: addr, Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{})}
		go listenAndServe(server)
		defer shutdown(server)
	}

	store := session.NewStore(jwt.NewDecoder(jwt.WithExpirySkew(c.GetRefreshSkew())))
	opts := append(client.ConfigOptions(c), client.WithLogger(log.Logger), client.WithMetrics(collector))
	apiClient := client.New(store, transport.NewHTTP(c, log.Logger), opts...)
	accounts := account.NewService(apiClient)

	return exercise(ctx, c, accounts, apiClient)
}

// exercise signs in, exercises the session with concurrent requests and logs out again.
func exercise(ctx context.Context, c config.Config, accounts *account.Service, apiClient *client.Client) error {
	form := users.SignInForm{Email: c.GetEmail(), Password: c.GetPassword()}
	if err := accounts.SignIn(ctx, form); err != nil {
		if autherrors.Is(err, autherrors.ErrInvalidRequest) {
			log.Error().Msg("Set AUTH_EMAIL and AUTH_PASSWORD to a valid account")
		}
		return err
	}
	defer logout(accounts)

	user, _ := apiClient.Store().User()
	event := log.Info().Str("user", user.Username).Bool("admin", accounts.HasRole(users.RoleTenantAdmin))
	if tok, err := apiClient.Store().TokenSource().Token(); err == nil && !tok.Expiry.IsZero() {
		event = event.Time("expires", tok.Expiry)
	}
	event.Msg("Signed in")

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < c.GetParallelRequests(); i++ {
		g.Go(func() error {
			var me session.UserProfile
			return apiClient.Get(gctx, routes.RouteUsersMe, &me)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Int("requests", c.GetParallelRequests()).Msg("Profile requests completed")

	if c.GetMetricsAddr() != "" {
		log.Info().Str("addr", c.GetMetricsAddr()).Msg("Serving metrics until interrupted")
		<-ctx.Done()
	}
	return nil
}

func logout(accounts *account.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := accounts.Logout(ctx); err != nil {
		log.Warn().Err(err).Msg("Logout did not complete")
		return
	}
	log.Info().Msg("Logged out")
}

func setupLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Str("app", c.GetAppName()).Str("env", c.GetEnv()).Logger()
}

func listenAndServe(server *http.Server) {
	log.Info().Str("addr", server.Addr).Msg("Metrics listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server.Shutdown")
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
