package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lithammer/dedent"
	"github.com/raine/facegrade/internal/analyzer"
	"github.com/raine/facegrade/internal/auth"
	"github.com/raine/facegrade/internal/config"
	"github.com/raine/facegrade/internal/history"
	"github.com/raine/facegrade/internal/storage"
	"github.com/raine/facegrade/internal/vision"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var usage = dedent.Dedent(`
	usage: facegrade <command> [args]

	commands:
	  analyze <image...>         analyze one or more photos (file path or URL)
	  latest                     show the most recent saved result for your scope
	  history                    list locally cached results, newest first
	  stats                      show local history statistics
	  clear-history              delete the local history cache
	  signup <email> <password>  create an account and sign in
	  login <email> <password>   sign in
	  logout                     sign out
	  whoami                     show the signed-in identity
`)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	config.LoadEnvFile()

	logWriter, closeLog, err := newLogWriter(os.Getenv(config.EnvLogFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	log.Logger = log.Output(logWriter)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := runCommand(ctx, os.Args[1], os.Args[2:]); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

// newLogWriter returns the console log writer, mirrored into logPath when
// one is configured. The second return value closes the log file.
func newLogWriter(logPath string) (io.Writer, func(), error) {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr}
	if logPath == "" {
		return consoleWriter, func() {}, nil
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	fileWriter := zerolog.ConsoleWriter{Out: logFile, NoColor: true}
	return io.MultiWriter(consoleWriter, fileWriter), func() { logFile.Close() }, nil
}

func runCommand(ctx context.Context, command string, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	switch command {
	case "analyze":
		return app.cmdAnalyze(ctx, args)
	case "latest":
		return app.cmdLatest(ctx)
	case "history":
		return app.cmdHistory()
	case "stats":
		return app.cmdStats()
	case "clear-history":
		return app.cmdClearHistory()
	case "signup":
		return app.cmdSignUp(args)
	case "login":
		return app.cmdLogin(args)
	case "logout":
		return app.cmdLogout()
	case "whoami":
		return app.cmdWhoami()
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command: %s", command)
	}
}

type app struct {
	store   *storage.SQLiteStore
	auth    *auth.Service
	history *history.Cache
	service *analyzer.Service
}

func newApp() (*app, error) {
	dbPath, err := config.DBPath()
	if err != nil {
		return nil, err
	}
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	historyPath, err := config.HistoryPath()
	if err != nil {
		store.Close()
		return nil, err
	}
	cache := history.NewCache(historyPath)
	if err := cache.Load(); err != nil {
		log.Warn().Err(err).Msg("failed to load history cache")
	}

	a := &app{store: store, history: cache}

	// Auth is optional: without a token key everything runs anonymously
	if tokenKey := os.Getenv(config.EnvTokenKey); tokenKey != "" {
		sessionPath, err := config.SessionPath()
		if err != nil {
			store.Close()
			return nil, err
		}
		a.auth = auth.NewService(store, tokenKey, sessionPath)
	}

	// The oracle is attached lazily by cmdAnalyze; the other commands never
	// call it and must work without API credentials
	a.service = analyzer.NewService(nil, store, identityProvider(a.auth), cache)
	return a, nil
}

// identityProvider avoids putting a typed nil into the interface field.
func identityProvider(svc *auth.Service) analyzer.IdentityProvider {
	if svc == nil {
		return nil
	}
	return svc
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close store")
	}
}

func newOracle(ctx context.Context) (vision.Analyzer, error) {
	if missing := config.CheckRequiredConfig(); len(missing) > 0 {
		return nil, fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	model := os.Getenv(config.EnvModel)
	switch config.Provider() {
	case config.ProviderGemini:
		return vision.NewGeminiAnalyzer(ctx, os.Getenv(config.EnvGeminiKey), model)
	case config.ProviderOpenAI:
		return vision.NewOpenAIAnalyzer(os.Getenv(config.EnvOpenAIKey), model)
	default:
		return nil, fmt.Errorf("unknown provider: %s", config.Provider())
	}
}

func (a *app) cmdAnalyze(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: facegrade analyze <image...>")
	}

	oracle, err := newOracle(ctx)
	if err != nil {
		return err
	}
	a.service = analyzer.NewService(oracle, a.store, identityProvider(a.auth), a.history)

	stopProgress := showProgress(a.service)
	results, err := a.service.AnalyzeBatch(ctx, args)
	stopProgress()
	if err != nil {
		return err
	}

	for i, result := range results {
		printResult(args[i], result)
	}
	return nil
}

func (a *app) cmdLatest(ctx context.Context) error {
	result, err := a.service.FetchLatest(ctx)
	if err != nil {
		return err
	}
	if result == nil {
		fmt.Println("no saved analyses yet")
		return nil
	}
	printResult("", result)
	return nil
}

func (a *app) cmdHistory() error {
	items := a.history.Items()
	if len(items) == 0 {
		fmt.Println("history is empty")
		return nil
	}
	for _, item := range items {
		when := time.UnixMilli(item.Timestamp).Format("2006-01-02 15:04")
		fmt.Printf("%s  %.1f %-12s %s\n", when, item.Result.OverallScore, item.Result.OverallRating, item.ImageURI)
	}
	return nil
}

func (a *app) cmdStats() error {
	stats := a.history.Stats()
	fmt.Printf("analyses:      %d\n", stats.Count)
	if stats.Count > 0 {
		fmt.Printf("average score: %.1f\n", stats.AverageScore)
	}
	fmt.Printf("last 7 days:   %d\n", stats.LastWeek)
	return nil
}

func (a *app) cmdClearHistory() error {
	if err := a.history.Clear(); err != nil {
		return err
	}
	fmt.Println("history cleared")
	return nil
}

func (a *app) requireAuth() error {
	if a.auth == nil {
		return fmt.Errorf("%s is not set; accounts are disabled", config.EnvTokenKey)
	}
	return nil
}

func (a *app) cmdSignUp(args []string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("usage: facegrade signup <email> <password>")
	}
	identity, err := a.auth.SignUp(args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("signed up and logged in as %s\n", identity.Email)
	return nil
}

func (a *app) cmdLogin(args []string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("usage: facegrade login <email> <password>")
	}
	identity, err := a.auth.SignIn(args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s\n", identity.Email)
	return nil
}

func (a *app) cmdLogout() error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	if err := a.auth.SignOut(); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func (a *app) cmdWhoami() error {
	if a.auth == nil {
		fmt.Println("anonymous (accounts disabled)")
		return nil
	}
	identity := a.auth.CurrentIdentity()
	if identity == nil {
		fmt.Println("not logged in")
		return nil
	}
	fmt.Printf("%s (id %s)\n", identity.Email, identity.ID)
	return nil
}
