package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aman-source/voice-db/internal/config"
	"github.com/aman-source/voice-db/internal/embed"
	"github.com/aman-source/voice-db/internal/mcp"
	"github.com/aman-source/voice-db/internal/names"
	"github.com/aman-source/voice-db/internal/speaker"
	"github.com/aman-source/voice-db/internal/store"
	"github.com/aman-source/voice-db/internal/stt"
	"github.com/aman-source/voice-db/internal/transcript"
	"github.com/aman-source/voice-db/internal/version"
	"github.com/aman-source/voice-db/internal/web"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "voicedb",
	Short:   "Voiceprint identification and verification engine",
	Version: version.Full(),
	Long: `voicedb enrolls people from voice samples and identifies or verifies
speakers by cosine similarity over speaker embeddings.

It keeps a per-person centroid voiceprint, resolves misspelled names
against the registry, and can verify voice-authorized transactions by
combining speaker identification with speech-to-text.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("voicedb %s\n", version.Version)
		fmt.Printf("  commit:  %s\n", version.Commit)
		fmt.Printf("  built:   %s\n", version.Date)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize voicedb in the current directory",
	Long: `Initialize a new voicedb deployment in the current directory.
This creates a .voicedb directory with the configuration and data stores.`,
	RunE: runInit,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API or MCP server",
	Long: `Start the voicedb HTTP API, or with --mcp the Model Context Protocol
server on stdio for integration with AI assistants.`,
	RunE: runServe,
}

var enrollCmd = &cobra.Command{
	Use:   "enroll <name> <audio-file>...",
	Short: "Enroll voice samples for a person",
	Long: `Enroll one or more voice samples for a person. Three samples are
recommended so the centroid voiceprint averages out per-sample noise.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runEnroll,
}

var identifyCmd = &cobra.Command{
	Use:   "identify <audio-file>",
	Short: "Identify the speaker of an audio clip",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdentify,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <name> <audio-file>",
	Short: "Verify an audio clip against a claimed identity",
	Args:  cobra.ExactArgs(2),
	RunE:  runVerify,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Resolve a possibly misspelled name against the registry",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store status and enrolled speakers",
	RunE:  runStatus,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all voice profiles as YAML",
	Long: `Export every stored profile, including sample vectors and centroids,
as YAML on stdout. The dump is enough to rebuild the vector index from
scratch with 'voicedb rebuild'.`,
	RunE: runExport,
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the vector index from stored profiles",
	Long: `Re-insert every stored sample vector into the vector index and
recompute all centroids. Use this after switching index backends or
recovering from index loss; the profile store is the source of truth.`,
	RunE: runRebuild,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage voicedb configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	RunE:  runConfigShow,
}

func init() {
	rootCmd.SetVersionTemplate("voicedb version {{.Version}}\n")

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().Bool("offline", false, "use the deterministic offline embedder instead of the encoder service")

	serveCmd.Flags().IntP("port", "p", 0, "server port (overrides config)")
	serveCmd.Flags().String("host", "", "server host (overrides config)")
	serveCmd.Flags().Bool("mcp", false, "start MCP server on stdio instead of HTTP")

	statusCmd.Flags().StringP("format", "f", "default", "output format (default, json)")

	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(enrollCmd)
	rootCmd.AddCommand(identifyCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(configCmd)
}

// newLogger builds the process logger. Verbose mode lowers the level to debug.
func newLogger(cmd *cobra.Command) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// app bundles everything a command needs after opening the stores.
type app struct {
	cfg      *config.Config
	engine   *speaker.Engine
	provider embed.Provider
	resolver *names.Resolver
	index    store.VectorIndex
	profiles store.ProfileStore
	log      zerolog.Logger
}

func (a *app) Close() {
	if err := a.index.Close(); err != nil {
		a.log.Warn().Err(err).Msg("closing vector index")
	}
	if err := a.profiles.Close(); err != nil {
		a.log.Warn().Err(err).Msg("closing profile store")
	}
}

func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	log := newLogger(cmd)

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	index, profiles, err := store.Open(ctx, store.Options{
		Backend:        cfg.Store.Backend,
		ProfileBackend: cfg.Store.ProfileBackend,
		DataDir:        cfg.DataDir,
		Dim:            cfg.Embedding.Dimensions,
		Qdrant: store.QdrantConfig{
			Host:       cfg.Store.Qdrant.Host,
			Port:       cfg.Store.Qdrant.Port,
			APIKey:     cfg.Store.Qdrant.APIKey,
			UseTLS:     cfg.Store.Qdrant.UseTLS,
			Collection: cfg.Store.Qdrant.Collection,
		},
		Logger: log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open stores: %w", err)
	}

	var provider embed.Provider
	if offline, _ := cmd.Flags().GetBool("offline"); offline {
		provider = &embed.Static{Dims: cfg.Embedding.Dimensions}
	} else {
		provider = embed.NewHTTPProvider(embed.HTTPConfig{
			URL:        cfg.Embedding.URL,
			Dimensions: cfg.Embedding.Dimensions,
			Timeout:    cfg.Embedding.Timeout,
		})
	}

	return &app{
		cfg:      cfg,
		engine:   speaker.New(index, profiles, cfg.Embedding.Dimensions, log),
		provider: provider,
		resolver: names.NewResolver(profiles),
		index:    index,
		profiles: profiles,
		log:      log,
	}, nil
}

// newExtractor picks the transaction-info extractor from the config.
func newExtractor(ctx context.Context, cfg *config.Config, log zerolog.Logger) (transcript.Extractor, error) {
	if cfg.Extract.Provider == "gemini" && cfg.Extract.GeminiAPIKey != "" {
		return transcript.NewGemini(ctx, cfg.Extract.GeminiAPIKey, cfg.Extract.Model, log)
	}
	return transcript.Rules{}, nil
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	cfg := config.DefaultConfig()
	cfg.DataDir = filepath.Join(cwd, config.DefaultDataDir)
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := cfg.WriteDefaultConfig(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Initialized voicedb in %s\n", cfg.DataDir)
	fmt.Printf("  Vector backend: %s\n", cfg.Store.Backend)
	fmt.Printf("  Profile backend: %s\n", cfg.Store.ProfileBackend)
	fmt.Printf("  Encoder service: %s (%d dims)\n", cfg.Embedding.URL, cfg.Embedding.Dimensions)
	fmt.Printf("\nRun 'voicedb enroll <name> <audio>...' to register the first speaker.\n")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if mcpMode, _ := cmd.Flags().GetBool("mcp"); mcpMode {
		server := mcp.NewServer(mcp.ServerConfig{
			Engine:   a.engine,
			Provider: a.provider,
			Resolver: a.resolver,
			Logger:   a.log,
		})
		return server.Run(ctx)
	}

	host := a.cfg.Server.Host
	if h, _ := cmd.Flags().GetString("host"); h != "" {
		host = h
	}
	port := a.cfg.Server.Port
	if p, _ := cmd.Flags().GetInt("port"); p != 0 {
		port = p
	}

	var transcriber stt.Transcriber
	var extractor transcript.Extractor
	if a.cfg.STT.APIKey != "" {
		transcriber = stt.NewSarvamClient(stt.SarvamConfig{
			URL:          a.cfg.STT.URL,
			APIKey:       a.cfg.STT.APIKey,
			Model:        a.cfg.STT.Model,
			LanguageCode: a.cfg.STT.Language,
		})
		extractor, err = newExtractor(ctx, a.cfg, a.log)
		if err != nil {
			return fmt.Errorf("failed to create extractor: %w", err)
		}
	} else {
		a.log.Warn().Msg("no STT API key configured, transaction verification disabled")
	}

	server := web.NewServer(web.ServerConfig{
		Host:                 host,
		Port:                 port,
		Engine:               a.engine,
		Provider:             a.provider,
		Resolver:             a.resolver,
		Transcriber:          transcriber,
		Extractor:            extractor,
		MatchThreshold:       a.cfg.Thresholds.Match,
		TransactionThreshold: a.cfg.Thresholds.Transaction,
		Logger:               a.log,
	})
	return server.ListenAndServe()
}

func runEnroll(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	name := args[0]
	for _, path := range args[1:] {
		audio, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		vec, err := a.provider.Embed(ctx, audio)
		if err != nil {
			return fmt.Errorf("failed to embed %s: %w", path, err)
		}
		id, err := a.engine.Enroll(ctx, name, vec)
		if err != nil {
			return fmt.Errorf("failed to enroll %s: %w", path, err)
		}
		fmt.Printf("Enrolled %s as sample %s\n", path, id)
	}

	fmt.Printf("\n%d sample(s) enrolled for %q\n", len(args)-1, speaker.NormalizeName(name))
	return nil
}

func runIdentify(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	audio, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	vec, err := a.provider.Embed(ctx, audio)
	if err != nil {
		return fmt.Errorf("failed to embed audio: %w", err)
	}
	match, err := a.engine.Identify(ctx, vec)
	if err != nil {
		return fmt.Errorf("identification failed: %w", err)
	}

	if match.PersonName == "" {
		fmt.Println("No enrolled speaker matched this clip.")
		return nil
	}
	fmt.Printf("Best match: %s (confidence %.3f)\n", match.PersonName, match.Confidence)
	if match.Confidence < a.cfg.Thresholds.Match {
		fmt.Println("Confidence is below the match threshold; treat as uncertain.")
	}
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	audio, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[1], err)
	}
	vec, err := a.provider.Embed(ctx, audio)
	if err != nil {
		return fmt.Errorf("failed to embed audio: %w", err)
	}
	v, err := a.engine.Verify(ctx, vec, args[0])
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	if !v.Registered {
		fmt.Printf("%q is not a registered speaker.\n", speaker.NormalizeName(args[0]))
		return nil
	}
	fmt.Printf("Verification confidence for %q: %.3f\n", speaker.NormalizeName(args[0]), v.Confidence)
	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.resolver.Resolve(ctx, args[0])
	if err != nil {
		return fmt.Errorf("resolution failed: %w", err)
	}
	if !res.Found {
		fmt.Printf("No registered speaker matches %q.\n", args[0])
		return nil
	}
	fmt.Printf("%q resolves to %q\n", args[0], res.CanonicalName)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.engine.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	if format, _ := cmd.Flags().GetString("format"); format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Printf("Index backend:   %s\n", stats.IndexBackend)
	fmt.Printf("Stored profiles: %d\n", stats.ProfileCount)
	fmt.Printf("Speakers:        %d\n", len(stats.Speakers))
	for _, name := range stats.Speakers {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

// exportedProfile is the YAML shape of one stored record.
type exportedProfile struct {
	ID          string    `yaml:"id"`
	PersonName  string    `yaml:"person_name"`
	Vector      []float32 `yaml:"vector,flow"`
	IsCentroid  bool      `yaml:"is_centroid,omitempty"`
	SampleCount int       `yaml:"sample_count,omitempty"`
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	registered, err := a.profiles.ListNames(ctx)
	if err != nil {
		return fmt.Errorf("failed to list speakers: %w", err)
	}

	var out []exportedProfile
	for _, name := range registered {
		samples, err := a.profiles.ListByName(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to list samples for %q: %w", name, err)
		}
		for _, p := range samples {
			out = append(out, exportedProfile{
				ID:         p.ID,
				PersonName: p.PersonName,
				Vector:     p.Vector,
			})
		}
		if centroid, err := a.profiles.Get(ctx, speaker.CentroidID(name)); err == nil {
			out = append(out, exportedProfile{
				ID:          centroid.ID,
				PersonName:  centroid.PersonName,
				Vector:      centroid.Vector,
				IsCentroid:  true,
				SampleCount: centroid.SampleCount,
			})
		}
	}

	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	return enc.Encode(out)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	registered, err := a.profiles.ListNames(ctx)
	if err != nil {
		return fmt.Errorf("failed to list speakers: %w", err)
	}

	var inserted int
	for _, name := range registered {
		samples, err := a.profiles.ListByName(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to list samples for %q: %w", name, err)
		}
		for _, p := range samples {
			if err := a.index.Insert(ctx, p.ID, p.Vector); err != nil {
				return fmt.Errorf("failed to insert sample %s: %w", p.ID, err)
			}
			inserted++
		}
		if err := a.engine.RefreshCentroid(ctx, name); err != nil {
			return fmt.Errorf("failed to refresh centroid for %q: %w", name, err)
		}
	}
	if err := a.index.Flush(); err != nil {
		return fmt.Errorf("failed to flush index: %w", err)
	}

	fmt.Printf("Rebuilt index: %d sample vectors, %d centroids\n", inserted, len(registered))
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}
