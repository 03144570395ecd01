package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-gold/internal/config"
	"github.com/joeblew999/plat-gold/internal/layers"
	"github.com/joeblew999/plat-gold/internal/logging"
	"github.com/joeblew999/plat-gold/internal/mining"
	"github.com/joeblew999/plat-gold/internal/observability"
	"github.com/joeblew999/plat-gold/internal/publish"
	"github.com/joeblew999/plat-gold/internal/region"
	"github.com/joeblew999/plat-gold/internal/server"
	"github.com/joeblew999/plat-gold/internal/service"
)

// Options defines all CLI flags and env vars for the gold dashboard.
// Flags: --host, --port, --data-dir, --seed, --source, ...
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, SERVICE_SEED, ...
type Options struct {
	Host            string `doc:"Host to bind to" default:"0.0.0.0"`
	Port            int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir         string `doc:"Directory for DuckDB, tiles and layer settings" default:".data"`
	Seed            int    `doc:"Seed for the mock data generator" default:"42"`
	Source          string `doc:"Dataset source: mock or table" default:"mock"`
	GeneratorConfig string `doc:"YAML file overriding generator ranges"`
	NatsURL         string `doc:"NATS server URL for change events (empty disables)"`
	LogLevel        string `doc:"Log level: debug, info, warn, error" default:"info"`
	LogFormat       string `doc:"Log format: text or json" default:"text"`
	Tracing         bool   `doc:"Export spans to stdout"`
	CorsOrigins     string `doc:"Comma-separated allowed CORS origins" default:"*"`
	TemplatesDir    string `doc:"Re-read dashboard templates from this directory on each page load"`
}

type app struct {
	opts      *Options
	log       logging.Logger
	generator mining.Config
	origin    service.Origin
}

func setup(opts *Options) (*app, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, err
	}
	log := logging.New(logging.Config{Level: opts.LogLevel, Format: opts.LogFormat})
	if opts.Seed < 0 {
		return nil, fmt.Errorf("seed must not be negative, got %d", opts.Seed)
	}
	gen, err := config.LoadGeneratorConfig(opts.GeneratorConfig)
	if err != nil {
		return nil, err
	}
	origin, err := service.ParseOrigin(opts.Source)
	if err != nil {
		return nil, err
	}
	return &app{opts: opts, log: log, generator: gen, origin: origin}, nil
}

func (a *app) newServer(ctx context.Context, noDB bool) (*server.Server, error) {
	return server.New(ctx, server.Config{
		Host:        a.opts.Host,
		Port:        fmt.Sprintf("%d", a.opts.Port),
		DataDir:     a.opts.DataDir,
		Source:      a.origin,
		Seed:        uint64(a.opts.Seed),
		Generator:   a.generator,
		NoDB:        noDB && a.origin == service.OriginMock,
		NATSURL:     a.opts.NatsURL,
		CORSOrigins: splitList(a.opts.CorsOrigins),
		Log:         a.log,

		TemplatesDir: a.opts.TemplatesDir,
	})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func serve(a *app) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{Enabled: a.opts.Tracing}, a.log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, a.log)

	srv, err := a.newServer(ctx, false)
	if err != nil {
		return err
	}
	defer srv.Close()
	go srv.Run(ctx)

	addr := fmt.Sprintf("%s:%d", a.opts.Host, a.opts.Port)
	displayHost := a.opts.Host
	if displayHost == "0.0.0.0" {
		displayHost = "localhost"
	}
	baseURL := fmt.Sprintf("http://%s:%d", displayHost, a.opts.Port)

	fmt.Println()
	fmt.Printf("plat-gold dashboard starting...\n")
	fmt.Printf("  Server:    %s\n", baseURL)
	fmt.Printf("  Data:      %s (source: %s, seed: %d)\n", a.opts.DataDir, a.origin, a.opts.Seed)
	fmt.Println()
	fmt.Printf("  Dashboard: %s/dashboard\n", baseURL)
	fmt.Printf("  Docs:      %s/docs\n", baseURL)
	fmt.Printf("  OpenAPI:   %s/openapi.json\n", baseURL)
	fmt.Printf("  Metrics:   %s/metrics\n", baseURL)
	fmt.Println()

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info(context.Background(), "shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutCtx)
}

// writeGeoJSON writes one <layer>.geojson per layer into dir, or a single
// object keyed by layer id to stdout when dir is empty.
func writeGeoJSON(ds mining.Dataset, dir string) error {
	all := make(map[layers.ID]json.RawMessage)
	for _, id := range layers.IDs() {
		kind, _ := id.Kind()
		raw, err := json.MarshalIndent(ds.FeatureCollection(kind), "", "  ")
		if err != nil {
			return fmt.Errorf("marshal %s: %w", id, err)
		}
		if dir == "" {
			all[id] = raw
			continue
		}
		file := filepath.Join(dir, string(id)+".geojson")
		if err := os.WriteFile(file, raw, 0644); err != nil {
			return err
		}
		fmt.Printf("  %-28s %5d features  %s\n", id, ds.Count(kind), file)
	}
	if dir != "" {
		return nil
	}
	out, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// withOptions adapts an error-returning command to humacli's option
// binding, so deferred cleanup runs before the error reaches cobra.
func withOptions(fn func(cmd *cobra.Command, opts *Options) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		var err error
		humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			err = fn(cmd, opts)
		})(cmd, args)
		return err
	}
}

func runSpec(cmd *cobra.Command, opts *Options) error {
	a, err := setup(opts)
	if err != nil {
		return err
	}
	a.log = logging.Noop()
	srv, err := a.newServer(cmdContext(cmd), true)
	if err != nil {
		return err
	}
	defer srv.Close()
	spec := srv.OpenAPI()

	useYAML, _ := cmd.Flags().GetBool("yaml")

	var output []byte
	if useYAML {
		output, err = yaml.Marshal(spec)
	} else {
		output, err = json.MarshalIndent(spec, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal spec: %w", err)
	}
	fmt.Println(string(output))
	return nil
}

func runGenerate(cmd *cobra.Command, opts *Options) error {
	a, err := setup(opts)
	if err != nil {
		return err
	}
	if tmpl, _ := cmd.Flags().GetBool("config-template"); tmpl {
		out, err := config.MarshalGeneratorConfig(a.generator)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	}
	ds, err := mining.Generate(region.Regions(), mining.NewSource(uint64(opts.Seed)), a.generator)
	if err != nil {
		return err
	}
	outDir, _ := cmd.Flags().GetString("out")
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return err
		}
	}
	return writeGeoJSON(ds, outDir)
}

func runTiles(cmd *cobra.Command, opts *Options) error {
	a, err := setup(opts)
	if err != nil {
		return err
	}
	ctx := cmdContext(cmd)
	srv, err := a.newServer(ctx, true)
	if err != nil {
		return err
	}
	defer srv.Close()

	minZoom, _ := cmd.Flags().GetInt("min-zoom")
	maxZoom, _ := cmd.Flags().GetInt("max-zoom")
	bucket, _ := cmd.Flags().GetString("bucket")

	var pub *publish.Publisher
	if bucket != "" {
		awsRegion, _ := cmd.Flags().GetString("region")
		prefix, _ := cmd.Flags().GetString("prefix")
		pub, err = publish.NewS3(ctx, publish.Options{Bucket: bucket, Region: awsRegion, Prefix: prefix}, a.log)
		if err != nil {
			return err
		}
	}

	svc := srv.Services()
	data := svc.Dataset.Dataset()
	for _, id := range layers.IDs() {
		file, err := svc.Tiles.Export(ctx, data, service.ExportOptions{
			Layer:   string(id),
			MinZoom: minZoom,
			MaxZoom: maxZoom,
		}, nil)
		if err != nil {
			return fmt.Errorf("export %s: %w", id, err)
		}
		fmt.Printf("  %-40s %s\n", file.Name, file.Size)
		if pub == nil {
			continue
		}
		path, err := svc.Tiles.Path(file.Name)
		if err != nil {
			return err
		}
		url, err := pub.Upload(ctx, path)
		if err != nil {
			return err
		}
		fmt.Printf("    -> %s\n", url)
	}
	return nil
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		hooks.OnStart(func() {
			a, err := setup(opts)
			if err == nil {
				err = serve(a)
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		})
	})

	cli.Root().Use = "goldmap"
	cli.Root().Short = "Ghana gold-mining dashboard: mock data, map layers and PMTiles"
	cli.Root().Version = "0.1.0"
	cli.Root().SilenceUsage = true

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		RunE:  withOptions(runSpec),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// generate subcommand: dump the mock dataset as GeoJSON
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the mock dataset and print or write it as GeoJSON",
		RunE:  withOptions(runGenerate),
	}
	generateCmd.Flags().StringP("out", "o", "", "Write one <layer>.geojson per layer into this directory")
	generateCmd.Flags().Bool("config-template", false, "Print the effective generator config as YAML and exit")
	cli.Root().AddCommand(generateCmd)

	// tiles subcommand: export every layer to PMTiles, optionally to S3
	tilesCmd := &cobra.Command{
		Use:   "tiles",
		Short: "Export every layer to PMTiles (--bucket uploads to S3)",
		RunE:  withOptions(runTiles),
	}
	tilesCmd.Flags().Int("min-zoom", 4, "Minimum zoom level")
	tilesCmd.Flags().Int("max-zoom", 10, "Maximum zoom level")
	tilesCmd.Flags().String("bucket", "", "S3 bucket to publish archives to")
	tilesCmd.Flags().String("region", "", "AWS region of the bucket")
	tilesCmd.Flags().String("prefix", "tiles", "Key prefix inside the bucket")
	cli.Root().AddCommand(tilesCmd)

	cli.Run()
}
