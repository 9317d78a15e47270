// Command loom is a thin collaborator around the engine package: it wires
// a store backend from the environment, loads a definition or an
// injection bundle from a file, and drives a single execute-or-update
// call. It owns no business logic of its own.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	loom "github.com/xraph/loom"
	"github.com/xraph/loom/definition"
	"github.com/xraph/loom/engine"
	"github.com/xraph/loom/handler/builtin"
	"github.com/xraph/loom/store"
	"github.com/xraph/loom/store/file"
	storemongo "github.com/xraph/loom/store/mongo"
	"github.com/xraph/loom/tree"
)

// Exit codes, per the CLI's documented surface: any validation or runtime
// failure exits 1.
const (
	exitSuccess = 0
	exitFailure = 1
)

var (
	flagLog       string
	flagFile      string
	flagID        string
	flagRewind    int
	flagDelete    string
	flagDeleteAll bool
)

var rootCmd = &cobra.Command{
	Use:          "loom",
	Short:        "Run and inspect loom workflow instances",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&flagLog, "log", "info", "log level: debug, verbose, info, warn, error")
	rootCmd.Flags().StringVar(&flagFile, "file", "", "path to a workflow definition or, combined with --id, an injection bundle")
	rootCmd.Flags().StringVar(&flagID, "id", "", "instance id; required together with --file to resume a paused instance")
	rootCmd.Flags().IntVar(&flagRewind, "rewind", 0, "retrieve a historical save point N steps back")
	rootCmd.Flags().StringVar(&flagDelete, "delete", "", "remove one instance by id")
	rootCmd.Flags().BoolVar(&flagDeleteAll, "deleteALL", false, "remove every instance")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitFailure)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := loom.LoadConfigFromEnv()
	if flagLog != "" {
		cfg.LogLevel = flagLog
	}

	s, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("loom: open store: %w", err)
	}
	defer closeStore(ctx)

	eng, err := engine.New(
		engine.WithStore(s),
		engine.WithHandler("log", builtin.Log),
	)
	if err != nil {
		return fmt.Errorf("loom: build engine: %w", err)
	}
	eng.SetLogLevel(cfg.LogLevel)

	if err := eng.Init(ctx); err != nil {
		return fmt.Errorf("loom: init store: %w", err)
	}
	defer eng.Close(ctx)

	result, err := dispatch(ctx, eng)
	if err != nil {
		return err
	}

	if result != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("loom: encode result: %w", err)
		}
	}

	return nil
}

// dispatch inspects the flag combination and performs exactly one of:
// delete all, delete one, inspect (get), resume (update), or run
// (execute). It returns the instance to print, or nil when nothing is
// printable (the delete paths).
func dispatch(ctx context.Context, eng *engine.Engine) (*tree.WorkflowInstance, error) {
	switch {
	case flagDeleteAll:
		return nil, eng.DeleteAll(ctx)

	case flagDelete != "":
		return nil, eng.Delete(ctx, flagDelete)

	case flagID != "" && flagFile != "":
		tasks, err := loadInjection(flagFile)
		if err != nil {
			return nil, err
		}

		return eng.Update(ctx, flagID, tasks)

	case flagID != "":
		return eng.Get(ctx, flagID, flagRewind)

	case flagFile != "":
		def, err := definition.Load(flagFile)
		if err != nil {
			return nil, err
		}

		inst := &tree.WorkflowInstance{
			Name:         def.Name,
			Tasks:        def.Tasks,
			Order:        def.Order,
			PreWorkflow:  def.PreWorkflow,
			PostWorkflow: def.PostWorkflow,
		}

		return eng.Execute(ctx, inst)

	default:
		return nil, fmt.Errorf("loom: one of --file, --id, --delete, or --deleteALL is required")
	}
}

// loadInjection reads a task-name-to-patch bundle, auto-detecting format
// from path's extension the same way definition.Load does.
func loadInjection(path string) (map[string]*tree.Task, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loom: read %s: %w", path, err)
	}

	tasks := make(map[string]*tree.Task)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(raw, &tasks); err != nil {
			return nil, fmt.Errorf("loom: parse %s as yaml: %w", path, err)
		}
	default:
		if err := json.Unmarshal(raw, &tasks); err != nil {
			return nil, fmt.Errorf("loom: parse %s as json: %w", path, err)
		}
	}

	return tasks, nil
}

// openStore builds the backend named by cfg.DBType and returns a closer
// to release any connection it opened.
func openStore(ctx context.Context, cfg loom.Config) (store.Store, func(context.Context), error) {
	switch cfg.DBType {
	case loom.DBTypeDocument:
		return openMongoStore(ctx, cfg)

	case loom.DBTypeFile:
		return file.New(cfg.DBDir), func(context.Context) {}, nil

	default:
		return nil, nil, fmt.Errorf("loom: unknown DB_TYPE %q", cfg.DBType)
	}
}

func openMongoStore(ctx context.Context, cfg loom.Config) (store.Store, func(context.Context), error) {
	host := cfg.DBHost
	if host == "" {
		host = "localhost"
	}

	port := cfg.DBPort
	if port == "" {
		port = "27017"
	}

	uri := fmt.Sprintf("mongodb://%s:%s", host, port)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongod.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("loom: connect to %s: %w", uri, err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, nil, fmt.Errorf("loom: ping %s: %w", uri, err)
	}

	s := storemongo.New(client.Database("loom"))

	closer := func(ctx context.Context) {
		_ = client.Disconnect(ctx)
	}

	return s, closer, nil
}
