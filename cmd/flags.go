// flags.go defines global CLI flags, shared state, and output helpers.
//
// Flags are package-level variables bound to the root command; commands read
// them directly. The out writer is swappable so tests can capture output.

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/phuslu/log"

	"github.com/vellumdb/vellum/internal/blob"
	"github.com/vellumdb/vellum/internal/config"
	"github.com/vellumdb/vellum/internal/embedder"
	"github.com/vellumdb/vellum/internal/engine"
	"github.com/vellumdb/vellum/internal/store"
)

var (
	output  string
	user    string
	dbPath  string
	force   bool
	verbose bool
)

// out is the output writer for commands. Tests replace it to capture output.
var out io.Writer = os.Stdout

// loadedConfig is populated by the root PersistentPreRunE.
var loadedConfig = &config.Config{}

// svc is the shared engine instance, opened lazily for store commands.
var svc *engine.Service

// SetOut sets the output writer (for testing).
func SetOut(w io.Writer) { out = w }

// JSON reports whether JSON output is requested.
func JSON() bool { return output == "json" }

// PrintJSON marshals v and writes it when JSON output is requested.
func PrintJSON(v any) error {
	if !JSON() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(out, string(b))
	return nil
}

// repoDir returns the repository directory holding database and blobs.
func repoDir() string {
	return ".vellum"
}

// databasePath resolves the database file location.
// Priority: --db flag > VELLUM_DB env var > .vellum/vellum.db.
func databasePath() string {
	if dbPath != "" {
		return dbPath
	}
	if p := os.Getenv("VELLUM_DB"); p != "" {
		return p
	}
	return filepath.Join(repoDir(), "vellum.db")
}

// blobDir resolves the blob storage root.
func blobDir() string {
	if loadedConfig.BlobDir != "" {
		return loadedConfig.BlobDir
	}
	return filepath.Join(repoDir(), "blobs")
}

// openService opens the store and builds the engine. Fails when the
// repository has not been initialised.
func openService() error {
	if svc != nil {
		return nil
	}
	path := databasePath()
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no repository at %s (run: vellum init)", path)
	}

	st, err := store.Open(path)
	if err != nil {
		return err
	}
	if err := st.Init(); err != nil {
		st.Close()
		return err
	}
	blobs, err := blob.NewFSStore(blobDir())
	if err != nil {
		st.Close()
		return err
	}

	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	embed, err := embedder.NewHashing(384)
	if err != nil {
		st.Close()
		return err
	}
	svc = engine.New(st, blobs,
		engine.WithLogger(log.Logger{Level: level, Writer: &log.ConsoleWriter{Writer: os.Stderr}}),
		engine.WithLimits(loadedConfig.MaxPath(), loadedConfig.MaxContent()),
		engine.WithEmbedder(embed),
	)
	return nil
}

func closeService() {
	if svc != nil {
		// Fold the WAL back into the main file so the database is a single
		// file between runs.
		if err := svc.Store().Checkpoint(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
		if err := svc.Store().Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing store: %v\n", err)
		}
		svc = nil
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&output, "output", "o", "", "output format (json)")
	pf.StringVarP(&user, "user", "u", "", "acting user (default from config)")
	pf.StringVar(&dbPath, "db", "", "database file (default .vellum/vellum.db)")
	pf.BoolVarP(&force, "force", "f", false, "skip safety checks")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}
