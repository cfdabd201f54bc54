// Command sweeper deletes expired session documents from the retrieval
// indexes. It is meant to be run from cron.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Itish41/EmployeeCounsel/initializers"
	model "github.com/Itish41/EmployeeCounsel/models"
	"github.com/Itish41/EmployeeCounsel/provider"
	services "github.com/Itish41/EmployeeCounsel/service"
	"github.com/spf13/cobra"
)

var (
	envFile  string
	indexIDs []string
	timeout  time.Duration
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "sweeper",
	Short:         "Garbage-collect expired documents from retrieval indexes",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := initializers.LoadEnv(envFile); err != nil {
			log.Printf("[WARN] %s, using process environment", err)
		}
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete every entry whose expiresAt has passed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := initializers.MustLoad()
		lifecycle := newLifecycle(cfg)

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		var results []model.SweepResult
		failed := 0
		for _, id := range targetIndexes(cfg) {
			res, err := lifecycle.SweepExpired(ctx, id)
			if err != nil {
				log.Printf("[GC] sweep of %s failed: %v", id, err)
				failed++
				continue
			}
			results = append(results, res)
		}
		if err := printJSON(cmd, results); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d index sweeps failed", failed)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Count entries, expired entries and entries without expiry",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := initializers.MustLoad()
		lifecycle := newLifecycle(cfg)

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		now := time.Now()
		type indexStatus struct {
			IndexID      string `json:"index_id"`
			Entries      int    `json:"entries"`
			Expired      int    `json:"expired"`
			NoExpiry     int    `json:"no_expiry"`
			NotCompleted int    `json:"not_completed"`
		}
		var out []indexStatus
		for _, id := range targetIndexes(cfg) {
			docs, err := lifecycle.ListEntries(ctx, id)
			if err != nil {
				return err
			}
			st := indexStatus{IndexID: id, Entries: len(docs)}
			for _, d := range docs {
				switch {
				case d.ExpiresAt == nil:
					st.NoExpiry++
				case d.IsExpired(now):
					st.Expired++
				}
				if d.IndexingStatus != model.StatusCompleted {
					st.NotCompleted++
				}
			}
			out = append(out, st)
		}
		return printJSON(cmd, out)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "env file to load")
	rootCmd.PersistentFlags().StringSliceVar(&indexIDs, "index", nil, "index id to process (default: USER_INDEX_ID)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "overall timeout")
	rootCmd.AddCommand(sweepCmd, statusCmd)
}

func newLifecycle(cfg initializers.Config) *services.IndexLifecycleService {
	store := provider.NewOpenAIStore(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, nil)
	lifecycle := services.NewIndexLifecycleService(store, store)
	if cfg.DatabaseURL != "" {
		db, err := initializers.ConnectDB(cfg.DatabaseURL, false)
		if err != nil {
			log.Printf("[WARN] %s, document rows will not be cleaned up", err)
		} else {
			lifecycle.Repo = services.NewGormDocumentRepository(db)
		}
	}
	return lifecycle
}

func targetIndexes(cfg initializers.Config) []string {
	if len(indexIDs) > 0 {
		return indexIDs
	}
	return []string{cfg.UserIndexID}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
