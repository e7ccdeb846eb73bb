package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/atinyakov/parol/internal/config"
	"github.com/atinyakov/parol/internal/models"
	"github.com/atinyakov/parol/internal/storage"
)

func newBenchCmd(a *app) *cobra.Command {
	var records, rounds int
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure save and load throughput on a scratch database",
		Long: `Fill a scratch database with generated records and time repeated
save/load cycles. The real database is never touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if records < 0 || rounds <= 0 {
				return fmt.Errorf("records must be >= 0 and rounds > 0")
			}
			dir, err := os.MkdirTemp("", "parol-bench-")
			if err != nil {
				return fmt.Errorf("create scratch dir: %w", err)
			}
			defer os.RemoveAll(dir)

			store, err := storage.New(filepath.Join(dir, config.DefaultDatabaseFile), storage.WithLogger(a.log.Log))
			if err != nil {
				return err
			}

			c := models.NewCollection()
			for i := 0; i < records; i++ {
				c.Push(models.NewRecordWithFields(
					fmt.Sprintf("app-%d", i), "bench", uuid.NewString(), "generated",
				))
			}
			pw := uuid.NewString()[:32]

			ctx, cancel := a.withTimeout(cmd)
			defer cancel()

			var saveTotal, loadTotal time.Duration
			for i := 0; i < rounds; i++ {
				start := time.Now()
				if err := store.Save(ctx, c, pw); err != nil {
					return err
				}
				saveTotal += time.Since(start)

				start = time.Now()
				loaded, err := store.Load(ctx, pw)
				if err != nil {
					return err
				}
				loadTotal += time.Since(start)
				if loaded.Len() != c.Len() {
					return fmt.Errorf("round %d: loaded %d records, saved %d", i, loaded.Len(), c.Len())
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "records: %d, rounds: %d\n", records, rounds)
			fmt.Fprintf(out, "save: %v total, %v/round\n", saveTotal, saveTotal/time.Duration(rounds))
			fmt.Fprintf(out, "load: %v total, %v/round\n", loadTotal, loadTotal/time.Duration(rounds))
			return nil
		},
	}
	cmd.Flags().IntVarP(&records, "records", "n", 100_000, "number of generated records")
	cmd.Flags().IntVarP(&rounds, "rounds", "r", 100, "save/load cycles")
	return cmd
}
