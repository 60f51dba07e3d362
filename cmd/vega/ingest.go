package main

import (
	"fmt"
	"time"

	"github.com/karanvs/vega/internal/data"
	"github.com/karanvs/vega/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	ingestCSVDir   string
	ingestDB       string
	ingestInterval string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [symbol...]",
	Short: "Import CSV bar files into the SQLite store",
	Long:  "Read <dir>/<SYMBOL>.csv for each symbol and upsert the bars into the SQLite database",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestCSVDir, "csv-dir", "historical_data", "Directory holding <SYMBOL>.csv files")
	ingestCmd.Flags().StringVar(&ingestDB, "db", "vega.db", "SQLite database path")
	ingestCmd.Flags().StringVar(&ingestInterval, "interval", "1day", "Bar interval to record")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	csv := data.NewCSVProvider(ingestCSVDir, log)

	db, err := data.NewSQLiteProvider(ingestDB, log)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	// Unbounded range: take everything the file has.
	start := time.Time{}
	end := time.Now().AddDate(100, 0, 0)

	for _, symbol := range args {
		bars, err := csv.Load(cmd.Context(), symbol, start, end, ingestInterval)
		if err != nil {
			return fmt.Errorf("loading %s: %w", symbol, err)
		}
		if len(bars) == 0 {
			log.Warn("no bars found", zap.String("symbol", symbol))
			continue
		}
		if err := db.SaveBars(cmd.Context(), bars); err != nil {
			return fmt.Errorf("saving %s: %w", symbol, err)
		}
		fmt.Printf("%s: %d bars ingested\n", symbol, len(bars))
	}

	return nil
}
