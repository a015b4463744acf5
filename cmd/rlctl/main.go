// main.go - Admin control tool for Reactionlens
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reactionlens/internal"
	"reactionlens/internal/analytics"
	"reactionlens/internal/events"
	"reactionlens/internal/seeder"
)

const (
	defaultShutdownTimeout = 30 * time.Second
)

// Command defines the interface for all command implementations
type Command interface {
	// Name returns the command name
	Name() string
	// Description returns the command description
	Description() string
	// Execute runs the command with the given app and args
	Execute(ctx context.Context, app *internal.Application, args []string) error
}

// The set of available commands
var commands = []Command{
	&MigrateCommand{},
	&SeedCommand{},
	&AnalyzeCommand{},
	&StatusCommand{},
	&HelpCommand{},
}

func main() {
	flag.Parse()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, initiating cleanup...", sig)
		cancel()
	}()

	cmdName, args := parseArgs()

	cmd := findCommand(cmdName)
	if cmd == nil {
		showUsageAndExit()
	}

	app, err := internal.NewApp()
	if err != nil {
		log.Printf("Warning: Failed to initialize app: %v", err)
		log.Println("Proceeding with limited functionality...")
	}

	defer func() {
		if app != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
			defer cancel()
			if err := app.Shutdown(shutdownCtx); err != nil {
				log.Printf("Warning: Cleanup error: %v", err)
			}
		}
	}()

	if err := cmd.Execute(ctx, app, args); err != nil {
		log.Fatalf("Command failed: %v", err)
	}

	log.Printf("Command %s completed successfully", cmd.Name())
}

func parseArgs() (string, []string) {
	args := flag.Args()
	if len(args) == 0 {
		return "help", nil
	}
	return args[0], args[1:]
}

func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func showUsageAndExit() {
	fmt.Println("Usage: rlctl <command> [args]")
	fmt.Println("Commands:")
	for _, cmd := range commands {
		fmt.Printf("  %-12s %s\n", cmd.Name(), cmd.Description())
	}
	os.Exit(1)
}

// MigrateCommand runs the schema migrations
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs database migrations" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("cannot migrate: app initialization failed")
	}
	return app.DBManager.Migrate()
}

// SeedCommand creates a synthetic dataset
type SeedCommand struct{}

func (c *SeedCommand) Name() string        { return "seed" }
func (c *SeedCommand) Description() string { return "Creates a synthetic reaction dataset" }

func (c *SeedCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("cannot seed: app initialization failed")
	}
	if err := app.DBManager.Migrate(); err != nil {
		return fmt.Errorf("migration before seed failed: %w", err)
	}

	name := "Seeded Reactions"
	if len(args) >= 1 {
		name = args[0]
	}

	s := seeder.NewSeeder(app.DBManager.GetConnection(), app.Logger, 0, 0)
	ds, err := s.Seed(name)
	if err != nil {
		return err
	}
	fmt.Printf("Seeded dataset %s (%d rows, %s .. %s)\n", ds.PublicID, ds.RowCount, ds.FirstDay, ds.LastDay)
	return nil
}

// AnalyzeCommand runs the pipeline over a CSV file without touching storage
type AnalyzeCommand struct{}

func (c *AnalyzeCommand) Name() string        { return "analyze" }
func (c *AnalyzeCommand) Description() string { return "Analyzes a reaction CSV file and prints findings" }

func (c *AnalyzeCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s <file.csv>", c.Name())
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	header, rows, err := events.ReadCSV(f)
	if err != nil {
		return err
	}
	evs, report, err := events.Normalize(header, rows)
	if err != nil {
		return err
	}

	res := analytics.Process(evs, analytics.Options{})

	fmt.Printf("Rows: %d kept, %d dropped\n", report.KeptRows, report.DroppedRows)
	fmt.Printf("Days: %d (%s .. %s)\n", len(res.Days), first(res.Days), last(res.Days))
	fmt.Printf("Users: %d unique, %d repeaters\n", res.UniqueUsers, res.Repeaters)
	fmt.Printf("Trend: %s (%.1f%% change)\n", res.Trend.Direction, res.Trend.ChangePercent)
	fmt.Printf("Retention: D1 %.1f%%  D3 %.1f%%  D7 %.1f%%\n",
		res.Retention.D1*100, res.Retention.D3*100, res.Retention.D7*100)
	fmt.Println("Top insights:")
	for _, in := range res.TopRanked {
		fmt.Printf("  [%s] %s: %s\n", in.Priority, in.Title, in.Message)
	}
	return nil
}

func first(xs []string) string {
	if len(xs) == 0 {
		return "-"
	}
	return xs[0]
}

func last(xs []string) string {
	if len(xs) == 0 {
		return "-"
	}
	return xs[len(xs)-1]
}

// StatusCommand implements a command to check the system status
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Shows the current system status" }

func (c *StatusCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("cannot check status: app initialization failed")
	}

	db := app.DBManager.GetConnection()

	var datasetCount, eventCount int64
	if err := db.Model(&events.Dataset{}).Count(&datasetCount).Error; err != nil {
		return fmt.Errorf("failed to count datasets: %w", err)
	}
	if err := db.Model(&events.Event{}).Count(&eventCount).Error; err != nil {
		return fmt.Errorf("failed to count events: %w", err)
	}

	fmt.Printf("Environment: %s\n", app.Config.Environment)
	fmt.Printf("Database:    %s\n", app.Config.GetDatabasePath())
	fmt.Printf("Datasets:    %d\n", datasetCount)
	fmt.Printf("Events:      %d\n", eventCount)
	fmt.Printf("Jobs:        running=%v\n", app.Jobs.IsRunning())
	return nil
}

// HelpCommand prints usage
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows this help message" }

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fmt.Println("Usage: rlctl <command> [args]")
	fmt.Println("Commands:")
	for _, cmd := range commands {
		fmt.Printf("  %-12s %s\n", cmd.Name(), cmd.Description())
	}
	return nil
}
