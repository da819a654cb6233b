// ABOUTME: Entry point for the contactmerge CLI and MCP server
// ABOUTME: Loads env and config, opens the database and routes to subcommands
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/harperreed/contactmerge/cli"
	"github.com/harperreed/contactmerge/config"
	"github.com/harperreed/contactmerge/db"
)

const version = "0.1.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/contactmerge/contactmerge.db)")
	configPath := flag.String("config", "", "Config file (default: ~/.config/contactmerge/config.json)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")

	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("contactmerge version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "contactmerge",
	})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if err := config.LoadEnv(); err != nil {
		logger.Fatal("failed to load .env", "err", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := args[0]
	commandArgs := args[1:]

	env := &cli.Env{Config: cfg, Logger: logger, Out: os.Stdout}

	// Commands that never touch the database
	switch command {
	case "auth":
		exitOn(logger, cli.AuthCommand(ctx, os.Stdout, commandArgs))
		return
	case "normalize":
		exitOn(logger, cli.NormalizeCommand(env, commandArgs))
		return
	case "plan":
		exitOn(logger, cli.PlanCommand(ctx, env, os.Stdin, commandArgs))
		return
	case "snapshots":
		exitOn(logger, runSnapshots(env, commandArgs))
		return
	}

	finalDBPath := *dbPath
	if finalDBPath == "" {
		finalDBPath = db.DefaultPath()
	}
	database, err := db.OpenDatabase(finalDBPath)
	if err != nil {
		logger.Fatal("failed to open database", "path", finalDBPath, "err", err)
	}
	defer func() { _ = database.Close() }()
	logger.Debug("opened database", "path", finalDBPath)
	env.DB = database

	switch command {
	case "dedupe":
		err = cli.DedupeCommand(ctx, env, commandArgs)
	case "status":
		err = cli.StatusCommand(env, commandArgs)
	case "mcp":
		err = cli.MCPCommand(ctx, env, version)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		_ = database.Close()
		os.Exit(1)
	}

	if err != nil {
		_ = database.Close()
		logger.Fatal("command failed", "command", command, "err", err)
	}
}

func runSnapshots(env *cli.Env, args []string) error {
	if len(args) > 0 && args[0] == "link" {
		return cli.SnapshotsLinkCommand(env, args[1:])
	}

	store, err := cli.OpenSnapshots(env)
	if err != nil {
		return err
	}
	return cli.SnapshotsCommand(env, store, args)
}

func exitOn(logger *log.Logger, err error) {
	if err != nil {
		logger.Fatal("command failed", "err", err)
	}
}

func printUsage() {
	fmt.Printf(`contactmerge v%s - Google Contacts deduplication

USAGE:
  contactmerge [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/contactmerge/contactmerge.db)
  --config <path>        Config file (default: ~/.config/contactmerge/config.json)
  --verbose              Enable debug logging

COMMANDS:
  auth                   Authorize access to Google Contacts
    --no-browser            Print the consent URL only
    --timeout <duration>    How long to wait for consent (default: 5m)

  dedupe                 Merge duplicate contacts
    --dry-run               Plan and report without writing
    --review                Pick groups interactively before applying
    --graph <file>          Write the merge plan as DOT
    --no-snapshots          Do not save originals to Charm KV

  plan <file|->          Plan merges for a JSON export of contacts
    --graph <file>          Write the merge plan as DOT

  normalize phone <number>...    Print normalized phone numbers
  normalize address <address>    Print the comparison form of an address

  status                 Show sync state and recent runs
    --runs <n>              Number of runs to list (default: 10)

  snapshots [run-id]     List runs with snapshots, or one run's contacts
  snapshots show <run-id> <resource>   Print one saved contact as JSON
  snapshots prune --confirm <run-id>   Delete a run's snapshots
  snapshots sync         Sync snapshots with the Charm server
  snapshots link         Link this device to a Charm account

  mcp                    Start MCP server for Claude Desktop

EXAMPLES:
  # Preview what would be merged
  contactmerge dedupe --dry-run --graph plan.dot

  # Review groups, then merge
  contactmerge dedupe --review

  # Check a number
  contactmerge normalize phone "06 12 34 56 78"

`, version)
}
