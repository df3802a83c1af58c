// Command mcp-reminder provides an MCP server over the vehicle reminder database.
//
// The server acts on behalf of a single owner (the Telegram chat ID set in
// mcp.owner_id) and shares the database with the bot.
//
// Usage:
//
//	./mcp-reminder                    # Start MCP server (stdio)
//	./mcp-reminder --config cfg.yaml  # Start with a config file
//	./mcp-reminder --help             # Show help
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/rturovtsev/vehicle-reminder/internal/config"
	"github.com/rturovtsev/vehicle-reminder/internal/mcpserver"
	"github.com/rturovtsev/vehicle-reminder/internal/service"
	"github.com/rturovtsev/vehicle-reminder/internal/status"
	"github.com/rturovtsev/vehicle-reminder/internal/storage"
)

func main() {
	configPath := flag.String("config", os.Getenv("VTRACK_CONFIG"), "path to YAML config file")
	flag.Usage = printHelp
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	if cfg.MCP.OwnerID == 0 {
		fmt.Fprintln(os.Stderr, "mcp.owner_id is required (set VTRACK_MCP_OWNER_ID)")
		os.Exit(1)
	}

	// stdout занят протоколом, логи только в stderr
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	db, err := storage.InitDB(cfg.Storage.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	svc := service.NewReminderService(storage.NewVehicleStore(db), storage.NewReminderStore(db),
		status.Engine{}, logger)
	s := mcpserver.NewServer(svc, cfg.MCP.OwnerID)

	if err := server.ServeStdio(s.MCPServer()); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`MCP Reminder Server - vehicle reminders via MCP protocol

USAGE:
    mcp-reminder [--config FILE]   Start MCP server (communicates via stdio)
    mcp-reminder --help            Show this help

ENVIRONMENT:
    VTRACK_CONFIG         Path to YAML config file
    VTRACK_STORAGE_PATH   Path to SQLite database file
    VTRACK_MCP_OWNER_ID   Telegram chat ID whose reminders are served (required)

TOOLS:
    list_vehicles      List vehicles
    list_reminders     List reminders sorted by urgency (optional vehicle_id)
    add_reminder       Add a reminder (vehicle_id, title, due_date, due_mileage, type, recurrence)
    complete_reminder  Mark a reminder as completed, creating the next occurrence if recurring
    reopen_reminder    Mark a reminder as not completed
    delete_reminder    Delete a reminder permanently`)
}
