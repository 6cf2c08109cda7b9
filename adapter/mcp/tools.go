package mcp

import (
	"errors"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/moodlens/adapter/cli"
)

// errNoJournal is returned by journal tools when no database is wired.
var errNoJournal = errors.New("journal tools require a database connection")

// ToolDependencies provides handlers and context for MCP tools.
type ToolDependencies struct {
	App *cli.App
}

// RegisterCLITools registers MCP tools that mirror CLI functionality.
func RegisterCLITools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.App == nil {
		return errors.New("app is required")
	}

	if err := registerMoodTools(srv, deps); err != nil {
		return err
	}
	if err := registerJournalTools(srv, deps); err != nil {
		return err
	}

	return nil
}
