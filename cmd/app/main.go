// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"codeberg.org/oliverandrich/shopdesk/internal/config"
	"codeberg.org/oliverandrich/shopdesk/internal/server"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// A .env file is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("failed to load .env: %v", err)
	}

	cmd := &cli.Command{
		Name:    "shopdesk",
		Usage:   "Shop back office with role based access control",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags:   config.Flags(),
		Action:  server.Run,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server",
				Action: server.Run,
			},
			{
				Name:      "approve",
				Usage:     "Approve an account waiting for manual approval",
				ArgsUsage: "<account-id>",
				Action:    approve,
			},
			{
				Name:   "create-admin",
				Usage:  "Create an admin account from --admin-username, --admin-email and --admin-password",
				Action: createAdmin,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func approve(ctx context.Context, cmd *cli.Command) error {
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("approve expects a numeric account id, got %q", cmd.Args().First())
	}

	s, err := server.FromCLI(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close(ctx) }()

	if err := s.Auth().Approve(ctx, id); err != nil {
		return fmt.Errorf("failed to approve account %d: %w", id, err)
	}
	fmt.Printf("account %d approved\n", id)
	return nil
}

func createAdmin(ctx context.Context, cmd *cli.Command) error {
	username, password := cmd.String("admin-username"), cmd.String("admin-password")
	if username == "" || password == "" {
		return errors.New("create-admin needs --admin-username and --admin-password")
	}

	s, err := server.FromCLI(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close(ctx) }()

	account, err := s.Auth().CreateAdmin(ctx, username, cmd.String("admin-email"), password)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	fmt.Printf("admin %q created with id %d\n", account.Username, account.ID)
	return nil
}
