package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vivetti/salesdesk-backend/internal/users"
	"github.com/vivetti/salesdesk-backend/pkg/config"
	"github.com/vivetti/salesdesk-backend/pkg/db"
	"github.com/vivetti/salesdesk-backend/pkg/logger"
	"github.com/vivetti/salesdesk-backend/pkg/security"
)

const (
	passwordEnv        = "SALESDESK_USERADD_PASSWORD"
	tempPasswordLength = 16
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "useradd"})

	_ = godotenv.Load()

	username := flag.String("username", "", "operator username (case-insensitive)")
	role := flag.String("role", "agent", "operator role: admin|agent")
	agentID := flag.String("agent", "", "agent id the operator reports sales under (required for agents)")
	displayName := flag.String("name", "", "display name shown on quotes")
	disabled := flag.Bool("disabled", false, "create or update the account as inactive")
	passwordStdin := flag.Bool("password-stdin", false, "read the password from the first line of stdin")
	generate := flag.Bool("generate-password", false, "generate a temporary password and print it once")
	flag.Parse()

	password, err := readPassword(*passwordStdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading password: %v\n", err)
		os.Exit(1)
	}
	if *generate {
		if password != "" {
			fmt.Fprintln(os.Stderr, "-generate-password cannot be combined with a supplied password")
			os.Exit(1)
		}
		if password, err = security.GenerateTempPassword(tempPasswordLength); err != nil {
			fmt.Fprintf(os.Stderr, "generating password: %v\n", err)
			os.Exit(1)
		}
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "useradd",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	provisioner, err := users.NewProvisioner(users.NewRepository(dbClient.DB()), cfg.Password)
	requireResource(ctx, logg, "provisioner", err)

	result, err := provisioner.Provision(ctx, users.ProvisionInput{
		Username:    *username,
		Password:    password,
		DisplayName: *displayName,
		Role:        *role,
		AgentID:     *agentID,
		Disabled:    *disabled,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "provisioning %q failed: %v\n", *username, err)
		os.Exit(1)
	}

	action := "updated"
	if result.Created {
		action = "created"
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"username": result.Operator.Username,
		"role":     result.Operator.Role,
		"action":   action,
	}), "operator provisioned")
	fmt.Printf("%s operator %s (%s)\n", action, result.Operator.Username, result.Operator.ID)
	if *generate {
		fmt.Printf("temporary password: %s\n", password)
	}
}

// readPassword prefers stdin when asked, then the environment. Empty keeps the current hash on update.
func readPassword(fromStdin bool) (string, error) {
	if !fromStdin {
		return os.Getenv(passwordEnv), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
