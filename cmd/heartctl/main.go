// heartctl manages a local inspection session and runs the risk engine
// over property documents from the command line.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/swassyman/heart/internal/app"
	"github.com/swassyman/heart/internal/config"
	"github.com/swassyman/heart/internal/contracts"
	"github.com/swassyman/heart/internal/query"
	"github.com/swassyman/heart/internal/risk"
	"github.com/swassyman/heart/internal/session"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, config.Load()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

const usage = `heartctl manages a local session and inspects property risk.

Usage:
  heartctl login --role ROLE --name NAME [--id ID]
  heartctl whoami
  heartctl logout
  heartctl properties
  heartctl aggregate --file PROPERTY.json

Global flags:
`

type options struct {
	sessionDir string
	riskConfig string
	role       string
	name       string
	id         string
	file       string
}

func run(ctx context.Context, args []string, stdout io.Writer, cfg config.Config) error {
	var opts options
	flagSet := pflag.NewFlagSet("heartctl", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&opts.sessionDir, "session-dir", defaultSessionDir(), "directory holding the session token")
	flagSet.StringVar(&opts.riskConfig, "risk-config", cfg.RiskConfigPath, "YAML file overriding risk weights and thresholds")
	flagSet.StringVar(&opts.role, "role", "", "BUYER, BUILDER or INSPECTOR (login)")
	flagSet.StringVar(&opts.name, "name", "", "display name (login)")
	flagSet.StringVar(&opts.id, "id", "", "user id, generated when empty (login)")
	flagSet.StringVarP(&opts.file, "file", "f", "", "property JSON document (aggregate)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprint(stdout, usage+flagSet.FlagUsages())
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() == 0 {
		fmt.Fprint(stdout, usage+flagSet.FlagUsages())
		return nil
	}
	if flagSet.NArg() > 1 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(1))
	}
	cfg.RiskConfigPath = opts.riskConfig

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	sess, closeSession, err := openSession(ctx, cfg, opts.sessionDir, logger)
	if err != nil {
		return err
	}
	defer closeSession()

	switch cmd := flagSet.Arg(0); cmd {
	case "login":
		role, err := contracts.ParseRole(opts.role)
		if err != nil {
			return err
		}
		user, err := sess.Login(ctx, role, opts.name, opts.id)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "logged in as %s (%s, id %s)\n", user.Name, user.Role, user.ID)
		return nil

	case "logout":
		return sess.Logout(ctx)

	case "whoami":
		user, ok, err := sess.Restore(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(stdout, "not logged in")
			return nil
		}
		fmt.Fprintf(stdout, "%s (%s, id %s)\n", user.Name, user.Role, user.ID)
		return nil

	case "properties":
		user, ok, err := sess.Restore(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("not logged in")
		}
		return listProperties(ctx, cfg, user, stdout, logger)

	case "aggregate":
		return aggregate(cfg, opts.file, stdout)

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func defaultSessionDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".heart"
	}
	return filepath.Join(dir, "heart")
}

// openSession keeps the token in Redis when REDIS_URL is set and in a
// file under dir otherwise.
func openSession(ctx context.Context, cfg config.Config, dir string, logger *slog.Logger) (*session.Session, func(), error) {
	if cfg.RedisURL == "" {
		return session.New(session.NewFileStore(dir), logger), func() {}, nil
	}
	client, err := session.OpenRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	store := session.NewRedisStore(client, "", 24*time.Hour)
	return session.New(store, logger), func() { _ = client.Close() }, nil
}

func listProperties(ctx context.Context, cfg config.Config, user contracts.User, stdout io.Writer, logger *slog.Logger) error {
	store, closeStore, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	engine, err := app.NewEngine(cfg)
	if err != nil {
		return err
	}
	svc := query.NewService(store, engine, query.WithLogger(logger))
	if err := app.SeedIfEmpty(ctx, svc, store, logger); err != nil {
		return err
	}

	props, err := svc.GetProperties(ctx, user)
	if err != nil {
		return err
	}
	for _, p := range props {
		fmt.Fprintf(stdout, "%-6s %6.2f  %s\n", p.ID, p.RiskScore, p.Address)
	}
	return nil
}

func aggregate(cfg config.Config, path string, stdout io.Writer) error {
	if path == "" {
		return errors.New("aggregate requires --file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	var p contracts.Property
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	riskCfg, err := config.LoadRiskConfig(cfg.RiskConfigPath)
	if err != nil {
		return err
	}
	engine, err := risk.NewEngine(riskCfg)
	if err != nil {
		return err
	}
	result, err := engine.Aggregate(p)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
