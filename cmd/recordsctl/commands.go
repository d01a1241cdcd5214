package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/tbourn/unarchive-tracker/internal/config"
	"github.com/tbourn/unarchive-tracker/internal/domain"
	httpapi "github.com/tbourn/unarchive-tracker/internal/http"
	"github.com/tbourn/unarchive-tracker/internal/http/middleware"
	"github.com/tbourn/unarchive-tracker/internal/repo"
	"github.com/tbourn/unarchive-tracker/internal/services"
	"github.com/tbourn/unarchive-tracker/internal/sysutil"
	"github.com/tbourn/unarchive-tracker/internal/utils"
)

// cli carries the persistent flags shared by every subcommand.
type cli struct {
	envFile string
	actorID int64
	roles   string
	json    bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "recordsctl",
		Short: "Operate the unarchiving record tracker",
		Long: `recordsctl reads the same environment (and .env file) as the API server
and runs maintenance and reporting tasks directly against its database.

Every command acts as --actor-id with --roles and goes through the same
authorization rules as the HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&c.envFile, "env-file", ".env", "env file to load before the environment")
	pf.Int64Var(&c.actorID, "actor-id", 1, "user id the command acts as")
	pf.StringVar(&c.roles, "roles", "ADMIN", "comma-separated roles of the acting user")
	pf.BoolVar(&c.json, "json", false, "output JSON")

	root.AddCommand(
		c.overdueCmd(),
		c.urgentCmd(),
		c.statsCmd(),
		c.triageCmd(),
		c.restoreCmd(),
		c.purgeCmd(),
		c.purgeKeysCmd(),
		c.tokenCmd(),
	)
	return root
}

func (c *cli) actor() (domain.Actor, error) {
	if c.actorID <= 0 {
		return domain.Actor{}, errors.New("--actor-id must be a positive integer")
	}
	roles, unknown := domain.ParseRoles(strings.Split(c.roles, ","))
	if len(unknown) > 0 {
		return domain.Actor{}, fmt.Errorf("unknown roles: %s", strings.Join(unknown, ", "))
	}
	return domain.Actor{ID: c.actorID, Roles: roles}, nil
}

// withService opens the configured database, migrates it and hands fn a
// ready RecordService plus the acting user.
func (c *cli) withService(cmd *cobra.Command, fn func(context.Context, *services.RecordService, domain.Actor) error) error {
	cfg, err := config.LoadFile(c.envFile)
	if err != nil {
		return err
	}
	sysutil.ConfigureLogger(cmd.ErrOrStderr(), sysutil.FirstNonEmpty(os.Getenv("RECORDSCTL_LOG_LEVEL"), "warn"), true, "")

	a, err := c.actor()
	if err != nil {
		return err
	}
	db, err := repo.OpenDatabase(repo.Options{
		Driver: cfg.DB.Driver,
		Path:   cfg.DB.Path,
		DSN:    cfg.DB.DSN,
		Silent: true,
	})
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, httpapi.NewRecordService(db, cfg), a)
}

func (c *cli) overdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List open records past the return deadline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *services.RecordService, a domain.Actor) error {
				recs, err := svc.Overdue(ctx, a)
				if err != nil {
					return err
				}
				return c.printRecords(cmd.OutOrStdout(), recs)
			})
		},
	}
}

func (c *cli) urgentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "urgent",
		Short: "List open records flagged urgent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *services.RecordService, a domain.Actor) error {
				recs, err := svc.Urgent(ctx, a)
				if err != nil {
					return err
				}
				return c.printRecords(cmd.OutOrStdout(), recs)
			})
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var dates domain.DateRange
			var err error
			if dates.From, err = utils.OptionalTime(from, false); err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			if dates.To, err = utils.OptionalTime(to, true); err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			return c.withService(cmd, func(ctx context.Context, svc *services.RecordService, a domain.Actor) error {
				st, err := svc.Dashboard(ctx, a, dates)
				if err != nil {
					return err
				}
				return c.printStats(cmd.OutOrStdout(), st)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "request date lower bound (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "request date upper bound, inclusive (YYYY-MM-DD)")
	return cmd
}

func (c *cli) triageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "triage",
		Short: "List stored rows that cannot be loaded (ADMIN)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *services.RecordService, a domain.Actor) error {
				rows, err := svc.Triage(ctx, a)
				if err != nil {
					return err
				}
				return c.printTriage(cmd.OutOrStdout(), rows)
			})
		},
	}
}

func (c *cli) restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore a soft-deleted record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := utils.ParseID(args[0])
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *services.RecordService, a domain.Actor) error {
				rec, err := svc.Restore(ctx, a, id)
				if err != nil {
					return err
				}
				return c.printRecords(cmd.OutOrStdout(), []*domain.Record{rec})
			})
		},
	}
}

func (c *cli) purgeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "purge <id>",
		Short: "Permanently delete a record and its audit trail (ADMIN)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := utils.ParseID(args[0])
			if err != nil {
				return err
			}
			if !yes {
				return errors.New("purge cannot be undone; pass --yes to confirm")
			}
			return c.withService(cmd, func(ctx context.Context, svc *services.RecordService, a domain.Actor) error {
				if err := svc.HardDelete(ctx, a, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "record %d purged\n", id)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the permanent deletion")
	return cmd
}

func (c *cli) purgeKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-keys",
		Short: "Delete expired idempotency keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *services.RecordService, _ domain.Actor) error {
				n, err := svc.PurgeExpiredKeys(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d expired keys removed\n", n)
				return nil
			})
		},
	}
}

func (c *cli) tokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for --actor-id/--roles signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFile(c.envFile)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			a, err := c.actor()
			if err != nil {
				return err
			}
			now := time.Now()
			claims := jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			}
			tok, err := middleware.IssueToken([]byte(cfg.Auth.JWTSecret), a.ID, a.Roles.Strings(), claims)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}

func formatID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}
