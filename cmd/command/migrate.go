package command

import (
	"context"

	"lineup/queue-engine/internal/config"
	"lineup/queue-engine/internal/infra"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type MigrateCommand struct {
	Logger *log.Logger
}

func (cmd MigrateCommand) Command(ctx context.Context, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "run postgres migrations",
		ValidArgs: []string{"up", "down"},
		Args:      cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			cmd.main(cfg, ctx, args)
		},
	}
}

func (cmd MigrateCommand) main(cfg *config.Config, ctx context.Context, args []string) {
	psql, err := infra.NewPostgresClient(ctx, cfg.Database.Postgres, cmd.Logger)
	if err != nil {
		cmd.Logger.WithContext(ctx).Fatal(errors.Wrap(err, "migrate : failed to connect to postgresql"))
		return
	}
	defer func() {
		if err := psql.Close(); err != nil {
			cmd.Logger.WithContext(ctx).Warnf("migrate : failed to close postgresql: %v", err)
		}
	}()

	migrationCommand := args[0]
	switch migrationCommand {
	case "up":
		err = psql.MigrateUp(cfg.Database.Postgres.Database)
	case "down":
		err = psql.MigrateDown(cfg.Database.Postgres.Database)
	default:
		err = errors.Errorf("migration command : %s is not supported", migrationCommand)
	}
	if err != nil {
		cmd.Logger.WithContext(ctx).Fatal(err)
		return
	}

	cmd.Logger.WithContext(ctx).Infof("migrate %s: done", migrationCommand)
}
