package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/auth"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/cloud"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/config"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/database"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/repository"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/service"
)

func main() {
	root := &cobra.Command{
		Use:           "pumpctl",
		Short:         "Administrative tasks for the pump monitoring backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err := config.Load(); err != nil {
				return err
			}
			config.SetupLogging()
			return nil
		},
	}
	root.AddCommand(migrateCmd(), seedAdminCmd(), archiveCmd(), listArchivesCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("pumpctl")
		stop()
		os.Exit(1)
	}
}

func withDB(ctx context.Context, fn func(context.Context, *sqlx.DB) error) error {
	db, err := database.Connect()
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(ctx, db)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), func(ctx context.Context, db *sqlx.DB) error {
				if err := database.Migrate(ctx, db); err != nil {
					return err
				}
				log.Info().Msg("schema applied")
				return nil
			})
		},
	}
}

func seedAdminCmd() *cobra.Command {
	var username, email, password, fullName string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create or reset the admin role and an admin user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if username == "" || password == "" {
				return errors.New("--username and --password are required")
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			return withDB(cmd.Context(), func(ctx context.Context, db *sqlx.DB) error {
				repos := repository.New(db)
				desc := "Full access"
				if err := repos.UpsertRole(ctx, domain.Role{ID: domain.AdminRole, Name: "Administrator", Description: &desc}); err != nil {
					return fmt.Errorf("upsert admin role: %w", err)
				}
				role := domain.AdminRole
				u := &domain.User{Username: username, Email: email, PasswordHash: hash, Role: &role}
				if fullName != "" {
					u.FullName = &fullName
				}
				if err := repos.UpsertUser(ctx, u); err != nil {
					return fmt.Errorf("upsert admin user: %w", err)
				}
				log.Info().Str("username", username).Int64("id", u.ID).Msg("admin ready")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	cmd.Flags().StringVar(&fullName, "full-name", "", "display name")
	return cmd
}

func archiveCmd() *cobra.Command {
	var serial string
	var days int
	var presign time.Duration
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Export a device's raw telemetry to S3",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if serial == "" {
				return errors.New("--device is required")
			}
			ctx := cmd.Context()
			s3c, err := cloud.NewS3Client(ctx, config.AWSRegion(), config.S3Bucket())
			if err != nil {
				return err
			}
			return withDB(ctx, func(ctx context.Context, db *sqlx.DB) error {
				svc := service.NewArchiveService(repository.New(db), s3c)
				res, err := svc.Archive(ctx, serial, days)
				if err != nil {
					return err
				}
				ev := log.Info().Str("key", res.Key).Int("samples", res.Samples)
				if presign > 0 {
					url, err := s3c.PresignDownload(ctx, res.Key, presign)
					if err != nil {
						return err
					}
					ev = ev.Str("url", url)
				}
				ev.Msg("archive uploaded")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&serial, "device", "", "device serial")
	cmd.Flags().IntVar(&days, "days", 30, "days of telemetry to export")
	cmd.Flags().DurationVar(&presign, "presign", 0, "also print a download link valid for this long")
	return cmd
}

func listArchivesCmd() *cobra.Command {
	var serial string
	cmd := &cobra.Command{
		Use:   "archives",
		Short: "List uploaded telemetry archives",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s3c, err := cloud.NewS3Client(ctx, config.AWSRegion(), config.S3Bucket())
			if err != nil {
				return err
			}
			prefix := "telemetry/"
			if serial != "" {
				prefix += serial + "/"
			}
			keys, err := s3c.ListArchives(ctx, prefix)
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&serial, "device", "", "only archives of this device serial")
	return cmd
}
