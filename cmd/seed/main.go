package main

import (
	"fmt"
	"os"

	"keja/internal/config"
	"keja/internal/db"
	"keja/internal/seed"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create sample landlords and property listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			migrate, _ := cmd.Flags().GetBool("migrate")

			cfg := config.LoadConfig()
			cfg.ConfigureLogging()

			fixture, err := loadFixture(file)
			if err != nil {
				return err
			}

			conn, err := db.Open(cfg)
			if err != nil {
				return err
			}
			if migrate {
				if err := db.Migrate(conn); err != nil {
					return err
				}
			}

			report, err := seed.Apply(cmd.Context(), conn, fixture)
			if err != nil {
				return fmt.Errorf("failed to seed: %w", err)
			}
			logrus.WithFields(logrus.Fields{
				"users_created":      report.UsersCreated,
				"properties_created": report.PropertiesCreated,
				"properties_total":   report.TotalProperties,
			}).Info("Successfully created sample data")
			return nil
		},
	}
	cmd.Flags().String("file", "", "YAML fixture to load instead of the built-in sample data")
	cmd.Flags().Bool("migrate", false, "Run schema migration before seeding")
	return cmd
}

func loadFixture(path string) (*seed.Fixture, error) {
	if path == "" {
		return seed.DefaultFixture()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return seed.LoadFixture(f)
}

func main() {
	if err := seedCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
