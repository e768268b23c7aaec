package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"eventsapi/config"
	"eventsapi/db"
	"eventsapi/models"
)

var (
	suUsername string
	suEmail    string
	suPassword string
)

var createSuperuserCmd = &cobra.Command{
	Use:     "createsuperuser",
	Short:   "Create an admin account",
	Example: `  eventsapi createsuperuser --username admin --email admin@example.com --password s3cret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sqlDB, err := db.Open(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		u, err := createSuperuser(cmd.Context(), models.NewSQLUserRepository(sqlDB), suUsername, suEmail, suPassword)
		if err != nil {
			return err
		}
		logger := config.NewLogger(cfg.LoggingConfig)
		logger.Info().Int64("user_id", u.ID).Str("username", u.Username).Msg("superuser created")
		return nil
	},
}

func init() {
	createSuperuserCmd.Flags().StringVar(&suUsername, "username", "", "login name")
	createSuperuserCmd.Flags().StringVar(&suEmail, "email", "", "email address")
	createSuperuserCmd.Flags().StringVar(&suPassword, "password", "", "password")
	_ = createSuperuserCmd.MarkFlagRequired("username")
	_ = createSuperuserCmd.MarkFlagRequired("password")
}

func createSuperuser(ctx context.Context, users models.UserRepository, username, email, password string) (models.User, error) {
	if username == "" || password == "" {
		return models.User{}, errors.New("username and password are required")
	}
	u := models.User{
		Username:    username,
		Email:       email,
		Password:    password,
		IsSuperuser: true,
		IsStaff:     true,
		IsActive:    true,
	}
	if err := users.Create(ctx, &u); err != nil {
		var dup *models.DuplicateError
		if errors.As(err, &dup) {
			return models.User{}, fmt.Errorf("user %q already exists", username)
		}
		return models.User{}, fmt.Errorf("create superuser: %w", err)
	}
	return u, nil
}
