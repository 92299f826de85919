package main

import (
	"situationroom/internal/auth"
	"situationroom/internal/db"
	"situationroom/internal/model"
	"situationroom/internal/service"

	"github.com/spf13/cobra"
)

var (
	userEmail    string
	userName     string
	userPassword string
	userRole     string
)

// userCmd manages accounts
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

// userCreateCmd creates an account or resets an existing one
var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create or update an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := db.NewPool(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		users := service.NewUserService(pool.Queries, auth.NewJWTConfig(cfg.JWTSecret, cfg.TokenTTL))
		u, err := users.Create(cmd.Context(), service.CreateUserInput{
			Email:    userEmail,
			Name:     userName,
			Password: userPassword,
			Role:     userRole,
		})
		if err != nil {
			return err
		}
		cmd.Printf("User %s (%s) saved with id %s\n", u.Email, u.Role, u.ID)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Account email")
	userCreateCmd.Flags().StringVar(&userName, "name", "", "Display name")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "Account password")
	userCreateCmd.Flags().StringVar(&userRole, "role", model.RoleStaff, "Role (Admin, WebAdmin, Staff, Observers, Reporters)")
	userCreateCmd.MarkFlagRequired("email")
	userCreateCmd.MarkFlagRequired("password")
	userCmd.AddCommand(userCreateCmd)
}
