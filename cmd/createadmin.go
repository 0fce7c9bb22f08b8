package cmd

import (
	"errors"
	"fmt"

	"github.com/inkpress/apiserver/config"
	"github.com/inkpress/apiserver/internal/db"
	"github.com/inkpress/apiserver/internal/services"
	"github.com/inkpress/apiserver/internal/store"
	"github.com/spf13/cobra"
)

var (
	createAdminEmail    string
	createAdminName     string
	createAdminPassword string
)

// createAdminCmd creates an admin account. Admin users cannot be
// created through the API; author-creation paths always force the
// author role.
var createAdminCmd = &cobra.Command{
	Use:   "createadmin",
	Short: "Create an admin user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		userService := services.NewUserService(store.NewUserRepository(dbConn), nil)
		user, err := userService.CreateAdmin(cmd.Context(), createAdminEmail, createAdminName, createAdminPassword)
		if err != nil {
			var validation *services.ValidationError
			if errors.As(err, &validation) {
				for field, messages := range validation.Fields {
					for _, message := range messages {
						fmt.Printf("%s: %s\n", field, message)
					}
				}
				return errors.New("invalid admin user data")
			}
			return err
		}

		fmt.Printf("created admin user %d (%s)\n", user.ID, user.Email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createAdminCmd)

	createAdminCmd.Flags().StringVar(&createAdminEmail, "email", "", "admin email address")
	createAdminCmd.Flags().StringVar(&createAdminName, "name", "", "admin display name")
	createAdminCmd.Flags().StringVar(&createAdminPassword, "password", "", "admin password")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("name")
	_ = createAdminCmd.MarkFlagRequired("password")
}
