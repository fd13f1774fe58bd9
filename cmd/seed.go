/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/nans-shop/apiserver/config"
	"github.com/nans-shop/apiserver/internal/auth"
	"github.com/nans-shop/apiserver/internal/db"
	"github.com/nans-shop/apiserver/internal/services"
	"github.com/nans-shop/apiserver/internal/store"
	"github.com/nans-shop/apiserver/types"
	"github.com/spf13/cobra"
)

var (
	seedAdminName     string
	seedAdminEmail    string
	seedAdminPassword string
)

// seedAdminCmd represents the seed-admin command.
var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create an admin account if it does not already exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		ctx := cmd.Context()

		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		repo := store.NewAccountRepository(dbConn)
		email := services.NormalizeEmail(seedAdminEmail)

		if _, err := repo.GetByEmail(ctx, types.AccountAdmin, email); err == nil {
			fmt.Println("admin already exists")
			return nil
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if err := auth.ValidatePassword(seedAdminPassword); err != nil {
			return err
		}
		hashed, err := auth.HashPassword(seedAdminPassword)
		if err != nil {
			return err
		}

		if _, err := repo.Create(ctx, types.AccountAdmin, types.Account{
			Name:         seedAdminName,
			Email:        email,
			PasswordHash: hashed,
		}); err != nil {
			// A concurrent seeder may have won the insert.
			if errors.Is(err, store.ErrDuplicate) {
				fmt.Println("admin already exists")
				return nil
			}
			return err
		}

		fmt.Println("admin created successfully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedAdminCmd)

	seedAdminCmd.Flags().StringVar(&seedAdminName, "name", "Administrator", "admin display name")
	seedAdminCmd.Flags().StringVar(&seedAdminEmail, "email", "", "admin email address")
	seedAdminCmd.Flags().StringVar(&seedAdminPassword, "password", "", "admin password")
	_ = seedAdminCmd.MarkFlagRequired("email")
	_ = seedAdminCmd.MarkFlagRequired("password")
}
