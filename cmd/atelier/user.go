package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/atelier/internal/model"
	"github.com/dmitrymomot/atelier/internal/repository"
	"github.com/dmitrymomot/atelier/pkg/db"
	"github.com/dmitrymomot/atelier/pkg/logger"
	"github.com/dmitrymomot/atelier/pkg/opaque"
)

var errMissingPassword = errors.New("password is required")

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserCreateCommand())
	return cmd
}

func newUserCreateCommand() *cobra.Command {
	var in repository.UserInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user, typically the first admin",
		Long:  "Create a user. Without --password the password is read from the first line of stdin.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !model.ValidRole(in.Role) {
				return fmt.Errorf("unknown role %q", in.Role)
			}
			if in.Password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errMissingPassword
				}
				in.Password = strings.TrimRight(line, "\r\n")
			}
			if in.Password == "" {
				return errMissingPassword
			}

			cfg, err := loadConfig[UserConfig]()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			d, err := db.Connect(ctx, cfg.DB)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := repository.Migrate(ctx, d, cfg.DB.MigrationsTable, logger.New(cfg.Log)); err != nil {
				return err
			}
			hasher, err := opaque.New(cfg.HashSalt)
			if err != nil {
				return err
			}

			u, err := repository.New(d, hasher).CreateUser(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s user %d <%s>\n", u.Role, u.ID, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "Login email")
	cmd.Flags().StringVar(&in.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password (read from stdin when empty)")
	cmd.Flags().StringVar(&in.Role, "role", model.RoleAdmin, "Role: admin or member")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
