package main

import (
	"errors"
	"os"

	usermodel "postify/internal/domain/user/model"

	"github.com/spf13/cobra"
)

var (
	loginPassword string
	loginAdmin    bool

	registerReq usermodel.RegisterRequest
	profileReq  usermodel.UpdateProfileRequest
)

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Log in and keep the session for later commands",
	Long: `Log in as a user or an administrator. The password is read from
--password or, when the flag is empty, from the POSTIFY_PASSWORD variable.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := loginPassword
		if password == "" {
			password = os.Getenv("POSTIFY_PASSWORD")
		}
		if password == "" {
			return errors.New("password is required")
		}
		role := usermodel.RoleUser
		if loginAdmin {
			role = usermodel.RoleAdmin
		}

		user, err := cli.Users.Login(cmd.Context(), usermodel.LoginRequest{Username: args[0], Password: password, Role: role})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), user)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if registerReq.ConfirmPassword == "" {
			registerReq.ConfirmPassword = registerReq.Password
		}
		if err := cli.Users.Register(cmd.Context(), registerReq); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]string{"message": "Registration successful, please log in"})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and forget the stored cookies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cli.Users.Logout(cmd.Context()); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]string{"message": "Logged out"})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		user, err := cli.Users.FetchCurrentUser(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), user)
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Update the profile of the logged in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// 修改资料前需要知道当前用户
		if _, err := cli.Users.FetchCurrentUser(cmd.Context()); err != nil {
			return err
		}
		user, err := cli.Users.UpdateProfile(cmd.Context(), profileReq)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), user)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd, profileCmd)

	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password")
	loginCmd.Flags().BoolVar(&loginAdmin, "admin", false, "log in as administrator")

	f := registerCmd.Flags()
	f.StringVar(&registerReq.Username, "username", "", "username (letters, digits and underscores)")
	f.StringVar(&registerReq.Email, "email", "", "email address")
	f.StringVar(&registerReq.FirstName, "first-name", "", "first name")
	f.StringVar(&registerReq.LastName, "last-name", "", "last name")
	f.StringVar(&registerReq.Password, "password", "", "password")
	f.StringVar(&registerReq.ConfirmPassword, "confirm-password", "", "password confirmation (defaults to --password)")
	_ = registerCmd.MarkFlagRequired("username")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("password")

	f = profileCmd.Flags()
	f.StringVar(&profileReq.Username, "username", "", "new username")
	f.StringVar(&profileReq.Email, "email", "", "new email address")
	f.StringVar(&profileReq.FirstName, "first-name", "", "new first name")
	f.StringVar(&profileReq.LastName, "last-name", "", "new last name")
	f.StringVar(&profileReq.ProfilePic, "profile-pic", "", "new profile picture URL")
}
