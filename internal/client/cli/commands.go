package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/accounts/internal/api"
	"github.com/dmitrijs2005/accounts/internal/client/client"
	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/optional"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

var errGenderValue = errors.New(`gender must be "female" or "male"`)

// parseGender maps female to true and male to false.
func parseGender(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "female", "f", "true":
		return true, nil
	case "male", "m", "false":
		return false, nil
	}
	return false, errGenderValue
}

type profileFlags struct {
	name   string
	email  string
	phone  string
	gender string
	age    int
}

func (p *profileFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&p.name, "name", "", "account name")
	f.StringVar(&p.email, "email", "", "email address")
	f.StringVar(&p.phone, "phone", "", "phone number")
	f.StringVar(&p.gender, "gender", "", "female or male")
	f.IntVar(&p.age, "age", 0, "age in years")
}

func newRegisterCmd(a *App) *cobra.Command {
	p := &profileFlags{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := &api.RegisterRequest{Name: p.name}
			if req.Name == "" {
				name, err := GetSimpleText(a.in, "Name", a.out)
				if err != nil {
					return err
				}
				req.Name = name
			}

			f := cmd.Flags()
			if f.Changed("email") {
				req.Email = &p.email
			}
			if f.Changed("phone") {
				req.Phone = &p.phone
			}
			if f.Changed("gender") {
				g, err := parseGender(p.gender)
				if err != nil {
					return err
				}
				req.Gender = &g
			}
			if f.Changed("age") {
				req.Age = &p.age
			}

			password, err := GetPassword(a.in, "Password", a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)
			req.Password = string(password)

			ctx, cancel := a.callContext(cmd.Context())
			defer cancel()

			token, err := a.client.Register(ctx, req)
			if err != nil {
				return err
			}
			if err := a.remember(cmd.Context(), req.Name, token); err != nil {
				return err
			}
			printToken(a.out, token)
			return nil
		},
	}
	p.bind(cmd)
	return cmd
}

func newLoginCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login [name|email|phone]",
		Short: "Log in and store the session token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var account string
			if len(args) == 1 {
				account = args[0]
			} else {
				var err error
				if account, err = GetSimpleText(a.in, "Name, email or phone", a.out); err != nil {
					return err
				}
			}

			password, err := GetPassword(a.in, "Password", a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			ctx, cancel := a.callContext(cmd.Context())
			defer cancel()

			token, err := a.client.Login(ctx, account, password)
			if err != nil {
				return err
			}
			if err := a.remember(cmd.Context(), account, token); err != nil {
				return err
			}
			printToken(a.out, token)
			return nil
		},
	}
}

func newRefreshCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the session token for a fresh one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.callContext(cmd.Context())
			defer cancel()

			token, err := a.client.Refresh(ctx)
			if err != nil {
				return err
			}
			if err := a.remember(cmd.Context(), "", token); err != nil {
				return err
			}
			printToken(a.out, token)
			return nil
		},
	}
}

func newUpdateCmd(a *App) *cobra.Command {
	p := &profileFlags{}
	var (
		clearFields    []string
		changePassword bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields or the password",
		Long: `Change profile fields of the logged in account. Only the flags given are
changed; --clear removes optional fields (email, phone, gender, age). The
current password is always asked for.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := &api.UpdateProfileRequest{}
			f := cmd.Flags()

			if f.Changed("name") {
				req.Name = optional.Of(p.name)
			}
			if f.Changed("email") {
				req.Email = optional.Of(&p.email)
			}
			if f.Changed("phone") {
				req.Phone = optional.Of(&p.phone)
			}
			if f.Changed("gender") {
				g, err := parseGender(p.gender)
				if err != nil {
					return err
				}
				req.Gender = optional.Of(&g)
			}
			if f.Changed("age") {
				req.Age = optional.Of(&p.age)
			}

			for _, field := range clearFields {
				switch field {
				case "email":
					req.Email = optional.Of[*string](nil)
				case "phone":
					req.Phone = optional.Of[*string](nil)
				case "gender":
					req.Gender = optional.Of[*bool](nil)
				case "age":
					req.Age = optional.Of[*int](nil)
				default:
					return fmt.Errorf("cannot clear %q", field)
				}
			}

			current, err := GetPassword(a.in, "Current password", a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(current)
			req.OriginalPassword = string(current)

			if changePassword {
				next, err := GetPassword(a.in, "New password", a.out)
				if err != nil {
					return err
				}
				defer common.WipeByteArray(next)
				req.Password = optional.Of(string(next))
			}

			ctx, cancel := a.callContext(cmd.Context())
			defer cancel()

			token, err := a.client.UpdateProfile(ctx, req)
			if err != nil {
				return err
			}

			account := ""
			if req.Name.IsSet() {
				account = p.name
			}
			if err := a.remember(cmd.Context(), account, token); err != nil {
				return err
			}
			printToken(a.out, token)
			return nil
		},
	}
	p.bind(cmd)
	cmd.Flags().StringSliceVar(&clearFields, "clear", nil, "optional fields to remove (email, phone, gender, age)")
	cmd.Flags().BoolVar(&changePassword, "change-password", false, "ask for a new password")
	return cmd
}

func newDeleteCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete the logged in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := GetPassword(a.in, "Password", a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			ctx, cancel := a.callContext(cmd.Context())
			defer cancel()

			if err := a.client.DeleteAccount(ctx, password); err != nil {
				return err
			}
			if err := a.forget(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Account deleted")
			return nil
		},
	}
}

func newGetUserCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get-user <uid>",
		Short: "Show the public profile of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.callContext(cmd.Context())
			defer cancel()

			u, err := a.client.GetUser(ctx, args[0])
			if err != nil {
				return err
			}
			return printUser(a.out, u)
		},
	}
}

// newWhoamiCmd decodes the stored token locally. The signature is not
// checked; only the server can do that.
func newWhoamiCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity carried by the session token",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			token := a.client.Token()
			if token == "" {
				return client.ErrNoSession
			}

			claims := jwt.MapClaims{}
			if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
				return fmt.Errorf("decode token: %w", err)
			}
			if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
				claims["iat"] = iat.UTC().Format(time.RFC3339)
			}
			if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
				claims["exp"] = exp.UTC().Format(time.RFC3339)
			}
			return printJSON(a.out, claims)
		},
	}
}

func newLogoutCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.client.SetToken("")
			if err := a.forget(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}
