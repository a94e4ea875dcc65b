package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/jwt"
	"github.com/spf13/cobra"
)

type TokenOptions struct {
	*RootOptions
	Secret     string
	UserID     string
	CompanyID  string
	EmployeeID string
	Role       string
	TTL        time.Duration
}

type TokenResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for local testing",
		Long: `Sign an access token with JWT_SECRET_KEY. Production tokens are issued by
the HR system.

Examples:
  ledgerctl token --user u-1 --company co-1 --employee emp-1
  ledgerctl token --user u-2 --company co-1 --role manager --ttl 8h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Secret, "secret", "", "signing secret (defaults to JWT_SECRET_KEY)")
	cmd.Flags().StringVar(&opts.UserID, "user", "", "user id (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().StringVar(&opts.CompanyID, "company", "", "company id (required)")
	_ = cmd.MarkFlagRequired("company")
	cmd.Flags().StringVar(&opts.EmployeeID, "employee", "", "employee id the caller acts as")
	cmd.Flags().StringVar(&opts.Role, "role", string(auth.RoleEmployee), "owner|manager|employee")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", time.Hour, "token lifetime")

	return cmd
}

func runToken(cmd *cobra.Command, opts *TokenOptions) error {
	role := auth.Role(opts.Role)
	switch role {
	case auth.RoleOwner, auth.RoleManager:
	case auth.RoleEmployee:
		if opts.EmployeeID == "" {
			return NewExitError(ExitCommandError, "--employee is required for the employee role")
		}
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid role %q", opts.Role))
	}
	if opts.TTL <= 0 {
		return NewExitError(ExitCommandError, "--ttl must be positive")
	}

	secret := opts.Secret
	if secret == "" {
		cfg, err := opts.LoadConfig()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		secret = cfg.JWT.Secret
	}

	claims := auth.Claims{UserID: opts.UserID, CompanyID: opts.CompanyID, Role: role}
	if opts.EmployeeID != "" {
		claims.EmployeeID = &opts.EmployeeID
	}

	token, expiresAt, err := jwt.NewJWTService(secret, opts.TTL).GenerateAccessToken(claims)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to sign token", err)
	}

	res := TokenResult{Token: token, ExpiresAt: time.Unix(expiresAt, 0).UTC()}
	return emit(cmd.OutOrStdout(), opts.Format, res, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, res.Token)
	})
}
