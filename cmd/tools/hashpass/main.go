package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"urlindex.local/internal/app/urlbatch/repo"
	"urlindex.local/internal/platform/auth"
)

// 生成账号初始化 SQL（用户 + 积分账户），一般用来建第一个管理员。
func main() {
	var credits int
	var role string

	cmd := &cobra.Command{
		Use:          "hashpass <username> <password>",
		Short:        "Print seed SQL for a user with a bcrypt password hash",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, password := strings.TrimSpace(args[0]), args[1]
			if err := repo.ValidateCredentials(name, password); err != nil {
				return err
			}
			if role != auth.RoleUser && role != auth.RoleAdmin {
				return fmt.Errorf("unknown role %q", role)
			}
			if credits < 0 {
				return errors.New("credits must be >= 0")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}

			quote := func(s string) string { return "'" + strings.ReplaceAll(s, "'", "''") + "'" }
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "INSERT INTO users (username, password_hash, role) VALUES (%s, %s, %s);\n",
				quote(name), quote(string(hash)), quote(role))
			fmt.Fprintf(out, "INSERT INTO credit_accounts (user_id, credits_available) SELECT id, %d FROM users WHERE username = %s;\n",
				credits, quote(name))
			return nil
		},
	}
	cmd.Flags().IntVar(&credits, "credits", 0, "initial credits for the account")
	cmd.Flags().StringVar(&role, "role", auth.RoleAdmin, "user role")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
