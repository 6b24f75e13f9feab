package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/copple/planner/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func TokenCmd() *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a session token for local requests",
		Long: `Mint a session token signed with JWT_SECRET.

Send it as the token cookie:
  curl -b "token=$(./bin/do token)" localhost:8090/todo/read`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(userID, ttl)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "Owner id to put in the user_id claim (default: random uuid)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")

	return cmd
}

func runToken(userID string, ttl time.Duration) error {
	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if userID == "" {
		userID = uuid.NewString()
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		service.OwnerClaim: userID,
		"iat":              now.Unix(),
		"exp":              now.Add(ttl).Unix(),
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	fmt.Println(signed)
	return nil
}
