// Command devtoken prints a bearer token for local testing of the
// attendance endpoints.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/samanvay/attendance_service/internal/auth"
	"github.com/samanvay/attendance_service/internal/model"
)

func main() {
	id := flag.Int64("id", 1, "user id (student id for students)")
	role := flag.String("role", string(model.RoleStudent), "student, tutor, course_admin or super_admin")
	name := flag.String("name", "", "display name")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load(".env")

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}

	token, err := auth.NewIssuer(secret, *ttl).Issue(model.Identity{
		ID:   *id,
		Role: model.Role(*role),
		Name: *name,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
