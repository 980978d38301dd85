// classroomctl is the operator tool for the classroom service: schema
// migrations, password hashes, session tokens and the first Admin account.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/SAP-F-2025/classroom-service/internal/auth"
	"github.com/SAP-F-2025/classroom-service/internal/clock"
	"github.com/SAP-F-2025/classroom-service/internal/config"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/classroom-service/pkg"
)

const usage = `Usage: classroomctl <command> [flags]

Commands:
  migrate up|down|version       apply, roll back or inspect the schema
  hash-password --password P    print a bcrypt hash
  issue-token --id N --email E --role R
                                print a session token signed with JwtOptions:Key
  create-admin --email E --name N --password P
                                insert an Admin account
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("missing command")
	}

	switch args[0] {
	case "migrate":
		return runMigrate(args[1:])
	case "hash-password":
		return runHashPassword(args[1:])
	case "issue-token":
		return runIssueToken(args[1:])
	case "create-admin":
		return runCreateAdmin(args[1:])
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runMigrate(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: classroomctl migrate up|down|version")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	switch args[0] {
	case "up":
		if err := pkg.RunMigrations(db, pkg.MigrateUp); err != nil {
			return err
		}
	case "down":
		if err := pkg.RunMigrations(db, pkg.MigrateDown); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("unknown migrate direction %q", args[0])
	}

	version, dirty, err := pkg.MigrationVersion(db)
	if err != nil {
		return err
	}
	fmt.Printf("schema version %d (dirty: %t)\n", version, dirty)
	return nil
}

func runHashPassword(args []string) error {
	flagSet := pflag.NewFlagSet("hash-password", pflag.ContinueOnError)
	password := flagSet.String("password", "", "plaintext password")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		return errors.New("--password is required")
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func runIssueToken(args []string) error {
	flagSet := pflag.NewFlagSet("issue-token", pflag.ContinueOnError)
	id := flagSet.Uint("id", 0, "user id")
	email := flagSet.String("email", "", "user email")
	roleName := flagSet.String("role", "Admin", "Admin, Teacher or Student")
	lifetime := flagSet.Duration("lifetime", 0, "token lifetime (default JwtOptions:LifetimeHours)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	role, err := models.ParseRole(*roleName)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	ttl := cfg.TokenLifetime()
	if *lifetime > 0 {
		ttl = *lifetime
	}

	codec, err := auth.NewTokenCodec([]byte(cfg.JwtOptions.Key), ttl, clock.Real())
	if err != nil {
		return err
	}
	token, err := codec.Issue(*id, *email, role)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func runCreateAdmin(args []string) error {
	flagSet := pflag.NewFlagSet("create-admin", pflag.ContinueOnError)
	email := flagSet.String("email", "", "admin email")
	name := flagSet.String("name", "Administrator", "display name")
	password := flagSet.String("password", "", "plaintext password, at least 8 characters")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if *email == "" || len(*password) < 8 {
		return errors.New("--email and a --password of at least 8 characters are required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db})
	defer repo.Close()

	hash, err := auth.HashPassword(*password)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	admin := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(*email)),
		PasswordHash: hash,
		Name:         *name,
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repo.User().Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	fmt.Printf("created admin %d <%s>\n", admin.ID, admin.Email)
	return nil
}
