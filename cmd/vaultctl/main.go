// Command vaultctl performs out-of-band account administration: granting and
// revoking the admin role, and setting a profile's status.
//
//	vaultctl grant-admin  -email someone@example.com
//	vaultctl revoke-admin -email someone@example.com
//	vaultctl set-status   -email someone@example.com -status ativo
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jurifinder/legal-vault/internal/core/domain"
	"github.com/jurifinder/legal-vault/internal/core/ports"
	"github.com/jurifinder/legal-vault/internal/infrastructure/config"
	mongostore "github.com/jurifinder/legal-vault/internal/infrastructure/db/mongo"
	"github.com/jurifinder/legal-vault/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "vaultctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Output: os.Stderr})

	client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	c := &commands{
		users:    mongostore.NewUserRepository(db),
		profiles: mongostore.NewProfileRepository(db),
		roles:    mongostore.NewRoleRepository(db),
		out:      out,
	}
	if err := c.dispatch(ctx, args); err != nil {
		return err
	}
	log.Info().Str("command", args[0]).Msg("done")
	return nil
}

var errUsage = errors.New("usage: vaultctl <grant-admin|revoke-admin|set-status> -email <address> [-status <status>]")

// userLookup is the part of the credential store the CLI needs.
type userLookup interface {
	FindByEmail(ctx context.Context, email string) (*domain.Credentials, error)
}

type commands struct {
	users    userLookup
	profiles ports.ProfileRepository
	roles    ports.RoleProvisioner
	out      io.Writer
}

func (c *commands) dispatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "account email")
	status := fs.String("status", "", "profile status: pendente, ativo or bloqueado")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *email == "" {
		return errUsage
	}

	user, err := c.users.FindByEmail(ctx, *email)
	if err != nil {
		return fmt.Errorf("%s: %w", *email, err)
	}

	switch args[0] {
	case "grant-admin":
		if err := c.roles.Grant(ctx, user.ID, domain.RoleAdmin); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s is now an admin\n", user.Email)
	case "revoke-admin":
		if err := c.roles.Revoke(ctx, user.ID); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s is no longer an admin\n", user.Email)
	case "set-status":
		st, err := domain.ParseProfileStatus(*status)
		if err != nil {
			return err
		}
		if err := c.setStatus(ctx, user.ID, st); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s status set to %s\n", user.Email, st)
	default:
		return errUsage
	}
	return nil
}

// setStatus updates the profile, creating it first if signup never did.
func (c *commands) setStatus(ctx context.Context, userID string, st domain.ProfileStatus) error {
	err := c.profiles.UpdateStatus(ctx, userID, st)
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return err
	}
	err = c.profiles.Create(ctx, &domain.Profile{ID: userID, Status: st, CreatedAt: time.Now().UTC()})
	if errors.Is(err, domain.ErrProfileExists) {
		return c.profiles.UpdateStatus(ctx, userID, st)
	}
	return err
}
