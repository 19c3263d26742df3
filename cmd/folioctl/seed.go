package main

import (
	"context"
	"errors"
	"fmt"

	"folio/internal/auth"
	"folio/internal/domain"
	models "folio/internal/domain/models/explorer"
	explorerSvc "folio/internal/domain/services/explorer"
	"folio/internal/session"

	"github.com/spf13/cobra"
)

// demoFolder is one folder of the demo tree.
type demoFolder struct {
	name        string
	description string
	icon        string
	children    []demoFolder
}

var demoTree = []demoFolder{
	{name: "Documents", description: "Policies, contracts and letters", icon: "document", children: []demoFolder{
		{name: "Contracts", icon: "briefcase"},
		{name: "Letters"},
	}},
	{name: "Reports", description: "Quarterly and annual reports", icon: "folder", children: []demoFolder{
		{name: "2024"},
		{name: "2025"},
	}},
	{name: "Images", description: "Photos and artwork", icon: "image"},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the admin account and a demo folder tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		force, _ := cmd.Flags().GetBool("force")

		a, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		cfg := a.Config

		// SAFETY: seeding writes demo data
		if cfg.IsProduction() && !force {
			return fmt.Errorf("refusing to seed in production without --force")
		}

		userID := "seed"
		if cfg.SupabaseURL != "" && cfg.SupabaseKey != "" {
			if err := (auth.Credentials{Email: email, Password: password}).Validate(); err != nil {
				return err
			}
			userID, err = ensureAdminUser(cmd.Context(), auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseKey), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Admin user %s (%s)\n", email, userID)
		} else {
			fmt.Fprintln(out(cmd), "SUPABASE_URL or SUPABASE_KEY not set, skipping admin user")
		}

		ctx := session.WithSession(cmd.Context(), &session.Session{
			User:  &session.User{ID: userID, Email: email},
			Admin: true,
		})
		created, err := seedFolders(ctx, a.Mutations, nil, demoTree)
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "Created %d folder(s)\n", created)
		return nil
	},
}

func ensureAdminUser(ctx context.Context, client *auth.AdminClient, email, password string) (string, error) {
	id, err := client.FindUserIDByEmail(ctx, email)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, auth.ErrUserNotFound) {
		return "", err
	}
	return client.CreateUser(ctx, email, password)
}

// seedFolders creates tree below parentID. Folders that already exist are
// reused so seeding can be repeated.
func seedFolders(ctx context.Context, mutations explorerSvc.MutationCoordinator, parentID *string, tree []demoFolder) (int, error) {
	created := 0
	for _, node := range tree {
		req := &explorerSvc.CreateFolderRequest{ParentID: parentID, Name: node.name}
		if node.description != "" {
			req.Description = &node.description
		}
		if node.icon != "" {
			req.Icon = &node.icon
		}

		folder, err := mutations.CreateFolder(ctx, req)
		var conflictErr *domain.ConflictError
		switch {
		case errors.As(err, &conflictErr) && conflictErr.ResourceID != "":
			folder = &models.Folder{ID: conflictErr.ResourceID}
		case err != nil:
			return created, fmt.Errorf("create %q: %w", node.name, err)
		default:
			created++
		}

		n, err := seedFolders(ctx, mutations, &folder.ID, node.children)
		created += n
		if err != nil {
			return created, err
		}
	}
	return created, nil
}
