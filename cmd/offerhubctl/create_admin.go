package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"offerhub-backend/database"
	"offerhub-backend/models"
	"offerhub-backend/utils"

	"github.com/spf13/cobra"
)

var (
	adminName     string
	adminEmail    string
	adminPassword string
)

// adminStore est le sous-ensemble du repository utilisateurs utilisé par create-admin
type adminStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

func createAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Crée un compte administrateur (ou promeut un compte existant)",
		Long: `Crée un compte administrateur actif.

Si l'email existe déjà, le compte est promu admin, réactivé et son mot de
passe est remplacé. Le mot de passe peut aussi venir de OFFERHUB_ADMIN_PASSWORD.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if adminPassword == "" {
				adminPassword = os.Getenv("OFFERHUB_ADMIN_PASSWORD")
			}

			closeMongo, err := connectMongo()
			if err != nil {
				return err
			}
			defer closeMongo()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			user, created, err := createAdmin(ctx, database.NewUserRepository(database.DB), adminName, adminEmail, adminPassword)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Administrateur créé: %s (%s)\n", user.Email, user.ID.Hex())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Compte existant promu administrateur: %s (%s)\n", user.Email, user.ID.Hex())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&adminName, "name", "Administrateur", "nom affiché")
	cmd.Flags().StringVar(&adminEmail, "email", "", "email de connexion")
	cmd.Flags().StringVar(&adminPassword, "password", "", "mot de passe (8 caractères minimum)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// createAdmin crée ou promeut le compte; created vaut false pour une promotion
func createAdmin(ctx context.Context, users adminStore, name, email, password string) (*models.User, bool, error) {
	req := models.RegisterRequest{Name: name, Email: email, Password: password}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, false, err
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, false, fmt.Errorf("erreur lors du hachage du mot de passe: %w", err)
	}

	existing, err := users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		existing.Role = models.RoleAdmin
		existing.Active = true
		existing.Password = hashed
		if err := users.Update(ctx, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hashed,
		Role:     models.RoleAdmin,
		Active:   true,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}
