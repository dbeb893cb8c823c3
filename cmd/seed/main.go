// Package main provides a CLI tool for seeding the database with initial data:
// an admin user, a demo company and the Serbian chart of accounts.
package main

import (
	"context"
	"fmt"
	"os"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/domain/accounts"
	"fiskalis/internal/domain/auth"
	"fiskalis/internal/domain/company"
	"fiskalis/internal/domain/partners"
	"fiskalis/internal/infrastructure/storage/postgres"
	"fiskalis/internal/infrastructure/storage/postgres/auth_repo"
	"fiskalis/internal/infrastructure/storage/postgres/catalog_repo"
	"fiskalis/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)

	authService := auth.NewService(
		auth_repo.NewUserRepo(txManager),
		auth_repo.NewRoleRepo(txManager),
		auth_repo.NewPermissionRepo(txManager),
		auth_repo.NewTokenRepo(txManager),
		auth.NewJWTService(auth.DefaultJWTConfig("seed")),
		txManager,
		auth.DefaultServiceConfig(),
		log,
	)

	adminID, err := seedAdminUser(ctx, authService, log)
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	accountService := accounts.NewService(catalog_repo.NewAccountRepo(txManager), txManager)
	if err := seedChartOfAccounts(ctx, accountService, log); err != nil {
		log.Fatalw("failed to seed chart of accounts", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		companyService := company.NewService(catalog_repo.NewCompanyRepo(txManager), txManager)
		partnerService := partners.NewService(catalog_repo.NewPartnerRepo(txManager), txManager)

		if err := seedDemoData(ctx, companyService, partnerService, authService, adminID, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, authService *auth.Service, log *logger.Logger) (id.ID, error) {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@fiskalis.rs"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	user, err := authService.Register(ctx, auth.RegisterRequest{
		Email:     adminEmail,
		Password:  adminPassword,
		FirstName: "System",
		LastName:  "Admin",
	})
	if err != nil {
		if appErr, ok := apperror.AsAppError(err); ok && appErr.Code == apperror.CodeDuplicate {
			log.Infow("admin user already exists", "email", adminEmail)
			return id.Nil(), nil
		}
		return id.Nil(), err
	}

	roles, err := authService.ListRoles(ctx)
	if err != nil {
		return id.Nil(), fmt.Errorf("list roles: %w", err)
	}
	for _, role := range roles {
		if role.Code == "admin" {
			if err := authService.AssignRole(ctx, user.ID, role.ID, user.ID); err != nil {
				log.Warnw("failed to assign admin role", "error", err)
			}
			break
		}
	}

	log.Infow("admin user created", "email", adminEmail, "user_id", user.ID)
	return user.ID, nil
}

// seedChartOfAccounts loads a condensed version of the Serbian kontni okvir.
// Codes use dot notation, children inherit the class type of their root.
func seedChartOfAccounts(ctx context.Context, service *accounts.Service, log *logger.Logger) error {
	type accountSeed struct {
		code    string
		name    string
		accType accounts.AccountType
		parent  string // code of the parent, empty for class roots
	}

	seeds := []accountSeed{
		{"0", "Neuplaćeni upisani kapital i stalna imovina", accounts.TypeAsset, ""},
		{"1", "Zalihe", accounts.TypeAsset, ""},
		{"2", "Kratkoročna potraživanja, plasmani i novac", accounts.TypeAsset, ""},
		{"3", "Kapital", accounts.TypeEquity, ""},
		{"4", "Rezervisanja i obaveze", accounts.TypeLiability, ""},
		{"5", "Rashodi", accounts.TypeExpense, ""},
		{"6", "Prihodi", accounts.TypeIncome, ""},

		{"2.02", "Potraživanja od kupaca u zemlji", accounts.TypeAsset, "2"},
		{"2.41", "Tekući (poslovni) računi", accounts.TypeAsset, "2"},
		{"2.70", "PDV u primljenim fakturama (prethodni porez)", accounts.TypeAsset, "2"},
		{"3.00", "Osnovni kapital", accounts.TypeEquity, "3"},
		{"4.30", "Primljeni avansi", accounts.TypeLiability, "4"},
		{"4.33", "Dobavljači u zemlji", accounts.TypeLiability, "4"},
		{"4.70", "Obaveze za PDV", accounts.TypeLiability, "4"},
		{"5.12", "Troškovi materijala", accounts.TypeExpense, "5"},
		{"5.50", "Nematerijalni troškovi", accounts.TypeExpense, "5"},
		{"6.04", "Prihodi od prodaje proizvoda i usluga", accounts.TypeIncome, "6"},
		{"6.60", "Finansijski prihodi", accounts.TypeIncome, "6"},
	}

	created := make(map[string]id.ID)

	for _, s := range seeds {
		exists, err := service.Exists(ctx, s.code)
		if err != nil {
			return fmt.Errorf("check account %s: %w", s.code, err)
		}
		if exists {
			existing, err := service.GetByCode(ctx, s.code)
			if err != nil {
				return fmt.Errorf("fetch account %s: %w", s.code, err)
			}
			created[s.code] = existing.ID
			continue
		}

		acc := accounts.NewAccount(s.code, s.name, s.accType)
		if s.parent != "" {
			parentID, ok := created[s.parent]
			if !ok {
				return fmt.Errorf("parent account %s not seeded before %s", s.parent, s.code)
			}
			acc.ParentID = &parentID
		}

		if err := service.Create(ctx, acc); err != nil {
			return fmt.Errorf("create account %s: %w", s.code, err)
		}
		created[s.code] = acc.ID
	}

	log.Infow("chart of accounts seeded", "accounts", len(seeds))
	return nil
}

func seedDemoData(
	ctx context.Context,
	companyService *company.Service,
	partnerService *partners.Service,
	authService *auth.Service,
	adminID id.ID,
	log *logger.Logger,
) error {
	log.Info("seeding demo data...")

	demoCompany := company.NewCompany("COM-001", "Fiskalis Demo d.o.o.", "106006802")
	address := "Bulevar kralja Aleksandra 73"
	city := "Beograd"
	demoCompany.Address = &address
	demoCompany.City = &city

	exists, err := companyService.Exists(ctx, demoCompany.Code)
	if err != nil {
		return fmt.Errorf("check demo company: %w", err)
	}
	if !exists {
		if err := companyService.Create(ctx, demoCompany); err != nil {
			return fmt.Errorf("create demo company: %w", err)
		}
		log.Infow("demo company created", "pib", demoCompany.PIB)
	} else {
		existing, err := companyService.GetByCode(ctx, demoCompany.Code)
		if err != nil {
			return fmt.Errorf("fetch demo company: %w", err)
		}
		demoCompany = existing
	}

	if !id.IsNil(adminID) {
		if err := authService.GrantCompanyAccess(ctx, adminID, demoCompany.ID); err != nil {
			log.Warnw("failed to grant company access to admin", "error", err)
		}
	}

	demoPartner := partners.NewPartner("PAR-001", "Poslovni Partner d.o.o.", "101134702", partners.TypeBoth)
	exists, err = partnerService.Exists(ctx, demoPartner.Code)
	if err != nil {
		return fmt.Errorf("check demo partner: %w", err)
	}
	if !exists {
		if err := partnerService.Create(ctx, demoPartner); err != nil {
			return fmt.Errorf("create demo partner: %w", err)
		}
		log.Infow("demo partner created", "pib", demoPartner.PIB)
	}

	return nil
}
