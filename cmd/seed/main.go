// Command seed migrates the schema and provisions the demo tenants and
// accounts. It is idempotent: rerunning updates passwords and roles in
// place and never duplicates rows.
package main

import (
	"notes-service/internal/model"
	"notes-service/pkg/config"
	"notes-service/pkg/database"
	"notes-service/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close(db)

	acme, err := upsertTenant(db, "Acme Corporation", "acme")
	if err != nil {
		log.Fatal("Failed to seed tenant", zap.String("slug", "acme"), zap.Error(err))
	}
	globex, err := upsertTenant(db, "Globex Corporation", "globex")
	if err != nil {
		log.Fatal("Failed to seed tenant", zap.String("slug", "globex"), zap.Error(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password", zap.Error(err))
	}

	accounts := []model.User{
		{TenantID: acme.ID, Email: "admin@acme.test", PasswordHash: string(hash), Role: model.RoleAdmin},
		{TenantID: acme.ID, Email: "user@acme.test", PasswordHash: string(hash), Role: model.RoleMember},
		{TenantID: globex.ID, Email: "admin@globex.test", PasswordHash: string(hash), Role: model.RoleAdmin},
		{TenantID: globex.ID, Email: "user@globex.test", PasswordHash: string(hash), Role: model.RoleMember},
	}

	for _, account := range accounts {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"password_hash", "role"}),
		}).Create(&account).Error
		if err != nil {
			log.Fatal("Failed to seed user", zap.String("email", account.Email), zap.Error(err))
		}
		log.Info("Seeded account", zap.String("email", account.Email), zap.String("role", account.Role))
	}

	log.Info("Database seed completed",
		zap.String("password", "password"),
		zap.Strings("accounts", []string{
			"admin@acme.test", "user@acme.test",
			"admin@globex.test", "user@globex.test",
		}))
}

func upsertTenant(db *gorm.DB, name, slug string) (*model.Tenant, error) {
	tenant := model.Tenant{Name: name, Slug: slug, SubscriptionPlan: model.PlanFree}
	err := db.Where(model.Tenant{Slug: slug}).
		Attrs(tenant).
		FirstOrCreate(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}
