package database

import (
	"fmt"
	"log"

	config "github.com/wavechat/wavechat-backend/configs"
	"github.com/wavechat/wavechat-backend/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableForeignKeyConstraintWhenMigrating: true,
		DisableNestedTransaction:                 true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Message{},
		&models.Block{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

// SeedDemoUsers creates two demo accounts for local development. It only
// runs when SEED_DEMO_USERS=true and is idempotent across restarts.
func SeedDemoUsers() {
	if config.Config("SEED_DEMO_USERS") != "true" {
		return
	}

	demo := []struct {
		name  string
		email string
	}{
		{"Alice Demo", "alice@wavechat.dev"},
		{"Bob Demo", "bob@wavechat.dev"},
	}

	for _, d := range demo {
		var count int64
		if err := DB.Model(&models.User{}).Where("email = ?", d.email).Count(&count).Error; err != nil {
			log.Printf("Failed to check for demo user %s: %v", d.email, err)
			continue
		}
		if count > 0 {
			continue
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte("wavechat-demo"), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("Failed to hash demo password: %v", err)
			return
		}

		user := models.User{
			DisplayName: d.name,
			Email:       d.email,
			Password:    string(hashed),
		}
		if err := DB.Create(&user).Error; err != nil {
			log.Printf("Failed to seed demo user %s: %v", d.email, err)
			continue
		}
		log.Printf("✅ Seeded demo user %s", d.email)
	}
}
