package mysql

import (
	"rahnu-backend/internal/domain/audit"
	"rahnu-backend/internal/domain/goldprice"
	"rahnu-backend/internal/domain/loan"
	"rahnu-backend/internal/domain/vault"

	"gorm.io/gorm"
)

// Models lists every table the service owns.
func Models() []any {
	return []any{&loan.Loan{}, &vault.Item{}, &goldprice.Quote{}, &audit.Entry{}}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
