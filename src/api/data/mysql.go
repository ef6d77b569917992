package data

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// MustMySQL opens the database or exits. TranslateError is on so unique-key
// violations surface as gorm.ErrDuplicatedKey and can be reported as conflicts.
func MustMySQL(dsn string) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	return db
}
