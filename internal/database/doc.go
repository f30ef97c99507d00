// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, genre seeding
//	├── books/           # Book CRUD and the filtered listing query
//	├── genres/          # Genres with book counts, guarded deletion
//	├── tokens/          # E-mail verification and password reset tokens
//	├── users/           # User accounts
//	└── audit/           # Audit events
//
// # Drivers
//
// SQLite is the default (DATABASE_DRIVER=sqlite, DATABASE_PATH). Postgres is
// selected with DATABASE_DRIVER=postgres and DATABASE_DSN. Queries that need
// dialect-specific SQL check db.Dialector.Name().
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase(cfg.Database)
//	defer db.Close()
//
//	booksRepo := books.NewRepository(db.DB)
//	page, total, err := booksRepo.List(userID, books.Filter{Status: "LENDO"}, 0, 10)
//
// Repositories return gorm errors unchanged (gorm.ErrRecordNotFound and so
// on); translating them into apperr kinds is the services' job.
package database
