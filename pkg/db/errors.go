package db

import "errors"

var (
	ErrFailedToParseDBConfig    = errors.New("db: failed to parse database configuration")
	ErrFailedToOpenDBConnection = errors.New("db: failed to open database connection")
	ErrUnsupportedURL           = errors.New("db: unsupported database url scheme")
	ErrHealthcheckFailed        = errors.New("db: healthcheck failed")
	ErrBeginTx                  = errors.New("db: failed to begin transaction")
	ErrCommitTx                 = errors.New("db: failed to commit transaction")
	ErrCreateMigrator           = errors.New("db migrator: failed to create provider")
	ErrApplyMigrations          = errors.New("db migrator: failed to apply migrations")
)
