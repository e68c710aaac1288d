// Package postgres provides PostgreSQL-specific implementations for the
// storage interfaces defined in the internal/store package. It handles
// query execution, driver error translation, and mapping between domain
// entities and database records. Schema management lives in the goose
// migrations under migrations/.
package postgres
