package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/glewis05/configurations-toolkit/internal/domain"
	"github.com/glewis05/configurations-toolkit/internal/platform/logger"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

// PostgresHierarchyStore implements the store.HierarchyStore interface
// using a PostgreSQL database as the storage backend.
type PostgresHierarchyStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresHierarchyStore creates a new PostgreSQL implementation of the
// HierarchyStore interface. It accepts a database connection or transaction
// managed by the caller. If logger is nil, a default logger is used.
func NewPostgresHierarchyStore(db store.DBTX, logger *slog.Logger) *PostgresHierarchyStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresHierarchyStore{
		db:     db,
		logger: logger.With(slog.String("component", "hierarchy_store")),
	}
}

// Ensure PostgresHierarchyStore implements store.HierarchyStore
var _ store.HierarchyStore = (*PostgresHierarchyStore)(nil)

// WithTx implements store.HierarchyStore.WithTx
func (s *PostgresHierarchyStore) WithTx(tx *sql.Tx) store.HierarchyStore {
	return &PostgresHierarchyStore{db: tx, logger: s.logger}
}

// CreateProgram implements store.HierarchyStore.CreateProgram
func (s *PostgresHierarchyStore) CreateProgram(ctx context.Context, program *domain.Program) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := program.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO programs (program_id, client_id, name, prefix, program_type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		program.ID,
		nullable(program.ClientID),
		program.Name,
		program.Prefix,
		string(program.Type),
		nullable(program.Description),
		program.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrDuplicate
		}
		log.Error("failed to create program",
			slog.String("error", err.Error()),
			slog.String("program_id", program.ID))
		return MapError(err)
	}

	log.Info("program created",
		slog.String("program_id", program.ID),
		slog.String("name", program.Name))
	return nil
}

const programCols = `program_id, client_id, name, prefix, program_type, description, created_at`

func scanProgram(row interface{ Scan(...any) error }) (*domain.Program, error) {
	var (
		p                     domain.Program
		clientID, description sql.NullString
		programType           string
	)
	err := row.Scan(&p.ID, &clientID, &p.Name, &p.Prefix, &programType, &description, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.ClientID = clientID.String
	p.Description = description.String
	p.Type = domain.ProgramType(programType)
	return &p, nil
}

// GetProgram implements store.HierarchyStore.GetProgram
func (s *PostgresHierarchyStore) GetProgram(ctx context.Context, id string) (*domain.Program, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+programCols+` FROM programs WHERE program_id = $1`, id)
	p, err := scanProgram(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrProgramNotFound
	}
	return p, err
}

// FindProgram implements store.HierarchyStore.FindProgram.
// Tries exact prefix, exact name, then case-insensitive partial name.
func (s *PostgresHierarchyStore) FindProgram(ctx context.Context, identifier string) (*domain.Program, error) {
	queries := []struct {
		sql string
		arg string
	}{
		{`SELECT ` + programCols + ` FROM programs WHERE prefix = $1`, strings.ToUpper(identifier)},
		{`SELECT ` + programCols + ` FROM programs WHERE name = $1`, identifier},
		{`SELECT ` + programCols + ` FROM programs WHERE name ILIKE $1`, "%" + identifier + "%"},
	}
	for _, q := range queries {
		p, err := scanProgram(s.db.QueryRowContext(ctx, q.sql, q.arg))
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}
	return nil, store.ErrProgramNotFound
}

// AttachProgram implements store.HierarchyStore.AttachProgram
func (s *PostgresHierarchyStore) AttachProgram(ctx context.Context, rel *domain.ProgramRelationship) error {
	if err := rel.Validate(); err != nil {
		return err
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO program_relationships (parent_program_id, attached_program_id, relationship_type, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING relationship_id`,
		rel.ParentProgramID, rel.AttachedProgramID, string(rel.Type), rel.CreatedAt,
	).Scan(&rel.ID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return store.ErrProgramNotFound
		}
		return MapError(err)
	}
	return nil
}

// ListAttachedPrograms implements store.HierarchyStore.ListAttachedPrograms
func (s *PostgresHierarchyStore) ListAttachedPrograms(ctx context.Context, parentID string) ([]*domain.Program, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.program_id, p.client_id, p.name, p.prefix, p.program_type, p.description, p.created_at
		FROM programs p
		JOIN program_relationships pr ON p.program_id = pr.attached_program_id
		WHERE pr.parent_program_id = $1
		ORDER BY p.name`, parentID)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.logger)

	programs := []*domain.Program{}
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

// CreateClinic implements store.HierarchyStore.CreateClinic
func (s *PostgresHierarchyStore) CreateClinic(ctx context.Context, clinic *domain.Clinic) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := clinic.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clinics (clinic_id, program_id, name, code, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		clinic.ID,
		clinic.ProgramID,
		clinic.Name,
		nullable(clinic.Code),
		nullable(clinic.Description),
		clinic.CreatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return store.ErrProgramNotFound
		}
		if IsUniqueViolation(err) {
			return store.ErrDuplicate
		}
		log.Error("failed to create clinic",
			slog.String("error", err.Error()),
			slog.String("clinic_id", clinic.ID))
		return MapError(err)
	}

	log.Info("clinic created",
		slog.String("clinic_id", clinic.ID),
		slog.String("program_id", clinic.ProgramID))
	return nil
}

const clinicCols = `clinic_id, program_id, name, code, description, created_at`

func scanClinic(row interface{ Scan(...any) error }) (*domain.Clinic, error) {
	var (
		c                 domain.Clinic
		code, description sql.NullString
	)
	err := row.Scan(&c.ID, &c.ProgramID, &c.Name, &code, &description, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Code = code.String
	c.Description = description.String
	return &c, nil
}

// GetClinic implements store.HierarchyStore.GetClinic
func (s *PostgresHierarchyStore) GetClinic(ctx context.Context, id string) (*domain.Clinic, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+clinicCols+` FROM clinics WHERE clinic_id = $1`, id)
	c, err := scanClinic(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrClinicNotFound
	}
	return c, err
}

// FindClinicByName implements store.HierarchyStore.FindClinicByName
func (s *PostgresHierarchyStore) FindClinicByName(ctx context.Context, programID, name string) (*domain.Clinic, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+clinicCols+` FROM clinics WHERE program_id = $1 AND name ILIKE $2`,
		programID, "%"+name+"%")
	c, err := scanClinic(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrClinicNotFound
	}
	return c, err
}

// ListClinics implements store.HierarchyStore.ListClinics
func (s *PostgresHierarchyStore) ListClinics(ctx context.Context, programID string) ([]*domain.Clinic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+clinicCols+` FROM clinics WHERE program_id = $1 ORDER BY name`, programID)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.logger)

	clinics := []*domain.Clinic{}
	for rows.Next() {
		c, err := scanClinic(rows)
		if err != nil {
			return nil, err
		}
		clinics = append(clinics, c)
	}
	return clinics, rows.Err()
}

// CreateLocation implements store.HierarchyStore.CreateLocation
func (s *PostgresHierarchyStore) CreateLocation(ctx context.Context, location *domain.Location) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := location.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO locations (location_id, clinic_id, name, code, address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		location.ID,
		location.ClinicID,
		location.Name,
		nullable(location.Code),
		nullable(location.Address),
		location.CreatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return store.ErrClinicNotFound
		}
		if IsUniqueViolation(err) {
			return store.ErrDuplicate
		}
		log.Error("failed to create location",
			slog.String("error", err.Error()),
			slog.String("location_id", location.ID))
		return MapError(err)
	}

	log.Info("location created",
		slog.String("location_id", location.ID),
		slog.String("clinic_id", location.ClinicID))
	return nil
}

const locationCols = `location_id, clinic_id, name, code, address, created_at`

func scanLocation(row interface{ Scan(...any) error }) (*domain.Location, error) {
	var (
		l             domain.Location
		code, address sql.NullString
	)
	err := row.Scan(&l.ID, &l.ClinicID, &l.Name, &code, &address, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	l.Code = code.String
	l.Address = address.String
	return &l, nil
}

// GetLocation implements store.HierarchyStore.GetLocation
func (s *PostgresHierarchyStore) GetLocation(ctx context.Context, id string) (*domain.Location, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+locationCols+` FROM locations WHERE location_id = $1`, id)
	l, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrLocationNotFound
	}
	return l, err
}

// ListLocations implements store.HierarchyStore.ListLocations
func (s *PostgresHierarchyStore) ListLocations(ctx context.Context, clinicID string) ([]*domain.Location, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+locationCols+` FROM locations WHERE clinic_id = $1 ORDER BY name`, clinicID)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.logger)

	locations := []*domain.Location{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// ListProgramLocationIDs implements store.HierarchyStore.ListProgramLocationIDs
func (s *PostgresHierarchyStore) ListProgramLocationIDs(ctx context.Context, programID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.location_id
		FROM locations l
		JOIN clinics c ON l.clinic_id = c.clinic_id
		WHERE c.program_id = $1`, programID)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.logger)

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteLocations implements store.HierarchyStore.DeleteLocations
func (s *PostgresHierarchyStore) DeleteLocations(ctx context.Context, programID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM locations
		WHERE clinic_id IN (SELECT clinic_id FROM clinics WHERE program_id = $1)`, programID)
	if err != nil {
		return 0, MapError(err)
	}
	return res.RowsAffected()
}

// DeleteClinics implements store.HierarchyStore.DeleteClinics
func (s *PostgresHierarchyStore) DeleteClinics(ctx context.Context, programID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clinics WHERE program_id = $1`, programID)
	if err != nil {
		return 0, MapError(err)
	}
	return res.RowsAffected()
}

// nullable converts an empty string to a NULL column value.
func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// levelOf reassembles the domain Level tagged union from the sparse
// clinic/location columns of a row.
func levelOf(programID string, clinicID, locationID sql.NullString) domain.Level {
	switch {
	case locationID.Valid:
		return domain.LocationLevel(programID, clinicID.String, locationID.String)
	case clinicID.Valid:
		return domain.ClinicLevel(programID, clinicID.String)
	default:
		return domain.ProgramLevel(programID)
	}
}
