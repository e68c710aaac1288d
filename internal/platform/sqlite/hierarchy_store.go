package sqlite

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

// SQLiteHierarchyStore implements the store.HierarchyStore interface
// using a SQLite database as the storage backend.
type SQLiteHierarchyStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSQLiteHierarchyStore creates a new SQLite implementation of the
// HierarchyStore interface. If logger is nil, a default logger is used.
func NewSQLiteHierarchyStore(db store.DBTX, logger *slog.Logger) *SQLiteHierarchyStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteHierarchyStore{
		db:     db,
		logger: logger.With(slog.String("component", "hierarchy_store")),
	}
}

// Ensure SQLiteHierarchyStore implements store.HierarchyStore
var _ store.HierarchyStore = (*SQLiteHierarchyStore)(nil)

// WithTx implements store.HierarchyStore.WithTx
func (s *SQLiteHierarchyStore) WithTx(tx *sql.Tx) store.HierarchyStore {
	return &SQLiteHierarchyStore{db: tx, logger: s.logger}
}

// CreateProgram implements store.HierarchyStore.CreateProgram
func (s *SQLiteHierarchyStore) CreateProgram(ctx context.Context, program *domain.Program) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := program.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO programs (program_id, client_id, name, prefix, program_type, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		program.ID,
		nullable(program.ClientID),
		program.Name,
		program.Prefix,
		string(program.Type),
		nullable(program.Description),
		formatTime(program.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		log.Error("failed to create program",
			slog.String("error", err.Error()),
			slog.String("program_id", program.ID))
		return err
	}

	log.Info("program created",
		slog.String("program_id", program.ID),
		slog.String("name", program.Name))
	return nil
}

const programCols = `program_id, client_id, name, prefix, program_type, description, created_at`

func scanProgram(row interface{ Scan(...any) error }) (*domain.Program, error) {
	var (
		p                      domain.Program
		clientID, description  sql.NullString
		programType, createdAt string
	)
	err := row.Scan(&p.ID, &clientID, &p.Name, &p.Prefix, &programType, &description, &createdAt)
	if err != nil {
		return nil, err
	}
	p.ClientID = clientID.String
	p.Description = description.String
	p.Type = domain.ProgramType(programType)
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

// GetProgram implements store.HierarchyStore.GetProgram
func (s *SQLiteHierarchyStore) GetProgram(ctx context.Context, id string) (*domain.Program, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+programCols+` FROM programs WHERE program_id = ?`, id)
	p, err := scanProgram(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrProgramNotFound
	}
	return p, err
}

// FindProgram implements store.HierarchyStore.FindProgram.
// Tries exact prefix, exact name, then case-insensitive partial name, so
// callers may pass whichever identifier they remember.
func (s *SQLiteHierarchyStore) FindProgram(ctx context.Context, identifier string) (*domain.Program, error) {
	queries := []struct {
		sql string
		arg string
	}{
		{`SELECT ` + programCols + ` FROM programs WHERE prefix = ?`, strings.ToUpper(identifier)},
		{`SELECT ` + programCols + ` FROM programs WHERE name = ?`, identifier},
		{`SELECT ` + programCols + ` FROM programs WHERE LOWER(name) LIKE LOWER(?)`, "%" + identifier + "%"},
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
func (s *SQLiteHierarchyStore) AttachProgram(ctx context.Context, rel *domain.ProgramRelationship) error {
	if err := rel.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO program_relationships (parent_program_id, attached_program_id, relationship_type, created_at)
		VALUES (?, ?, ?, ?)`,
		rel.ParentProgramID, rel.AttachedProgramID, string(rel.Type), formatTime(rel.CreatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrProgramNotFound
		}
		return err
	}
	rel.ID, err = res.LastInsertId()
	return err
}

// ListAttachedPrograms implements store.HierarchyStore.ListAttachedPrograms
func (s *SQLiteHierarchyStore) ListAttachedPrograms(ctx context.Context, parentID string) ([]*domain.Program, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.program_id, p.client_id, p.name, p.prefix, p.program_type, p.description, p.created_at
		FROM programs p
		JOIN program_relationships pr ON p.program_id = pr.attached_program_id
		WHERE pr.parent_program_id = ?
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
func (s *SQLiteHierarchyStore) CreateClinic(ctx context.Context, clinic *domain.Clinic) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := clinic.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clinics (clinic_id, program_id, name, code, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		clinic.ID,
		clinic.ProgramID,
		clinic.Name,
		nullable(clinic.Code),
		nullable(clinic.Description),
		formatTime(clinic.CreatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrProgramNotFound
		}
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		log.Error("failed to create clinic",
			slog.String("error", err.Error()),
			slog.String("clinic_id", clinic.ID))
		return err
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
		createdAt         string
	)
	err := row.Scan(&c.ID, &c.ProgramID, &c.Name, &code, &description, &createdAt)
	if err != nil {
		return nil, err
	}
	c.Code = code.String
	c.Description = description.String
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

// GetClinic implements store.HierarchyStore.GetClinic
func (s *SQLiteHierarchyStore) GetClinic(ctx context.Context, id string) (*domain.Clinic, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+clinicCols+` FROM clinics WHERE clinic_id = ?`, id)
	c, err := scanClinic(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrClinicNotFound
	}
	return c, err
}

// FindClinicByName implements store.HierarchyStore.FindClinicByName
func (s *SQLiteHierarchyStore) FindClinicByName(ctx context.Context, programID, name string) (*domain.Clinic, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+clinicCols+` FROM clinics WHERE program_id = ? AND LOWER(name) LIKE LOWER(?)`,
		programID, "%"+name+"%")
	c, err := scanClinic(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrClinicNotFound
	}
	return c, err
}

// ListClinics implements store.HierarchyStore.ListClinics
func (s *SQLiteHierarchyStore) ListClinics(ctx context.Context, programID string) ([]*domain.Clinic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+clinicCols+` FROM clinics WHERE program_id = ? ORDER BY name`, programID)
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
func (s *SQLiteHierarchyStore) CreateLocation(ctx context.Context, location *domain.Location) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := location.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO locations (location_id, clinic_id, name, code, address, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		location.ID,
		location.ClinicID,
		location.Name,
		nullable(location.Code),
		nullable(location.Address),
		formatTime(location.CreatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrClinicNotFound
		}
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		log.Error("failed to create location",
			slog.String("error", err.Error()),
			slog.String("location_id", location.ID))
		return err
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
		createdAt     string
	)
	err := row.Scan(&l.ID, &l.ClinicID, &l.Name, &code, &address, &createdAt)
	if err != nil {
		return nil, err
	}
	l.Code = code.String
	l.Address = address.String
	l.CreatedAt = parseTime(createdAt)
	return &l, nil
}

// GetLocation implements store.HierarchyStore.GetLocation
func (s *SQLiteHierarchyStore) GetLocation(ctx context.Context, id string) (*domain.Location, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+locationCols+` FROM locations WHERE location_id = ?`, id)
	l, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrLocationNotFound
	}
	return l, err
}

// ListLocations implements store.HierarchyStore.ListLocations
func (s *SQLiteHierarchyStore) ListLocations(ctx context.Context, clinicID string) ([]*domain.Location, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+locationCols+` FROM locations WHERE clinic_id = ? ORDER BY name`, clinicID)
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
func (s *SQLiteHierarchyStore) ListProgramLocationIDs(ctx context.Context, programID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.location_id
		FROM locations l
		JOIN clinics c ON l.clinic_id = c.clinic_id
		WHERE c.program_id = ?`, programID)
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
func (s *SQLiteHierarchyStore) DeleteLocations(ctx context.Context, programID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM locations
		WHERE clinic_id IN (SELECT clinic_id FROM clinics WHERE program_id = ?)`, programID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteClinics implements store.HierarchyStore.DeleteClinics
func (s *SQLiteHierarchyStore) DeleteClinics(ctx context.Context, programID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clinics WHERE program_id = ?`, programID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
