package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	"docgen/internal/entity"
	"docgen/internal/registry"
)

// SQLiteStore persists the structural model so dump and reporting runs
// don't need to re-parse the project.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS files (
			ufid TEXT PRIMARY KEY,
			package TEXT,
			imports JSON
		);`,
		`CREATE TABLE IF NOT EXISTS classes (
			ucid TEXT PRIMARY KEY,
			file_ufid TEXT,
			parent_ucid TEXT,
			kind TEXT,
			identifier TEXT,
			signature TEXT,
			body TEXT,
			superclass TEXT,
			interfaces JSON,
			type_params JSON,
			constants JSON,
			description TEXT,
			confidence INTEGER,
			annotate_err TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS methods (
			umid TEXT PRIMARY KEY,
			class_ucid TEXT,
			identifier TEXT,
			return_type TEXT,
			parameters JSON,
			arity INTEGER,
			signature TEXT,
			body TEXT,
			body_hash TEXT,
			line INTEGER,
			dependencies JSON,
			unresolved JSON,
			description TEXT,
			confidence INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS fields (
			class_ucid TEXT,
			identifier TEXT,
			name TEXT,
			type TEXT,
			signature TEXT,
			value TEXT,
			PRIMARY KEY (class_ucid, identifier)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_classes_file ON classes(file_ufid);`,
		`CREATE INDEX IF NOT EXISTS idx_methods_class ON methods(class_ucid);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveProject upserts the whole entity tree inside one transaction.
func (s *SQLiteStore) SaveProject(ctx context.Context, files []*entity.File) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	fileStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO files (ufid, package, imports) VALUES (?, ?, ?)
		ON CONFLICT(ufid) DO UPDATE SET package=excluded.package, imports=excluded.imports
	`)
	if err != nil {
		return err
	}
	defer fileStmt.Close()

	classStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO classes (ucid, file_ufid, parent_ucid, kind, identifier, signature, body,
			superclass, interfaces, type_params, constants, description, confidence, annotate_err)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ucid) DO UPDATE SET
			file_ufid=excluded.file_ufid,
			parent_ucid=excluded.parent_ucid,
			kind=excluded.kind,
			identifier=excluded.identifier,
			signature=excluded.signature,
			body=excluded.body,
			superclass=excluded.superclass,
			interfaces=excluded.interfaces,
			type_params=excluded.type_params,
			constants=excluded.constants,
			description=excluded.description,
			confidence=excluded.confidence,
			annotate_err=excluded.annotate_err
	`)
	if err != nil {
		return err
	}
	defer classStmt.Close()

	methodStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO methods (umid, class_ucid, identifier, return_type, parameters, arity,
			signature, body, body_hash, line, dependencies, unresolved, description, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(umid) DO UPDATE SET
			class_ucid=excluded.class_ucid,
			identifier=excluded.identifier,
			return_type=excluded.return_type,
			parameters=excluded.parameters,
			arity=excluded.arity,
			signature=excluded.signature,
			body=excluded.body,
			body_hash=excluded.body_hash,
			line=excluded.line,
			dependencies=excluded.dependencies,
			unresolved=excluded.unresolved,
			description=excluded.description,
			confidence=excluded.confidence
	`)
	if err != nil {
		return err
	}
	defer methodStmt.Close()

	fieldStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fields (class_ucid, identifier, name, type, signature, value)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(class_ucid, identifier) DO UPDATE SET
			name=excluded.name, type=excluded.type,
			signature=excluded.signature, value=excluded.value
	`)
	if err != nil {
		return err
	}
	defer fieldStmt.Close()

	for _, f := range files {
		imports, _ := json.Marshal(f.Imports)
		if _, err := fileStmt.Exec(f.UFID, f.Package, imports); err != nil {
			return err
		}
		for _, c := range f.Classes {
			if err := saveClass(classStmt, methodStmt, fieldStmt, c, f.UFID, ""); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func saveClass(classStmt, methodStmt, fieldStmt *sql.Stmt, c *entity.Class, ufid, parent string) error {
	interfaces, _ := json.Marshal(c.Interfaces)
	typeParams, _ := json.Marshal(c.TypeParams)
	constants, _ := json.Marshal(c.Constants)

	if _, err := classStmt.Exec(c.UCID, ufid, parent, string(c.Kind), c.Identifier, c.Signature,
		c.Body, c.Superclass, interfaces, typeParams, constants,
		c.Description, c.Confidence, c.AnnotateErr); err != nil {
		return err
	}

	for _, m := range c.SortedMethods() {
		params, _ := json.Marshal(m.Parameters)
		deps, _ := json.Marshal(m.Dependencies)
		unresolved, _ := json.Marshal(m.Unresolved)
		if _, err := methodStmt.Exec(m.UMID, m.ClassUCID, m.Identifier, m.ReturnType,
			params, m.Arity, m.Signature, m.Body, m.BodyHash, m.Line,
			deps, unresolved, m.Description, m.Confidence); err != nil {
			return err
		}
	}

	for _, fld := range c.SortedFields() {
		if _, err := fieldStmt.Exec(c.UCID, fld.Identifier, fld.Name, fld.Type,
			fld.Signature, fld.Value); err != nil {
			return err
		}
	}

	for _, nested := range c.SortedNested() {
		if err := saveClass(classStmt, methodStmt, fieldStmt, nested, ufid, c.UCID); err != nil {
			return err
		}
	}
	return nil
}

// LoadProject rebuilds the entity tree from the database, registers every
// method into reg and re-links resolved dependency references.
func (s *SQLiteStore) LoadProject(ctx context.Context, reg *registry.Registry) ([]*entity.File, error) {
	files := make(map[string]*entity.File)
	rows, err := s.db.QueryContext(ctx, "SELECT ufid, package, imports FROM files")
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		f := &entity.File{}
		var imports []byte
		if err := rows.Scan(&f.UFID, &f.Package, &imports); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		_ = json.Unmarshal(imports, &f.Imports)
		files[f.UFID] = f
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	type classRow struct {
		class  *entity.Class
		ufid   string
		parent string
	}
	classes := make(map[string]classRow)
	classRows, err := s.db.QueryContext(ctx, `
		SELECT ucid, file_ufid, parent_ucid, kind, identifier, signature, body,
			superclass, interfaces, type_params, constants, description, confidence, annotate_err
		FROM classes
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query classes: %w", err)
	}
	defer classRows.Close()
	for classRows.Next() {
		var row classRow
		var kind string
		var interfaces, typeParams, constants []byte
		c := entity.NewClass("", "", entity.KindClass)
		if err := classRows.Scan(&c.UCID, &row.ufid, &row.parent, &kind, &c.Identifier,
			&c.Signature, &c.Body, &c.Superclass, &interfaces, &typeParams, &constants,
			&c.Description, &c.Confidence, &c.AnnotateErr); err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		c.Kind = entity.Kind(kind)
		_ = json.Unmarshal(interfaces, &c.Interfaces)
		_ = json.Unmarshal(typeParams, &c.TypeParams)
		_ = json.Unmarshal(constants, &c.Constants)
		row.class = c
		classes[c.UCID] = row
	}
	if err := classRows.Err(); err != nil {
		return nil, err
	}

	// Attach classes to their owners now that every class is loaded.
	for _, row := range classes {
		if row.parent != "" {
			if parent, ok := classes[row.parent]; ok {
				parent.class.Nested[row.class.UCID] = row.class
				continue
			}
		}
		if f, ok := files[row.ufid]; ok {
			f.Classes = append(f.Classes, row.class)
		}
	}

	methodRows, err := s.db.QueryContext(ctx, `
		SELECT umid, class_ucid, identifier, return_type, parameters, arity,
			signature, body, body_hash, line, dependencies, unresolved, description, confidence
		FROM methods
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query methods: %w", err)
	}
	defer methodRows.Close()
	var methods []*entity.Method
	for methodRows.Next() {
		m := &entity.Method{}
		var params, deps, unresolved []byte
		if err := methodRows.Scan(&m.UMID, &m.ClassUCID, &m.Identifier, &m.ReturnType,
			&params, &m.Arity, &m.Signature, &m.Body, &m.BodyHash, &m.Line,
			&deps, &unresolved, &m.Description, &m.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan method: %w", err)
		}
		_ = json.Unmarshal(params, &m.Parameters)
		_ = json.Unmarshal(deps, &m.Dependencies)
		_ = json.Unmarshal(unresolved, &m.Unresolved)
		m.ScopedID = m.ClassUCID + "." + m.Identifier
		if row, ok := classes[m.ClassUCID]; ok {
			row.class.Methods[m.UMID] = m
		}
		reg.Register(m)
		methods = append(methods, m)
	}
	if err := methodRows.Err(); err != nil {
		return nil, err
	}

	// Re-link dependency targets against the freshly populated registry.
	for _, m := range methods {
		for i := range m.Dependencies {
			if target, ok := reg.ByUMID(m.Dependencies[i].TargetID); ok {
				m.Dependencies[i].Target = target
			}
		}
	}

	fieldRows, err := s.db.QueryContext(ctx, "SELECT class_ucid, identifier, name, type, signature, value FROM fields")
	if err != nil {
		return nil, fmt.Errorf("failed to query fields: %w", err)
	}
	defer fieldRows.Close()
	for fieldRows.Next() {
		var ucid string
		fld := &entity.Field{}
		if err := fieldRows.Scan(&ucid, &fld.Identifier, &fld.Name, &fld.Type, &fld.Signature, &fld.Value); err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		if row, ok := classes[ucid]; ok {
			row.class.Fields[fld.Identifier] = fld
		}
	}
	if err := fieldRows.Err(); err != nil {
		return nil, err
	}

	out := make([]*entity.File, 0, len(files))
	for _, f := range files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UFID < out[j].UFID })
	return out, nil
}
