//go:build cgo

package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(":memory:", cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given directory path. KuzuDB creates the leaf directory itself for new
// databases. This is what makes the knowledge index survive across sessions.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	// Ensure parent directory exists (KuzuDB creates the leaf directory).
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(dbPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open file database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Edges carry heterogeneous endpoint types (file/function/module), so they
// live in a single node table rather than per-pair REL tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS File(
		id STRING,
		path STRING,
		language STRING,
		last_indexed INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Function(
		id STRING,
		name STRING,
		file_path STRING,
		start_line INT64,
		end_line INT64,
		signature STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Module(
		id STRING,
		name STRING,
		path STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Edge(
		id SERIAL,
		from_id STRING,
		from_type STRING,
		to_id STRING,
		to_type STRING,
		kind STRING,
		source_file STRING,
		source_line INT64,
		confidence DOUBLE,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Evidence(
		id SERIAL,
		target_id STRING,
		target_type STRING,
		file_path STRING,
		content STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS ContextPack(
		id STRING,
		title STRING,
		related_files STRING[],
		invalidated BOOLEAN,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Knowledge(
		id STRING,
		target_id STRING,
		kind STRING,
		payload STRING,
		PRIMARY KEY(id)
	)`,
}

// InitSchema creates all tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// Bootstrapped reports whether the store has ever been populated. A schema
// that does not exist yet counts as not bootstrapped rather than an error.
func (s *KuzuStore) Bootstrapped(_ context.Context) (bool, error) {
	rows, err := s.query("MATCH (f:File) RETURN count(f)", nil)
	if err != nil {
		return false, nil
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return false, nil
	}
	return toInt(rows[0][0]) > 0, nil
}

// ---------- Write operations ----------

// PutFile upserts a File record.
func (s *KuzuStore) PutFile(_ context.Context, rec FileRecord) error {
	return s.exec(
		`MERGE (f:File {id: $id})
		 SET f.path = $path, f.language = $lang, f.last_indexed = $li`,
		map[string]any{
			"id":   rec.ID,
			"path": rec.Path,
			"lang": rec.Language,
			"li":   rec.LastIndexed.Unix(),
		},
	)
}

// PutFunction upserts a Function record.
func (s *KuzuStore) PutFunction(_ context.Context, rec FunctionRecord) error {
	return s.exec(
		`MERGE (fn:Function {id: $id})
		 SET fn.name = $name, fn.file_path = $fp, fn.start_line = $sl,
		     fn.end_line = $el, fn.signature = $sig`,
		map[string]any{
			"id":   rec.ID,
			"name": rec.Name,
			"fp":   rec.FilePath,
			"sl":   int64(rec.StartLine),
			"el":   int64(rec.EndLine),
			"sig":  rec.Signature,
		},
	)
}

// PutModule upserts a Module record.
func (s *KuzuStore) PutModule(_ context.Context, rec ModuleRecord) error {
	return s.exec(
		`MERGE (m:Module {id: $id}) SET m.name = $name, m.path = $path`,
		map[string]any{
			"id":   rec.ID,
			"name": rec.Name,
			"path": rec.Path,
		},
	)
}

// PutEdge inserts an Edge record.
func (s *KuzuStore) PutEdge(_ context.Context, edge GraphEdge) error {
	return s.exec(
		`CREATE (e:Edge {
			from_id: $fid, from_type: $ft,
			to_id: $tid, to_type: $tt,
			kind: $kind, source_file: $sf,
			source_line: $sl, confidence: $conf
		})`,
		map[string]any{
			"fid":  edge.FromID,
			"ft":   string(edge.FromType),
			"tid":  edge.ToID,
			"tt":   string(edge.ToType),
			"kind": string(edge.Kind),
			"sf":   edge.SourceFile,
			"sl":   int64(edge.SourceLine),
			"conf": edge.Confidence,
		},
	)
}

// PutEvidence inserts an Evidence record.
func (s *KuzuStore) PutEvidence(_ context.Context, ev EvidenceEntry) error {
	return s.exec(
		`CREATE (ev:Evidence {
			target_id: $tid, target_type: $tt,
			file_path: $fp, content: $content
		})`,
		map[string]any{
			"tid":     ev.TargetID,
			"tt":      string(ev.TargetType),
			"fp":      ev.FilePath,
			"content": ev.Content,
		},
	)
}

// PutContextPack upserts a ContextPack record.
func (s *KuzuStore) PutContextPack(_ context.Context, pack ContextPack) error {
	related := make([]any, len(pack.RelatedFiles))
	for i, f := range pack.RelatedFiles {
		related[i] = f
	}
	return s.exec(
		`MERGE (p:ContextPack {id: $id})
		 SET p.title = $title, p.related_files = $rf, p.invalidated = $inv`,
		map[string]any{
			"id":    pack.ID,
			"title": pack.Title,
			"rf":    related,
			"inv":   pack.Invalidated,
		},
	)
}

// PutUniversalKnowledge upserts an enrichment record.
func (s *KuzuStore) PutUniversalKnowledge(_ context.Context, rec UniversalKnowledge) error {
	return s.exec(
		`MERGE (k:Knowledge {id: $id})
		 SET k.target_id = $tid, k.kind = $kind, k.payload = $payload`,
		map[string]any{
			"id":      rec.ID,
			"tid":     rec.TargetID,
			"kind":    string(rec.Kind),
			"payload": rec.Payload,
		},
	)
}

// ---------- Read operations ----------

// GetFileByPath retrieves a single File record by path, or nil if not found.
func (s *KuzuStore) GetFileByPath(_ context.Context, path string) (*FileRecord, error) {
	rows, err := s.query(
		"MATCH (f:File {path: $path}) RETURN f.id, f.path, f.language, f.last_indexed",
		map[string]any{"path": path},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	r := rows[0]
	return &FileRecord{
		ID:          toString(r[0]),
		Path:        toString(r[1]),
		Language:    toString(r[2]),
		LastIndexed: time.Unix(int64(toInt(r[3])), 0),
	}, nil
}

// ListFiles returns every File record, sorted by path.
func (s *KuzuStore) ListFiles(_ context.Context) ([]FileRecord, error) {
	rows, err := s.query(
		"MATCH (f:File) RETURN f.id, f.path, f.language, f.last_indexed ORDER BY f.path",
		nil,
	)
	if err != nil {
		return nil, err
	}
	out := make([]FileRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, FileRecord{
			ID:          toString(r[0]),
			Path:        toString(r[1]),
			Language:    toString(r[2]),
			LastIndexed: time.Unix(int64(toInt(r[3])), 0),
		})
	}
	return out, nil
}

// GetFunctionsByPath returns all Function records for a file path.
func (s *KuzuStore) GetFunctionsByPath(_ context.Context, path string) ([]FunctionRecord, error) {
	rows, err := s.query(
		`MATCH (fn:Function {file_path: $fp})
		 RETURN fn.id, fn.name, fn.file_path, fn.start_line, fn.end_line, fn.signature`,
		map[string]any{"fp": path},
	)
	if err != nil {
		return nil, err
	}
	out := make([]FunctionRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, *rowToFunction(r))
	}
	return out, nil
}

// GetFunction retrieves a single Function record by ID, or nil if not found.
func (s *KuzuStore) GetFunction(_ context.Context, id string) (*FunctionRecord, error) {
	rows, err := s.query(
		`MATCH (fn:Function {id: $id})
		 RETURN fn.id, fn.name, fn.file_path, fn.start_line, fn.end_line, fn.signature`,
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToFunction(rows[0]), nil
}

// GetModuleByPath retrieves a single Module record by path, or nil if not found.
func (s *KuzuStore) GetModuleByPath(_ context.Context, path string) (*ModuleRecord, error) {
	rows, err := s.query(
		"MATCH (m:Module {path: $path}) RETURN m.id, m.name, m.path",
		map[string]any{"path": path},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	r := rows[0]
	return &ModuleRecord{ID: toString(r[0]), Name: toString(r[1]), Path: toString(r[2])}, nil
}

// GetGraphEdges returns all edges matching the filter. Kind constraints are
// pushed into Cypher; endpoint ID constraints are applied in Go because the
// filter ORs the from/to sides.
func (s *KuzuStore) GetGraphEdges(_ context.Context, filter EdgeFilter) ([]GraphEdge, error) {
	rows, err := s.query(
		`MATCH (e:Edge)
		 RETURN e.from_id, e.from_type, e.to_id, e.to_type,
		        e.kind, e.source_file, e.source_line, e.confidence`,
		nil,
	)
	if err != nil {
		return nil, err
	}
	var out []GraphEdge
	for _, r := range rows {
		edge := GraphEdge{
			FromID:     toString(r[0]),
			FromType:   EntityType(toString(r[1])),
			ToID:       toString(r[2]),
			ToType:     EntityType(toString(r[3])),
			Kind:       EdgeKind(toString(r[4])),
			SourceFile: toString(r[5]),
			SourceLine: toInt(r[6]),
			Confidence: toFloat64(r[7]),
		}
		if filter.Matches(edge) {
			out = append(out, edge)
		}
	}
	return out, nil
}

// GetEvidenceForTarget returns all Evidence records for the given entity.
func (s *KuzuStore) GetEvidenceForTarget(_ context.Context, targetID string, targetType EntityType) ([]EvidenceEntry, error) {
	rows, err := s.query(
		`MATCH (ev:Evidence {target_id: $tid, target_type: $tt})
		 RETURN ev.target_id, ev.target_type, ev.file_path, ev.content`,
		map[string]any{"tid": targetID, "tt": string(targetType)},
	)
	if err != nil {
		return nil, err
	}
	out := make([]EvidenceEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, EvidenceEntry{
			TargetID:   toString(r[0]),
			TargetType: EntityType(toString(r[1])),
			FilePath:   toString(r[2]),
			Content:    toString(r[3]),
		})
	}
	return out, nil
}

// GetContextPacks returns packs matching the filter. The related-file match
// is applied in Go to keep list semantics identical to MemStore.
func (s *KuzuStore) GetContextPacks(_ context.Context, filter PackFilter) ([]ContextPack, error) {
	rows, err := s.query(
		"MATCH (p:ContextPack) RETURN p.id, p.title, p.related_files, p.invalidated",
		nil,
	)
	if err != nil {
		return nil, err
	}
	var out []ContextPack
	for _, r := range rows {
		pack := ContextPack{
			ID:           toString(r[0]),
			Title:        toString(r[1]),
			RelatedFiles: toStringSlice(r[2]),
			Invalidated:  toBool(r[3]),
		}
		if pack.Invalidated && !filter.IncludeInvalidated {
			continue
		}
		if filter.RelatedFile != "" && !containsStr(pack.RelatedFiles, filter.RelatedFile) {
			continue
		}
		out = append(out, pack)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// GetUniversalKnowledgeByKind returns all enrichment records of the given kind.
func (s *KuzuStore) GetUniversalKnowledgeByKind(_ context.Context, kind KnowledgeKind) ([]UniversalKnowledge, error) {
	rows, err := s.query(
		`MATCH (k:Knowledge {kind: $kind})
		 RETURN k.id, k.target_id, k.kind, k.payload`,
		map[string]any{"kind": string(kind)},
	)
	if err != nil {
		return nil, err
	}
	out := make([]UniversalKnowledge, 0, len(rows))
	for _, r := range rows {
		out = append(out, UniversalKnowledge{
			ID:       toString(r[0]),
			TargetID: toString(r[1]),
			Kind:     KnowledgeKind(toString(r[2])),
			Payload:  toString(r[3]),
		})
	}
	return out, nil
}

// ---------- Stats ----------

// Stats returns counts of all record tables.
func (s *KuzuStore) Stats(_ context.Context) (*Stats, error) {
	files, err := s.countTable("File")
	if err != nil {
		return nil, err
	}
	functions, err := s.countTable("Function")
	if err != nil {
		return nil, err
	}
	modules, err := s.countTable("Module")
	if err != nil {
		return nil, err
	}
	edges, err := s.countTable("Edge")
	if err != nil {
		return nil, err
	}
	packs, err := s.countTable("ContextPack")
	if err != nil {
		return nil, err
	}
	return &Stats{
		FileCount:     files,
		FunctionCount: functions,
		ModuleCount:   modules,
		EdgeCount:     edges,
		PackCount:     packs,
	}, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// countTable returns the number of rows in a node table.
func (s *KuzuStore) countTable(table string) (int, error) {
	// Table name is a fixed internal constant, not user input.
	cypher := fmt.Sprintf("MATCH (n:%s) RETURN count(n)", table)
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// rowToFunction converts a 6-column result row into a FunctionRecord.
// Column order: id, name, file_path, start_line, end_line, signature.
func rowToFunction(r []any) *FunctionRecord {
	return &FunctionRecord{
		ID:        toString(r[0]),
		Name:      toString(r[1]),
		FilePath:  toString(r[2]),
		StartLine: toInt(r[3]),
		EndLine:   toInt(r[4]),
		Signature: toString(r[5]),
	}
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).
// These helpers safely coerce any -> concrete type.

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}

func toStringSlice(v any) []string {
	switch vs := v.(type) {
	case []string:
		return vs
	case []any:
		out := make([]string, 0, len(vs))
		for _, e := range vs {
			out = append(out, toString(e))
		}
		return out
	default:
		return nil
	}
}
