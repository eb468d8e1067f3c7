package storage

// IndexSchema is the SQL schema of the reference corpus index.
const IndexSchema = `
CREATE TABLE IF NOT EXISTS databooks (
    id          TEXT PRIMARY KEY,
    position    INTEGER NOT NULL,
    loaded_at   TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS tables (
    id          TEXT PRIMARY KEY,
    databook_id TEXT NOT NULL REFERENCES databooks(id) ON DELETE CASCADE,
    name        TEXT NOT NULL,
    table_no    TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    mode        TEXT NOT NULL CHECK(mode IN ('DATA', 'EQUATIONS')),
    position    INTEGER NOT NULL,
    UNIQUE(databook_id, name)
);

CREATE TABLE IF NOT EXISTS symbols (
    table_id    TEXT NOT NULL REFERENCES tables(id) ON DELETE CASCADE,
    position    INTEGER NOT NULL,
    column_name TEXT NOT NULL,
    symbol      TEXT NOT NULL,
    unit        TEXT NOT NULL DEFAULT '',
    kind        TEXT NOT NULL CHECK(kind IN ('data', 'parameter', 'return')),
    PRIMARY KEY (table_id, position, kind)
);

CREATE TABLE IF NOT EXISTS records (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    table_id    TEXT NOT NULL REFERENCES tables(id) ON DELETE CASCADE,
    row_no      INTEGER NOT NULL,
    name        TEXT NOT NULL,
    formula     TEXT NOT NULL,
    state       TEXT NOT NULL,
    available   TEXT NOT NULL DEFAULT ''
);

CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(
    name,
    formula,
    content='records',
    content_rowid='id'
);

CREATE INDEX IF NOT EXISTS idx_records_name ON records(name COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_records_formula ON records(formula);
CREATE INDEX IF NOT EXISTS idx_tables_databook ON tables(databook_id, position);
`

// IndexTriggers keep records_fts in sync with records.
const IndexTriggers = `
CREATE TRIGGER IF NOT EXISTS records_ai AFTER INSERT ON records BEGIN
    INSERT INTO records_fts(rowid, name, formula) VALUES (new.id, new.name, new.formula);
END;
CREATE TRIGGER IF NOT EXISTS records_ad AFTER DELETE ON records BEGIN
    INSERT INTO records_fts(records_fts, rowid, name, formula) VALUES('delete', old.id, old.name, old.formula);
END;
`
