package storage

// dialect holds the engine-specific DDL. Queries are written with "?"
// placeholders and rebound by sqlx, so only the schema differs.
type dialect struct {
	name   string
	driver Driver
	schema []string
}

var sqliteDialect = dialect{
	name:   "sqlite",
	driver: DriverSQLite,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS usuarios (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			senha_hash TEXT NOT NULL,
			perfil TEXT NOT NULL DEFAULT 'admin',
			ativo BOOLEAN NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS membros (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nome TEXT NOT NULL,
			telefone TEXT,
			endereco TEXT,
			funcao TEXT,
			data_entrada TEXT,
			observacoes TEXT,
			ativo BOOLEAN NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS contribuicoes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			membro_id INTEGER NOT NULL,
			tipo TEXT NOT NULL,
			valor REAL NOT NULL,
			data TEXT NOT NULL,
			observacoes TEXT,
			FOREIGN KEY (membro_id) REFERENCES membros(id)
		)`,
		`CREATE TABLE IF NOT EXISTS sessoes (
			token TEXT PRIMARY KEY,
			dados TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contribuicoes_data ON contribuicoes(data)`,
		`CREATE INDEX IF NOT EXISTS idx_contribuicoes_membro ON contribuicoes(membro_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessoes_expires ON sessoes(expires_at)`,
	},
}

var postgresDialect = dialect{
	name:   "postgres",
	driver: DriverPostgres,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS usuarios (
			id BIGSERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			senha_hash TEXT NOT NULL,
			perfil TEXT NOT NULL DEFAULT 'admin',
			ativo BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS membros (
			id BIGSERIAL PRIMARY KEY,
			nome TEXT NOT NULL,
			telefone TEXT,
			endereco TEXT,
			funcao TEXT,
			data_entrada TEXT,
			observacoes TEXT,
			ativo BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS contribuicoes (
			id BIGSERIAL PRIMARY KEY,
			membro_id BIGINT NOT NULL REFERENCES membros(id),
			tipo TEXT NOT NULL,
			valor DOUBLE PRECISION NOT NULL,
			data TEXT NOT NULL,
			observacoes TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS sessoes (
			token TEXT PRIMARY KEY,
			dados TEXT NOT NULL,
			expires_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contribuicoes_data ON contribuicoes(data)`,
		`CREATE INDEX IF NOT EXISTS idx_contribuicoes_membro ON contribuicoes(membro_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessoes_expires ON sessoes(expires_at)`,
	},
}
