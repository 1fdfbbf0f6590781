package postgres

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/sajmeister/aaplat/internal/config"
	"github.com/sajmeister/aaplat/internal/types"
	"github.com/sajmeister/aaplat/internal/types/users"
)

type Postgres struct {
	Db *sql.DB
}

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.PGSQL.Host, cfg.PGSQL.Port, cfg.PGSQL.User, cfg.PGSQL.Password, cfg.PGSQL.DBName, cfg.PGSQL.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		return nil, err
	}

	log.Println("Connected to Postgres database")

	// Create tables if they don't exist
	pg := &Postgres{Db: db}
	err = pg.CreateTables()
	if err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pg, nil
}

func (p *Postgres) CreateTables() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password TEXT,
			name VARCHAR(255),
			image TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS agents (
			id TEXT PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			description TEXT,
			category VARCHAR(50) NOT NULL,
			runtime VARCHAR(50) NOT NULL CHECK (runtime IN ('python', 'nodejs', 'rust')),
			version VARCHAR(50) NOT NULL DEFAULT '1.0.0',
			user_id TEXT NOT NULL REFERENCES users(id),
			docker_image TEXT,
			source_code_url TEXT,
			config_schema TEXT,
			is_public BOOLEAN DEFAULT FALSE,
			downloads INTEGER DEFAULT 0,
			rating REAL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS deployments (
			id TEXT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			agent_id TEXT NOT NULL REFERENCES agents(id),
			user_id TEXT NOT NULL REFERENCES users(id),
			status VARCHAR(50) NOT NULL DEFAULT 'pending',
			url TEXT,
			environment TEXT,
			config TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS deployment_logs (
			id TEXT PRIMARY KEY,
			deployment_id TEXT NOT NULL REFERENCES deployments(id),
			level VARCHAR(20) NOT NULL,
			message TEXT NOT NULL,
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS agent_reviews (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL REFERENCES agents(id),
			user_id TEXT NOT NULL REFERENCES users(id),
			rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			comment TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS oauth_accounts (
			provider VARCHAR(50) NOT NULL,
			provider_account_id VARCHAR(255) NOT NULL,
			user_id TEXT NOT NULL REFERENCES users(id),
			PRIMARY KEY (provider, provider_account_id)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			expires_at TIMESTAMP NOT NULL
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS verification_tokens (
			identifier VARCHAR(255) NOT NULL,
			token TEXT NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			PRIMARY KEY (identifier, token)
		);
		`,
	}

	for _, q := range queries {
		if _, err := p.Db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

func (p *Postgres) CreateUser(email, passwordHash, name string) (string, error) {
	userID := uuid.New().String()
	query := `
	INSERT INTO users (id, email, password, name)
	VALUES ($1, $2, $3, $4)
	`

	_, err := p.Db.Exec(query, userID, email, passwordHash, name)
	if err != nil {
		return "", err
	}

	return userID, nil
}

func (p *Postgres) GetUserByEmail(email string) (string, string, error) {
	var userID string
	var hashedPassword sql.NullString
	query := `
	SELECT id, password FROM users WHERE email = $1
	`

	err := p.Db.QueryRow(query, email).Scan(&userID, &hashedPassword)
	if err != nil {
		return "", "", err
	}

	return userID, hashedPassword.String, nil
}

func (p *Postgres) GetUserByID(id string) (users.User, error) {
	var u users.User
	var name, image sql.NullString
	var createdAt, updatedAt time.Time
	query := `
	SELECT id, email, name, image, created_at, updated_at FROM users WHERE id = $1
	`

	err := p.Db.QueryRow(query, id).Scan(&u.ID, &u.Email, &name, &image, &createdAt, &updatedAt)
	if err != nil {
		return users.User{}, err
	}

	u.Name = name.String
	u.Image = image.String
	u.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	u.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)

	return u, nil
}

// UpsertOAuthUser resolves an OAuth profile to a local user, creating the
// user row and the provider account link on first login.
func (p *Postgres) UpsertOAuthUser(profile users.Profile) (string, error) {
	var userID string

	query := `
	SELECT user_id FROM oauth_accounts WHERE provider = $1 AND provider_account_id = $2
	`
	err := p.Db.QueryRow(query, profile.Provider, profile.AccountID).Scan(&userID)
	if err == nil {
		return userID, nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}

	// First login with this provider account. Reuse an existing user row
	// with the same verified email, otherwise create a fresh one.
	err = p.Db.QueryRow(`SELECT id FROM users WHERE email = $1`, profile.Email).Scan(&userID)
	if err == sql.ErrNoRows {
		userID = uuid.New().String()
		_, err = p.Db.Exec(`INSERT INTO users (id, email, name, image) VALUES ($1, $2, $3, $4)`,
			userID, profile.Email, profile.Name, profile.Image)
		if err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}

	_, err = p.Db.Exec(`
	INSERT INTO oauth_accounts (provider, provider_account_id, user_id)
	VALUES ($1, $2, $3)
	ON CONFLICT (provider, provider_account_id) DO NOTHING`,
		profile.Provider, profile.AccountID, userID)
	if err != nil {
		return "", err
	}

	return userID, nil
}

func (p *Postgres) CreateAgent(agent types.Agent) (types.Agent, error) {
	if agent.Version == "" {
		agent.Version = "1.0.0"
	}

	query := `
	INSERT INTO agents (id, name, description, category, runtime, version, user_id,
		docker_image, source_code_url, config_schema, is_public)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING downloads, rating, created_at, updated_at
	`

	err := p.Db.QueryRow(query,
		agent.ID, agent.Name, agent.Description, agent.Category, agent.Runtime,
		agent.Version, agent.UserID, nullable(agent.DockerImage),
		nullable(agent.SourceCodeURL), nullable(agent.ConfigSchema), agent.IsPublic,
	).Scan(&agent.Downloads, &agent.Rating, &agent.CreatedAt, &agent.UpdatedAt)
	if err != nil {
		return types.Agent{}, err
	}

	return agent, nil
}

func (p *Postgres) GetAgentByID(id string) (types.Agent, error) {
	query := agentSelect + ` WHERE id = $1`

	row := p.Db.QueryRow(query, id)
	return scanAgent(row)
}

// ListAgents returns a page of agents matching the query plus the total
// match count for pagination metadata.
func (p *Postgres) ListAgents(q types.AgentQuery) ([]types.Agent, int, error) {
	var conditions []string
	var args []interface{}

	addCondition := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if q.Category != "" {
		addCondition("category = $%d", string(q.Category))
	}
	if q.Runtime != "" {
		addCondition("runtime = $%d", string(q.Runtime))
	}
	if q.UserID != "" {
		addCondition("user_id = $%d", q.UserID)
	}
	if q.IsPublic != nil {
		addCondition("is_public = $%d", *q.IsPublic)
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		conditions = append(conditions,
			fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	err := p.Db.QueryRow(`SELECT COUNT(*) FROM agents`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	offset := (q.Page - 1) * q.Limit
	args = append(args, q.Limit, offset)
	query := fmt.Sprintf("%s%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		agentSelect, where, len(args)-1, len(args))

	rows, err := p.Db.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	agents := []types.Agent{}
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, 0, err
		}
		agents = append(agents, agent)
	}

	return agents, total, rows.Err()
}

func (p *Postgres) IncrementDownloads(agentID string) error {
	result, err := p.Db.Exec(`
	UPDATE agents SET downloads = downloads + 1, updated_at = CURRENT_TIMESTAMP
	WHERE id = $1`, agentID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// ListAgentsCreatedBefore returns every agent older than the cutoff, used
// by the reconcile worker to find records whose file upload never landed.
func (p *Postgres) ListAgentsCreatedBefore(cutoff time.Time) ([]types.Agent, error) {
	rows, err := p.Db.Query(agentSelect+` WHERE created_at < $1 ORDER BY created_at`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []types.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}

	return agents, rows.Err()
}

func (p *Postgres) CreateReview(review types.AgentReview) (string, error) {
	reviewID := uuid.New().String()

	tx, err := p.Db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
	INSERT INTO agent_reviews (id, agent_id, user_id, rating, comment)
	VALUES ($1, $2, $3, $4, $5)`,
		reviewID, review.AgentID, review.UserID, review.Rating, nullable(review.Comment))
	if err != nil {
		return "", err
	}

	// Keep the denormalized average on the agent row in sync
	_, err = tx.Exec(`
	UPDATE agents SET rating = (
		SELECT AVG(rating)::REAL FROM agent_reviews WHERE agent_id = $1
	), updated_at = CURRENT_TIMESTAMP
	WHERE id = $1`, review.AgentID)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	return reviewID, nil
}

func (p *Postgres) ListReviews(agentID string) ([]types.AgentReview, error) {
	rows, err := p.Db.Query(`
	SELECT id, agent_id, user_id, rating, comment, created_at
	FROM agent_reviews WHERE agent_id = $1 ORDER BY created_at DESC`, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []types.AgentReview{}
	for rows.Next() {
		var r types.AgentReview
		var comment sql.NullString
		err := rows.Scan(&r.ID, &r.AgentID, &r.UserID, &r.Rating, &comment, &r.CreatedAt)
		if err != nil {
			return nil, err
		}
		r.Comment = comment.String
		reviews = append(reviews, r)
	}

	return reviews, rows.Err()
}

const agentSelect = `
	SELECT id, name, description, category, runtime, version, user_id,
		docker_image, source_code_url, config_schema, is_public,
		downloads, rating, created_at, updated_at
	FROM agents`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAgent(row rowScanner) (types.Agent, error) {
	var a types.Agent
	var description, dockerImage, sourceCodeURL, configSchema sql.NullString

	err := row.Scan(&a.ID, &a.Name, &description, &a.Category, &a.Runtime,
		&a.Version, &a.UserID, &dockerImage, &sourceCodeURL, &configSchema,
		&a.IsPublic, &a.Downloads, &a.Rating, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return types.Agent{}, err
	}

	a.Description = description.String
	a.DockerImage = dockerImage.String
	a.SourceCodeURL = sourceCodeURL.String
	a.ConfigSchema = configSchema.String

	return a, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
