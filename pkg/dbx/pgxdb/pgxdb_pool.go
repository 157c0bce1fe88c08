package pgxdb

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/marcodd23/go-stream-db/pkg/configx"
	"github.com/marcodd23/go-stream-db/pkg/dbx"
	"github.com/marcodd23/go-stream-db/pkg/errorx"
	"github.com/marcodd23/go-stream-db/pkg/logx"
	"github.com/marcodd23/go-stream-db/pkg/validator"
	"github.com/pkg/errors"
)

//###################################
//#     Postgres Pool Manager       #
//###################################

// Pool - pgxpool wrapper producing dbx connections for query executions.
type Pool struct {
	pool   *pgxpool.Pool
	dbConf configx.DatabaseConfig
}

// SetupPool - create the Postgres connection pool. The database
// configuration is validated before any connection attempt; prepared
// statements are registered on every new pooled connection.
func SetupPool(ctx context.Context, dbConf configx.DatabaseConfig, preparedStatements ...dbx.PreparedStatement) (*Pool, error) {
	if valErrors := validator.NewValidator().ValidateStruct(dbConf); len(valErrors) > 0 {
		return nil, errorx.NewConfigurationErrorWrapper(
			validator.NewValidationError(valErrors), "invalid database configuration")
	}

	poolConfig, err := createConnectionConfiguration(dbConf)
	if err != nil {
		return nil, err
	}

	// Setup prepared statements
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return setupPreparedStatements(ctx, conn, preparedStatements...)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errorx.NewDatabaseErrorWrapper(err, "Error creating New Connection Pool")
	}

	logx.
		GetLogger().
		LogInfo(ctx, fmt.Sprintf("Created new Connection Pool: DB=%s, HOST=%s, PORT=%d",
			pool.Config().ConnConfig.Database,
			pool.Config().ConnConfig.Host,
			pool.Config().ConnConfig.Port))

	return &Pool{pool: pool, dbConf: dbConf}, nil
}

func createConnectionConfiguration(dbConf configx.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, _ := pgxpool.ParseConfig("")

	poolConfig.ConnConfig.Database = dbConf.Name
	poolConfig.ConnConfig.User = dbConf.User
	poolConfig.ConnConfig.Password = dbConf.Password
	poolConfig.ConnConfig.Host = dbConf.Host
	poolConfig.ConnConfig.Port = uint16(dbConf.Port)
	poolConfig.MaxConns = dbConf.MaxConn

	return poolConfig, nil
}

func setupPreparedStatements(ctx context.Context, conn *pgx.Conn, preparedStatements ...dbx.PreparedStatement) error {
	for _, stmt := range preparedStatements {
		_, err := conn.Prepare(ctx, stmt.GetName(), stmt.GetQuery())
		if err != nil {
			return errorx.NewDatabaseErrorWrapper(err, "Failed to prepare statement '%s'", stmt.GetName())
		}
	}

	return nil
}

// GetConnectionConfig - get Db Connection config.
func (p *Pool) GetConnectionConfig() configx.DatabaseConfig {
	return p.dbConf
}

// Close - close the connection pool.
func (p *Pool) Close() {
	if p.pool != nil {
		p.pool.Close()
		logx.GetLogger().LogInfo(context.TODO(), "DB Connection Pool Successfully Closed!")
	}
}

// Connections - a lazy infinite source of plain pooled connections.
// Commit and Rollback on these connections only release the connection
// back to the pool; use TxConnections for transactional executions.
func (p *Pool) Connections() dbx.ConnSource {
	return func(ctx context.Context) (dbx.Connection, bool, error) {
		conn, err := acquireConnectionFromPool(ctx, p)
		if err != nil {
			return nil, false, err
		}

		return &PgxConnection{conn: conn}, true, nil
	}
}

// TxConnections - a lazy infinite source of transactional connections:
// each element acquires a pooled connection and begins a transaction on
// it, so the commit barrier's physical commit/rollback finalizes that
// transaction and releases the connection.
func (p *Pool) TxConnections() dbx.ConnSource {
	return func(ctx context.Context) (dbx.Connection, bool, error) {
		conn, err := acquireConnectionFromPool(ctx, p)
		if err != nil {
			return nil, false, err
		}

		tx, err := conn.Begin(ctx)
		if err != nil {
			conn.Release()
			return nil, false, errorx.NewDatabaseErrorWrapper(err, "error starting transaction")
		}

		return &PgxConnection{conn: conn, tx: tx, txId: dbx.GenerateRandomInt64Id()}, true, nil
	}
}

func acquireConnectionFromPool(ctx context.Context, p *Pool) (*pgxpool.Conn, error) {
	if p.pool == nil {
		logx.GetLogger().LogPanic(ctx, "error, Connection Pool To DB not initialized", nil)
	}

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		logx.GetLogger().LogError(ctx, "Error acquiring connection from pool", err)
		return nil, errors.Wrap(err, "Error acquiring connection from pool")
	}

	return conn, nil
}
