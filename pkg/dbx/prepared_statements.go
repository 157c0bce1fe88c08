package dbx

// PreparedStatement represents a prepared statement query.
//
// A PreparedStatement encapsulates a SQL query that can be prepared and executed multiple times with different arguments.
// Are typically used to improve performance by reducing the overhead of parsing and planning the SQL query
// each time it is executed.
//
// Fields:
//   - Name: A unique name identifying the prepared statement. This name is used to reference the statement when executing it.
//   - Query: The SQL query string associated with the prepared statement. The query can include placeholders for arguments.
type PreparedStatement struct {
	Name  string
	Query string
}

// NewPreparedStatement creates a new prepared statement.
func NewPreparedStatement(name, query string) PreparedStatement {
	return PreparedStatement{Name: name, Query: query}
}

// GetName returns the name of the prepared statement.
func (p PreparedStatement) GetName() string {
	return p.Name
}

// GetQuery returns the query of the prepared statement.
func (p PreparedStatement) GetQuery() string {
	return p.Query
}
