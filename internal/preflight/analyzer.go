package preflight

import (
	"strings"
	"sync"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver" // required to register TiDB parser driver implementations
)

type alterTableSpecEffect struct {
	blocking          bool
	destructive       bool
	destructiveReason string
	blockingReason    string
}

var alterTableSpecEffects = map[ast.AlterTableType]alterTableSpecEffect{
	ast.AlterTableAddColumns: {
		blocking:       true,
		blockingReason: "ADD COLUMN may require a table rebuild depending on MySQL version and column position",
	},
	ast.AlterTableDropColumn: {
		blocking:          true,
		destructive:       true,
		destructiveReason: "DROP COLUMN will permanently delete the column and its data",
		blockingReason:    "DROP COLUMN typically requires a full table rebuild and will lock the table",
	},
	ast.AlterTableModifyColumn: {
		blocking:       true,
		blockingReason: "MODIFY COLUMN may require a table rebuild if changing column type or size",
	},
	ast.AlterTableChangeColumn: {
		blocking:       true,
		blockingReason: "CHANGE COLUMN may require a table rebuild",
	},
	ast.AlterTableDropIndex: {
		blocking:       true,
		blockingReason: "DROP INDEX may briefly lock the table",
	},
	ast.AlterTableDropPrimaryKey: {
		blocking:          true,
		destructive:       true,
		destructiveReason: "DROP PRIMARY KEY removes the row identity of the table",
		blockingReason:    "DROP PRIMARY KEY requires a full table rebuild and will lock the table",
	},
}

// Analysis contains the results of analyzing one SQL statement.
type Analysis struct {
	StatementType     string
	IsBlocking        bool
	BlockingReasons   []string
	IsDestructive     bool
	DestructiveReason string
}

// Analyzer classifies statements with TiDB's AST parser. It is safe for
// concurrent use.
type Analyzer struct {
	mu     sync.Mutex
	parser *parser.Parser
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		parser: parser.New(),
	}
}

// Analyze parses a single SQL statement. Statements the parser rejects are
// reported as UNPARSEABLE and are neither blocking nor destructive.
func (a *Analyzer) Analyze(sql string) *Analysis {
	a.mu.Lock()
	stmtNodes, _, err := a.parser.Parse(sql, "", "")
	a.mu.Unlock()
	if err != nil {
		return &Analysis{StatementType: "UNPARSEABLE"}
	}
	if len(stmtNodes) == 0 {
		return &Analysis{}
	}

	analysis := &Analysis{}
	for _, node := range stmtNodes {
		analyzeNode(node, analysis)
	}
	return analysis
}

func analyzeNode(node ast.StmtNode, analysis *Analysis) {
	switch stmt := node.(type) {
	case *ast.DropTableStmt:
		analysis.setType("DROP TABLE")
		analysis.destroy("DROP TABLE will permanently delete the table and all its data")
	case *ast.DropDatabaseStmt:
		analysis.setType("DROP DATABASE")
		analysis.destroy("DROP DATABASE will permanently delete the entire database")
	case *ast.TruncateTableStmt:
		analysis.setType("TRUNCATE TABLE")
		analysis.destroy("TRUNCATE TABLE will delete all rows from the table")
		analysis.block("TRUNCATE TABLE acquires an exclusive lock and removes all data instantly")
	case *ast.DropIndexStmt:
		analysis.setType("DROP INDEX")
		analysis.block("DROP INDEX may briefly lock the table")
	case *ast.CreateIndexStmt:
		analysis.setType("CREATE INDEX")
		analysis.block("CREATE INDEX may lock the table for the duration of index creation")
	case *ast.CreateTableStmt:
		analysis.setType("CREATE TABLE")
	case *ast.RenameTableStmt:
		analysis.setType("RENAME TABLE")
		analysis.block("RENAME TABLE acquires an exclusive lock but is typically fast")
	case *ast.AlterTableStmt:
		analysis.setType("ALTER TABLE")
		for _, spec := range stmt.Specs {
			analyzeAlterTableSpec(spec, analysis)
		}
	case *ast.SelectStmt:
		analysis.setType("SELECT")
	case *ast.InsertStmt:
		analysis.setType("INSERT")
	case *ast.UpdateStmt:
		analysis.setType("UPDATE")
	case *ast.DeleteStmt:
		analysis.setType("DELETE")
	default:
		analysis.setType("OTHER")
	}
}

func analyzeAlterTableSpec(spec *ast.AlterTableSpec, analysis *Analysis) {
	if spec.Tp == ast.AlterTableAddConstraint {
		analysis.block("ADD INDEX may lock the table for the duration of index creation on large tables")
		return
	}

	effect, ok := alterTableSpecEffects[spec.Tp]
	if !ok {
		return
	}
	if effect.destructive {
		analysis.destroy(effect.destructiveReason)
	}
	if effect.blocking {
		analysis.block(effect.blockingReason)
	}
}

func (a *Analysis) setType(t string) {
	if a.StatementType == "" {
		a.StatementType = t
	}
}

func (a *Analysis) destroy(reason string) {
	a.IsDestructive = true
	if a.DestructiveReason == "" {
		a.DestructiveReason = reason
	}
}

func (a *Analysis) block(reason string) {
	a.IsBlocking = true
	for _, r := range a.BlockingReasons {
		if strings.EqualFold(r, reason) {
			return
		}
	}
	a.BlockingReasons = append(a.BlockingReasons, reason)
}
