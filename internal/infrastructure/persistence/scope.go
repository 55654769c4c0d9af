package persistence

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// errOwnerRequired is attached to queries built without an owner so they
// fail instead of reading across owners
var errOwnerRequired = errors.New("owner_id is required for scoped queries")

// OwnerScope restricts a query to rows of one owner. Repositories apply it
// directly rather than through db.Scopes so the condition order is fixed.
func OwnerScope(ownerID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if ownerID == uuid.Nil {
			_ = db.AddError(errOwnerRequired)
			return db
		}
		return db.Where("owner_id = ?", ownerID)
	}
}

// ProjectScope restricts a query to rows of one project of one owner
func ProjectScope(ownerID, projectID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return OwnerScope(ownerID)(db).Where("project_id = ?", projectID)
	}
}

// isPostgres reports whether the connection speaks the postgres dialect
func isPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns search text into a lower-case LIKE pattern matching
// it anywhere. Callers pair it with ESCAPE '\'.
func containsPattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
}
