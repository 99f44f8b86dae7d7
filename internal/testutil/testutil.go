package testutil

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vytor/pgnvault/internal/db"
)

// NewTestDB creates an in-memory catalog with all migrations applied.
func NewTestDB(t *testing.T) *sql.DB {
	database, err := db.Open(":memory:")
	require.NoError(t, err)
	return database.DB
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// SampleGame renders one small game with the given event and result.
func SampleGame(event, white, black, result string) string {
	return fmt.Sprintf("[Event %q]\n[Site \"?\"]\n[White %q]\n[Black %q]\n\n1. e4 {main line} e5\n2. Nf3 Nc6 %s\n",
		event, white, black, result)
}

// SampleBatch concatenates games separated by blank lines, cycling through
// decisive results.
func SampleBatch(n int) string {
	results := []string{"1-0", "0-1", "1/2-1/2"}
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString(SampleGame(fmt.Sprintf("Game %d", i+1), fmt.Sprintf("White %d", i%4), fmt.Sprintf("Black %d", i%3), results[i%3]))
		sb.WriteString("\n")
	}
	return sb.String()
}
