package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunLogTableDDLPorDriver(t *testing.T) {
	mysql := runLogTableDDL("mysql")
	assert.Contains(t, mysql, "id INT AUTO_INCREMENT PRIMARY KEY")
	assert.NotContains(t, mysql, "AUTOINCREMENT")

	snowflake := runLogTableDDL("snowflake")
	assert.Contains(t, snowflake, "id INTEGER AUTOINCREMENT PRIMARY KEY")
	assert.NotContains(t, snowflake, "AUTO_INCREMENT")
}
