package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorLiteral(t *testing.T) {
	assert.Equal(t, "[1,0.5,-0.25]", vectorLiteral([]float32{1, 0.5, -0.25}))
	assert.Equal(t, "[]", vectorLiteral(nil))
}

func TestAppendSSLMode(t *testing.T) {
	assert.Equal(t,
		"postgres://u:p@h:5432/db?sslmode=disable",
		appendSSLMode("postgres://u:p@h:5432/db"))
	assert.Equal(t,
		"postgres://u:p@h:5432/db?search_path=rag&sslmode=disable",
		appendSSLMode("postgres://u:p@h:5432/db?search_path=rag"))
	assert.Equal(t,
		"postgres://u:p@h:5432/db?sslmode=require",
		appendSSLMode("postgres://u:p@h:5432/db?sslmode=require"))
}
