package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	assert.Equal(t, "spot-analyser "+Version+" (commit unknown, built unknown)", String("spot-analyser"))
}
