package reference

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/workflow-service/internal/domain"
)

func TestNextPrefixesByKind(t *testing.T) {
	g := NewGenerator()

	assert.True(t, strings.HasPrefix(g.Next(domain.KindBatch), "BRD-"))
	assert.True(t, strings.HasPrefix(g.Next(domain.KindComplaint), "REC-"))
}

func TestNextIsUnique(t *testing.T) {
	g := NewGenerator()

	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		ref := g.Next(domain.KindBatch)
		_, dup := seen[ref]
		assert.False(t, dup, "duplicate reference %s", ref)
		seen[ref] = struct{}{}
	}
}
