package reference

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sony/sonyflake"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// Generator produces human-readable reference codes. Codes are unique by
// construction (sonyflake) but the engine still enforces uniqueness at save.
type Generator struct {
	sf *sonyflake.Sonyflake
}

// NewGenerator constructs a generator with default sonyflake settings.
func NewGenerator() *Generator {
	return &Generator{sf: sonyflake.NewSonyflake(sonyflake.Settings{})}
}

func prefixFor(kind domain.Kind) string {
	if kind == domain.KindComplaint {
		return "REC"
	}
	return "BRD"
}

// Next returns a new reference code for the kind, e.g. BRD-1A2B3C4D.
func (g *Generator) Next(kind domain.Kind) string {
	if g != nil && g.sf != nil {
		if id, err := g.sf.NextID(); err == nil {
			return prefixFor(kind) + "-" + strings.ToUpper(strconv.FormatUint(id, 36))
		}
	}
	// sonyflake is unavailable on hosts without a private IP; fall back to
	// a uuid-derived code.
	return prefixFor(kind) + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
