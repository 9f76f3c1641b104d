package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
)

func TestRegistry_SearchOrder(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("base", ports.StaticClips{"idle": 1.5, "walk": 1})
	r.Register("dlc", ports.StaticClips{"walk": 2, "dash": 0.5})

	assert.Equal(t, []string{"base", "dlc"}, r.Banks())
	assert.Equal(t, 1.5, r.ClipDuration("idle"))
	assert.Equal(t, 1.0, r.ClipDuration("walk"), "first bank wins")
	assert.Equal(t, 0.5, r.ClipDuration("dash"))
	assert.Equal(t, 0.0, r.ClipDuration("missing"))
}

func TestRegistry_ReplaceKeepsOrder(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("base", ports.StaticClips{"idle": 1})
	r.Register("dlc", ports.StaticClips{"idle": 2})
	r.Register("base", ports.StaticClips{"idle": 3})

	assert.Equal(t, []string{"base", "dlc"}, r.Banks())
	assert.Equal(t, 3.0, r.ClipDuration("idle"))
}

func TestRegistry_Unregister(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("base", ports.StaticClips{"idle": 1})
	r.Register("dlc", ports.StaticClips{"idle": 2})

	r.Unregister("base")
	assert.Equal(t, []string{"dlc"}, r.Banks())
	assert.Equal(t, 2.0, r.ClipDuration("idle"))

	r.Unregister("ghost") // no-op
	assert.Equal(t, []string{"dlc"}, r.Banks())
}
