package runtime

import "github.com/aretw0/espalier/pkg/domain"

// composeInfluence converts per-layer weights and blend modes into final
// per-sample multipliers via top-down opacity stacking. Walking from the
// highest layer, an override layer takes its share of the opacity still
// unclaimed and shrinks what remains for everything below; an additive
// layer contributes its weight directly without displacing lower layers.
// The result lives in a stack-local fixed array bounded by
// domain.MaxLayers.
func composeInfluence(layers []Layer) [domain.MaxLayers]float32 {
	var inf [domain.MaxLayers]float32
	remaining := float32(1)
	for i := len(layers) - 1; i >= 0; i-- {
		w := layers[i].Weight
		switch layers[i].Mode {
		case domain.BlendAdditive:
			inf[i] = w
		default:
			inf[i] = w * remaining
			remaining *= 1 - w
		}
	}
	return inf
}

// LayerInfluence returns the composed multiplier of one layer, mainly for
// inspection and tests. Out-of-range indices are rejected at the
// boundary.
func (inst *Instance) LayerInfluence(layer int) (float32, error) {
	if layer < 0 || layer >= len(inst.layers) {
		return 0, domain.ErrLayerRange
	}
	return composeInfluence(inst.layers)[layer], nil
}
