// Package technique implements the render techniques the built-in renderers
// are assembled from. Each technique is one pass of the frame: it declares
// its shared resources and options up front and dispatches its kernels
// against the negotiated allocations every frame.
package technique

// Multiple importance sampling weights. When both the light sampler and the
// surface BRDF can generate a direction, each strategy's contribution is
// weighted by its share of the combined sampling density so neither strategy
// double-counts the other.

// BalanceHeuristic returns the MIS weight for a sample drawn from a strategy
// with density fPdf when the competing strategy has density gPdf, with nf and
// ng samples taken from each.
func BalanceHeuristic(nf int, fPdf float32, ng int, gPdf float32) float32 {
	f := float32(nf) * fPdf
	g := float32(ng) * gPdf
	if f+g == 0 {
		return 0
	}
	return f / (f + g)
}

// PowerHeuristic is the balance heuristic with both densities squared. The
// exponent-two variant suppresses low-probability outliers harder and is the
// default for the path tracing techniques.
func PowerHeuristic(nf int, fPdf float32, ng int, gPdf float32) float32 {
	f := float32(nf) * fPdf
	g := float32(ng) * gPdf
	denom := f*f + g*g
	if denom == 0 {
		return 0
	}
	return f * f / denom
}
