package distance

import "fmt"

// Property name parts. A pair key looks like NN_D_C_c_1-2 for the centroid
// NND from channel 1 to channel 2 (channels are numbered from 1 in keys).
const (
	PrefixCentroid    = "NN_D_C"
	PrefixEdge        = "NN_D_E"
	PrefixCentroidID  = "NN_C_ID"
	PrefixEdgeID      = "NN_E_ID"
	PrefixEdgeOverlap = "NN_E_OVL"

	SuffixMean     = "_MEAN"
	SuffixMedian   = "_MED"
	SuffixSD       = "_SD"
	SuffixFrac     = "_FRAC"
	SuffixRand     = "_RAND"
	SuffixPValue   = "_PV"
	SuffixHist     = "_HIST"
	SuffixHistBins = "_HISTBINS"
	SuffixPFAClose = "_PFA_CLOSE"
	SuffixPFAFar   = "_PFA_FAR"
)

// PairKey builds the key for prefix and the zero-based channel pair.
func PairKey(prefix string, c1, c2 int) string {
	return fmt.Sprintf("%s_c_%d-%d", prefix, c1+1, c2+1)
}
