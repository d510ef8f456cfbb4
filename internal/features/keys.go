package features

// SetSpots is the feature-set name used for detected spots.
const SetSpots = "SPOTS"

// Numeric feature keys written by spot detection. Centroids are given both
// in physical units and in pixels; intensities are background-subtracted.
const (
	KeyComX         = "COM_X"
	KeyComY         = "COM_Y"
	KeyComXPix      = "COM_X_PIX"
	KeyComYPix      = "COM_Y_PIX"
	KeyAmplitude    = "SPOT_AMPLITUDE"
	KeyMeanValue    = "SPOT_MEAN_VALUE"
	KeyArea         = "SPOT_AREA"
	KeyBackground   = "SPOT_BG_USED"
	KeySumIntensity = "SPOT_SUM_INTENSITY"
	KeyPerimeter    = "SPOT_PERIMETER"
	KeyCircularity  = "SPOT_CIRCULARITY"
	KeyID           = "SPOT_ID"
)

// KeyIntensityPix holds the per-pixel intensities ([]float64) in the order
// of Feature.ContainedPoints.
const KeyIntensityPix = "SPOT_INTENSITY_PIXELS"
