package spot

import (
	"fmt"

	"spot-analyser/internal/features"
	"spot-analyser/internal/image"
)

// DetectChannel crops field to the region bounds, detects spots in the
// crop and stores them as the region's SPOTS set for channel. Feature
// geometry is in the region's local coordinates.
func DetectChannel(region *features.Region, channel int, field *image.Field, params Params) ([]*features.Feature, error) {
	crop := field.Crop(region.Bounds())
	crop.PixelSize = region.PixelSize

	feats, err := Detect(crop, region.LocalPolygon(), params)
	if err != nil {
		return nil, fmt.Errorf("failed to detect spots in region %s channel %d: %w", region.ID, channel, err)
	}
	color := features.ChannelColor(channel)
	for _, f := range feats {
		f.Color = color
	}
	if err := region.SetFeatures(channel, features.SetSpots, feats); err != nil {
		return nil, err
	}
	return feats, nil
}
