package govee

import (
	"context"
	"errors"
	"slices"
)

// needsScenes reports whether d lists a dynamic scene capability without options, which is how the device list
// reports scenes that have to be fetched separately.
func needsScenes(d Device) bool {
	return slices.ContainsFunc(d.Capabilities, func(c Capability) bool {
		return c.Type == CapabilityDynamicScene && len(c.Parameters.Options) == 0
	})
}

// FillScenes fetches the scene and DIY scene lists of d when its device list entry left them empty and merges them into
// a copy of d. Both lists are attempted, a failure of one does not discard the other.
func (c *Client) FillScenes(ctx context.Context, d Device) (Device, error) {
	if !needsScenes(d) {
		return d, nil
	}

	scenes, sErr := c.Scenes(ctx, d)
	diy, dErr := c.DIYScenes(ctx, d)

	d.Capabilities = MergeCapabilities(MergeCapabilities(d.Capabilities, scenes), diy)
	return d, errors.Join(sErr, dErr)
}

// MergeCapabilities returns a copy of existing where capabilities from extra replace entries with the same type and
// instance that have no options. Capabilities not present in existing are appended.
func MergeCapabilities(existing, extra []Capability) []Capability {
	result := slices.Clone(existing)

	for _, e := range extra {
		i := slices.IndexFunc(result, func(c Capability) bool {
			return c.Type == e.Type && c.Instance == e.Instance
		})

		switch {
		case i < 0:
			result = append(result, e)
		case len(result[i].Parameters.Options) == 0:
			result[i] = e
		}
	}

	return result
}
