// ABOUTME: Playback device enumeration
// ABOUTME: Lists output devices through miniaudio for the devices command
package output

import (
	"fmt"

	"github.com/gen2brain/malgo"
)

// DeviceInfo describes a playback device
type DeviceInfo struct {
	Name    string
	ID      string
	Default bool
}

// Devices lists the playback devices known to the system. The names are
// what AudioConfig.Device selects on the malgo backend.
func Devices() ([]DeviceInfo, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer freeMalgoContext(ctx)

	infos, err := ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("failed to list playback devices: %w", err)
	}

	devices := make([]DeviceInfo, 0, len(infos))
	for i := range infos {
		devices = append(devices, DeviceInfo{
			Name:    infos[i].Name(),
			ID:      infos[i].ID.String(),
			Default: infos[i].IsDefault != 0,
		})
	}
	return devices, nil
}
