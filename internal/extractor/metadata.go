package extractor

import (
	"context"
	"strings"
	"sync"

	"github.com/superline-ai/agent-detection/internal/event"
	"github.com/superline-ai/agent-detection/internal/port"
)

// TypeMetadata tags the environment metadata extractor.
const TypeMetadata = "environment_metadata"

// softwareRendererMarkers appear in the WebGL renderer string when the
// environment rasterizes in software, a common headless-browser tell.
var softwareRendererMarkers = []string{"swiftshader", "llvmpipe", "software", "mesa offscreen"}

// Metadata extracts features from the one-shot environment snapshot.
type Metadata struct {
	listenGuard

	port port.MetadataPort

	fetchOnce sync.Once
	meta      event.Metadata
	fetchErr  error
}

// NewMetadata creates the environment metadata extractor.
func NewMetadata(p port.MetadataPort) *Metadata {
	return &Metadata{port: p}
}

func (m *Metadata) Type() string { return TypeMetadata }

func (m *Metadata) ExtractFeatures(ctx context.Context) (Features, bool, error) {
	m.fetchOnce.Do(func() {
		m.meta, m.fetchErr = m.port.GetMetadata(ctx)
	})
	if m.fetchErr != nil {
		return m.DefaultFeatures(), false, m.fetchErr
	}

	f := m.DefaultFeatures()
	meta := m.meta

	if meta.ScreenWidth > 0 {
		f["screen_width"] = meta.ScreenWidth
	}
	if meta.ScreenHeight > 0 {
		f["screen_height"] = meta.ScreenHeight
	}
	if meta.DevicePixelRatio > 0 {
		f["device_pixel_ratio"] = meta.DevicePixelRatio
	}
	if meta.DeviceMemoryGB > 0 {
		f["device_memory"] = meta.DeviceMemoryGB
	}
	if meta.HardwareConcurrency > 0 {
		f["hardware_concurrency"] = meta.HardwareConcurrency
	}
	// Zero touch points is a legitimate desktop value, not a missing field.
	f["max_touch_points"] = meta.MaxTouchPoints
	if meta.Platform != "" {
		f["platform"] = meta.Platform
	}
	if meta.Timezone != "" {
		f["timezone"] = meta.Timezone
	}
	if meta.Language != "" {
		f["language"] = meta.Language
	}
	if meta.CookiesEnabled != nil {
		f["cookies_enabled"] = *meta.CookiesEnabled
	}
	if meta.WebGLVendor != "" {
		f["webgl_vendor"] = meta.WebGLVendor
	}
	if meta.WebGLRenderer != "" {
		f["webgl_renderer"] = meta.WebGLRenderer
		f["webgl_software_rendering"] = isSoftwareRenderer(meta.WebGLRenderer)
	}
	if meta.MediaDeviceCount > 0 {
		f["media_device_count"] = meta.MediaDeviceCount
	}

	return f, true, nil
}

func (m *Metadata) DefaultFeatures() Features {
	return Features{
		"screen_width":             -1,
		"screen_height":            -1,
		"device_pixel_ratio":       -1,
		"device_memory":            -1,
		"hardware_concurrency":     -1,
		"max_touch_points":         -1,
		"platform":                 "unknown",
		"timezone":                 "unknown",
		"language":                 "unknown",
		"cookies_enabled":          false,
		"webgl_vendor":             "unknown",
		"webgl_renderer":           "unknown",
		"webgl_software_rendering": false,
		"media_device_count":       -1,
	}
}

func (m *Metadata) ProcessEvents([]event.StoredEvent) {}

func (m *Metadata) EventHandlers() []EventHandler { return nil }

func isSoftwareRenderer(renderer string) bool {
	lower := strings.ToLower(renderer)
	for _, marker := range softwareRendererMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
