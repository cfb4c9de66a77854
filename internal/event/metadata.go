package event

// Metadata is a one-shot snapshot of the browser environment, fetched once
// per session through the metadata port. Adapters populate what the
// environment exposes; absent fields keep their zero value and the metadata
// extractor substitutes sentinels downstream.
type Metadata struct {
	UserAgent string `json:"user_agent,omitempty"`
	Platform  string `json:"platform,omitempty"`
	Language  string `json:"language,omitempty"`
	Timezone  string `json:"timezone,omitempty"`

	ScreenWidth      int     `json:"screen_width,omitempty"`
	ScreenHeight     int     `json:"screen_height,omitempty"`
	DevicePixelRatio float64 `json:"device_pixel_ratio,omitempty"`

	HardwareConcurrency int     `json:"hardware_concurrency,omitempty"`
	DeviceMemoryGB      float64 `json:"device_memory,omitempty"`
	MaxTouchPoints      int     `json:"max_touch_points,omitempty"`

	CookiesEnabled *bool `json:"cookies_enabled,omitempty"`

	WebGLVendor   string `json:"webgl_vendor,omitempty"`
	WebGLRenderer string `json:"webgl_renderer,omitempty"`

	MediaDeviceCount int `json:"media_device_count,omitempty"`
}
