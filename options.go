package ggedit

import (
	"golang.org/x/image/font"
)

// Option configures a Renderer during creation.
//
// Example:
//
//	// Default software device, 800x600
//	r, err := ggedit.NewRenderer()
//
//	// Shared GPU device and settings from a file
//	dev, _ := ggedit.NewSharedGPUDevice(provider)
//	cfg, _ := ggedit.LoadConfig("ggedit.toml")
//	r, err := ggedit.NewRenderer(ggedit.WithDevice(dev), ggedit.WithConfig(cfg))
type Option func(*options)

// options holds optional configuration for Renderer creation.
type options struct {
	config    Config
	device    Device
	presenter Presenter
	face      font.Face
}

func defaultOptions() options {
	return options{config: DefaultConfig()}
}

// WithConfig replaces the default settings.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithDevice renders on dev instead of creating a device from
// Config.Backend. The caller keeps ownership of dev.
func WithDevice(dev Device) Option {
	return func(o *options) {
		o.device = dev
	}
}

// WithPresenter hands every finished frame to p.
func WithPresenter(p Presenter) Option {
	return func(o *options) {
		o.presenter = p
	}
}

// WithGlyphFace selects the face glyph runs are rasterized from. The
// default is golang.org/x/image/font/basicfont.Face7x13.
func WithGlyphFace(face font.Face) Option {
	return func(o *options) {
		o.face = face
	}
}
