// Command ggedit-demo renders a sample editor frame and saves it as PNG.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/ggedit"
	"github.com/gogpu/ggedit/core"
)

func main() {
	var (
		config  = flag.String("config", "", "TOML or YAML config file")
		width   = flag.Int("width", 0, "frame width, overrides the config")
		height  = flag.Int("height", 0, "frame height, overrides the config")
		backend = flag.String("backend", "", "device backend: software or gpu")
		output  = flag.String("output", "ggedit-demo.png", "output file")
		tint    = flag.Bool("tint", false, "activate the selection tint effect")
		blur    = flag.Float64("blur", 0, "blur radius, 0 disables the blur effect")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		ggedit.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	cfg := ggedit.DefaultConfig()
	if *config != "" {
		var err error
		if cfg, err = ggedit.LoadConfig(*config); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *width > 0 {
		cfg.Width = *width
	}
	if *height > 0 {
		cfg.Height = *height
	}
	if *backend != "" {
		cfg.Backend = *backend
	}

	r, err := ggedit.NewRenderer(ggedit.WithConfig(cfg))
	if err != nil {
		log.Fatalf("Failed to create renderer: %v", err)
	}
	defer r.Close()

	photo, err := r.LoadImage("checkerboard", checkerboard(16, 16), ggedit.Sampling{Wrap: ggedit.WrapRepeat})
	if err != nil {
		log.Fatalf("Failed to upload image: %v", err)
	}

	if *tint {
		_ = r.Effects().Activate("selection", "select", ggedit.Tint(core.RGB(0, 0, 0.15))...)
	}
	if *blur > 0 {
		_ = r.Effects().Activate("soften", "filters", ggedit.Blur(float32(*blur))...)
	}

	status, err := r.RenderFrame(scene(r, photo)...)
	if err != nil {
		log.Fatalf("Failed to render: %v", err)
	}
	for _, e := range status.Errors {
		log.Printf("frame: %v", e)
	}
	for _, d := range status.Diagnostics {
		log.Printf("shader: %s", d)
	}

	img, err := r.ReadPixels()
	if err != nil {
		log.Fatalf("Failed to read frame: %v", err)
	}
	if err := savePNG(*output, img); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Frame saved to %s (%dx%d, %d draws, %d effect passes)\n",
		*output, cfg.Width, cfg.Height, status.Draws, status.EffectPasses)
}

// scene lays out a canvas with a photo, a selection highlight, a caption
// and a tool preview.
func scene(r *ggedit.Renderer, photo *ggedit.Texture) []ggedit.Drawable {
	w, h := r.Size()
	fw, fh := float32(w), float32(h)
	canvas := core.R(fw*0.1, fh*0.1, fw*0.8, fh*0.7)

	caption := "ggedit demo"
	return []ggedit.Drawable{
		ggedit.FlatShape{Rects: []core.Rect{canvas.Inset(-4)}, Color: core.RGBA2(0, 0, 0, 0.5)},
		ggedit.ImageQuad{
			Texture: photo,
			Dst:     canvas,
			Src:     core.R(0, 0, canvas.W/8, canvas.H/8),
		},
		ggedit.ImageQuad{
			Texture: photo,
			Dst:     core.R(canvas.X+20, canvas.Y+20, 64, 64),
			Tint:    core.RGB(1, 0.8, 0.3),
			Tinted:  true,
		},
		ggedit.GlyphRun{
			Text:   caption,
			Origin: core.Pt((fw-r.MeasureText(caption))/2, canvas.Bottom()+8),
			Color:  core.White,
			Align:  ggedit.AlignTop,
		},
		ggedit.ToolPreview{
			Bounds: core.R(canvas.X+canvas.W/3, canvas.Y+canvas.H/3, canvas.W/3, canvas.H/3),
			Fill:   core.RGBA2(0.2, 0.5, 1, 0.2),
			Color:  core.RGB(0.2, 0.5, 1),
			Width:  2,
		},
	}
}

// checkerboard returns a two-tone image tiled by a repeat sampler.
func checkerboard(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	light := color.NRGBA{200, 200, 200, 255}
	dark := color.NRGBA{120, 120, 120, 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/8+y/8)%2 == 0 {
				img.Set(x, y, light)
			} else {
				img.Set(x, y, dark)
			}
		}
	}
	return img
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
