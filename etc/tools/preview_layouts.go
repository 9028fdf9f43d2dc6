package main

import (
	"dtr-image/internal/dtr"
	"dtr-image/internal/infra/fs"
	"dtr-image/internal/render"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/gofont/goregular"
)

// go run etc/tools/preview_layouts.go
// in etc/previews/<layout>/DTR_image.*
func main() {
	fmt.Println("Rendering layout previews...")

	fontPath := filepath.Join(os.TempDir(), "dtr-preview-goregular.ttf")
	if err := os.WriteFile(fontPath, goregular.TTF, 0644); err != nil {
		fmt.Printf("Error writing preview font: %v\n", err)
		os.Exit(1)
	}
	defer os.Remove(fontPath)

	renderer := render.NewRenderer(render.NewTemplate(backdrop(1600, 1350)), render.NewFontLoader(fontPath, fontPath))
	registry, err := dtr.NewRegistry(nil)
	if err != nil {
		fmt.Printf("Error building layouts: %v\n", err)
		os.Exit(1)
	}

	sample := dtr.Inputs{EntryPrice: "0.0042", MarkPrice: "0.0063", ATH: "0.0071", TokenSymbol: "SOL"}
	for _, name := range registry.Names() {
		layout, _ := registry.Get(name)
		res, err := renderer.Render(layout, sample)
		if err != nil {
			fmt.Printf("Error rendering %s: %v\n", name, err)
			os.Exit(1)
		}
		paths, err := fs.SaveArtifacts(filepath.Join("etc", "previews"), name, res.Artifacts)
		if err != nil {
			fmt.Printf("Error saving %s: %v\n", name, err)
			os.Exit(1)
		}
		for _, p := range paths {
			fmt.Printf("  %s -> %s (%s)\n", name, p, res.PercentChange)
		}
	}
	fmt.Println("Open the files to check field placement.")
}

func backdrop(w, h int) image.Image {
	dc := gg.NewContext(w, h)
	grad := gg.NewLinearGradient(0, 0, float64(w), float64(h))
	grad.AddColorStop(0, color.RGBA{R: 18, G: 22, B: 38, A: 255})
	grad.AddColorStop(1, color.RGBA{R: 44, G: 20, B: 60, A: 255})
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	dc.Fill()
	return dc.Image()
}
