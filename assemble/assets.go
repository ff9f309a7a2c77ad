package assemble

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"impdex/config"
	"impdex/jpegquality"
	"impdex/state"
	imgutil "impdex/utils/images"
)

const faviconRasterName = "favicon.png"

// optimizeAssets re-encodes raster images in the tree as requested by assets
// configuration. Only runs for bundled output, tree output keeps asset files
// exactly as the generator wrote them.
func optimizeAssets(t *Tree, env *state.LocalEnv, log *zap.Logger) {
	cfg := &env.Cfg.Assets
	if !cfg.Optimize && (cfg.ScaleFactor == 0.0 || cfg.ScaleFactor == 1.0) && !cfg.RemovePNGTransparency {
		return
	}

	for _, f := range t.Files {
		if !isRasterAsset(f.Rel) {
			continue
		}
		data := f.Data
		if data == nil {
			var err error
			if data, err = os.ReadFile(f.Src); err != nil {
				log.Warn("Unable to read image, keeping original", zap.String("file", f.Rel), zap.Error(err))
				continue
			}
		}
		out, err := optimizeImage(data, cfg, log.With(zap.String("file", f.Rel)))
		if err != nil {
			log.Warn("Unable to optimize image, keeping original", zap.String("file", f.Rel), zap.Error(err))
			continue
		}
		if out != nil {
			f.Data = out
		}
	}
}

func isRasterAsset(rel string) bool {
	switch strings.ToLower(path.Ext(rel)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	}
	return false
}

// optimizeImage returns re-encoded image bytes, or nil when the original
// should be kept as is.
func optimizeImage(data []byte, cfg *config.AssetsConfig, log *zap.Logger) ([]byte, error) {
	img, imgType, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	imageChanged := false

	// Scaling
	if cfg.ScaleFactor > 0.0 && cfg.ScaleFactor != 1.0 {
		if imgType == "png" || imgType == "jpeg" {
			resizedImg := imaging.Resize(img, 0, int(float64(img.Bounds().Dy())*cfg.ScaleFactor), imaging.Linear)
			if resizedImg == nil {
				return nil, errors.New("unable to resize image")
			}
			img = resizedImg
			imageChanged = true
		}
	}

	// PNG transparency
	if cfg.RemovePNGTransparency && imgType == "png" {
		opaque := func(im image.Image) bool {
			if oimg, ok := im.(interface{ Opaque() bool }); ok {
				return oimg.Opaque()
			}
			return true
		}(img)

		if !opaque {
			log.Debug("Removing PNG transparency")
			opaqueImg := image.NewRGBA(img.Bounds())
			draw.Draw(opaqueImg, img.Bounds(), image.White, image.Point{}, draw.Src)
			draw.Draw(opaqueImg, img.Bounds(), img, image.Point{}, draw.Over)
			img = opaqueImg
			imageChanged = true
		}
	}

	// Compression & image quality
	if cfg.Optimize {
		switch imgType {
		case "jpeg":
			jr, err := jpegquality.NewWithBytes(data)
			if err != nil {
				log.Warn("Unable to detect JPEG quality level, skipping...", zap.Error(err))
				break
			}

			q := jr.Quality()
			if q <= cfg.JPEGQuality {
				log.Debug("JPEG quality level already lower than requested, skipping...",
					zap.Int("detected", q), zap.Int("requested", cfg.JPEGQuality))
				if !imageChanged {
					// Viewers reading bundled trees expect the density header
					// even on images we leave alone.
					fixed, added, err := imgutil.EnsureJFIFAPP0(data, imgutil.DpiPxPerInch, 300, 300)
					if err == nil && added {
						log.Debug("Inserting jpeg JFIF APP0 marker segment")
						return fixed, nil
					}
				}
				break
			}

			log.Debug("JPEG quality level higher than requested, reencoding...",
				zap.Int("detected", q), zap.Int("requested", cfg.JPEGQuality))

			imageChanged = true
		case "png":
			imageChanged = true
		}
	}

	if !imageChanged {
		return nil, nil
	}
	return encodeImage(img, imgType, cfg, log)
}

func encodeImage(img image.Image, imgType string, cfg *config.AssetsConfig, log *zap.Logger) ([]byte, error) {
	switch imgType {
	case "png":
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
			return nil, fmt.Errorf("unable to encode processed PNG: %w", err)
		}
		return buf.Bytes(), nil
	case "jpeg":
		// Standard encoder keeps three channels for gray sources unless
		// handed an *image.Gray.
		if _, ok := img.(*image.Gray); !ok && imgutil.IsGrayscale(img) {
			grayImg := image.NewGray(img.Bounds())
			draw.Draw(grayImg, img.Bounds(), img, img.Bounds().Min, draw.Src)
			img = grayImg
		}
		data, err := imgutil.EncodeJPEGWithDPI(img, cfg.JPEGQuality, imgutil.DpiPxPerInch, 300, 300)
		if err != nil {
			return nil, fmt.Errorf("unable to encode processed JPEG: %w", err)
		}
		return data, nil
	default:
		log.Warn("Unable to process image - unsupported format, skipping", zap.String("type", imgType))
		return nil, nil
	}
}

// ensureFavicon adds a rasterized favicon when the tree does not carry one.
// Prefers the logo shipped with the tree over the built-in icon.
func ensureFavicon(t *Tree, env *state.LocalEnv, log *zap.Logger) {
	if t.hasMember(faviconRasterName) {
		return
	}

	svg := env.DefaultIcons[config.IconKindFavicon]
	for _, f := range t.Files {
		base := strings.ToLower(path.Base(f.Rel))
		if !strings.Contains(base, "logo") || path.Ext(base) != ".svg" {
			continue
		}
		data := f.Data
		if data == nil {
			var err error
			if data, err = os.ReadFile(f.Src); err != nil {
				log.Warn("Unable to read tree logo, using built-in icon", zap.String("file", f.Rel), zap.Error(err))
				break
			}
		}
		svg = data
		break
	}
	if len(svg) == 0 {
		return
	}

	img, err := imgutil.RasterizeSVGToImage(svg, 32, 32)
	if err != nil {
		log.Warn("Unable to rasterize favicon, skipping", zap.Error(err))
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		log.Warn("Unable to encode favicon, skipping", zap.Error(err))
		return
	}
	t.Files = append(t.Files, &File{Rel: faviconRasterName, Data: buf.Bytes()})
	log.Debug("Installing rasterized favicon", zap.String("file", faviconRasterName))
}
