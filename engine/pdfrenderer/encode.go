package pdfrenderer

import (
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
)

// SaveImage encodes img to path with the encoder selected by format ("png",
// "jpg", "jpeg", "gif", "tif", "tiff", "bmp"). Any other format string is handed
// to the encoder unchanged and fails there with ErrImageEncode. Returns the
// number of bytes written.
func SaveImage(img image.Image, path, format string, jpegQuality int) (int64, error) {
	imgFormat, err := imaging.FormatFromExtension(format)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrImageEncode, path, err)
	}

	outFile, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("%w: unable to create output image file: %v", ErrImageEncode, err)
	}

	var opts []imaging.EncodeOption
	if imgFormat == imaging.JPEG && jpegQuality > 0 {
		opts = append(opts, imaging.JPEGQuality(jpegQuality))
	}

	if err := imaging.Encode(outFile, img, imgFormat, opts...); err != nil {
		outFile.Close()
		os.Remove(path)
		return 0, fmt.Errorf("%w: %s: %v", ErrImageEncode, path, err)
	}

	info, err := outFile.Stat()
	if cerr := outFile.Close(); cerr != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrImageEncode, path, cerr)
	}
	if err != nil {
		return 0, nil
	}
	return info.Size(), nil
}
