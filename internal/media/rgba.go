// ABOUTME: RGB24 to RGBA expansion honoring the scaler's row stride
// ABOUTME: Bounds-checked so malformed strides drop pixels, never panic
package media

// expandRGBRows copies a stride-padded RGB24 image into a tightly packed
// width*height*4 RGBA buffer with alpha forced opaque. swscale pads rows
// to alignment boundaries, so the stride must be honored rather than
// assuming width*3. Out-of-range source or destination indices skip the
// pixel.
func expandRGBRows(src []byte, stride, width, height int, dst []byte) {
	if stride < 0 || width <= 0 || height <= 0 {
		return
	}
	for y := 0; y < height; y++ {
		rowSrc := y * stride
		rowDst := y * width * 4
		for x := 0; x < width; x++ {
			si := rowSrc + x*3
			di := rowDst + x*4
			if si+2 >= len(src) || di+3 >= len(dst) {
				continue
			}
			dst[di] = src[si]
			dst[di+1] = src[si+1]
			dst[di+2] = src[si+2]
			dst[di+3] = 0xFF
		}
	}
}
