package converters

import "testing"

func TestRasterFormat(t *testing.T) {
	cases := []struct {
		target string
		flag   string
		ext    string
	}{
		{"jpg", "-jpeg", "jpg"},
		{"jpeg", "-jpeg", "jpg"},
		{"png", "-png", "png"},
		// pdftoppm -tiff writes a .tif suffix, not .tiff
		{"tiff", "-tiff", "tif"},
		{"webp", "-png", "png"},
		{"bmp", "-png", "png"},
		{"ico", "-png", "png"},
	}
	for _, tc := range cases {
		flag, ext := rasterFormat(tc.target)
		if flag != tc.flag || ext != tc.ext {
			t.Fatalf("rasterFormat(%s) = %s, %s; want %s, %s", tc.target, flag, ext, tc.flag, tc.ext)
		}
	}
}
