package converters

import (
	"context"
)

// avBackend delegates audio/video transcoding to ffmpeg with target
// appropriate codec parameters.
type avBackend struct {
	opts Options
}

// codec argument table per target container. Lossy audio uses constant
// quality settings; video containers use the common presets.
var avArgs = map[string][]string{
	"mp3":  {"-vn", "-codec:a", "libmp3lame", "-q:a", "2"},
	"wav":  {"-vn", "-codec:a", "pcm_s16le"},
	"aac":  {"-vn", "-codec:a", "aac", "-b:a", "192k"},
	"flac": {"-vn", "-codec:a", "flac"},
	"ogg":  {"-vn", "-codec:a", "libvorbis", "-q:a", "5"},
	"mp4":  {"-c:v", "libx264", "-preset", "medium", "-crf", "23", "-c:a", "aac", "-movflags", "+faststart"},
	"mov":  {"-c:v", "libx264", "-preset", "medium", "-crf", "23", "-c:a", "aac"},
	"mkv":  {"-c:v", "libx264", "-preset", "medium", "-crf", "23", "-c:a", "aac"},
	"webm": {"-c:v", "libvpx-vp9", "-crf", "32", "-b:v", "0", "-c:a", "libopus"},
}

func (b *avBackend) Convert(ctx context.Context, inputPath, target string, progress ProgressFunc) (string, error) {
	bin, err := lookupEngine("ffmpeg")
	if err != nil {
		return "", err
	}
	outPath, err := b.opts.Store.Allocate(target)
	if err != nil {
		return "", err
	}

	args := []string{"-y", "-i", inputPath}
	args = append(args, avArgs[target]...)
	args = append(args, outPath)

	progress(10, "transcoding")
	if err := runEngine(ctx, b.opts.EngineTimeout, bin, args...); err != nil {
		return "", err
	}
	if err := verifyOutput(outPath); err != nil {
		return "", err
	}
	progress(95, "transcode complete")
	return outPath, nil
}
