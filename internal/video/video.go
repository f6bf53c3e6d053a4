package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ivlev/phasekit/internal/config"
)

// FrameWriter пишет кадры сегмента в raw RGBA.
type FrameWriter func(w io.Writer) error

type VideoEncoder interface {
	EncodeSegment(ctx context.Context, videoPath string, params config.SegmentParams, write FrameWriter) error
	Concatenate(ctx context.Context, segmentPaths []string, finalPath string, tmpDir string, params config.SegmentParams) error
}

type FFmpegEncoder struct{}

func (e *FFmpegEncoder) EncodeSegment(
	ctx context.Context,
	videoPath string,
	params config.SegmentParams,
	write FrameWriter,
) error {
	args := BuildFFmpegArgs(videoPath, params)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	// Запись raw RGBA данных, кадр за кадром
	if err := write(stdin); err != nil {
		stdin.Close()
		cmd.Wait()
		return fmt.Errorf("write raw error: %w", err)
	}
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w\nLog: %s", err, out.String())
	}

	return nil
}

// BuildFFmpegArgs собирает аргументы кодирования потока кадров из stdin.
func BuildFFmpegArgs(videoPath string, params config.SegmentParams) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", params.Width, params.Height),
		"-framerate", fmt.Sprintf("%d", params.FPS),
		"-i", "-",
		"-frames:v", fmt.Sprintf("%d", params.Frames),
		"-pix_fmt", "yuv420p",
		"-c:v", params.Encoder,
	}
	args = append(args, qualityArgs(params)...)
	args = append(args, videoPath)
	return args
}

// Качество в зависимости от энкодера
func qualityArgs(params config.SegmentParams) []string {
	switch params.Encoder {
	case "h264_videotoolbox":
		bitrate := params.Quality * 100
		return []string{"-b:v", fmt.Sprintf("%dk", bitrate)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", params.Quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", params.Quality), "-preset", "medium"}
	}
}

// BuildConcatArgs собирает аргументы склейки. Без фильтра сегменты
// копируются как есть, с фильтром ролик перекодируется.
func BuildConcatArgs(listPath, finalPath string, params config.SegmentParams) []string {
	args := []string{"-y", "-f", "concat", "-safe", "0", "-i", listPath}
	if params.Filter == "" {
		return append(args, "-c", "copy", finalPath)
	}
	args = append(args, "-vf", params.Filter, "-pix_fmt", "yuv420p", "-c:v", params.Encoder)
	args = append(args, qualityArgs(params)...)
	return append(args, finalPath)
}

// WriteRawRGBA пишет кадр без заголовков. Кадры с нестандартным stride
// предварительно копируются.
func WriteRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(bounds)
		draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}

func (e *FFmpegEncoder) Concatenate(ctx context.Context, segmentPaths []string, finalPath string, tmpDir string, params config.SegmentParams) error {
	if len(segmentPaths) == 0 {
		return fmt.Errorf("нет сегментов для склейки")
	}

	concatFilePath := filepath.Join(tmpDir, "inputs.txt")
	if err := WriteConcatList(concatFilePath, segmentPaths); err != nil {
		return err
	}

	// Сегменты закодированы одинаково, поэтому без фильтра склеиваем без перекодирования
	cmd := exec.CommandContext(ctx, "ffmpeg", BuildConcatArgs(concatFilePath, finalPath, params)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg concat error: %v, output: %s", err, string(out))
	}
	return nil
}

// WriteConcatList пишет список входов для concat demuxer.
func WriteConcatList(path string, segmentPaths []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	for _, p := range segmentPaths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			f.Close()
			return err
		}
		fmt.Fprintf(f, "file '%s'\n", absPath)
	}
	return f.Close()
}
