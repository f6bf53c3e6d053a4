package system

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	// каждый сегмент держит открытым пайп ffmpeg и временный файл
	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	} else {
		fmt.Printf("[*] Системный лимит открытых файлов увеличен до %d\n", rLimit.Cur)
	}
}

// FindLatest возвращает самый свежий файл в dir с одним из расширений.
func FindLatest(dir string, extensions ...string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExtension(f.Name(), extensions) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("в папке %s не найдено файлов %s", dir, strings.Join(extensions, ", "))
	}
	return latestFile, nil
}

// FindLatestSTL ищет самую свежую модель в указанной директории.
func FindLatestSTL(dir string) (string, error) {
	return FindLatest(dir, ".stl")
}

// FindLatestTimeline ищет самый свежий YAML-таймлайн.
func FindLatestTimeline(dir string) (string, error) {
	return FindLatest(dir, ".yaml", ".yml")
}

func hasExtension(name string, extensions []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// h264Encoders в порядке приоритета:
// 1. MacOS (VideoToolbox)
// 2. NVIDIA (NVENC)
// libx264 - программный запасной вариант.
var h264Encoders = []string{"h264_videotoolbox", "h264_nvenc"}

// GetBestH264Encoder спрашивает у ffmpeg список энкодеров и выбирает лучший.
func GetBestH264Encoder() string {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	return PickH264Encoder(string(out))
}

// PickH264Encoder выбирает энкодер по выводу `ffmpeg -encoders`.
func PickH264Encoder(encoders string) string {
	for _, name := range h264Encoders {
		if strings.Contains(encoders, name) {
			return name
		}
	}
	return "libx264"
}

// HasFFmpeg проверяет, что ffmpeg доступен в PATH.
func HasFFmpeg() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}
