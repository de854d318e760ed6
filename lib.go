package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// resolveLibraryPath locates the ONNX Runtime shared library. The config
// value may point directly at the library file or at a directory holding
// the platform-default name.
func resolveLibraryPath(configured string) (string, error) {
	info, err := os.Stat(configured)
	if err != nil {
		return "", fmt.Errorf("onnxruntime library not found at %s: %w", configured, err)
	}
	if !info.IsDir() {
		return configured, nil
	}

	libPath := filepath.Join(configured, defaultLibraryName())
	if _, err := os.Stat(libPath); err != nil {
		return "", fmt.Errorf("onnxruntime library not found at %s: %w", libPath, err)
	}
	return libPath, nil
}

func defaultLibraryName() string {
	switch runtime.GOOS {
	case "darwin":
		return "libonnxruntime.dylib"
	case "windows":
		return "onnxruntime.dll"
	default:
		return "libonnxruntime.so"
	}
}
