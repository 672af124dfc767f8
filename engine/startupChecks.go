package engine

import (
	"fmt"
	"os"
)

// inputDirectoryChecks ensures the input directory exists and is a directory
func inputDirectoryChecks(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		Logger.Error("Input directory does not exist", "path", path, "error", err)
		return fmt.Errorf("input directory does not exist: %s: %w", path, err)
	}
	if !info.IsDir() {
		Logger.Error("Input path exists but is not a directory", "path", path)
		return fmt.Errorf("input path is not a directory: %s", path)
	}
	return nil
}

// outputDirectoryChecks ensures the output directory exists, creating it and
// any parents when missing
func outputDirectoryChecks(path string) error {
	if path == "" {
		return fmt.Errorf("output path not configured")
	}

	outputInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			Logger.Info("Creating output directory", "path", path)
			err = os.MkdirAll(path, 0755)
			if err != nil {
				Logger.Error("Failed to create output directory", "path", path, "error", err)
				return err
			}
			Logger.Info("Output directory created successfully", "path", path)
			return nil
		}
		Logger.Error("Error checking output directory", "path", path, "error", err)
		return err
	}

	// Check if it's actually a directory
	if !outputInfo.IsDir() {
		Logger.Error("Output path exists but is not a directory", "path", path)
		return fmt.Errorf("output path is not a directory: %s", path)
	}

	Logger.Debug("Output directory exists", "path", path)
	return nil
}
