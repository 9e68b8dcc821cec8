// Package paths initializes the program's files and directories.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"playlistdl/internal/domain/consts"
)

const (
	progDir     = ".playlistdl"
	dbFile      = "playlistdl.db"
	logFile     = "playlistdl.log"
	downloadDir = "playlistdl"
)

// File and directory path strings.
var (
	HomeProgDir         string
	DBFilePath          string
	LogFilePath         string
	DefaultDownloadPath string
)

// InitProgFilesDirs initializes necessary program directories and filepaths.
func InitProgFilesDirs() error {
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		return errors.New("failed to get home directory")
	}

	// Home program dir ~/.playlistdl
	HomeProgDir = filepath.Join(userHomeDir, progDir)
	if _, err := os.Stat(HomeProgDir); os.IsNotExist(err) {
		if err := os.MkdirAll(HomeProgDir, consts.PermsHomeProgDir); err != nil {
			return fmt.Errorf("failed to make directories: %w", err)
		}
	}

	DBFilePath = filepath.Join(HomeProgDir, dbFile)
	LogFilePath = filepath.Join(HomeProgDir, logFile)
	DefaultDownloadPath = filepath.Join(userHomeDir, "Downloads", downloadDir)
	return nil
}
