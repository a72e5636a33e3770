// Package web holds the monitoring page.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"os"

	log "github.com/sirupsen/logrus"
)

// AssetsEnv names a directory that replaces the embedded page. It is meant
// for editing the page without rebuilding the simulator.
const AssetsEnv = "CAMINOS_MONITOR_ASSETS"

//go:embed dist/*
var staticAssets embed.FS

// GetAssets returns the files of the monitoring page.
func GetAssets() http.FileSystem {
	if dir := os.Getenv(AssetsEnv); dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			log.Infof("monitor serving assets from %s", dir)
			return http.Dir(dir)
		}

		log.Warnf("%s=%s is not a directory, serving the embedded page",
			AssetsEnv, dir)
	}

	subFS, err := fs.Sub(staticAssets, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(subFS)
}
