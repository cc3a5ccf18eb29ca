package api

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/liliang-cn/imagestudio/internal/storage"
)

//go:embed static
var embeddedStatic embed.FS

// FrontendFS returns the frontend files. A public directory on disk takes
// precedence over the copy built into the binary.
func FrontendFS(publicDir string) (fs.FS, error) {
	if publicDir != "" {
		if info, err := os.Stat(publicDir); err == nil && info.IsDir() {
			return os.DirFS(publicDir), nil
		}
	}
	return fs.Sub(embeddedStatic, "static")
}

// SetupStaticRoutes serves saved images under /images and the frontend for
// every other GET that no route matched.
func SetupStaticRoutes(r *gin.Engine, imagesDir, publicDir string) error {
	r.Static(storage.URLPrefix, imagesDir)

	site, err := FrontendFS(publicDir)
	if err != nil {
		return err
	}
	files := http.FileServer(http.FS(site))

	r.NoRoute(func(c *gin.Context) {
		method := c.Request.Method
		if (method != http.MethodGet && method != http.MethodHead) || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	})

	return nil
}
