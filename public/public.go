package public

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed html
var PublicFS embed.FS

const (
	// OverrideDir 下的同名文件优先于内置页面
	OverrideDir = "./data/html"
	PagePrefix  = "/html"
)

// isSafePath 验证路径是否在指定的基础目录内，防止路径穿透攻击
func isSafePath(basePath, targetPath string) bool {
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return false
	}
	absTarget, err := filepath.Abs(filepath.Join(absBase, filepath.Clean(targetPath)))
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil {
		return false
	}
	return !strings.HasPrefix(rel, "..") && rel != ".."
}

// Static 注册 /html/* 页面
func Static(r gin.IRoutes) {
	htmlFS, err := fs.Sub(PublicFS, "html")
	if err != nil {
		panic("public: html directory missing from embed")
	}
	fileServer := http.StripPrefix(PagePrefix, http.FileServer(http.FS(htmlFS)))

	r.GET(PagePrefix+"/*filepath", func(c *gin.Context) {
		name := strings.TrimPrefix(path.Clean(c.Param("filepath")), "/")
		if name != "" && isSafePath(OverrideDir, name) {
			custom := filepath.Join(OverrideDir, filepath.FromSlash(name))
			if st, err := os.Stat(custom); err == nil && !st.IsDir() {
				c.File(custom)
				return
			}
		}
		fileServer.ServeHTTP(c.Writer, c.Request)
	})
}
