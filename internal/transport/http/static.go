package httptransport

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// StaticHandler serves the prebuilt client bundle. Bundle assets carry hashed
// filenames, so file hits get a one-year cache lifetime. Directories are
// never listed, index files never implied, and no path ever redirects:
// anything that is not a plain file under root is a 404.
type StaticHandler struct {
	root string
}

func NewStaticHandler(root string) *StaticHandler {
	return &StaticHandler{root: root}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	// Clean resolves any ".." segments before the path touches the
	// filesystem, so requests cannot escape the bundle root.
	name := filepath.Join(h.root, filepath.FromSlash(path.Clean("/"+r.URL.Path)))

	info, err := os.Stat(name)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	w.Header().Set("Cache-Control", "public, max-age=31536000")
	// ServeContent instead of ServeFile: ServeFile redirects index.html and
	// trailing-slash paths, which this surface must never do.
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
