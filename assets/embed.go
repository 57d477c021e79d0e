package assets

import (
	"bufio"
	"embed"
	"strings"
)

//go:embed index.html places.txt
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// PlaceLines returns the embedded place catalog,
// one "name,lat,lng" entry per line.
func PlaceLines() ([]string, error) {
	return readLines("places.txt")
}

// IndexHTML returns the embedded game page.
func IndexHTML() ([]byte, error) {
	return FS.ReadFile("index.html")
}
